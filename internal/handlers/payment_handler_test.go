package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"shikkha_backend/internal/appErrors"
	"shikkha_backend/internal/handlers"
	"shikkha_backend/internal/services/dto"
	"shikkha_backend/internal/validator"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEnrollmentService struct {
	checkoutResp *dto.CreatePaymentResponse
	processResp  *dto.EnrollmentResponse
	verifyResp   *dto.VerifyPaymentResponse
	err          error
	webhookErr   error

	lastWebhook *dto.WebhookRequest
	lastProcess *dto.ProcessEnrollmentRequest
}

func (f *fakeEnrollmentService) CreateCheckout(ctx context.Context, req *dto.CreatePaymentRequest) (*dto.CreatePaymentResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.checkoutResp, nil
}

func (f *fakeEnrollmentService) ProcessTransaction(ctx context.Context, req *dto.ProcessEnrollmentRequest) (*dto.EnrollmentResponse, error) {
	f.lastProcess = req
	if f.err != nil {
		return nil, f.err
	}
	return f.processResp, nil
}

func (f *fakeEnrollmentService) HandleWebhook(ctx context.Context, req *dto.WebhookRequest) error {
	f.lastWebhook = req
	return f.webhookErr
}

func (f *fakeEnrollmentService) VerifyOnly(ctx context.Context, identifier string) (*dto.VerifyPaymentResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.verifyResp, nil
}

func newRouter(svc *fakeEnrollmentService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	base := handlers.NewBaseHandler(validator.New())
	handler := handlers.NewPaymentHandler(base, svc)
	handler.RegisterRoutes(router.Group("/api/v1"))
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if raw, ok := body.([]byte); ok {
		reader = bytes.NewReader(raw)
	} else {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestProcessEnrollment_MissingFields(t *testing.T) {
	router := newRouter(&fakeEnrollmentService{})

	recorder := doJSON(t, router, http.MethodPost, "/api/v1/payments/process-enrollment",
		map[string]string{"transaction_id": "TXN-1"}) // no userId

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "VALIDATION_FAILED")
}

func TestProcessEnrollment_OwnershipMismatchIs403(t *testing.T) {
	svc := &fakeEnrollmentService{err: appErrors.ErrOwnershipMismatch}
	router := newRouter(svc)

	recorder := doJSON(t, router, http.MethodPost, "/api/v1/payments/process-enrollment",
		map[string]string{"transaction_id": "TXN-1", "userId": "intruder"})

	assert.Equal(t, http.StatusForbidden, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "OWNERSHIP_MISMATCH")
}

func TestProcessEnrollment_Success(t *testing.T) {
	svc := &fakeEnrollmentService{
		processResp: &dto.EnrollmentResponse{
			Success:          true,
			Verified:         true,
			AlreadyProcessed: false,
		},
	}
	router := newRouter(svc)

	recorder := doJSON(t, router, http.MethodPost, "/api/v1/payments/process-enrollment",
		map[string]string{"transaction_id": "TXN-1", "userId": "u1"})

	require.Equal(t, http.StatusOK, recorder.Code)

	var resp dto.EnrollmentResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.True(t, resp.Verified)
	assert.False(t, resp.AlreadyProcessed)

	require.NotNil(t, svc.lastProcess)
	assert.Equal(t, "u1", svc.lastProcess.UserID)
}

func TestProcessEnrollment_GatewayErrorIs400(t *testing.T) {
	svc := &fakeEnrollmentService{err: appErrors.ErrGatewayUnavailable}
	router := newRouter(svc)

	recorder := doJSON(t, router, http.MethodPost, "/api/v1/payments/process-enrollment",
		map[string]string{"transaction_id": "TXN-1", "userId": "u1"})

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestWebhook_Acknowledged(t *testing.T) {
	svc := &fakeEnrollmentService{}
	router := newRouter(svc)

	recorder := doJSON(t, router, http.MethodPost, "/api/v1/payments/webhook",
		map[string]interface{}{"transactionId": "TXN-1", "status": "PENDING"})

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "received")
	require.NotNil(t, svc.lastWebhook)
	assert.Equal(t, "PENDING", svc.lastWebhook.Status)
}

func TestWebhook_StringEncodedAmount(t *testing.T) {
	svc := &fakeEnrollmentService{}
	router := newRouter(svc)

	recorder := doJSON(t, router, http.MethodPost, "/api/v1/payments/webhook",
		[]byte(`{"transactionId":"TXN-1","status":"COMPLETED","paymentAmount":"500.00"}`))

	assert.Equal(t, http.StatusOK, recorder.Code)
	require.NotNil(t, svc.lastWebhook, "a string-encoded amount must not drop the delivery")
	assert.Equal(t, "TXN-1", svc.lastWebhook.TransactionID)
	assert.Equal(t, "COMPLETED", svc.lastWebhook.Status)
	assert.Equal(t, 500.0, svc.lastWebhook.PaymentAmount)
}

func TestWebhook_InternalErrorIs500(t *testing.T) {
	svc := &fakeEnrollmentService{webhookErr: appErrors.ErrPersistenceFailed}
	router := newRouter(svc)

	recorder := doJSON(t, router, http.MethodPost, "/api/v1/payments/webhook",
		map[string]interface{}{"transactionId": "TXN-1", "status": "COMPLETED"})

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
}

func TestWebhook_UnparseableBodyIsAcknowledged(t *testing.T) {
	svc := &fakeEnrollmentService{}
	router := newRouter(svc)

	recorder := doJSON(t, router, http.MethodPost, "/api/v1/payments/webhook", []byte("not json"))

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Nil(t, svc.lastWebhook, "service must not run on an unparseable payload")
}

func TestVerifyPayment_RequiresAnIdentifier(t *testing.T) {
	router := newRouter(&fakeEnrollmentService{})

	recorder := doJSON(t, router, http.MethodPost, "/api/v1/payments/verify", map[string]string{})

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestVerifyPayment_Pending(t *testing.T) {
	svc := &fakeEnrollmentService{
		verifyResp: &dto.VerifyPaymentResponse{Success: true, Verified: false, Status: "PENDING"},
	}
	router := newRouter(svc)

	recorder := doJSON(t, router, http.MethodPost, "/api/v1/payments/verify",
		map[string]string{"transaction_id": "TXN-1"})

	require.Equal(t, http.StatusOK, recorder.Code)

	var resp dto.VerifyPaymentResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.False(t, resp.Verified)
	assert.Equal(t, "PENDING", resp.Status)
}

func TestCreatePayment(t *testing.T) {
	svc := &fakeEnrollmentService{
		checkoutResp: &dto.CreatePaymentResponse{PaymentURL: "https://pay.example.com/checkout/abc"},
	}
	router := newRouter(svc)

	recorder := doJSON(t, router, http.MethodPost, "/api/v1/payments/create", map[string]interface{}{
		"fullname": "Rahim Uddin",
		"email":    "rahim@example.com",
		"amount":   500,
		"metadata": map[string]interface{}{
			"userId":   "u1",
			"subtotal": 500,
			"courses":  []map[string]interface{}{{"id": "c1", "title": "Algebra I", "price": 500}},
		},
	})

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "payment_url")
}

func TestCreatePayment_InvalidEmail(t *testing.T) {
	router := newRouter(&fakeEnrollmentService{})

	recorder := doJSON(t, router, http.MethodPost, "/api/v1/payments/create", map[string]interface{}{
		"fullname": "Rahim Uddin",
		"email":    "not-an-email",
		"amount":   500,
		"metadata": map[string]interface{}{
			"userId":  "u1",
			"courses": []map[string]interface{}{{"id": "c1", "title": "Algebra I", "price": 500}},
		},
	})

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}
