package handlers_test

import (
	"context"
	"net/http"
	"testing"

	"shikkha_backend/internal/appErrors"
	"shikkha_backend/internal/handlers"
	"shikkha_backend/internal/services/dto"
	"shikkha_backend/internal/validator"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePushService struct {
	err  error
	last *dto.RegisterSubscriptionRequest
}

func (f *fakePushService) Register(ctx context.Context, req *dto.RegisterSubscriptionRequest) error {
	f.last = req
	return f.err
}

func newPushRouter(svc *fakePushService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	base := handlers.NewBaseHandler(validator.New())
	handlers.NewPushHandler(base, svc).RegisterRoutes(router.Group("/api/v1"))
	return router
}

func validSubscription() map[string]interface{} {
	return map[string]interface{}{
		"userId":   "admin-1",
		"endpoint": "https://push.example.com/send/abc",
		"keys": map[string]string{
			"p256dh": "BPubKey",
			"auth":   "authSecret",
		},
	}
}

func TestRegisterSubscription(t *testing.T) {
	svc := &fakePushService{}
	router := newPushRouter(svc)

	recorder := doJSON(t, router, http.MethodPost, "/api/v1/push/subscriptions", validSubscription())

	assert.Equal(t, http.StatusCreated, recorder.Code)
	require.NotNil(t, svc.last)
	assert.Equal(t, "admin-1", svc.last.UserID)
	assert.Equal(t, "BPubKey", svc.last.Keys.P256dh)
}

func TestRegisterSubscription_MissingKeys(t *testing.T) {
	router := newPushRouter(&fakePushService{})

	body := validSubscription()
	delete(body, "keys")
	recorder := doJSON(t, router, http.MethodPost, "/api/v1/push/subscriptions", body)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestRegisterSubscription_PersistenceError(t *testing.T) {
	svc := &fakePushService{err: appErrors.ErrPersistenceFailed}
	router := newPushRouter(svc)

	recorder := doJSON(t, router, http.MethodPost, "/api/v1/push/subscriptions", validSubscription())

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
}
