package services

import (
	"context"
	"strings"
	"time"

	"shikkha_backend/internal/appErrors"
	"shikkha_backend/internal/gateway"
	"shikkha_backend/internal/logger"
	"shikkha_backend/internal/models"
	"shikkha_backend/internal/repositories"
	"shikkha_backend/internal/services/dto"
)

// PaymentGateway is the slice of the gateway client the pipeline needs.
type PaymentGateway interface {
	VerifyTransaction(ctx context.Context, identifier string) (*gateway.VerificationResult, error)
	CreateCheckout(ctx context.Context, req gateway.CheckoutRequest, redirectURL, cancelURL, webhookURL string) (string, error)
}

// EnrollmentService runs the payment verification and enrollment pipeline.
// Both entry points converge here: the webhook path re-verifies and commits,
// the client path additionally enforces ownership before committing.
type EnrollmentService interface {
	// CreateCheckout opens a gateway checkout session (upstream of the
	// pipeline, not idempotency-guarded).
	CreateCheckout(ctx context.Context, req *dto.CreatePaymentRequest) (*dto.CreatePaymentResponse, error)

	// ProcessTransaction is the synchronous verify-and-enroll path invoked
	// by the client after the checkout redirect.
	ProcessTransaction(ctx context.Context, req *dto.ProcessEnrollmentRequest) (*dto.EnrollmentResponse, error)

	// HandleWebhook processes an asynchronous gateway delivery. A nil
	// return means "acknowledge with 200", whether or not an enrollment
	// happened; an error means an internal failure on a genuinely
	// completed payment, which the gateway should retry.
	HandleWebhook(ctx context.Context, req *dto.WebhookRequest) error

	// VerifyOnly reports a transaction's verified state without writing
	// anything.
	VerifyOnly(ctx context.Context, identifier string) (*dto.VerifyPaymentResponse, error)
}

// CheckoutURLs carries the redirect endpoints passed through to the gateway.
type CheckoutURLs struct {
	Redirect string
	Cancel   string
	Webhook  string
}

type enrollmentService struct {
	gateway        PaymentGateway
	payments       repositories.PaymentRepository
	dispatcher     NotificationDispatcher
	urls           CheckoutURLs
	persistTimeout time.Duration
}

func NewEnrollmentService(
	gatewayClient PaymentGateway,
	payments repositories.PaymentRepository,
	dispatcher NotificationDispatcher,
	urls CheckoutURLs,
) EnrollmentService {
	return &enrollmentService{
		gateway:        gatewayClient,
		payments:       payments,
		dispatcher:     dispatcher,
		urls:           urls,
		persistTimeout: 10 * time.Second,
	}
}

func (s *enrollmentService) CreateCheckout(ctx context.Context, req *dto.CreatePaymentRequest) (*dto.CreatePaymentResponse, error) {
	metadata := gateway.PaymentMetadata{
		UserID:     req.Metadata.UserID,
		Courses:    toCourseRefs(req.Metadata.Courses),
		Subtotal:   req.Metadata.Subtotal,
		Discount:   req.Metadata.Discount,
		CouponCode: req.Metadata.CouponCode,
	}

	paymentURL, err := s.gateway.CreateCheckout(ctx, gateway.CheckoutRequest{
		FullName: req.FullName,
		Email:    req.Email,
		Amount:   req.Amount,
		Metadata: metadata,
	}, s.urls.Redirect, s.urls.Cancel, s.urls.Webhook)
	if err != nil {
		return nil, err
	}

	logger.CtxInfo(ctx, "checkout session created", "user_id", req.Metadata.UserID, "amount", req.Amount)
	return &dto.CreatePaymentResponse{PaymentURL: paymentURL}, nil
}

func (s *enrollmentService) ProcessTransaction(ctx context.Context, req *dto.ProcessEnrollmentRequest) (*dto.EnrollmentResponse, error) {
	result, err := s.gateway.VerifyTransaction(ctx, req.TransactionID)
	if err != nil {
		return nil, err
	}

	if !result.Verified() {
		return nil, appErrors.ErrPaymentNotCompleted.WithDetails(string(result.Outcome))
	}

	if result.Metadata.UserID == "" {
		// Without a metadata user there is nobody to enroll and nothing to
		// check ownership against.
		return nil, appErrors.ErrVerificationFailed.WithDetails("transaction metadata has no userId")
	}

	// Ownership check, client path only: a transaction id is not a secret,
	// so the caller must match the user recorded at checkout.
	if result.Metadata.UserID != req.UserID {
		logger.CtxWarn(ctx, "ownership mismatch on enrollment attempt",
			"transaction_id", req.TransactionID,
			"requesting_user", req.UserID,
			"metadata_user", result.Metadata.UserID,
		)
		return nil, appErrors.ErrOwnershipMismatch
	}

	record, created, err := s.commit(ctx, result)
	if err != nil {
		return nil, err
	}

	response := &dto.EnrollmentResponse{
		Success:          true,
		Verified:         true,
		AlreadyProcessed: !created,
		Payment:          result,
		PaymentRecord:    record,
	}

	if created {
		s.dispatch(ctx, record, result.Metadata.Courses)
	}

	return response, nil
}

func (s *enrollmentService) HandleWebhook(ctx context.Context, req *dto.WebhookRequest) error {
	if req.TransactionID == "" {
		logger.CtxWarn(ctx, "webhook without transaction id, acknowledging")
		return nil
	}

	// The payload's status is only a hint. Anything but a completed hint is
	// acknowledged without touching the gateway or the store, so the sender
	// stops redelivering.
	if !strings.EqualFold(strings.TrimSpace(req.Status), string(gateway.OutcomeCompleted)) {
		logger.CtxInfo(ctx, "webhook ignored: status is not completed",
			"transaction_id", req.TransactionID, "status", req.Status)
		return nil
	}

	// Independent re-verification. An unverifiable webhook is not the
	// sender's problem: acknowledge and move on.
	result, err := s.gateway.VerifyTransaction(ctx, req.TransactionID)
	if err != nil {
		logger.CtxWithError(ctx, "webhook re-verification failed, acknowledging", err,
			"transaction_id", req.TransactionID)
		return nil
	}

	if !result.Verified() {
		logger.CtxWarn(ctx, "webhook claimed completion but gateway disagrees",
			"transaction_id", req.TransactionID,
			"claimed", req.Status,
			"verified_outcome", string(result.Outcome),
		)
		return nil
	}

	if result.Metadata.UserID == "" {
		logger.CtxError(ctx, "verified webhook transaction has no metadata userId, acknowledging",
			"transaction_id", req.TransactionID)
		return nil
	}

	record, created, err := s.commit(ctx, result)
	if err != nil {
		// Internal failure on a genuinely completed payment: the only case
		// that should make the gateway retry. Safe because of the guard.
		return err
	}

	if created {
		s.dispatch(ctx, record, result.Metadata.Courses)
	} else {
		logger.CtxInfo(ctx, "webhook redelivery for processed transaction",
			"transaction_id", req.TransactionID)
	}

	return nil
}

func (s *enrollmentService) VerifyOnly(ctx context.Context, identifier string) (*dto.VerifyPaymentResponse, error) {
	result, err := s.gateway.VerifyTransaction(ctx, identifier)
	if err != nil {
		return nil, err
	}

	if !result.Verified() {
		return &dto.VerifyPaymentResponse{
			Success:  true,
			Verified: false,
			Status:   string(result.Outcome),
		}, nil
	}

	return &dto.VerifyPaymentResponse{
		Success:  true,
		Verified: true,
		Payment:  result,
	}, nil
}

// commit persists the payment and its enrollment batch atomically. When the
// transaction was already processed it returns the stored record with
// created=false and writes nothing.
func (s *enrollmentService) commit(ctx context.Context, result *gateway.VerificationResult) (*models.PaymentRecord, bool, error) {
	payment, enrollments, err := buildRecords(result)
	if err != nil {
		return nil, false, appErrors.ErrVerificationFailed.WithError(err)
	}

	persistCtx, cancel := context.WithTimeout(ctx, s.persistTimeout)
	defer cancel()

	created, err := s.payments.CreateWithEnrollments(persistCtx, payment, enrollments)
	if err != nil {
		return nil, false, appErrors.ErrPersistenceFailed.WithError(err)
	}

	if !created {
		existing, err := s.payments.FindByTransactionID(persistCtx, result.TransactionID)
		if err != nil {
			return nil, false, appErrors.ErrPersistenceFailed.WithError(err)
		}
		return existing, false, nil
	}

	logger.CtxInfo(ctx, "enrollment committed",
		"transaction_id", result.TransactionID,
		"user_id", result.Metadata.UserID,
		"courses", len(enrollments),
		"amount", result.Amount,
	)
	return payment, true, nil
}

// dispatch runs the best-effort admin side effects. Failures, including a
// panicking dispatcher, are logged and discarded: the enrollment is already
// durable and its result must not change.
func (s *enrollmentService) dispatch(ctx context.Context, payment *models.PaymentRecord, courses []models.CourseRef) {
	defer func() {
		if r := recover(); r != nil {
			logger.CtxError(ctx, "notification dispatcher panicked",
				"transaction_id", payment.TransactionID, "panic", r)
		}
	}()

	failures := s.dispatcher.NotifyAdmins(ctx, EnrollmentSummary{
		Payment: payment,
		Courses: courses,
	})
	for _, failure := range failures {
		logger.CtxWarn(ctx, "notification dispatch failure",
			"transaction_id", payment.TransactionID,
			"stage", failure.Stage,
			"target", failure.Target,
			"error", failure.Err.Error(),
		)
	}
}

// buildRecords maps a verified gateway result onto the records the writer
// persists. The gateway's verified amount wins over anything the client or
// webhook claimed.
func buildRecords(result *gateway.VerificationResult) (*models.PaymentRecord, []models.EnrollmentRecord, error) {
	now := time.Now().UTC()

	subtotal := result.Metadata.Subtotal
	if subtotal == 0 {
		subtotal = result.Amount
	}

	currency := result.Currency
	if currency == "" {
		currency = models.DefaultCurrency
	}

	method := result.PaymentMethod
	if method == "" {
		method = models.DefaultPaymentMethod
	}

	payment := &models.PaymentRecord{
		TransactionID: result.TransactionID,
		InvoiceID:     result.InvoiceID,
		UserID:        result.Metadata.UserID,
		UserName:      result.PayerName,
		UserEmail:     result.PayerEmail,
		PaymentMethod: method,
		Subtotal:      subtotal,
		Discount:      result.Metadata.Discount,
		CouponCode:    result.Metadata.CouponCode,
		FinalAmount:   result.Amount,
		Currency:      currency,
		Status:        models.PaymentStatusApproved,
		SubmittedAt:   now,
		ApprovedAt:    now,
	}
	if err := payment.SetCourses(result.Metadata.Courses); err != nil {
		return nil, nil, err
	}

	enrollments := make([]models.EnrollmentRecord, 0, len(result.Metadata.Courses))
	for _, course := range result.Metadata.Courses {
		enrollments = append(enrollments, models.NewEnrollment(result.Metadata.UserID, course.ID, now))
	}

	return payment, enrollments, nil
}

func toCourseRefs(items []dto.CourseItem) []models.CourseRef {
	refs := make([]models.CourseRef, 0, len(items))
	for _, item := range items {
		refs = append(refs, models.CourseRef{
			ID:    item.ID,
			Title: item.Title,
			Price: item.Price,
		})
	}
	return refs
}
