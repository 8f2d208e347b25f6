package handlers

import (
	"net/http"

	"shikkha_backend/internal/appErrors"
	"shikkha_backend/internal/logger"
	"shikkha_backend/internal/services"
	"shikkha_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	*BaseHandler
	enrollmentService services.EnrollmentService
}

func NewPaymentHandler(base *BaseHandler, enrollmentService services.EnrollmentService) *PaymentHandler {
	return &PaymentHandler{
		BaseHandler:       base,
		enrollmentService: enrollmentService,
	}
}

func (h *PaymentHandler) RegisterRoutes(r *gin.RouterGroup) {
	payments := r.Group("/payments")
	{
		payments.POST("/create", h.CreatePayment)
		payments.POST("/webhook", h.HandleWebhook) // no auth, external callback
		payments.POST("/process-enrollment", h.ProcessEnrollment)
		payments.POST("/verify", h.VerifyPayment)
	}
}

// CreatePayment opens a gateway checkout session and returns the payment URL.
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	var req dto.CreatePaymentRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	resp, err := h.enrollmentService.CreateCheckout(c.Request.Context(), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// HandleWebhook accepts asynchronous gateway deliveries. It always
// acknowledges with 200 unless processing a genuinely completed payment
// fails internally, in which case 500 prompts the gateway to retry.
func (h *PaymentHandler) HandleWebhook(c *gin.Context) {
	var req dto.WebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// A payload we cannot even parse is acknowledged so the gateway
		// stops redelivering it.
		logger.CtxWarn(c.Request.Context(), "unparseable webhook payload, acknowledging", "error", err.Error())
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	if err := h.enrollmentService.HandleWebhook(c.Request.Context(), &req); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

// ProcessEnrollment is the synchronous verify-and-enroll path invoked by
// the client after the checkout redirect.
func (h *PaymentHandler) ProcessEnrollment(c *gin.Context) {
	var req dto.ProcessEnrollmentRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	resp, err := h.enrollmentService.ProcessTransaction(c.Request.Context(), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// VerifyPayment reports a transaction's verified state. Read-only.
func (h *PaymentHandler) VerifyPayment(c *gin.Context) {
	var req dto.VerifyPaymentRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	identifier := req.Identifier()
	if identifier == "" {
		appErrors.HandleError(c, appErrors.ErrValidationFailed.WithDetails("transaction_id or invoiceId is required"))
		return
	}

	resp, err := h.enrollmentService.VerifyOnly(c.Request.Context(), identifier)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
