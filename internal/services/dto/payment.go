package dto

import (
	"encoding/json"

	"shikkha_backend/internal/gateway"
	"shikkha_backend/internal/models"
)

type CourseItem struct {
	ID    string  `json:"id" validate:"required"`
	Title string  `json:"title" validate:"required"`
	Price float64 `json:"price" validate:"gte=0"`
}

type CheckoutMetadata struct {
	UserID     string       `json:"userId" validate:"required"`
	Courses    []CourseItem `json:"courses" validate:"required,min=1,dive"`
	Subtotal   float64      `json:"subtotal" validate:"gte=0"`
	Discount   float64      `json:"discount" validate:"gte=0"`
	CouponCode string       `json:"couponCode"`
}

type CreatePaymentRequest struct {
	FullName string           `json:"fullname" validate:"required"`
	Email    string           `json:"email" validate:"required,email"`
	Amount   float64          `json:"amount" validate:"gte=0"`
	Metadata CheckoutMetadata `json:"metadata" validate:"required"`
}

type CreatePaymentResponse struct {
	PaymentURL string `json:"payment_url"`
}

// WebhookRequest is the gateway's delivery payload. Status and amount are
// untrusted hints; the pipeline re-verifies before acting on them.
type WebhookRequest struct {
	TransactionID string  `json:"transactionId"`
	Status        string  `json:"status"`
	PaymentAmount float64 `json:"paymentAmount"`
	PaymentMethod string  `json:"paymentMethod"`
}

// UnmarshalJSON tolerates a string-encoded paymentAmount. The gateway
// string-encodes amounts on some paths; a delivery must never be dropped
// over the encoding of a field the pipeline does not even trust.
func (r *WebhookRequest) UnmarshalJSON(data []byte) error {
	type alias struct {
		TransactionID string            `json:"transactionId"`
		Status        string            `json:"status"`
		PaymentAmount gateway.FlexFloat `json:"paymentAmount"`
		PaymentMethod string            `json:"paymentMethod"`
	}
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	r.TransactionID = a.TransactionID
	r.Status = a.Status
	r.PaymentAmount = a.PaymentAmount.Float64()
	r.PaymentMethod = a.PaymentMethod
	return nil
}

type ProcessEnrollmentRequest struct {
	TransactionID string `json:"transaction_id" validate:"required"`
	UserID        string `json:"userId" validate:"required"`
}

type EnrollmentResponse struct {
	Success          bool                        `json:"success"`
	Verified         bool                        `json:"verified"`
	AlreadyProcessed bool                        `json:"alreadyProcessed"`
	Payment          *gateway.VerificationResult `json:"payment"`
	PaymentRecord    *models.PaymentRecord       `json:"paymentRecord"`
}

// VerifyPaymentRequest accepts either identifier; at least one is required.
type VerifyPaymentRequest struct {
	TransactionID string `json:"transaction_id"`
	InvoiceID     string `json:"invoiceId"`
}

func (r *VerifyPaymentRequest) Identifier() string {
	if r.TransactionID != "" {
		return r.TransactionID
	}
	return r.InvoiceID
}

type VerifyPaymentResponse struct {
	Success  bool                        `json:"success"`
	Verified bool                        `json:"verified"`
	Status   string                      `json:"status,omitempty"`
	Payment  *gateway.VerificationResult `json:"payment,omitempty"`
}

type RegisterSubscriptionRequest struct {
	UserID   string `json:"userId" validate:"required"`
	Endpoint string `json:"endpoint" validate:"required,url"`
	Keys     struct {
		P256dh string `json:"p256dh" validate:"required"`
		Auth   string `json:"auth" validate:"required"`
	} `json:"keys" validate:"required"`
}
