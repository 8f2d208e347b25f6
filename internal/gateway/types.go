package gateway

import (
	"bytes"
	"encoding/json"
	"strconv"

	"shikkha_backend/internal/models"
)

// Outcome is the normalized verification status.
type Outcome string

const (
	OutcomeCompleted Outcome = "COMPLETED"
	OutcomePending   Outcome = "PENDING"
	OutcomeFailed    Outcome = "FAILED"
)

// PaymentMetadata is the checkout metadata round-tripped through the
// gateway. Numeric fields may come back as strings; the custom unmarshaler
// absorbs that so the rest of the pipeline sees plain floats.
type PaymentMetadata struct {
	UserID     string             `json:"userId"`
	Courses    []models.CourseRef `json:"courses"`
	Subtotal   float64            `json:"subtotal"`
	Discount   float64            `json:"discount"`
	CouponCode string             `json:"couponCode"`
}

func (m *PaymentMetadata) UnmarshalJSON(data []byte) error {
	type alias struct {
		UserID     string             `json:"userId"`
		Courses    []models.CourseRef `json:"courses"`
		Subtotal   FlexFloat          `json:"subtotal"`
		Discount   FlexFloat          `json:"discount"`
		CouponCode string             `json:"couponCode"`
	}
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	m.UserID = a.UserID
	m.Courses = a.Courses
	m.Subtotal = a.Subtotal.Float64()
	m.Discount = a.Discount.Float64()
	m.CouponCode = a.CouponCode
	return nil
}

// VerificationResult is the single shape the rest of the pipeline sees,
// whatever the provider's response looked like on the wire.
type VerificationResult struct {
	Outcome       Outcome         `json:"outcome"`
	PayerName     string          `json:"payer_name"`
	PayerEmail    string          `json:"payer_email"`
	Amount        float64         `json:"amount"`
	Currency      string          `json:"currency"`
	PaymentMethod string          `json:"payment_method"`
	TransactionID string          `json:"transaction_id"`
	InvoiceID     string          `json:"invoice_id"`
	Metadata      PaymentMetadata `json:"metadata"`
}

// Verified reports whether the gateway confirmed the payment.
func (r *VerificationResult) Verified() bool {
	return r.Outcome == OutcomeCompleted
}

// CheckoutRequest opens a gateway checkout session.
type CheckoutRequest struct {
	FullName string
	Email    string
	Amount   float64
	Metadata PaymentMetadata
}

// FlexFloat decodes a number that may arrive as a JSON number or a
// string ("500.00"). The gateway string-encodes amounts on some paths,
// so every field that can carry one decodes through this type.
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*f = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*f = FlexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = FlexFloat(v)
	return nil
}

func (f FlexFloat) Float64() float64 {
	return float64(f)
}
