package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

const (
	// PaymentStatusApproved is the only status the enrollment pipeline
	// writes. Rejected or pending transactions never reach the store.
	PaymentStatusApproved = "approved"

	DefaultCurrency      = "BDT"
	DefaultPaymentMethod = "Online Payment"
)

// CourseRef is a snapshot of a course at verification time. It is copied
// from gateway metadata, not joined against the catalog, so later catalog
// edits cannot change what the user paid for.
type CourseRef struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	Price float64 `json:"price"`
}

// PaymentRecord is the durable result of a verified transaction.
// The unique index on TransactionID is what makes enrollment idempotent:
// the insert is a create-if-absent, never a check-then-act.
type PaymentRecord struct {
	BaseModel
	TransactionID string         `gorm:"uniqueIndex;not null" json:"transaction_id"`
	InvoiceID     string         `gorm:"index" json:"invoice_id"`
	UserID        string         `gorm:"not null;index" json:"user_id"`
	UserName      string         `json:"user_name"`
	UserEmail     string         `json:"user_email"`
	PaymentMethod string         `json:"payment_method"`
	Courses       datatypes.JSON `gorm:"type:jsonb" json:"courses"`
	Subtotal      float64        `json:"subtotal"`
	Discount      float64        `gorm:"default:0" json:"discount"`
	CouponCode    string         `json:"coupon_code"`
	FinalAmount   float64        `json:"final_amount"`
	Currency      string         `json:"currency"`
	Status        string         `gorm:"not null;index" json:"status"`
	SubmittedAt   time.Time      `json:"submitted_at"`
	ApprovedAt    time.Time      `json:"approved_at"`
}

func (PaymentRecord) TableName() string {
	return "payments"
}

// SetCourses stores the course snapshot as JSONB.
func (p *PaymentRecord) SetCourses(courses []CourseRef) error {
	raw, err := json.Marshal(courses)
	if err != nil {
		return err
	}
	p.Courses = datatypes.JSON(raw)
	return nil
}

// CourseRefs decodes the stored course snapshot.
func (p *PaymentRecord) CourseRefs() ([]CourseRef, error) {
	if len(p.Courses) == 0 {
		return nil, nil
	}
	var courses []CourseRef
	if err := json.Unmarshal(p.Courses, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}
