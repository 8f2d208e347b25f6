package models

import (
	"fmt"
	"time"
)

// EnrollmentRecord grants one user access to one course. The primary key is
// the deterministic userID_courseID pair, so a replayed write hits the same
// row instead of duplicating it, and an insert-or-nothing upsert never
// resets Progress.
type EnrollmentRecord struct {
	ID         string    `gorm:"primaryKey" json:"id"`
	UserID     string    `gorm:"not null;index" json:"user_id"`
	CourseID   string    `gorm:"not null;index" json:"course_id"`
	EnrolledAt time.Time `json:"enrolled_at"`
	Progress   int       `gorm:"default:0" json:"progress"`
	CreatedAt  time.Time `gorm:"default:now()" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (EnrollmentRecord) TableName() string {
	return "enrollments"
}

// EnrollmentKey builds the natural key for a user-course pair.
func EnrollmentKey(userID, courseID string) string {
	return fmt.Sprintf("%s_%s", userID, courseID)
}

// NewEnrollment creates a fresh enrollment with zero progress.
func NewEnrollment(userID, courseID string, enrolledAt time.Time) EnrollmentRecord {
	return EnrollmentRecord{
		ID:         EnrollmentKey(userID, courseID),
		UserID:     userID,
		CourseID:   courseID,
		EnrolledAt: enrolledAt,
		Progress:   0,
	}
}
