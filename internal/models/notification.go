package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	NotificationTypeEnrollment = "new_enrollment"
)

// Notification is an admin-facing notice. The pipeline only appends;
// reading and deleting belong to the admin UI.
type Notification struct {
	BaseModel
	UserID  string         `gorm:"not null;index" json:"user_id"`
	Type    string         `gorm:"not null" json:"type"`
	Title   string         `gorm:"not null" json:"title"`
	Message string         `json:"message"`
	Data    datatypes.JSON `gorm:"type:jsonb" json:"data"` // {"courses": [...], "amount": 500, "isFree": false}
	Link    string         `json:"link"`
	IsRead  bool           `gorm:"default:false" json:"is_read"`
	ReadAt  *time.Time     `json:"read_at"`
}
