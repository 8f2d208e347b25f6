package models

// PushSubscription is a web-push target registered by an admin browser.
// The enrollment pipeline only reads these; registration happens once per
// browser via the subscription endpoint.
type PushSubscription struct {
	BaseModel
	UserID   string `gorm:"not null;index" json:"user_id"`
	Endpoint string `gorm:"uniqueIndex;not null" json:"endpoint"`
	P256dh   string `gorm:"not null" json:"p256dh"`
	Auth     string `gorm:"not null" json:"auth"`
}

func (PushSubscription) TableName() string {
	return "push_subscriptions"
}
