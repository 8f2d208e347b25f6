package repositories

import (
	"context"

	"shikkha_backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PushSubscriptionRepository interface {
	// FindAdminSubscriptions returns every registered admin push target.
	// The enrollment pipeline consumes these read-only.
	FindAdminSubscriptions(ctx context.Context) ([]models.PushSubscription, error)

	// Upsert registers or refreshes a subscription, keyed by endpoint.
	Upsert(ctx context.Context, subscription *models.PushSubscription) error
}

type pushSubscriptionRepository struct {
	db *gorm.DB
}

func NewPushSubscriptionRepository(db *gorm.DB) PushSubscriptionRepository {
	return &pushSubscriptionRepository{db: db}
}

func (r *pushSubscriptionRepository) FindAdminSubscriptions(ctx context.Context) ([]models.PushSubscription, error) {
	var subscriptions []models.PushSubscription
	err := r.db.WithContext(ctx).Find(&subscriptions).Error
	return subscriptions, err
}

func (r *pushSubscriptionRepository) Upsert(ctx context.Context, subscription *models.PushSubscription) error {
	// Browsers rotate keys for the same endpoint; refresh them in place.
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "p256dh", "auth", "updated_at"}),
	}).Create(subscription).Error
}
