package services

import (
	"context"

	"shikkha_backend/internal/appErrors"
	"shikkha_backend/internal/models"
	"shikkha_backend/internal/repositories"
	"shikkha_backend/internal/services/dto"
)

// PushSubscriptionService registers admin push targets. The enrollment
// pipeline only ever reads them back.
type PushSubscriptionService interface {
	Register(ctx context.Context, req *dto.RegisterSubscriptionRequest) error
}

type pushSubscriptionService struct {
	subscriptions repositories.PushSubscriptionRepository
}

func NewPushSubscriptionService(subscriptions repositories.PushSubscriptionRepository) PushSubscriptionService {
	return &pushSubscriptionService{subscriptions: subscriptions}
}

func (s *pushSubscriptionService) Register(ctx context.Context, req *dto.RegisterSubscriptionRequest) error {
	subscription := &models.PushSubscription{
		UserID:   req.UserID,
		Endpoint: req.Endpoint,
		P256dh:   req.Keys.P256dh,
		Auth:     req.Keys.Auth,
	}
	if err := s.subscriptions.Upsert(ctx, subscription); err != nil {
		return appErrors.ErrPersistenceFailed.WithError(err)
	}
	return nil
}
