package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"shikkha_backend/internal/models"
	"shikkha_backend/internal/push"
	"shikkha_backend/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNotificationRepo struct {
	created   []*models.Notification
	createErr error
}

func (f *fakeNotificationRepo) Create(ctx context.Context, notification *models.Notification) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, notification)
	return nil
}

type fakeSubscriptionRepo struct {
	subscriptions []models.PushSubscription
	findErr       error
}

func (f *fakeSubscriptionRepo) FindAdminSubscriptions(ctx context.Context) ([]models.PushSubscription, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.subscriptions, nil
}

func (f *fakeSubscriptionRepo) Upsert(ctx context.Context, subscription *models.PushSubscription) error {
	f.subscriptions = append(f.subscriptions, *subscription)
	return nil
}

type fakeSender struct {
	sent     []string // endpoints
	failFor  map[string]error
	messages []push.Message
}

func (f *fakeSender) Send(ctx context.Context, subscription models.PushSubscription, msg push.Message) error {
	if err, ok := f.failFor[subscription.Endpoint]; ok {
		return err
	}
	f.sent = append(f.sent, subscription.Endpoint)
	f.messages = append(f.messages, msg)
	return nil
}

func paidSummary() services.EnrollmentSummary {
	payment := &models.PaymentRecord{
		TransactionID: "TXN-1",
		UserID:        "u1",
		UserName:      "Rahim Uddin",
		FinalAmount:   500,
		Currency:      "BDT",
	}
	courses := []models.CourseRef{{ID: "c1", Title: "Algebra I", Price: 500}}
	payment.SetCourses(courses)
	return services.EnrollmentSummary{Payment: payment, Courses: courses}
}

func notificationData(t *testing.T, notification *models.Notification) map[string]interface{} {
	t.Helper()
	var data map[string]interface{}
	require.NoError(t, json.Unmarshal(notification.Data, &data))
	return data
}

func TestNotifyAdmins_PaidEnrollment(t *testing.T) {
	notifications := &fakeNotificationRepo{}
	subscriptions := &fakeSubscriptionRepo{subscriptions: []models.PushSubscription{
		{UserID: "admin1", Endpoint: "https://push.example.com/a"},
		{UserID: "admin2", Endpoint: "https://push.example.com/b"},
	}}
	sender := &fakeSender{}
	dispatcher := services.NewNotificationDispatcher(notifications, subscriptions, sender)

	failures := dispatcher.NotifyAdmins(context.Background(), paidSummary())

	assert.Empty(t, failures)
	require.Len(t, notifications.created, 1)

	notification := notifications.created[0]
	assert.Equal(t, models.NotificationTypeEnrollment, notification.Type)
	assert.Equal(t, "New enrollment", notification.Title)
	assert.Contains(t, notification.Message, "Rahim Uddin")
	assert.Contains(t, notification.Message, "Algebra I")
	assert.False(t, notification.IsRead)
	assert.Equal(t, "/admin/payments/TXN-1", notification.Link)

	data := notificationData(t, notification)
	assert.Equal(t, false, data["isFree"])
	assert.Equal(t, 500.0, data["amount"])

	assert.ElementsMatch(t, []string{"https://push.example.com/a", "https://push.example.com/b"}, sender.sent)
}

func TestNotifyAdmins_FreeEnrollmentTagging(t *testing.T) {
	summary := paidSummary()
	summary.Payment.FinalAmount = 0

	notifications := &fakeNotificationRepo{}
	subscriptions := &fakeSubscriptionRepo{}
	dispatcher := services.NewNotificationDispatcher(notifications, subscriptions, &fakeSender{})

	failures := dispatcher.NotifyAdmins(context.Background(), summary)

	assert.Empty(t, failures)
	require.Len(t, notifications.created, 1)

	notification := notifications.created[0]
	assert.Equal(t, "New free enrollment", notification.Title)
	assert.Contains(t, notification.Message, "(free)")

	data := notificationData(t, notification)
	assert.Equal(t, true, data["isFree"])
}

func TestNotifyAdmins_CollectsFailuresWithoutAborting(t *testing.T) {
	notifications := &fakeNotificationRepo{createErr: errors.New("jsonb column rejected")}
	subscriptions := &fakeSubscriptionRepo{subscriptions: []models.PushSubscription{
		{Endpoint: "https://push.example.com/ok"},
		{Endpoint: "https://push.example.com/dead"},
	}}
	sender := &fakeSender{failFor: map[string]error{
		"https://push.example.com/dead": errors.New("410 gone"),
	}}
	dispatcher := services.NewNotificationDispatcher(notifications, subscriptions, sender)

	failures := dispatcher.NotifyAdmins(context.Background(), paidSummary())

	// Record failure plus one push failure; the healthy endpoint still got
	// its message.
	require.Len(t, failures, 2)
	stages := []string{failures[0].Stage, failures[1].Stage}
	assert.Contains(t, stages, "notification_record")
	assert.Contains(t, stages, "push")
	assert.Equal(t, []string{"https://push.example.com/ok"}, sender.sent)
}

func TestNotifyAdmins_SubscriptionLoadFailure(t *testing.T) {
	notifications := &fakeNotificationRepo{}
	subscriptions := &fakeSubscriptionRepo{findErr: errors.New("connection refused")}
	dispatcher := services.NewNotificationDispatcher(notifications, subscriptions, &fakeSender{})

	failures := dispatcher.NotifyAdmins(context.Background(), paidSummary())

	require.Len(t, failures, 1)
	assert.Equal(t, "load_subscriptions", failures[0].Stage)
	// The stored notification still went through before the push stage.
	assert.Len(t, notifications.created, 1)
}

func TestNotifyAdmins_NoSubscriptionsIsFine(t *testing.T) {
	notifications := &fakeNotificationRepo{}
	dispatcher := services.NewNotificationDispatcher(notifications, &fakeSubscriptionRepo{}, &fakeSender{})

	failures := dispatcher.NotifyAdmins(context.Background(), paidSummary())

	assert.Empty(t, failures, "zero subscriptions is not a failure")
	assert.Len(t, notifications.created, 1)
}
