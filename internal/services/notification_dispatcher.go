package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"shikkha_backend/internal/logger"
	"shikkha_backend/internal/models"
	"shikkha_backend/internal/push"
	"shikkha_backend/internal/repositories"

	"gorm.io/datatypes"
)

// EnrollmentSummary is what the dispatcher announces after a commit.
type EnrollmentSummary struct {
	Payment *models.PaymentRecord
	Courses []models.CourseRef
}

// DispatchFailure records one failed side effect. Failures are collected,
// never propagated: by the time the dispatcher runs, the enrollment is
// already durable and must stay reported as a success.
type DispatchFailure struct {
	Stage  string // "notification_record", "load_subscriptions", "push"
	Target string // push endpoint, when applicable
	Err    error
}

func (f DispatchFailure) String() string {
	if f.Target != "" {
		return fmt.Sprintf("%s (%s): %v", f.Stage, f.Target, f.Err)
	}
	return fmt.Sprintf("%s: %v", f.Stage, f.Err)
}

// NotificationDispatcher fans out the admin-facing side effects of a
// completed enrollment: one stored notification record plus a web push to
// every registered admin subscription.
type NotificationDispatcher interface {
	NotifyAdmins(ctx context.Context, summary EnrollmentSummary) []DispatchFailure
}

type notificationDispatcher struct {
	notifications repositories.NotificationRepository
	subscriptions repositories.PushSubscriptionRepository
	sender        push.Sender
}

func NewNotificationDispatcher(
	notifications repositories.NotificationRepository,
	subscriptions repositories.PushSubscriptionRepository,
	sender push.Sender,
) NotificationDispatcher {
	return &notificationDispatcher{
		notifications: notifications,
		subscriptions: subscriptions,
		sender:        sender,
	}
}

func (d *notificationDispatcher) NotifyAdmins(ctx context.Context, summary EnrollmentSummary) []DispatchFailure {
	var failures []DispatchFailure

	payment := summary.Payment
	isFree := payment.FinalAmount == 0

	title := "New enrollment"
	message := fmt.Sprintf("%s enrolled in %s for %.2f %s",
		displayName(payment), courseTitles(summary.Courses), payment.FinalAmount, payment.Currency)
	if isFree {
		title = "New free enrollment"
		message = fmt.Sprintf("%s enrolled in %s (free)",
			displayName(payment), courseTitles(summary.Courses))
	}

	if err := d.createRecord(ctx, payment, summary.Courses, title, message, isFree); err != nil {
		failures = append(failures, DispatchFailure{Stage: "notification_record", Err: err})
	}

	subscriptions, err := d.subscriptions.FindAdminSubscriptions(ctx)
	if err != nil {
		failures = append(failures, DispatchFailure{Stage: "load_subscriptions", Err: err})
		return failures
	}

	msg := push.Message{
		Title: title,
		Body:  message,
		Link:  adminPaymentLink(payment.TransactionID),
	}
	for _, subscription := range subscriptions {
		if err := d.sender.Send(ctx, subscription, msg); err != nil {
			failures = append(failures, DispatchFailure{
				Stage:  "push",
				Target: subscription.Endpoint,
				Err:    err,
			})
		}
	}

	logger.CtxInfo(ctx, "admin notifications dispatched",
		"transaction_id", payment.TransactionID,
		"subscriptions", len(subscriptions),
		"failures", len(failures),
		"is_free", isFree,
	)

	return failures
}

func (d *notificationDispatcher) createRecord(ctx context.Context, payment *models.PaymentRecord, courses []models.CourseRef, title, message string, isFree bool) error {
	data, err := json.Marshal(map[string]interface{}{
		"courses": courses,
		"amount":  payment.FinalAmount,
		"isFree":  isFree,
	})
	if err != nil {
		return err
	}

	notification := models.Notification{
		UserID:  payment.UserID,
		Type:    models.NotificationTypeEnrollment,
		Title:   title,
		Message: message,
		Data:    datatypes.JSON(data),
		Link:    adminPaymentLink(payment.TransactionID),
		IsRead:  false,
	}
	return d.notifications.Create(ctx, &notification)
}

func displayName(payment *models.PaymentRecord) string {
	if payment.UserName != "" {
		return payment.UserName
	}
	if payment.UserEmail != "" {
		return payment.UserEmail
	}
	return payment.UserID
}

func courseTitles(courses []models.CourseRef) string {
	if len(courses) == 0 {
		return "a course"
	}
	titles := make([]string, 0, len(courses))
	for _, course := range courses {
		titles = append(titles, course.Title)
	}
	return strings.Join(titles, ", ")
}

func adminPaymentLink(transactionID string) string {
	return "/admin/payments/" + transactionID
}
