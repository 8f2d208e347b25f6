package push

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"shikkha_backend/internal/config"
	"shikkha_backend/internal/models"

	webpush "github.com/SherClockHolmes/webpush-go"
)

// Message is the payload delivered to an admin browser.
type Message struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Link  string `json:"link,omitempty"`
}

// Sender delivers a push message to one subscription. Delivery is
// fire-and-forget from the pipeline's point of view: callers collect
// failures for diagnostics but never act on them.
type Sender interface {
	Send(ctx context.Context, subscription models.PushSubscription, msg Message) error
}

type webpushSender struct {
	options webpush.Options
}

func NewWebPushSender(cfg config.PushConfig) Sender {
	return &webpushSender{
		options: webpush.Options{
			Subscriber:      cfg.Subscriber,
			VAPIDPublicKey:  cfg.VAPIDPublicKey,
			VAPIDPrivateKey: cfg.VAPIDPrivateKey,
			TTL:             60,
		},
	}
}

func (s *webpushSender) Send(ctx context.Context, subscription models.PushSubscription, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	target := &webpush.Subscription{
		Endpoint: subscription.Endpoint,
		Keys: webpush.Keys{
			P256dh: subscription.P256dh,
			Auth:   subscription.Auth,
		},
	}

	opts := s.options
	resp, err := webpush.SendNotificationWithContext(ctx, payload, target, &opts)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return fmt.Errorf("push service returned HTTP %d for %s", resp.StatusCode, subscription.Endpoint)
	}
	return nil
}
