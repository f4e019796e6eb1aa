package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/apphub/tagging-service/internal/domain/events"
)

// BusPublisher publishes a raw message onto the shared pub/sub bus.
type BusPublisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// WebhookSender delivers a lifecycle envelope to the configured webhook.
// Implementations own their retry behaviour.
type WebhookSender interface {
	Send(ctx context.Context, envelope events.Outbound) error
}

// NotifierOptions configures a Notifier.
type NotifierOptions struct {
	Bus     BusPublisher
	Channel string
	Webhook WebhookSender
	Logger  *slog.Logger
	Now     func() time.Time
}

// Notifier publishes tagging lifecycle events to the pub/sub channel and the
// optional webhook. Delivery is fire-and-forget: failures are logged and
// suppressed, never affecting the run's recorded outcome.
type Notifier struct {
	bus     BusPublisher
	channel string
	webhook WebhookSender
	logger  *slog.Logger
	now     func() time.Time
}

// NewNotifier creates a Notifier.
func NewNotifier(opts NotifierOptions) *Notifier {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Notifier{
		bus:     opts.Bus,
		channel: opts.Channel,
		webhook: opts.Webhook,
		logger:  logger.With("component", "notifier"),
		now:     now,
	}
}

// TaggingCompleted announces a successful run.
func (n *Notifier) TaggingCompleted(ctx context.Context, payload events.CompletedPayload) {
	n.emit(ctx, events.TaggingCompleted, payload)
}

// TaggingFailed announces a failed run.
func (n *Notifier) TaggingFailed(ctx context.Context, payload events.FailedPayload) {
	n.emit(ctx, events.TaggingFailed, payload)
}

func (n *Notifier) emit(ctx context.Context, name string, payload any) {
	envelope := events.Outbound{
		ID:        uuid.NewString(),
		Event:     name,
		Payload:   payload,
		EmittedAt: n.now().UTC(),
	}

	if n.bus != nil && n.channel != "" {
		body, err := json.Marshal(envelope)
		if err != nil {
			n.logger.ErrorContext(ctx, "marshal lifecycle event", "event", name, "error", err)
		} else if err := n.bus.Publish(ctx, n.channel, body); err != nil {
			n.logger.WarnContext(ctx, "lifecycle publish failed", "event", name, "error", err)
		}
	}

	if n.webhook != nil {
		if err := n.webhook.Send(ctx, envelope); err != nil {
			n.logger.WarnContext(ctx, "webhook delivery failed", "event", name, "error", err)
		}
	}
}

var _ LifecycleNotifier = (*Notifier)(nil)
