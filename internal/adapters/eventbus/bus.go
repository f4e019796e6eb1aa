// Package eventbus connects the service to the shared Redis pub/sub bus:
// a resilient subscriber for inbound catalog events and a publisher for
// outbound lifecycle events.
package eventbus

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// resubscribeDelay paces reconnect attempts after the subscription drops.
const resubscribeDelay = time.Second

// Handler consumes one raw bus message. A returned error is logged; it
// never tears down the subscription.
type Handler func(ctx context.Context, payload []byte) error

// SubscriberOptions configures a Subscriber.
type SubscriberOptions struct {
	Client  redis.UniversalClient
	Channel string
	Handler Handler
	Logger  *slog.Logger
}

// Subscriber consumes a Redis pub/sub channel and feeds each message to the
// handler. The subscription is re-established after transport failures; only
// context cancellation stops it.
type Subscriber struct {
	client  redis.UniversalClient
	channel string
	handler Handler
	logger  *slog.Logger
}

// NewSubscriber creates a Subscriber.
func NewSubscriber(opts SubscriberOptions) (*Subscriber, error) {
	if opts.Client == nil {
		return nil, errors.New("redis client is required")
	}
	if opts.Channel == "" {
		return nil, errors.New("channel is required")
	}
	if opts.Handler == nil {
		return nil, errors.New("handler is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Subscriber{
		client:  opts.Client,
		channel: opts.Channel,
		handler: opts.Handler,
		logger:  logger.With("component", "event_subscriber", "channel", opts.Channel),
	}, nil
}

// Run consumes the channel until the context is cancelled. Returns nil on
// cancellation.
func (s *Subscriber) Run(ctx context.Context) error {
	for {
		if err := s.consume(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.logger.WarnContext(ctx, "subscription lost, reconnecting", "error", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(resubscribeDelay):
		}
	}
}

func (s *Subscriber) consume(ctx context.Context) error {
	pubsub := s.client.Subscribe(ctx, s.channel)
	defer func() { _ = pubsub.Close() }()

	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "subscribed to event channel")

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return errors.New("pubsub channel closed")
			}
			if err := s.handler(ctx, []byte(msg.Payload)); err != nil {
				s.logger.ErrorContext(ctx, "event handler failed", "error", err)
			}
		}
	}
}

// Publisher publishes raw messages to the bus. Implements the notifier's
// BusPublisher port.
type Publisher struct {
	client redis.UniversalClient
}

// NewPublisher creates a Publisher over an existing Redis client.
func NewPublisher(client redis.UniversalClient) *Publisher {
	return &Publisher{client: client}
}

// Publish sends one message to the named channel.
func (p *Publisher) Publish(ctx context.Context, channel string, payload []byte) error {
	return p.client.Publish(ctx, channel, payload).Err()
}
