package push

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// Sender is the external delivery collaborator (APNs/FCM gateway). Delivery
// is best-effort; the relay only logs failures.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender is the development sender: it records deliveries in the log.
type LogSender struct {
	Logger *slog.Logger
}

func (s LogSender) Send(ctx context.Context, msg Message) error {
	s.Logger.InfoContext(ctx, "push delivered",
		"user_id", msg.UserID,
		"title", msg.Title,
	)
	return nil
}

// Relay consumes the delivery channel and hands each message to the sender.
type Relay struct {
	client  *redis.Client
	channel string
	sender  Sender
	logger  *slog.Logger
}

func NewRelay(client *redis.Client, channel string, sender Sender, logger *slog.Logger) *Relay {
	return &Relay{client: client, channel: channel, sender: sender, logger: logger}
}

// Run blocks until the context is cancelled. Malformed or undeliverable
// messages are logged and skipped; the relay never stops over one message.
func (r *Relay) Run(ctx context.Context) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case raw, ok := <-ch:
			if !ok {
				return nil
			}
			var msg Message
			if err := json.Unmarshal([]byte(raw.Payload), &msg); err != nil {
				r.logger.WarnContext(ctx, "malformed push message", "error", err)
				continue
			}
			if err := r.sender.Send(ctx, msg); err != nil {
				r.logger.ErrorContext(ctx, "push delivery failed",
					"error", err,
					"user_id", msg.UserID,
				)
			}
		}
	}
}
