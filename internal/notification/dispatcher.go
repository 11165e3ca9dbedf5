package notification

import (
	"context"
	"log/slog"

	"discrescue/internal/notification/metrics"
)

// Pusher forwards a composed notification to the push-delivery channel.
type Pusher interface {
	Push(ctx context.Context, n *Notification) error
}

// Dispatcher persists in-app notification records and forwards them to the
// push channel. It runs strictly after the transition has committed; failures
// of either sink are logged and swallowed so an already-committed transition
// is never reported as failed.
type Dispatcher struct {
	store   Store
	pusher  Pusher
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewDispatcher(store Store, pusher Pusher, logger *slog.Logger, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{store: store, pusher: pusher, logger: logger, metrics: m}
}

// Dispatch persists the record and pushes it. A nil target (recovery with no
// matched owner yet) is skipped entirely.
func (d *Dispatcher) Dispatch(ctx context.Context, n *Notification) {
	if n == nil || n.UserID.IsNil() {
		return
	}
	d.metrics.RecordDispatched(string(n.Payload.Kind))

	if err := d.store.Insert(ctx, n); err != nil {
		d.metrics.RecordStoreFailure()
		d.logger.ErrorContext(ctx, "failed to persist notification",
			"error", err,
			"kind", n.Payload.Kind,
			"user_id", n.UserID.String(),
		)
	}
	d.push(ctx, n)
}

// PushOnly forwards a notification whose record was already persisted inside
// the transition's atomic unit (report-found).
func (d *Dispatcher) PushOnly(ctx context.Context, n *Notification) {
	if n == nil || n.UserID.IsNil() {
		return
	}
	d.metrics.RecordDispatched(string(n.Payload.Kind))
	d.push(ctx, n)
}

func (d *Dispatcher) push(ctx context.Context, n *Notification) {
	if d.pusher == nil {
		return
	}
	if err := d.pusher.Push(ctx, n); err != nil {
		d.metrics.RecordPushFailure()
		d.logger.ErrorContext(ctx, "failed to push notification",
			"error", err,
			"kind", n.Payload.Kind,
			"user_id", n.UserID.String(),
		)
	}
}
