package notification

import (
	"context"

	id "discrescue/pkg/domain"
)

// Store owns the persisted in-app notification records.
//
// Insert honors a transaction carried in context (pkg/platform/tx) so the
// report-found atomic unit can persist the notification row in the same
// transaction as the recovery event.
type Store interface {
	Insert(ctx context.Context, n *Notification) error
	ListByUser(ctx context.Context, userID id.UserID) ([]*Notification, error)
	MarkRead(ctx context.Context, notificationID id.NotificationID, userID id.UserID) error
}
