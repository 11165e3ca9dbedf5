package notification

import (
	"context"
	"errors"

	id "discrescue/pkg/domain"
	dErrors "discrescue/pkg/domain-errors"
	"discrescue/pkg/platform/sentinel"
)

// Service exposes the read side of the in-app inbox.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// List returns the user's notifications, newest first for the Postgres store.
func (s *Service) List(ctx context.Context, userID id.UserID) ([]*Notification, error) {
	out, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list notifications failed")
	}
	return out, nil
}

// MarkRead marks one of the user's notifications as read. Idempotent.
func (s *Service) MarkRead(ctx context.Context, notificationID id.NotificationID, userID id.UserID) error {
	err := s.store.MarkRead(ctx, notificationID, userID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeNotFound, "notification not found")
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "mark notification read failed")
	}
	return nil
}
