package notification

import (
	"context"
	"sync"

	id "discrescue/pkg/domain"
	"discrescue/pkg/platform/sentinel"
	"discrescue/pkg/requestcontext"
)

// InMemoryStore keeps notifications in a map for tests and local development.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[id.NotificationID]*Notification
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[id.NotificationID]*Notification)}
}

func (s *InMemoryStore) Insert(_ context.Context, n *Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *n
	s.records[n.ID] = &cp
	return nil
}

func (s *InMemoryStore) ListByUser(_ context.Context, userID id.UserID) ([]*Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Notification
	for _, n := range s.records {
		if n.UserID == userID {
			cp := *n
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *InMemoryStore) MarkRead(ctx context.Context, notificationID id.NotificationID, userID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.records[notificationID]
	if !ok || n.UserID != userID {
		return sentinel.ErrNotFound
	}
	if n.ReadAt == nil {
		now := requestcontext.Now(ctx)
		n.ReadAt = &now
	}
	return nil
}
