package notification

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	id "discrescue/pkg/domain"
	"discrescue/pkg/platform/sentinel"
	txcontext "discrescue/pkg/platform/tx"
)

// PostgresStore persists in-app notifications. Insert writes through a
// transaction carried in context when one is present, which is how the
// report-found unit makes notification persistence transactional with event
// creation.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Insert(ctx context.Context, n *Notification) error {
	payload, err := json.Marshal(n.Payload)
	if err != nil {
		return fmt.Errorf("marshal notification payload: %w", err)
	}
	query := `
		INSERT INTO notifications (id, user_id, title, body, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(n.ID),
		uuid.UUID(n.UserID),
		n.Title,
		n.Body,
		payload,
		n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID id.UserID) ([]*Notification, error) {
	query := `
		SELECT id, user_id, title, body, payload, read_at, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(userID))
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []*Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *PostgresStore) MarkRead(ctx context.Context, notificationID id.NotificationID, userID id.UserID) error {
	query := `
		UPDATE notifications
		SET read_at = COALESCE(read_at, $3)
		WHERE id = $1 AND user_id = $2
	`
	res, err := s.db.ExecContext(ctx, query, uuid.UUID(notificationID), uuid.UUID(userID), time.Now())
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func scanNotification(rows *sql.Rows) (*Notification, error) {
	var (
		n       Notification
		nID     uuid.UUID
		userID  uuid.UUID
		payload []byte
		readAt  sql.NullTime
	)
	if err := rows.Scan(&nID, &userID, &n.Title, &n.Body, &payload, &readAt, &n.CreatedAt); err != nil {
		return nil, fmt.Errorf("scan notification: %w", err)
	}
	if err := json.Unmarshal(payload, &n.Payload); err != nil {
		return nil, fmt.Errorf("decode notification payload: %w", err)
	}
	n.ID = id.NotificationID(nID)
	n.UserID = id.UserID(userID)
	if readAt.Valid {
		n.ReadAt = &readAt.Time
	}
	return &n, nil
}
