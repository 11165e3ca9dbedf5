package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	discmodels "discrescue/internal/disc/models"
	"discrescue/internal/notification"
	"discrescue/internal/recovery/models"
	id "discrescue/pkg/domain"
	"discrescue/pkg/platform/sentinel"
	txcontext "discrescue/pkg/platform/tx"
	"discrescue/pkg/requestcontext"
)

// uniqueViolation is the Postgres error class for unique constraint failures.
const uniqueViolation = "23505"

// PostgresStore implements Store against PostgreSQL. Transition operations
// run in a transaction that takes a row lock on the recovery event before
// re-checking state, so two concurrent transitions on the same event cannot
// both pass a precondition only one can hold. Disc.owner_id changes are
// expressed as compare-and-swap predicates in the UPDATE itself.
type PostgresStore struct {
	db            *sql.DB
	notifications notification.Store
}

func NewPostgres(db *sql.DB, notifications notification.Store) *PostgresStore {
	return &PostgresStore{db: db, notifications: notifications}
}

func (s *PostgresStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// lockEventStatus takes a row lock on the event and returns its current
// status. The lock holds until the surrounding transaction ends.
func lockEventStatus(ctx context.Context, tx *sql.Tx, eventID id.RecoveryEventID) (models.Status, error) {
	var status string
	err := tx.QueryRowContext(ctx,
		`SELECT status FROM recovery_events WHERE id = $1 FOR UPDATE`,
		uuid.UUID(eventID),
	).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", sentinel.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("lock recovery event: %w", err)
	}
	return models.Status(status), nil
}

func requireStatus(current models.Status, allowed ...models.Status) error {
	for _, s := range allowed {
		if current == s {
			return nil
		}
	}
	return fmt.Errorf("status %q: %w", current, sentinel.ErrPreconditionFailed)
}

func setEventStatus(ctx context.Context, tx *sql.Tx, eventID id.RecoveryEventID, status models.Status, now time.Time) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE recovery_events SET status = $2, updated_at = $3 WHERE id = $1`,
		uuid.UUID(eventID), string(status), now,
	)
	if err != nil {
		return fmt.Errorf("update recovery event status: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Reads
// ---------------------------------------------------------------------------

func (s *PostgresStore) FindDisc(ctx context.Context, discID id.DiscID) (*discmodels.Disc, error) {
	var (
		d        discmodels.Disc
		dID      uuid.UUID
		ownerID  uuid.NullUUID
		qrCodeID uuid.NullUUID
		reward   sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, qr_code_id, name, brand, color, reward_amount, created_at, updated_at
		FROM discs WHERE id = $1
	`, uuid.UUID(discID)).Scan(&dID, &ownerID, &qrCodeID, &d.Name, &d.Brand, &d.Color, &reward, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find disc: %w", err)
	}
	d.ID = id.DiscID(dID)
	if ownerID.Valid {
		owner := id.UserID(ownerID.UUID)
		d.OwnerID = &owner
	}
	if qrCodeID.Valid {
		qr := id.QRCodeID(qrCodeID.UUID)
		d.QRCodeID = &qr
	}
	if reward.Valid {
		d.RewardAmount = &reward.Int64
	}
	return &d, nil
}

const eventColumns = `id, disc_id, finder_id, owner_id, status, finder_message, found_at, recovered_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*models.RecoveryEvent, error) {
	var (
		e           models.RecoveryEvent
		eID         uuid.UUID
		discID      uuid.NullUUID
		finderID    uuid.UUID
		ownerID     uuid.NullUUID
		status      string
		recoveredAt sql.NullTime
	)
	err := row.Scan(&eID, &discID, &finderID, &ownerID, &status, &e.FinderMessage,
		&e.FoundAt, &recoveredAt, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	e.ID = id.RecoveryEventID(eID)
	if discID.Valid {
		d := id.DiscID(discID.UUID)
		e.DiscID = &d
	}
	e.FinderID = id.UserID(finderID)
	if ownerID.Valid {
		e.OwnerID = id.UserID(ownerID.UUID)
	}
	e.Status = models.Status(status)
	if recoveredAt.Valid {
		e.RecoveredAt = &recoveredAt.Time
	}
	return &e, nil
}

func (s *PostgresStore) FindEvent(ctx context.Context, eventID id.RecoveryEventID) (*models.RecoveryEvent, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM recovery_events WHERE id = $1`,
		uuid.UUID(eventID),
	)
	event, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find recovery event: %w", err)
	}
	return event, nil
}

func (s *PostgresStore) FindActiveEventByDisc(ctx context.Context, discID id.DiscID) (*models.RecoveryEvent, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM recovery_events WHERE disc_id = $1 AND status = ANY($2)`,
		uuid.UUID(discID), pq.Array(activeStatusStrings()),
	)
	event, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find active recovery event: %w", err)
	}
	return event, nil
}

func (s *PostgresStore) ListEventsByUser(ctx context.Context, userID id.UserID) ([]*models.RecoveryEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM recovery_events
		 WHERE finder_id = $1 OR owner_id = $1
		 ORDER BY created_at DESC`,
		uuid.UUID(userID),
	)
	if err != nil {
		return nil, fmt.Errorf("list recovery events: %w", err)
	}
	defer rows.Close()

	var out []*models.RecoveryEvent
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recovery event: %w", err)
		}
		out = append(out, event)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ListProposals(ctx context.Context, eventID id.RecoveryEventID) ([]*models.MeetupProposal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, recovery_event_id, proposed_by, location, latitude, longitude,
		       proposed_for, message, status, created_at, updated_at
		FROM meetup_proposals
		WHERE recovery_event_id = $1
		ORDER BY created_at ASC
	`, uuid.UUID(eventID))
	if err != nil {
		return nil, fmt.Errorf("list meetup proposals: %w", err)
	}
	defer rows.Close()

	var out []*models.MeetupProposal
	for rows.Next() {
		var (
			p        models.MeetupProposal
			pID      uuid.UUID
			evID     uuid.UUID
			by       uuid.UUID
			lat, lng sql.NullFloat64
			status   string
		)
		err := rows.Scan(&pID, &evID, &by, &p.Location, &lat, &lng,
			&p.ProposedFor, &p.Message, &status, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan meetup proposal: %w", err)
		}
		p.ID = id.MeetupProposalID(pID)
		p.RecoveryEventID = id.RecoveryEventID(evID)
		p.ProposedBy = id.UserID(by)
		if lat.Valid {
			p.Latitude = &lat.Float64
		}
		if lng.Valid {
			p.Longitude = &lng.Float64
		}
		p.Status = models.ProposalStatus(status)
		out = append(out, &p)
	}
	return out, rows.Err()
}

func (s *PostgresStore) FindDropOff(ctx context.Context, eventID id.RecoveryEventID) (*models.DropOff, error) {
	var (
		d           models.DropOff
		dID         uuid.UUID
		evID        uuid.UUID
		lat, lng    sql.NullFloat64
		retrievedAt sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, recovery_event_id, location, latitude, longitude, photo_path, note,
		       dropped_at, retrieved_at, created_at
		FROM drop_offs WHERE recovery_event_id = $1
	`, uuid.UUID(eventID)).Scan(&dID, &evID, &d.Location, &lat, &lng, &d.PhotoPath, &d.Note,
		&d.DroppedAt, &retrievedAt, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find drop off: %w", err)
	}
	d.ID = id.DropOffID(dID)
	d.RecoveryEventID = id.RecoveryEventID(evID)
	if lat.Valid {
		d.Latitude = &lat.Float64
	}
	if lng.Valid {
		d.Longitude = &lng.Float64
	}
	if retrievedAt.Valid {
		d.RetrievedAt = &retrievedAt.Time
	}
	return &d, nil
}

func activeStatusStrings() []string {
	active := models.ActiveStatuses()
	out := make([]string, len(active))
	for i, s := range active {
		out[i] = string(s)
	}
	return out
}

// ---------------------------------------------------------------------------
// Atomic transition operations
// ---------------------------------------------------------------------------

func (s *PostgresStore) CreateFoundEvent(ctx context.Context, event *models.RecoveryEvent, note *notification.Notification) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if event.DiscID != nil {
			// Lock the disc row so the owner check and the active-event check
			// hold through commit.
			var ownerID uuid.NullUUID
			err := tx.QueryRowContext(ctx,
				`SELECT owner_id FROM discs WHERE id = $1 FOR UPDATE`,
				uuid.UUID(*event.DiscID),
			).Scan(&ownerID)
			if errors.Is(err, sql.ErrNoRows) {
				return sentinel.ErrNotFound
			}
			if err != nil {
				return fmt.Errorf("lock disc: %w", err)
			}
			if !ownerID.Valid || id.UserID(ownerID.UUID) != event.OwnerID {
				return fmt.Errorf("disc owner changed: %w", sentinel.ErrPreconditionFailed)
			}
		}

		var discID any
		if event.DiscID != nil {
			discID = uuid.UUID(*event.DiscID)
		}
		var ownerID any
		if !event.OwnerID.IsNil() {
			ownerID = uuid.UUID(event.OwnerID)
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO recovery_events
				(id, disc_id, finder_id, owner_id, status, finder_message, found_at, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		`, uuid.UUID(event.ID), discID, uuid.UUID(event.FinderID), ownerID,
			string(event.Status), event.FinderMessage, event.FoundAt, event.CreatedAt)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
				// The partial unique index on active events rejected an
				// overlapping recovery.
				return fmt.Errorf("active recovery exists for disc: %w", sentinel.ErrConflict)
			}
			return fmt.Errorf("insert recovery event: %w", err)
		}

		if note != nil {
			if err := s.notifications.Insert(txcontext.WithTx(ctx, tx), note); err != nil {
				return fmt.Errorf("insert found notification: %w", err)
			}
		}
		return nil
	})
}

func (s *PostgresStore) ProposeMeetup(ctx context.Context, proposal *models.MeetupProposal) (int, error) {
	declined := 0
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		status, err := lockEventStatus(ctx, tx, proposal.RecoveryEventID)
		if err != nil {
			return err
		}
		if err := requireStatus(status, models.StatusFound, models.StatusMeetupProposed); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `
			UPDATE meetup_proposals
			SET status = $2, updated_at = $3
			WHERE recovery_event_id = $1 AND status IN ('pending', 'accepted')
		`, uuid.UUID(proposal.RecoveryEventID), string(models.ProposalStatusDeclined), proposal.CreatedAt)
		if err != nil {
			return fmt.Errorf("decline open proposals: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("decline open proposals: %w", err)
		}
		declined = int(n)

		_, err = tx.ExecContext(ctx, `
			INSERT INTO meetup_proposals
				(id, recovery_event_id, proposed_by, location, latitude, longitude,
				 proposed_for, message, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
		`, uuid.UUID(proposal.ID), uuid.UUID(proposal.RecoveryEventID), uuid.UUID(proposal.ProposedBy),
			proposal.Location, proposal.Latitude, proposal.Longitude,
			proposal.ProposedFor, proposal.Message, string(models.ProposalStatusPending), proposal.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert meetup proposal: %w", err)
		}

		return setEventStatus(ctx, tx, proposal.RecoveryEventID, models.StatusMeetupProposed, proposal.CreatedAt)
	})
	if err != nil {
		return 0, err
	}
	return declined, nil
}

func (s *PostgresStore) AcceptMeetup(ctx context.Context, eventID id.RecoveryEventID, proposalID id.MeetupProposalID) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		status, err := lockEventStatus(ctx, tx, eventID)
		if err != nil {
			return err
		}
		if err := requireStatus(status, models.StatusMeetupProposed); err != nil {
			return err
		}

		now := requestcontext.Now(ctx)
		res, err := tx.ExecContext(ctx, `
			UPDATE meetup_proposals
			SET status = $3, updated_at = $4
			WHERE id = $1 AND recovery_event_id = $2 AND status = 'pending'
		`, uuid.UUID(proposalID), uuid.UUID(eventID), string(models.ProposalStatusAccepted), now)
		if err != nil {
			return fmt.Errorf("accept meetup proposal: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("accept meetup proposal: %w", err)
		}
		if n == 0 {
			// Either the proposal is gone or it is no longer pending.
			var exists bool
			err := tx.QueryRowContext(ctx,
				`SELECT EXISTS (SELECT 1 FROM meetup_proposals WHERE id = $1 AND recovery_event_id = $2)`,
				uuid.UUID(proposalID), uuid.UUID(eventID),
			).Scan(&exists)
			if err != nil {
				return fmt.Errorf("check meetup proposal: %w", err)
			}
			if !exists {
				return sentinel.ErrNotFound
			}
			return fmt.Errorf("proposal not pending: %w", sentinel.ErrPreconditionFailed)
		}

		return setEventStatus(ctx, tx, eventID, models.StatusMeetupConfirmed, now)
	})
}

func (s *PostgresStore) CreateDropOff(ctx context.Context, dropOff *models.DropOff) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		status, err := lockEventStatus(ctx, tx, dropOff.RecoveryEventID)
		if err != nil {
			return err
		}
		if err := requireStatus(status, models.StatusFound); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO drop_offs
				(id, recovery_event_id, location, latitude, longitude, photo_path, note, dropped_at, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, uuid.UUID(dropOff.ID), uuid.UUID(dropOff.RecoveryEventID), dropOff.Location,
			dropOff.Latitude, dropOff.Longitude, dropOff.PhotoPath, dropOff.Note,
			dropOff.DroppedAt, dropOff.CreatedAt)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
				return fmt.Errorf("drop off exists for event: %w", sentinel.ErrConflict)
			}
			return fmt.Errorf("insert drop off: %w", err)
		}

		return setEventStatus(ctx, tx, dropOff.RecoveryEventID, models.StatusDroppedOff, dropOff.CreatedAt)
	})
}

func (s *PostgresStore) CompleteRecovery(ctx context.Context, eventID id.RecoveryEventID, at time.Time) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		status, err := lockEventStatus(ctx, tx, eventID)
		if err != nil {
			return err
		}
		if err := requireStatus(status, models.StatusMeetupConfirmed); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE meetup_proposals
			SET status = $2, updated_at = $3
			WHERE recovery_event_id = $1 AND status = 'accepted'
		`, uuid.UUID(eventID), string(models.ProposalStatusCompleted), at)
		if err != nil {
			return fmt.Errorf("complete meetup proposal: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE recovery_events
			SET status = $2, recovered_at = $3, updated_at = $3
			WHERE id = $1
		`, uuid.UUID(eventID), string(models.StatusRecovered), at)
		if err != nil {
			return fmt.Errorf("complete recovery event: %w", err)
		}
		return nil
	})
}

func (s *PostgresStore) MarkRetrieved(ctx context.Context, eventID id.RecoveryEventID, at time.Time) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		status, err := lockEventStatus(ctx, tx, eventID)
		if err != nil {
			return err
		}
		if err := requireStatus(status, models.StatusDroppedOff); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `
			UPDATE drop_offs
			SET retrieved_at = $2
			WHERE recovery_event_id = $1 AND retrieved_at IS NULL
		`, uuid.UUID(eventID), at)
		if err != nil {
			return fmt.Errorf("mark drop off retrieved: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("mark drop off retrieved: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("drop off missing or already retrieved: %w", sentinel.ErrPreconditionFailed)
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE recovery_events
			SET status = $2, recovered_at = $3, updated_at = $3
			WHERE id = $1
		`, uuid.UUID(eventID), string(models.StatusRecovered), at)
		if err != nil {
			return fmt.Errorf("mark recovery event recovered: %w", err)
		}
		return nil
	})
}

func (s *PostgresStore) AbandonDisc(ctx context.Context, eventID id.RecoveryEventID, discID id.DiscID, ownerID id.UserID) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		status, err := lockEventStatus(ctx, tx, eventID)
		if err != nil {
			return err
		}
		if err := requireStatus(status, models.StatusFound, models.StatusMeetupProposed, models.StatusMeetupConfirmed); err != nil {
			return err
		}

		now := requestcontext.Now(ctx)
		res, err := tx.ExecContext(ctx, `
			UPDATE discs
			SET owner_id = NULL, updated_at = $3
			WHERE id = $1 AND owner_id = $2
		`, uuid.UUID(discID), uuid.UUID(ownerID), now)
		if err != nil {
			return fmt.Errorf("release disc ownership: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("release disc ownership: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("disc owner changed: %w", sentinel.ErrPreconditionFailed)
		}

		return setEventStatus(ctx, tx, eventID, models.StatusAbandoned, now)
	})
}

func (s *PostgresStore) ClaimDisc(ctx context.Context, discID id.DiscID, newOwnerID id.UserID) (int, error) {
	closed := 0
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		now := requestcontext.Now(ctx)
		res, err := tx.ExecContext(ctx, `
			UPDATE discs
			SET owner_id = $2, updated_at = $3
			WHERE id = $1 AND owner_id IS NULL
		`, uuid.UUID(discID), uuid.UUID(newOwnerID), now)
		if err != nil {
			return fmt.Errorf("claim disc: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("claim disc: %w", err)
		}
		if n == 0 {
			var exists bool
			err := tx.QueryRowContext(ctx,
				`SELECT EXISTS (SELECT 1 FROM discs WHERE id = $1)`,
				uuid.UUID(discID),
			).Scan(&exists)
			if err != nil {
				return fmt.Errorf("check disc: %w", err)
			}
			if !exists {
				return sentinel.ErrNotFound
			}
			return fmt.Errorf("disc already claimed: %w", sentinel.ErrPreconditionFailed)
		}

		res, err = tx.ExecContext(ctx, `
			UPDATE recovery_events
			SET status = $2, updated_at = $3
			WHERE disc_id = $1 AND status = $4
		`, uuid.UUID(discID), string(models.StatusClosed), now, string(models.StatusAbandoned))
		if err != nil {
			return fmt.Errorf("close abandoned events: %w", err)
		}
		c, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("close abandoned events: %w", err)
		}
		closed = int(c)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return closed, nil
}

func (s *PostgresStore) SurrenderDisc(ctx context.Context, transfer OwnershipTransfer) error {
	return s.transferOwnership(ctx, transfer, models.StatusSurrendered, models.StatusFound)
}

func (s *PostgresStore) RelinquishDisc(ctx context.Context, transfer OwnershipTransfer) error {
	return s.transferOwnership(ctx, transfer, models.StatusRelinquished,
		models.StatusMeetupConfirmed, models.StatusDroppedOff)
}

func (s *PostgresStore) transferOwnership(ctx context.Context, transfer OwnershipTransfer, terminal models.Status, allowed ...models.Status) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		status, err := lockEventStatus(ctx, tx, transfer.EventID)
		if err != nil {
			return err
		}
		if err := requireStatus(status, allowed...); err != nil {
			return err
		}

		now := requestcontext.Now(ctx)
		res, err := tx.ExecContext(ctx, `
			UPDATE discs
			SET owner_id = $2, updated_at = $4
			WHERE id = $1 AND owner_id = $3
		`, uuid.UUID(transfer.DiscID), uuid.UUID(transfer.FinderID), uuid.UUID(transfer.OwnerID), now)
		if err != nil {
			return fmt.Errorf("transfer disc ownership: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("transfer disc ownership: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("disc owner changed: %w", sentinel.ErrPreconditionFailed)
		}

		if transfer.QRCodeID != nil {
			_, err := tx.ExecContext(ctx, `
				UPDATE qr_codes
				SET owner_id = $2, updated_at = $3
				WHERE id = $1
			`, uuid.UUID(*transfer.QRCodeID), uuid.UUID(transfer.FinderID), now)
			if err != nil {
				return fmt.Errorf("reassign qr code: %w", err)
			}
		}

		return setEventStatus(ctx, tx, transfer.EventID, terminal, now)
	})
}
