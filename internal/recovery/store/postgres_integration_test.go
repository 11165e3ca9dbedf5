//go:build integration

package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"discrescue/internal/notification"
	"discrescue/internal/recovery/models"
	"discrescue/internal/recovery/store"
	id "discrescue/pkg/domain"
	"discrescue/pkg/platform/sentinel"
	"discrescue/pkg/testutil/containers"
)

type pgEnv struct {
	store *store.PostgresStore
	notes *notification.PostgresStore
	pg    *containers.PostgresContainer
}

func newPgEnv(t *testing.T) *pgEnv {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	pg := containers.NewPostgresContainer(t)
	pg.ApplySchema(t, store.Schema)

	notes := notification.NewPostgres(pg.DB)
	return &pgEnv{
		store: store.NewPostgres(pg.DB, notes),
		notes: notes,
		pg:    pg,
	}
}

func (e *pgEnv) seedDisc(t *testing.T, owner id.UserID) id.DiscID {
	t.Helper()
	discID := id.NewDiscID()
	_, err := e.pg.DB.Exec(
		`INSERT INTO discs (id, owner_id, name, brand, color) VALUES ($1, $2, 'Firebird', 'Innova', 'red')`,
		uuid.UUID(discID), uuid.UUID(owner),
	)
	require.NoError(t, err)
	return discID
}

func foundEvent(discID id.DiscID, finder, owner id.UserID) *models.RecoveryEvent {
	now := time.Now().UTC()
	return &models.RecoveryEvent{
		ID:        id.NewRecoveryEventID(),
		DiscID:    &discID,
		FinderID:  finder,
		OwnerID:   owner,
		Status:    models.StatusFound,
		FoundAt:   now,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestPostgres_ActiveRecoveryUniqueness(t *testing.T) {
	ctx := context.Background()
	e := newPgEnv(t)
	owner := id.NewUserID()
	discID := e.seedDisc(t, owner)

	require.NoError(t, e.store.CreateFoundEvent(ctx, foundEvent(discID, id.NewUserID(), owner), nil))

	// The partial unique index rejects a second active recovery.
	err := e.store.CreateFoundEvent(ctx, foundEvent(discID, id.NewUserID(), owner), nil)
	assert.ErrorIs(t, err, sentinel.ErrConflict)
}

func TestPostgres_FoundNotificationCommitsWithEvent(t *testing.T) {
	ctx := context.Background()
	e := newPgEnv(t)
	owner := id.NewUserID()
	discID := e.seedDisc(t, owner)

	event := foundEvent(discID, id.NewUserID(), owner)
	note := notification.Compose(notification.KindDiscFound, owner, event.ID, &discID, time.Now().UTC())
	require.NoError(t, e.store.CreateFoundEvent(ctx, event, note))

	records, err := e.notes.ListByUser(ctx, owner)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, event.ID, records[0].Payload.RecoveryEventID)

	// A failed insert leaves no notification behind: same disc, so the
	// event insert is rejected and the whole unit rolls back.
	dup := foundEvent(discID, id.NewUserID(), owner)
	dupNote := notification.Compose(notification.KindDiscFound, owner, dup.ID, &discID, time.Now().UTC())
	require.ErrorIs(t, e.store.CreateFoundEvent(ctx, dup, dupNote), sentinel.ErrConflict)

	records, err = e.notes.ListByUser(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestPostgres_MeetupFlow(t *testing.T) {
	ctx := context.Background()
	e := newPgEnv(t)
	owner := id.NewUserID()
	finder := id.NewUserID()
	discID := e.seedDisc(t, owner)

	event := foundEvent(discID, finder, owner)
	require.NoError(t, e.store.CreateFoundEvent(ctx, event, nil))

	first := &models.MeetupProposal{
		ID:              id.NewMeetupProposalID(),
		RecoveryEventID: event.ID,
		ProposedBy:      finder,
		Location:        "clubhouse",
		ProposedFor:     time.Now().Add(time.Hour).UTC(),
		CreatedAt:       time.Now().UTC(),
	}
	declined, err := e.store.ProposeMeetup(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, 0, declined)

	second := &models.MeetupProposal{
		ID:              id.NewMeetupProposalID(),
		RecoveryEventID: event.ID,
		ProposedBy:      owner,
		Location:        "parking lot",
		ProposedFor:     time.Now().Add(2 * time.Hour).UTC(),
		CreatedAt:       time.Now().UTC(),
	}
	declined, err = e.store.ProposeMeetup(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, 1, declined)

	// The declined proposal cannot be accepted.
	err = e.store.AcceptMeetup(ctx, event.ID, first.ID)
	assert.ErrorIs(t, err, sentinel.ErrPreconditionFailed)

	require.NoError(t, e.store.AcceptMeetup(ctx, event.ID, second.ID))
	require.NoError(t, e.store.CompleteRecovery(ctx, event.ID, time.Now().UTC()))

	got, err := e.store.FindEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRecovered, got.Status)
	require.NotNil(t, got.RecoveredAt)

	proposals, err := e.store.ListProposals(ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, proposals, 2)
	for _, p := range proposals {
		if p.ID == second.ID {
			assert.Equal(t, models.ProposalStatusCompleted, p.Status)
		}
	}
}

func TestPostgres_DropOffUniquePerEvent(t *testing.T) {
	ctx := context.Background()
	e := newPgEnv(t)
	owner := id.NewUserID()
	discID := e.seedDisc(t, owner)
	event := foundEvent(discID, id.NewUserID(), owner)
	require.NoError(t, e.store.CreateFoundEvent(ctx, event, nil))

	dropOff := &models.DropOff{
		ID:              id.NewDropOffID(),
		RecoveryEventID: event.ID,
		Location:        "pro shop",
		DroppedAt:       time.Now().UTC(),
		CreatedAt:       time.Now().UTC(),
	}
	require.NoError(t, e.store.CreateDropOff(ctx, dropOff))

	got, err := e.store.FindEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDroppedOff, got.Status)

	require.NoError(t, e.store.MarkRetrieved(ctx, event.ID, time.Now().UTC()))
	stored, err := e.store.FindDropOff(ctx, event.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.RetrievedAt)
}

func TestPostgres_AbandonAndClaimRace(t *testing.T) {
	ctx := context.Background()
	e := newPgEnv(t)
	owner := id.NewUserID()
	finder := id.NewUserID()
	discID := e.seedDisc(t, owner)
	event := foundEvent(discID, finder, owner)
	require.NoError(t, e.store.CreateFoundEvent(ctx, event, nil))

	require.NoError(t, e.store.AbandonDisc(ctx, event.ID, discID, owner))
	disc, err := e.store.FindDisc(ctx, discID)
	require.NoError(t, err)
	assert.True(t, disc.Ownerless())

	// Abandoning again fails the owner CAS.
	gotEvent, err := e.store.FindEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAbandoned, gotEvent.Status)

	const claimants = 6
	var wg sync.WaitGroup
	errs := make([]error, claimants)
	for i := 0; i < claimants; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.store.ClaimDisc(ctx, discID, id.NewUserID())
		}(i)
	}
	wg.Wait()

	won := 0
	for _, err := range errs {
		if err == nil {
			won++
		} else {
			assert.ErrorIs(t, err, sentinel.ErrPreconditionFailed)
		}
	}
	assert.Equal(t, 1, won, "exactly one claim commits against owner IS NULL")

	gotEvent, err = e.store.FindEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusClosed, gotEvent.Status)
}

func TestPostgres_SurrenderTransfersOwnershipAndQRCode(t *testing.T) {
	ctx := context.Background()
	e := newPgEnv(t)
	owner := id.NewUserID()
	finder := id.NewUserID()
	discID := e.seedDisc(t, owner)

	qrID := id.NewQRCodeID()
	_, err := e.pg.DB.Exec(
		`INSERT INTO qr_codes (id, code, disc_id, owner_id) VALUES ($1, 'DR-1000', $2, $3)`,
		uuid.UUID(qrID), uuid.UUID(discID), uuid.UUID(owner),
	)
	require.NoError(t, err)

	event := foundEvent(discID, finder, owner)
	require.NoError(t, e.store.CreateFoundEvent(ctx, event, nil))

	require.NoError(t, e.store.SurrenderDisc(ctx, store.OwnershipTransfer{
		EventID:  event.ID,
		DiscID:   discID,
		FinderID: finder,
		OwnerID:  owner,
		QRCodeID: &qrID,
	}))

	disc, err := e.store.FindDisc(ctx, discID)
	require.NoError(t, err)
	require.NotNil(t, disc.OwnerID)
	assert.Equal(t, finder, *disc.OwnerID)

	var qrOwner uuid.UUID
	require.NoError(t, e.pg.DB.QueryRow(
		`SELECT owner_id FROM qr_codes WHERE id = $1`, uuid.UUID(qrID),
	).Scan(&qrOwner))
	assert.Equal(t, uuid.UUID(finder), qrOwner)

	// A second transfer loses the owner CAS.
	err = e.store.SurrenderDisc(ctx, store.OwnershipTransfer{
		EventID:  event.ID,
		DiscID:   discID,
		FinderID: id.NewUserID(),
		OwnerID:  owner,
	})
	assert.ErrorIs(t, err, sentinel.ErrPreconditionFailed)
}
