package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	discmodels "discrescue/internal/disc/models"
	"discrescue/internal/notification"
	"discrescue/internal/recovery/models"
	id "discrescue/pkg/domain"
	"discrescue/pkg/platform/sentinel"
)

func seedDisc(s *InMemoryStore, owner id.UserID) *discmodels.Disc {
	d := &discmodels.Disc{
		ID:        id.NewDiscID(),
		OwnerID:   &owner,
		Name:      "Destroyer",
		Brand:     "Innova",
		Color:     "orange",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	s.PutDisc(d)
	return d
}

func newFoundEvent(disc *discmodels.Disc, finder, owner id.UserID) *models.RecoveryEvent {
	now := time.Now()
	return &models.RecoveryEvent{
		ID:        id.NewRecoveryEventID(),
		DiscID:    &disc.ID,
		FinderID:  finder,
		OwnerID:   owner,
		Status:    models.StatusFound,
		FoundAt:   now,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestCreateFoundEvent_ConflictOnActiveRecovery(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory(notification.NewInMemoryStore())
	owner := id.NewUserID()
	disc := seedDisc(s, owner)

	first := newFoundEvent(disc, id.NewUserID(), owner)
	require.NoError(t, s.CreateFoundEvent(ctx, first, nil))

	second := newFoundEvent(disc, id.NewUserID(), owner)
	err := s.CreateFoundEvent(ctx, second, nil)
	assert.ErrorIs(t, err, sentinel.ErrConflict)

	// Closing the first recovery reopens the slot.
	require.NoError(t, s.ProposeMeetupToConfirmed(ctx, t, first.ID))
	require.NoError(t, s.CompleteRecovery(ctx, first.ID, time.Now()))
	assert.NoError(t, s.CreateFoundEvent(ctx, second, nil))
}

// ProposeMeetupToConfirmed walks an event from FOUND to MEETUP_CONFIRMED.
// Shared setup for tests that need a confirmed meetup.
func (s *InMemoryStore) ProposeMeetupToConfirmed(ctx context.Context, t *testing.T, eventID id.RecoveryEventID) error {
	t.Helper()
	p := &models.MeetupProposal{
		ID:              id.NewMeetupProposalID(),
		RecoveryEventID: eventID,
		ProposedBy:      id.NewUserID(),
		Location:        "hole 7 basket",
		ProposedFor:     time.Now().Add(24 * time.Hour),
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
	if _, err := s.ProposeMeetup(ctx, p); err != nil {
		return err
	}
	return s.AcceptMeetup(ctx, eventID, p.ID)
}

func TestCreateFoundEvent_OwnerMismatch(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory(notification.NewInMemoryStore())
	disc := seedDisc(s, id.NewUserID())

	event := newFoundEvent(disc, id.NewUserID(), id.NewUserID())
	err := s.CreateFoundEvent(ctx, event, nil)
	assert.ErrorIs(t, err, sentinel.ErrPreconditionFailed)
}

func TestCreateFoundEvent_PersistsNotificationWithEvent(t *testing.T) {
	ctx := context.Background()
	notes := notification.NewInMemoryStore()
	s := NewInMemory(notes)
	owner := id.NewUserID()
	disc := seedDisc(s, owner)

	event := newFoundEvent(disc, id.NewUserID(), owner)
	note := notification.Compose(notification.KindDiscFound, owner, event.ID, event.DiscID, time.Now())
	require.NoError(t, s.CreateFoundEvent(ctx, event, note))

	got, err := notes.ListByUser(ctx, owner)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, notification.KindDiscFound, got[0].Payload.Kind)
	assert.Equal(t, event.ID, got[0].Payload.RecoveryEventID)
}

func TestProposeMeetup_DeclinesOpenProposals(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory(notification.NewInMemoryStore())
	owner := id.NewUserID()
	finder := id.NewUserID()
	disc := seedDisc(s, owner)
	event := newFoundEvent(disc, finder, owner)
	require.NoError(t, s.CreateFoundEvent(ctx, event, nil))

	first := &models.MeetupProposal{
		ID:              id.NewMeetupProposalID(),
		RecoveryEventID: event.ID,
		ProposedBy:      finder,
		Location:        "clubhouse",
		ProposedFor:     time.Now().Add(time.Hour),
		CreatedAt:       time.Now(),
	}
	declined, err := s.ProposeMeetup(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, 0, declined)

	second := &models.MeetupProposal{
		ID:              id.NewMeetupProposalID(),
		RecoveryEventID: event.ID,
		ProposedBy:      owner,
		Location:        "parking lot",
		ProposedFor:     time.Now().Add(2 * time.Hour),
		CreatedAt:       time.Now(),
	}
	declined, err = s.ProposeMeetup(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, 1, declined)

	proposals, err := s.ListProposals(ctx, event.ID)
	require.NoError(t, err)
	open := 0
	for _, p := range proposals {
		if p.Status.Open() {
			open++
			assert.Equal(t, second.ID, p.ID)
		}
	}
	assert.Equal(t, 1, open, "exactly one open proposal at a time")
}

func TestAcceptMeetup_RejectsDeclinedProposal(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory(notification.NewInMemoryStore())
	owner := id.NewUserID()
	disc := seedDisc(s, owner)
	event := newFoundEvent(disc, id.NewUserID(), owner)
	require.NoError(t, s.CreateFoundEvent(ctx, event, nil))

	first := &models.MeetupProposal{
		ID:              id.NewMeetupProposalID(),
		RecoveryEventID: event.ID,
		ProposedBy:      event.FinderID,
		Location:        "clubhouse",
		ProposedFor:     time.Now().Add(time.Hour),
		CreatedAt:       time.Now(),
	}
	_, err := s.ProposeMeetup(ctx, first)
	require.NoError(t, err)

	second := &models.MeetupProposal{
		ID:              id.NewMeetupProposalID(),
		RecoveryEventID: event.ID,
		ProposedBy:      owner,
		Location:        "parking lot",
		ProposedFor:     time.Now().Add(2 * time.Hour),
		CreatedAt:       time.Now(),
	}
	_, err = s.ProposeMeetup(ctx, second)
	require.NoError(t, err)

	// The first proposal was declined by the counter-proposal and can no
	// longer be accepted.
	err = s.AcceptMeetup(ctx, event.ID, first.ID)
	assert.ErrorIs(t, err, sentinel.ErrPreconditionFailed)

	require.NoError(t, s.AcceptMeetup(ctx, event.ID, second.ID))
	got, err := s.FindEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusMeetupConfirmed, got.Status)
}

func TestDropOff_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory(notification.NewInMemoryStore())
	owner := id.NewUserID()
	disc := seedDisc(s, owner)
	event := newFoundEvent(disc, id.NewUserID(), owner)
	require.NoError(t, s.CreateFoundEvent(ctx, event, nil))

	dropOff := &models.DropOff{
		ID:              id.NewDropOffID(),
		RecoveryEventID: event.ID,
		Location:        "pro shop counter",
		PhotoPath:       "drops/abc.jpg",
		DroppedAt:       time.Now(),
		CreatedAt:       time.Now(),
	}
	require.NoError(t, s.CreateDropOff(ctx, dropOff))

	got, err := s.FindEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDroppedOff, got.Status)

	// Second drop-off for the same event is rejected.
	dup := *dropOff
	dup.ID = id.NewDropOffID()
	assert.ErrorIs(t, s.CreateDropOff(ctx, &dup), sentinel.ErrConflict)

	at := time.Now()
	require.NoError(t, s.MarkRetrieved(ctx, event.ID, at))

	stored, err := s.FindDropOff(ctx, event.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.RetrievedAt)
	assert.WithinDuration(t, at, *stored.RetrievedAt, time.Second)

	got, err = s.FindEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRecovered, got.Status)
	require.NotNil(t, got.RecoveredAt)

	// Retrieval is one-shot.
	assert.ErrorIs(t, s.MarkRetrieved(ctx, event.ID, time.Now()), sentinel.ErrPreconditionFailed)
}

func TestAbandonDisc_ReleasesOwnershipWithStatus(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory(notification.NewInMemoryStore())
	owner := id.NewUserID()
	disc := seedDisc(s, owner)
	event := newFoundEvent(disc, id.NewUserID(), owner)
	require.NoError(t, s.CreateFoundEvent(ctx, event, nil))

	require.NoError(t, s.AbandonDisc(ctx, event.ID, disc.ID, owner))

	gotDisc, err := s.FindDisc(ctx, disc.ID)
	require.NoError(t, err)
	assert.True(t, gotDisc.Ownerless())

	gotEvent, err := s.FindEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAbandoned, gotEvent.Status)
}

func TestClaimDisc_SingleWinnerUnderConcurrency(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory(notification.NewInMemoryStore())
	owner := id.NewUserID()
	disc := seedDisc(s, owner)
	event := newFoundEvent(disc, id.NewUserID(), owner)
	require.NoError(t, s.CreateFoundEvent(ctx, event, nil))
	require.NoError(t, s.AbandonDisc(ctx, event.ID, disc.ID, owner))

	const claimants = 8
	var wg sync.WaitGroup
	results := make([]error, claimants)
	winners := make([]id.UserID, claimants)
	for i := 0; i < claimants; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			claimant := id.NewUserID()
			winners[i] = claimant
			_, results[i] = s.ClaimDisc(ctx, disc.ID, claimant)
		}(i)
	}
	wg.Wait()

	won := 0
	var winner id.UserID
	for i, err := range results {
		if err == nil {
			won++
			winner = winners[i]
		} else {
			assert.ErrorIs(t, err, sentinel.ErrPreconditionFailed)
		}
	}
	require.Equal(t, 1, won, "exactly one claimant wins")

	gotDisc, err := s.FindDisc(ctx, disc.ID)
	require.NoError(t, err)
	require.NotNil(t, gotDisc.OwnerID)
	assert.Equal(t, winner, *gotDisc.OwnerID)

	gotEvent, err := s.FindEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusClosed, gotEvent.Status)
}

func TestSurrenderDisc_TransfersDiscAndQRCode(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory(notification.NewInMemoryStore())
	owner := id.NewUserID()
	finder := id.NewUserID()
	disc := seedDisc(s, owner)

	qr := &discmodels.QRCode{
		ID:      id.NewQRCodeID(),
		Code:    "DR-0001",
		DiscID:  &disc.ID,
		OwnerID: &owner,
	}
	s.PutQRCode(qr)

	event := newFoundEvent(disc, finder, owner)
	require.NoError(t, s.CreateFoundEvent(ctx, event, nil))

	require.NoError(t, s.SurrenderDisc(ctx, OwnershipTransfer{
		EventID:  event.ID,
		DiscID:   disc.ID,
		FinderID: finder,
		OwnerID:  owner,
		QRCodeID: &qr.ID,
	}))

	gotDisc, err := s.FindDisc(ctx, disc.ID)
	require.NoError(t, err)
	require.NotNil(t, gotDisc.OwnerID)
	assert.Equal(t, finder, *gotDisc.OwnerID)

	gotEvent, err := s.FindEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSurrendered, gotEvent.Status)
}

func TestRelinquishDisc_RequiresContactStage(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory(notification.NewInMemoryStore())
	owner := id.NewUserID()
	finder := id.NewUserID()
	disc := seedDisc(s, owner)
	event := newFoundEvent(disc, finder, owner)
	require.NoError(t, s.CreateFoundEvent(ctx, event, nil))

	transfer := OwnershipTransfer{
		EventID:  event.ID,
		DiscID:   disc.ID,
		FinderID: finder,
		OwnerID:  owner,
	}

	// Straight from FOUND relinquish is not available.
	assert.ErrorIs(t, s.RelinquishDisc(ctx, transfer), sentinel.ErrPreconditionFailed)

	require.NoError(t, s.ProposeMeetupToConfirmed(ctx, t, event.ID))
	require.NoError(t, s.RelinquishDisc(ctx, transfer))

	gotEvent, err := s.FindEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRelinquished, gotEvent.Status)
}

func TestFailpoint_NoPartialState(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory(notification.NewInMemoryStore())
	owner := id.NewUserID()
	disc := seedDisc(s, owner)
	event := newFoundEvent(disc, id.NewUserID(), owner)
	require.NoError(t, s.CreateFoundEvent(ctx, event, nil))

	boom := errors.New("storage fault")
	s.SetFailpoint(func(string) error { return boom })

	err := s.AbandonDisc(ctx, event.ID, disc.ID, owner)
	require.ErrorIs(t, err, boom)

	// Neither side of the abandon happened.
	gotDisc, err2 := s.FindDisc(ctx, disc.ID)
	require.NoError(t, err2)
	require.NotNil(t, gotDisc.OwnerID)
	assert.Equal(t, owner, *gotDisc.OwnerID)

	gotEvent, err2 := s.FindEvent(ctx, event.ID)
	require.NoError(t, err2)
	assert.Equal(t, models.StatusFound, gotEvent.Status)

	s.SetFailpoint(nil)
	require.NoError(t, s.AbandonDisc(ctx, event.ID, disc.ID, owner))
}
