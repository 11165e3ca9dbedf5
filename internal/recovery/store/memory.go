package store

import (
	"context"
	"sync"
	"time"

	discmodels "discrescue/internal/disc/models"
	"discrescue/internal/notification"
	"discrescue/internal/recovery/models"
	id "discrescue/pkg/domain"
	"discrescue/pkg/platform/sentinel"
	"discrescue/pkg/requestcontext"
)

// InMemoryStore is the Store used by unit tests and by the server when no
// Postgres DSN is configured. A single mutex serializes every transition, and
// each transition validates all preconditions before touching any map, so a
// failed operation leaves no partial state.
type InMemoryStore struct {
	mu            sync.Mutex
	discs         map[id.DiscID]*discmodels.Disc
	qrCodes       map[id.QRCodeID]*discmodels.QRCode
	events        map[id.RecoveryEventID]*models.RecoveryEvent
	proposals     map[id.MeetupProposalID]*models.MeetupProposal
	dropOffs      map[id.RecoveryEventID]*models.DropOff
	notifications notification.Store

	// failpoint, when set, is invoked after validation and before any
	// mutation. Tests use it to prove transitions are all-or-nothing.
	failpoint func(op string) error
}

func NewInMemory(notifications notification.Store) *InMemoryStore {
	return &InMemoryStore{
		discs:         make(map[id.DiscID]*discmodels.Disc),
		qrCodes:       make(map[id.QRCodeID]*discmodels.QRCode),
		events:        make(map[id.RecoveryEventID]*models.RecoveryEvent),
		proposals:     make(map[id.MeetupProposalID]*models.MeetupProposal),
		dropOffs:      make(map[id.RecoveryEventID]*models.DropOff),
		notifications: notifications,
	}
}

// SetFailpoint installs a hook that can abort any transition between its
// validation and its first mutation. Test-only.
func (s *InMemoryStore) SetFailpoint(fn func(op string) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failpoint = fn
}

func (s *InMemoryStore) fail(op string) error {
	if s.failpoint == nil {
		return nil
	}
	return s.failpoint(op)
}

// PutDisc seeds a disc row. Test and bootstrap helper.
func (s *InMemoryStore) PutDisc(d *discmodels.Disc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *d
	s.discs[d.ID] = &cp
}

// PutQRCode seeds a QR code row. Test and bootstrap helper.
func (s *InMemoryStore) PutQRCode(q *discmodels.QRCode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *q
	s.qrCodes[q.ID] = &cp
}

func copyEvent(e *models.RecoveryEvent) *models.RecoveryEvent {
	cp := *e
	return &cp
}

// ---------------------------------------------------------------------------
// Reads
// ---------------------------------------------------------------------------

func (s *InMemoryStore) FindDisc(_ context.Context, discID id.DiscID) (*discmodels.Disc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.discs[discID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (s *InMemoryStore) FindEvent(_ context.Context, eventID id.RecoveryEventID) (*models.RecoveryEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[eventID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyEvent(e), nil
}

func (s *InMemoryStore) FindActiveEventByDisc(_ context.Context, discID id.DiscID) (*models.RecoveryEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e := s.activeEventLocked(discID); e != nil {
		return copyEvent(e), nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) activeEventLocked(discID id.DiscID) *models.RecoveryEvent {
	for _, e := range s.events {
		if e.DiscID != nil && *e.DiscID == discID && e.Status.IsActive() {
			return e
		}
	}
	return nil
}

func (s *InMemoryStore) ListEventsByUser(_ context.Context, userID id.UserID) ([]*models.RecoveryEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.RecoveryEvent
	for _, e := range s.events {
		if e.FinderID == userID || e.OwnerID == userID {
			out = append(out, copyEvent(e))
		}
	}
	return out, nil
}

func (s *InMemoryStore) ListProposals(_ context.Context, eventID id.RecoveryEventID) ([]*models.MeetupProposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.MeetupProposal
	for _, p := range s.proposals {
		if p.RecoveryEventID == eventID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *InMemoryStore) FindDropOff(_ context.Context, eventID id.RecoveryEventID) (*models.DropOff, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.dropOffs[eventID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

// ---------------------------------------------------------------------------
// Atomic transition operations
// ---------------------------------------------------------------------------

func (s *InMemoryStore) CreateFoundEvent(ctx context.Context, event *models.RecoveryEvent, note *notification.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if event.DiscID != nil {
		d, ok := s.discs[*event.DiscID]
		if !ok {
			return sentinel.ErrNotFound
		}
		if d.OwnerID == nil || *d.OwnerID != event.OwnerID {
			return sentinel.ErrPreconditionFailed
		}
		if s.activeEventLocked(*event.DiscID) != nil {
			return sentinel.ErrConflict
		}
	}
	if err := s.fail("CreateFoundEvent"); err != nil {
		return err
	}

	s.events[event.ID] = copyEvent(event)
	if note != nil {
		if err := s.notifications.Insert(ctx, note); err != nil {
			delete(s.events, event.ID)
			return err
		}
	}
	return nil
}

func (s *InMemoryStore) ProposeMeetup(_ context.Context, proposal *models.MeetupProposal) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.events[proposal.RecoveryEventID]
	if !ok {
		return 0, sentinel.ErrNotFound
	}
	if e.Status != models.StatusFound && e.Status != models.StatusMeetupProposed {
		return 0, sentinel.ErrPreconditionFailed
	}
	if err := s.fail("ProposeMeetup"); err != nil {
		return 0, err
	}

	declined := 0
	for _, p := range s.proposals {
		if p.RecoveryEventID == proposal.RecoveryEventID && p.Status.Open() {
			p.Status = models.ProposalStatusDeclined
			p.UpdatedAt = proposal.CreatedAt
			declined++
		}
	}
	cp := *proposal
	cp.Status = models.ProposalStatusPending
	s.proposals[proposal.ID] = &cp
	e.Status = models.StatusMeetupProposed
	e.UpdatedAt = proposal.CreatedAt
	return declined, nil
}

func (s *InMemoryStore) AcceptMeetup(ctx context.Context, eventID id.RecoveryEventID, proposalID id.MeetupProposalID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.events[eventID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if e.Status != models.StatusMeetupProposed {
		return sentinel.ErrPreconditionFailed
	}
	p, ok := s.proposals[proposalID]
	if !ok || p.RecoveryEventID != eventID {
		return sentinel.ErrNotFound
	}
	if p.Status != models.ProposalStatusPending {
		return sentinel.ErrPreconditionFailed
	}
	if err := s.fail("AcceptMeetup"); err != nil {
		return err
	}

	now := requestcontext.Now(ctx)
	p.Status = models.ProposalStatusAccepted
	p.UpdatedAt = now
	e.Status = models.StatusMeetupConfirmed
	e.UpdatedAt = now
	return nil
}

func (s *InMemoryStore) CreateDropOff(_ context.Context, dropOff *models.DropOff) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.events[dropOff.RecoveryEventID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if e.Status != models.StatusFound {
		return sentinel.ErrPreconditionFailed
	}
	if _, exists := s.dropOffs[dropOff.RecoveryEventID]; exists {
		return sentinel.ErrConflict
	}
	if err := s.fail("CreateDropOff"); err != nil {
		return err
	}

	cp := *dropOff
	s.dropOffs[dropOff.RecoveryEventID] = &cp
	e.Status = models.StatusDroppedOff
	e.UpdatedAt = dropOff.CreatedAt
	return nil
}

func (s *InMemoryStore) CompleteRecovery(_ context.Context, eventID id.RecoveryEventID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.events[eventID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if e.Status != models.StatusMeetupConfirmed {
		return sentinel.ErrPreconditionFailed
	}
	if err := s.fail("CompleteRecovery"); err != nil {
		return err
	}

	for _, p := range s.proposals {
		if p.RecoveryEventID == eventID && p.Status == models.ProposalStatusAccepted {
			p.Status = models.ProposalStatusCompleted
			p.UpdatedAt = at
		}
	}
	e.Status = models.StatusRecovered
	recoveredAt := at
	e.RecoveredAt = &recoveredAt
	e.UpdatedAt = at
	return nil
}

func (s *InMemoryStore) MarkRetrieved(_ context.Context, eventID id.RecoveryEventID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.events[eventID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if e.Status != models.StatusDroppedOff {
		return sentinel.ErrPreconditionFailed
	}
	d, ok := s.dropOffs[eventID]
	if !ok || d.RetrievedAt != nil {
		return sentinel.ErrPreconditionFailed
	}
	if err := s.fail("MarkRetrieved"); err != nil {
		return err
	}

	retrievedAt := at
	d.RetrievedAt = &retrievedAt
	e.Status = models.StatusRecovered
	recoveredAt := at
	e.RecoveredAt = &recoveredAt
	e.UpdatedAt = at
	return nil
}

func (s *InMemoryStore) AbandonDisc(ctx context.Context, eventID id.RecoveryEventID, discID id.DiscID, ownerID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.events[eventID]
	if !ok {
		return sentinel.ErrNotFound
	}
	switch e.Status {
	case models.StatusFound, models.StatusMeetupProposed, models.StatusMeetupConfirmed:
	default:
		return sentinel.ErrPreconditionFailed
	}
	d, ok := s.discs[discID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if d.OwnerID == nil || *d.OwnerID != ownerID {
		return sentinel.ErrPreconditionFailed
	}
	if err := s.fail("AbandonDisc"); err != nil {
		return err
	}

	now := requestcontext.Now(ctx)
	d.OwnerID = nil
	d.UpdatedAt = now
	e.Status = models.StatusAbandoned
	e.UpdatedAt = now
	return nil
}

func (s *InMemoryStore) ClaimDisc(ctx context.Context, discID id.DiscID, newOwnerID id.UserID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.discs[discID]
	if !ok {
		return 0, sentinel.ErrNotFound
	}
	if d.OwnerID != nil {
		return 0, sentinel.ErrPreconditionFailed
	}
	if err := s.fail("ClaimDisc"); err != nil {
		return 0, err
	}

	now := requestcontext.Now(ctx)
	owner := newOwnerID
	d.OwnerID = &owner
	d.UpdatedAt = now

	closed := 0
	for _, e := range s.events {
		if e.DiscID != nil && *e.DiscID == discID && e.Status == models.StatusAbandoned {
			e.Status = models.StatusClosed
			e.UpdatedAt = now
			closed++
		}
	}
	return closed, nil
}

func (s *InMemoryStore) SurrenderDisc(ctx context.Context, transfer OwnershipTransfer) error {
	return s.transferOwnership(ctx, transfer, models.StatusSurrendered,
		models.StatusFound)
}

func (s *InMemoryStore) RelinquishDisc(ctx context.Context, transfer OwnershipTransfer) error {
	return s.transferOwnership(ctx, transfer, models.StatusRelinquished,
		models.StatusMeetupConfirmed, models.StatusDroppedOff)
}

func (s *InMemoryStore) transferOwnership(ctx context.Context, transfer OwnershipTransfer, terminal models.Status, allowed ...models.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.events[transfer.EventID]
	if !ok {
		return sentinel.ErrNotFound
	}
	allowedStatus := false
	for _, a := range allowed {
		if e.Status == a {
			allowedStatus = true
			break
		}
	}
	if !allowedStatus {
		return sentinel.ErrPreconditionFailed
	}
	d, ok := s.discs[transfer.DiscID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if d.OwnerID == nil || *d.OwnerID != transfer.OwnerID {
		return sentinel.ErrPreconditionFailed
	}
	if err := s.fail("TransferOwnership"); err != nil {
		return err
	}

	now := requestcontext.Now(ctx)
	owner := transfer.FinderID
	d.OwnerID = &owner
	d.UpdatedAt = now
	if transfer.QRCodeID != nil {
		if q, ok := s.qrCodes[*transfer.QRCodeID]; ok {
			qOwner := transfer.FinderID
			q.OwnerID = &qOwner
			q.UpdatedAt = now
		}
	}
	e.Status = terminal
	e.UpdatedAt = now
	return nil
}
