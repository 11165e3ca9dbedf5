// Package service orchestrates recovery transitions: validate input, load the
// rows the guard needs, evaluate the guard, invoke the store's atomic
// operation, and dispatch notifications strictly after commit.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"discrescue/internal/notification"
	"discrescue/internal/recovery/guard"
	"discrescue/internal/recovery/metrics"
	"discrescue/internal/recovery/models"
	"discrescue/internal/recovery/store"
	id "discrescue/pkg/domain"
	dErrors "discrescue/pkg/domain-errors"
	"discrescue/pkg/platform/sentinel"
	"discrescue/pkg/requestcontext"
)

//go:generate mockgen -destination=mocks/notifier_mock.go -package=mocks discrescue/internal/recovery/service Notifier

// Notifier delivers transition notifications. Delivery is best effort and must
// never fail the transition, so the methods return nothing.
type Notifier interface {
	Dispatch(ctx context.Context, n *notification.Notification)
	PushOnly(ctx context.Context, n *notification.Notification)
}

// Service is the recovery transition orchestrator.
type Service struct {
	store    store.Store
	notifier Notifier
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

func New(st store.Store, notifier Notifier, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		store:    st,
		notifier: notifier,
		logger:   logger,
		metrics:  m,
		tracer:   otel.Tracer("discrescue/recovery"),
	}
}

// ReportFoundInput carries the finder's report. DiscID is nil when the found
// disc could not be matched to a registered one.
type ReportFoundInput struct {
	DiscID  *id.DiscID
	Message string
}

// ProposeMeetupInput carries a proposed exchange place and time.
type ProposeMeetupInput struct {
	Location    string
	Latitude    *float64
	Longitude   *float64
	ProposedFor time.Time
	Message     string
}

// CreateDropOffInput carries the unattended-exchange evidence.
type CreateDropOffInput struct {
	Location  string
	Latitude  *float64
	Longitude *float64
	PhotoPath string
	Note      string
}

// ReportFound opens a recovery event. When the disc is matched and owned, the
// owner's in-app notification is written in the same atomic unit as the event
// and only the push leg runs afterwards.
func (s *Service) ReportFound(ctx context.Context, finderID id.UserID, in ReportFoundInput) (*models.RecoveryEvent, error) {
	ctx, span := s.tracer.Start(ctx, "recovery.ReportFound")
	defer span.End()

	now := requestcontext.Now(ctx)
	event := &models.RecoveryEvent{
		ID:            id.NewRecoveryEventID(),
		DiscID:        in.DiscID,
		FinderID:      finderID,
		Status:        models.StatusFound,
		FinderMessage: in.Message,
		FoundAt:       now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	var note *notification.Notification
	if in.DiscID != nil {
		disc, err := s.store.FindDisc(ctx, *in.DiscID)
		if err != nil {
			return nil, s.fault("report-found", "load disc", err)
		}
		if disc.OwnedBy(finderID) {
			s.metrics.RecordDenial("report-found", string(guard.ReasonWrongRole))
			return nil, dErrors.New(dErrors.CodeForbidden, "cannot report your own disc as found")
		}
		if disc.Ownerless() {
			return nil, dErrors.New(dErrors.CodePreconditionFailed, "disc has no owner to return to")
		}
		event.OwnerID = *disc.OwnerID
		note = notification.Compose(notification.KindDiscFound, event.OwnerID, event.ID, in.DiscID, now)
	}

	if err := s.store.CreateFoundEvent(ctx, event, note); err != nil {
		return nil, s.fault("report-found", "create recovery event", err)
	}
	s.metrics.RecordTransition("report-found", "ok")
	span.SetAttributes(attribute.String("recovery.event_id", event.ID.String()))

	// The in-app record is already committed; only push remains.
	s.notifier.PushOnly(ctx, note)
	return event, nil
}

// ProposeMeetup adds a proposal and supersedes any open one. Either
// participant may counter-propose; the previous open proposal is declined in
// the same unit.
func (s *Service) ProposeMeetup(ctx context.Context, callerID id.UserID, eventID id.RecoveryEventID, in ProposeMeetupInput) (*models.MeetupProposal, error) {
	ctx, span := s.tracer.Start(ctx, "recovery.ProposeMeetup")
	defer span.End()

	if in.Location == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "meetup location is required")
	}
	if in.ProposedFor.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "meetup time is required")
	}

	event, err := s.authorize(ctx, guard.OpProposeMeetup, callerID, eventID)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	proposal := &models.MeetupProposal{
		ID:              id.NewMeetupProposalID(),
		RecoveryEventID: eventID,
		ProposedBy:      callerID,
		Location:        in.Location,
		Latitude:        in.Latitude,
		Longitude:       in.Longitude,
		ProposedFor:     in.ProposedFor,
		Message:         in.Message,
		Status:          models.ProposalStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	declined, err := s.store.ProposeMeetup(ctx, proposal)
	if err != nil {
		return nil, s.fault("propose-meetup", "propose meetup", err)
	}
	s.metrics.RecordTransition("propose-meetup", "ok")
	if declined > 0 {
		s.logger.InfoContext(ctx, "superseded open meetup proposals",
			"event_id", eventID.String(), "declined", declined)
	}

	n := notification.Compose(notification.KindMeetupProposed, event.Counterparty(callerID), eventID, event.DiscID, now)
	n.Payload.ProposalID = &proposal.ID
	s.notifier.Dispatch(ctx, n)
	return proposal, nil
}

// AcceptMeetup confirms a pending proposal. Owner only.
func (s *Service) AcceptMeetup(ctx context.Context, callerID id.UserID, eventID id.RecoveryEventID, proposalID id.MeetupProposalID) error {
	ctx, span := s.tracer.Start(ctx, "recovery.AcceptMeetup")
	defer span.End()

	event, err := s.authorize(ctx, guard.OpAcceptMeetup, callerID, eventID)
	if err != nil {
		return err
	}

	if err := s.store.AcceptMeetup(ctx, eventID, proposalID); err != nil {
		return s.fault("accept-meetup", "accept meetup", err)
	}
	s.metrics.RecordTransition("accept-meetup", "ok")

	n := notification.Compose(notification.KindMeetupAccepted, event.Counterparty(callerID), eventID, event.DiscID, requestcontext.Now(ctx))
	n.Payload.ProposalID = &proposalID
	s.notifier.Dispatch(ctx, n)
	return nil
}

// CreateDropOff records an unattended exchange. Finder only, from FOUND.
func (s *Service) CreateDropOff(ctx context.Context, callerID id.UserID, eventID id.RecoveryEventID, in CreateDropOffInput) (*models.DropOff, error) {
	ctx, span := s.tracer.Start(ctx, "recovery.CreateDropOff")
	defer span.End()

	if in.Location == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "drop-off location is required")
	}

	event, err := s.authorize(ctx, guard.OpCreateDropOff, callerID, eventID)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	dropOff := &models.DropOff{
		ID:              id.NewDropOffID(),
		RecoveryEventID: eventID,
		Location:        in.Location,
		Latitude:        in.Latitude,
		Longitude:       in.Longitude,
		PhotoPath:       in.PhotoPath,
		Note:            in.Note,
		DroppedAt:       now,
		CreatedAt:       now,
	}

	if err := s.store.CreateDropOff(ctx, dropOff); err != nil {
		return nil, s.fault("create-drop-off", "create drop off", err)
	}
	s.metrics.RecordTransition("create-drop-off", "ok")

	s.notifier.Dispatch(ctx, notification.Compose(notification.KindDropOffCreated, event.Counterparty(callerID), eventID, event.DiscID, now))
	return dropOff, nil
}

// CompleteRecovery closes a confirmed meetup as recovered. Either participant
// may confirm the hand-off happened.
func (s *Service) CompleteRecovery(ctx context.Context, callerID id.UserID, eventID id.RecoveryEventID) error {
	ctx, span := s.tracer.Start(ctx, "recovery.CompleteRecovery")
	defer span.End()

	event, err := s.authorize(ctx, guard.OpCompleteRecovery, callerID, eventID)
	if err != nil {
		return err
	}

	now := requestcontext.Now(ctx)
	if err := s.store.CompleteRecovery(ctx, eventID, now); err != nil {
		return s.fault("complete-recovery", "complete recovery", err)
	}
	s.metrics.RecordTransition("complete-recovery", "ok")

	s.notifier.Dispatch(ctx, notification.Compose(notification.KindRecoveryComplete, event.Counterparty(callerID), eventID, event.DiscID, now))
	return nil
}

// MarkRetrieved confirms a drop-off pickup. Owner only.
func (s *Service) MarkRetrieved(ctx context.Context, callerID id.UserID, eventID id.RecoveryEventID) error {
	ctx, span := s.tracer.Start(ctx, "recovery.MarkRetrieved")
	defer span.End()

	event, err := s.authorize(ctx, guard.OpMarkRetrieved, callerID, eventID)
	if err != nil {
		return err
	}

	now := requestcontext.Now(ctx)
	if err := s.store.MarkRetrieved(ctx, eventID, now); err != nil {
		return s.fault("mark-retrieved", "mark retrieved", err)
	}
	s.metrics.RecordTransition("mark-retrieved", "ok")

	s.notifier.Dispatch(ctx, notification.Compose(notification.KindDiscRetrieved, event.Counterparty(callerID), eventID, event.DiscID, now))
	return nil
}

// Abandon releases ownership of the disc and ends the recovery. Owner only.
// Ownership release and the status change commit together.
func (s *Service) Abandon(ctx context.Context, callerID id.UserID, eventID id.RecoveryEventID) error {
	ctx, span := s.tracer.Start(ctx, "recovery.Abandon")
	defer span.End()

	event, err := s.authorize(ctx, guard.OpAbandon, callerID, eventID)
	if err != nil {
		return err
	}
	if event.DiscID == nil {
		return dErrors.New(dErrors.CodePreconditionFailed, "recovery has no matched disc")
	}

	if err := s.store.AbandonDisc(ctx, eventID, *event.DiscID, callerID); err != nil {
		return s.fault("abandon-disc", "abandon disc", err)
	}
	s.metrics.RecordTransition("abandon-disc", "ok")

	s.notifier.Dispatch(ctx, notification.Compose(notification.KindDiscAbandoned, event.Counterparty(callerID), eventID, event.DiscID, requestcontext.Now(ctx)))
	return nil
}

// Surrender forfeits the disc to the finder before any exchange was arranged.
// Owner only, from FOUND.
func (s *Service) Surrender(ctx context.Context, callerID id.UserID, eventID id.RecoveryEventID) error {
	return s.transferToFinder(ctx, "recovery.Surrender", guard.OpSurrender, callerID, eventID,
		notification.KindDiscSurrendered, s.store.SurrenderDisc)
}

// Relinquish hands the disc to the finder after contact: a confirmed meetup
// or a completed drop-off. Owner only.
func (s *Service) Relinquish(ctx context.Context, callerID id.UserID, eventID id.RecoveryEventID) error {
	return s.transferToFinder(ctx, "recovery.Relinquish", guard.OpRelinquish, callerID, eventID,
		notification.KindDiscRelinquished, s.store.RelinquishDisc)
}

func (s *Service) transferToFinder(ctx context.Context, spanName string, op guard.Operation, callerID id.UserID, eventID id.RecoveryEventID, kind notification.Kind, apply func(context.Context, store.OwnershipTransfer) error) error {
	ctx, span := s.tracer.Start(ctx, spanName)
	defer span.End()

	event, err := s.authorize(ctx, op, callerID, eventID)
	if err != nil {
		return err
	}
	if event.DiscID == nil {
		return dErrors.New(dErrors.CodePreconditionFailed, "recovery has no matched disc")
	}
	disc, err := s.store.FindDisc(ctx, *event.DiscID)
	if err != nil {
		return s.fault(string(op), "load disc", err)
	}

	transfer := store.OwnershipTransfer{
		EventID:  eventID,
		DiscID:   disc.ID,
		FinderID: event.FinderID,
		OwnerID:  callerID,
		QRCodeID: disc.QRCodeID,
	}
	if err := apply(ctx, transfer); err != nil {
		return s.fault(string(op), "transfer disc", err)
	}
	s.metrics.RecordTransition(string(op), "ok")

	s.notifier.Dispatch(ctx, notification.Compose(kind, event.FinderID, eventID, event.DiscID, requestcontext.Now(ctx)))
	return nil
}

// Claim assigns an ownerless disc to the caller and closes any abandoned
// recovery events referencing it. Any authenticated user may claim; under a
// race exactly one claimant wins.
func (s *Service) Claim(ctx context.Context, callerID id.UserID, discID id.DiscID) error {
	ctx, span := s.tracer.Start(ctx, "recovery.Claim")
	defer span.End()

	closed, err := s.store.ClaimDisc(ctx, discID, callerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrPreconditionFailed) {
			s.metrics.RecordTransition("claim-disc", "lost")
			return dErrors.Wrap(err, dErrors.CodePreconditionFailed, "disc already has an owner")
		}
		return s.fault("claim-disc", "claim disc", err)
	}
	s.metrics.RecordTransition("claim-disc", "ok")
	if closed > 0 {
		s.logger.InfoContext(ctx, "closed abandoned recoveries on claim",
			"disc_id", discID.String(), "closed", closed)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Reads
// ---------------------------------------------------------------------------

// GetEvent returns a recovery event to one of its participants.
func (s *Service) GetEvent(ctx context.Context, callerID id.UserID, eventID id.RecoveryEventID) (*models.RecoveryEvent, error) {
	event, err := s.store.FindEvent(ctx, eventID)
	if err != nil {
		return nil, s.fault("get-event", "load recovery event", err)
	}
	if !event.IsParticipant(callerID) {
		return nil, dErrors.New(dErrors.CodeForbidden, "not a participant in this recovery")
	}
	return event, nil
}

// ListMine returns the caller's recovery events, as finder or owner.
func (s *Service) ListMine(ctx context.Context, callerID id.UserID) ([]*models.RecoveryEvent, error) {
	events, err := s.store.ListEventsByUser(ctx, callerID)
	if err != nil {
		return nil, s.fault("list-events", "list recovery events", err)
	}
	return events, nil
}

// ListProposals returns an event's proposals to a participant.
func (s *Service) ListProposals(ctx context.Context, callerID id.UserID, eventID id.RecoveryEventID) ([]*models.MeetupProposal, error) {
	if _, err := s.GetEvent(ctx, callerID, eventID); err != nil {
		return nil, err
	}
	proposals, err := s.store.ListProposals(ctx, eventID)
	if err != nil {
		return nil, s.fault("list-proposals", "list meetup proposals", err)
	}
	return proposals, nil
}

// GetDropOff returns an event's drop-off record to a participant.
func (s *Service) GetDropOff(ctx context.Context, callerID id.UserID, eventID id.RecoveryEventID) (*models.DropOff, error) {
	if _, err := s.GetEvent(ctx, callerID, eventID); err != nil {
		return nil, err
	}
	dropOff, err := s.store.FindDropOff(ctx, eventID)
	if err != nil {
		return nil, s.fault("get-drop-off", "load drop off", err)
	}
	return dropOff, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// authorize loads the event and evaluates the guard. The read can be stale;
// the atomic operation re-checks state, so a stale allow surfaces later as
// precondition_failed rather than partial state.
func (s *Service) authorize(ctx context.Context, op guard.Operation, callerID id.UserID, eventID id.RecoveryEventID) (*models.RecoveryEvent, error) {
	event, err := s.store.FindEvent(ctx, eventID)
	if err != nil {
		return nil, s.fault(string(op), "load recovery event", err)
	}

	decision := guard.Check(op, callerID, event)
	if !decision.Allowed {
		s.metrics.RecordDenial(string(op), string(decision.Reason))
		switch decision.Reason {
		case guard.ReasonWrongState:
			return nil, dErrors.New(dErrors.CodePreconditionFailed,
				"recovery is not in a state that allows this")
		default:
			return nil, dErrors.New(dErrors.CodeForbidden,
				"not allowed to perform this on the recovery")
		}
	}
	return event, nil
}

// fault translates sentinel outcomes into coded errors and records the
// transition outcome.
func (s *Service) fault(op, action string, err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		s.metrics.RecordTransition(op, "not_found")
		return dErrors.Wrap(err, dErrors.CodeNotFound, action+": not found")
	case errors.Is(err, sentinel.ErrConflict):
		s.metrics.RecordTransition(op, "conflict")
		return dErrors.Wrap(err, dErrors.CodeConflict, action+": conflicting recovery")
	case errors.Is(err, sentinel.ErrPreconditionFailed):
		s.metrics.RecordTransition(op, "precondition_failed")
		return dErrors.Wrap(err, dErrors.CodePreconditionFailed, action+": state changed")
	case errors.Is(err, context.DeadlineExceeded):
		s.metrics.RecordTransition(op, "timeout")
		return dErrors.Wrap(err, dErrors.CodeTimeout, action+": timed out")
	default:
		s.metrics.RecordTransition(op, "error")
		return dErrors.Wrap(err, dErrors.CodeInternal, action+" failed")
	}
}
