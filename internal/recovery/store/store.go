// Package store owns the RecoveryEvent/MeetupProposal/DropOff rows and
// Disc.owner_id. All writes to those rows go through the transition
// operations here; no other component mutates them.
//
// Every transition operation executes as a single all-or-nothing unit and
// re-checks its precondition inside that unit, closing the check-then-act
// window between concurrent callers. Stores report outcomes with
// pkg/platform/sentinel errors: ErrNotFound, ErrConflict, and
// ErrPreconditionFailed are expected domain facts; anything else is a
// storage fault that left no partial state behind.
package store

import (
	"context"
	"time"

	discmodels "discrescue/internal/disc/models"
	"discrescue/internal/notification"
	"discrescue/internal/recovery/models"
	id "discrescue/pkg/domain"
)

// OwnershipTransfer carries the rows a surrender or relinquish touches in one
// unit. OwnerID is the compare-and-swap expectation for Disc.owner_id.
type OwnershipTransfer struct {
	EventID  id.RecoveryEventID
	DiscID   id.DiscID
	FinderID id.UserID
	OwnerID  id.UserID
	QRCodeID *id.QRCodeID
}

// Store exposes read accessors and the atomic transition operations.
type Store interface {
	// Reads. Unsynchronized; callers treat results as possibly stale.
	FindDisc(ctx context.Context, discID id.DiscID) (*discmodels.Disc, error)
	FindEvent(ctx context.Context, eventID id.RecoveryEventID) (*models.RecoveryEvent, error)
	FindActiveEventByDisc(ctx context.Context, discID id.DiscID) (*models.RecoveryEvent, error)
	ListEventsByUser(ctx context.Context, userID id.UserID) ([]*models.RecoveryEvent, error)
	ListProposals(ctx context.Context, eventID id.RecoveryEventID) ([]*models.MeetupProposal, error)
	FindDropOff(ctx context.Context, eventID id.RecoveryEventID) (*models.DropOff, error)

	// CreateFoundEvent inserts the event and, when a target owner exists, the
	// in-app notification record in the same unit. Rejects with ErrConflict
	// when the disc already has an active recovery, and with
	// ErrPreconditionFailed when the disc's owner no longer matches.
	CreateFoundEvent(ctx context.Context, event *models.RecoveryEvent, note *notification.Notification) error

	// ProposeMeetup declines all open proposals for the event, inserts the new
	// pending proposal, and moves the event to MEETUP_PROPOSED. Returns how
	// many proposals were declined.
	ProposeMeetup(ctx context.Context, proposal *models.MeetupProposal) (declined int, err error)

	// AcceptMeetup marks the pending proposal accepted and the event
	// MEETUP_CONFIRMED.
	AcceptMeetup(ctx context.Context, eventID id.RecoveryEventID, proposalID id.MeetupProposalID) error

	// CreateDropOff inserts the drop-off record and moves the event to
	// DROPPED_OFF.
	CreateDropOff(ctx context.Context, dropOff *models.DropOff) error

	// CompleteRecovery closes a confirmed meetup: event RECOVERED,
	// recovered_at set, the accepted proposal marked completed.
	CompleteRecovery(ctx context.Context, eventID id.RecoveryEventID, at time.Time) error

	// MarkRetrieved confirms a drop-off pickup: retrieved_at set on the
	// drop-off and the event RECOVERED.
	MarkRetrieved(ctx context.Context, eventID id.RecoveryEventID, at time.Time) error

	// AbandonDisc sets the event ABANDONED and Disc.owner_id to NULL in one
	// unit; either both happen or neither.
	AbandonDisc(ctx context.Context, eventID id.RecoveryEventID, discID id.DiscID, ownerID id.UserID) error

	// ClaimDisc assigns an ownerless disc to the claimant and closes any
	// abandoned events referencing it. Under concurrent claims only the first
	// to commit against the owner-is-null predicate succeeds; losers get
	// ErrPreconditionFailed. Returns how many events were closed.
	ClaimDisc(ctx context.Context, discID id.DiscID, newOwnerID id.UserID) (closed int, err error)

	// SurrenderDisc and RelinquishDisc transfer Disc.owner_id to the finder,
	// set the terminal status, and reassign a bound QR code, all in one unit.
	SurrenderDisc(ctx context.Context, transfer OwnershipTransfer) error
	RelinquishDisc(ctx context.Context, transfer OwnershipTransfer) error
}
