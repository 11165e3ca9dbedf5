package models

import (
	"time"

	id "discrescue/pkg/domain"
)

// Status is the recovery event state-machine tag.
//
// The status vocabulary is normalized: "recovered" is the single terminal for
// "owner has the disc back", whether the hand-off happened at a meetup or via
// a drop-off pickup.
type Status string

const (
	// StatusFound is the initial status after a finder reports a disc.
	StatusFound Status = "found"
	// StatusMeetupProposed means at least one meetup proposal is pending.
	StatusMeetupProposed Status = "meetup_proposed"
	// StatusMeetupConfirmed means the owner accepted a proposal.
	StatusMeetupConfirmed Status = "meetup_confirmed"
	// StatusDroppedOff means the finder left the disc at a location.
	StatusDroppedOff Status = "dropped_off"
	// StatusRecovered is terminal: the owner has the disc back.
	StatusRecovered Status = "recovered"
	// StatusAbandoned is terminal: the owner released ownership.
	StatusAbandoned Status = "abandoned"
	// StatusSurrendered is terminal: the owner forfeited the disc to the finder.
	StatusSurrendered Status = "surrendered"
	// StatusRelinquished is terminal: the owner handed the disc to the finder
	// after contact.
	StatusRelinquished Status = "relinquished"
	// StatusClosed finalizes an abandoned event once someone claims the disc.
	StatusClosed Status = "closed"
)

// ActiveStatuses are the non-terminal statuses. At most one recovery event per
// disc may hold one of these at any time.
func ActiveStatuses() []Status {
	return []Status{StatusFound, StatusMeetupProposed, StatusMeetupConfirmed, StatusDroppedOff}
}

// IsTerminal reports whether the status ends the state machine. A terminal
// event is logically immutable.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusRecovered, StatusAbandoned, StatusSurrendered, StatusRelinquished, StatusClosed:
		return true
	}
	return false
}

// IsActive reports whether the status keeps the recovery open.
func (s Status) IsActive() bool { return !s.IsTerminal() }

// RecoveryEvent is one attempt to reunite a disc with its owner. DiscID is
// nil when a finder reports a disc that has not been matched to a registered
// one yet; OwnerID is the zero UserID in that case.
type RecoveryEvent struct {
	ID            id.RecoveryEventID
	DiscID        *id.DiscID
	FinderID      id.UserID
	OwnerID       id.UserID
	Status        Status
	FinderMessage string
	FoundAt       time.Time
	RecoveredAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsParticipant reports whether the user is the owner or the finder.
func (e *RecoveryEvent) IsParticipant(userID id.UserID) bool {
	return userID == e.FinderID || (!e.OwnerID.IsNil() && userID == e.OwnerID)
}

// Counterparty returns the other participant relative to the actor. The zero
// UserID comes back when the event has no matched owner yet.
func (e *RecoveryEvent) Counterparty(actor id.UserID) id.UserID {
	if actor == e.FinderID {
		return e.OwnerID
	}
	return e.FinderID
}

// ProposalStatus is the meetup proposal sub-state.
type ProposalStatus string

const (
	ProposalStatusPending   ProposalStatus = "pending"
	ProposalStatusAccepted  ProposalStatus = "accepted"
	ProposalStatusDeclined  ProposalStatus = "declined"
	ProposalStatusCompleted ProposalStatus = "completed"
)

// Open reports whether the proposal still counts against the one-open-proposal
// invariant.
func (s ProposalStatus) Open() bool {
	return s == ProposalStatusPending || s == ProposalStatusAccepted
}

// MeetupProposal is a proposed place/time for an in-person exchange, scoped to
// one recovery event.
type MeetupProposal struct {
	ID              id.MeetupProposalID
	RecoveryEventID id.RecoveryEventID
	ProposedBy      id.UserID
	Location        string
	Latitude        *float64
	Longitude       *float64
	ProposedFor     time.Time
	Message         string
	Status          ProposalStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// DropOff is an unattended exchange: the finder leaves the disc at a location
// with photo/GPS evidence. 1:1 with a recovery event; RetrievedAt is set once
// on pickup confirmation.
type DropOff struct {
	ID              id.DropOffID
	RecoveryEventID id.RecoveryEventID
	Location        string
	Latitude        *float64
	Longitude       *float64
	PhotoPath       string
	Note            string
	DroppedAt       time.Time
	RetrievedAt     *time.Time
	CreatedAt       time.Time
}
