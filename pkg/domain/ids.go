// Package domain defines the typed identifiers shared across the recovery
// core. Each entity gets its own UUID-backed type so a DiscID can never be
// passed where a UserID is expected.
package domain

import (
	"github.com/google/uuid"

	dErrors "discrescue/pkg/domain-errors"
)

type (
	// UserID identifies a registered profile (owner or finder).
	UserID uuid.UUID
	// DiscID identifies a physical disc.
	DiscID uuid.UUID
	// RecoveryEventID identifies one attempt to reunite a disc with its owner.
	RecoveryEventID uuid.UUID
	// MeetupProposalID identifies a proposed in-person exchange.
	MeetupProposalID uuid.UUID
	// DropOffID identifies an unattended hand-off record.
	DropOffID uuid.UUID
	// QRCodeID identifies an identity tag that may be bound to a disc.
	QRCodeID uuid.UUID
	// NotificationID identifies a persisted in-app notification.
	NotificationID uuid.UUID
)

func (id UserID) String() string           { return uuid.UUID(id).String() }
func (id DiscID) String() string           { return uuid.UUID(id).String() }
func (id RecoveryEventID) String() string  { return uuid.UUID(id).String() }
func (id MeetupProposalID) String() string { return uuid.UUID(id).String() }
func (id DropOffID) String() string        { return uuid.UUID(id).String() }
func (id QRCodeID) String() string         { return uuid.UUID(id).String() }
func (id NotificationID) String() string   { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool           { return uuid.UUID(id) == uuid.Nil }
func (id DiscID) IsNil() bool           { return uuid.UUID(id) == uuid.Nil }
func (id RecoveryEventID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id MeetupProposalID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id DropOffID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id QRCodeID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id NotificationID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }

func NewUserID() UserID                     { return UserID(uuid.New()) }
func NewDiscID() DiscID                     { return DiscID(uuid.New()) }
func NewRecoveryEventID() RecoveryEventID   { return RecoveryEventID(uuid.New()) }
func NewMeetupProposalID() MeetupProposalID { return MeetupProposalID(uuid.New()) }
func NewDropOffID() DropOffID               { return DropOffID(uuid.New()) }
func NewQRCodeID() QRCodeID                 { return QRCodeID(uuid.New()) }
func NewNotificationID() NotificationID     { return NotificationID(uuid.New()) }

// parseUUID enforces the trust-boundary invariant: IDs must be valid,
// non-empty, non-nil UUIDs.
func parseUUID(raw, kind string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" is required")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid "+kind)
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" must not be the nil UUID")
	}
	return parsed, nil
}

func ParseUserID(raw string) (UserID, error) {
	parsed, err := parseUUID(raw, "user id")
	return UserID(parsed), err
}

func ParseDiscID(raw string) (DiscID, error) {
	parsed, err := parseUUID(raw, "disc id")
	return DiscID(parsed), err
}

func ParseRecoveryEventID(raw string) (RecoveryEventID, error) {
	parsed, err := parseUUID(raw, "recovery event id")
	return RecoveryEventID(parsed), err
}

func ParseMeetupProposalID(raw string) (MeetupProposalID, error) {
	parsed, err := parseUUID(raw, "meetup proposal id")
	return MeetupProposalID(parsed), err
}

func ParseQRCodeID(raw string) (QRCodeID, error) {
	parsed, err := parseUUID(raw, "qr code id")
	return QRCodeID(parsed), err
}

func ParseNotificationID(raw string) (NotificationID, error) {
	parsed, err := parseUUID(raw, "notification id")
	return NotificationID(parsed), err
}
