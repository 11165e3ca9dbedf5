package models

import (
	"time"

	id "discrescue/pkg/domain"
)

// Disc is a physical object with an identity. A nil OwnerID means the disc is
// ownerless (abandoned). Ownership is mutated only by the recovery store's
// transition operations, never by direct update from other code paths.
type Disc struct {
	ID       id.DiscID
	OwnerID  *id.UserID
	QRCodeID *id.QRCodeID
	Name     string
	Brand    string
	Color    string
	// RewardAmount is an optional bounty in cents offered for return.
	RewardAmount *int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Ownerless reports whether the disc currently has no registered owner.
func (d *Disc) Ownerless() bool { return d.OwnerID == nil }

// OwnedBy reports whether the given user is the current owner.
func (d *Disc) OwnedBy(userID id.UserID) bool {
	return d.OwnerID != nil && *d.OwnerID == userID
}

// QRCode is an identity tag that may be bound to a disc. Surrender and
// relinquish reassign it to the new owner together with the disc.
type QRCode struct {
	ID        id.QRCodeID
	Code      string
	DiscID    *id.DiscID
	OwnerID   *id.UserID
	CreatedAt time.Time
	UpdatedAt time.Time
}
