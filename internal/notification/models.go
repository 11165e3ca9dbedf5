package notification

import (
	"time"

	id "discrescue/pkg/domain"
)

// Kind names the transition a notification announces. Exactly one composition
// exists per kind; the target is always the counterparty of the actor who
// triggered the transition.
type Kind string

const (
	KindDiscFound        Kind = "disc_found"
	KindMeetupProposed   Kind = "meetup_proposed"
	KindMeetupAccepted   Kind = "meetup_accepted"
	KindDropOffCreated   Kind = "drop_off_created"
	KindRecoveryComplete Kind = "recovery_complete"
	KindDiscRetrieved    Kind = "disc_retrieved"
	KindDiscAbandoned    Kind = "disc_abandoned"
	KindDiscSurrendered  Kind = "disc_surrendered"
	KindDiscRelinquished Kind = "disc_relinquished"
)

// Payload is the structured reference attached to every notification so
// clients can deep-link into the recovery.
type Payload struct {
	Kind            Kind                 `json:"kind"`
	RecoveryEventID id.RecoveryEventID   `json:"recovery_event_id"`
	DiscID          *id.DiscID           `json:"disc_id,omitempty"`
	ProposalID      *id.MeetupProposalID `json:"proposal_id,omitempty"`
}

// Notification is the persisted in-app record. Push delivery reuses the same
// title/body/payload.
type Notification struct {
	ID        id.NotificationID
	UserID    id.UserID
	Title     string
	Body      string
	Payload   Payload
	ReadAt    *time.Time
	CreatedAt time.Time
}

// compositions maps each transition kind to its single title/body pair.
var compositions = map[Kind]struct {
	title string
	body  string
}{
	KindDiscFound:        {"Your disc was found!", "A finder reported one of your discs. Open the recovery to get in touch."},
	KindMeetupProposed:   {"Meetup proposed", "A meetup was proposed for your disc recovery. Review the time and place."},
	KindMeetupAccepted:   {"Meetup confirmed", "The owner accepted the meetup proposal. See you there."},
	KindDropOffCreated:   {"Disc dropped off", "The finder left your disc at a drop-off location with photo evidence."},
	KindRecoveryComplete: {"Recovery complete", "The disc is back with its owner. Thanks for closing the loop."},
	KindDiscRetrieved:    {"Drop-off picked up", "The owner confirmed picking up the disc from the drop-off."},
	KindDiscAbandoned:    {"Disc abandoned", "The owner released the disc. You may claim it."},
	KindDiscSurrendered:  {"Disc is yours", "The owner surrendered the disc to you. It is now registered under your profile."},
	KindDiscRelinquished: {"Disc is yours", "The owner handed the disc over to you. It is now registered under your profile."},
}

// Compose builds the notification for one transition outcome. Pure; the
// dispatcher (or the report-found atomic unit) persists the result.
func Compose(kind Kind, target id.UserID, eventID id.RecoveryEventID, discID *id.DiscID, at time.Time) *Notification {
	c := compositions[kind]
	return &Notification{
		ID:     id.NewNotificationID(),
		UserID: target,
		Title:  c.title,
		Body:   c.body,
		Payload: Payload{
			Kind:            kind,
			RecoveryEventID: eventID,
			DiscID:          discID,
		},
		CreatedAt: at,
	}
}
