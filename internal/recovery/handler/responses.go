package handler

import (
	"time"

	"discrescue/internal/recovery/models"
)

// EventResponse is the HTTP representation of a recovery event.
type EventResponse struct {
	ID            string     `json:"id"`
	DiscID        *string    `json:"disc_id,omitempty"`
	FinderID      string     `json:"finder_id"`
	OwnerID       *string    `json:"owner_id,omitempty"`
	Status        string     `json:"status"`
	FinderMessage string     `json:"finder_message,omitempty"`
	FoundAt       time.Time  `json:"found_at"`
	RecoveredAt   *time.Time `json:"recovered_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// FromEvent converts a domain RecoveryEvent to an HTTP response.
func FromEvent(e *models.RecoveryEvent) *EventResponse {
	resp := &EventResponse{
		ID:            e.ID.String(),
		FinderID:      e.FinderID.String(),
		Status:        string(e.Status),
		FinderMessage: e.FinderMessage,
		FoundAt:       e.FoundAt,
		RecoveredAt:   e.RecoveredAt,
		CreatedAt:     e.CreatedAt,
	}
	if e.DiscID != nil {
		s := e.DiscID.String()
		resp.DiscID = &s
	}
	if !e.OwnerID.IsNil() {
		s := e.OwnerID.String()
		resp.OwnerID = &s
	}
	return resp
}

// FromEvents converts a list of events.
func FromEvents(events []*models.RecoveryEvent) []*EventResponse {
	out := make([]*EventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, FromEvent(e))
	}
	return out
}

// ProposalResponse is the HTTP representation of a meetup proposal.
type ProposalResponse struct {
	ID          string    `json:"id"`
	EventID     string    `json:"recovery_event_id"`
	ProposedBy  string    `json:"proposed_by"`
	Location    string    `json:"location"`
	Latitude    *float64  `json:"latitude,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty"`
	ProposedFor time.Time `json:"proposed_for"`
	Message     string    `json:"message,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// FromProposal converts a domain MeetupProposal to an HTTP response.
func FromProposal(p *models.MeetupProposal) *ProposalResponse {
	return &ProposalResponse{
		ID:          p.ID.String(),
		EventID:     p.RecoveryEventID.String(),
		ProposedBy:  p.ProposedBy.String(),
		Location:    p.Location,
		Latitude:    p.Latitude,
		Longitude:   p.Longitude,
		ProposedFor: p.ProposedFor,
		Message:     p.Message,
		Status:      string(p.Status),
		CreatedAt:   p.CreatedAt,
	}
}

// FromProposals converts a list of proposals.
func FromProposals(proposals []*models.MeetupProposal) []*ProposalResponse {
	out := make([]*ProposalResponse, 0, len(proposals))
	for _, p := range proposals {
		out = append(out, FromProposal(p))
	}
	return out
}

// DropOffResponse is the HTTP representation of a drop-off record.
type DropOffResponse struct {
	ID          string     `json:"id"`
	EventID     string     `json:"recovery_event_id"`
	Location    string     `json:"location"`
	Latitude    *float64   `json:"latitude,omitempty"`
	Longitude   *float64   `json:"longitude,omitempty"`
	PhotoPath   string     `json:"photo_path,omitempty"`
	Note        string     `json:"note,omitempty"`
	DroppedAt   time.Time  `json:"dropped_at"`
	RetrievedAt *time.Time `json:"retrieved_at,omitempty"`
}

// FromDropOff converts a domain DropOff to an HTTP response.
func FromDropOff(d *models.DropOff) *DropOffResponse {
	return &DropOffResponse{
		ID:          d.ID.String(),
		EventID:     d.RecoveryEventID.String(),
		Location:    d.Location,
		Latitude:    d.Latitude,
		Longitude:   d.Longitude,
		PhotoPath:   d.PhotoPath,
		Note:        d.Note,
		DroppedAt:   d.DroppedAt,
		RetrievedAt: d.RetrievedAt,
	}
}
