package handler

import (
	"strings"
	"time"

	id "discrescue/pkg/domain"
	dErrors "discrescue/pkg/domain-errors"
)

// ReportFoundRequest is the HTTP request body for POST /recoveries.
type ReportFoundRequest struct {
	DiscID  string `json:"disc_id,omitempty"`
	Message string `json:"message,omitempty"`

	// Parsed values (populated by Validate)
	parsedDiscID *id.DiscID
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *ReportFoundRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	r.Message = strings.TrimSpace(r.Message)
	if len(r.Message) > 1000 {
		return dErrors.New(dErrors.CodeInvalidInput, "message must be at most 1000 characters")
	}

	r.DiscID = strings.TrimSpace(r.DiscID)
	if r.DiscID != "" {
		discID, err := id.ParseDiscID(r.DiscID)
		if err != nil {
			return err
		}
		r.parsedDiscID = &discID
	}
	return nil
}

// ParsedDiscID returns the validated disc id, nil for an unmatched report.
func (r *ReportFoundRequest) ParsedDiscID() *id.DiscID {
	return r.parsedDiscID
}

// ProposeMeetupRequest is the HTTP request body for POST
// /recoveries/{eventID}/meetups.
type ProposeMeetupRequest struct {
	Location    string    `json:"location"`
	Latitude    *float64  `json:"latitude,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty"`
	ProposedFor time.Time `json:"proposed_for"`
	Message     string    `json:"message,omitempty"`
}

func (r *ProposeMeetupRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	r.Location = strings.TrimSpace(r.Location)
	if r.Location == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "location is required")
	}
	if len(r.Location) > 500 {
		return dErrors.New(dErrors.CodeInvalidInput, "location must be at most 500 characters")
	}
	if r.ProposedFor.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "proposed_for is required")
	}
	if (r.Latitude == nil) != (r.Longitude == nil) {
		return dErrors.New(dErrors.CodeInvalidInput, "latitude and longitude must be set together")
	}
	if r.Latitude != nil {
		if *r.Latitude < -90 || *r.Latitude > 90 {
			return dErrors.New(dErrors.CodeInvalidInput, "latitude must be between -90 and 90")
		}
		if *r.Longitude < -180 || *r.Longitude > 180 {
			return dErrors.New(dErrors.CodeInvalidInput, "longitude must be between -180 and 180")
		}
	}
	return nil
}

// CreateDropOffRequest is the HTTP request body for POST
// /recoveries/{eventID}/dropoff.
type CreateDropOffRequest struct {
	Location  string   `json:"location"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	PhotoPath string   `json:"photo_path,omitempty"`
	Note      string   `json:"note,omitempty"`
}

func (r *CreateDropOffRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	r.Location = strings.TrimSpace(r.Location)
	if r.Location == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "location is required")
	}
	if len(r.Location) > 500 {
		return dErrors.New(dErrors.CodeInvalidInput, "location must be at most 500 characters")
	}
	if (r.Latitude == nil) != (r.Longitude == nil) {
		return dErrors.New(dErrors.CodeInvalidInput, "latitude and longitude must be set together")
	}
	return nil
}
