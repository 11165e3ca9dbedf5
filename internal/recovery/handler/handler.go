package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"discrescue/internal/platform/middleware"
	"discrescue/internal/recovery/models"
	"discrescue/internal/recovery/service"
	id "discrescue/pkg/domain"
	dErrors "discrescue/pkg/domain-errors"
	"discrescue/pkg/platform/httputil"
	"discrescue/pkg/requestcontext"
)

// Service defines the interface for recovery operations.
type Service interface {
	ReportFound(ctx context.Context, finderID id.UserID, in service.ReportFoundInput) (*models.RecoveryEvent, error)
	ProposeMeetup(ctx context.Context, callerID id.UserID, eventID id.RecoveryEventID, in service.ProposeMeetupInput) (*models.MeetupProposal, error)
	AcceptMeetup(ctx context.Context, callerID id.UserID, eventID id.RecoveryEventID, proposalID id.MeetupProposalID) error
	CreateDropOff(ctx context.Context, callerID id.UserID, eventID id.RecoveryEventID, in service.CreateDropOffInput) (*models.DropOff, error)
	CompleteRecovery(ctx context.Context, callerID id.UserID, eventID id.RecoveryEventID) error
	MarkRetrieved(ctx context.Context, callerID id.UserID, eventID id.RecoveryEventID) error
	Abandon(ctx context.Context, callerID id.UserID, eventID id.RecoveryEventID) error
	Surrender(ctx context.Context, callerID id.UserID, eventID id.RecoveryEventID) error
	Relinquish(ctx context.Context, callerID id.UserID, eventID id.RecoveryEventID) error
	Claim(ctx context.Context, callerID id.UserID, discID id.DiscID) error
	GetEvent(ctx context.Context, callerID id.UserID, eventID id.RecoveryEventID) (*models.RecoveryEvent, error)
	ListMine(ctx context.Context, callerID id.UserID) ([]*models.RecoveryEvent, error)
	ListProposals(ctx context.Context, callerID id.UserID, eventID id.RecoveryEventID) ([]*models.MeetupProposal, error)
	GetDropOff(ctx context.Context, callerID id.UserID, eventID id.RecoveryEventID) (*models.DropOff, error)
}

// Handler wires recovery endpoints to the recovery service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a recovery handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts recovery endpoints on the router. The router is expected to
// already carry the auth middleware.
func (h *Handler) Register(r chi.Router) {
	r.Post("/recoveries", h.HandleReportFound)
	r.Get("/recoveries", h.HandleListMine)
	r.Get("/recoveries/{eventID}", h.HandleGetEvent)
	r.Post("/recoveries/{eventID}/meetups", h.HandleProposeMeetup)
	r.Get("/recoveries/{eventID}/meetups", h.HandleListProposals)
	r.Post("/recoveries/{eventID}/meetups/{proposalID}/accept", h.HandleAcceptMeetup)
	r.Post("/recoveries/{eventID}/dropoff", h.HandleCreateDropOff)
	r.Get("/recoveries/{eventID}/dropoff", h.HandleGetDropOff)
	r.Post("/recoveries/{eventID}/complete", h.HandleCompleteRecovery)
	r.Post("/recoveries/{eventID}/retrieve", h.HandleMarkRetrieved)
	r.Post("/recoveries/{eventID}/abandon", h.HandleAbandon)
	r.Post("/recoveries/{eventID}/surrender", h.HandleSurrender)
	r.Post("/recoveries/{eventID}/relinquish", h.HandleRelinquish)
	r.Post("/discs/{discID}/claim", h.HandleClaim)
}

// caller extracts the authenticated user from the request context.
func caller(w http.ResponseWriter, r *http.Request) (id.UserID, bool) {
	raw := middleware.GetUserID(r.Context())
	if raw == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return id.UserID{}, false
	}
	userID, err := id.ParseUserID(raw)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid caller identity"))
		return id.UserID{}, false
	}
	return userID, true
}

func eventIDParam(w http.ResponseWriter, r *http.Request) (id.RecoveryEventID, bool) {
	eventID, err := id.ParseRecoveryEventID(chi.URLParam(r, "eventID"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.RecoveryEventID{}, false
	}
	return eventID, true
}

// HandleReportFound handles POST /recoveries requests.
func (h *Handler) HandleReportFound(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	finderID, ok := caller(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[ReportFoundRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	event, err := h.service.ReportFound(ctx, finderID, service.ReportFoundInput{
		DiscID:  req.ParsedDiscID(),
		Message: req.Message,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "report found failed",
			"request_id", requestID,
			"finder_id", finderID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "disc reported found",
		"request_id", requestID,
		"event_id", event.ID.String(),
		"finder_id", finderID.String(),
		"matched", event.DiscID != nil,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, FromEvent(event))
}

// HandleListMine handles GET /recoveries requests.
func (h *Handler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := caller(w, r)
	if !ok {
		return
	}

	events, err := h.service.ListMine(ctx, userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromEvents(events))
}

// HandleGetEvent handles GET /recoveries/{eventID} requests.
func (h *Handler) HandleGetEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := caller(w, r)
	if !ok {
		return
	}
	eventID, ok := eventIDParam(w, r)
	if !ok {
		return
	}

	event, err := h.service.GetEvent(ctx, userID, eventID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromEvent(event))
}

// HandleProposeMeetup handles POST /recoveries/{eventID}/meetups requests.
func (h *Handler) HandleProposeMeetup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	userID, ok := caller(w, r)
	if !ok {
		return
	}
	eventID, ok := eventIDParam(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[ProposeMeetupRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	proposal, err := h.service.ProposeMeetup(ctx, userID, eventID, service.ProposeMeetupInput{
		Location:    req.Location,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		ProposedFor: req.ProposedFor,
		Message:     req.Message,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "propose meetup failed",
			"request_id", requestID,
			"event_id", eventID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromProposal(proposal))
}

// HandleListProposals handles GET /recoveries/{eventID}/meetups requests.
func (h *Handler) HandleListProposals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := caller(w, r)
	if !ok {
		return
	}
	eventID, ok := eventIDParam(w, r)
	if !ok {
		return
	}

	proposals, err := h.service.ListProposals(ctx, userID, eventID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromProposals(proposals))
}

// HandleAcceptMeetup handles POST /recoveries/{eventID}/meetups/{proposalID}/accept requests.
func (h *Handler) HandleAcceptMeetup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := caller(w, r)
	if !ok {
		return
	}
	eventID, ok := eventIDParam(w, r)
	if !ok {
		return
	}
	proposalID, err := id.ParseMeetupProposalID(chi.URLParam(r, "proposalID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.AcceptMeetup(ctx, userID, eventID, proposalID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": string(models.StatusMeetupConfirmed)})
}

// HandleCreateDropOff handles POST /recoveries/{eventID}/dropoff requests.
func (h *Handler) HandleCreateDropOff(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	userID, ok := caller(w, r)
	if !ok {
		return
	}
	eventID, ok := eventIDParam(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[CreateDropOffRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	dropOff, err := h.service.CreateDropOff(ctx, userID, eventID, service.CreateDropOffInput{
		Location:  req.Location,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		PhotoPath: req.PhotoPath,
		Note:      req.Note,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "create drop off failed",
			"request_id", requestID,
			"event_id", eventID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromDropOff(dropOff))
}

// HandleGetDropOff handles GET /recoveries/{eventID}/dropoff requests.
func (h *Handler) HandleGetDropOff(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := caller(w, r)
	if !ok {
		return
	}
	eventID, ok := eventIDParam(w, r)
	if !ok {
		return
	}

	dropOff, err := h.service.GetDropOff(ctx, userID, eventID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromDropOff(dropOff))
}

// transition runs one of the body-less status transitions and reports the
// resulting status.
func (h *Handler) transition(w http.ResponseWriter, r *http.Request, apply func(context.Context, id.UserID, id.RecoveryEventID) error, result models.Status) {
	ctx := r.Context()
	userID, ok := caller(w, r)
	if !ok {
		return
	}
	eventID, ok := eventIDParam(w, r)
	if !ok {
		return
	}

	if err := apply(ctx, userID, eventID); err != nil {
		h.logger.ErrorContext(ctx, "recovery transition failed",
			"request_id", requestcontext.RequestID(ctx),
			"event_id", eventID.String(),
			"target_status", string(result),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": string(result)})
}

// HandleCompleteRecovery handles POST /recoveries/{eventID}/complete requests.
func (h *Handler) HandleCompleteRecovery(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.CompleteRecovery, models.StatusRecovered)
}

// HandleMarkRetrieved handles POST /recoveries/{eventID}/retrieve requests.
func (h *Handler) HandleMarkRetrieved(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.MarkRetrieved, models.StatusRecovered)
}

// HandleAbandon handles POST /recoveries/{eventID}/abandon requests.
func (h *Handler) HandleAbandon(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Abandon, models.StatusAbandoned)
}

// HandleSurrender handles POST /recoveries/{eventID}/surrender requests.
func (h *Handler) HandleSurrender(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Surrender, models.StatusSurrendered)
}

// HandleRelinquish handles POST /recoveries/{eventID}/relinquish requests.
func (h *Handler) HandleRelinquish(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Relinquish, models.StatusRelinquished)
}

// HandleClaim handles POST /discs/{discID}/claim requests.
func (h *Handler) HandleClaim(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := caller(w, r)
	if !ok {
		return
	}
	discID, err := id.ParseDiscID(chi.URLParam(r, "discID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.Claim(ctx, userID, discID); err != nil {
		h.logger.ErrorContext(ctx, "claim disc failed",
			"request_id", requestcontext.RequestID(ctx),
			"disc_id", discID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "claimed"})
}
