package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"discrescue/internal/notification"
	"discrescue/internal/platform/middleware"
	id "discrescue/pkg/domain"
	dErrors "discrescue/pkg/domain-errors"
	"discrescue/pkg/platform/httputil"
)

// Service defines the interface for inbox operations.
type Service interface {
	List(ctx context.Context, userID id.UserID) ([]*notification.Notification, error)
	MarkRead(ctx context.Context, notificationID id.NotificationID, userID id.UserID) error
}

// Handler wires inbox endpoints to the notification service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a notification handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts inbox endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/notifications", h.HandleList)
	r.Post("/notifications/{notificationID}/read", h.HandleMarkRead)
}

// NotificationResponse is the HTTP representation of an inbox record.
type NotificationResponse struct {
	ID        string               `json:"id"`
	Title     string               `json:"title"`
	Body      string               `json:"body"`
	Payload   notification.Payload `json:"payload"`
	ReadAt    *time.Time           `json:"read_at,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
}

func fromNotification(n *notification.Notification) *NotificationResponse {
	return &NotificationResponse{
		ID:        n.ID.String(),
		Title:     n.Title,
		Body:      n.Body,
		Payload:   n.Payload,
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
}

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

// HandleList handles GET /notifications requests.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := caller(w, r)
	if !ok {
		return
	}

	records, err := h.service.List(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "list notifications failed",
			"user_id", userID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	out := make([]*NotificationResponse, 0, len(records))
	for _, n := range records {
		out = append(out, fromNotification(n))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

// HandleMarkRead handles POST /notifications/{notificationID}/read requests.
func (h *Handler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := caller(w, r)
	if !ok {
		return
	}
	notificationID, err := id.ParseNotificationID(chi.URLParam(r, "notificationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.MarkRead(ctx, notificationID, userID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "read"})
}
