// Package handler exposes the user-facing notification surface over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	notifyModel "lexwatch/internal/notify/models"
	"lexwatch/internal/platform/middleware"
	"lexwatch/internal/transport/http/shared"
	"lexwatch/pkg/domain"
	dErrors "lexwatch/pkg/domain-errors"
)

// Service defines the notification operations the handler needs.
type Service interface {
	ListByUser(ctx context.Context, userID domain.UserID) ([]notifyModel.Notification, error)
	MarkRead(ctx context.Context, userID domain.UserID, id domain.NotificationID) error
}

// Handler handles notification endpoints.
type Handler struct {
	logger        *slog.Logger
	notifications Service
	jwtValidator  middleware.JWTValidator
}

// New creates a notification Handler.
func New(notifications Service, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:        logger,
		notifications: notifications,
		jwtValidator:  jwtValidator,
	}
}

// Register registers the notification routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/notifications", func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		r.Get("/", h.handleList)
		r.Post("/{id}/read", h.handleMarkRead)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.authedUser(w, r)
	if !ok {
		return
	}

	notifications, err := h.notifications.ListByUser(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list notifications",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}
	if notifications == nil {
		notifications = []notifyModel.Notification{}
	}
	shared.WriteJSON(w, http.StatusOK, notifications)
}

func (h *Handler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.authedUser(w, r)
	if !ok {
		return
	}

	notificationID, err := domain.ParseNotificationID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	if err := h.notifications.MarkRead(ctx, userID, notificationID); err != nil {
		h.logger.WarnContext(ctx, "failed to mark notification read",
			"request_id", middleware.GetRequestID(ctx),
			"notification_id", notificationID.String(),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) authedUser(w http.ResponseWriter, r *http.Request) (domain.UserID, bool) {
	ctx := r.Context()
	raw := middleware.GetUserID(ctx)
	if raw == "" {
		h.logger.ErrorContext(ctx, "userID missing from context despite auth middleware",
			"request_id", middleware.GetRequestID(ctx),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return domain.UserID{}, false
	}
	userID, err := domain.ParseUserID(raw)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "malformed user identity"))
		return domain.UserID{}, false
	}
	return userID, true
}
