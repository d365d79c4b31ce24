// Package handler exposes monitoring configuration management over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	monitoringModel "lexwatch/internal/monitoring/models"
	"lexwatch/internal/platform/middleware"
	scanmodels "lexwatch/internal/scan/models"
	"lexwatch/internal/transport/http/shared"
	"lexwatch/pkg/domain"
	dErrors "lexwatch/pkg/domain-errors"
)

// Service defines the monitoring configuration operations the handler needs.
type Service interface {
	Create(ctx context.Context, userID domain.UserID, cfg monitoringModel.Configuration) (*monitoringModel.Configuration, error)
	ListByUser(ctx context.Context, userID domain.UserID) ([]monitoringModel.Configuration, error)
	Update(ctx context.Context, userID domain.UserID, cfg monitoringModel.Configuration) (*monitoringModel.Configuration, error)
}

// Handler handles monitoring configuration endpoints.
type Handler struct {
	logger       *slog.Logger
	monitoring   Service
	jwtValidator middleware.JWTValidator
}

// New creates a monitoring Handler.
func New(monitoring Service, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		monitoring:   monitoring,
		jwtValidator: jwtValidator,
	}
}

// Register registers the monitoring routes with the chi router. All routes
// are user-scoped and require authentication.
func (h *Handler) Register(r chi.Router) {
	r.Route("/monitoring/configs", func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Put("/{id}", h.handleUpdate)
	})
}

type configRequest struct {
	ChangeTypes []string                  `json:"changeTypes"`
	Categories  []string                  `json:"categories"`
	Threshold   monitoringModel.Threshold `json:"threshold"`
	Active      *bool                     `json:"active,omitempty"`
}

func (req configRequest) toModel() monitoringModel.Configuration {
	cfg := monitoringModel.Configuration{
		Categories: req.Categories,
		Threshold:  req.Threshold,
	}
	for _, ct := range req.ChangeTypes {
		cfg.ChangeTypes = append(cfg.ChangeTypes, scanmodels.ChangeType(ct))
	}
	if req.Active != nil {
		cfg.Active = *req.Active
	}
	return cfg
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.authedUser(w, r)
	if !ok {
		return
	}

	configs, err := h.monitoring.ListByUser(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list monitoring configurations",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}
	if configs == nil {
		configs = []monitoringModel.Configuration{}
	}
	shared.WriteJSON(w, http.StatusOK, configs)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.authedUser(w, r)
	if !ok {
		return
	}

	var req configRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		h.logger.WarnContext(ctx, "invalid create configuration request",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}

	created, err := h.monitoring.Create(ctx, userID, req.toModel())
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to create monitoring configuration",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.authedUser(w, r)
	if !ok {
		return
	}

	configID, err := domain.ParseConfigID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var req configRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		h.logger.WarnContext(ctx, "invalid update configuration request",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}

	cfg := req.toModel()
	cfg.ID = configID
	updated, err := h.monitoring.Update(ctx, userID, cfg)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to update monitoring configuration",
			"request_id", middleware.GetRequestID(ctx),
			"config_id", configID.String(),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, updated)
}

// authedUser pulls the authenticated user out of the request context. The
// auth middleware guarantees it is present; a miss is a wiring bug.
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
