// Package handler exposes the scan trigger and read surface over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"lexwatch/internal/platform/middleware"
	"lexwatch/internal/scan/models"
	"lexwatch/internal/transport/http/shared"
	dErrors "lexwatch/pkg/domain-errors"
)

const defaultRecentDays = 7

// Service defines the scan operations the handler needs.
type Service interface {
	PerformFullScan(ctx context.Context) (*models.ScanResult, error)
	PerformIncrementalScan(ctx context.Context) (*models.ScanResult, error)
	PerformCategoryScan(ctx context.Context, categories []string) (*models.ScanResult, error)
	RecentChanges(ctx context.Context, days int) ([]models.ChangeDetection, error)
	Statistics(ctx context.Context) (*models.Statistics, error)
}

// Limiter serializes scan triggers; the scan core itself does not guard
// against concurrent scans racing on the latest-snapshot rows.
type Limiter interface {
	TryLock() bool
	Unlock()
}

// Handler handles scan endpoints. Scans run synchronously: the response
// carries the completed scan result.
type Handler struct {
	logger  *slog.Logger
	scans   Service
	limiter Limiter
}

// New creates a scan Handler.
func New(scans Service, logger *slog.Logger, limiter Limiter) *Handler {
	return &Handler{
		logger:  logger,
		scans:   scans,
		limiter: limiter,
	}
}

// Register registers the scan routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/scan/full", h.triggerScan(func(ctx context.Context) (*models.ScanResult, error) {
		return h.scans.PerformFullScan(ctx)
	}))
	r.Post("/scan/incremental", h.triggerScan(func(ctx context.Context) (*models.ScanResult, error) {
		return h.scans.PerformIncrementalScan(ctx)
	}))
	r.Post("/scan/category", h.handleCategoryScan)
	r.Get("/scan/statistics", h.handleStatistics)
	r.Get("/changes/recent", h.handleRecentChanges)
}

// triggerScan wraps one scan variant with the single-flight guard.
func (h *Handler) triggerScan(run func(ctx context.Context) (*models.ScanResult, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if h.limiter != nil {
			if !h.limiter.TryLock() {
				shared.WriteError(w, dErrors.New(dErrors.CodeConflict, "a scan is already running"))
				return
			}
			defer h.limiter.Unlock()
		}

		result, err := run(ctx)
		if err != nil {
			h.logger.ErrorContext(ctx, "scan trigger failed",
				"request_id", middleware.GetRequestID(ctx),
				"error", err.Error(),
			)
			shared.WriteError(w, err)
			return
		}
		shared.WriteJSON(w, http.StatusOK, result)
	}
}

type categoryScanRequest struct {
	Categories []string `json:"categories"`
}

func (h *Handler) handleCategoryScan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req categoryScanRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		h.logger.WarnContext(ctx, "invalid category scan request",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}

	h.triggerScan(func(ctx context.Context) (*models.ScanResult, error) {
		return h.scans.PerformCategoryScan(ctx, req.Categories)
	})(w, r)
}

func (h *Handler) handleRecentChanges(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	days := defaultRecentDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "days must be an integer"))
			return
		}
		days = parsed
	}

	changes, err := h.scans.RecentChanges(ctx, days)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load recent changes",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}
	if changes == nil {
		changes = []models.ChangeDetection{}
	}
	shared.WriteJSON(w, http.StatusOK, changes)
}

func (h *Handler) handleStatistics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := h.scans.Statistics(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to compose scan statistics",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, stats)
}
