package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lexwatch/internal/scan/models"
	"lexwatch/pkg/domain"
	dErrors "lexwatch/pkg/domain-errors"
)

type stubService struct {
	result     *models.ScanResult
	err        error
	changes    []models.ChangeDetection
	stats      *models.Statistics
	categories []string
	block      chan struct{}
}

func (s *stubService) PerformFullScan(context.Context) (*models.ScanResult, error) {
	if s.block != nil {
		<-s.block
	}
	return s.result, s.err
}

func (s *stubService) PerformIncrementalScan(context.Context) (*models.ScanResult, error) {
	return s.result, s.err
}

func (s *stubService) PerformCategoryScan(_ context.Context, categories []string) (*models.ScanResult, error) {
	s.categories = categories
	return s.result, s.err
}

func (s *stubService) RecentChanges(_ context.Context, days int) ([]models.ChangeDetection, error) {
	if days <= 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "days must be positive")
	}
	return s.changes, s.err
}

func (s *stubService) Statistics(context.Context) (*models.Statistics, error) {
	return s.stats, s.err
}

func newTestRouter(svc Service, limiter Limiter) chi.Router {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	New(svc, logger, limiter).Register(r)
	return r
}

func TestHandleFullScan(t *testing.T) {
	result := &models.ScanResult{
		ID:           domain.NewScanID(),
		Type:         models.ScanFull,
		TotalScanned: 3,
	}
	router := newTestRouter(&stubService{result: result}, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/scan/full", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp models.ScanResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, result.ID, resp.ID)
	assert.Equal(t, 3, resp.TotalScanned)
}

func TestHandleFullScan_UpstreamFailure(t *testing.T) {
	svc := &stubService{err: dErrors.New(dErrors.CodeUpstream, "scan failed")}
	router := newTestRouter(svc, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/scan/full", nil))

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "scan failed")
}

func TestHandleCategoryScan(t *testing.T) {
	t.Run("passes categories through", func(t *testing.T) {
		svc := &stubService{result: &models.ScanResult{Type: models.ScanCategory}}
		router := newTestRouter(svc, nil)

		body, _ := json.Marshal(map[string][]string{"categories": {"labor", "tax"}})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/scan/category", bytes.NewReader(body)))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []string{"labor", "tax"}, svc.categories)
	})

	t.Run("rejects malformed body", func(t *testing.T) {
		router := newTestRouter(&stubService{}, nil)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/scan/category", bytes.NewReader([]byte("{"))))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestScanSingleFlight(t *testing.T) {
	block := make(chan struct{})
	svc := &stubService{result: &models.ScanResult{}, block: block}
	var mu sync.Mutex
	router := newTestRouter(svc, &mu)

	first := make(chan int)
	go func() {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/scan/full", nil))
		first <- w.Code
	}()

	// Wait for the first scan to hold the lock, then race a second trigger.
	require.Eventually(t, func() bool {
		if mu.TryLock() {
			mu.Unlock()
			return false
		}
		return true
	}, time.Second, 5*time.Millisecond)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/scan/full", nil))
	assert.Equal(t, http.StatusConflict, w.Code)

	close(block)
	assert.Equal(t, http.StatusOK, <-first)
}

func TestHandleRecentChanges(t *testing.T) {
	changes := []models.ChangeDetection{{InstrumentID: "law-001", Type: models.ChangeRevised}}
	router := newTestRouter(&stubService{changes: changes}, nil)

	t.Run("default window", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/changes/recent", nil))

		require.Equal(t, http.StatusOK, w.Code)
		var resp []models.ChangeDetection
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Len(t, resp, 1)
	})

	t.Run("rejects non-integer days", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/changes/recent?days=soon", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects non-positive days", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/changes/recent?days=0", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandleStatistics(t *testing.T) {
	stats := &models.Statistics{Total7Days: 4, Total30Days: 9, GeneratedAt: time.Now()}
	router := newTestRouter(&stubService{stats: stats}, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/scan/statistics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp models.Statistics
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 4, resp.Total7Days)
	assert.Equal(t, 9, resp.Total30Days)
}
