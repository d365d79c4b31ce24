// Package service orchestrates one scan cycle: fetch, snapshot, diff,
// persist, notify.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"lexwatch/internal/registry"
	"lexwatch/internal/scan/diff"
	"lexwatch/internal/scan/metrics"
	"lexwatch/internal/scan/models"
	"lexwatch/internal/scan/snapshot"
	"lexwatch/pkg/domain"
	dErrors "lexwatch/pkg/domain-errors"
	"lexwatch/pkg/platform/sentinel"
	pkgstrings "lexwatch/pkg/platform/strings"
)

// SnapshotStore persists snapshots and serves the latest baseline.
type SnapshotStore interface {
	Save(ctx context.Context, snap models.Snapshot) error
	GetLatest(ctx context.Context, instrumentID string) (*models.Snapshot, error)
	GetAllLatest(ctx context.Context) ([]models.Snapshot, error)
}

// ScanResultStore persists scan outcomes.
type ScanResultStore interface {
	Save(ctx context.Context, result models.ScanResult) error
	GetLatest(ctx context.Context) (*models.ScanResult, error)
}

// ChangeStore persists individual change detections.
type ChangeStore interface {
	Save(ctx context.Context, detection models.ChangeDetection) error
	GetRecent(ctx context.Context, days int) ([]models.ChangeDetection, error)
}

// DigestCache is the optional fast-path cache for the latest registry content
// digest. Failures degrade to the full diff path.
type DigestCache interface {
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, digest string) error
}

// Notifier receives significant diffs after a scan. Its failures never fail
// the scan.
type Notifier interface {
	Evaluate(ctx context.Context, scanID domain.ScanID, d *models.Diff) error
}

// Service coordinates fetch, snapshot, diff, persist and notify for one scan
// cycle. Instruments are diffed and persisted one at a time, in fetch order;
// partial writes are not rolled back on a later failure. Nothing here
// serializes concurrent scans — the trigger surface is responsible for that.
type Service struct {
	client    registry.Client
	snapshots SnapshotStore
	results   ScanResultStore
	changes   ChangeStore
	cache     DigestCache
	notifier  Notifier
	logger    *slog.Logger
	metrics   *metrics.Metrics
	clock     func() time.Time
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithDigestCache(c DigestCache) Option {
	return func(s *Service) { s.cache = c }
}

// WithClock sets the clock function for testability.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func New(
	client registry.Client,
	snapshots SnapshotStore,
	results ScanResultStore,
	changes ChangeStore,
	opts ...Option,
) (*Service, error) {
	if client == nil {
		return nil, errors.New("registry client is required")
	}
	if snapshots == nil {
		return nil, errors.New("snapshot store is required")
	}
	if results == nil {
		return nil, errors.New("scan result store is required")
	}
	if changes == nil {
		return nil, errors.New("change store is required")
	}

	svc := &Service{
		client:    client,
		snapshots: snapshots,
		results:   results,
		changes:   changes,
		logger:    slog.Default(),
		clock:     time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// PerformFullScan runs one complete fetch/diff/persist cycle.
func (s *Service) PerformFullScan(ctx context.Context) (*models.ScanResult, error) {
	return s.runScan(ctx, models.ScanFull, nil)
}

// PerformIncrementalScan currently delegates to the full scan: with no prior
// scan result a full scan is the only option, and scope narrowing for the
// prior-result case has not been built.
func (s *Service) PerformIncrementalScan(ctx context.Context) (*models.ScanResult, error) {
	return s.runScan(ctx, models.ScanIncremental, nil)
}

// PerformCategoryScan records the requested categories on the result but
// still walks the full registry; category-scoped narrowing has not been
// built.
func (s *Service) PerformCategoryScan(ctx context.Context, categories []string) (*models.ScanResult, error) {
	categories = pkgstrings.DedupeAndTrimLower(categories)
	if len(categories) == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "category scan requires at least one category")
	}
	return s.runScan(ctx, models.ScanCategory, categories)
}

// RecentChanges returns detections from the past N days.
func (s *Service) RecentChanges(ctx context.Context, days int) ([]models.ChangeDetection, error) {
	if days <= 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "days must be positive")
	}
	detections, err := s.changes.GetRecent(ctx, days)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeStore, "load recent changes", err)
	}
	return detections, nil
}

// Statistics composes the latest scan result with 7-day and 30-day change
// windows. The three reads run concurrently; any failure fails the call.
func (s *Service) Statistics(ctx context.Context) (*models.Statistics, error) {
	stats := &models.Statistics{GeneratedAt: s.clock()}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		latest, err := s.results.GetLatest(ctx)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil
			}
			return dErrors.Wrap(dErrors.CodeStore, "load latest scan result", err)
		}
		stats.LatestScan = latest
		return nil
	})
	g.Go(func() error {
		detections, err := s.changes.GetRecent(ctx, 7)
		if err != nil {
			return dErrors.Wrap(dErrors.CodeStore, "load 7-day changes", err)
		}
		stats.Last7Days = detections
		return nil
	})
	g.Go(func() error {
		detections, err := s.changes.GetRecent(ctx, 30)
		if err != nil {
			return dErrors.Wrap(dErrors.CodeStore, "load 30-day changes", err)
		}
		stats.Last30Days = detections
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats.Total7Days = len(stats.Last7Days)
	stats.Total30Days = len(stats.Last30Days)
	return stats, nil
}

// runScan is the shared scan cycle. Any panic during diffing or persistence
// is recovered and reported as a scan-level failure instead of crashing the
// process.
func (s *Service) runScan(ctx context.Context, scanType models.ScanType, categories []string) (result *models.ScanResult, err error) {
	started := s.clock()
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = dErrors.Newf(dErrors.CodeInternal, "scan failed: %v", r)
			s.metrics.ObserveScan(string(scanType), "failure", s.clock().Sub(started), 0)
		}
	}()

	fetch, err := s.client.FetchAll(ctx)
	if err != nil {
		s.metrics.ObserveScan(string(scanType), "failure", s.clock().Sub(started), 0)
		return nil, dErrors.Wrap(dErrors.CodeUpstream, "scan failed", err)
	}

	previous, err := s.snapshots.GetAllLatest(ctx)
	if err != nil {
		s.metrics.ObserveScan(string(scanType), "failure", s.clock().Sub(started), 0)
		return nil, dErrors.Wrap(dErrors.CodeStore, "scan failed: load snapshot baseline", err)
	}
	baseline := len(previous) == 0

	now := s.clock()
	currentDigest := snapshot.Digest(fetch.Instruments)

	// Digest fast path: when the content digest over every comparable field
	// matches the cached one and a baseline exists, the per-instrument walk
	// cannot find anything. The registry checksum is not a safe gate here
	// because it omits the revision and promulgation dates.
	fastPath := false
	if s.cache != nil && !baseline {
		cached, cacheErr := s.cache.Get(ctx)
		if cacheErr != nil {
			s.logger.WarnContext(ctx, "digest cache read failed, running full diff", "error", cacheErr)
		} else if cached != "" && cached == currentDigest {
			fastPath = true
		}
	}

	var detections []models.ChangeDetection
	if !baseline && !fastPath {
		detections = diff.Compare(previous, fetch.Instruments, now)
	}

	prevByID := make(map[string]models.Snapshot, len(previous))
	for _, snap := range previous {
		prevByID[snap.InstrumentID] = snap
	}

	if !fastPath {
		for _, instrument := range fetch.Instruments {
			if err := s.snapshots.Save(ctx, snapshot.Instrument(instrument, "", now)); err != nil {
				s.metrics.ObserveScan(string(scanType), "failure", s.clock().Sub(started), 0)
				return nil, dErrors.Wrap(dErrors.CodeStore, "scan failed: persist snapshot", err)
			}
		}
	}

	for _, detection := range detections {
		if err := s.changes.Save(ctx, detection); err != nil {
			s.metrics.ObserveScan(string(scanType), "failure", s.clock().Sub(started), 0)
			return nil, dErrors.Wrap(dErrors.CodeStore, "scan failed: persist change detection", err)
		}
		s.metrics.ObserveChange(string(detection.Type))

		// Disappeared instruments get a final snapshot with status forced to
		// abolished.
		if detection.Type == models.ChangeAbolished {
			if prev, ok := prevByID[detection.InstrumentID]; ok {
				final := prev
				final.ID = domain.NewSnapshotID()
				final.CreatedAt = now
				final.Status = models.StatusAbolished
				if err := s.snapshots.Save(ctx, final); err != nil {
					s.metrics.ObserveScan(string(scanType), "failure", s.clock().Sub(started), 0)
					return nil, dErrors.Wrap(dErrors.CodeStore, "scan failed: persist abolished snapshot", err)
				}
			}
		}
	}

	prevRegistry, err := s.snapshots.GetLatest(ctx, "")
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		s.metrics.ObserveScan(string(scanType), "failure", s.clock().Sub(started), 0)
		return nil, dErrors.Wrap(dErrors.CodeStore, "scan failed: load registry snapshot", err)
	}

	registrySnap := snapshot.Registry(fetch.Instruments, fetch.LastUpdated, now)
	if err := s.snapshots.Save(ctx, registrySnap); err != nil {
		s.metrics.ObserveScan(string(scanType), "failure", s.clock().Sub(started), 0)
		return nil, dErrors.Wrap(dErrors.CodeStore, "scan failed: persist registry snapshot", err)
	}
	if s.cache != nil {
		if cacheErr := s.cache.Set(ctx, currentDigest); cacheErr != nil {
			s.logger.WarnContext(ctx, "digest cache write failed", "error", cacheErr)
		}
	}

	result = s.assembleResult(scanType, categories, started, detections, len(fetch.Instruments))
	if err := s.results.Save(ctx, *result); err != nil {
		s.metrics.ObserveScan(string(scanType), "failure", s.clock().Sub(started), 0)
		return nil, dErrors.Wrap(dErrors.CodeStore, "scan failed: persist scan result", err)
	}

	if baseline {
		s.logger.InfoContext(ctx, "baseline scan stored, no diff reported",
			"scan_id", result.ID.String(),
			"instruments", len(fetch.Instruments),
		)
	}

	s.notify(ctx, result.ID, prevRegistry, registrySnap, detections, now)

	s.metrics.ObserveScan(string(scanType), "success", s.clock().Sub(started), len(fetch.Instruments))
	s.logger.InfoContext(ctx, "scan completed",
		"scan_id", result.ID.String(),
		"type", string(scanType),
		"total_scanned", result.TotalScanned,
		"new", len(result.New),
		"revised", len(result.Revised),
		"abolished", len(result.Abolished),
		"metadata_changed", len(result.Metadata),
	)
	return result, nil
}

func (s *Service) assembleResult(scanType models.ScanType, categories []string, started time.Time, detections []models.ChangeDetection, total int) *models.ScanResult {
	result := &models.ScanResult{
		ID:                  domain.NewScanID(),
		Type:                scanType,
		StartedAt:           started,
		CompletedAt:         s.clock(),
		TotalScanned:        total,
		RequestedCategories: categories,
	}
	for _, detection := range detections {
		switch detection.Type {
		case models.ChangeNew:
			result.New = append(result.New, detection)
		case models.ChangeRevised:
			result.Revised = append(result.Revised, detection)
		case models.ChangeAbolished:
			result.Abolished = append(result.Abolished, detection)
		case models.ChangeMetadata, models.ChangeStatus, models.ChangeCategory:
			result.Metadata = append(result.Metadata, detection)
		}
	}
	return result
}

// notify hands a significant diff to the evaluator. Evaluator failures are
// logged and swallowed; the scan itself already succeeded.
func (s *Service) notify(ctx context.Context, scanID domain.ScanID, prevRegistry *models.Snapshot, registrySnap models.Snapshot, detections []models.ChangeDetection, now time.Time) {
	if s.notifier == nil || len(detections) == 0 {
		return
	}
	var previousID domain.SnapshotID
	if prevRegistry != nil {
		previousID = prevRegistry.ID
	}
	d := diff.Assemble(previousID, registrySnap.ID, detections, now)
	if !d.Significant() {
		return
	}
	if err := s.notifier.Evaluate(ctx, scanID, d); err != nil {
		s.logger.ErrorContext(ctx, "notification evaluation failed",
			"scan_id", scanID.String(),
			"error", err,
		)
	}
}
