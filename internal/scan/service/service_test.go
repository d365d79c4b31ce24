package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lexwatch/internal/registry"
	"lexwatch/internal/scan/models"
	changestore "lexwatch/internal/scan/store/change"
	scanresultstore "lexwatch/internal/scan/store/scanresult"
	snapshotstore "lexwatch/internal/scan/store/snapshot"
	"lexwatch/pkg/domain"
	dErrors "lexwatch/pkg/domain-errors"
)

type fixture struct {
	client    *registry.MockClient
	snapshots *snapshotstore.InMemoryStore
	results   *scanresultstore.InMemoryStore
	changes   *changestore.InMemoryStore
	service   *Service
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		client:    registry.NewMockClient(),
		snapshots: snapshotstore.NewInMemoryStore(),
		results:   scanresultstore.NewInMemoryStore(),
		changes:   changestore.NewInMemoryStore(),
	}
	svc, err := New(f.client, f.snapshots, f.results, f.changes, opts...)
	require.NoError(t, err)
	f.service = svc
	return f
}

func TestPerformFullScan_Baseline(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.service.PerformFullScan(ctx)
	require.NoError(t, err)

	// First scan against an empty store reports no diff, never "all NEW".
	assert.Empty(t, result.New)
	assert.Empty(t, result.Revised)
	assert.Empty(t, result.Abolished)
	assert.Empty(t, result.Metadata)
	assert.Equal(t, len(f.client.Instruments), result.TotalScanned)

	// The baseline snapshots exist for the next scan.
	all, err := f.snapshots.GetAllLatest(ctx)
	require.NoError(t, err)
	assert.Len(t, all, len(f.client.Instruments))

	reg, err := f.snapshots.GetLatest(ctx, "")
	require.NoError(t, err)
	assert.NotEmpty(t, reg.Checksum)
}

func TestPerformFullScan_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.PerformFullScan(ctx)
	require.NoError(t, err)

	// No upstream change: the second run yields an empty diff.
	second, err := f.service.PerformFullScan(ctx)
	require.NoError(t, err)
	assert.Empty(t, second.New)
	assert.Empty(t, second.Revised)
	assert.Empty(t, second.Abolished)
	assert.Empty(t, second.Metadata)
}

func TestPerformFullScan_Classification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.PerformFullScan(ctx)
	require.NoError(t, err)

	// Revise law-001, drop law-003, add law-900.
	f.client.Instruments[0].LastRevisedAt = "2026-02-28"
	f.client.Instruments = append(f.client.Instruments[:2], registry.Instrument{
		ID: "law-900", Name: "AI Accountability Act", Number: "Act No. 900",
		Category: "technology", Status: "in_force", PromulgatedAt: "2026-01-15",
	})

	result, err := f.service.PerformFullScan(ctx)
	require.NoError(t, err)

	require.Len(t, result.Revised, 1)
	assert.Equal(t, "law-001", result.Revised[0].InstrumentID)
	require.Len(t, result.New, 1)
	assert.Equal(t, "law-900", result.New[0].InstrumentID)
	require.Len(t, result.Abolished, 1)
	assert.Equal(t, "law-003", result.Abolished[0].InstrumentID)

	// The abolished instrument's final snapshot carries the forced status.
	final, err := f.snapshots.GetLatest(ctx, "law-003")
	require.NoError(t, err)
	assert.Equal(t, models.StatusAbolished, final.Status)

	// Detections were persisted for the recent-changes read path.
	recent, err := f.service.RecentChanges(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, recent, 3)
}

func TestPerformFullScan_UpstreamFailure(t *testing.T) {
	f := newFixture(t)
	f.client.FailWith = "registry maintenance"

	_, err := f.service.PerformFullScan(context.Background())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUpstream))
	assert.Contains(t, err.Error(), "scan failed")
	assert.Contains(t, err.Error(), "registry maintenance")

	// Nothing was persisted.
	_, err = f.results.GetLatest(context.Background())
	require.Error(t, err)
}

type failingChangeStore struct {
	*changestore.InMemoryStore
}

func (s failingChangeStore) GetRecent(ctx context.Context, days int) ([]models.ChangeDetection, error) {
	return nil, errors.New("disk on fire")
}

func TestStatistics(t *testing.T) {
	ctx := context.Background()

	t.Run("composes latest scan with change windows", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.service.PerformFullScan(ctx)
		require.NoError(t, err)

		f.client.Instruments[0].Name = "Labor Standards Act (Amended)"
		_, err = f.service.PerformFullScan(ctx)
		require.NoError(t, err)

		stats, err := f.service.Statistics(ctx)
		require.NoError(t, err)
		require.NotNil(t, stats.LatestScan)
		assert.Equal(t, 1, stats.Total7Days)
		assert.Equal(t, 1, stats.Total30Days)
	})

	t.Run("empty store yields empty statistics", func(t *testing.T) {
		f := newFixture(t)
		stats, err := f.service.Statistics(ctx)
		require.NoError(t, err)
		assert.Nil(t, stats.LatestScan)
		assert.Zero(t, stats.Total7Days)
	})

	t.Run("any failing read fails the whole call", func(t *testing.T) {
		f := &fixture{
			client:    registry.NewMockClient(),
			snapshots: snapshotstore.NewInMemoryStore(),
			results:   scanresultstore.NewInMemoryStore(),
			changes:   changestore.NewInMemoryStore(),
		}
		svc, err := New(f.client, f.snapshots, f.results, failingChangeStore{f.changes})
		require.NoError(t, err)

		_, err = svc.Statistics(ctx)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeStore))
	})
}

func TestRecentChanges_Validation(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.RecentChanges(context.Background(), 0)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestPerformCategoryScan(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("requires categories", func(t *testing.T) {
		_, err := f.service.PerformCategoryScan(ctx, nil)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("records requested categories but walks everything", func(t *testing.T) {
		result, err := f.service.PerformCategoryScan(ctx, []string{"labor"})
		require.NoError(t, err)
		assert.Equal(t, models.ScanCategory, result.Type)
		assert.Equal(t, []string{"labor"}, result.RequestedCategories)
		assert.Equal(t, len(f.client.Instruments), result.TotalScanned)
	})
}

func TestPerformIncrementalScan_DelegatesToFull(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.service.PerformIncrementalScan(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.ScanIncremental, result.Type)
	assert.Equal(t, len(f.client.Instruments), result.TotalScanned)
}

type notifierSpy struct {
	calls []*models.Diff
	err   error
}

func (n *notifierSpy) Evaluate(_ context.Context, _ domain.ScanID, d *models.Diff) error {
	n.calls = append(n.calls, d)
	return n.err
}

func TestPerformFullScan_Notification(t *testing.T) {
	ctx := context.Background()

	t.Run("significant diff reaches the notifier", func(t *testing.T) {
		spy := &notifierSpy{}
		f := newFixture(t, WithNotifier(spy))

		_, err := f.service.PerformFullScan(ctx)
		require.NoError(t, err)
		assert.Empty(t, spy.calls, "baseline must not notify")

		f.client.Instruments[0].LastRevisedAt = "2026-02-28"
		_, err = f.service.PerformFullScan(ctx)
		require.NoError(t, err)
		require.Len(t, spy.calls, 1)
		assert.Equal(t, 1, spy.calls[0].Summary.TotalModified)
	})

	t.Run("notifier failure does not fail the scan", func(t *testing.T) {
		spy := &notifierSpy{err: errors.New("smtp down")}
		f := newFixture(t, WithNotifier(spy))

		_, err := f.service.PerformFullScan(ctx)
		require.NoError(t, err)

		f.client.Instruments[0].Name = "Renamed Act"
		result, err := f.service.PerformFullScan(ctx)
		require.NoError(t, err)
		assert.Len(t, result.Metadata, 1)
	})
}

type staticDigestCache struct {
	value string
	sets  []string
}

func (c *staticDigestCache) Get(context.Context) (string, error) { return c.value, nil }
func (c *staticDigestCache) Set(_ context.Context, digest string) error {
	c.sets = append(c.sets, digest)
	c.value = digest
	return nil
}

func TestPerformFullScan_DigestFastPath(t *testing.T) {
	cache := &staticDigestCache{}
	f := newFixture(t, WithDigestCache(cache))
	ctx := context.Background()

	_, err := f.service.PerformFullScan(ctx)
	require.NoError(t, err)
	require.Len(t, cache.sets, 1)

	before, err := f.snapshots.GetAllLatest(ctx)
	require.NoError(t, err)
	beforeIDs := make(map[string]domain.SnapshotID)
	for _, snap := range before {
		beforeIDs[snap.InstrumentID] = snap.ID
	}

	// Unchanged registry: the fast path skips the per-instrument rewrite.
	second, err := f.service.PerformFullScan(ctx)
	require.NoError(t, err)
	assert.Empty(t, second.New)

	after, err := f.snapshots.GetAllLatest(ctx)
	require.NoError(t, err)
	for _, snap := range after {
		assert.Equal(t, beforeIDs[snap.InstrumentID], snap.ID,
			"fast path must not rewrite per-instrument snapshots")
	}
}

func TestPerformFullScan_CachedDigestSeesRevisionDateChange(t *testing.T) {
	cache := &staticDigestCache{}
	f := newFixture(t, WithDigestCache(cache))
	ctx := context.Background()

	_, err := f.service.PerformFullScan(ctx)
	require.NoError(t, err)
	require.Len(t, cache.sets, 1)

	// A revision-date-only amendment must never be masked by the cache: the
	// cached digest covers lastRevisedAt, so the fast path does not engage.
	f.client.Instruments[0].LastRevisedAt = "2026-03-01"
	result, err := f.service.PerformFullScan(ctx)
	require.NoError(t, err)
	require.Len(t, result.Revised, 1)
	assert.Equal(t, f.client.Instruments[0].ID, result.Revised[0].InstrumentID)
	require.Len(t, cache.sets, 2)
	assert.NotEqual(t, cache.sets[0], cache.sets[1])

	// The baseline snapshot was rewritten with the new revision date.
	latest, err := f.snapshots.GetLatest(ctx, f.client.Instruments[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-01", latest.LastRevisedAt)
}

type panickyClient struct{}

func (panickyClient) FetchAll(context.Context) (*registry.FetchResult, error) {
	var instruments []registry.Instrument
	_ = instruments[3] // out of range
	return nil, nil
}

func (panickyClient) FetchDetail(context.Context, string) (*registry.Instrument, error) {
	return nil, registry.ErrInstrumentNotFound
}

func TestPerformFullScan_RecoversPanic(t *testing.T) {
	svc, err := New(panickyClient{},
		snapshotstore.NewInMemoryStore(),
		scanresultstore.NewInMemoryStore(),
		changestore.NewInMemoryStore(),
	)
	require.NoError(t, err)

	_, err = svc.PerformFullScan(context.Background())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
	assert.Contains(t, err.Error(), "scan failed")
}
