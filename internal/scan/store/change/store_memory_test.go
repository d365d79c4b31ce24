package change

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lexwatch/internal/scan/models"
	"lexwatch/pkg/domain"
)

func TestInMemoryStore_GetRecent(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	store := NewInMemoryStore().WithClock(func() time.Time { return now })

	save := func(id string, age time.Duration) {
		require.NoError(t, store.Save(ctx, models.ChangeDetection{
			ID:           domain.NewDetectionID(),
			InstrumentID: id,
			Type:         models.ChangeRevised,
			DetectedAt:   now.Add(-age),
		}))
	}
	save("law-old", 40*24*time.Hour)
	save("law-mid", 10*24*time.Hour)
	save("law-new", 2*24*time.Hour)

	t.Run("7 day window", func(t *testing.T) {
		recent, err := store.GetRecent(ctx, 7)
		require.NoError(t, err)
		require.Len(t, recent, 1)
		assert.Equal(t, "law-new", recent[0].InstrumentID)
	})

	t.Run("30 day window newest first", func(t *testing.T) {
		recent, err := store.GetRecent(ctx, 30)
		require.NoError(t, err)
		require.Len(t, recent, 2)
		assert.Equal(t, "law-new", recent[0].InstrumentID)
		assert.Equal(t, "law-mid", recent[1].InstrumentID)
	})

	t.Run("empty window", func(t *testing.T) {
		recent, err := store.GetRecent(ctx, 1)
		require.NoError(t, err)
		assert.Empty(t, recent)
	})
}
