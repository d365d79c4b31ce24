package snapshot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lexwatch/internal/registry"
)

var now = time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)

func fixtureInstruments() []registry.Instrument {
	return []registry.Instrument{
		{ID: "law-002", Name: "Income Tax Act", Number: "Act No. 33", Category: "tax", Status: "in_force", PromulgatedAt: "1965-03-31"},
		{ID: "law-001", Name: "Labor Standards Act", Number: "Act No. 49", Category: "labor", Status: "in_force", PromulgatedAt: "1947-04-07"},
		{ID: "law-003", Name: "Labor Union Act", Number: "Act No. 174", Category: "labor", Status: "in_force", PromulgatedAt: "1949-06-01"},
	}
}

func TestInstrument(t *testing.T) {
	instrument := fixtureInstruments()[1]
	snap := Instrument(instrument, "", now)

	assert.Equal(t, "law-001", snap.InstrumentID)
	assert.Equal(t, "Labor Standards Act", snap.Name)
	assert.Len(t, snap.Fingerprint, 64)
	assert.Equal(t, now, snap.CreatedAt)

	// The denormalized fields round-trip into the comparable entity.
	assert.Equal(t, instrument.Entity(""), snap.Entity())
}

func TestChecksum(t *testing.T) {
	t.Run("order independent", func(t *testing.T) {
		instruments := fixtureInstruments()
		reversed := []registry.Instrument{instruments[2], instruments[0], instruments[1]}
		assert.Equal(t, Checksum(instruments), Checksum(reversed))
	})

	t.Run("sensitive to any tuple field", func(t *testing.T) {
		base := Checksum(fixtureInstruments())

		changed := fixtureInstruments()
		changed[0].Status = "abolished"
		assert.NotEqual(t, base, Checksum(changed))

		changed = fixtureInstruments()
		changed[1].Name = "Labor Standards Act (Amended)"
		assert.NotEqual(t, base, Checksum(changed))
	})

	t.Run("promulgation date does not participate", func(t *testing.T) {
		base := Checksum(fixtureInstruments())
		changed := fixtureInstruments()
		changed[0].PromulgatedAt = "2000-01-01"
		assert.Equal(t, base, Checksum(changed))
	})
}

func TestDigest(t *testing.T) {
	t.Run("order independent", func(t *testing.T) {
		instruments := fixtureInstruments()
		reversed := []registry.Instrument{instruments[2], instruments[0], instruments[1]}
		assert.Equal(t, Digest(instruments), Digest(reversed))
	})

	t.Run("sensitive to date fields the checksum ignores", func(t *testing.T) {
		base := fixtureInstruments()

		revised := fixtureInstruments()
		revised[0].LastRevisedAt = "2026-02-28"
		assert.Equal(t, Checksum(base), Checksum(revised))
		assert.NotEqual(t, Digest(base), Digest(revised))

		promulgated := fixtureInstruments()
		promulgated[1].PromulgatedAt = "2000-01-01"
		assert.NotEqual(t, Digest(base), Digest(promulgated))
	})
}

func TestRegistry(t *testing.T) {
	snap := Registry(fixtureInstruments(), now.Add(-time.Hour), now)
	assert.Equal(t, now.Add(-time.Hour), snap.LastUpdated)

	assert.Equal(t, 3, snap.TotalCount)
	assert.Len(t, snap.Checksum, 64)
	assert.Empty(t, snap.InstrumentID)

	require.Len(t, snap.Categories, 2)
	labor := snap.Categories[0]
	assert.Equal(t, "labor", labor.Category)
	assert.Equal(t, 2, labor.Count)
	assert.Equal(t, "1949-06-01", labor.LatestPromulgatedAt)

	tax := snap.Categories[1]
	assert.Equal(t, "tax", tax.Category)
	assert.Equal(t, 1, tax.Count)
}
