// Package snapshot builds immutable snapshot records from fetched
// instruments. It never touches the store; persistence belongs to the scan
// orchestrator.
package snapshot

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"lexwatch/internal/fingerprint"
	"lexwatch/internal/registry"
	"lexwatch/internal/scan/models"
	"lexwatch/pkg/domain"
)

// checksumTuple is the canonical per-instrument record the registry checksum
// is computed over. Key order is fixed by field-name-sorted JSON.
type checksumTuple struct {
	Category string `json:"category"`
	ID       string `json:"id"`
	Name     string `json:"name"`
	Number   string `json:"number"`
	Status   string `json:"status"`
}

// Instrument builds a per-instrument snapshot. body is the optional full text
// supplied by single-law tracking callers; pass "" when only metadata is
// available.
func Instrument(instrument registry.Instrument, body string, now time.Time) models.Snapshot {
	return models.Snapshot{
		ID:            domain.NewSnapshotID(),
		CreatedAt:     now,
		InstrumentID:  instrument.ID,
		Fingerprint:   fingerprint.Fingerprint(instrument.Entity(body)),
		Name:          instrument.Name,
		Number:        instrument.Number,
		Category:      instrument.Category,
		Status:        instrument.Status,
		PromulgatedAt: instrument.PromulgatedAt,
		LastRevisedAt: instrument.LastRevisedAt,
	}
}

// Registry builds a whole-registry snapshot: instrument count, a checksum
// over the sorted instrument list, and per-category summaries. lastUpdated is
// the upstream's own modification timestamp for the fetched registry.
func Registry(instruments []registry.Instrument, lastUpdated, now time.Time) models.Snapshot {
	return models.Snapshot{
		ID:          domain.NewSnapshotID(),
		CreatedAt:   now,
		TotalCount:  len(instruments),
		Checksum:    Checksum(instruments),
		Categories:  summarize(instruments),
		LastUpdated: lastUpdated,
	}
}

// Checksum hashes the canonical-JSON serialization of the sorted-by-identifier
// instrument tuples. Equal registries always produce equal checksums. The
// tuple excludes the date fields, so equal checksums do not rule out
// revision-date-only changes; gate diff-skipping on Digest instead.
func Checksum(instruments []registry.Instrument) string {
	tuples := make([]checksumTuple, 0, len(instruments))
	for _, i := range instruments {
		tuples = append(tuples, checksumTuple{
			Category: i.Category,
			ID:       i.ID,
			Name:     i.Name,
			Number:   i.Number,
			Status:   i.Status,
		})
	}
	sort.Slice(tuples, func(a, b int) bool { return tuples[a].ID < tuples[b].ID })

	data, _ := json.Marshal(tuples)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Digest hashes each instrument's identifier together with its full content
// fingerprint, sorted by identifier. Two fetches with equal digests cannot
// differ in any field the per-instrument diff compares, so a matching digest
// can safely skip that diff. Checksum cannot: it omits promulgatedAt and
// lastRevisedAt.
func Digest(instruments []registry.Instrument) string {
	pairs := make([]string, 0, len(instruments))
	for _, i := range instruments {
		pairs = append(pairs, i.ID+":"+fingerprint.Fingerprint(i.Entity("")))
	}
	sort.Strings(pairs)

	sum := sha256.Sum256([]byte(strings.Join(pairs, "\n")))
	return hex.EncodeToString(sum[:])
}

// summarize groups instruments by category, counting them and tracking the
// most recent promulgation date seen per category.
func summarize(instruments []registry.Instrument) []models.CategorySummary {
	byCategory := make(map[string]*models.CategorySummary)
	for _, i := range instruments {
		summary, ok := byCategory[i.Category]
		if !ok {
			summary = &models.CategorySummary{Category: i.Category}
			byCategory[i.Category] = summary
		}
		summary.Count++
		if i.PromulgatedAt > summary.LatestPromulgatedAt {
			summary.LatestPromulgatedAt = i.PromulgatedAt
		}
	}

	summaries := make([]models.CategorySummary, 0, len(byCategory))
	for _, summary := range byCategory {
		summaries = append(summaries, *summary)
	}
	sort.Slice(summaries, func(a, b int) bool { return summaries[a].Category < summaries[b].Category })
	return summaries
}
