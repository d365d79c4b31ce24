// Package models defines the snapshot/diff data model for the scan domain.
package models

import (
	"time"

	"lexwatch/internal/fingerprint"
	"lexwatch/pkg/domain"
	dErrors "lexwatch/pkg/domain-errors"
)

// ChangeType classifies one observed instrument change. The set is closed;
// switches over it should enumerate every variant.
type ChangeType string

const (
	ChangeNew       ChangeType = "NEW"
	ChangeRevised   ChangeType = "REVISED"
	ChangeAbolished ChangeType = "ABOLISHED"
	ChangeMetadata  ChangeType = "METADATA_CHANGED"
	ChangeStatus    ChangeType = "STATUS_CHANGED"
	ChangeCategory  ChangeType = "CATEGORY_CHANGED"
)

// IsValid checks if the change type is one of the supported enum values.
func (t ChangeType) IsValid() bool {
	switch t {
	case ChangeNew, ChangeRevised, ChangeAbolished, ChangeMetadata, ChangeStatus, ChangeCategory:
		return true
	}
	return false
}

// String returns the string representation.
func (t ChangeType) String() string { return string(t) }

// ParseChangeType creates a ChangeType from a string, validating it.
func ParseChangeType(s string) (ChangeType, error) {
	t := ChangeType(s)
	if !t.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid change type: "+s)
	}
	return t, nil
}

// StatusAbolished is forced onto snapshots of instruments that disappeared
// from the upstream registry.
const StatusAbolished = "abolished"

// CategorySummary aggregates one category inside a whole-registry snapshot.
type CategorySummary struct {
	Category            string `json:"category"`
	Count               int    `json:"count"`
	LatestPromulgatedAt string `json:"latestPromulgatedAt"`
}

// Snapshot is an immutable, timestamped record of either one instrument's
// fingerprinted state (InstrumentID set) or the whole registry's state
// (Checksum and Categories set). Snapshots are never mutated after creation;
// a new scan supersedes the previous one as latest.
type Snapshot struct {
	ID        domain.SnapshotID
	CreatedAt time.Time

	// Per-instrument shape.
	InstrumentID  string
	Fingerprint   string
	Name          string
	Number        string
	Category      string
	Status        string
	PromulgatedAt string
	LastRevisedAt string

	// Whole-registry shape.
	TotalCount  int
	Checksum    string
	Categories  []CategorySummary
	LastUpdated time.Time
}

// Entity exposes the snapshot's denormalized comparable fields for diffing.
func (s Snapshot) Entity() fingerprint.Entity {
	return fingerprint.Entity{
		ID:            s.InstrumentID,
		Name:          s.Name,
		Number:        s.Number,
		Category:      s.Category,
		Status:        s.Status,
		PromulgatedAt: s.PromulgatedAt,
		LastRevisedAt: s.LastRevisedAt,
	}
}

// FieldChange records one field-level difference inside a change detection.
type FieldChange struct {
	Field    string `json:"field"`
	OldValue string `json:"oldValue"`
	NewValue string `json:"newValue"`
}

// ChangeDetection describes a single instrument's observed change.
type ChangeDetection struct {
	ID           domain.DetectionID `json:"id"`
	InstrumentID string             `json:"instrumentId"`
	Name         string             `json:"name"`
	Number       string             `json:"number"`
	Category     string             `json:"category"`
	Type         ChangeType         `json:"changeType"`
	FieldChanges []FieldChange      `json:"fieldChanges,omitempty"`
	DetectedAt   time.Time          `json:"detectedAt"`
}

// Summary aggregates a diff's buckets. Counts always equal the corresponding
// list lengths; Recompute restores the invariant after any narrowing.
type Summary struct {
	TotalNew      int      `json:"totalNew"`
	TotalModified int      `json:"totalModified"`
	TotalRemoved  int      `json:"totalRemoved"`
	Categories    []string `json:"categories"`
}

// Diff is the aggregate result of comparing two snapshots.
type Diff struct {
	PreviousSnapshotID domain.SnapshotID `json:"previousSnapshotId"`
	CurrentSnapshotID  domain.SnapshotID `json:"currentSnapshotId"`
	DetectedAt         time.Time         `json:"detectedAt"`
	New                []ChangeDetection `json:"new"`
	Modified           []ChangeDetection `json:"modified"`
	Removed            []ChangeDetection `json:"removed"`
	Summary            Summary           `json:"summary"`
}

// Recompute rebuilds the summary from the entry lists.
func (d *Diff) Recompute() {
	seen := make(map[string]bool)
	var categories []string
	collect := func(entries []ChangeDetection) {
		for _, entry := range entries {
			if entry.Category != "" && !seen[entry.Category] {
				seen[entry.Category] = true
				categories = append(categories, entry.Category)
			}
		}
	}
	collect(d.New)
	collect(d.Modified)
	collect(d.Removed)

	d.Summary = Summary{
		TotalNew:      len(d.New),
		TotalModified: len(d.Modified),
		TotalRemoved:  len(d.Removed),
		Categories:    categories,
	}
}

// Significant reports whether any bucket is nonempty.
func (d *Diff) Significant() bool {
	return d.Summary.TotalNew > 0 || d.Summary.TotalModified > 0 || d.Summary.TotalRemoved > 0
}

// ScanType identifies which trigger produced a scan result.
type ScanType string

const (
	ScanFull        ScanType = "full"
	ScanIncremental ScanType = "incremental"
	ScanCategory    ScanType = "category"
)

// ScanResult is the persisted outcome of one scan cycle.
type ScanResult struct {
	ID           domain.ScanID     `json:"id"`
	Type         ScanType          `json:"type"`
	StartedAt    time.Time         `json:"startedAt"`
	CompletedAt  time.Time         `json:"completedAt"`
	TotalScanned int               `json:"totalScanned"`
	New          []ChangeDetection `json:"new"`
	Revised      []ChangeDetection `json:"revised"`
	Abolished    []ChangeDetection `json:"abolished"`
	Metadata     []ChangeDetection `json:"metadataChanged"`

	// RequestedCategories records what a category scan asked for. The scan
	// itself still walks the full registry; see the orchestrator.
	RequestedCategories []string `json:"requestedCategories,omitempty"`
}

// Statistics composes the read model behind the statistics endpoint.
type Statistics struct {
	LatestScan  *ScanResult       `json:"latestScan"`
	Last7Days   []ChangeDetection `json:"last7Days"`
	Last30Days  []ChangeDetection `json:"last30Days"`
	Total7Days  int               `json:"total7Days"`
	Total30Days int               `json:"total30Days"`
	GeneratedAt time.Time         `json:"generatedAt"`
}
