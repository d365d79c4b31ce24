// Package diff classifies changes between the stored snapshot baseline and a
// freshly fetched registry.
package diff

import (
	"fmt"
	"time"

	"lexwatch/internal/fingerprint"
	"lexwatch/internal/registry"
	"lexwatch/internal/scan/models"
	"lexwatch/pkg/domain"
)

// revisionFields are the changed-field names that classify an amendment as
// REVISED rather than METADATA_CHANGED: the revision date and the
// content-identity field.
var revisionFields = map[string]bool{
	fingerprint.FieldLastRevisedAt: true,
	fingerprint.FieldBody:          true,
}

// Compare runs the per-instrument algorithm: previous snapshots keyed by
// instrument identifier against the current fetch. Identifier match against
// the previous set is the only criterion for "existing" — an instrument
// reappearing under a reused identifier with different metadata is NEW, never
// REVISED.
//
// Two passes: the first walks the current list recording visited identifiers,
// the second classifies every unvisited previous identifier as ABOLISHED.
func Compare(previous []models.Snapshot, current []registry.Instrument, now time.Time) []models.ChangeDetection {
	prevByID := make(map[string]models.Snapshot, len(previous))
	for _, snap := range previous {
		prevByID[snap.InstrumentID] = snap
	}

	visited := make(map[string]bool, len(current))
	var detections []models.ChangeDetection

	for _, instrument := range current {
		prev, existing := prevByID[instrument.ID]
		if !existing {
			detections = append(detections, newDetection(instrument, models.ChangeNew, nil, now))
			continue
		}
		visited[instrument.ID] = true

		oldEntity := prev.Entity()
		newEntity := instrument.Entity("")
		changed := fingerprint.ChangedFields(oldEntity, newEntity)
		if len(changed) == 0 {
			continue
		}
		detections = append(detections,
			newDetection(instrument, Classify(changed), fieldChanges(oldEntity, newEntity, changed), now))
	}

	for _, snap := range previous {
		if visited[snap.InstrumentID] {
			continue
		}
		detections = append(detections, models.ChangeDetection{
			ID:           domain.NewDetectionID(),
			InstrumentID: snap.InstrumentID,
			Name:         snap.Name,
			Number:       snap.Number,
			Category:     snap.Category,
			Type:         models.ChangeAbolished,
			DetectedAt:   now,
		})
	}

	return detections
}

// Classify maps a nonempty changed-field set onto a change type. REVISED is
// reserved for changes touching the revision date or content identity.
func Classify(changed []string) models.ChangeType {
	for _, field := range changed {
		if revisionFields[field] {
			return models.ChangeRevised
		}
	}
	return models.ChangeMetadata
}

// Assemble buckets detections into a Diff and computes its summary.
func Assemble(previousID, currentID domain.SnapshotID, detections []models.ChangeDetection, now time.Time) *models.Diff {
	d := &models.Diff{
		PreviousSnapshotID: previousID,
		CurrentSnapshotID:  currentID,
		DetectedAt:         now,
	}
	for _, detection := range detections {
		switch detection.Type {
		case models.ChangeNew:
			d.New = append(d.New, detection)
		case models.ChangeAbolished:
			d.Removed = append(d.Removed, detection)
		case models.ChangeRevised, models.ChangeMetadata, models.ChangeStatus, models.ChangeCategory:
			d.Modified = append(d.Modified, detection)
		}
	}
	d.Recompute()
	return d
}

// CompareRegistry is the coarse, checksum-gated whole-registry path. Equal
// checksums produce no diff. A mismatch yields only an aggregate
// reconciliation: a synthetic entry for the signed count delta and a synthetic
// metadata entry when the upstream last-updated timestamp moved. It does not
// attribute the mismatch to specific instruments; the per-instrument Compare
// is the behavioral reference and this path is a degraded fallback. The scan
// orchestrator never calls it: its skip-the-walk role is played by the digest
// cache, which gates on content rather than the coarser checksum. It is kept
// for callers comparing two stored whole-registry snapshots directly.
func CompareRegistry(previous, current models.Snapshot, now time.Time) *models.Diff {
	if previous.Checksum == current.Checksum {
		return nil
	}

	d := &models.Diff{
		PreviousSnapshotID: previous.ID,
		CurrentSnapshotID:  current.ID,
		DetectedAt:         now,
	}

	delta := current.TotalCount - previous.TotalCount
	switch {
	case delta > 0:
		d.New = append(d.New, syntheticDetection(
			fmt.Sprintf("registry grew by %d instruments", delta), models.ChangeNew, now))
	case delta < 0:
		d.Removed = append(d.Removed, syntheticDetection(
			fmt.Sprintf("registry shrank by %d instruments", -delta), models.ChangeAbolished, now))
	}

	if !previous.LastUpdated.Equal(current.LastUpdated) {
		d.Modified = append(d.Modified, models.ChangeDetection{
			ID:           domain.NewDetectionID(),
			InstrumentID: "registry",
			Name:         "registry last-updated timestamp changed",
			Type:         models.ChangeMetadata,
			FieldChanges: []models.FieldChange{{
				Field:    "lastUpdated",
				OldValue: previous.LastUpdated.UTC().Format(time.RFC3339),
				NewValue: current.LastUpdated.UTC().Format(time.RFC3339),
			}},
			DetectedAt: now,
		})
	}

	d.Recompute()
	return d
}

func newDetection(instrument registry.Instrument, changeType models.ChangeType, fields []models.FieldChange, now time.Time) models.ChangeDetection {
	return models.ChangeDetection{
		ID:           domain.NewDetectionID(),
		InstrumentID: instrument.ID,
		Name:         instrument.Name,
		Number:       instrument.Number,
		Category:     instrument.Category,
		Type:         changeType,
		FieldChanges: fields,
		DetectedAt:   now,
	}
}

func syntheticDetection(name string, changeType models.ChangeType, now time.Time) models.ChangeDetection {
	return models.ChangeDetection{
		ID:           domain.NewDetectionID(),
		InstrumentID: "registry",
		Name:         name,
		Type:         changeType,
		DetectedAt:   now,
	}
}

func fieldChanges(old, new fingerprint.Entity, changed []string) []models.FieldChange {
	changes := make([]models.FieldChange, 0, len(changed))
	for _, field := range changed {
		changes = append(changes, models.FieldChange{
			Field:    field,
			OldValue: fieldValue(old, field),
			NewValue: fieldValue(new, field),
		})
	}
	return changes
}

func fieldValue(e fingerprint.Entity, field string) string {
	switch field {
	case fingerprint.FieldName:
		return e.Name
	case fingerprint.FieldNumber:
		return e.Number
	case fingerprint.FieldCategory:
		return e.Category
	case fingerprint.FieldStatus:
		return e.Status
	case fingerprint.FieldPromulgatedAt:
		return e.PromulgatedAt
	case fingerprint.FieldLastRevisedAt:
		return e.LastRevisedAt
	case fingerprint.FieldBody:
		return e.Body
	}
	return ""
}
