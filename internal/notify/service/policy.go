package service

import (
	monitoringModel "lexwatch/internal/monitoring/models"
	scanmodels "lexwatch/internal/scan/models"
)

// ShouldNotify reports whether a diff crosses the threshold. Buckets are
// disjunctive: any single bucket reaching its minimum is sufficient.
func ShouldNotify(d *scanmodels.Diff, threshold monitoringModel.Threshold) bool {
	return d.Summary.TotalNew >= threshold.MinNew ||
		d.Summary.TotalModified >= threshold.MinModified ||
		d.Summary.TotalRemoved >= threshold.MinRemoved
}

// FilterByCategory narrows a diff to the watched categories and recomputes
// the summary. An empty category set watches everything and returns the diff
// untouched.
func FilterByCategory(d *scanmodels.Diff, categories []string) *scanmodels.Diff {
	if len(categories) == 0 {
		return d
	}
	watched := make(map[string]bool, len(categories))
	for _, c := range categories {
		watched[c] = true
	}

	filtered := &scanmodels.Diff{
		PreviousSnapshotID: d.PreviousSnapshotID,
		CurrentSnapshotID:  d.CurrentSnapshotID,
		DetectedAt:         d.DetectedAt,
		New:                keepCategories(d.New, watched),
		Modified:           keepCategories(d.Modified, watched),
		Removed:            keepCategories(d.Removed, watched),
	}
	filtered.Recompute()
	return filtered
}

// FilterByChangeType narrows a diff to the watched change types and
// recomputes the summary. An empty set watches every change type.
func FilterByChangeType(d *scanmodels.Diff, changeTypes []scanmodels.ChangeType) *scanmodels.Diff {
	if len(changeTypes) == 0 {
		return d
	}
	watched := make(map[scanmodels.ChangeType]bool, len(changeTypes))
	for _, ct := range changeTypes {
		watched[ct] = true
	}

	filtered := &scanmodels.Diff{
		PreviousSnapshotID: d.PreviousSnapshotID,
		CurrentSnapshotID:  d.CurrentSnapshotID,
		DetectedAt:         d.DetectedAt,
		New:                keepTypes(d.New, watched),
		Modified:           keepTypes(d.Modified, watched),
		Removed:            keepTypes(d.Removed, watched),
	}
	filtered.Recompute()
	return filtered
}

func keepCategories(entries []scanmodels.ChangeDetection, watched map[string]bool) []scanmodels.ChangeDetection {
	var out []scanmodels.ChangeDetection
	for _, entry := range entries {
		if watched[entry.Category] {
			out = append(out, entry)
		}
	}
	return out
}

func keepTypes(entries []scanmodels.ChangeDetection, watched map[scanmodels.ChangeType]bool) []scanmodels.ChangeDetection {
	var out []scanmodels.ChangeDetection
	for _, entry := range entries {
		if watched[entry.Type] {
			out = append(out, entry)
		}
	}
	return out
}
