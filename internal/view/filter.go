// Package view derives what the file list shows from a snapshot of the
// store: type filter, sort order and quota usage. Everything here is pure
// and recomputed on each call.
package view

import "github.com/PaulBabatuyi/FileDrop/internal/models"

// AllTypes disables type filtering.
const AllTypes = "all"

// FilterByType keeps records whose primary media type equals typeFilter.
// The input slice is not modified.
func FilterByType(records []models.FileRecord, typeFilter string) []models.FileRecord {
	out := make([]models.FileRecord, 0, len(records))
	for _, r := range records {
		if typeFilter == AllTypes || r.PrimaryType() == typeFilter {
			out = append(out, r)
		}
	}
	return out
}

// FileTypes lists the filter options: "all" followed by every distinct
// primary type in first-seen order. A record without one shows as "other".
func FileTypes(records []models.FileRecord) []string {
	types := []string{AllTypes}
	seen := map[string]bool{AllTypes: true}
	for _, r := range records {
		t := r.PrimaryType()
		if t == "" {
			t = "other"
		}
		if !seen[t] {
			seen[t] = true
			types = append(types, t)
		}
	}
	return types
}
