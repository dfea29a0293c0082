package view

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/PaulBabatuyi/FileDrop/internal/models"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

type SortKey string

const (
	SortByName SortKey = "name"
	SortByDate SortKey = "date"
	SortByType SortKey = "type"
	SortBySize SortKey = "size"
)

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// SortConfig is the current sort selection. The list starts as date desc.
type SortConfig struct {
	Key       SortKey   `json:"key"`
	Direction Direction `json:"direction"`
}

var DefaultSort = SortConfig{Key: SortByDate, Direction: Desc}

// Toggle returns the selection after the user picks key: picking the
// current key while ascending flips to descending, anything else sorts
// ascending by key.
func (c SortConfig) Toggle(key SortKey) SortConfig {
	if c.Key == key && c.Direction == Asc {
		return SortConfig{Key: key, Direction: Desc}
	}
	return SortConfig{Key: key, Direction: Asc}
}

func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(strings.ToLower(s)); k {
	case SortByName, SortByDate, SortByType, SortBySize:
		return k, nil
	}
	return "", fmt.Errorf("unknown sort key %q", s)
}

func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToLower(s)); d {
	case Asc, Desc:
		return d, nil
	}
	return "", fmt.Errorf("unknown sort direction %q", s)
}

// Sort returns a sorted copy of records. Names compare with English
// collation; equal keys keep their input order in both directions.
func Sort(records []models.FileRecord, key SortKey, dir Direction) []models.FileRecord {
	out := slices.Clone(records)

	var compare func(a, b models.FileRecord) int
	switch key {
	case SortByName:
		// a Collator keeps scratch buffers, so one per call
		col := collate.New(language.English)
		compare = func(a, b models.FileRecord) int { return col.CompareString(a.Name, b.Name) }
	case SortByDate:
		compare = func(a, b models.FileRecord) int { return a.UploadedAt.Compare(b.UploadedAt) }
	case SortByType:
		compare = func(a, b models.FileRecord) int { return strings.Compare(a.MediaType, b.MediaType) }
	case SortBySize:
		compare = func(a, b models.FileRecord) int { return cmp.Compare(a.Size, b.Size) }
	default:
		return out
	}

	if dir == Desc {
		asc := compare
		compare = func(a, b models.FileRecord) int { return -asc(a, b) }
	}
	slices.SortStableFunc(out, compare)
	return out
}
