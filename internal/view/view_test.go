package view_test

import (
	"testing"
	"time"

	"github.com/PaulBabatuyi/FileDrop/internal/models"
	"github.com/PaulBabatuyi/FileDrop/internal/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

func rec(id, name, mediaType string, size int64, minutes int) models.FileRecord {
	return models.FileRecord{
		ID:         id,
		Name:       name,
		MediaType:  mediaType,
		Size:       size,
		UploadedAt: base.Add(time.Duration(minutes) * time.Minute),
	}
}

func ids(records []models.FileRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func names(records []models.FileRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Name
	}
	return out
}

func sample() []models.FileRecord {
	return []models.FileRecord{
		rec("1", "b", "image/png", 5, 0),
		rec("2", "a", "text/plain", 2, 1),
	}
}

func TestFilterAndSortScenario(t *testing.T) {
	records := sample()

	images := view.FilterByType(records, "image")
	require.Len(t, images, 1)
	assert.Equal(t, "image/png", images[0].MediaType)

	sorted := view.Sort(records, view.SortByName, view.Asc)
	assert.Equal(t, []string{"a", "b"}, names(sorted))
	// input untouched
	assert.Equal(t, []string{"b", "a"}, names(records))
}

func TestFilterByType(t *testing.T) {
	records := append(sample(),
		rec("3", "c.json", "application/json", 9, 2),
		rec("4", "d", "", 1, 3),
		rec("5", "e", "imagex/png", 1, 4),
	)

	assert.Len(t, view.FilterByType(records, view.AllTypes), 5)
	assert.Equal(t, []string{"1"}, ids(view.FilterByType(records, "image")))
	assert.Equal(t, []string{"3"}, ids(view.FilterByType(records, "application")))
	assert.Empty(t, view.FilterByType(records, "video"))
	assert.Empty(t, view.FilterByType(nil, "image"))
}

func TestFilterIsIdempotent(t *testing.T) {
	records := append(sample(), rec("3", "c", "image/jpeg", 1, 5))

	for _, filter := range []string{view.AllTypes, "image", "text", "audio"} {
		once := view.FilterByType(records, filter)
		twice := view.FilterByType(once, filter)
		assert.Equal(t, once, twice, filter)
	}
}

func TestFileTypes(t *testing.T) {
	records := []models.FileRecord{
		rec("1", "a", "text/plain", 1, 0),
		rec("2", "b", "image/png", 1, 0),
		rec("3", "c", "text/csv", 1, 0),
		rec("4", "d", "", 1, 0),
	}
	assert.Equal(t, []string{"all", "text", "image", "other"}, view.FileTypes(records))
	assert.Equal(t, []string{"all"}, view.FileTypes(nil))
}

func TestSortKeys(t *testing.T) {
	records := []models.FileRecord{
		rec("1", "Zebra.txt", "text/plain", 30, 2),
		rec("2", "apple.png", "image/png", 10, 0),
		rec("3", "éclair.pdf", "application/pdf", 20, 1),
	}

	assert.Equal(t, []string{"2", "3", "1"}, ids(view.Sort(records, view.SortByName, view.Asc)))
	assert.Equal(t, []string{"1", "3", "2"}, ids(view.Sort(records, view.SortByName, view.Desc)))
	assert.Equal(t, []string{"2", "3", "1"}, ids(view.Sort(records, view.SortByDate, view.Asc)))
	assert.Equal(t, []string{"1", "3", "2"}, ids(view.Sort(records, view.SortByDate, view.Desc)))
	assert.Equal(t, []string{"3", "2", "1"}, ids(view.Sort(records, view.SortByType, view.Asc)))
	assert.Equal(t, []string{"2", "3", "1"}, ids(view.Sort(records, view.SortBySize, view.Asc)))
	assert.Equal(t, []string{"1", "3", "2"}, ids(view.Sort(records, view.SortBySize, view.Desc)))
}

func TestSortIsStable(t *testing.T) {
	records := []models.FileRecord{
		rec("1", "same", "text/plain", 7, 0),
		rec("2", "other", "image/png", 3, 0),
		rec("3", "same", "text/plain", 7, 0),
		rec("4", "same", "text/plain", 7, 0),
	}

	for _, key := range []view.SortKey{view.SortByName, view.SortByDate, view.SortByType, view.SortBySize} {
		for _, dir := range []view.Direction{view.Asc, view.Desc} {
			sorted := view.Sort(records, key, dir)

			var equal []string
			for _, r := range sorted {
				if r.Name == "same" {
					equal = append(equal, r.ID)
				}
			}
			assert.Equal(t, []string{"1", "3", "4"}, equal, "%s %s", key, dir)
		}
	}
}

func TestSortToggle(t *testing.T) {
	cfg := view.DefaultSort
	assert.Equal(t, view.SortConfig{Key: view.SortByDate, Direction: view.Desc}, cfg)

	cfg = cfg.Toggle(view.SortByDate)
	assert.Equal(t, view.Asc, cfg.Direction)
	cfg = cfg.Toggle(view.SortByDate)
	assert.Equal(t, view.Desc, cfg.Direction)
	cfg = cfg.Toggle(view.SortByName)
	assert.Equal(t, view.SortConfig{Key: view.SortByName, Direction: view.Asc}, cfg)
}

func TestParseSortOptions(t *testing.T) {
	key, err := view.ParseSortKey("Size")
	require.NoError(t, err)
	assert.Equal(t, view.SortBySize, key)

	_, err = view.ParseSortKey("colour")
	assert.Error(t, err)

	dir, err := view.ParseDirection("DESC")
	require.NoError(t, err)
	assert.Equal(t, view.Desc, dir)

	_, err = view.ParseDirection("up")
	assert.Error(t, err)
}

func TestUsedStorage(t *testing.T) {
	assert.Zero(t, view.UsedStorage(nil))
	assert.Equal(t, int64(7), view.UsedStorage(sample()))
}

func TestTiers(t *testing.T) {
	assert.Equal(t, view.TierNormal, view.TierFor(0))
	assert.Equal(t, view.TierNormal, view.TierFor(0.70))
	assert.Equal(t, view.TierWarning, view.TierFor(0.71))
	assert.Equal(t, view.TierWarning, view.TierFor(0.90))
	assert.Equal(t, view.TierCritical, view.TierFor(0.95))

	assert.Zero(t, view.QuotaFraction(10, 0))
	assert.InDelta(t, 0.25, view.QuotaFraction(25, 100), 1e-9)
}

func TestSummarize(t *testing.T) {
	s := view.Summarize(1536, 2048)
	assert.Equal(t, int64(1536), s.Used)
	assert.Equal(t, view.TierWarning, s.Tier)
	assert.Equal(t, "1.5 KiB", s.UsedHuman)
	assert.Equal(t, "512 B", s.FreeHuman)
}
