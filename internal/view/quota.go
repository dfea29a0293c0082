package view

import (
	"github.com/PaulBabatuyi/FileDrop/internal/models"
	"github.com/dustin/go-humanize"
)

type Tier string

const (
	TierNormal   Tier = "normal"
	TierWarning  Tier = "warning"
	TierCritical Tier = "critical"
)

const (
	warningThreshold  = 0.70
	criticalThreshold = 0.90
)

// UsedStorage sums the raw sizes of records.
func UsedStorage(records []models.FileRecord) int64 {
	var total int64
	for _, r := range records {
		total += r.Size
	}
	return total
}

// QuotaFraction is used/total; zero when total is not positive.
func QuotaFraction(used, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(used) / float64(total)
}

// TierFor picks the display tier for a usage fraction.
func TierFor(fraction float64) Tier {
	switch {
	case fraction > criticalThreshold:
		return TierCritical
	case fraction > warningThreshold:
		return TierWarning
	default:
		return TierNormal
	}
}

// StorageSummary is the storage read model shown next to the list.
type StorageSummary struct {
	Used      int64   `json:"used_storage"`
	Total     int64   `json:"total_storage"`
	Fraction  float64 `json:"fraction"`
	Tier      Tier    `json:"tier"`
	UsedHuman string  `json:"used_human"`
	FreeHuman string  `json:"free_human"`
}

func Summarize(used, total int64) StorageSummary {
	fraction := QuotaFraction(used, total)
	free := max(total-used, 0)
	return StorageSummary{
		Used:      used,
		Total:     total,
		Fraction:  fraction,
		Tier:      TierFor(fraction),
		UsedHuman: FormatBytes(used),
		FreeHuman: FormatBytes(free),
	}
}

// FormatBytes renders n in binary units ("1.5 KiB").
func FormatBytes(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}
