package voxel

import (
	"sort"

	"github.com/voxel-density-service/internal/domain"
	"gonum.org/v1/gonum/stat"
)

// DefaultTopCategories is K for the top-K category summary.
const DefaultTopCategories = 10

// StatsOptions configures Aggregate.
type StatsOptions struct {
	// TopCategories > 0 enables the category summary with that many entries.
	TopCategories int
}

// Aggregate reduces a classified map to global statistics.
func Aggregate(m *domain.ClassifiedMap, grid domain.Grid, opts StatsOptions) domain.VoxelStatistics {
	stats := domain.VoxelStatistics{
		TotalCells:    grid.TotalCount,
		NonEmptyCells: m.Len(),
	}
	stats.EmptyCells = stats.TotalCells - stats.NonEmptyCells
	if stats.EmptyCells < 0 {
		stats.EmptyCells = 0
	}
	if m.Len() == 0 {
		return stats
	}

	counts := make([]float64, 0, m.Len())
	totals := make(map[string]int)
	stats.MinCount = int(^uint(0) >> 1)
	m.Each(func(c *domain.CellInfo) {
		stats.TotalRecords += c.Count
		if c.Count < stats.MinCount {
			stats.MinCount = c.Count
		}
		if c.Count > stats.MaxCount {
			stats.MaxCount = c.Count
		}
		counts = append(counts, float64(c.Count))
		for k, n := range c.CategoryTotals {
			totals[k] += n
		}
	})
	stats.AvgCount = float64(stats.TotalRecords) / float64(stats.NonEmptyCells)

	sort.Float64s(counts)
	stats.MedianCount = stat.Quantile(0.5, stat.Empirical, counts, nil)
	stats.P90Count = stat.Quantile(0.9, stat.Empirical, counts, nil)

	if opts.TopCategories > 0 && len(totals) > 0 {
		stats.TopCategories = topCategories(totals, opts.TopCategories)
	}
	return stats
}

func topCategories(totals map[string]int, k int) []domain.CategoryTotal {
	out := make([]domain.CategoryTotal, 0, len(totals))
	for key, n := range totals {
		out = append(out, domain.CategoryTotal{Key: key, Total: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Key < out[j].Key
	})
	if len(out) > k {
		out = out[:k]
	}
	return out
}

// TopNKeys returns the n cells with the highest count. Ties keep the map's
// insertion order.
func TopNKeys(m *domain.ClassifiedMap, n int) []domain.CellKey {
	keys := m.Keys()
	sort.SliceStable(keys, func(i, j int) bool {
		a, _ := m.Get(keys[i])
		b, _ := m.Get(keys[j])
		return a.Count > b.Count
	})
	if n < 0 {
		n = 0
	}
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}
