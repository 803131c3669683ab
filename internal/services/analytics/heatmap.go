package analytics

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"

	"FGReport/internal/domain/models"
)

// ErrHeatmapUnavailable means the table lacks a column the heat-map needs.
var ErrHeatmapUnavailable = errors.New("heatmap unavailable")

// HeatmapOptions parameterizes BuildTrendHeatmap.
type HeatmapOptions struct {
	Horizon     int
	Window      int
	BucketOrder []string
	TrendOrder  []models.TrendBin
	Bands       models.TrendBands
}

// DefaultHeatmapOptions returns the production settings for a horizon.
func DefaultHeatmapOptions(horizon int) HeatmapOptions {
	return HeatmapOptions{
		Horizon:     horizon,
		Window:      5,
		BucketOrder: models.DefaultBucketOrder,
		TrendOrder:  models.TrendOrder,
		Bands:       models.DefaultTrendBands,
	}
}

// BuildTrendHeatmap cross-tabulates the forward return at opts.Horizon by
// sentiment bucket and trailing-return trend bin. Rows without a bucket, a
// trend bin or a forward return are dropped. Buckets outside BucketOrder
// never enter a cell.
func BuildTrendHeatmap(t *models.Table, opts HeatmapOptions) (*models.TrendHeatmap, error) {
	switch {
	case !t.Schema.HasBucket():
		return nil, fmt.Errorf("%w: no bucket column", ErrHeatmapUnavailable)
	case !t.Schema.HasClose():
		return nil, fmt.Errorf("%w: no close column", ErrHeatmapUnavailable)
	case !t.Schema.HasForward(opts.Horizon):
		return nil, fmt.Errorf("%w: no %dd forward return column", ErrHeatmapUnavailable, opts.Horizon)
	}

	nb, nt := len(opts.BucketOrder), len(opts.TrendOrder)
	groups := make([][][]float64, nb)
	for i := range groups {
		groups[i] = make([][]float64, nt)
	}

	closes := t.Closes()
	var latestCell *models.Cell
	rows := 0
	for i, o := range t.Observations {
		trend := ClassifyTrend(TrailingReturnAt(closes, i, opts.Window), opts.Bands)
		if i == len(t.Observations)-1 && o.Bucket != "" && trend != models.TrendNA {
			latestCell = &models.Cell{Bucket: o.Bucket, Trend: trend}
		}

		fwd, ok := o.ForwardReturn(opts.Horizon)
		if !ok || o.Bucket == "" || trend == models.TrendNA {
			continue
		}
		bi := slices.Index(opts.BucketOrder, o.Bucket)
		ti := slices.Index(opts.TrendOrder, trend)
		if bi < 0 || ti < 0 {
			continue
		}
		groups[bi][ti] = append(groups[bi][ti], fwd)
		rows++
	}

	h := &models.TrendHeatmap{
		Horizon: opts.Horizon,
		Window:  opts.Window,
		Buckets: slices.Clone(opts.BucketOrder),
		Trends:  slices.Clone(opts.TrendOrder),
		Mean:    nanMatrix(nb, nt),
		WinRate: nanMatrix(nb, nt),
		Count:   make([][]int, nb),
		Rows:    rows,
		Current: latestCell,
	}
	for i := range groups {
		h.Count[i] = make([]int, nt)
		for j, xs := range groups[i] {
			if len(xs) == 0 {
				continue
			}
			h.Mean[i][j] = stat.Mean(xs, nil)
			h.WinRate[i][j] = winRate(xs)
			h.Count[i][j] = len(xs)
		}
	}
	return h, nil
}

// winRate is the fraction of strictly positive values.
func winRate(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	wins := 0
	for _, x := range xs {
		if x > 0 {
			wins++
		}
	}
	return float64(wins) / float64(len(xs))
}

func nanMatrix(rows, cols int) [][]float64 {
	m := make([][]float64, rows)
	for i := range m {
		m[i] = make([]float64, cols)
		for j := range m[i] {
			m[i][j] = math.NaN()
		}
	}
	return m
}
