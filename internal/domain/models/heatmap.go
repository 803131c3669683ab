package models

import "math"

// Cell identifies one bucket x trend position.
type Cell struct {
	Bucket string   `json:"bucket"`
	Trend  TrendBin `json:"trend"`
}

// TrendHeatmap holds forward-return statistics per bucket x trend cell.
// Mean and WinRate share the shape len(Buckets) x len(Trends). A cell with
// Count 0 holds NaN in both matrices.
type TrendHeatmap struct {
	Horizon int
	Window  int
	Buckets []string
	Trends  []TrendBin
	Mean    [][]float64
	WinRate [][]float64
	Count   [][]int
	Rows    int   // observations that landed in some cell
	Current *Cell // latest row's cell, nil when it has no bucket or trend
}

// Valid reports whether cell (i, j) has observations.
func (h *TrendHeatmap) Valid(i, j int) bool {
	return h.Count[i][j] > 0 && !math.IsNaN(h.Mean[i][j])
}

// Index locates a cell by labels.
func (h *TrendHeatmap) Index(bucket string, trend TrendBin) (int, int, bool) {
	bi, ti := -1, -1
	for i, b := range h.Buckets {
		if b == bucket {
			bi = i
			break
		}
	}
	for j, t := range h.Trends {
		if t == trend {
			ti = j
			break
		}
	}
	return bi, ti, bi >= 0 && ti >= 0
}

// CurrentIndex returns the matrix position of Current.
func (h *TrendHeatmap) CurrentIndex() (int, int, bool) {
	if h.Current == nil {
		return -1, -1, false
	}
	return h.Index(h.Current.Bucket, h.Current.Trend)
}

// HeatmapCellRecord is one flattened cell, used for archiving.
type HeatmapCellRecord struct {
	Bucket  string
	Trend   TrendBin
	Mean    float64
	WinRate float64
	Count   int
	Current bool
}

// Records flattens valid cells in row-major order.
func (h *TrendHeatmap) Records() []HeatmapCellRecord {
	ci, cj, hasCurrent := h.CurrentIndex()
	var out []HeatmapCellRecord
	for i, b := range h.Buckets {
		for j, t := range h.Trends {
			if !h.Valid(i, j) {
				continue
			}
			out = append(out, HeatmapCellRecord{
				Bucket:  b,
				Trend:   t,
				Mean:    h.Mean[i][j],
				WinRate: h.WinRate[i][j],
				Count:   h.Count[i][j],
				Current: hasCurrent && i == ci && j == cj,
			})
		}
	}
	return out
}

// BucketForwardStat summarizes forward returns of one bucket.
type BucketForwardStat struct {
	Bucket  string
	Count   int
	Mean    map[int]float64
	WinRate map[int]float64
}

// BucketForwardTable is the bucket x horizon summary behind the forward heat-map.
type BucketForwardTable struct {
	Horizons []int
	Rows     []BucketForwardStat
}
