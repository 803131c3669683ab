package analytics

import (
	"fmt"
	"slices"
	"sort"

	"gonum.org/v1/gonum/stat"

	"FGReport/internal/domain/models"
)

// BucketForwardStats computes mean and win-rate of every horizon per
// bucket. Only rows holding all horizons contribute. Buckets follow order;
// labels outside it are appended alphabetically.
func BucketForwardStats(t *models.Table, horizons []int, order []string) (*models.BucketForwardTable, error) {
	if !t.Schema.HasBucket() {
		return nil, fmt.Errorf("%w: no bucket column", ErrHeatmapUnavailable)
	}
	for _, h := range horizons {
		if !t.Schema.HasForward(h) {
			return nil, fmt.Errorf("%w: no %dd forward return column", ErrHeatmapUnavailable, h)
		}
	}

	values := map[string]map[int][]float64{}
	for _, o := range t.Observations {
		if o.Bucket == "" {
			continue
		}
		fwd := make(map[int]float64, len(horizons))
		complete := true
		for _, h := range horizons {
			v, ok := o.ForwardReturn(h)
			if !ok {
				complete = false
				break
			}
			fwd[h] = v
		}
		if !complete {
			continue
		}
		byH, ok := values[o.Bucket]
		if !ok {
			byH = map[int][]float64{}
			values[o.Bucket] = byH
		}
		for h, v := range fwd {
			byH[h] = append(byH[h], v)
		}
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: no rows with every horizon", ErrHeatmapUnavailable)
	}

	buckets := make([]string, 0, len(values))
	for b := range values {
		buckets = append(buckets, b)
	}
	sort.Slice(buckets, func(i, j int) bool {
		ri, rj := bucketRank(order, buckets[i]), bucketRank(order, buckets[j])
		if ri != rj {
			return ri < rj
		}
		return buckets[i] < buckets[j]
	})

	out := &models.BucketForwardTable{Horizons: slices.Clone(horizons)}
	for _, b := range buckets {
		row := models.BucketForwardStat{
			Bucket:  b,
			Mean:    make(map[int]float64, len(horizons)),
			WinRate: make(map[int]float64, len(horizons)),
		}
		for _, h := range horizons {
			xs := values[b][h]
			row.Count = len(xs)
			row.Mean[h] = stat.Mean(xs, nil)
			row.WinRate[h] = winRate(xs)
		}
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}

func bucketRank(order []string, b string) int {
	if i := slices.Index(order, b); i >= 0 {
		return i
	}
	return len(order)
}
