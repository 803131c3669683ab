package analytics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FGReport/internal/domain/models"
)

func TestBuildTrendHeatmap(t *testing.T) {
	// window 1 keeps the trend arithmetic readable
	tbl := buildTable([]row{
		{models.BucketFear, 100, nan},         // no trailing return yet
		{models.BucketFear, 103, 0.04},        // +3%  up
		{models.BucketFear, 106.09, -0.02},    // +3%  up
		{models.BucketGreed, 100, 0.01},       // -5.7% strong-down
		{models.BucketGreed, 100, nan},        // flat, no forward
		{"Unknown", 100, 0.5},                 // flat, bucket not on axis
		{models.BucketExtremeGreed, 100, 0.0}, // flat, zero return is not a win
		{models.BucketNeutral, 101, nan},      // latest: +1% flat
	})
	opts := DefaultHeatmapOptions(20)
	opts.Window = 1

	h, err := BuildTrendHeatmap(tbl, opts)
	require.NoError(t, err)

	assert.Equal(t, models.DefaultBucketOrder, h.Buckets)
	assert.Equal(t, models.TrendOrder, h.Trends)
	assert.Equal(t, 4, h.Rows)

	fi, ui, ok := h.Index(models.BucketFear, models.TrendUp)
	require.True(t, ok)
	assert.Equal(t, 2, h.Count[fi][ui])
	assert.InDelta(t, 0.01, h.Mean[fi][ui], 1e-12)
	assert.InDelta(t, 0.5, h.WinRate[fi][ui], 1e-12)

	gi, si, _ := h.Index(models.BucketGreed, models.TrendStrongDown)
	assert.Equal(t, 1, h.Count[gi][si])
	assert.InDelta(t, 1.0, h.WinRate[gi][si], 1e-12)

	ei, fl, _ := h.Index(models.BucketExtremeGreed, models.TrendFlat)
	assert.InDelta(t, 0.0, h.Mean[ei][fl], 1e-12)
	assert.InDelta(t, 0.0, h.WinRate[ei][fl], 1e-12)
	assert.True(t, h.Valid(ei, fl), "a zero mean is still a valid cell")

	require.NotNil(t, h.Current)
	assert.Equal(t, models.Cell{Bucket: models.BucketNeutral, Trend: models.TrendFlat}, *h.Current)

	assert.Len(t, h.Records(), 3)
}

func TestBuildTrendHeatmapEmptyCellsAreMissing(t *testing.T) {
	tbl := buildTable([]row{
		{models.BucketFear, 100, nan},
		{models.BucketFear, 110, 0.02},
	})
	opts := DefaultHeatmapOptions(20)
	opts.Window = 1

	h, err := BuildTrendHeatmap(tbl, opts)
	require.NoError(t, err)

	valid := 0
	for i := range h.Buckets {
		for j := range h.Trends {
			if h.Count[i][j] == 0 {
				assert.True(t, math.IsNaN(h.Mean[i][j]), "mean[%d][%d] must be missing", i, j)
				assert.True(t, math.IsNaN(h.WinRate[i][j]), "winrate[%d][%d] must be missing", i, j)
				assert.False(t, h.Valid(i, j))
				continue
			}
			valid++
		}
	}
	assert.Equal(t, 1, valid)
}

func TestBuildTrendHeatmapMatricesShareShape(t *testing.T) {
	tables := []*models.Table{
		buildTable(nil),
		buildTable([]row{{models.BucketFear, 100, 0.1}}),
		buildTable([]row{{"", 100, 0.1}, {models.BucketGreed, 90, -0.1}, {models.BucketGreed, 95, 0.2}}),
	}
	for _, tbl := range tables {
		h, err := BuildTrendHeatmap(tbl, DefaultHeatmapOptions(20))
		require.NoError(t, err)

		require.Len(t, h.Mean, len(h.Buckets))
		require.Len(t, h.WinRate, len(h.Buckets))
		require.Len(t, h.Count, len(h.Buckets))
		for i := range h.Buckets {
			assert.Len(t, h.Mean[i], len(h.Trends))
			assert.Len(t, h.WinRate[i], len(h.Trends))
			assert.Len(t, h.Count[i], len(h.Trends))
		}
	}
}

func TestBuildTrendHeatmapUnavailable(t *testing.T) {
	noClose := buildTable([]row{{models.BucketFear, 100, 0.1}})
	noClose.Schema.CloseColumn = ""

	noBucket := buildTable([]row{{models.BucketFear, 100, 0.1}})
	noBucket.Schema.BucketColumn = ""

	for name, tbl := range map[string]*models.Table{"close": noClose, "bucket": noBucket} {
		_, err := BuildTrendHeatmap(tbl, DefaultHeatmapOptions(20))
		assert.ErrorIs(t, err, ErrHeatmapUnavailable, name)
	}

	_, err := BuildTrendHeatmap(buildTable(nil), DefaultHeatmapOptions(60))
	assert.ErrorIs(t, err, ErrHeatmapUnavailable, "horizon not in table")
}
