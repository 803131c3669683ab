package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FGReport/internal/domain/models"
)

func TestBucketForwardStats(t *testing.T) {
	tbl := buildTable([]row{
		{models.BucketGreed, 100, -0.02},
		{"Capitulation", 100, 0.10},
		{models.BucketFear, 100, 0.03},
		{models.BucketFear, 100, -0.01},
		{models.BucketFear, 100, nan},
		{"", 100, 0.5},
	})
	tbl.Schema.ForwardColumns[60] = "fwd_ret_60d"
	for i := range tbl.Observations {
		if i != 4 {
			tbl.Observations[i].Forward[60] = 0.05
		}
	}

	got, err := BucketForwardStats(tbl, []int{20, 60}, models.DefaultBucketOrder)
	require.NoError(t, err)

	require.Len(t, got.Rows, 3)
	assert.Equal(t, models.BucketFear, got.Rows[0].Bucket)
	assert.Equal(t, models.BucketGreed, got.Rows[1].Bucket)
	assert.Equal(t, "Capitulation", got.Rows[2].Bucket, "unknown labels go last")

	fear := got.Rows[0]
	assert.Equal(t, 2, fear.Count)
	assert.InDelta(t, 0.01, fear.Mean[20], 1e-12)
	assert.InDelta(t, 0.5, fear.WinRate[20], 1e-12)
	assert.InDelta(t, 1.0, fear.WinRate[60], 1e-12)
}

func TestBucketForwardStatsNeedsEveryHorizon(t *testing.T) {
	tbl := buildTable([]row{{models.BucketFear, 100, 0.1}})
	_, err := BucketForwardStats(tbl, []int{20, 60}, models.DefaultBucketOrder)
	assert.ErrorIs(t, err, ErrHeatmapUnavailable)
}
