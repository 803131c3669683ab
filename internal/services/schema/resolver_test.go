package schema

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FGReport/internal/domain/repository"
)

func candidates() Candidates {
	return Candidates{
		Date:             []string{"날짜", "date", "Date"},
		Score:            []string{"fear_greed_1y_rescaled", "fear_greed"},
		Bucket:           []string{"fg_bucket_1y", "fg_bucket"},
		Close:            []string{"ks200_close", "close"},
		ForwardTemplates: []string{"fwd_ret_{n}d_1y", "fwd_ret_{n}d"},
		Horizons:         []int{20, 60},
		Components:       []string{"momentum", "breadth", "volatility"},
	}
}

func TestResolveCandidateOrder(t *testing.T) {
	header := []string{"\ufeff날짜", "fear_greed", "fear_greed_1y_rescaled", "fg_bucket_1y", "close", "fwd_ret_20d", "fwd_ret_20d_1y", "momentum", "volatility"}
	records := [][]string{
		{"2024-01-03", "40", "", "Fear", "101", "0.01", "", "30", ""},
		{"2024-01-02", "45", "", "Neutral", "100", "0.02", "", "35", ""},
	}

	tbl, err := NewResolver(candidates()).Resolve(header, records)
	require.NoError(t, err)

	s := tbl.Schema
	assert.Equal(t, "날짜", s.DateColumn)
	assert.Equal(t, "fear_greed", s.ScoreColumn, "empty preferred column falls through")
	assert.Equal(t, "fg_bucket_1y", s.BucketColumn)
	assert.Equal(t, "close", s.CloseColumn)
	assert.Equal(t, map[int]string{20: "fwd_ret_20d"}, s.ForwardColumns)
	assert.Equal(t, []string{"momentum"}, s.Components, "all-empty component is absent")
	assert.False(t, s.HasForward(60))

	require.Equal(t, 2, tbl.Len())
	first := tbl.Observations[0]
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), first.Date)
	assert.Equal(t, 45.0, first.Score)
	assert.Equal(t, "Neutral", first.Bucket)
	assert.Equal(t, 100.0, first.Close)
	assert.Equal(t, 0.02, first.Forward[20])
	assert.Equal(t, 35.0, first.Components["momentum"])
	assert.Equal(t, time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), tbl.AsOf())
}

func TestResolveDuplicateDatesKeepLast(t *testing.T) {
	header := []string{"date", "fear_greed", "fg_bucket"}
	records := [][]string{
		{"2024/01/05", "10", "Extreme Fear"},
		{"2024-01-04", "20", "Fear"},
		{"20240105", "12", "Extreme Fear"},
	}
	tbl, err := NewResolver(candidates()).Resolve(header, records)
	require.NoError(t, err)

	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, 20.0, tbl.Observations[0].Score)
	assert.Equal(t, 12.0, tbl.Observations[1].Score)
	assert.False(t, tbl.Schema.HasClose())
	assert.True(t, math.IsNaN(tbl.Observations[0].Close))
}

func TestResolveFractionColumnsRejectPercentAndDecimalComma(t *testing.T) {
	header := []string{"date", "fear_greed", "fg_bucket", "close", "fwd_ret_20d"}
	records := [][]string{
		{"2024-01-02", "45", "Neutral", "1,234.5", "3.1%"},
		{"2024-01-03", "40", "Fear", "1,240.0", "0,031"},
		{"2024-01-04", "38", "Fear", "1,250.0", "0.031"},
	}
	tbl, err := NewResolver(candidates()).Resolve(header, records)
	require.NoError(t, err)
	require.Equal(t, 3, tbl.Len())

	for i, o := range tbl.Observations[:2] {
		_, ok := o.ForwardReturn(20)
		assert.False(t, ok, "row %d must not be rescaled into a forward return", i)
	}
	fwd, ok := tbl.Observations[2].ForwardReturn(20)
	require.True(t, ok)
	assert.Equal(t, 0.031, fwd)
	assert.Equal(t, 1234.5, tbl.Observations[0].Close)
}

func TestResolveMissingRequiredColumn(t *testing.T) {
	tests := []struct {
		name   string
		header []string
	}{
		{"date", []string{"when", "fear_greed", "fg_bucket"}},
		{"score", []string{"date", "score", "fg_bucket"}},
		{"bucket", []string{"date", "fear_greed", "label"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewResolver(candidates()).Resolve(tt.header, [][]string{{"2024-01-01", "1", "Fear"}})
			assert.ErrorIs(t, err, repository.ErrColumnMissing)
			assert.Contains(t, err.Error(), tt.name)
		})
	}
}

func TestResolveUndefinedCells(t *testing.T) {
	header := []string{"date", "fear_greed", "fg_bucket", "close", "fwd_ret_20d"}
	records := [][]string{
		{"2024-01-01", "50", "Neutral", "2,501.5", "nan"},
		{"2024-01-02", "-", "Neutral", "", "0.03"},
		{"", "1", "Fear", "1", "1"},
		{"2024-01-03", "51"},
	}
	tbl, err := NewResolver(candidates()).Resolve(header, records)
	require.NoError(t, err)
	require.Equal(t, 3, tbl.Len(), "blank date rows are skipped")

	assert.Equal(t, 2501.5, tbl.Observations[0].Close)
	_, ok := tbl.Observations[0].ForwardReturn(20)
	assert.False(t, ok)
	assert.True(t, math.IsNaN(tbl.Observations[1].Score))
	assert.True(t, math.IsNaN(tbl.Observations[1].Close))
	assert.Equal(t, "", tbl.Observations[2].Bucket, "short record")
}

func TestResolveInvalidDate(t *testing.T) {
	_, err := NewResolver(candidates()).Resolve(
		[]string{"date", "fear_greed", "fg_bucket"},
		[][]string{{"2024-01-01", "1", "Fear"}, {"someday", "2", "Fear"}},
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 3")
}
