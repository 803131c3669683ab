package repository

import (
	"context"
	"strconv"
	"strings"

	"FGReport/internal/domain/models"
	"FGReport/internal/domain/repository"
	"FGReport/pkg/util"
)

// CSVForwardSummarySource reads the precomputed forward summary table. The
// raw cells are kept for display; typed rows are extracted when bucket and
// horizon columns are recognised.
type CSVForwardSummarySource struct {
	path string
}

func NewCSVForwardSummarySource(path string) *CSVForwardSummarySource {
	return &CSVForwardSummarySource{path: path}
}

var summaryColumns = map[string][]string{
	"bucket":  {"bucket", "fg_bucket_1y", "fg_bucket", "bucket_label"},
	"horizon": {"horizon", "horizon_days", "h"},
	"win":     {"win_rate_pct", "winrate_pct", "win_rate"},
	"mean":    {"mean_pct", "mean_ret_pct", "mean"},
	"count":   {"count", "n"},
}

func (s *CSVForwardSummarySource) Load(ctx context.Context) (*models.ForwardSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	header, records, err := readCSV(s.path)
	if err != nil {
		return nil, err
	}

	out := &models.ForwardSummary{Header: header, Records: records}
	idx := map[string]int{}
	for field, names := range summaryColumns {
		idx[field] = -1
		for _, name := range names {
			if i := columnIndex(header, name); i >= 0 {
				idx[field] = i
				break
			}
		}
	}
	if idx["bucket"] < 0 || idx["horizon"] < 0 {
		return out, nil
	}

	for _, rec := range records {
		h, ok := parseHorizon(field(rec, idx["horizon"]))
		if !ok {
			continue
		}
		row := models.ForwardSummaryRow{
			Bucket:  strings.TrimSpace(field(rec, idx["bucket"])),
			Horizon: h,
		}
		row.WinRatePct, _ = util.ParsePercent(field(rec, idx["win"]))
		row.MeanPct, _ = util.ParsePercent(field(rec, idx["mean"]))
		row.Count = util.ParseIntDefault(strings.TrimSpace(field(rec, idx["count"])), 0)
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}

// parseHorizon accepts "20", "20d" and "fwd_20d".
func parseHorizon(s string) (int, bool) {
	s = strings.TrimSpace(strings.ToLower(s))
	s = strings.TrimPrefix(s, "fwd_")
	s = strings.TrimSuffix(s, "d")
	n, err := strconv.Atoi(s)
	return n, err == nil && n > 0
}

func columnIndex(header []string, name string) int {
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")), name) {
			return i
		}
	}
	return -1
}

func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return rec[i]
}

var _ repository.ForwardSummarySource = (*CSVForwardSummarySource)(nil)
