package service

import (
	"context"

	"FGReport/internal/domain/models"
)

// Chart names.
const (
	ChartFGLine              = "fg_line"
	ChartComponents          = "components"
	ChartForwardHeatmap      = "forward_heatmap"
	ChartTrendHeatmapMean    = "trend_heatmap_mean"
	ChartTrendHeatmapWinRate = "trend_heatmap_winrate"
)

// AllCharts is the default chart set in display order.
var AllCharts = []string{
	ChartFGLine,
	ChartComponents,
	ChartForwardHeatmap,
	ChartTrendHeatmapMean,
	ChartTrendHeatmapWinRate,
}

// ChartData is the input of one rendering pass. BucketStats and Heatmap
// are nil when their aggregates are unavailable.
type ChartData struct {
	Table         *models.Table
	BucketStats   *models.BucketForwardTable
	Heatmap       *models.TrendHeatmap
	Charts        []string
	ComponentTail int
}

// ChartRenderer turns analysed data into PNG charts. Charts whose data is
// unavailable are reported in skipped instead of failing the run.
type ChartRenderer interface {
	Render(ctx context.Context, data ChartData) (charts []models.Chart, skipped []string, err error)
}

// ReportBuilder renders the HTML document.
type ReportBuilder interface {
	Build(ctx context.Context, in *models.ReportInput, imageMode string) (*models.Report, error)
}
