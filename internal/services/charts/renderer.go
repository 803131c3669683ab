package charts

import (
	"bytes"
	"context"
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"FGReport/internal/domain/models"
	"FGReport/internal/domain/service"
	"FGReport/pkg/logger"
)

// Renderer draws report charts as PNG images with gonum/plot.
type Renderer struct {
	width  vg.Length
	height vg.Length
	dpi    int
	l      *logger.Logger
}

// Option configures Renderer.
type Option func(*Renderer)

// WithSize sets the default chart size.
func WithSize(w, h vg.Length) Option {
	return func(r *Renderer) {
		r.width, r.height = w, h
	}
}

// WithDPI sets the output resolution.
func WithDPI(dpi int) Option {
	return func(r *Renderer) {
		r.dpi = dpi
	}
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(r *Renderer) {
		r.l = l
	}
}

func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		width:  9 * vg.Inch,
		height: 4 * vg.Inch,
		dpi:    110,
		l:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render draws every requested chart in order. A chart whose data is
// missing is reported in skipped; drawing failures abort.
func (r *Renderer) Render(ctx context.Context, data service.ChartData) ([]models.Chart, []string, error) {
	names := data.Charts
	if len(names) == 0 {
		names = service.AllCharts
	}

	var out []models.Chart
	var skipped []string
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return out, skipped, err
		}

		var (
			chart *models.Chart
			err   error
		)
		switch name {
		case service.ChartFGLine:
			chart, err = r.scoreLine(data.Table)
		case service.ChartComponents:
			chart, err = r.components(data.Table, data.ComponentTail)
		case service.ChartForwardHeatmap:
			chart, err = r.forwardHeatmap(data.BucketStats)
		case service.ChartTrendHeatmapMean:
			chart, err = r.trendHeatmap(data.Heatmap, false)
		case service.ChartTrendHeatmapWinRate:
			chart, err = r.trendHeatmap(data.Heatmap, true)
		default:
			return out, skipped, fmt.Errorf("unknown chart %q", name)
		}
		if err != nil {
			return out, skipped, fmt.Errorf("render %s: %w", name, err)
		}
		if chart == nil {
			r.l.Warn("chart skipped, data unavailable", logger.String("chart", name))
			skipped = append(skipped, name)
			continue
		}
		chart.Name = name
		out = append(out, *chart)
	}
	return out, skipped, nil
}

func (r *Renderer) canvas(w, h vg.Length) *vgimg.Canvas {
	return vgimg.NewWith(vgimg.UseWH(w, h), vgimg.UseDPI(r.dpi))
}

func (r *Renderer) encode(c *vgimg.Canvas) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) drawPlot(p *plot.Plot, w, h vg.Length) ([]byte, error) {
	c := r.canvas(w, h)
	p.Draw(draw.New(c))
	return r.encode(c)
}
