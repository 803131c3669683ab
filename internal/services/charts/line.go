package charts

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"FGReport/internal/domain/models"
)

var (
	lineColor  = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	guideColor = color.RGBA{R: 150, G: 150, B: 150, A: 255}
)

// Fixed band guides on the 0-100 score scale.
var scoreGuides = []float64{25, 45, 55, 75}

func (r *Renderer) scoreLine(t *models.Table) (*models.Chart, error) {
	if t == nil || t.Len() == 0 {
		return nil, nil
	}
	pts := make(plotter.XYs, 0, t.Len())
	for _, o := range t.Observations {
		if math.IsNaN(o.Score) {
			continue
		}
		pts = append(pts, plotter.XY{X: float64(o.Date.Unix()), Y: o.Score})
	}
	if len(pts) == 0 {
		return nil, nil
	}

	p := plot.New()
	p.Title.Text = "Fear & Greed Index (1Y rescaled)"
	p.Y.Label.Text = "score"
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01"}
	p.Add(plotter.NewGrid())

	lo, hi := pts[0].X, pts[len(pts)-1].X
	for _, g := range scoreGuides {
		guide, err := plotter.NewLine(plotter.XYs{{X: lo, Y: g}, {X: hi, Y: g}})
		if err != nil {
			return nil, err
		}
		guide.Color = guideColor
		guide.Dashes = []vg.Length{vg.Points(3), vg.Points(3)}
		p.Add(guide)
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}
	line.Color = lineColor
	line.Width = vg.Points(1.5)
	p.Add(line)

	png, err := r.drawPlot(p, r.width, r.height)
	if err != nil {
		return nil, err
	}
	return &models.Chart{
		Title:   "Composite score",
		Caption: fmt.Sprintf("%d sessions through %s", len(pts), t.AsOf().Format("2006-01-02")),
		PNG:     png,
	}, nil
}

// components stacks one aligned panel per present component over the last
// tail observations.
func (r *Renderer) components(t *models.Table, tail int) (*models.Chart, error) {
	if t == nil || len(t.Schema.Components) == 0 {
		return nil, nil
	}
	rows := t.Tail(tail)

	var plots [][]*plot.Plot
	for _, name := range t.Schema.Components {
		pts := make(plotter.XYs, 0, len(rows))
		for _, o := range rows {
			if v, ok := o.Component(name); ok {
				pts = append(pts, plotter.XY{X: float64(o.Date.Unix()), Y: v})
			}
		}
		if len(pts) == 0 {
			continue
		}
		p := plot.New()
		p.Title.Text = name
		p.X.Tick.Marker = plot.TimeTicks{Format: "01-02"}
		p.Add(plotter.NewGrid())
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, err
		}
		line.Color = lineColor
		p.Add(line)
		plots = append(plots, []*plot.Plot{p})
	}
	if len(plots) == 0 {
		return nil, nil
	}

	panel := 1.8 * vg.Inch
	h := panel * vg.Length(len(plots))
	c := r.canvas(r.width, h)
	dc := draw.New(c)
	tiles := draw.Tiles{
		Rows:      len(plots),
		Cols:      1,
		PadX:      vg.Millimeter,
		PadY:      3 * vg.Millimeter,
		PadTop:    2 * vg.Millimeter,
		PadBottom: 2 * vg.Millimeter,
		PadLeft:   2 * vg.Millimeter,
		PadRight:  2 * vg.Millimeter,
	}
	canvases := plot.Align(plots, tiles, dc)
	for i := range plots {
		plots[i][0].Draw(canvases[i][0])
	}

	png, err := r.encode(c)
	if err != nil {
		return nil, err
	}
	return &models.Chart{
		Title:   "Components",
		Caption: fmt.Sprintf("last %d sessions", len(rows)),
		PNG:     png,
	}, nil
}
