package charts

import (
	"fmt"
	"image/color"
	"math"
	"slices"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/brewer"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"FGReport/internal/domain/models"
)

var missingColor = color.RGBA{R: 210, G: 210, B: 210, A: 255}

// matrix adapts a row-major matrix to plotter.GridXYZ with row 0 drawn on
// top.
type matrix struct {
	z [][]float64
}

func (m matrix) Dims() (c, r int) { return len(m.z[0]), len(m.z) }
func (m matrix) Z(c, r int) float64 {
	return m.z[len(m.z)-1-r][c]
}
func (m matrix) X(c int) float64 { return float64(c) }
func (m matrix) Y(r int) float64 { return float64(r) }

// heatmapLayout describes one annotated matrix.
type heatmapLayout struct {
	title   string
	xLabels []string
	yLabels []string
	z       [][]float64 // colour values, NaN drawn grey
	labels  [][]string
	min     float64
	max     float64
	outline [2]int // row, col of a highlighted cell, -1 for none
}

func divergingPalette() (palette.Palette, error) {
	return brewer.GetPalette(brewer.TypeDiverging, "RdYlGn", 11)
}

func (r *Renderer) drawHeatmap(s heatmapLayout) ([]byte, error) {
	pal, err := divergingPalette()
	if err != nil {
		return nil, err
	}

	p := plot.New()
	p.Title.Text = s.title

	hm := plotter.NewHeatMap(matrix{z: s.z}, pal)
	hm.NaN = missingColor
	hm.Min, hm.Max = s.min, s.max
	if !(hm.Min < hm.Max) {
		hm.Min, hm.Max = hm.Min-1, hm.Min+1
	}
	p.Add(hm)

	rows := len(s.z)
	var xys plotter.XYs
	var texts []string
	for i, row := range s.labels {
		for j, txt := range row {
			xys = append(xys, plotter.XY{X: float64(j), Y: float64(rows - 1 - i)})
			texts = append(texts, txt)
		}
	}
	labels, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: texts})
	if err != nil {
		return nil, err
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i].XAlign = draw.XCenter
		labels.TextStyle[i].YAlign = draw.YCenter
	}
	p.Add(labels)

	if ri, cj := s.outline[0], s.outline[1]; ri >= 0 && cj >= 0 {
		x, y := float64(cj), float64(rows-1-ri)
		box, err := plotter.NewPolygon(plotter.XYs{
			{X: x - 0.5, Y: y - 0.5}, {X: x + 0.5, Y: y - 0.5},
			{X: x + 0.5, Y: y + 0.5}, {X: x - 0.5, Y: y + 0.5},
		})
		if err != nil {
			return nil, err
		}
		box.Width = vg.Points(3)
		box.LineStyle.Color = color.Black
		p.Add(box)
	}

	p.NominalX(s.xLabels...)
	ys := slices.Clone(s.yLabels)
	slices.Reverse(ys)
	p.NominalY(ys...)

	w := vg.Length(len(s.xLabels))*1.3*vg.Inch + 1.5*vg.Inch
	h := vg.Length(rows)*0.6*vg.Inch + 1.2*vg.Inch
	return r.drawPlot(p, w, h)
}

// trendHeatmap renders the bucket x trend matrix of mean forward return
// or of win rate.
func (r *Renderer) trendHeatmap(hm *models.TrendHeatmap, winRate bool) (*models.Chart, error) {
	if hm == nil || len(hm.Buckets) == 0 || len(hm.Trends) == 0 {
		return nil, nil
	}

	src := hm.Mean
	if winRate {
		src = hm.WinRate
	}
	z := make([][]float64, len(hm.Buckets))
	labels := make([][]string, len(hm.Buckets))
	absMax := 0.0
	for i := range hm.Buckets {
		z[i] = make([]float64, len(hm.Trends))
		labels[i] = make([]string, len(hm.Trends))
		for j := range hm.Trends {
			if !hm.Valid(i, j) {
				z[i][j] = math.NaN()
				labels[i][j] = "n/a"
				continue
			}
			v := src[i][j]
			z[i][j] = v
			if winRate {
				labels[i][j] = fmt.Sprintf("%.0f%% (n=%d)", v*100, hm.Count[i][j])
			} else {
				labels[i][j] = fmt.Sprintf("%+.2f%% (n=%d)", v*100, hm.Count[i][j])
				absMax = math.Max(absMax, math.Abs(v))
			}
		}
	}

	layout := heatmapLayout{
		xLabels: trendLabels(hm.Trends),
		yLabels: hm.Buckets,
		z:       z,
		labels:  labels,
		outline: [2]int{-1, -1},
	}
	if ci, cj, ok := hm.CurrentIndex(); ok {
		layout.outline = [2]int{ci, cj}
	}

	chart := &models.Chart{}
	if winRate {
		layout.title = fmt.Sprintf("%dD forward win rate by bucket x %dD trend", hm.Horizon, hm.Window)
		layout.min, layout.max = 0, 1
		chart.Title = fmt.Sprintf("Win rate: bucket x %d-day trend (%dD forward)", hm.Window, hm.Horizon)
	} else {
		layout.title = fmt.Sprintf("%dD forward mean return by bucket x %dD trend", hm.Horizon, hm.Window)
		layout.min, layout.max = -absMax, absMax
		chart.Title = fmt.Sprintf("Mean return: bucket x %d-day trend (%dD forward)", hm.Window, hm.Horizon)
	}
	chart.Caption = fmt.Sprintf("%d observations, outlined cell is today", hm.Rows)

	png, err := r.drawHeatmap(layout)
	if err != nil {
		return nil, err
	}
	chart.PNG = png
	return chart, nil
}

// forwardHeatmap renders mean and win-rate per horizon (rows) by bucket
// (columns). Each row is coloured on its own scale.
func (r *Renderer) forwardHeatmap(st *models.BucketForwardTable) (*models.Chart, error) {
	if st == nil || len(st.Rows) == 0 || len(st.Horizons) == 0 {
		return nil, nil
	}

	buckets := make([]string, len(st.Rows))
	for i, row := range st.Rows {
		buckets[i] = row.Bucket
	}

	var yLabels []string
	var z [][]float64
	var labels [][]string
	for _, h := range st.Horizons {
		mean := make([]float64, len(st.Rows))
		win := make([]float64, len(st.Rows))
		meanTxt := make([]string, len(st.Rows))
		winTxt := make([]string, len(st.Rows))
		for i, row := range st.Rows {
			mean[i], win[i] = row.Mean[h], row.WinRate[h]
			meanTxt[i] = fmt.Sprintf("%+.2f%%", mean[i]*100)
			winTxt[i] = fmt.Sprintf("%.0f%%", win[i]*100)
		}
		yLabels = append(yLabels, fmt.Sprintf("mean_%dd", h), fmt.Sprintf("winrate_%dd", h))
		z = append(z, normalize(mean), normalize(win))
		labels = append(labels, meanTxt, winTxt)
	}

	png, err := r.drawHeatmap(heatmapLayout{
		title:   "Forward returns by bucket",
		xLabels: buckets,
		yLabels: yLabels,
		z:       z,
		labels:  labels,
		min:     0,
		max:     1,
		outline: [2]int{-1, -1},
	})
	if err != nil {
		return nil, err
	}
	return &models.Chart{
		Title:   "Forward returns by bucket",
		Caption: fmt.Sprintf("horizons %v, colour scaled per row", st.Horizons),
		PNG:     png,
	}, nil
}

// normalize maps xs onto [0, 1]. A constant row maps to 0.5.
func normalize(xs []float64) []float64 {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, x := range xs {
		if math.IsNaN(x) {
			continue
		}
		lo, hi = math.Min(lo, x), math.Max(hi, x)
	}
	out := make([]float64, len(xs))
	for i, x := range xs {
		switch {
		case math.IsNaN(x):
			out[i] = math.NaN()
		case hi > lo:
			out[i] = (x - lo) / (hi - lo)
		default:
			out[i] = 0.5
		}
	}
	return out
}

func trendLabels(ts []models.TrendBin) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = string(t)
	}
	return out
}
