package report

import (
	"bytes"
	"context"
	"embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"math"
	"strconv"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"FGReport/internal/domain/models"
	"FGReport/internal/domain/service"
	"FGReport/pkg/logger"
)

//go:embed templates/report.html.tmpl
var templates embed.FS

// DefaultNotes is shown when no notes file is configured.
const DefaultNotes = `This page is regenerated every trading day from the repository's ` + "`data/`" + ` inputs.
The root ` + "`index.html`" + ` always holds a copy of the latest report.

- **Level rule**: fear buckets lean to expanding exposure, greed buckets to reducing it.
- **Trend rule**: both trailing returns positive expands, both negative reduces.
- Heat-map cells show the realized forward return for each bucket and trend bin; the outlined cell is today.
`

// Builder renders reports from an embedded HTML template.
type Builder struct {
	tmpl      *template.Template
	md        goldmark.Markdown
	assetsDir string
	l         *logger.Logger
}

// Option configures Builder.
type Option func(*Builder)

// WithAssetsDir sets the docs-relative directory of chart files.
func WithAssetsDir(dir string) Option {
	return func(b *Builder) {
		b.assetsDir = dir
	}
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(b *Builder) {
		b.l = l
	}
}

func NewBuilder(opts ...Option) (*Builder, error) {
	tmpl, err := template.New("report.html.tmpl").Funcs(template.FuncMap{
		"pct": formatPct,
		"num": formatNum,
	}).ParseFS(templates, "templates/report.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse report template: %w", err)
	}

	b := &Builder{
		tmpl:      tmpl,
		md:        goldmark.New(goldmark.WithExtensions(extension.Table, extension.Strikethrough, extension.Linkify)),
		assetsDir: "assets",
		l:         logger.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

type chartView struct {
	Title   string
	Caption string
	Src     template.URL
}

type signalView struct {
	models.SignalInput
	LevelAction models.Action
	TrendAction models.Action
	Total       int
	Verdict     models.Verdict
	Cell        string
}

type bucketRowView struct {
	Bucket string
	Count  int
	Cells  []string
}

type bucketsView struct {
	Horizons []int
	Rows     []bucketRowView
}

type page struct {
	Title       string
	AsOf        string
	GeneratedAt string
	Summary     []models.SummaryEntry
	Forward     *models.ForwardSummary
	Buckets     *bucketsView
	Signal      *signalView
	Charts      []chartView
	Notes       template.HTML
	Recent      []models.ReportIndexEntry
	RepoURL     string
}

// Build renders the document. In file mode the charts are returned as
// assets under the assets dir; in inline mode they are embedded as data URIs.
func (b *Builder) Build(_ context.Context, in *models.ReportInput, imageMode string) (*models.Report, error) {
	if imageMode != models.ImageModeFile && imageMode != models.ImageModeInline {
		return nil, fmt.Errorf("unknown image mode %q", imageMode)
	}

	notes, err := b.renderNotes(in.NotesMarkdown)
	if err != nil {
		return nil, err
	}

	p := page{
		Title:       in.Title,
		AsOf:        in.AsOf.Format("2006-01-02"),
		GeneratedAt: in.GeneratedAt.UTC().Format("2006-01-02 15:04:05"),
		Summary:     in.Summary,
		Forward:     in.ForwardSummary,
		Buckets:     bucketTable(in.BucketStats),
		Signal:      signalPanel(in.Signal, in.Heatmap),
		Notes:       notes,
		Recent:      in.RecentReports,
		RepoURL:     in.RepoURL,
	}

	report := &models.Report{AsOf: in.AsOf, Assets: map[string][]byte{}}
	for _, c := range in.Charts {
		v := chartView{Title: c.Title, Caption: c.Caption}
		if imageMode == models.ImageModeInline {
			v.Src = template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(c.PNG))
		} else {
			path := c.AssetPath(b.assetsDir)
			report.Assets[path] = c.PNG
			v.Src = template.URL(path)
		}
		p.Charts = append(p.Charts, v)
	}

	var buf bytes.Buffer
	if err := b.tmpl.Execute(&buf, p); err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	report.HTML = buf.Bytes()
	b.l.Debug("report rendered",
		logger.String("asof", p.AsOf),
		logger.String("image_mode", imageMode),
		logger.Int("charts", len(p.Charts)),
		logger.Int("bytes", len(report.HTML)),
	)
	return report, nil
}

func (b *Builder) renderNotes(md string) (template.HTML, error) {
	if md == "" {
		md = DefaultNotes
	}
	var buf bytes.Buffer
	if err := b.md.Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("render notes: %w", err)
	}
	// goldmark drops raw HTML unless WithUnsafe is set.
	return template.HTML(buf.String()), nil
}

func signalPanel(s *models.Signal, hm *models.TrendHeatmap) *signalView {
	if s == nil {
		return nil
	}
	v := &signalView{
		SignalInput: s.Input,
		LevelAction: s.LevelAction,
		TrendAction: s.TrendAction,
		Total:       s.Total,
		Verdict:     s.Verdict,
	}
	if hm == nil || hm.Current == nil {
		return v
	}
	v.Cell = fmt.Sprintf("%s / %s", hm.Current.Bucket, hm.Current.Trend)
	if i, j, ok := hm.CurrentIndex(); ok && hm.Valid(i, j) {
		v.Cell += fmt.Sprintf(": %dD mean %s, win %s (n=%d)",
			hm.Horizon, formatPct(hm.Mean[i][j]), formatRate(hm.WinRate[i][j]), hm.Count[i][j])
	}
	return v
}

func bucketTable(t *models.BucketForwardTable) *bucketsView {
	if t == nil || len(t.Rows) == 0 {
		return nil
	}
	v := &bucketsView{Horizons: t.Horizons}
	for _, r := range t.Rows {
		row := bucketRowView{Bucket: r.Bucket, Count: r.Count}
		for _, h := range t.Horizons {
			row.Cells = append(row.Cells, formatPct(r.Mean[h]), formatRate(r.WinRate[h]))
		}
		v.Rows = append(v.Rows, row)
	}
	return v
}

func formatPct(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%+.2f%%", v*100)
}

func formatRate(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", v*100)
}

func formatNum(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

var _ service.ReportBuilder = (*Builder)(nil)
