package usecase

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FGReport/internal/domain/models"
	domrepo "FGReport/internal/domain/repository"
	domsvc "FGReport/internal/domain/service"
	"FGReport/internal/repository"
	"FGReport/internal/services/report"
	"FGReport/pkg/cache"
)

type fakeMetrics struct {
	mu     sync.Mutex
	runs   map[string]int
	errors map[string]int
	rows   int
	charts []string
	asOf   time.Time
	stages map[string]int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{runs: map[string]int{}, errors: map[string]int{}, stages: map[string]int{}}
}

func (m *fakeMetrics) RecordRun(status string, _ float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[status]++
}
func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[kind]++
}
func (m *fakeMetrics) RecordRows(n int)        { m.rows = n }
func (m *fakeMetrics) RecordChart(name string) { m.charts = append(m.charts, name) }
func (m *fakeMetrics) RecordAsOf(t time.Time)  { m.asOf = t }
func (m *fakeMetrics) RecordLatency(stage string, _ float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stages[stage]++
}

type staticSource struct {
	tbl *models.Table
	err error
}

func (s staticSource) Load(context.Context) (*models.Table, error) { return s.tbl, s.err }

type stubRenderer struct{}

func (stubRenderer) Render(_ context.Context, data domsvc.ChartData) ([]models.Chart, []string, error) {
	var out []models.Chart
	var skipped []string
	for _, name := range data.Charts {
		if name == domsvc.ChartTrendHeatmapMean && data.Heatmap == nil {
			skipped = append(skipped, name)
			continue
		}
		out = append(out, models.Chart{Name: name, Title: name, PNG: []byte("png-" + name)})
	}
	return out, skipped, nil
}

type recordingArchive struct {
	runID string
	cells int
}

func (a *recordingArchive) Archive(_ context.Context, runID string, _ time.Time, h *models.TrendHeatmap) error {
	a.runID = runID
	a.cells = len(h.Records())
	return nil
}

type recordingEvents struct {
	events []models.PublishedEvent
	err    error
}

func (e *recordingEvents) Publish(_ context.Context, ev models.PublishedEvent) error {
	e.events = append(e.events, ev)
	return e.err
}
func (e *recordingEvents) Close() error { return nil }

// fixtureTable has 30 sessions of rising closes ending in Fear.
func fixtureTable() *models.Table {
	start := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	t := &models.Table{Schema: models.Schema{
		DateColumn:     "date",
		ScoreColumn:    "fear_greed",
		BucketColumn:   "fg_bucket",
		CloseColumn:    "close",
		ForwardColumns: map[int]string{20: "fwd_ret_20d"},
	}}
	buckets := []string{models.BucketFear, models.BucketNeutral, models.BucketGreed}
	for i := 0; i < 30; i++ {
		o := models.Observation{
			Date:    start.AddDate(0, 0, i),
			Score:   float64(30 + i),
			Bucket:  buckets[i%3],
			Close:   100 + float64(i),
			Forward: map[int]float64{},
		}
		if i < 25 {
			o.Forward[20] = 0.01 * float64(i%5-2)
		}
		t.Observations = append(t.Observations, o)
	}
	t.Observations[29].Bucket = models.BucketFear
	return t
}

type harness struct {
	docs     string
	data     string
	metrics  *fakeMetrics
	cache    *cache.MemoryCache
	archive  *recordingArchive
	events   *recordingEvents
	pipeline *Pipeline
}

func newHarness(t *testing.T, src domrepo.ObservationSource) *harness {
	t.Helper()
	h := &harness{
		docs:    filepath.Join(t.TempDir(), "docs"),
		data:    t.TempDir(),
		metrics: newFakeMetrics(),
		cache:   cache.NewMemoryCache(),
		archive: &recordingArchive{},
		events:  &recordingEvents{},
	}
	builder, err := report.NewBuilder()
	require.NoError(t, err)

	cfg := PipelineConfig{
		Title:          "FG daily",
		FilePrefix:     "fg_report_1y",
		FileSuffix:     "_embedded",
		IndexPage:      "index.html",
		ImageMode:      models.ImageModeFile,
		Charts:         []string{domsvc.ChartFGLine, domsvc.ChartTrendHeatmapMean},
		Horizons:       []int{20},
		HeatmapHorizon: 20,
		TrendWindow:    5,
		ShortWindow:    3,
		LongWindow:     5,
		BucketOrder:    models.DefaultBucketOrder,
		Bands:          models.DefaultTrendBands,
		ComponentTail:  180,
	}
	h.pipeline = NewPipeline(cfg, PipelineDeps{
		Observations:   src,
		ForwardSummary: repository.NewCSVForwardSummarySource(filepath.Join(h.data, "summary.csv")),
		Summary:        repository.NewJSONSummarySource(filepath.Join(h.data, "summary.json"), nil),
		Notes:          repository.NewFileNotesSource(filepath.Join(h.data, "notes.md")),
		Renderer:       stubRenderer{},
		Builder:        builder,
		Writer:         repository.NewFileReportWriter(h.docs, nil),
		Index:          NewReportIndex(repository.NewJSONReportIndexStore(filepath.Join(h.docs, "reports.json"), nil), 10),
		Archive:        h.archive,
		Events:         h.events,
		Cache:          h.cache,
		Metrics:        h.metrics,
	})
	return h
}

func TestPipelineRun(t *testing.T) {
	h := newHarness(t, staticSource{tbl: fixtureTable()})
	ctx := context.Background()

	res, err := h.pipeline.Run(ctx, models.RunOptions{Trigger: "test"})
	require.NoError(t, err)

	assert.Equal(t, models.RunStatusSuccess, res.Status)
	assert.Equal(t, "2024-03-01", res.AsOf)
	assert.Equal(t, 30, res.Rows)
	assert.Equal(t, models.VerdictBuyLeaning, res.Verdict, "fear bucket and rising closes")
	assert.Equal(t, []string{domsvc.ChartFGLine, domsvc.ChartTrendHeatmapMean}, res.Charts)
	assert.NotEmpty(t, res.RunID)

	for _, name := range []string{
		"fg_report_1y_2024-03-01_embedded.html",
		"fg_report_1y_latest_embedded.html",
		"index.html",
		"assets/fg_line.png",
		"reports.json",
	} {
		assert.FileExists(t, filepath.Join(h.docs, name))
	}
	html, err := os.ReadFile(filepath.Join(h.docs, "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(html), "Forward summary file missing")

	assert.Equal(t, 1, h.metrics.runs[models.RunStatusSuccess])
	assert.Equal(t, 30, h.metrics.rows)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), h.metrics.asOf)
	assert.Equal(t, 1, h.metrics.stages[StageWrite])

	assert.Equal(t, res.RunID, h.archive.runID)
	assert.Positive(t, h.archive.cells)
	require.Len(t, h.events.events, 1)
	assert.Equal(t, "fg_report_1y_2024-03-01_embedded.html", h.events.events[0].File)
	require.NotNil(t, h.events.events[0].Current)
	assert.Equal(t, models.BucketFear, h.events.events[0].Current.Bucket)

	last, err := h.pipeline.LastStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, res.RunID, last.RunID)
	assert.Equal(t, models.RunStatusSuccess, last.Status)
}

func TestPipelineRunTwiceKeepsOneIndexEntry(t *testing.T) {
	h := newHarness(t, staticSource{tbl: fixtureTable()})
	ctx := context.Background()

	_, err := h.pipeline.Run(ctx, models.RunOptions{})
	require.NoError(t, err)
	_, err = h.pipeline.Run(ctx, models.RunOptions{ImageMode: models.ImageModeInline})
	require.NoError(t, err)

	entries, err := repository.NewJSONReportIndexStore(filepath.Join(h.docs, "reports.json"), nil).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.ReportIndexEntry{{File: "fg_report_1y_2024-03-01_embedded.html", AsOf: "2024-03-01"}}, entries)

	html, err := os.ReadFile(filepath.Join(h.docs, "fg_report_1y_latest_embedded.html"))
	require.NoError(t, err)
	assert.Contains(t, string(html), "data:image/png;base64,")
}

func TestPipelineMissingInputWritesNothing(t *testing.T) {
	src := staticSource{err: domrepo.ErrInputMissing}
	h := newHarness(t, src)

	res, err := h.pipeline.Run(context.Background(), models.RunOptions{})
	require.ErrorIs(t, err, domrepo.ErrInputMissing)
	assert.Equal(t, models.RunStatusFailed, res.Status)
	assert.NoDirExists(t, h.docs)
	assert.Equal(t, 1, h.metrics.errors["input_missing"])
	assert.Equal(t, 1, h.metrics.runs[models.RunStatusFailed])
	assert.Empty(t, h.events.events)

	last, err := h.pipeline.LastStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusFailed, last.Status)
	assert.NotEmpty(t, last.Error)
}

func TestPipelineWithoutCloseSkipsHeatmap(t *testing.T) {
	tbl := fixtureTable()
	tbl.Schema.CloseColumn = ""
	for i := range tbl.Observations {
		tbl.Observations[i].Close = math.NaN()
	}
	h := newHarness(t, staticSource{tbl: tbl})

	res, err := h.pipeline.Run(context.Background(), models.RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{domsvc.ChartTrendHeatmapMean}, res.Skipped)
	assert.Equal(t, models.VerdictBuyLeaning, res.Verdict, "level rule alone")
	assert.Empty(t, h.archive.runID)
	require.Len(t, h.events.events, 1)
	assert.Nil(t, h.events.events[0].Current)
}

func TestPipelinePublishFailureIsNotFatal(t *testing.T) {
	h := newHarness(t, staticSource{tbl: fixtureTable()})
	h.events.err = errors.New("broker down")

	res, err := h.pipeline.Run(context.Background(), models.RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusSuccess, res.Status)
	assert.Equal(t, 1, h.metrics.errors[StagePublish])
}

func TestPipelineRejectsConcurrentRun(t *testing.T) {
	h := newHarness(t, staticSource{tbl: fixtureTable()})
	ctx := context.Background()

	ok, err := h.cache.TryLock(ctx, "run-lock", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = h.pipeline.Run(ctx, models.RunOptions{})
	assert.ErrorIs(t, err, ErrRunInProgress)

	require.NoError(t, h.cache.Unlock(ctx, "run-lock"))
	_, err = h.pipeline.Run(ctx, models.RunOptions{})
	assert.NoError(t, err)
}

func TestPipelineLastStatusEmpty(t *testing.T) {
	h := newHarness(t, staticSource{tbl: fixtureTable()})
	_, err := h.pipeline.LastStatus(context.Background())
	assert.ErrorIs(t, err, ErrNoStatus)
}

func TestReportFiles(t *testing.T) {
	p := NewPipeline(PipelineConfig{FilePrefix: "fg", FileSuffix: "_x", IndexPage: "index.html"}, PipelineDeps{})
	files := p.ReportFiles(time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "fg_2024-05-02_x.html", files.Dated)
	assert.Equal(t, "fg_latest_x.html", files.Latest)
	assert.Equal(t, "index.html", files.Index)
}
