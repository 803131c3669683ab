package usecase

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"FGReport/internal/domain/models"
	domrepo "FGReport/internal/domain/repository"
	domsvc "FGReport/internal/domain/service"
	"FGReport/internal/services/analytics"
	"FGReport/pkg/cache"
	"FGReport/pkg/logger"
)

var (
	// ErrRunInProgress means another run holds the run lock.
	ErrRunInProgress = errors.New("run already in progress")
	// ErrNoStatus means no run has finished yet.
	ErrNoStatus = errors.New("no run recorded")
)

// Pipeline stages, used in logs and latency metrics.
const (
	StageFetch   = "fetch"
	StageLoad    = "load"
	StageAnalyze = "analyze"
	StageRender  = "render"
	StageBuild   = "build"
	StageWrite   = "write"
	StageIndex   = "index"
	StageArchive = "archive"
	StagePublish = "publish"
)

// PipelineConfig holds the settings of every run.
type PipelineConfig struct {
	Title          string
	FilePrefix     string
	FileSuffix     string
	IndexPage      string
	ImageMode      string
	Charts         []string
	Horizons       []int
	HeatmapHorizon int
	TrendWindow    int
	ShortWindow    int
	LongWindow     int
	BucketOrder    []string
	Bands          models.TrendBands
	ComponentTail  int
	RepoURL        string
	LockKey        string
	LockTTL        time.Duration
	StatusKey      string
}

// PipelineDeps are the collaborators of a run. Fetcher, Archive and
// Events may be nil.
type PipelineDeps struct {
	Fetcher        domrepo.InputFetcher
	Observations   domrepo.ObservationSource
	ForwardSummary domrepo.ForwardSummarySource
	Summary        domrepo.SummarySource
	Notes          domrepo.NotesSource
	Renderer       domsvc.ChartRenderer
	Builder        domsvc.ReportBuilder
	Writer         domrepo.ReportWriter
	Index          *ReportIndex
	Archive        domrepo.CellArchive
	Events         domrepo.EventPublisher
	Cache          cache.Service
	Metrics        domrepo.Metrics
}

// Pipeline runs load, analyze, render and publish for one as-of date.
type Pipeline struct {
	cfg  PipelineConfig
	deps PipelineDeps
	l    *logger.Logger
	now  func() time.Time
}

// PipelineOption configures Pipeline.
type PipelineOption func(*Pipeline)

func WithPipelineLogger(l *logger.Logger) PipelineOption {
	return func(p *Pipeline) {
		p.l = l
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) PipelineOption {
	return func(p *Pipeline) {
		p.now = now
	}
}

func NewPipeline(cfg PipelineConfig, deps PipelineDeps, opts ...PipelineOption) *Pipeline {
	if cfg.LockKey == "" {
		cfg.LockKey = "run-lock"
	}
	if cfg.StatusKey == "" {
		cfg.StatusKey = "status:last"
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 10 * time.Minute
	}
	if cfg.ImageMode == "" {
		cfg.ImageMode = models.ImageModeFile
	}
	p := &Pipeline{
		cfg:  cfg,
		deps: deps,
		l:    logger.Nop(),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ReportFiles names the outputs of an as-of date.
func (p *Pipeline) ReportFiles(asOf time.Time) domrepo.ReportFiles {
	return domrepo.ReportFiles{
		Dated:  fmt.Sprintf("%s_%s%s.html", p.cfg.FilePrefix, asOf.Format("2006-01-02"), p.cfg.FileSuffix),
		Latest: fmt.Sprintf("%s_latest%s.html", p.cfg.FilePrefix, p.cfg.FileSuffix),
		Index:  p.cfg.IndexPage,
	}
}

// LastStatus returns the most recently recorded run.
func (p *Pipeline) LastStatus(ctx context.Context) (*models.RunResult, error) {
	var res models.RunResult
	if err := p.deps.Cache.Get(ctx, p.cfg.StatusKey, &res); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, ErrNoStatus
		}
		return nil, fmt.Errorf("read status: %w", err)
	}
	return &res, nil
}

// Run executes one pipeline pass. Any failure before the files are written
// aborts the run without output. Archive and publish failures after the
// write are logged and counted but do not fail the run.
func (p *Pipeline) Run(ctx context.Context, opts models.RunOptions) (*models.RunResult, error) {
	ok, err := p.deps.Cache.TryLock(ctx, p.cfg.LockKey, p.cfg.LockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		p.deps.Metrics.RecordError("locked")
		return nil, ErrRunInProgress
	}
	defer func() {
		if err := p.deps.Cache.Unlock(context.WithoutCancel(ctx), p.cfg.LockKey); err != nil {
			p.l.Warn("release run lock", logger.Error(err))
		}
	}()

	res := &models.RunResult{
		RunID:     uuid.NewString(),
		Status:    models.RunStatusRunning,
		Trigger:   opts.Trigger,
		StartedAt: p.now().UTC(),
	}
	l := p.l.With(logger.String("run_id", res.RunID))
	l.Info("run started", logger.String("trigger", opts.Trigger))
	p.saveStatus(ctx, res, l)

	stage, err := p.run(ctx, p.resolve(opts), res, l)

	res.FinishedAt = p.now().UTC()
	res.Duration = res.FinishedAt.Sub(res.StartedAt)
	if err != nil {
		res.Status = models.RunStatusFailed
		res.Error = err.Error()
		p.deps.Metrics.RecordError(errorKind(stage, err))
		l.Error("run failed", logger.String("stage", stage), logger.Error(err))
	} else {
		res.Status = models.RunStatusSuccess
		l.Info("run finished",
			logger.String("asof", res.AsOf),
			logger.String("verdict", string(res.Verdict)),
			logger.Int("files", len(res.Files)),
			logger.Duration("duration", res.Duration),
		)
	}
	p.deps.Metrics.RecordRun(res.Status, res.Duration.Seconds())
	p.saveStatus(ctx, res, l)
	return res, err
}

type runSettings struct {
	imageMode      string
	charts         []string
	heatmapHorizon int
}

func (p *Pipeline) resolve(opts models.RunOptions) runSettings {
	s := runSettings{
		imageMode:      p.cfg.ImageMode,
		charts:         p.cfg.Charts,
		heatmapHorizon: p.cfg.HeatmapHorizon,
	}
	if opts.ImageMode != "" {
		s.imageMode = opts.ImageMode
	}
	if len(opts.Charts) > 0 {
		s.charts = opts.Charts
	}
	if opts.HeatmapHorizon > 0 {
		s.heatmapHorizon = opts.HeatmapHorizon
	}
	return s
}

// run performs the stages and returns the name of the failing one.
func (p *Pipeline) run(ctx context.Context, s runSettings, res *models.RunResult, l *logger.Logger) (string, error) {
	if p.deps.Fetcher != nil {
		if err := p.timed(StageFetch, func() error { return p.deps.Fetcher.Fetch(ctx) }); err != nil {
			return StageFetch, err
		}
	}

	var tbl *models.Table
	if err := p.timed(StageLoad, func() (err error) {
		tbl, err = p.deps.Observations.Load(ctx)
		return err
	}); err != nil {
		return StageLoad, err
	}
	asOf := tbl.AsOf()
	res.Rows = tbl.Len()
	res.AsOf = asOf.Format("2006-01-02")
	p.deps.Metrics.RecordRows(tbl.Len())
	l = l.With(logger.String("asof", res.AsOf))
	l.Info("observations loaded",
		logger.Int("rows", tbl.Len()),
		logger.Strings("components", tbl.Schema.Components),
		logger.Bool("has_close", tbl.Schema.HasClose()),
	)

	in := &models.ReportInput{
		Title:       p.cfg.Title,
		AsOf:        asOf,
		GeneratedAt: p.now().UTC(),
		RepoURL:     p.cfg.RepoURL,
	}
	if err := p.timed(StageAnalyze, func() error { return p.analyze(ctx, tbl, s, in, l) }); err != nil {
		return StageAnalyze, err
	}
	res.Verdict = in.Signal.Verdict

	var skipped []string
	if err := p.timed(StageRender, func() (err error) {
		in.Charts, skipped, err = p.deps.Renderer.Render(ctx, domsvc.ChartData{
			Table:         tbl,
			BucketStats:   in.BucketStats,
			Heatmap:       in.Heatmap,
			Charts:        s.charts,
			ComponentTail: p.cfg.ComponentTail,
		})
		return err
	}); err != nil {
		return StageRender, err
	}
	res.Skipped = skipped
	for _, c := range in.Charts {
		res.Charts = append(res.Charts, c.Name)
		p.deps.Metrics.RecordChart(c.Name)
	}

	files := p.ReportFiles(asOf)
	entry := models.ReportIndexEntry{File: files.Dated, AsOf: res.AsOf}
	index, err := p.deps.Index.Preview(ctx, entry)
	if err != nil {
		return StageIndex, err
	}
	in.RecentReports = index

	var report *models.Report
	if err := p.timed(StageBuild, func() (err error) {
		report, err = p.deps.Builder.Build(ctx, in, s.imageMode)
		return err
	}); err != nil {
		return StageBuild, err
	}

	if err := p.timed(StageWrite, func() (err error) {
		res.Files, res.Bytes, err = p.deps.Writer.Write(ctx, report, files)
		return err
	}); err != nil {
		return StageWrite, err
	}
	if err := p.timed(StageIndex, func() error { return p.deps.Index.Save(ctx, index) }); err != nil {
		return StageIndex, err
	}
	p.deps.Metrics.RecordAsOf(asOf)

	p.afterWrite(ctx, res, in, files, l)
	return "", nil
}

// analyze fills the signal, aggregates and optional panels of in.
func (p *Pipeline) analyze(ctx context.Context, tbl *models.Table, s runSettings, in *models.ReportInput, l *logger.Logger) error {
	sigIn, _ := analytics.LatestSignalInput(tbl, p.cfg.ShortWindow, p.cfg.LongWindow)
	sig := analytics.DeriveSignal(sigIn)
	in.Signal = &sig

	hm, err := analytics.BuildTrendHeatmap(tbl, analytics.HeatmapOptions{
		Horizon:     s.heatmapHorizon,
		Window:      p.cfg.TrendWindow,
		BucketOrder: p.cfg.BucketOrder,
		TrendOrder:  models.TrendOrder,
		Bands:       p.cfg.Bands,
	})
	switch {
	case errors.Is(err, analytics.ErrHeatmapUnavailable):
		l.Warn("trend heatmap skipped", logger.Error(err))
	case err != nil:
		return fmt.Errorf("trend heatmap: %w", err)
	default:
		in.Heatmap = hm
	}

	horizons := p.cfg.Horizons
	if !slices.Contains(horizons, s.heatmapHorizon) {
		horizons = append(slices.Clone(horizons), s.heatmapHorizon)
	}
	stats, err := analytics.BucketForwardStats(tbl, horizons, p.cfg.BucketOrder)
	switch {
	case errors.Is(err, analytics.ErrHeatmapUnavailable):
		l.Warn("bucket forward stats skipped", logger.Error(err))
	case err != nil:
		return fmt.Errorf("bucket forward stats: %w", err)
	default:
		in.BucketStats = stats
	}

	fs, err := p.deps.ForwardSummary.Load(ctx)
	switch {
	case errors.Is(err, domrepo.ErrInputMissing):
		l.Warn("forward summary missing, notice shown", logger.Error(err))
	case err != nil:
		return fmt.Errorf("forward summary: %w", err)
	default:
		in.ForwardSummary = fs
	}

	if in.Summary, err = p.deps.Summary.Load(ctx); err != nil {
		return fmt.Errorf("summary: %w", err)
	}
	if in.NotesMarkdown, err = p.deps.Notes.Load(ctx); err != nil {
		return fmt.Errorf("notes: %w", err)
	}

	l.Info("analysis done",
		logger.String("bucket", sig.Input.Bucket),
		logger.String("level_action", string(sig.LevelAction)),
		logger.String("trend_action", string(sig.TrendAction)),
		logger.String("verdict", string(sig.Verdict)),
		logger.Bool("heatmap", in.Heatmap != nil),
	)
	return nil
}

// afterWrite runs the optional side effects of a written report.
func (p *Pipeline) afterWrite(ctx context.Context, res *models.RunResult, in *models.ReportInput, files domrepo.ReportFiles, l *logger.Logger) {
	if p.deps.Archive != nil && in.Heatmap != nil {
		if err := p.timed(StageArchive, func() error {
			return p.deps.Archive.Archive(ctx, res.RunID, in.AsOf, in.Heatmap)
		}); err != nil {
			p.deps.Metrics.RecordError(StageArchive)
			l.Error("archive heatmap cells", logger.Error(err))
		}
	}

	if p.deps.Events != nil {
		ev := models.PublishedEvent{
			RunID:       res.RunID,
			AsOf:        res.AsOf,
			File:        files.Dated,
			Score:       in.Signal.Input.Score,
			Bucket:      in.Signal.Input.Bucket,
			Verdict:     in.Signal.Verdict,
			LevelAction: in.Signal.LevelAction,
			TrendAction: in.Signal.TrendAction,
			GeneratedAt: in.GeneratedAt,
		}
		if in.Heatmap != nil {
			ev.Current = in.Heatmap.Current
		}
		if err := p.timed(StagePublish, func() error { return p.deps.Events.Publish(ctx, ev) }); err != nil {
			p.deps.Metrics.RecordError(StagePublish)
			l.Error("publish report event", logger.Error(err))
		}
	}
}

func (p *Pipeline) timed(stage string, fn func() error) error {
	start := p.now()
	err := fn()
	p.deps.Metrics.RecordLatency(stage, p.now().Sub(start).Seconds())
	return err
}

func (p *Pipeline) saveStatus(ctx context.Context, res *models.RunResult, l *logger.Logger) {
	if err := p.deps.Cache.Set(ctx, p.cfg.StatusKey, res, 0); err != nil {
		l.Warn("cache run status", logger.Error(err))
	}
}

func errorKind(stage string, err error) string {
	switch {
	case errors.Is(err, domrepo.ErrInputMissing):
		return "input_missing"
	case errors.Is(err, domrepo.ErrColumnMissing):
		return "column_missing"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return stage
	}
}
