package di

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"FGReport/internal/domain/models"
	domrepo "FGReport/internal/domain/repository"
	domsvc "FGReport/internal/domain/service"
	"FGReport/internal/handler/api"
	internalrepo "FGReport/internal/repository"
	"FGReport/internal/services/charts"
	"FGReport/internal/services/ratelimit"
	"FGReport/internal/services/report"
	"FGReport/internal/services/schema"
	"FGReport/internal/usecase"
	"FGReport/pkg/cache"
	pkgch "FGReport/pkg/clickhouse"
	"FGReport/pkg/config"
	pkghttp "FGReport/pkg/http"
	pkgkafka "FGReport/pkg/kafka"
	"FGReport/pkg/logger"
	"FGReport/pkg/metrics"
	"FGReport/pkg/server"
)

// ProvideLogger builds the process logger from config.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	l, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: cfg.Log.TimeFormat,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() *metrics.Recorder {
	return metrics.New()
}

// ProvideCache creates the store behind the run lock and the last status.
func ProvideCache(cfg *config.Config, l *logger.Logger) (cache.Service, func(), error) {
	if cfg.Lock.Backend != "redis" {
		return cache.NewMemoryCache(), func() {}, nil
	}

	rc, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Redis.Host),
		cache.WithRedisPort(cfg.Redis.Port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("redis cache: %w", err)
	}
	cleanup := func() {
		if err := rc.Close(); err != nil {
			l.Warn("redis close failed", logger.Error(err))
		}
	}
	return rc, cleanup, nil
}

// ProvideHTTPClient creates the client used to download remote inputs.
func ProvideHTTPClient(cfg *config.Config) *pkghttp.Client {
	return pkghttp.NewClient(
		pkghttp.WithTimeout(cfg.Input.Remote.Timeout),
		pkghttp.WithBearerToken(cfg.Input.Remote.Token),
	)
}

// ProvideInputFetcher returns nil when no remote URL is configured.
func ProvideInputFetcher(cfg *config.Config, client *pkghttp.Client, l *logger.Logger) domrepo.InputFetcher {
	if cfg.Input.Remote.ObservationsURL == "" {
		return nil
	}
	return internalrepo.NewRemoteInputFetcher(client, cfg.Input.Remote.ObservationsURL, cfg.Input.ObservationsPath, l)
}

// ProvideResolver maps the configured column candidates.
func ProvideResolver(cfg *config.Config) *schema.Resolver {
	return schema.NewResolver(schema.Candidates{
		Date:             cfg.Schema.DateColumns,
		Score:            cfg.Schema.ScoreColumns,
		Bucket:           cfg.Schema.BucketColumns,
		Close:            cfg.Schema.CloseColumns,
		ForwardTemplates: cfg.Schema.ForwardTemplates,
		Horizons:         horizons(cfg),
		Components:       cfg.Schema.Components,
	})
}

// horizons adds the heat-map horizon to the summary horizons.
func horizons(cfg *config.Config) []int {
	out := append([]int(nil), cfg.Analysis.Horizons...)
	for _, h := range out {
		if h == cfg.Analysis.HeatmapHorizon {
			return out
		}
	}
	return append(out, cfg.Analysis.HeatmapHorizon)
}

func ProvideObservationSource(cfg *config.Config, r *schema.Resolver) domrepo.ObservationSource {
	return internalrepo.NewCSVObservationSource(cfg.Input.ObservationsPath, r)
}

func ProvideForwardSummarySource(cfg *config.Config) domrepo.ForwardSummarySource {
	return internalrepo.NewCSVForwardSummarySource(cfg.Input.ForwardSummaryPath)
}

func ProvideSummarySource(cfg *config.Config, l *logger.Logger) domrepo.SummarySource {
	return internalrepo.NewJSONSummarySource(cfg.Input.SummaryJSONPath, l)
}

func ProvideNotesSource(cfg *config.Config) domrepo.NotesSource {
	return internalrepo.NewFileNotesSource(cfg.Input.NotesPath)
}

// ProvideChartRenderer creates the gonum/plot renderer.
func ProvideChartRenderer(l *logger.Logger) domsvc.ChartRenderer {
	return charts.NewRenderer(charts.WithLogger(l))
}

// ProvideReportBuilder parses the embedded template once.
func ProvideReportBuilder(cfg *config.Config, l *logger.Logger) (domsvc.ReportBuilder, error) {
	b, err := report.NewBuilder(
		report.WithAssetsDir(cfg.Output.AssetsDir),
		report.WithLogger(l),
	)
	if err != nil {
		return nil, fmt.Errorf("report builder: %w", err)
	}
	return b, nil
}

func ProvideReportWriter(cfg *config.Config, l *logger.Logger) domrepo.ReportWriter {
	return internalrepo.NewFileReportWriter(cfg.Output.DocsDir, l)
}

// ProvideReportIndex keeps the rolling index next to the pages.
func ProvideReportIndex(cfg *config.Config, l *logger.Logger) *usecase.ReportIndex {
	store := internalrepo.NewJSONReportIndexStore(filepath.Join(cfg.Output.DocsDir, cfg.Output.IndexFile), l)
	return usecase.NewReportIndex(store, cfg.Output.IndexLimit)
}

// ProvideCellArchive connects to ClickHouse and creates the archive table.
// It returns nil when the archive is disabled.
func ProvideCellArchive(cfg *config.Config, l *logger.Logger) (domrepo.CellArchive, func(), error) {
	if !cfg.ClickHouse.Enabled {
		return nil, func() {}, nil
	}

	client, err := pkgch.NewClient(
		pkgch.WithAddr(cfg.ClickHouse.Host, cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithPool(4, 2, 5*time.Minute),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}

	archive := internalrepo.NewClickHouseCellArchive(client.DB(), cfg.ClickHouse.Database+"."+cfg.ClickHouse.Table)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	ddl := append([]string{"CREATE DATABASE IF NOT EXISTS " + cfg.ClickHouse.Database}, archive.Schema()...)
	if err := client.InitSchema(ctx, ddl); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	cleanup := func() {
		if err := client.Close(); err != nil {
			l.Warn("clickhouse close failed", logger.Error(err))
		}
	}
	return archive, cleanup, nil
}

// ProvideEventPublisher creates the Kafka producer for published-report
// events. It returns nil when Kafka is disabled.
func ProvideEventPublisher(cfg *config.Config, l *logger.Logger) (domrepo.EventPublisher, func(), error) {
	if !cfg.Kafka.Enabled {
		return nil, func() {}, nil
	}

	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithTimeouts(cfg.Kafka.WriteTimeout, cfg.Kafka.WriteTimeout),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}

	events := internalrepo.NewKafkaEventPublisher(producer, cfg.Kafka.Topic)
	cleanup := func() {
		if err := events.Close(); err != nil {
			l.Warn("kafka close failed", logger.Error(err))
		}
	}
	return events, cleanup, nil
}

// ProvidePipelineConfig maps the YAML config onto the run settings.
func ProvidePipelineConfig(cfg *config.Config) usecase.PipelineConfig {
	bands := cfg.Analysis.TrendBands
	return usecase.PipelineConfig{
		Title:          cfg.Output.Title,
		FilePrefix:     cfg.Output.FilePrefix,
		FileSuffix:     cfg.Output.FileSuffix,
		IndexPage:      cfg.Output.IndexPage,
		ImageMode:      cfg.Output.ImageMode,
		Charts:         cfg.Output.Charts,
		Horizons:       cfg.Analysis.Horizons,
		HeatmapHorizon: cfg.Analysis.HeatmapHorizon,
		TrendWindow:    cfg.Analysis.TrendWindow,
		ShortWindow:    cfg.Analysis.SignalWindows.Short,
		LongWindow:     cfg.Analysis.SignalWindows.Long,
		BucketOrder:    cfg.Analysis.BucketOrder,
		Bands: models.TrendBands{
			StrongDown: bands.StrongDown,
			Down:       bands.Down,
			Up:         bands.Up,
			StrongUp:   bands.StrongUp,
		},
		ComponentTail: cfg.Output.ComponentTail,
		RepoURL:       cfg.Output.RepoURL,
		LockKey:       cfg.Lock.Key,
		LockTTL:       cfg.Lock.TTL,
	}
}

// ProvidePipeline creates the report pipeline use case.
func ProvidePipeline(pc usecase.PipelineConfig, deps usecase.PipelineDeps, l *logger.Logger) *usecase.Pipeline {
	return usecase.NewPipeline(pc, deps, usecase.WithPipelineLogger(l))
}

// ProvideReportsHandler creates the preview API handler.
func ProvideReportsHandler(cfg *config.Config, l *logger.Logger, p *usecase.Pipeline, idx *usecase.ReportIndex) *api.ReportsEchoHandler {
	var opts []api.HandlerOption
	if lim := cfg.Server.RunLimit; lim.Burst > 0 {
		opts = append(opts, api.WithRunLimiter(ratelimit.New(lim.Burst, lim.PerMinute)))
	}
	return api.NewReportsEchoHandler(l, p, idx, opts...)
}

// ProvideApp creates the application.
func ProvideApp(
	cfg *config.Config,
	l *logger.Logger,
	p *usecase.Pipeline,
	h *api.ReportsEchoHandler,
	rec *metrics.Recorder,
) *server.App {
	return server.New(cfg, l, p, h, rec)
}
