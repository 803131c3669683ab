package server

import (
	"context"
	"errors"
	"fmt"
	"io"

	"FGReport/internal/domain/models"
	"FGReport/internal/usecase"
	"FGReport/pkg/config"
	xhttp "FGReport/pkg/http"
	"FGReport/pkg/logger"
	"FGReport/pkg/metrics"
)

// Run modes.
const (
	ModeRun      = "run"
	ModeSchedule = "schedule"
	ModeServe    = "serve"
)

// Runner executes one report run.
type Runner interface {
	Run(ctx context.Context, opts models.RunOptions) (*models.RunResult, error)
}

// App encapsulates the application lifecycle for every run mode.
type App struct {
	cfg      *config.Config
	log      *logger.Logger
	runner   Runner
	handler  xhttp.Handler
	recorder *metrics.Recorder
	closers  []io.Closer
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, l *logger.Logger, runner Runner, handler xhttp.Handler, recorder *metrics.Recorder, closers ...io.Closer) *App {
	return &App{
		cfg:      cfg,
		log:      l,
		runner:   runner,
		handler:  handler,
		recorder: recorder,
		closers:  closers,
	}
}

// Run dispatches to the selected mode and blocks until it ends.
func (a *App) Run(ctx context.Context, mode string) error {
	a.log.Info("starting",
		logger.String("mode", mode),
		logger.String("env", a.cfg.Environment),
		logger.String("docs_dir", a.cfg.Output.DocsDir),
	)
	switch mode {
	case "", ModeRun:
		return a.RunOnce(ctx)
	case ModeSchedule:
		return a.Schedule(ctx)
	case ModeServe:
		return a.Serve(ctx)
	default:
		return fmt.Errorf("unknown mode %q", mode)
	}
}

// RunOnce performs a single run and writes the metrics textfile.
func (a *App) RunOnce(ctx context.Context) error {
	_, err := a.runner.Run(ctx, models.RunOptions{Trigger: "cli"})
	a.writeTextfile()
	return err
}

// Schedule runs the pipeline on the configured cron expression until ctx
// is done.
func (a *App) Schedule(ctx context.Context) error {
	s := NewScheduler(a.log)
	job := func() { a.scheduledRun(ctx) }
	if err := s.AddFunc(a.cfg.Schedule.Cron, "daily-report", job); err != nil {
		return err
	}
	if a.cfg.Schedule.RunOnStart {
		job()
	}
	s.Start()
	<-ctx.Done()
	s.Stop()
	return nil
}

func (a *App) scheduledRun(ctx context.Context) {
	// Failures are logged by the pipeline itself.
	_, err := a.runner.Run(ctx, models.RunOptions{Trigger: "cron"})
	if errors.Is(err, usecase.ErrRunInProgress) {
		a.log.Warn("scheduled run skipped, another run holds the lock")
	}
	a.writeTextfile()
}

// Serve exposes the docs directory, the report API and metrics until ctx
// is done or the listener fails.
func (a *App) Serve(ctx context.Context) error {
	opts := []xhttp.ServerOption{
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(a.log),
		xhttp.WithStatic("/", a.cfg.Output.DocsDir),
		xhttp.WithCORS(true),
	}
	if a.cfg.Metrics.Enabled && a.recorder != nil {
		opts = append(opts, xhttp.WithMetrics(a.cfg.Metrics.Path, a.recorder.Handler(), a.recorder))
	}
	srv := xhttp.NewServer(xhttp.Handlers{a.handler, xhttp.Health}, opts...)
	if err := srv.Start(); err != nil {
		return fmt.Errorf("start http server: %w", err)
	}
	a.log.Info("preview server listening", logger.Int("port", a.cfg.Server.Port))

	var serveErr error
	select {
	case <-ctx.Done():
		a.log.Info("shutdown signal received")
	case serveErr = <-srv.Errors():
		a.log.Error("http server failed", logger.Error(serveErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", logger.Error(err))
	}
	return serveErr
}

// Close releases infrastructure clients.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (a *App) writeTextfile() {
	if a.recorder == nil || !a.cfg.Metrics.Enabled || a.cfg.Metrics.Textfile == "" {
		return
	}
	if err := a.recorder.WriteTextfile(a.cfg.Metrics.Textfile); err != nil {
		a.log.Warn("metrics textfile", logger.Error(err))
	}
}
