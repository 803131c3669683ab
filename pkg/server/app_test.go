package server

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FGReport/internal/domain/models"
	"FGReport/pkg/config"
	"FGReport/pkg/logger"
	"FGReport/pkg/metrics"
)

type countingRunner struct {
	mu       sync.Mutex
	triggers []string
	err      error
}

func (r *countingRunner) Run(_ context.Context, opts models.RunOptions) (*models.RunResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.triggers = append(r.triggers, opts.Trigger)
	return &models.RunResult{Status: models.RunStatusSuccess}, r.err
}

func (r *countingRunner) calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.triggers...)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Default()
	require.NoError(t, err)
	cfg.Metrics.Textfile = filepath.Join(t.TempDir(), "fgreport.prom")
	return cfg
}

func TestRunOnceWritesTextfile(t *testing.T) {
	cfg := testConfig(t)
	rec := metrics.New()
	rec.RecordRun(models.RunStatusSuccess, 1)
	r := &countingRunner{}

	app := New(cfg, logger.Nop(), r, nil, rec)
	require.NoError(t, app.Run(context.Background(), ModeRun))
	assert.Equal(t, []string{"cli"}, r.calls())

	b, err := os.ReadFile(cfg.Metrics.Textfile)
	require.NoError(t, err)
	assert.Contains(t, string(b), "fgreport_runs_total")
}

func TestRunOncePropagatesError(t *testing.T) {
	r := &countingRunner{err: errors.New("input missing")}
	app := New(testConfig(t), logger.Nop(), r, nil, metrics.New())
	assert.EqualError(t, app.RunOnce(context.Background()), "input missing")
}

func TestRunUnknownMode(t *testing.T) {
	app := New(testConfig(t), logger.Nop(), &countingRunner{}, nil, nil)
	assert.Error(t, app.Run(context.Background(), "daemon"))
}

func TestScheduleRunsOnStartAndStops(t *testing.T) {
	cfg := testConfig(t)
	cfg.Schedule.Cron = "@every 1h"
	cfg.Schedule.RunOnStart = true
	r := &countingRunner{}
	app := New(cfg, logger.Nop(), r, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Schedule(ctx) }()

	require.Eventually(t, func() bool { return len(r.calls()) == 1 }, time.Second, 10*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.Equal(t, []string{"cron"}, r.calls())
}

func TestScheduleRejectsBadExpression(t *testing.T) {
	cfg := testConfig(t)
	cfg.Schedule.Cron = "every day"
	app := New(cfg, logger.Nop(), &countingRunner{}, nil, nil)
	assert.Error(t, app.Schedule(context.Background()))
}

type closeFunc func() error

func (f closeFunc) Close() error { return f() }

func TestCloseJoinsErrors(t *testing.T) {
	closed := 0
	ok := closeFunc(func() error { closed++; return nil })
	bad := closeFunc(func() error { closed++; return errors.New("kafka") })

	app := New(testConfig(t), logger.Nop(), &countingRunner{}, nil, nil, ok, bad)
	assert.EqualError(t, app.Close(), "kafka")
	assert.Equal(t, 2, closed)
}
