package server

import (
	"fmt"

	"github.com/robfig/cron/v3"

	"FGReport/pkg/logger"
)

// Scheduler runs jobs on cron expressions with a seconds field.
// Overlapping firings of the same job are skipped.
type Scheduler struct {
	cron *cron.Cron
	l    *logger.Logger
}

func NewScheduler(l *logger.Logger) *Scheduler {
	l = l.With(logger.String("component", "scheduler"))
	cl := cronLogger{l: l}
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		l: l,
	}
}

// AddFunc registers fn under name. Schedule examples:
//   - "0 30 18 * * MON-FRI" - 18:30 on weekdays
//   - "@every 1h"
func (s *Scheduler) AddFunc(schedule, name string, fn func()) error {
	if _, err := s.cron.AddFunc(schedule, fn); err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}
	s.l.Info("job registered", logger.String("job", name), logger.String("schedule", schedule))
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.l.Info("scheduler started")
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.l.Info("scheduler stopped")
}

// cronLogger adapts Logger to cron.Logger.
type cronLogger struct {
	l *logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug(msg, kvFields(keysAndValues)...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error(msg, append(kvFields(keysAndValues), logger.Error(err))...)
}

func kvFields(kv []interface{}) []logger.Field {
	fields := make([]logger.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields = append(fields, logger.Any(fmt.Sprint(kv[i]), kv[i+1]))
	}
	return fields
}
