package models

import "time"

// Run statuses.
const (
	RunStatusRunning = "running"
	RunStatusSuccess = "success"
	RunStatusFailed  = "failed"
)

// RunOptions parameterizes one pipeline run.
type RunOptions struct {
	ImageMode      string   `json:"image_mode" validate:"omitempty,oneof=file inline"`
	Charts         []string `json:"charts" validate:"omitempty,dive,oneof=fg_line components forward_heatmap trend_heatmap_mean trend_heatmap_winrate"`
	HeatmapHorizon int      `json:"heatmap_horizon" validate:"omitempty,gte=1"`
	Trigger        string   `json:"-"`
}

// RunResult describes a finished run.
type RunResult struct {
	RunID      string        `json:"run_id"`
	Status     string        `json:"status"`
	Trigger    string        `json:"trigger,omitempty"`
	AsOf       string        `json:"asof,omitempty"`
	Rows       int           `json:"rows"`
	Files      []string      `json:"files,omitempty"`
	Charts     []string      `json:"charts,omitempty"`
	Skipped    []string      `json:"skipped,omitempty"`
	Verdict    Verdict       `json:"verdict,omitempty"`
	Bytes      int64         `json:"bytes"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at,omitempty"`
	Duration   time.Duration `json:"-"`
	Error      string        `json:"error,omitempty"`
}

// PublishedEvent is emitted after a report is written.
type PublishedEvent struct {
	RunID       string    `json:"run_id"`
	AsOf        string    `json:"asof"`
	File        string    `json:"file"`
	Score       float64   `json:"score"`
	Bucket      string    `json:"bucket"`
	Verdict     Verdict   `json:"verdict"`
	LevelAction Action    `json:"level_action"`
	TrendAction Action    `json:"trend_action"`
	Current     *Cell     `json:"current_cell,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}
