package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"production" validate:"required"`
	Log         struct {
		Level      string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
		Format     string `yaml:"format" default:"console" validate:"oneof=console json"`
		Output     string `yaml:"output" default:"stdout" validate:"required"`
		TimeFormat string `yaml:"time_format"`
	} `yaml:"log"`
	Input struct {
		ObservationsPath   string `yaml:"observations_path" default:"data/korea_fear_greed_v2_ks200_last1y_rescaled_with_forward.csv" validate:"required"`
		ForwardSummaryPath string `yaml:"forward_summary_path" default:"data/fg_forward_summary_last1y_rescaled_pretty.csv"`
		SummaryJSONPath    string `yaml:"summary_json_path" default:"data/summary_last1y_rescaled.json"`
		NotesPath          string `yaml:"notes_path" default:"data/notes.md"`
		Remote             struct {
			ObservationsURL string        `yaml:"observations_url" validate:"omitempty,url"`
			Token           string        `yaml:"-"`
			Timeout         time.Duration `yaml:"timeout" default:"30s"`
		} `yaml:"remote"`
	} `yaml:"input"`
	Schema struct {
		DateColumns      []string `yaml:"date_columns" default:"[\"날짜\",\"date\",\"Date\"]" validate:"min=1"`
		ScoreColumns     []string `yaml:"score_columns" default:"[\"fear_greed_1y_rescaled\",\"fear_greed\",\"composite_score\"]" validate:"min=1"`
		BucketColumns    []string `yaml:"bucket_columns" default:"[\"fg_bucket_1y\",\"fg_bucket\",\"bucket_label\"]" validate:"min=1"`
		CloseColumns     []string `yaml:"close_columns" default:"[\"ks200_close\",\"index_close\",\"close\",\"Close\"]"`
		ForwardTemplates []string `yaml:"forward_templates" default:"[\"fwd_ret_{n}d_1y\",\"fwd_ret_{n}d\",\"forward_return_{n}d\"]" validate:"min=1,dive,contains={n}"`
		Components       []string `yaml:"components" default:"[\"momentum\",\"strength\",\"breadth\",\"putcall\",\"volatility\",\"safe_haven\",\"junk_bond\",\"margin_loan_ratio\"]"`
	} `yaml:"schema"`
	Analysis struct {
		TrendWindow   int `yaml:"trend_window" default:"5" validate:"gte=1"`
		SignalWindows struct {
			Short int `yaml:"short" default:"3" validate:"gte=1"`
			Long  int `yaml:"long" default:"5" validate:"gte=1"`
		} `yaml:"signal_windows"`
		Horizons       []int    `yaml:"horizons" default:"[20,60]" validate:"min=1,dive,gte=1"`
		HeatmapHorizon int      `yaml:"heatmap_horizon" default:"20" validate:"gte=1"`
		BucketOrder    []string `yaml:"bucket_order" default:"[\"Extreme Fear\",\"Fear\",\"Neutral\",\"Greed\",\"Extreme Greed\"]" validate:"min=1,dive,required"`
		TrendBands     struct {
			StrongDown float64 `yaml:"strong_down" default:"-0.05"`
			Down       float64 `yaml:"down" default:"-0.02"`
			Up         float64 `yaml:"up" default:"0.02"`
			StrongUp   float64 `yaml:"strong_up" default:"0.05"`
		} `yaml:"trend_bands"`
	} `yaml:"analysis"`
	Output struct {
		DocsDir       string   `yaml:"docs_dir" default:"docs" validate:"required"`
		AssetsDir     string   `yaml:"assets_dir" default:"assets" validate:"required"`
		ImageMode     string   `yaml:"image_mode" default:"file" validate:"oneof=file inline"`
		Title         string   `yaml:"title" default:"Fear & Greed Index (1Y rescaled) - Daily Report"`
		FilePrefix    string   `yaml:"file_prefix" default:"fg_report_1y" validate:"required"`
		FileSuffix    string   `yaml:"file_suffix" default:"_embedded"`
		IndexPage     string   `yaml:"index_page" default:"index.html" validate:"required"`
		IndexFile     string   `yaml:"index_file" default:"reports.json" validate:"required"`
		IndexLimit    int      `yaml:"index_limit" default:"10" validate:"gte=1"`
		Charts        []string `yaml:"charts" default:"[\"fg_line\",\"components\",\"forward_heatmap\",\"trend_heatmap_mean\",\"trend_heatmap_winrate\"]" validate:"dive,oneof=fg_line components forward_heatmap trend_heatmap_mean trend_heatmap_winrate"`
		ComponentTail int      `yaml:"component_tail" default:"180" validate:"gte=1"`
		RepoURL       string   `yaml:"repo_url"`
	} `yaml:"output"`
	Schedule struct {
		Cron       string `yaml:"cron" default:"0 30 18 * * MON-FRI" validate:"required"`
		RunOnStart bool   `yaml:"run_on_start"`
	} `yaml:"schedule"`
	Server struct {
		Port            int           `yaml:"port" default:"8080" validate:"gte=1,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		RunLimit        struct {
			Burst     float64 `yaml:"burst" default:"2" validate:"gte=0"`
			PerMinute float64 `yaml:"per_minute" default:"1" validate:"gte=0"`
		} `yaml:"run_limit"`
	} `yaml:"server"`
	Metrics struct {
		Enabled  bool   `yaml:"enabled" default:"true"`
		Path     string `yaml:"path" default:"/metrics"`
		Textfile string `yaml:"textfile"`
	} `yaml:"metrics"`
	Lock struct {
		Backend string        `yaml:"backend" default:"memory" validate:"oneof=memory redis"`
		Key     string        `yaml:"key" default:"run-lock" validate:"required"`
		TTL     time.Duration `yaml:"ttl" default:"10m"`
	} `yaml:"lock"`
	Redis struct {
		Host     string `yaml:"host" default:"localhost"`
		Port     int    `yaml:"port" default:"6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix" default:"fgreport"`
	} `yaml:"redis"`
	Kafka struct {
		Enabled      bool          `yaml:"enabled"`
		Brokers      []string      `yaml:"brokers" validate:"required_if=Enabled true"`
		Topic        string        `yaml:"topic" default:"fgreport.published"`
		RequiredAcks int           `yaml:"required_acks" default:"-1"`
		Compression  string        `yaml:"compression" default:"gzip" validate:"oneof=gzip snappy lz4 zstd none"`
		MaxAttempts  int           `yaml:"max_attempts" default:"3"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Enabled          bool          `yaml:"enabled"`
		Host             string        `yaml:"host" validate:"required_if=Enabled true"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"fgreport"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		Table            string        `yaml:"table" default:"heatmap_cells"`
		UseHTTP          bool          `yaml:"use_http"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout     time.Duration `yaml:"write_timeout" default:"10s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"30s"`
	} `yaml:"clickhouse"`
}

var validate = validator.New()

// Default returns a configuration populated only from struct defaults.
func Default() (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	return &c, nil
}

// Load reads and parses a YAML configuration file. A missing file yields the
// defaults so the binary can run without arguments.
func Load(path string) (*Config, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}

	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// defaults only
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("REPORT_DOCS_DIR"); v != "" {
		c.Output.DocsDir = v
	}
	if v := os.Getenv("REPORT_IMAGE_MODE"); v != "" {
		c.Output.ImageMode = v
	}
	if v := os.Getenv("REPORT_OBSERVATIONS_URL"); v != "" {
		c.Input.Remote.ObservationsURL = v
	}
	if v := os.Getenv("REPORT_INPUT_TOKEN"); v != "" {
		c.Input.Remote.Token = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		host, port, ok := strings.Cut(v, ":")
		c.Redis.Host = host
		if ok {
			if p, err := strconv.Atoi(port); err == nil {
				c.Redis.Port = p
			}
		}
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	b := c.Analysis.TrendBands
	if !(b.StrongDown < b.Down && b.Down < b.Up && b.Up < b.StrongUp) {
		return fmt.Errorf("analysis.trend_bands must be strictly increasing, got %v/%v/%v/%v", b.StrongDown, b.Down, b.Up, b.StrongUp)
	}
	if !slices.Contains(c.Analysis.Horizons, c.Analysis.HeatmapHorizon) {
		return fmt.Errorf("analysis.heatmap_horizon %d must be one of analysis.horizons %v", c.Analysis.HeatmapHorizon, c.Analysis.Horizons)
	}
	return nil
}

// RedisAddr returns host:port for the Redis backend.
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
