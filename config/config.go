package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"ecg-screening/utils"
)

// Default values for the pipeline configuration.
const (
	DefaultGridRows      = 6
	DefaultGridCols      = 2
	DefaultMaxConcurrent = 2
	DefaultQueueDepth    = 64
	DefaultJobTimeout    = 60 * time.Second
)

// Config holds all settings for the screening pipeline. Values come from an
// optional YAML file layered under environment variables; the environment
// always wins so deployments can override a checked-in file.
type Config struct {
	// ModelDir is the directory holding the weight artifacts
	// (validator.json, classifier.json). Required at startup.
	ModelDir string `yaml:"model_dir"`

	// Grid describes the lead panel layout of incoming images.
	Grid GridConfig `yaml:"grid"`

	// Scheduler bounds concurrent inference executions.
	Scheduler SchedulerConfig `yaml:"scheduler"`

	// Risk holds the deterministic risk scoring constants.
	Risk RiskConfig `yaml:"risk"`

	// Calibration carries advisory per-class probability thresholds kept
	// from the training runs. They do not change class selection, which is
	// always the argmax of the probability map.
	Calibration map[string]float64 `yaml:"calibration"`
}

// GridConfig is the declared rows x columns layout of lead panels.
type GridConfig struct {
	Rows int `yaml:"rows"`
	Cols int `yaml:"cols"`
}

// SchedulerConfig bounds the inference worker pool.
type SchedulerConfig struct {
	// MaxConcurrent is the maximum number of jobs Running at once.
	MaxConcurrent int `yaml:"max_concurrent"`

	// QueueDepth is the FIFO admission buffer size.
	QueueDepth int `yaml:"queue_depth"`

	// JobTimeout is the wall-clock bound per isolated execution.
	JobTimeout time.Duration `yaml:"job_timeout"`
}

// RiskConfig holds the fixed risk level cut points and the ceiling applied
// to normal-class scores.
type RiskConfig struct {
	// LowMax is the highest score still reported as Low risk.
	LowMax int `yaml:"low_max"`

	// ModerateMax is the highest score still reported as Moderate risk.
	ModerateMax int `yaml:"moderate_max"`

	// NormalCeiling caps the score of a Normal prediction.
	NormalCeiling float64 `yaml:"normal_ceiling"`
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment, in that order of precedence (later wins).
func Load(path string) (*Config, error) {
	cfg := &Config{
		Grid: GridConfig{Rows: DefaultGridRows, Cols: DefaultGridCols},
		Scheduler: SchedulerConfig{
			MaxConcurrent: DefaultMaxConcurrent,
			QueueDepth:    DefaultQueueDepth,
			JobTimeout:    DefaultJobTimeout,
		},
		Risk: RiskConfig{LowMax: 33, ModerateMax: 66, NormalCeiling: 33},
		Calibration: map[string]float64{
			"MI": 0.92, "STTC": 0.78, "HYP": 0.92, "CD": 0.91,
		},
	}

	if path == "" {
		path = utils.GetEnv("ECG_CONFIG", "")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %q: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if dir := utils.GetEnv("ECG_MODEL_DIR", ""); dir != "" {
		cfg.ModelDir = dir
	}
	if v := utils.GetEnv("ECG_MAX_CONCURRENT", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Scheduler.MaxConcurrent = n
		}
	}
	if v := utils.GetEnv("ECG_JOB_TIMEOUT", ""); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Scheduler.JobTimeout = d
		}
	}
	if v := utils.GetEnv("ECG_GRID_ROWS", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Grid.Rows = n
		}
	}
	if v := utils.GetEnv("ECG_GRID_COLS", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Grid.Cols = n
		}
	}
}

// CalibrationThreshold returns the advisory probability threshold recorded
// for a class during training, if one exists. Thresholds never change class
// selection; they only flag low-margin predictions.
func (c *Config) CalibrationThreshold(class string) (float64, bool) {
	threshold, ok := c.Calibration[class]
	return threshold, ok
}

// Validate reports configuration errors that must abort startup.
func (c *Config) Validate() error {
	if c.ModelDir == "" {
		return errors.New("model directory is not configured: set ECG_MODEL_DIR or model_dir")
	}
	if c.Grid.Rows <= 0 || c.Grid.Cols <= 0 {
		return fmt.Errorf("invalid grid layout %dx%d", c.Grid.Rows, c.Grid.Cols)
	}
	if c.Grid.Rows*c.Grid.Cols < 12 {
		return fmt.Errorf("grid %dx%d cannot hold 12 lead panels", c.Grid.Rows, c.Grid.Cols)
	}
	if c.Scheduler.MaxConcurrent <= 0 {
		return fmt.Errorf("invalid max_concurrent %d", c.Scheduler.MaxConcurrent)
	}
	if c.Scheduler.QueueDepth <= 0 {
		return fmt.Errorf("invalid queue_depth %d", c.Scheduler.QueueDepth)
	}
	if c.Scheduler.JobTimeout <= 0 {
		return fmt.Errorf("invalid job_timeout %s", c.Scheduler.JobTimeout)
	}
	if c.Risk.LowMax <= 0 || c.Risk.ModerateMax <= c.Risk.LowMax {
		return fmt.Errorf("invalid risk cut points low=%d moderate=%d", c.Risk.LowMax, c.Risk.ModerateMax)
	}
	return nil
}
