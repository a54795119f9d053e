package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	yaml "github.com/goccy/go-yaml"

	"cotask/internal/sched"
	"cotask/internal/share"
)

// TaskConfig is the scheduling block every task takes.
type TaskConfig struct {
	Priority int     `yaml:"priority"`
	PeriodMS float64 `yaml:"period_ms"` // 0 = triggered only by Go
	Profile  bool    `yaml:"profile"`
	Trace    bool    `yaml:"trace"`
}

// Period converts PeriodMS to a duration.
func (c TaskConfig) Period() time.Duration {
	return time.Duration(c.PeriodMS * float64(time.Millisecond))
}

// GainsConfig tunes the wheel speed controllers.
type GainsConfig struct {
	Kp       float64 `yaml:"kp"`
	Ki       float64 `yaml:"ki"`
	Kd       float64 `yaml:"kd"`
	Setpoint float64 `yaml:"setpoint"` // mm/s
	Limit    float64 `yaml:"limit"`    // effort, percent
}

// QueueConfig describes the telemetry queue.
type QueueConfig struct {
	Type      string `yaml:"type"` // type code, e.g. "f" or "h"
	Capacity  int    `yaml:"capacity"`
	Overwrite bool   `yaml:"overwrite"`
}

// CourseConfig shapes the drive pattern: straight for FollowSteps control
// periods, then turning on the spot for TurnSteps.
type CourseConfig struct {
	FollowSteps int `yaml:"follow_steps"`
	TurnSteps   int `yaml:"turn_steps"`
}

// WheelConfig is the simulated drivetrain.
type WheelConfig struct {
	Gain float64 `yaml:"gain"` // steady-state mm/s per percent effort
	Tau  float64 `yaml:"tau"`  // time constant, seconds
}

// Config mirrors config.yml.
type Config struct {
	Policy     string `yaml:"policy"`      // priority (by default) or round_robin
	TraceLimit int    `yaml:"trace_limit"` // 1024 (by default)

	Encoder   TaskConfig `yaml:"encoder"`
	Control   TaskConfig `yaml:"control"`
	Button    TaskConfig `yaml:"button"`
	Telemetry TaskConfig `yaml:"telemetry"`
	Load      TaskConfig `yaml:"load"`

	Gains          GainsConfig  `yaml:"gains"`
	TelemetryQueue QueueConfig  `yaml:"telemetry_queue"`
	Course         CourseConfig `yaml:"course"`
	Wheel          WheelConfig  `yaml:"wheel"`

	ButtonIntervalMS int `yaml:"button_interval_ms"` // simulated presses; 0 = never
	LoadBusyUS       int `yaml:"load_busy_us"`
}

// If the config file is not found, we use default values
func defaultConfig() Config {
	return Config{
		Policy:     "priority",
		TraceLimit: sched.DefaultTraceLimit,

		Button:    TaskConfig{Priority: 4, Profile: true, Trace: true},
		Control:   TaskConfig{Priority: 3, PeriodMS: 10, Profile: true, Trace: true},
		Encoder:   TaskConfig{Priority: 2, PeriodMS: 10, Profile: true},
		Telemetry: TaskConfig{Priority: 1, PeriodMS: 50, Profile: true},
		Load:      TaskConfig{Priority: 0, PeriodMS: 20, Profile: true},

		Gains:          GainsConfig{Kp: 0.05, Ki: 0.8, Setpoint: 200, Limit: 100},
		TelemetryQueue: QueueConfig{Type: "f", Capacity: 16, Overwrite: true},
		Course:         CourseConfig{FollowSteps: 200, TurnSteps: 50},
		Wheel:          WheelConfig{Gain: 5, Tau: 0.1},

		ButtonIntervalMS: 1500,
		LoadBusyUS:       500,
	}
}

// Load reads YAML and overrides defaults; empty path = defaults only.
// Errors are swallowed; use LoadFile to see them.
func Load(path string) Config {
	cfg, _ := LoadFile(path)
	return cfg
}

// LoadFile is Load that reports why it fell back. A missing file yields the
// defaults and an error wrapping fs.ErrNotExist. Malformed YAML yields the
// defaults and the parse error.
func LoadFile(path string) (Config, error) {
	cfg := defaultConfig()

	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return defaultConfig(), fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.clamp()
	return cfg, nil
}

// Missing reports whether err came from a config file that does not exist.
func Missing(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

// sanity clamps
func (c *Config) clamp() {
	def := defaultConfig()

	if _, err := sched.ParsePolicy(c.Policy); err != nil {
		c.Policy = def.Policy
	}
	if c.TraceLimit <= 0 {
		c.TraceLimit = def.TraceLimit
	}
	maxMS := float64(sched.MaxPeriod) / 1000
	for _, tc := range []*TaskConfig{&c.Encoder, &c.Control, &c.Button, &c.Telemetry, &c.Load} {
		if tc.PeriodMS < 0 {
			tc.PeriodMS = 0
		}
		if tc.PeriodMS > maxMS {
			tc.PeriodMS = maxMS
		}
	}
	if c.Gains.Limit <= 0 {
		c.Gains.Limit = def.Gains.Limit
	}
	if _, err := share.ParseTypeCode(c.TelemetryQueue.Type); err != nil {
		c.TelemetryQueue.Type = def.TelemetryQueue.Type
	}
	if c.TelemetryQueue.Capacity <= 0 {
		c.TelemetryQueue.Capacity = def.TelemetryQueue.Capacity
	}
	if c.Course.FollowSteps <= 0 {
		c.Course.FollowSteps = def.Course.FollowSteps
	}
	if c.Course.TurnSteps < 0 {
		c.Course.TurnSteps = 0
	}
	if c.Wheel.Gain <= 0 {
		c.Wheel.Gain = def.Wheel.Gain
	}
	if c.Wheel.Tau <= 0 {
		c.Wheel.Tau = def.Wheel.Tau
	}
	if c.ButtonIntervalMS < 0 {
		c.ButtonIntervalMS = 0
	}
	if c.LoadBusyUS < 0 {
		c.LoadBusyUS = 0
	}
}
