package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port     int    `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Simulation
	TickHz        int     `envconfig:"TICK_HZ" default:"60"`
	FrameEvery    int     `envconfig:"FRAME_EVERY" default:"2"`
	SnapThreshold float64 `envconfig:"SNAP_THRESHOLD" default:"10"`
	ResumePolicy  string  `envconfig:"RESUME_POLICY" default:"all"`

	// Sessions
	SessionSecret      string        `envconfig:"SESSION_SECRET" default:"dev-secret-change-in-production"`
	SessionTTL         time.Duration `envconfig:"SESSION_TTL" default:"24h"`
	SessionIdleTimeout time.Duration `envconfig:"SESSION_IDLE_TIMEOUT" default:"30m"`
	MaxSessions        int           `envconfig:"MAX_SESSIONS" default:"64"`

	AllowedOrigins string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
	PublicURL      string `envconfig:"PUBLIC_URL" default:"http://localhost:5173"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.TickHz <= 0 {
		return fmt.Errorf("TICK_HZ must be positive, got %d", c.TickHz)
	}
	if c.FrameEvery <= 0 {
		return fmt.Errorf("FRAME_EVERY must be positive, got %d", c.FrameEvery)
	}
	if c.SnapThreshold <= 0 {
		return fmt.Errorf("SNAP_THRESHOLD must be positive, got %v", c.SnapThreshold)
	}
	switch c.ResumePolicy {
	case "all", "restore":
	default:
		return fmt.Errorf("RESUME_POLICY must be all or restore, got %q", c.ResumePolicy)
	}
	return nil
}

// TickInterval is the wall-clock duration of one simulation tick.
func (c *Config) TickInterval() time.Duration {
	return time.Second / time.Duration(c.TickHz)
}

// Origins splits ALLOWED_ORIGINS into a list.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// SlogLevel maps LOG_LEVEL onto a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
