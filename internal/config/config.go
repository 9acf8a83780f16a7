package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/magicaleks/freq-server/internal/infra/frequency"
	"gopkg.in/yaml.v3"
)

// Build-time variables injected via -ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// Config holds the frequency server configuration.
type Config struct {
	// ListenAddr is the TCP address the HTTP server binds to.
	ListenAddr string `yaml:"listen_addr"`

	// BasePath prefixes the operation routes, e.g. /freq_server/StartServer.
	BasePath string `yaml:"base_path"`

	// Band lists the allocatable frequencies, e.g. "10-15,20".
	Band string `yaml:"band"`

	// Debug enables verbose logging.
	Debug bool `yaml:"debug"`

	// LogDir, when set, receives a copy of the log stream.
	LogDir string `yaml:"log_dir"`

	// StatsInterval controls how often pool occupancy is logged. Zero disables it.
	StatsInterval time.Duration `yaml:"stats_interval"`

	// RateRPS limits requests per client IP. Zero or less disables limiting.
	RateRPS float64 `yaml:"rate_rps"`

	// RateBurst is the token bucket size used with RateRPS.
	RateBurst int `yaml:"rate_burst"`
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		ListenAddr:    "0.0.0.0:8080",
		BasePath:      "/freq_server",
		Band:          frequency.DefaultBand,
		StatsInterval: 30 * time.Second,
		RateBurst:     20,
	}
}

// Load builds the configuration from defaults, the optional YAML file named
// by FREQ_CONFIG, and environment overrides, in that order.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	if path := strings.TrimSpace(os.Getenv("FREQ_CONFIG")); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("FREQ_LISTEN_ADDR"); v != "" {
		c.ListenAddr = v
	}

	if v := os.Getenv("FREQ_BASE_PATH"); v != "" {
		c.BasePath = v
	}

	if v := os.Getenv("FREQ_BAND"); v != "" {
		c.Band = v
	}

	if v := os.Getenv("FREQ_DEBUG"); v != "" {
		c.Debug = v == "true"
	}

	if v := os.Getenv("FREQ_LOG_DIR"); v != "" {
		c.LogDir = v
	}

	if v := os.Getenv("FREQ_STATS_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("FREQ_STATS_INTERVAL: %w", err)
		}
		c.StatsInterval = d
	}

	if v := os.Getenv("FREQ_RATE_RPS"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("FREQ_RATE_RPS: %w", err)
		}
		c.RateRPS = rps
	}

	if v := os.Getenv("FREQ_RATE_BURST"); v != "" {
		burst, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("FREQ_RATE_BURST: %w", err)
		}
		c.RateBurst = burst
	}

	return nil
}

// Validate reports configuration values that the server cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ListenAddr) == "" {
		return fmt.Errorf("listen address is required")
	}
	if !strings.HasPrefix(c.BasePath, "/") {
		return fmt.Errorf("base path %q must start with '/'", c.BasePath)
	}
	if _, err := frequency.ParseBand(c.Band); err != nil {
		return fmt.Errorf("band: %w", err)
	}
	if c.StatsInterval < 0 {
		return fmt.Errorf("stats interval must not be negative")
	}
	if c.RateRPS > 0 && c.RateBurst < 1 {
		return fmt.Errorf("rate burst must be positive when rate limiting is enabled")
	}
	return nil
}

// NewLogger creates a structured logger that writes to stdout and, when
// LogDir is set, to <LogDir>/<name>.log as well.
func NewLogger(cfg *Config, name string) (*slog.Logger, error) {
	var out io.Writer = os.Stdout

	if cfg.LogDir != "" {
		if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}

		logPath := filepath.Join(cfg.LogDir, name+".log")
		file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file %s: %w", logPath, err)
		}
		out = io.MultiWriter(os.Stdout, file)
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}

	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level})
	return slog.New(handler), nil
}
