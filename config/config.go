/*
Package config loads server and CLI configuration.

SOURCES (later wins):
  1. DefaultConfig()
  2. TOML file: $CASHFLOW_CONFIG, else $XDG_CONFIG_HOME/cashflow/config.toml,
     else ~/.config/cashflow/config.toml. A missing file is not an error.
  3. Environment: PORT, DB_PATH, LOG_LEVEL, LOG_FORMAT
  4. Command-line flags, applied by the caller

EXAMPLE FILE:
  [server]
  port = "8080"
  db_path = "./data/cashflow.db"

  [log]
  level = "debug"
  format = "text"

  [engine]
  projection_weeks = 12
  upcoming_days = 14

  [scheduler]
  enabled = true
  spec = "0 6 * * *"

  [providers.zip_pay]
  monthly_fee = 0
  max_amount = 150000

SEE ALSO:
  - providers.go: Provider overrides -> strategy.Rules
  - logging.go: Logger construction
*/
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"
	"github.com/warp/cashflow-engine/cashflow"
)

// Config holds all configuration.
type Config struct {
	Server    ServerConfig                `toml:"server"`
	Log       LogConfig                   `toml:"log"`
	Engine    EngineConfig                `toml:"engine"`
	Scheduler SchedulerConfig             `toml:"scheduler"`
	Providers map[string]ProviderOverride `toml:"providers,omitempty"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port   string `toml:"port"`
	DBPath string `toml:"db_path"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // json or text
}

// EngineConfig holds projection defaults.
type EngineConfig struct {
	ProjectionWeeks int `toml:"projection_weeks"`
	UpcomingDays    int `toml:"upcoming_days"`
}

// SchedulerConfig controls the daily income processing job.
type SchedulerConfig struct {
	Enabled bool   `toml:"enabled"`
	Spec    string `toml:"spec"` // standard 5-field cron expression
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Port:   "8080",
			DBPath: "./data/cashflow.db",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Engine: EngineConfig{
			ProjectionWeeks: cashflow.DefaultProjectionWeeks,
			UpcomingDays:    cashflow.DefaultUpcomingDays,
		},
		Scheduler: SchedulerConfig{
			Enabled: false,
			Spec:    "0 6 * * *",
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "cashflow")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "cashflow")
}

// ConfigPath returns the config file path, honouring CASHFLOW_CONFIG.
func ConfigPath() string {
	return getEnv("CASHFLOW_CONFIG", filepath.Join(ConfigDir(), "config.toml"))
}

// Load reads the config file at path (ConfigPath() when empty), returning
// defaults if it doesn't exist, then applies environment overrides.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		path = ConfigPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return cfg, fmt.Errorf("reading config: %w", err)
	default:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config: %w", err)
		}
	}

	cfg.applyEnv()
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Server.DBPath = getEnv("DB_PATH", c.Server.DBPath)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
}

// Validate checks values that would otherwise fail later at startup.
func (c Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("log.format must be json or text, got %q", c.Log.Format)
	}
	if c.Engine.ProjectionWeeks <= 0 {
		return fmt.Errorf("engine.projection_weeks must be positive, got %d", c.Engine.ProjectionWeeks)
	}
	if c.Engine.UpcomingDays <= 0 {
		return fmt.Errorf("engine.upcoming_days must be positive, got %d", c.Engine.UpcomingDays)
	}
	if _, err := c.Rules(); err != nil {
		return err
	}
	return nil
}

// Save writes the config to path (ConfigPath() when empty).
func Save(path string, cfg Config) error {
	if path == "" {
		path = ConfigPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}
