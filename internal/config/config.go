package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Auth       AuthConfig       `yaml:"auth"`
	Tailscale  TailscaleConfig  `yaml:"tailscale"`
	Prediction PredictionConfig `yaml:"prediction"`
	Import     ImportConfig     `yaml:"import"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

// TailscaleConfig switches the listener to a tsnet node.
type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

// PredictionConfig tunes the next-workout predictor.
type PredictionConfig struct {
	// MaxSamplesPerSet caps how many past values feed each set's average.
	MaxSamplesPerSet int `yaml:"max_samples_per_set"`
	// DefaultSets is the set count predicted when a request names none.
	DefaultSets int `yaml:"default_sets"`
	// MaxSets is the largest set count or set number a request may ask for.
	MaxSets int `yaml:"max_sets"`
}

type ImportConfig struct {
	StateDir string `yaml:"state_dir"`
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Load reads config from a YAML file, then applies environment variable overrides.
// Env vars use the prefix LIFTLOG_ and underscore-separated paths:
//
//	LIFTLOG_SERVER_HOST, LIFTLOG_SERVER_PORT,
//	LIFTLOG_DB_HOST, LIFTLOG_DB_PORT, LIFTLOG_DB_NAME,
//	LIFTLOG_DB_USER, LIFTLOG_DB_PASSWORD, LIFTLOG_DB_SSLMODE,
//	LIFTLOG_AUTH_API_KEY,
//	LIFTLOG_TAILSCALE_ENABLED, LIFTLOG_TAILSCALE_HOSTNAME, LIFTLOG_TAILSCALE_STATE_DIR,
//	LIFTLOG_PREDICTION_MAX_SAMPLES, LIFTLOG_PREDICTION_DEFAULT_SETS, LIFTLOG_PREDICTION_MAX_SETS,
//	LIFTLOG_IMPORT_STATE_DIR
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func envString(name string, dst *string) {
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}

// envInt ignores values that are not integers.
func envInt(name string, dst *int) {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envBool(name string, dst *bool) {
	if v := os.Getenv(name); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func applyEnvOverrides(cfg *Config) {
	envString("LIFTLOG_SERVER_HOST", &cfg.Server.Host)
	envInt("LIFTLOG_SERVER_PORT", &cfg.Server.Port)

	envString("LIFTLOG_DB_HOST", &cfg.Database.Host)
	envInt("LIFTLOG_DB_PORT", &cfg.Database.Port)
	envString("LIFTLOG_DB_NAME", &cfg.Database.Name)
	envString("LIFTLOG_DB_USER", &cfg.Database.User)
	envString("LIFTLOG_DB_PASSWORD", &cfg.Database.Password)
	envString("LIFTLOG_DB_SSLMODE", &cfg.Database.SSLMode)

	envString("LIFTLOG_AUTH_API_KEY", &cfg.Auth.APIKey)

	envBool("LIFTLOG_TAILSCALE_ENABLED", &cfg.Tailscale.Enabled)
	envString("LIFTLOG_TAILSCALE_HOSTNAME", &cfg.Tailscale.Hostname)
	envString("LIFTLOG_TAILSCALE_STATE_DIR", &cfg.Tailscale.StateDir)

	envInt("LIFTLOG_PREDICTION_MAX_SAMPLES", &cfg.Prediction.MaxSamplesPerSet)
	envInt("LIFTLOG_PREDICTION_DEFAULT_SETS", &cfg.Prediction.DefaultSets)
	envInt("LIFTLOG_PREDICTION_MAX_SETS", &cfg.Prediction.MaxSets)

	envString("LIFTLOG_IMPORT_STATE_DIR", &cfg.Import.StateDir)
}

func applyDefaults(cfg *Config) {
	if cfg.Prediction.MaxSamplesPerSet == 0 {
		cfg.Prediction.MaxSamplesPerSet = 3
	}
	if cfg.Prediction.DefaultSets == 0 {
		cfg.Prediction.DefaultSets = 3
	}
	if cfg.Prediction.MaxSets == 0 {
		cfg.Prediction.MaxSets = 20
	}
	if cfg.Tailscale.Hostname == "" {
		cfg.Tailscale.Hostname = "liftlog"
	}
	if cfg.Import.StateDir == "" {
		cfg.Import.StateDir = ".liftlog"
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 && !c.Tailscale.Enabled {
		return fmt.Errorf("server.port is required")
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.Port == 0 {
		return fmt.Errorf("database.port is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database.user is required")
	}
	if c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key is required")
	}
	if c.Prediction.MaxSamplesPerSet < 1 {
		return fmt.Errorf("prediction.max_samples_per_set must be positive")
	}
	if c.Prediction.DefaultSets < 1 {
		return fmt.Errorf("prediction.default_sets must be positive")
	}
	if c.Prediction.MaxSets < c.Prediction.DefaultSets {
		return fmt.Errorf("prediction.max_sets must be at least prediction.default_sets")
	}
	return nil
}
