package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 应用配置
type Config struct {
	// backend
	Port      string `yaml:"port"`
	DBPath    string `yaml:"db_path"`
	JWTSecret string `yaml:"jwt_secret"`
	RateLimit int    `yaml:"rate_limit"` // requests per minute per client, 0 = off

	ArcSpan    float64 `yaml:"arc_span"`    // degrees
	ArcSamples int     `yaml:"arc_samples"` // points per arc minus one

	// explorer
	BackendURL       string        `yaml:"backend_url"`
	StateDBPath      string        `yaml:"state_db_path"`
	TargetBody       int           `yaml:"target_body"`
	Debounce         time.Duration `yaml:"debounce"`
	RetryDelay       time.Duration `yaml:"retry_delay"`
	RelayVolumeScale float64       `yaml:"relay_volume_scale"`

	LogLevel string `yaml:"log_level"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Port:             ":8080",
		DBPath:           "./data/trajectories.db",
		RateLimit:        600,
		ArcSpan:          10,
		ArcSamples:       32,
		BackendURL:       "http://localhost:8080",
		StateDBPath:      "./data/explorer-state.db",
		TargetBody:       499,
		Debounce:         1000 * time.Millisecond,
		RetryDelay:       1000 * time.Millisecond,
		RelayVolumeScale: 1,
		LogLevel:         "info",
	}
}

// Load 加载配置: defaults overridden by environment variables.
func Load() *Config {
	cfg := Default()
	cfg.applyEnv()
	return cfg
}

// LoadFile 加载配置: defaults, then the YAML file at path, then environment
// variables.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		c.Port = v
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.JWTSecret = v
	}
	if v := os.Getenv("BACKEND_URL"); v != "" {
		c.BackendURL = v
	}
	if v := os.Getenv("STATE_DB_PATH"); v != "" {
		c.StateDBPath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	envInt("TARGET_BODY", &c.TargetBody)
	envInt("RATE_LIMIT", &c.RateLimit)
	envMillis("DEBOUNCE_MS", &c.Debounce)
	envMillis("RETRY_DELAY_MS", &c.RetryDelay)
	envFloat("RELAY_VOLUME_SCALE", &c.RelayVolumeScale)
}

// Invalid numbers keep the current value.
func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envMillis(key string, dst *time.Duration) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			*dst = time.Duration(n) * time.Millisecond
		}
	}
}

func envFloat(key string, dst *float64) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}
