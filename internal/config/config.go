package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	toml "github.com/pelletier/go-toml/v2"
)

// Session backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
)

// EnvPrefix prefixes every environment override, e.g. LADLE_API_URL.
const EnvPrefix = "LADLE_"

// Config is ladle's runtime configuration.
type Config struct {
	APIURL                string  `toml:"api_url" env:"API_URL"`
	SessionBackend        string  `toml:"session_backend" env:"SESSION_BACKEND"`
	SessionPath           string  `toml:"session_path" env:"SESSION_PATH"`
	RedisURL              string  `toml:"redis_url" env:"REDIS_URL"`
	RedisKey              string  `toml:"redis_key" env:"REDIS_KEY"`
	RequestTimeoutSeconds int     `toml:"request_timeout_seconds" env:"REQUEST_TIMEOUT_SECONDS"`
	RateLimit             float64 `toml:"rate_limit" env:"RATE_LIMIT"`
	LogLevel              string  `toml:"log_level" env:"LOG_LEVEL"`
	LogFile               string  `toml:"log_file" env:"LOG_FILE"`
	PollSeconds           int     `toml:"poll_seconds" env:"POLL_SECONDS"`
}

const (
	defaultConfigPath     = "~/.config/ladle/config.toml"
	defaultAPIURL         = "http://127.0.0.1:8000/api"
	defaultSessionPath    = "~/.config/ladle/session.toml"
	defaultRedisKey       = "ladle:session"
	defaultRequestTimeout = 10
	defaultLogLevel       = "info"
	defaultLogFile        = "~/.local/share/ladle/logs/ladle.log"
	defaultPollSeconds    = 5
)

// Default returns the configuration used when no file or override is present.
func Default() Config {
	return Config{
		APIURL:                defaultAPIURL,
		SessionBackend:        BackendFile,
		SessionPath:           defaultSessionPath,
		RedisKey:              defaultRedisKey,
		RequestTimeoutSeconds: defaultRequestTimeout,
		LogLevel:              defaultLogLevel,
		LogFile:               defaultLogFile,
		PollSeconds:           defaultPollSeconds,
	}
}

// Load reads the config file at path (or the default location), applies
// LADLE_* environment overrides, and validates the result. A missing file is
// not an error.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()
	if err := readFile(resolved, &cfg); err != nil {
		return Config{}, err
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func readFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(bytes, cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// normalize trims values, restores defaults for blanks, and expands paths.
func (c *Config) normalize() {
	def := Default()
	c.APIURL = orDefault(c.APIURL, def.APIURL)
	c.SessionBackend = strings.ToLower(orDefault(c.SessionBackend, def.SessionBackend))
	c.SessionPath = mustExpand(orDefault(c.SessionPath, def.SessionPath))
	c.RedisURL = strings.TrimSpace(c.RedisURL)
	c.RedisKey = orDefault(c.RedisKey, def.RedisKey)
	c.LogLevel = strings.ToLower(orDefault(c.LogLevel, def.LogLevel))
	if strings.TrimSpace(c.LogFile) == "-" {
		c.LogFile = ""
	} else {
		c.LogFile = mustExpand(orDefault(c.LogFile, def.LogFile))
	}
	if c.RequestTimeoutSeconds <= 0 {
		c.RequestTimeoutSeconds = def.RequestTimeoutSeconds
	}
	if c.PollSeconds <= 0 {
		c.PollSeconds = def.PollSeconds
	}
	if c.RateLimit < 0 {
		c.RateLimit = 0
	}
}

// Validate reports settings that cannot work together.
func (c Config) Validate() error {
	switch c.SessionBackend {
	case BackendFile:
	case BackendRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("session_backend %q requires redis_url", BackendRedis)
		}
	default:
		return fmt.Errorf("session_backend %q: want %q or %q", c.SessionBackend, BackendFile, BackendRedis)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level %q: want debug, info, warn, or error", c.LogLevel)
	}
	return nil
}

// RequestTimeout is the per-request HTTP timeout.
func (c Config) RequestTimeout() time.Duration {
	if c.RequestTimeoutSeconds <= 0 {
		return defaultRequestTimeout * time.Second
	}
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// PollInterval is the watch refresh cadence.
func (c Config) PollInterval() time.Duration {
	if c.PollSeconds <= 0 {
		return defaultPollSeconds * time.Second
	}
	return time.Duration(c.PollSeconds) * time.Second
}

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
