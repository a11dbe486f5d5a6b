package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Model     ModelConfig
	Store     StoreConfig
	Database  DatabaseConfig
	Log       LogConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port              string
	GinMode           string
	MaxBodyBytes      int64
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
}

func (s ServerConfig) Address() string {
	return ":" + s.Port
}

type ModelConfig struct {
	Path string
}

type StoreConfig struct {
	RecordsPath string
}

type DatabaseConfig struct {
	Enabled bool
	URL     string
}

type LogConfig struct {
	Level      string
	Format     string
	OutputPath string
}

type CORSConfig struct {
	AllowedOrigins []string
	MaxAge         time.Duration
}

type RateLimitConfig struct {
	// Submissions per second across the whole process; zero disables limiting.
	RequestsPerSecond float64
	BurstSize         int
}

// Load reads configuration from the environment, after merging a .env file
// from the working directory if one exists. Unset or blank variables take
// their default; a value that is set but cannot be parsed is an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	e := &env{}
	cfg := &Config{
		Server: ServerConfig{
			Port:              e.str("PORT", "8080"),
			GinMode:           e.str("GIN_MODE", "release"),
			MaxBodyBytes:      lookup(e, "MAX_BODY_BYTES", int64(1<<20), parseInt64),
			ReadHeaderTimeout: lookup(e, "SERVER_READ_HEADER_TIMEOUT", 5*time.Second, time.ParseDuration),
			ReadTimeout:       lookup(e, "SERVER_READ_TIMEOUT", 10*time.Second, time.ParseDuration),
			WriteTimeout:      lookup(e, "SERVER_WRITE_TIMEOUT", 15*time.Second, time.ParseDuration),
			IdleTimeout:       lookup(e, "SERVER_IDLE_TIMEOUT", 60*time.Second, time.ParseDuration),
			ShutdownTimeout:   lookup(e, "SERVER_SHUTDOWN_TIMEOUT", 5*time.Second, time.ParseDuration),
		},
		Model: ModelConfig{
			Path: e.str("MODEL_PATH", "models/leukemia_risk_model.json"),
		},
		Store: StoreConfig{
			RecordsPath: e.str("RECORDS_PATH", "user_leukemia_data.csv"),
		},
		Database: DatabaseConfig{
			Enabled: lookup(e, "ENABLE_DB", false, strconv.ParseBool),
			URL:     e.str("DATABASE_URL", ""),
		},
		Log: LogConfig{
			Level:      e.str("LOG_LEVEL", "info"),
			Format:     e.str("LOG_FORMAT", "json"),
			OutputPath: e.str("LOG_OUTPUT", "stdout"),
		},
		CORS: CORSConfig{
			AllowedOrigins: lookup(e, "CORS_ALLOWED_ORIGINS", []string{"*"}, parseList),
			MaxAge:         lookup(e, "CORS_MAX_AGE", 12*time.Hour, time.ParseDuration),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: lookup(e, "RATE_LIMIT_RPS", 20.0, parseFloat),
			BurstSize:         lookup(e, "RATE_LIMIT_BURST", 40, strconv.Atoi),
		},
	}

	if err := validate(cfg, e.errs); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *Config, errs []string) error {
	if cfg.Database.Enabled && cfg.Database.URL == "" {
		errs = append(errs, "DATABASE_URL is required when ENABLE_DB=true")
	}
	if cfg.Server.MaxBodyBytes <= 0 {
		errs = append(errs, "MAX_BODY_BYTES must be positive")
	}
	if cfg.RateLimit.RequestsPerSecond < 0 {
		errs = append(errs, "RATE_LIMIT_RPS must not be negative")
	}
	if cfg.Log.Format != "json" && cfg.Log.Format != "console" {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT must be json or console, got %q", cfg.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// env collects parse failures so Load can report every bad variable at once.
type env struct {
	errs []string
}

func (e *env) str(key, fallback string) string {
	return lookup(e, key, fallback, func(v string) (string, error) { return v, nil })
}

func lookup[T any](e *env, key string, fallback T, parse func(string) (T, error)) T {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := parse(raw)
	if err != nil {
		e.errs = append(e.errs, fmt.Sprintf("%s=%q is not valid: %v", key, raw, err))
		return fallback
	}
	return v
}

func parseInt64(v string) (int64, error) { return strconv.ParseInt(v, 10, 64) }

func parseFloat(v string) (float64, error) { return strconv.ParseFloat(v, 64) }

// parseList splits a comma-separated list, dropping empty items.
func parseList(v string) ([]string, error) {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return nil, errors.New("no items")
	}
	return out, nil
}
