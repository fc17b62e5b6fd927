// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, storage, text generation, rate limiting,
// and observability.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/tbourn/go-idea-board/internal/sysutil"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "go-idea-board")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// GenerationConfig selects and tunes the hosted text-generation provider.
type GenerationConfig struct {
	Provider      string        // GEN_PROVIDER: openai|gemini|template
	OpenAIAPIKey  string        // OPENAI_API_KEY
	OpenAIBaseURL string        // OPENAI_BASE_URL
	OpenAIModel   string        // OPENAI_MODEL
	GeminiAPIKey  string        // GEMINI_API_KEY
	GeminiModel   string        // GEMINI_MODEL
	Temperature   float64       // GEN_TEMPERATURE in (0..2]
	Timeout       time.Duration // GEN_TIMEOUT, per generate call including retries
	RetryAttempts int           // GEN_RETRY_ATTEMPTS (>= 1)
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 30s, must exceed Generation.Timeout
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test
	ShutdownTimeout   time.Duration // graceful shutdown budget

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	LogRedact      bool   // scrub PII from access logs
	SwaggerEnabled bool   // enable Swagger UI route

	// Storage
	DBDriver    string // sqlite|postgres
	DBPath      string // SQLite path
	DatabaseURL string // Postgres DSN (DB_DRIVER=postgres)

	// Text generation
	Generation GenerationConfig

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration // how long a given Idempotency-Key is valid

	// Story
	StoryMaxRunes int // longest accepted sentence

	// Observability
	OTEL OTELConfig
}

// MustLoad is Load for main packages: it panics on an invalid environment.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load builds a Config from the environment. Unset, empty or unparsable
// variables take their defaults; the result is then normalized and
// validated.
func Load() (Config, error) {
	cfg := Config{
		Port:              env("PORT", "8080", text),
		ReadTimeout:       env("READ_TIMEOUT", 15*time.Second, time.ParseDuration),
		ReadHeaderTimeout: env("READ_HEADER_TIMEOUT", 10*time.Second, time.ParseDuration),
		WriteTimeout:      env("WRITE_TIMEOUT", 30*time.Second, time.ParseDuration),
		IdleTimeout:       env("IDLE_TIMEOUT", 60*time.Second, time.ParseDuration),
		MaxHeaderBytes:    env("MAX_HEADER_BYTES", 1<<20, strconv.Atoi),
		GinMode:           env("GIN_MODE", "release", lower),
		ShutdownTimeout:   env("SHUTDOWN_TIMEOUT", 10*time.Second, time.ParseDuration),

		LogLevel:       env("LOG_LEVEL", "info", lower),
		LogPretty:      env("LOG_PRETTY", false, boolean),
		LogRedact:      env("LOG_REDACT", true, boolean),
		SwaggerEnabled: env("SWAGGER_ENABLED", false, boolean),

		DBDriver:    env("DB_DRIVER", "sqlite", lower),
		DBPath:      env("DB_PATH", "ideas.db", text),
		DatabaseURL: env("DATABASE_URL", "", text),

		Generation: GenerationConfig{
			Provider:      env("GEN_PROVIDER", "openai", lower),
			OpenAIAPIKey:  env("OPENAI_API_KEY", "", text),
			OpenAIBaseURL: strings.TrimRight(env("OPENAI_BASE_URL", "https://api.openai.com/v1", text), "/"),
			OpenAIModel:   env("OPENAI_MODEL", "gpt-4o-mini", text),
			GeminiAPIKey:  env("GEMINI_API_KEY", "", text),
			GeminiModel:   env("GEMINI_MODEL", "gemini-2.5-flash", text),
			Temperature:   env("GEN_TEMPERATURE", 0.9, float),
			Timeout:       env("GEN_TIMEOUT", 20*time.Second, time.ParseDuration),
			RetryAttempts: env("GEN_RETRY_ATTEMPTS", 2, strconv.Atoi),
		},

		RateRPS:   env("RATE_RPS", 5.0, float),
		RateBurst: env("RATE_BURST", 10, strconv.Atoi),

		CORS: CORSConfig{
			AllowedOrigins: splitCSV(env("CORS_ALLOWED_ORIGINS", "", text)),
		},
		Security: SecurityConfig{
			EnableHSTS: env("ENABLE_HSTS", false, boolean),
			HSTSMaxAge: env("HSTS_MAX_AGE", 180*24*time.Hour, time.ParseDuration),
		},

		IdempotencyTTL: env("IDEMPOTENCY_TTL", 24*time.Hour, time.ParseDuration),
		StoryMaxRunes:  env("STORY_MAX_RUNES", 500, strconv.Atoi),

		OTEL: OTELConfig{
			Enabled:     env("OTEL_ENABLED", false, boolean),
			Endpoint:    env("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317", text),
			Insecure:    env("OTEL_EXPORTER_OTLP_INSECURE", true, boolean),
			ServiceName: env("OTEL_SERVICE_NAME", "go-idea-board", text),
			SampleRatio: env("OTEL_TRACES_SAMPLER_ARG", 1.0, float),
		},
	}

	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	if !slices.Contains([]string{"debug", "release", "test"}, cfg.GinMode) {
		cfg.GinMode = "release"
	}
	return cfg, cfg.validate()
}

var logLevels = []string{"debug", "info", "warn", "error", "fatal", "panic"}

// validate returns the first violated rule.
func (c Config) validate() error {
	rules := []struct {
		broken bool
		msg    string
	}{
		{!slices.Contains(logLevels, c.LogLevel), "LOG_LEVEL must be one of: " + strings.Join(logLevels, ", ")},
		{blank(c.Port), "PORT must not be empty"},
		{c.ReadTimeout <= 0 || c.ReadHeaderTimeout <= 0 || c.WriteTimeout <= 0 ||
			c.IdleTimeout <= 0 || c.ShutdownTimeout <= 0, "timeouts must be positive durations"},
		{c.MaxHeaderBytes <= 0, "MAX_HEADER_BYTES must be > 0"},
		// A stalled provider uses up GEN_TIMEOUT before the placeholder idea
		// is stored and rendered, so the response needs budget beyond it.
		{c.WriteTimeout <= c.Generation.Timeout, "WRITE_TIMEOUT must be greater than GEN_TIMEOUT"},
		{c.DBDriver != "sqlite" && c.DBDriver != "postgres", "DB_DRIVER must be one of: sqlite, postgres"},
		{c.DBDriver == "sqlite" && blank(c.DBPath), "DB_PATH must not be empty"},
		{c.DBDriver == "postgres" && blank(c.DatabaseURL), "DATABASE_URL must be set when DB_DRIVER=postgres"},
		{c.RateRPS < 0, "RATE_RPS must be >= 0"},
		{c.RateBurst < 1, "RATE_BURST must be >= 1"},
		{c.Security.HSTSMaxAge < 0, "HSTS_MAX_AGE must be >= 0"},
		{c.IdempotencyTTL <= 0, "IDEMPOTENCY_TTL must be > 0"},
		{c.StoryMaxRunes < 1, "STORY_MAX_RUNES must be >= 1"},
		{c.OTEL.SampleRatio < 0 || c.OTEL.SampleRatio > 1, "OTEL_TRACES_SAMPLER_ARG must be in [0,1]"},
	}
	for _, r := range rules {
		if r.broken {
			return errors.New(r.msg)
		}
	}
	return c.Generation.validate()
}

// validate fails fast when the selected provider cannot work, instead of
// letting every generate request fall back to the sentinel.
func (g GenerationConfig) validate() error {
	switch g.Provider {
	case "openai":
		if blank(g.OpenAIAPIKey) {
			return errors.New("OPENAI_API_KEY must be set when GEN_PROVIDER=openai (use GEN_PROVIDER=template to run offline)")
		}
		if !strings.HasPrefix(g.OpenAIBaseURL, "http://") && !strings.HasPrefix(g.OpenAIBaseURL, "https://") {
			return errors.New("OPENAI_BASE_URL must be an http(s) URL")
		}
	case "gemini":
		if blank(g.GeminiAPIKey) {
			return errors.New("GEMINI_API_KEY must be set when GEN_PROVIDER=gemini")
		}
	case "template":
	default:
		return errors.New("GEN_PROVIDER must be one of: openai, gemini, template")
	}
	switch {
	case g.Temperature <= 0 || g.Temperature > 2:
		return errors.New("GEN_TEMPERATURE must be in (0,2]")
	case g.Timeout <= 0:
		return errors.New("GEN_TIMEOUT must be > 0")
	case g.RetryAttempts < 1:
		return errors.New("GEN_RETRY_ATTEMPTS must be >= 1")
	}
	return nil
}

// env reads k through parse, keeping def when k is unset, empty or
// malformed.
func env[T any](k string, def T, parse func(string) (T, error)) T {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	out, err := parse(v)
	if err != nil {
		return def
	}
	return out
}

func text(v string) (string, error)  { return v, nil }
func lower(v string) (string, error) { return strings.ToLower(v), nil }

func float(v string) (float64, error) { return strconv.ParseFloat(v, 64) }

func boolean(v string) (bool, error) {
	if b, ok := sysutil.ParseBool(v); ok {
		return b, nil
	}
	return false, fmt.Errorf("not a boolean: %q", v)
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }

// splitCSV splits a comma list, dropping blank entries.
func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
