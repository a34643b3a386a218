// Package config provides application-wide configuration loaded from env vars.
// All fields have safe defaults so the binary runs locally with only an API key.
// Precedence, lowest to highest: defaults, YAML overlay file, .env file, process env.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/matiasleandrokruk/ideaforge/internal/infra/llm"
	pkgauth "github.com/matiasleandrokruk/ideaforge/pkg/auth"
)

// Provider holds the connection settings for one inference provider.
type Provider struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// Retry is the request-path retry tuning.
type Retry struct {
	MaxAttempts    int           `yaml:"max_attempts"`
	Delay          time.Duration `yaml:"delay"`
	WarmupDelay    time.Duration `yaml:"warmup_delay"`
	AttemptTimeout time.Duration `yaml:"attempt_timeout"`
	// Transport also retries connection-level failures.
	Transport bool `yaml:"transport"`
	// ServerErrors also retries any 5xx response, not only 503.
	ServerErrors bool `yaml:"server_errors"`
	// HonorRetryAfter uses the provider's estimated wait, capped at MaxDelay.
	HonorRetryAfter bool          `yaml:"honor_retry_after"`
	MaxDelay        time.Duration `yaml:"max_delay"`
}

// Warmup is the startup status-poll tuning.
type Warmup struct {
	Enabled     bool          `yaml:"enabled"`
	MaxAttempts int           `yaml:"max_attempts"`
	Delay       time.Duration `yaml:"delay"`
}

// Config holds runtime configuration for IdeaForge.
type Config struct {
	Host string `yaml:"host"` // HOST, default "" (all interfaces)
	Port int    `yaml:"port"` // PORT, default 3006

	// LLM
	LLMProvider string   `yaml:"llm_provider"` // LLM_PROVIDER, "huggingface" | "groq"
	HuggingFace Provider `yaml:"huggingface"`  // HUGGING_FACE_API_KEY, HF_BASE_URL, HF_MODEL
	Groq        Provider `yaml:"groq"`         // GROQ_API_KEY, GROQ_BASE_URL, GROQ_MODEL
	// LoadingPatterns are extra case-insensitive regexps recognized as "model is loading".
	LoadingPatterns []string `yaml:"loading_patterns"`

	Retry  Retry  `yaml:"retry"`
	Warmup Warmup `yaml:"warmup"`

	DatabasePath string `yaml:"database_path"` // DATABASE_PATH

	// Auth. The API is open when JWTSecret is empty.
	JWTSecret            string        `yaml:"-"` // JWT_SECRET, env only
	JWTExpiry            time.Duration `yaml:"-"` // JWT_EXPIRY in hours
	AuthClientID         string        `yaml:"auth_client_id"`
	AuthClientSecretHash string        `yaml:"-"` // AUTH_CLIENT_SECRET_HASH, env only

	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

const (
	envKeyConfigFile = "IDEAFORGE_CONFIG"

	envKeyHost        = "HOST"
	envKeyPort        = "PORT"
	envKeyLLMProvider = "LLM_PROVIDER"

	envKeyHFAPIKey     = "HUGGING_FACE_API_KEY"
	envKeyHFBaseURL    = "HF_BASE_URL"
	envKeyHFModel      = "HF_MODEL"
	envKeyGroqAPIKey   = "GROQ_API_KEY"
	envKeyGroqBaseURL  = "GROQ_BASE_URL"
	envKeyGroqModel    = "GROQ_MODEL"
	envKeyLoadPatterns = "LLM_LOADING_PATTERNS"

	envKeyRetryMaxAttempts    = "RETRY_MAX_ATTEMPTS"
	envKeyRetryDelay          = "RETRY_DELAY"
	envKeyRetryWarmupDelay    = "RETRY_WARMUP_DELAY"
	envKeyRetryAttemptTimeout = "RETRY_ATTEMPT_TIMEOUT"
	envKeyRetryTransport      = "RETRY_TRANSPORT"
	envKeyRetryServerErrors   = "RETRY_SERVER_ERRORS"
	envKeyRetryHonorAfter     = "RETRY_HONOR_RETRY_AFTER"
	envKeyRetryMaxDelay       = "RETRY_MAX_DELAY"

	envKeyWarmupEnabled     = "WARMUP_ENABLED"
	envKeyWarmupMaxAttempts = "WARMUP_MAX_ATTEMPTS"
	envKeyWarmupDelay       = "WARMUP_DELAY"

	envKeyDatabasePath = "DATABASE_PATH"

	envKeyJWTSecret            = "JWT_SECRET"
	envKeyJWTExpiry            = "JWT_EXPIRY"
	envKeyAuthClientID         = "AUTH_CLIENT_ID"
	envKeyAuthClientSecretHash = "AUTH_CLIENT_SECRET_HASH"

	envKeyCORSAllowedOrigins = "CORS_ALLOWED_ORIGINS"

	envKeyLogLevel  = "LOG_LEVEL"
	envKeyLogFormat = "LOG_FORMAT"
)

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	retry := llm.DefaultPolicy()
	warm := llm.WarmupPolicy()
	return Config{
		Port:        3006,
		LLMProvider: llm.ProviderHuggingFace,
		HuggingFace: Provider{BaseURL: llm.DefaultHuggingFaceBaseURL, Model: llm.DefaultHuggingFaceModel},
		Groq:        Provider{BaseURL: llm.DefaultGroqBaseURL, Model: llm.DefaultGroqModel},
		Retry: Retry{
			MaxAttempts:    retry.MaxAttempts,
			Delay:          retry.Delay,
			WarmupDelay:    retry.WarmupDelay,
			AttemptTimeout: retry.AttemptTimeout,
			MaxDelay:       retry.MaxDelay,
		},
		Warmup: Warmup{
			Enabled:     true,
			MaxAttempts: warm.MaxAttempts,
			Delay:       warm.Delay,
		},
		DatabasePath:       "./data/ideaforge.db",
		JWTExpiry:          pkgauth.ParseJWTExpiry(""),
		CORSAllowedOrigins: []string{"*"},
		LogLevel:           "info",
		LogFormat:          "json",
	}
}

// Load reads .env (if present), the optional YAML overlay named by
// IDEAFORGE_CONFIG, and environment variables, applying defaults for missing values.
func Load() (Config, error) {
	// A missing .env is normal in containers.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Defaults()
	if path := os.Getenv(envKeyConfigFile); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	var p envParser

	c.Host = envOr(envKeyHost, c.Host)
	c.Port = p.int(envKeyPort, c.Port)
	c.LLMProvider = strings.ToLower(envOr(envKeyLLMProvider, c.LLMProvider))

	c.HuggingFace.APIKey = envOr(envKeyHFAPIKey, c.HuggingFace.APIKey)
	c.HuggingFace.BaseURL = envOr(envKeyHFBaseURL, c.HuggingFace.BaseURL)
	c.HuggingFace.Model = envOr(envKeyHFModel, c.HuggingFace.Model)
	c.Groq.APIKey = envOr(envKeyGroqAPIKey, c.Groq.APIKey)
	c.Groq.BaseURL = envOr(envKeyGroqBaseURL, c.Groq.BaseURL)
	c.Groq.Model = envOr(envKeyGroqModel, c.Groq.Model)
	c.LoadingPatterns = envList(envKeyLoadPatterns, c.LoadingPatterns)

	c.Retry.MaxAttempts = p.int(envKeyRetryMaxAttempts, c.Retry.MaxAttempts)
	c.Retry.Delay = p.duration(envKeyRetryDelay, c.Retry.Delay)
	c.Retry.WarmupDelay = p.duration(envKeyRetryWarmupDelay, c.Retry.WarmupDelay)
	c.Retry.AttemptTimeout = p.duration(envKeyRetryAttemptTimeout, c.Retry.AttemptTimeout)
	c.Retry.Transport = p.bool(envKeyRetryTransport, c.Retry.Transport)
	c.Retry.ServerErrors = p.bool(envKeyRetryServerErrors, c.Retry.ServerErrors)
	c.Retry.HonorRetryAfter = p.bool(envKeyRetryHonorAfter, c.Retry.HonorRetryAfter)
	c.Retry.MaxDelay = p.duration(envKeyRetryMaxDelay, c.Retry.MaxDelay)

	c.Warmup.Enabled = p.bool(envKeyWarmupEnabled, c.Warmup.Enabled)
	c.Warmup.MaxAttempts = p.int(envKeyWarmupMaxAttempts, c.Warmup.MaxAttempts)
	c.Warmup.Delay = p.duration(envKeyWarmupDelay, c.Warmup.Delay)

	c.DatabasePath = envOr(envKeyDatabasePath, c.DatabasePath)

	c.JWTSecret = os.Getenv(envKeyJWTSecret)
	if v := os.Getenv(envKeyJWTExpiry); v != "" {
		c.JWTExpiry = pkgauth.ParseJWTExpiry(v)
	}
	c.AuthClientID = envOr(envKeyAuthClientID, c.AuthClientID)
	c.AuthClientSecretHash = os.Getenv(envKeyAuthClientSecretHash)

	c.CORSAllowedOrigins = envList(envKeyCORSAllowedOrigins, c.CORSAllowedOrigins)

	c.LogLevel = envOr(envKeyLogLevel, c.LogLevel)
	c.LogFormat = envOr(envKeyLogFormat, c.LogFormat)

	return p.err()
}

// Validate reports configuration that would make the service unusable.
// The API key is required for the selected provider.
func (c Config) Validate() error {
	var errs []error
	switch c.LLMProvider {
	case llm.ProviderHuggingFace:
		if c.HuggingFace.APIKey == "" {
			errs = append(errs, fmt.Errorf("%s is required when %s=%s", envKeyHFAPIKey, envKeyLLMProvider, c.LLMProvider))
		}
	case llm.ProviderGroq:
		if c.Groq.APIKey == "" {
			errs = append(errs, fmt.Errorf("%s is required when %s=%s", envKeyGroqAPIKey, envKeyLLMProvider, c.LLMProvider))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported %s %q (want %s or %s)",
			envKeyLLMProvider, c.LLMProvider, llm.ProviderHuggingFace, llm.ProviderGroq))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("%s out of range: %d", envKeyPort, c.Port))
	}
	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("%s must be at least 1", envKeyRetryMaxAttempts))
	}
	if c.AuthEnabled() && c.AuthClientSecretHash == "" {
		errs = append(errs, fmt.Errorf("%s is required when %s is set", envKeyAuthClientSecretHash, envKeyJWTSecret))
	}
	return errors.Join(errs...)
}

// AuthEnabled reports whether /api routes require a bearer token.
func (c Config) AuthEnabled() bool { return c.JWTSecret != "" }

// Addr returns the listen address.
func (c Config) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// envOr returns the value of the environment variable key, or fallback if not set.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envList splits a comma-separated env var, or returns fallback if not set.
func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// envParser collects parse errors so Load reports every bad key at once.
type envParser struct {
	errs []error
}

func (p *envParser) int(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: invalid integer %q", key, v))
		return fallback
	}
	return n
}

func (p *envParser) bool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: invalid boolean %q", key, v))
		return fallback
	}
	return b
}

// duration accepts Go durations ("20s", "1m30s") or a bare number of seconds.
func (p *envParser) duration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: invalid duration %q", key, v))
		return fallback
	}
	return d
}

func (p *envParser) err() error { return errors.Join(p.errs...) }
