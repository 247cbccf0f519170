package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/joho/godotenv"
)

// Environment variable names recognized by outboxd.
const (
	EnvGeminiAPIKey    = "GEMINI_API_KEY"
	EnvOpenAIAPIKey    = "OPENAI_API_KEY"
	EnvCredentialsFile = "GOOGLE_CREDENTIALS_FILE"
	EnvTokenFile       = "OUTBOXD_TOKEN_FILE"
	EnvAuthTimeout     = "OUTBOXD_AUTH_TIMEOUT"
	EnvProviderTimeout = "OUTBOXD_PROVIDER_TIMEOUT"
	EnvGeminiModel     = "GEMINI_MODEL"
	EnvOpenAIModel     = "OPENAI_MODEL"
)

// Defaults applied when the corresponding environment variable is unset.
const (
	DefaultAuthTimeout     = 5 * time.Minute
	DefaultProviderTimeout = 60 * time.Second
	DefaultGeminiModel     = "gemini-1.5-pro"
	DefaultOpenAIModel     = "gpt-4o-mini"

	defaultCredentialsFile = "credentials.json"
	defaultTokenFileName   = "google-token.json"
)

// ErrMissingGenerationKey is returned when neither generation provider has
// an API key configured. At least one provider is required at startup.
var ErrMissingGenerationKey = errors.New("no generation provider configured: set " +
	EnvGeminiAPIKey + " and/or " + EnvOpenAIAPIKey)

// Config holds the validated process configuration.
type Config struct {
	// GeminiAPIKey authenticates against the Gemini API. Optional if
	// OpenAIAPIKey is set.
	GeminiAPIKey string

	// OpenAIAPIKey authenticates against the OpenAI API. Optional if
	// GeminiAPIKey is set.
	OpenAIAPIKey string

	// GeminiModel and OpenAIModel select the generation model per provider.
	GeminiModel string
	OpenAIModel string

	// CredentialsFile is the path to the OAuth client secret JSON. This
	// file is read-only input provided by the operator.
	CredentialsFile string

	// TokenFile is the path where the OAuth token record is persisted.
	TokenFile string

	// AuthTimeout bounds the interactive authorization flow so a hung
	// callback listener cannot block the process indefinitely.
	AuthTimeout time.Duration

	// ProviderTimeout is the per-attempt timeout for mail-send and
	// generation provider calls.
	ProviderTimeout time.Duration
}

// Load reads configuration from the environment, optionally seeded from the
// .env file at envFile (ignored if the file does not exist). It returns
// ErrMissingGenerationKey if no generation provider is configured.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	} else {
		// Best-effort load of a local .env, matching the original
		// deployment layout. Absence is not an error.
		_ = godotenv.Load()
	}

	cfg := &Config{
		GeminiAPIKey:    os.Getenv(EnvGeminiAPIKey),
		OpenAIAPIKey:    os.Getenv(EnvOpenAIAPIKey),
		GeminiModel:     getEnvOrDefault(EnvGeminiModel, DefaultGeminiModel),
		OpenAIModel:     getEnvOrDefault(EnvOpenAIModel, DefaultOpenAIModel),
		CredentialsFile: getEnvOrDefault(EnvCredentialsFile, defaultCredentialsFile),
		TokenFile:       getEnvOrDefault(EnvTokenFile, DefaultTokenFile()),
		AuthTimeout:     getEnvDurationOrDefault(EnvAuthTimeout, DefaultAuthTimeout),
		ProviderTimeout: getEnvDurationOrDefault(EnvProviderTimeout, DefaultProviderTimeout),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.GeminiAPIKey == "" && c.OpenAIAPIKey == "" {
		return ErrMissingGenerationKey
	}
	if c.AuthTimeout <= 0 {
		return fmt.Errorf("auth timeout must be positive, got %s", c.AuthTimeout)
	}
	if c.ProviderTimeout <= 0 {
		return fmt.Errorf("provider timeout must be positive, got %s", c.ProviderTimeout)
	}
	return nil
}

// DefaultTokenFile returns the default token record path inside the user
// cache directory.
func DefaultTokenFile() string {
	return filepath.Join(userCacheDir(), "outboxd", defaultTokenFileName)
}

func userCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return dir
	}
	// UserCacheDir fails only when HOME and the platform equivalents are
	// all unset; fall back to a temp location rather than failing startup.
	if runtime.GOOS == "windows" {
		return os.TempDir()
	}
	return filepath.Join(os.TempDir(), "outboxd-cache")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
