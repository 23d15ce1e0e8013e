// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// DatabaseURL is the Postgres connection string. Required.
	DatabaseURL string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"] (Vite dev server).
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// DefaultCurrency applies to events entered without a currency. Defaults to "EUR".
	DefaultCurrency string

	// BaseCurrency is what expense totals are converted into. Defaults to "HKD".
	BaseCurrency string

	// Location is where zone-less timestamps are read. TIMEZONE takes an IANA
	// name; unset means the process local zone.
	Location *time.Location

	// SaveDebounce is the quiescence window before state is written. Defaults to 500ms.
	SaveDebounce time.Duration

	// MaxBodyBytes caps request bodies. Defaults to 1 MiB.
	MaxBodyBytes int64

	// AIProvider selects the generative text service: gemini, openai or none.
	// Defaults to "gemini"; without the matching API key the features are off.
	AIProvider      string
	GeminiAPIKey    string
	OpenAIAPIKey    string
	AIModel         string
	AIRatePerSecond float64

	// ImageLookupURL is the page summary endpoint used for reference images.
	// Empty selects the Wikipedia REST API.
	ImageLookupURL string
}

// Load reads configuration from environment variables and returns a Config.
// Returns an error listing any required variables that are not set, or the
// first variable that does not parse.
func Load() (Config, error) {
	cfg := Config{
		Port:            getEnv("PORT", "8080"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		CORSOrigins:     splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		DefaultCurrency: strings.ToUpper(getEnv("DEFAULT_CURRENCY", "EUR")),
		BaseCurrency:    strings.ToUpper(getEnv("BASE_CURRENCY", "HKD")),
		AIProvider:      strings.ToLower(getEnv("AI_PROVIDER", "gemini")),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		AIModel:         os.Getenv("AI_MODEL"),
		ImageLookupURL:  os.Getenv("IMAGE_LOOKUP_URL"),
	}

	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}

	var err error
	if cfg.SaveDebounce, err = getDuration("SAVE_DEBOUNCE", 500*time.Millisecond); err != nil {
		return Config{}, err
	}
	if cfg.MaxBodyBytes, err = getInt("MAX_BODY_BYTES", 1<<20); err != nil {
		return Config{}, err
	}
	if cfg.AIRatePerSecond, err = getFloat("AI_RATE_PER_SECOND", 1); err != nil {
		return Config{}, err
	}

	cfg.Location = time.Local
	if tz := os.Getenv("TIMEZONE"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return Config{}, fmt.Errorf("TIMEZONE: %w", err)
		}
		cfg.Location = loc
	}

	switch cfg.AIProvider {
	case "gemini", "openai", "none":
	default:
		return Config{}, fmt.Errorf("AI_PROVIDER: unknown provider %q (want gemini, openai or none)", cfg.AIProvider)
	}

	return cfg, nil
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s: want a positive duration such as 500ms, got %q", key, v)
	}
	return d, nil
}

func getInt(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s: want a positive integer, got %q", key, v)
	}
	return n, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		return 0, fmt.Errorf("%s: want a non-negative number, got %q", key, v)
	}
	return f, nil
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
