package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// ErrConfiguration is matched by every invalid or missing setting.
var ErrConfiguration = errors.New("configuration error")

var fredKeyPattern = regexp.MustCompile(`^[a-z0-9]{32}$`)

const (
	defaultPort          = "8501"
	defaultFREDBaseURL   = "https://api.stlouisfed.org/fred"
	defaultFREDTimeout   = 30 * time.Second
	defaultChartCacheTTL = 60 * time.Second
)

type Config struct {
	FREDAPIKey       string
	FREDBaseURL      string
	ObservationStart string
	RequestTimeout   time.Duration
	ChartCacheTTL    time.Duration
	Port             string

	// Telegram is enabled only when both are set.
	TelegramToken    string
	WebhookPublicURL string

	OpenAIKey string
}

// Error names the setting that failed validation.
type Error struct {
	Key    string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrConfiguration, e.Key, e.Reason)
}

func (e *Error) Is(target error) bool { return target == ErrConfiguration }

// TelegramEnabled reports whether the chat adapter should start.
func (c Config) TelegramEnabled() bool {
	return c.TelegramToken != "" && c.WebhookPublicURL != ""
}

// Load reads .env if present, then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("config: ignoring .env: %v", err)
	}
	return LoadFrom(os.Getenv)
}

// LoadFrom builds a Config from getenv and validates it.
func LoadFrom(getenv func(string) string) (Config, error) {
	cfg := Config{
		FREDAPIKey:       getenv("FRED_API_KEY"),
		FREDBaseURL:      orDefault(getenv("FRED_BASE_URL"), defaultFREDBaseURL),
		ObservationStart: getenv("FRED_OBSERVATION_START"),
		Port:             orDefault(getenv("PORT"), defaultPort),
		TelegramToken:    getenv("TELEGRAM_BOT_TOKEN"),
		WebhookPublicURL: getenv("WEBHOOK_PUBLIC_URL"),
		OpenAIKey:        getenv("OPENAI_API_KEY"),
	}

	if cfg.FREDAPIKey == "" {
		return Config{}, &Error{Key: "FRED_API_KEY", Reason: "is required"}
	}
	if !fredKeyPattern.MatchString(cfg.FREDAPIKey) {
		return Config{}, &Error{Key: "FRED_API_KEY", Reason: "must be 32 lowercase alphanumeric characters"}
	}

	var err error
	if cfg.RequestTimeout, err = duration(getenv, "FRED_TIMEOUT", defaultFREDTimeout); err != nil {
		return Config{}, err
	}
	if cfg.ChartCacheTTL, err = duration(getenv, "CHART_CACHE_TTL", defaultChartCacheTTL); err != nil {
		return Config{}, err
	}

	if cfg.ObservationStart != "" {
		if _, err := time.Parse("2006-01-02", cfg.ObservationStart); err != nil {
			return Config{}, &Error{Key: "FRED_OBSERVATION_START", Reason: "must be YYYY-MM-DD"}
		}
	}
	if p, err := strconv.Atoi(cfg.Port); err != nil || p <= 0 || p > 65535 {
		return Config{}, &Error{Key: "PORT", Reason: fmt.Sprintf("invalid port %q", cfg.Port)}
	}
	if (cfg.TelegramToken == "") != (cfg.WebhookPublicURL == "") {
		return Config{}, &Error{Key: "TELEGRAM_BOT_TOKEN", Reason: "and WEBHOOK_PUBLIC_URL must be set together"}
	}
	return cfg, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// duration accepts Go durations ("45s") or a bare number of seconds.
func duration(getenv func(string) string, key string, def time.Duration) (time.Duration, error) {
	raw := getenv(key)
	if raw == "" {
		return def, nil
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, &Error{Key: key, Reason: fmt.Sprintf("invalid duration %q", raw)}
	}
	return d, nil
}
