package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const defaultCatalogURL = "https://api.rawg.io/api"

type Config struct {
	Env          string
	Addr         string
	PublicURL    *url.URL
	DBDSN        string
	Migrate      bool
	CookieSecret string
	SessionTTL   time.Duration
	LogLevel     string

	RedisURL string

	CatalogURL        string
	CatalogAPIKey     string
	CatalogRatePerSec float64
	CatalogCacheTTL   time.Duration

	GoogleClientID string
	AppleServiceID string
}

func Load() (Config, error) {
	envFile := os.Getenv("APP_ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := loadDotEnvFile(envFile, os.Setenv, os.Getenv); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", envFile, err)
	}
	return LoadFromEnv(os.Getenv)
}

func LoadFromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		Env:            getenv("APP_ENV"),
		Addr:           getenv("APP_ADDR"),
		DBDSN:          getenv("APP_DB_DSN"),
		LogLevel:       getenv("APP_LOG_LEVEL"),
		CookieSecret:   getenv("APP_COOKIE_SECRET"),
		RedisURL:       strings.TrimSpace(getenv("APP_REDIS_URL")),
		CatalogURL:     strings.TrimRight(strings.TrimSpace(getenv("APP_CATALOG_URL")), "/"),
		CatalogAPIKey:  strings.TrimSpace(getenv("APP_CATALOG_API_KEY")),
		GoogleClientID: strings.TrimSpace(getenv("APP_GOOGLE_CLIENT_ID")),
		AppleServiceID: strings.TrimSpace(getenv("APP_APPLE_SERVICE_ID")),
	}

	if cfg.Env == "" {
		cfg.Env = "dev"
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8080"
	}
	if cfg.CatalogURL == "" {
		cfg.CatalogURL = defaultCatalogURL
	}

	switch cfg.Env {
	case "dev", "prod", "test":
	default:
		return Config{}, errors.New("APP_ENV: must be one of dev, test, prod")
	}

	publicURLRaw := getenv("APP_PUBLIC_URL")
	if publicURLRaw != "" {
		parsed, err := url.Parse(publicURLRaw)
		if err != nil {
			return Config{}, fmt.Errorf("APP_PUBLIC_URL: %w", err)
		}
		if !parsed.IsAbs() || parsed.Host == "" {
			return Config{}, errors.New("APP_PUBLIC_URL: must be an absolute URL")
		}
		switch parsed.Scheme {
		case "http", "https":
		default:
			return Config{}, errors.New("APP_PUBLIC_URL: scheme must be http or https")
		}
		cfg.PublicURL = parsed
	}

	ttl, err := parsePositiveDuration(getenv("APP_SESSION_TTL"), 30*24*time.Hour)
	if err != nil {
		return Config{}, fmt.Errorf("APP_SESSION_TTL: %w", err)
	}
	cfg.SessionTTL = ttl

	cacheTTL, err := parsePositiveDuration(getenv("APP_CATALOG_CACHE_TTL"), 10*time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("APP_CATALOG_CACHE_TTL: %w", err)
	}
	cfg.CatalogCacheTTL = cacheTTL

	cfg.CatalogRatePerSec = 4
	if raw := strings.TrimSpace(getenv("APP_CATALOG_RATE_PER_SEC")); raw != "" {
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Config{}, fmt.Errorf("APP_CATALOG_RATE_PER_SEC: %w", err)
		}
		if n <= 0 {
			return Config{}, errors.New("APP_CATALOG_RATE_PER_SEC: must be > 0")
		}
		cfg.CatalogRatePerSec = n
	}

	switch strings.ToLower(strings.TrimSpace(getenv("APP_MIGRATE"))) {
	case "", "0", "false", "no":
	case "1", "true", "yes":
		cfg.Migrate = true
	default:
		return Config{}, errors.New("APP_MIGRATE: must be true or false")
	}

	if cfg.IsProd() {
		if cfg.PublicURL == nil {
			return Config{}, errors.New("APP_PUBLIC_URL: required in prod")
		}
		if cfg.DBDSN == "" {
			return Config{}, errors.New("APP_DB_DSN: required in prod")
		}
		if len(cfg.CookieSecret) < 32 {
			return Config{}, errors.New("APP_COOKIE_SECRET: must be at least 32 bytes in prod")
		}
	}

	return cfg, nil
}

func (c Config) IsProd() bool { return c.Env == "prod" }

func (c Config) CookieSecure() bool {
	if c.PublicURL != nil {
		return c.PublicURL.Scheme == "https"
	}
	return c.IsProd()
}

func parsePositiveDuration(raw string, def time.Duration) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, errors.New("must be > 0")
	}
	return d, nil
}
