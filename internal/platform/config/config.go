// Package config loads process configuration from the environment, after an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port            string        `env:"PORT" envDefault:"8080"`
	Env             string        `env:"APP_ENV" envDefault:"development"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	// SiteURL is the public origin of the web front end; auth redirects resolve against it.
	SiteURL            string   `env:"SITE_URL" envDefault:"http://localhost:3000"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

	// AuthMode is jwt (bearer tokens verified against JWKS) or dev (X-Debug-Subject).
	AuthMode      string   `env:"AUTH_MODE" envDefault:"jwt"`
	DevSubject    string   `env:"DEV_SUBJECT" envDefault:"dev|local"`
	DevIssuer     string   `env:"DEV_ISSUER" envDefault:"dev"`
	AdminSubjects []string `env:"ADMIN_SUBJECTS" envSeparator:","`

	AuthProviderURL    string `env:"AUTH_PROVIDER_URL"`
	AuthProviderAPIKey string `env:"AUTH_PROVIDER_API_KEY"`
	CookieSecure       bool   `env:"AUTH_COOKIE_SECURE" envDefault:"true"`

	// StorageBackend is memory or postgres.
	StorageBackend string `env:"STORAGE_BACKEND" envDefault:"memory"`
	DatabaseURL    string `env:"DATABASE_URL"`
	DBMaxConns     int32  `env:"DB_MAX_CONNS" envDefault:"10"`
	DBAutoMigrate  bool   `env:"DB_AUTO_MIGRATE" envDefault:"true"`

	// RedisAddrs is empty for in-process quota counters.
	RedisAddrs    []string `env:"REDIS_ADDRS" envSeparator:","`
	RedisPassword string   `env:"REDIS_PASSWORD"`

	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	GeminiModel  string `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`

	RazorpayKeyID     string `env:"RAZORPAY_KEY_ID"`
	RazorpayKeySecret string `env:"RAZORPAY_KEY_SECRET"`
	RazorpayBaseURL   string `env:"RAZORPAY_BASE_URL" envDefault:"https://api.razorpay.com"`
	PaymentCurrency   string `env:"PAYMENT_CURRENCY" envDefault:"INR"`

	// MediaBackend is memory or gcs.
	MediaBackend       string `env:"MEDIA_BACKEND" envDefault:"memory"`
	MediaMaxBytes      int64  `env:"MEDIA_MAX_BYTES" envDefault:"26214400"`
	MediaPublicBaseURL string `env:"MEDIA_PUBLIC_BASE_URL"`
	GCSBucket          string `env:"GCS_BUCKET"`
	GCSCredentialsFile string `env:"GCS_CREDENTIALS_FILE"`

	SlugPolicy      string `env:"SLUG_POLICY" envDefault:"per_save"`
	TierEnforcement string `env:"TIER_ENFORCEMENT" envDefault:"advisory"`

	NominationRateLimit  int           `env:"NOMINATION_RATE_LIMIT" envDefault:"5"`
	NominationRateWindow time.Duration `env:"NOMINATION_RATE_WINDOW" envDefault:"1h"`
}

// Load reads .env files (missing files are ignored) and then the process environment.
// Variables already set in the environment win over .env values.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	var errs []error
	oneOf := func(name, v string, allowed ...string) {
		for _, a := range allowed {
			if v == a {
				return
			}
		}
		errs = append(errs, fmt.Errorf("%s must be one of %s (got %q)", name, strings.Join(allowed, "|"), v))
	}
	oneOf("AUTH_MODE", c.AuthMode, "jwt", "dev")
	oneOf("STORAGE_BACKEND", c.StorageBackend, "memory", "postgres")
	oneOf("MEDIA_BACKEND", c.MediaBackend, "memory", "gcs")
	oneOf("SLUG_POLICY", c.SlugPolicy, "per_save", "stable")
	oneOf("TIER_ENFORCEMENT", c.TierEnforcement, "advisory", "strict")

	if c.StorageBackend == "postgres" && c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required when STORAGE_BACKEND=postgres"))
	}
	if c.MediaBackend == "gcs" && c.GCSBucket == "" {
		errs = append(errs, errors.New("GCS_BUCKET is required when MEDIA_BACKEND=gcs"))
	}
	if c.MediaMaxBytes <= 0 {
		errs = append(errs, errors.New("MEDIA_MAX_BYTES must be positive"))
	}
	if c.NominationRateLimit <= 0 || c.NominationRateWindow <= 0 {
		errs = append(errs, errors.New("NOMINATION_RATE_LIMIT and NOMINATION_RATE_WINDOW must be positive"))
	}
	return errors.Join(errs...)
}

// IsDevelopment reports whether the process runs outside production.
func (c Config) IsDevelopment() bool {
	return c.Env != "production"
}
