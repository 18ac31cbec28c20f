package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// JWTConfig configures bearer token verification against the auth provider's JWKS endpoint.
type JWTConfig struct {
	Issuer   string `env:"JWT_ISSUER,required,notEmpty"`
	Audience string `env:"JWT_AUDIENCE,required,notEmpty"`
	JWKSURL  string `env:"JWT_JWKS_URL,required,notEmpty"`

	ClockSkew time.Duration `env:"JWT_CLOCK_SKEW" envDefault:"30s"`
	// JWKSRefreshInterval forces a periodic refetch so rotated keys are picked up.
	JWKSRefreshInterval time.Duration `env:"JWT_JWKS_REFRESH_INTERVAL" envDefault:"5m"`
	// JWKSMinRefreshInterval bounds refetches triggered by an unknown kid.
	JWKSMinRefreshInterval time.Duration `env:"JWT_JWKS_MIN_REFRESH_INTERVAL" envDefault:"10s"`

	HTTPTimeout time.Duration `env:"JWT_HTTP_TIMEOUT" envDefault:"5s"`
}

func LoadJWTConfigFromEnv() (JWTConfig, error) {
	var cfg JWTConfig
	if err := env.Parse(&cfg); err != nil {
		return JWTConfig{}, fmt.Errorf("jwt config: %w", err)
	}
	if cfg.ClockSkew < 0 || cfg.JWKSRefreshInterval < 0 || cfg.JWKSMinRefreshInterval < 0 {
		return JWTConfig{}, fmt.Errorf("jwt config: durations must not be negative")
	}
	return cfg, nil
}
