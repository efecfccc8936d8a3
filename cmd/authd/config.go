package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/MrEthical07/cookieauth"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type appConfig struct {
	JWTSecret             string `env:"AUTH_JWT_SECRET,required,notEmpty"`
	AccessTTLMillis       int64  `env:"AUTH_ACCESS_TTL_MS" envDefault:"1800000"`
	RefreshTTLMillis      int64  `env:"AUTH_REFRESH_TTL_MS" envDefault:"1209600000"`
	ClockSkewSeconds      int    `env:"AUTH_CLOCK_SKEW_SECONDS" envDefault:"180"`
	Issuer                string `env:"AUTH_ISSUER"`
	CookieSecure          bool   `env:"AUTH_COOKIE_SECURE" envDefault:"false"`
	Production            bool   `env:"AUTH_PRODUCTION" envDefault:"false"`
	EnforceRefreshBinding bool   `env:"AUTH_ENFORCE_REFRESH_BINDING" envDefault:"true"`
	KeyPrefix             string `env:"AUTH_KEY_PREFIX"`
	AuditEnabled          bool   `env:"AUTH_AUDIT_ENABLED" envDefault:"true"`

	// Optional demo account seeded into the in-memory directory.
	SeedLoginID  string `env:"AUTH_SEED_LOGIN_ID"`
	SeedPassword string `env:"AUTH_SEED_PASSWORD"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	HTTPAddr           string        `env:"HTTP_ADDR" envDefault:":8080"`
	LoginRatePerSecond float64       `env:"LOGIN_RATE_PER_SECOND" envDefault:"1"`
	LoginBurst         int           `env:"LOGIN_BURST" envDefault:"10"`
	ShutdownTimeout    time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat      string `env:"LOG_FORMAT" envDefault:"json"`
	MetricsEnabled bool   `env:"METRICS_ENABLED" envDefault:"true"`
}

// loadConfig reads an optional .env file and then the process environment.
func loadConfig() (appConfig, error) {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return appConfig{}, fmt.Errorf("load .env file: %w", err)
		}
	}

	var cfg appConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// engineConfig maps the environment onto the library configuration.
func (c appConfig) engineConfig() cookieauth.Config {
	cfg := cookieauth.DefaultConfig()
	cfg.JWT.Secret = []byte(c.JWTSecret)
	cfg.JWT.AccessTTL = time.Duration(c.AccessTTLMillis) * time.Millisecond
	cfg.JWT.RefreshTTL = time.Duration(c.RefreshTTLMillis) * time.Millisecond
	cfg.JWT.ClockSkew = time.Duration(c.ClockSkewSeconds) * time.Second
	cfg.JWT.Issuer = c.Issuer
	cfg.Cookie.Secure = c.CookieSecure
	cfg.Session.KeyPrefix = c.KeyPrefix
	cfg.Security.ProductionMode = c.Production
	cfg.Security.EnforceRefreshBinding = c.EnforceRefreshBinding
	cfg.Audit.Enabled = c.AuditEnabled
	cfg.Metrics.Enabled = c.MetricsEnabled
	cfg.Metrics.EnableLatencyHistograms = c.MetricsEnabled
	return cfg
}
