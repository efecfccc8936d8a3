// Command authd is a reference HTTP server for the cookieauth engine.
//
// Configuration comes from the environment (and an optional .env file).
// With REDIS_ADDR unset it runs against an embedded miniredis, which loses
// every session on restart and is meant for local development only.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrEthical07/cookieauth"
	"github.com/MrEthical07/cookieauth/internal/logx"
	"github.com/MrEthical07/cookieauth/internal/memdir"
	promexport "github.com/MrEthical07/cookieauth/metrics/export/prometheus"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := logx.New(logx.Config{
		Service: "authd",
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})

	rdb, cleanup, err := connectRedis(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	dir := memdir.New()
	builder := cookieauth.New().
		WithConfig(cfg.engineConfig()).
		WithRedis(rdb).
		WithDirectory(dir).
		WithLogger(logger)
	if cfg.AuditEnabled {
		builder = builder.WithAuditSink(cookieauth.NewSlogSink(logger.With("stream", "audit")))
	}
	engine, err := builder.Build()
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	defer engine.Close()

	if err := seedAccount(engine, dir, cfg); err != nil {
		return err
	}

	logSecurityReport(ctx, logger, engine.SecurityReport())

	var metricsHandler http.Handler
	if cfg.MetricsEnabled {
		metricsHandler, err = promexport.NewHandler(engine)
		if err != nil {
			return fmt.Errorf("metrics handler: %w", err)
		}
	}

	router := newRouter(routerDeps{
		Engine:       engine,
		Logger:       logger,
		LoginLimiter: newIPLimiter(cfg.LoginRatePerSecond, cfg.LoginBurst),
		Metrics:      metricsHandler,
	})
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.InfoContext(ctx, "listening", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// connectRedis dials REDIS_ADDR, or starts an embedded miniredis when it is empty.
func connectRedis(cfg appConfig, logger *slog.Logger) (redis.UniversalClient, func(), error) {
	addr := cfg.RedisAddr
	var mr *miniredis.Miniredis
	if addr == "" {
		var err error
		mr, err = miniredis.Run()
		if err != nil {
			return nil, nil, fmt.Errorf("start embedded redis: %w", err)
		}
		addr = mr.Addr()
		logger.Warn("REDIS_ADDR not set; using embedded in-memory redis", "addr", addr)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	cleanup := func() {
		if err := rdb.Close(); err != nil {
			logger.Error("close redis failed", "error", err)
		}
		if mr != nil {
			mr.Close()
		}
	}
	return rdb, cleanup, nil
}

func seedAccount(engine *cookieauth.Engine, dir *memdir.Directory, cfg appConfig) error {
	if cfg.SeedLoginID == "" || cfg.SeedPassword == "" {
		return nil
	}
	hash, err := engine.PasswordHasher().Hash(cfg.SeedPassword)
	if err != nil {
		return fmt.Errorf("hash seed password: %w", err)
	}
	dir.Put(cookieauth.Credential{
		Principal:    cookieauth.Principal{ID: 1, LoginID: cfg.SeedLoginID, Role: "admin"},
		PasswordHash: hash,
	})
	return nil
}

func logSecurityReport(ctx context.Context, logger *slog.Logger, r cookieauth.SecurityReport) {
	logger.InfoContext(ctx, "security posture",
		"production", r.ProductionMode,
		"alg", r.SigningAlgorithm,
		"secret_bytes", r.SecretBytes,
		"access_ttl", r.AccessTTL.String(),
		"refresh_ttl", r.RefreshTTL.String(),
		"clock_skew", r.ClockSkew.String(),
		"cookie_secure", r.CookieSecure,
		"cookie_samesite", r.CookieSameSite,
		"refresh_binding", r.RefreshBindingEnabled,
		"login_throttle", r.LoginThrottleActive,
		"audit", r.AuditEnabled,
		"lint", r.LintCodes,
	)
}
