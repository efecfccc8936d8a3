package cookieauth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	internalaudit "github.com/MrEthical07/cookieauth/internal/audit"
	"github.com/MrEthical07/cookieauth/internal/flows"
	"github.com/MrEthical07/cookieauth/internal/rate"
	"github.com/MrEthical07/cookieauth/jwt"
	"github.com/MrEthical07/cookieauth/password"
	"github.com/MrEthical07/cookieauth/session"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an Engine. Configure it during initialization and call
// Build once.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	directory PrincipalDirectory
	matcher   CredentialMatcher
	auditSink AuditSink
	logger    *slog.Logger
	now       func() time.Time

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the client backing session records, the blacklist and the
// login throttle. Any go-redis client (single node, cluster, ring) works.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithDirectory sets the principal lookup used by the gate and by refresh.
// A CredentialDirectory also enables the built-in password matcher.
func (b *Builder) WithDirectory(dir PrincipalDirectory) *Builder {
	b.directory = dir
	return b
}

// WithCredentialMatcher overrides the built-in password matcher.
func (b *Builder) WithCredentialMatcher(m CredentialMatcher) *Builder {
	b.matcher = m
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithClock replaces time.Now for token timestamps and expiry checks.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires every component. A Builder can
// only be built once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if b.redis == nil {
		return nil, errors.New("redis client required")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.directory == nil {
		return nil, errors.New("principal directory required")
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "cookieauth")

	now := b.now
	if now == nil {
		now = time.Now
	}

	// -------- TOKENS --------
	leeway := cfg.JWT.ClockSkew
	if leeway == 0 {
		leeway = -1
	}
	jm, err := jwt.NewManager(jwt.Config{
		Secret:   cloneBytes(cfg.JWT.Secret),
		Issuer:   cfg.JWT.Issuer,
		Audience: cfg.JWT.Audience,
		Leeway:   leeway,
		Now:      now,
	})
	if err != nil {
		return nil, err
	}

	// -------- PASSWORDS --------
	ph, err := password.NewArgon2(password.Config{
		Memory:           cfg.Password.Memory,
		Time:             cfg.Password.Time,
		Parallelism:      cfg.Password.Parallelism,
		SaltLength:       cfg.Password.SaltLength,
		KeyLength:        cfg.Password.KeyLength,
		MaxPasswordBytes: cfg.Password.MaxPasswordBytes,
	})
	if err != nil {
		return nil, err
	}

	matcher := b.matcher
	if matcher == nil {
		credDir, ok := b.directory.(CredentialDirectory)
		if !ok {
			return nil, errors.New("credential matcher required when directory cannot look up credentials")
		}
		matcher = newPasswordMatcher(credDir, ph, logger)
	}

	// -------- STORE + THROTTLE --------
	store := session.NewStore(b.redis, cfg.Session.KeyPrefix)

	var limiter *rate.Limiter
	if cfg.Security.EnableLoginThrottle {
		limiter = rate.New(b.redis, rate.Config{
			Prefix:           throttlePrefix(cfg.Session.KeyPrefix),
			EnableIPThrottle: cfg.Security.EnableIPThrottle,
			MaxLoginAttempts: cfg.Security.MaxLoginAttempts,
			LockoutWindow:    cfg.Security.LockoutWindow,
		})
	}

	engine := &Engine{
		config:       cloneConfig(cfg),
		sessionStore: store,
		rateLimiter:  limiter,
		jwtManager:   jm,
		passwordHash: ph,
		directory:    b.directory,
		matcher:      matcher,
		metrics:      NewMetrics(cfg.Metrics),
		logger:       logger,
		now:          now,
	}
	engine.audit = internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
		OnDrop:     func() { engine.metricInc(MetricAuditDropped) },
	}, b.auditSink)

	engine.flows = flows.New(engine.flowDeps(limiter))

	b.built = true

	return engine, nil
}

func throttlePrefix(keyPrefix string) string {
	if keyPrefix == "" || strings.HasSuffix(keyPrefix, ":") {
		return keyPrefix
	}
	return keyPrefix + ":"
}

func (e *Engine) flowDeps(limiter *rate.Limiter) flows.Deps {
	findPrincipal := func(ctx context.Context, loginID string) (flows.Principal, error) {
		return e.directory.FindPrincipalByLoginID(ctx, loginID)
	}

	login := flows.LoginDeps{
		Codec:              e.jwtManager,
		Store:              e.sessionStore,
		Match:              e.matcher.Match,
		ClassifyMatchError: classifyMatchError,
		ClientIP:           clientIPFromContext,
		Now:                e.now,
		Warn:               e.logger.Warn,
		AccessTTL:          e.config.JWT.AccessTTL,
		RefreshTTL:         e.config.JWT.RefreshTTL,
		RateLimited:        rate.ErrRateLimited,
	}
	// A nil *rate.Limiter stored in the interface would not compare equal to nil.
	if limiter != nil {
		login.RateLimiter = limiter
	}

	return flows.Deps{
		Login: login,
		Authenticate: flows.AuthenticateDeps{
			Codec:             e.jwtManager,
			FindPrincipal:     findPrincipal,
			PrincipalNotFound: ErrPrincipalNotFound,
		},
		Refresh: flows.RefreshDeps{
			Codec:             e.jwtManager,
			Store:             e.sessionStore,
			FindPrincipal:     findPrincipal,
			PrincipalNotFound: ErrPrincipalNotFound,
			Now:               e.now,
			AccessTTL:         e.config.JWT.AccessTTL,
			RefreshTTL:        e.config.JWT.RefreshTTL,
			EnforceBinding:    e.config.Security.EnforceRefreshBinding,
			RefreshRevoked:    session.ErrRefreshRevoked,
			RefreshNotFound:   session.ErrRefreshNotFound,
			RefreshMismatch:   session.ErrRefreshMismatch,
		},
		Logout: flows.LogoutDeps{
			Codec:    e.jwtManager,
			Store:    e.sessionStore,
			Now:      e.now,
			NotFound: session.ErrNotFound,
		},
	}
}
