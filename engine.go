package cookieauth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	internalaudit "github.com/MrEthical07/cookieauth/internal/audit"
	"github.com/MrEthical07/cookieauth/internal/flows"
	"github.com/MrEthical07/cookieauth/internal/rate"
	"github.com/MrEthical07/cookieauth/jwt"
	"github.com/MrEthical07/cookieauth/password"
	"github.com/MrEthical07/cookieauth/session"
)

// Engine runs the credential lifecycle: login, per-request authentication,
// refresh and logout. It is safe for concurrent use once built.
type Engine struct {
	config       Config
	sessionStore *session.Store
	rateLimiter  *rate.Limiter
	jwtManager   *jwt.Manager
	passwordHash *password.Argon2
	directory    PrincipalDirectory
	matcher      CredentialMatcher
	audit        *internalaudit.Dispatcher
	metrics      *Metrics
	logger       *slog.Logger
	now          func() time.Time
	flows        flows.Service
}

// Close drains and stops the audit dispatcher. It does not close the Redis
// client, which the caller owns.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports how many audit events were discarded on a full buffer.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// Config returns a copy of the effective configuration.
func (e *Engine) Config() Config {
	if e == nil {
		return Config{}
	}
	return cloneConfig(e.config)
}

// PasswordHasher exposes the engine's Argon2id hasher so callers can produce
// hashes compatible with the built-in matcher.
func (e *Engine) PasswordHasher() *password.Argon2 {
	if e == nil {
		return nil
	}
	return e.passwordHash
}

// Ping checks store reachability.
func (e *Engine) Ping(ctx context.Context) error {
	if e == nil || e.sessionStore == nil {
		return ErrEngineNotReady
	}
	if _, err := e.sessionStore.Ping(ctx); err != nil {
		return newError(KindStoreUnavailable, err)
	}
	return nil
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) metricObserve(id MetricID, d time.Duration) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Observe(id, d)
}

func (e *Engine) ready() bool {
	return e != nil && e.flows.Initialized()
}

// Login verifies identifier and secret, issues a token pair and records the
// refresh token as the login's current session. Unknown principals are
// reported as ErrBadCredentials.
func (e *Engine) Login(ctx context.Context, identifier, secret string) (Principal, TokenPair, error) {
	if !e.ready() {
		return Principal{}, TokenPair{}, ErrEngineNotReady
	}

	res := e.flows.Login(ctx, identifier, secret)
	if res.Failure != flows.FailureNone {
		kind := kindFromFailure(res.Failure)
		e.metricInc(MetricLoginFailure)
		switch kind {
		case KindAccountLocked:
			e.metricInc(MetricLoginLocked)
		case KindStoreUnavailable:
			e.metricInc(MetricStoreFailure)
			e.logger.ErrorContext(ctx, "login failed: store unavailable", "error", res.Err)
		case KindInternal:
			e.logger.ErrorContext(ctx, "login failed", "error", res.Err)
		}
		e.emitAudit(ctx, auditEventLoginFailure, false, identifier, kind, nil)

		if kind == KindUnknownPrincipal {
			return Principal{}, TokenPair{}, newError(KindBadCredentials, nil)
		}
		return Principal{}, TokenPair{}, newError(kind, res.Err)
	}

	e.metricInc(MetricLoginSuccess)
	e.metricInc(MetricSessionCreated)
	e.emitAudit(ctx, auditEventLoginSuccess, true, res.Principal.LoginID, KindNone, nil)
	e.logger.DebugContext(ctx, "login succeeded", "login_id", res.Principal.LoginID)

	return res.Principal, res.Pair, nil
}

// Authenticate verifies an access token and resolves its principal. It never
// touches the session store, so a logged-out access token stays valid until
// it expires.
func (e *Engine) Authenticate(ctx context.Context, token string) (Principal, error) {
	if !e.ready() {
		return Principal{}, ErrEngineNotReady
	}

	start := time.Now()
	res := e.flows.Authenticate(ctx, token)
	e.metricObserve(MetricAuthenticateLatency, time.Since(start))

	if res.Failure != flows.FailureNone {
		kind := kindFromFailure(res.Failure)
		e.metricInc(MetricGateRejected)
		switch kind {
		case KindUnknownPrincipal:
			e.metricInc(MetricUnknownPrincipal)
			e.logger.WarnContext(ctx, "valid token for unknown principal", "login_id", res.LoginID)
			e.emitAudit(ctx, auditEventUnknownPrincipal, false, res.LoginID, kind, nil)
		case KindInternal:
			e.logger.ErrorContext(ctx, "principal lookup failed", "login_id", res.LoginID, "error", res.Err)
		default:
			e.logger.DebugContext(ctx, "access token rejected", "reason", kind.String())
			e.emitAudit(ctx, auditEventTokenRejected, false, "", kind, nil)
		}
		return Principal{}, newError(kind, res.Err)
	}

	e.metricInc(MetricGateAuthenticated)
	return res.Principal, nil
}

// ObserveAnonymous records a request that carried no credentials.
func (e *Engine) ObserveAnonymous() {
	e.metricInc(MetricGateAnonymous)
}

// Refresh exchanges a refresh token for a new pair and overwrites the session
// record. With Security.EnforceRefreshBinding the presented token must be the
// one on record and not blacklisted; the check and the overwrite are atomic.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (Principal, TokenPair, error) {
	if !e.ready() {
		return Principal{}, TokenPair{}, ErrEngineNotReady
	}

	res := e.flows.Refresh(ctx, refreshToken)
	if res.Failure != flows.FailureNone {
		kind := kindFromFailure(res.Failure)
		e.metricInc(MetricRefreshFailure)

		switch {
		case res.ReuseDetected:
			e.metricInc(MetricRefreshReuseDetected)
			e.logger.WarnContext(ctx, "revoked refresh token presented", "login_id", res.LoginID)
			e.emitAudit(ctx, auditEventRefreshReuseDetected, false, res.LoginID, kind, nil)
			return Principal{}, TokenPair{}, newError(kind, res.Err)
		case kind == KindStoreUnavailable:
			e.metricInc(MetricStoreFailure)
			e.logger.ErrorContext(ctx, "refresh failed: store unavailable", "login_id", res.LoginID, "error", res.Err)
		case kind == KindUnknownPrincipal:
			e.metricInc(MetricUnknownPrincipal)
			e.logger.WarnContext(ctx, "refresh token for unknown principal", "login_id", res.LoginID)
		case kind == KindInternal:
			e.logger.ErrorContext(ctx, "refresh failed", "login_id", res.LoginID, "error", res.Err)
		}
		e.emitAudit(ctx, auditEventRefreshFailure, false, res.LoginID, kind, nil)
		return Principal{}, TokenPair{}, newError(kind, res.Err)
	}

	e.metricInc(MetricRefreshSuccess)
	e.emitAudit(ctx, auditEventRefreshSuccess, true, res.LoginID, KindNone, nil)

	return res.Principal, res.Pair, nil
}

// Logout ends the server-side session identified by the presented tokens.
// Either token may be empty or expired. Missing server state is success; a
// store outage returns ErrStoreUnavailable.
func (e *Engine) Logout(ctx context.Context, accessToken, refreshToken string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}

	res := e.flows.Logout(ctx, accessToken, refreshToken)
	if res.Failure != flows.FailureNone {
		kind := kindFromFailure(res.Failure)
		if kind == KindStoreUnavailable {
			e.metricInc(MetricStoreFailure)
		}
		e.logger.ErrorContext(ctx, "logout failed", "login_id", res.LoginID, "error", res.Err)
		e.emitAudit(ctx, auditEventLogout, false, res.LoginID, kind, nil)
		return newError(kind, res.Err)
	}

	if res.LoginID == "" {
		return nil
	}

	e.metricInc(MetricLogout)
	if res.Revoked {
		e.metricInc(MetricSessionRevoked)
	}
	e.emitAudit(ctx, auditEventLogout, true, res.LoginID, KindNone, func() map[string]string {
		if res.Revoked {
			return map[string]string{"refresh_revoked": "true"}
		}
		return nil
	})

	return nil
}

func kindFromFailure(f flows.FailureKind) ErrorKind {
	switch f {
	case flows.FailureNone:
		return KindNone
	case flows.FailureMalformedToken:
		return KindMalformedToken
	case flows.FailureInvalidSignature:
		return KindInvalidSignature
	case flows.FailureExpiredToken:
		return KindExpiredToken
	case flows.FailureMissingRefreshToken:
		return KindMissingRefreshToken
	case flows.FailureUnknownPrincipal:
		return KindUnknownPrincipal
	case flows.FailureBadCredentials:
		return KindBadCredentials
	case flows.FailureAccountLocked:
		return KindAccountLocked
	case flows.FailureMalformedRequest:
		return KindMalformedRequest
	case flows.FailureStoreUnavailable:
		return KindStoreUnavailable
	case flows.FailureRevokedToken:
		return KindRevokedToken
	default:
		return KindInternal
	}
}

// classifyMatchError maps a CredentialMatcher error onto a flow failure.
// Matchers may return the kind sentinels, ErrPrincipalNotFound or any *Error.
func classifyMatchError(err error) flows.FailureKind {
	if errors.Is(err, ErrPrincipalNotFound) {
		return flows.FailureUnknownPrincipal
	}
	if errors.Is(err, password.ErrPasswordTooLong) {
		return flows.FailureBadCredentials
	}
	switch KindOf(err) {
	case KindUnknownPrincipal:
		return flows.FailureUnknownPrincipal
	case KindBadCredentials:
		return flows.FailureBadCredentials
	case KindAccountLocked:
		return flows.FailureAccountLocked
	case KindMalformedRequest:
		return flows.FailureMalformedRequest
	case KindStoreUnavailable:
		return flows.FailureStoreUnavailable
	default:
		return flows.FailureInternal
	}
}
