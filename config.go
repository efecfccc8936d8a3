package cookieauth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/MrEthical07/cookieauth/jwt"
)

// Config is the complete engine configuration. Start from DefaultConfig and
// override fields; Validate runs during Build.
type Config struct {
	JWT      JWTConfig
	Cookie   CookieConfig
	Session  SessionConfig
	Security SecurityConfig
	Password PasswordConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig controls token signing and lifetimes.
//
// ClockSkew tolerates expiry drift between issuer and verifier; it never
// applies to signatures. Zero disables the tolerance.
type JWTConfig struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	ClockSkew  time.Duration
	Issuer     string
	Audience   string
}

/*
====================================
COOKIE CONFIG
====================================
*/

// CookieConfig controls the two credential cookies. Both are always HttpOnly.
type CookieConfig struct {
	AccessName  string
	RefreshName string
	Path        string
	Domain      string
	Secure      bool
	SameSite    http.SameSite
}

func sameSiteName(s http.SameSite) string {
	switch s {
	case http.SameSiteLaxMode:
		return "Lax"
	case http.SameSiteStrictMode:
		return "Strict"
	case http.SameSiteNoneMode:
		return "None"
	default:
		return "default"
	}
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls the Redis key namespace. An empty KeyPrefix keeps the
// bare "<loginId>:refresh" and "blacklist:<token>" layout.
type SessionConfig struct {
	KeyPrefix string
}

/*
====================================
SECURITY CONFIG
====================================
*/

type SecurityConfig struct {
	ProductionMode bool
	// EnforceRefreshBinding rejects refresh tokens that are blacklisted or no
	// longer match the session record. Disabling it restores unconditional
	// reissue of any verifiable refresh token.
	EnforceRefreshBinding bool
	EnableLoginThrottle   bool
	EnableIPThrottle      bool
	MaxLoginAttempts      int
	LockoutWindow         time.Duration
}

/*
====================================
PASSWORD / AUDIT / METRICS
====================================
*/

// PasswordConfig holds Argon2id parameters for the built-in password matcher.
type PasswordConfig struct {
	Memory           uint32 // in KB
	Time             uint32
	Parallelism      uint8
	SaltLength       uint32
	KeyLength        uint32
	MaxPasswordBytes int
}

type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns development-friendly defaults: 30 minute access
// tokens, 14 day refresh tokens, 180s skew, non-Secure Lax cookies. The
// signing secret must still be supplied.
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:  30 * time.Minute,
			RefreshTTL: 14 * 24 * time.Hour,
			ClockSkew:  jwt.DefaultLeeway,
		},
		Cookie: CookieConfig{
			AccessName:  "access_token",
			RefreshName: "refresh_token",
			Path:        "/",
			Secure:      false,
			SameSite:    http.SameSiteLaxMode,
		},
		Security: SecurityConfig{
			ProductionMode:        false,
			EnforceRefreshBinding: true,
			EnableLoginThrottle:   true,
			EnableIPThrottle:      false,
			MaxLoginAttempts:      5,
			LockoutWindow:         15 * time.Minute,
		},
		Password: PasswordConfig{
			Memory:           65536,
			Time:             3,
			Parallelism:      2,
			SaltLength:       16,
			KeyLength:        32,
			MaxPasswordBytes: 1024,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

// HighSecurityConfig tightens DefaultConfig for internet-facing production.
func HighSecurityConfig() Config {
	cfg := DefaultConfig()
	cfg.JWT.AccessTTL = 5 * time.Minute
	cfg.JWT.RefreshTTL = 7 * 24 * time.Hour
	cfg.JWT.ClockSkew = 30 * time.Second
	cfg.Cookie.Secure = true
	cfg.Cookie.SameSite = http.SameSiteStrictMode
	cfg.Security.ProductionMode = true
	cfg.Security.EnableIPThrottle = true
	cfg.Audit.Enabled = true
	cfg.Metrics.Enabled = true
	return cfg
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.Secret = cloneBytes(cfg.JWT.Secret)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Validate rejects configurations that cannot work or that break the
// production guarantees.
func (c *Config) Validate() error {
	// JWT
	if len(c.JWT.Secret) == 0 {
		return errors.New("JWT Secret is required")
	}
	// Cookie Max-Age has whole-second resolution and 0 means delete.
	if c.JWT.AccessTTL < time.Second {
		return errors.New("JWT AccessTTL must be >= 1s")
	}
	if c.JWT.RefreshTTL < time.Second {
		return errors.New("JWT RefreshTTL must be >= 1s")
	}
	if c.JWT.RefreshTTL < c.JWT.AccessTTL {
		return errors.New("JWT RefreshTTL must be >= AccessTTL")
	}
	if c.JWT.ClockSkew < 0 || c.JWT.ClockSkew > jwt.MaxLeeway {
		return fmt.Errorf("JWT ClockSkew must be between 0 and %s", jwt.MaxLeeway)
	}

	// Cookie
	if strings.TrimSpace(c.Cookie.AccessName) == "" || strings.TrimSpace(c.Cookie.RefreshName) == "" {
		return errors.New("Cookie names must be non-empty")
	}
	if c.Cookie.AccessName == c.Cookie.RefreshName {
		return errors.New("Cookie AccessName and RefreshName must differ")
	}
	if c.Cookie.SameSite == http.SameSiteNoneMode && !c.Cookie.Secure {
		return errors.New("Cookie SameSite=None requires Secure")
	}

	// Security
	if c.Security.EnableLoginThrottle {
		if c.Security.MaxLoginAttempts <= 0 {
			return errors.New("Security MaxLoginAttempts must be > 0 when login throttle is enabled")
		}
		if c.Security.LockoutWindow <= 0 {
			return errors.New("Security LockoutWindow must be > 0 when login throttle is enabled")
		}
	}
	if c.Security.EnableIPThrottle && !c.Security.EnableLoginThrottle {
		return errors.New("Security EnableIPThrottle requires EnableLoginThrottle")
	}
	if c.Security.ProductionMode {
		if !c.Cookie.Secure {
			return errors.New("ProductionMode requires Secure cookies")
		}
		if len(c.JWT.Secret) < 32 {
			return errors.New("ProductionMode requires a JWT Secret of at least 32 bytes")
		}
	}

	// Password
	if c.Password.Memory < 8*1024 {
		return errors.New("Password Memory must be >= 8192 KB")
	}
	if c.Password.Time < 1 {
		return errors.New("Password Time must be >= 1")
	}
	if c.Password.Parallelism < 1 {
		return errors.New("Password Parallelism must be >= 1")
	}
	if c.Password.SaltLength < 16 {
		return errors.New("Password SaltLength must be >= 16")
	}
	if c.Password.KeyLength < 16 {
		return errors.New("Password KeyLength must be >= 16")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}

	return nil
}

// LintSeverity grades a LintWarning.
type LintSeverity int

const (
	LintInfo LintSeverity = iota
	LintWarn
	LintHigh
)

// LintWarning is a valid-but-questionable configuration choice.
type LintWarning struct {
	Code     string
	Severity LintSeverity
	Message  string
}

type LintResult []LintWarning

// Codes returns the warning codes in order.
func (r LintResult) Codes() []string {
	out := make([]string, 0, len(r))
	for _, w := range r {
		out = append(out, w.Code)
	}
	return out
}

// Lint reports settings that pass Validate but weaken the deployment.
func (c *Config) Lint() LintResult {
	var ws LintResult
	add := func(code string, sev LintSeverity, msg string) {
		ws = append(ws, LintWarning{Code: code, Severity: sev, Message: msg})
	}

	if len(c.JWT.Secret) > 0 && len(c.JWT.Secret) < 32 {
		add("secret_short", LintHigh, "JWT Secret is shorter than 32 bytes")
	}
	if !c.Security.EnforceRefreshBinding {
		add("refresh_binding_disabled", LintHigh, "revoked refresh tokens remain usable until expiry")
	}
	if c.JWT.ClockSkew > 5*time.Minute {
		add("skew_large", LintWarn, "ClockSkew above 5m extends expired-token acceptance")
	}
	if c.JWT.AccessTTL > time.Hour {
		add("access_ttl_long", LintWarn, "access tokens cannot be revoked; keep AccessTTL short")
	}
	if c.JWT.RefreshTTL > 30*24*time.Hour {
		add("refresh_ttl_long", LintInfo, "RefreshTTL above 30 days")
	}
	if !c.Cookie.Secure {
		add("cookie_insecure", LintWarn, "cookies are sent over plain HTTP")
	}
	if !c.Security.EnableLoginThrottle {
		add("login_throttle_disabled", LintWarn, "failed logins are not throttled")
	}
	if !c.Audit.Enabled {
		add("audit_disabled", LintInfo, "security events are not audited")
	}

	return ws
}
