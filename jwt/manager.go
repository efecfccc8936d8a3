package jwt

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultLeeway is the clock-skew tolerance applied to expiry checks when none is configured.
const DefaultLeeway = 180 * time.Second

// MaxLeeway bounds the configurable skew tolerance.
const MaxLeeway = 10 * time.Minute

// TokenUse distinguishes access tokens from refresh tokens sharing the same claim layout.
type TokenUse string

const (
	// UseAccess marks a short-lived per-request credential.
	UseAccess TokenUse = "access"
	// UseRefresh marks a long-lived credential exchanged for a new pair.
	UseRefresh TokenUse = "refresh"
)

// Config defines how a Manager signs and verifies tokens.
//
// Secret is the single symmetric HS256 key fixed for the lifetime of the Manager.
// Leeway of zero means DefaultLeeway; use a negative value to disable skew tolerance.
type Config struct {
	Secret   []byte
	Issuer   string
	Audience string
	Leeway   time.Duration
	// Now overrides the clock used for iat and expiry checks.
	Now      func() time.Time
}

// Claims is the payload carried by both token kinds. Subject holds the login id.
type Claims struct {
	Role string   `json:"role"`
	Use  TokenUse `json:"use,omitempty"`
	jwt.RegisteredClaims
}

// LoginID returns the subject claim.
func (c *Claims) LoginID() string {
	if c == nil {
		return ""
	}
	return c.Subject
}

// ExpiresAtTime returns the exp claim, or the zero time when absent.
func (c *Claims) ExpiresAtTime() time.Time {
	if c == nil || c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// Manager issues and verifies HS256 tokens. It performs no I/O and is safe for concurrent use.
type Manager struct {
	config    Config
	parser    *jwt.Parser
	// inspector verifies signatures without enforcing time-based claims.
	inspector *jwt.Parser
}

// NewManager validates cfg and returns a ready Manager.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("hs256 requires a signing secret")
	}
	if cfg.Leeway == 0 {
		cfg.Leeway = DefaultLeeway
	}
	if cfg.Leeway < 0 {
		cfg.Leeway = 0
	}
	if cfg.Leeway > MaxLeeway {
		return nil, errors.New("invalid leeway configuration")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	cfg.Issuer = strings.TrimSpace(cfg.Issuer)
	cfg.Audience = strings.TrimSpace(cfg.Audience)

	secret := make([]byte, len(cfg.Secret))
	copy(secret, cfg.Secret)
	cfg.Secret = secret

	base := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(cfg.Now),
	}
	if cfg.Issuer != "" {
		base = append(base, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		base = append(base, jwt.WithAudience(cfg.Audience))
	}

	verifyOpts := append([]jwt.ParserOption{}, base...)
	// The parser accepts now < exp+leeway; a token stays valid while
	// now-exp <= Leeway, so the bound is widened by one tick.
	verifyOpts = append(verifyOpts,
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(cfg.Leeway+time.Nanosecond),
	)

	inspectOpts := append([]jwt.ParserOption{}, base...)
	inspectOpts = append(inspectOpts, jwt.WithoutClaimsValidation())

	return &Manager{
		config:    cfg,
		parser:    jwt.NewParser(verifyOpts...),
		inspector: jwt.NewParser(inspectOpts...),
	}, nil
}

// Leeway reports the effective skew tolerance.
func (m *Manager) Leeway() time.Duration {
	return m.config.Leeway
}

// Now returns the manager clock reading.
func (m *Manager) Now() time.Time {
	return m.config.Now()
}

// Issue signs a token for loginID. iat is the current clock reading and exp is expiresAt.
// Every token receives a random jti so two tokens minted within the same second differ.
func (m *Manager) Issue(loginID, role string, use TokenUse, expiresAt time.Time) (string, error) {
	if loginID == "" {
		return "", errors.New("empty login id")
	}
	if use != UseAccess && use != UseRefresh {
		return "", fmt.Errorf("unsupported token use %q", use)
	}

	now := m.config.Now()
	claims := Claims{
		Role: role,
		Use:  use,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   loginID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
			Issuer:    m.config.Issuer,
		},
	}
	if m.config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{m.config.Audience}
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.config.Secret)
}

// Verify checks signature, structure and expiry (with leeway) and returns the claims.
// When use is non-empty the token's use claim must match it.
//
// Failures are *VerifyError values; see FailureOf.
func (m *Manager) Verify(tokenStr string, use TokenUse) (*Claims, error) {
	claims, err := m.parse(m.parser, tokenStr)
	if err != nil {
		return nil, err
	}
	if use != "" && claims.Use != use {
		return nil, &VerifyError{
			Failure: FailureWrongUse,
			Err:     fmt.Errorf("token use %q, expected %q", claims.Use, use),
		}
	}
	return claims, nil
}

// Inspect verifies the signature and structure but ignores time-based claims.
// It is used where a caller needs a trustworthy subject from a possibly expired token.
func (m *Manager) Inspect(tokenStr string) (*Claims, error) {
	return m.parse(m.inspector, tokenStr)
}

func (m *Manager) parse(p *jwt.Parser, tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := p.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return m.config.Secret, nil
	})
	if err != nil {
		return nil, m.classify(tokenStr, err)
	}
	if !token.Valid {
		return nil, &VerifyError{Failure: FailureMalformed, Err: jwt.ErrTokenInvalidClaims}
	}
	return claims, nil
}

// classify maps library errors onto the three failure kinds. Signature checks
// precede claim checks in the parser, so an expired token with a bad signature
// never reaches the expiry branch.
func (m *Manager) classify(tokenStr string, err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return &VerifyError{Failure: FailureInvalidSignature, Err: err}
	case errors.Is(err, jwt.ErrTokenMalformed):
		// A well-formed header and payload with an undecodable signature
		// segment is a tampered signature, not a malformed token.
		if headerAndPayloadDecode(tokenStr) {
			return &VerifyError{Failure: FailureInvalidSignature, Err: err}
		}
		return &VerifyError{Failure: FailureMalformed, Err: err}
	case errors.Is(err, jwt.ErrTokenExpired):
		return &VerifyError{Failure: FailureExpired, Err: err}
	default:
		return &VerifyError{Failure: FailureMalformed, Err: err}
	}
}

func headerAndPayloadDecode(tokenStr string) bool {
	parts := strings.Split(tokenStr, ".")
	if len(parts) != 3 {
		return false
	}
	for _, seg := range parts[:2] {
		if _, err := base64.RawURLEncoding.Strict().DecodeString(seg); err != nil {
			return false
		}
	}
	_, _, err := jwt.NewParser().ParseUnverified(parts[0]+"."+parts[1]+".", &Claims{})
	return err == nil
}
