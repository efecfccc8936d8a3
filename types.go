package cookieauth

import (
	"context"
	"io"
	"log/slog"

	internalaudit "github.com/MrEthical07/cookieauth/internal/audit"
	"github.com/MrEthical07/cookieauth/internal/flows"
)

// Principal is the authenticated identity: numeric member id, login id and an
// opaque role string.
type Principal = flows.Principal

// TokenPair is an access/refresh pair with their expiry instants.
type TokenPair = flows.TokenPair

// Credential is the identity plus credential hash a directory returns for
// password matching.
type Credential struct {
	Principal    Principal
	PasswordHash string
	Locked       bool
}

// PrincipalDirectory resolves login ids to principals. Implementations return
// ErrPrincipalNotFound for unknown ids.
type PrincipalDirectory interface {
	FindPrincipalByLoginID(ctx context.Context, loginID string) (Principal, error)
}

// CredentialDirectory adds credential lookup for the built-in password matcher.
type CredentialDirectory interface {
	PrincipalDirectory
	FindCredential(ctx context.Context, identifier string) (Credential, error)
}

// CredentialUpdater is implemented by directories that can persist a new
// password hash. The default matcher uses it to rehash on a successful login
// when the stored hash was produced with weaker Argon2 parameters.
type CredentialUpdater interface {
	UpdatePasswordHash(ctx context.Context, loginID, hash string) error
}

// CredentialMatcher verifies a login attempt. Failures should be one of
// ErrBadCredentials, ErrAccountLocked, ErrMalformedRequest or ErrPrincipalNotFound.
type CredentialMatcher interface {
	Match(ctx context.Context, identifier, secret string) (Principal, error)
}

// CredentialMatcherFunc adapts a function to CredentialMatcher.
type CredentialMatcherFunc func(ctx context.Context, identifier, secret string) (Principal, error)

func (f CredentialMatcherFunc) Match(ctx context.Context, identifier, secret string) (Principal, error) {
	return f(ctx, identifier, secret)
}

type AuditEvent = internalaudit.Event
type AuditSink = internalaudit.Sink
type NoOpSink = internalaudit.NoOpSink
type ChannelSink = internalaudit.ChannelSink
type JSONWriterSink = internalaudit.JSONWriterSink
type SlogSink = internalaudit.SlogSink

func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

func NewSlogSink(logger *slog.Logger) *SlogSink {
	return internalaudit.NewSlogSink(logger)
}
