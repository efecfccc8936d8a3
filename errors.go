package cookieauth

import (
	"errors"
	"net/http"
)

// ErrorKind is the closed set of authentication failure categories.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindMalformedToken
	KindInvalidSignature
	KindExpiredToken
	KindMissingRefreshToken
	KindUnknownPrincipal
	KindBadCredentials
	KindAccountLocked
	KindMalformedRequest
	KindStoreUnavailable
	// KindRevokedToken is returned by the hardened refresh path for blacklisted
	// or superseded refresh tokens.
	KindRevokedToken
	KindInternal
)

var (
	// ErrPrincipalNotFound is returned by a PrincipalDirectory for unknown login ids.
	ErrPrincipalNotFound = errors.New("principal not found")
	ErrEngineNotReady    = errors.New("engine not initialized")
)

// Kind sentinels. errors.Is(err, ErrExpiredToken) holds for any *Error of that kind.
var (
	ErrMalformedToken      = &Error{Kind: KindMalformedToken}
	ErrInvalidSignature    = &Error{Kind: KindInvalidSignature}
	ErrExpiredToken        = &Error{Kind: KindExpiredToken}
	ErrMissingRefreshToken = &Error{Kind: KindMissingRefreshToken}
	ErrUnknownPrincipal    = &Error{Kind: KindUnknownPrincipal}
	ErrBadCredentials      = &Error{Kind: KindBadCredentials}
	ErrAccountLocked       = &Error{Kind: KindAccountLocked}
	ErrMalformedRequest    = &Error{Kind: KindMalformedRequest}
	ErrStoreUnavailable    = &Error{Kind: KindStoreUnavailable}
	ErrRevokedToken        = &Error{Kind: KindRevokedToken}
)

// Error is the single error type returned by Engine operations.
type Error struct {
	Kind  ErrorKind
	cause error
}

func newError(kind ErrorKind, cause error) *Error {
	return &Error{Kind: kind, cause: cause}
}

func (e *Error) Error() string {
	if e.cause == nil {
		return "cookieauth: " + e.Kind.String()
	}
	return "cookieauth: " + e.Kind.String() + ": " + e.cause.Error()
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches a cause-free *Error of the same kind, which is what the Err* kind
// sentinels are.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.cause == nil && t.Kind == e.Kind
}

// Code is the stable client-facing identifier.
func (e *Error) Code() string {
	return e.Kind.Code()
}

// Status is the HTTP status the kind maps to.
func (e *Error) Status() int {
	return e.Kind.Status()
}

// Message is a client-safe description that never includes the cause.
func (e *Error) Message() string {
	return e.Kind.Message()
}

// KindOf returns the kind carried by err, KindInternal for foreign errors and
// KindNone for nil.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindMalformedToken:
		return "malformed_token"
	case KindInvalidSignature:
		return "invalid_signature"
	case KindExpiredToken:
		return "expired_token"
	case KindMissingRefreshToken:
		return "missing_refresh_token"
	case KindUnknownPrincipal:
		return "unknown_principal"
	case KindBadCredentials:
		return "bad_credentials"
	case KindAccountLocked:
		return "account_locked"
	case KindMalformedRequest:
		return "malformed_request"
	case KindStoreUnavailable:
		return "store_unavailable"
	case KindRevokedToken:
		return "revoked_token"
	default:
		return "internal"
	}
}

// Code maps the kind onto a response code. Malformed and badly signed tokens
// share INVALID_TOKEN; expiry stays distinct so clients know to refresh.
func (k ErrorKind) Code() string {
	switch k {
	case KindMalformedToken, KindInvalidSignature:
		return "INVALID_TOKEN"
	case KindExpiredToken:
		return "TOKEN_EXPIRED"
	case KindMissingRefreshToken:
		return "REFRESH_TOKEN_MISSING"
	case KindUnknownPrincipal:
		return "UNKNOWN_PRINCIPAL"
	case KindBadCredentials:
		return "BAD_CREDENTIALS"
	case KindAccountLocked:
		return "ACCOUNT_LOCKED"
	case KindMalformedRequest:
		return "MALFORMED_REQUEST"
	case KindStoreUnavailable:
		return "STORE_UNAVAILABLE"
	case KindRevokedToken:
		return "TOKEN_REVOKED"
	default:
		return "INTERNAL_ERROR"
	}
}

func (k ErrorKind) Status() int {
	switch k {
	case KindMalformedToken, KindInvalidSignature, KindExpiredToken,
		KindMissingRefreshToken, KindUnknownPrincipal, KindBadCredentials,
		KindAccountLocked, KindRevokedToken:
		return http.StatusUnauthorized
	case KindMalformedRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (k ErrorKind) Message() string {
	switch k {
	case KindMalformedToken, KindInvalidSignature:
		return "invalid token"
	case KindExpiredToken:
		return "token expired"
	case KindMissingRefreshToken:
		return "refresh token missing"
	case KindUnknownPrincipal:
		return "unknown principal"
	case KindBadCredentials:
		return "invalid credentials"
	case KindAccountLocked:
		return "account locked"
	case KindMalformedRequest:
		return "malformed request"
	case KindStoreUnavailable:
		return "service unavailable"
	case KindRevokedToken:
		return "token revoked"
	default:
		return "internal error"
	}
}
