package jwt

import "errors"

// Failure tags why a token was rejected.
type Failure int

const (
	FailureNone Failure = iota
	FailureMalformed
	FailureInvalidSignature
	FailureExpired
	// FailureWrongUse means a valid token of the other kind was presented,
	// e.g. a refresh token sent as an access token.
	FailureWrongUse
)

var (
	ErrMalformed        = errors.New("token malformed")
	ErrInvalidSignature = errors.New("token signature invalid")
	ErrExpired          = errors.New("token expired")
	ErrWrongUse         = errors.New("token use mismatch")
)

func (f Failure) String() string {
	switch f {
	case FailureMalformed:
		return "malformed"
	case FailureInvalidSignature:
		return "invalid_signature"
	case FailureExpired:
		return "expired"
	case FailureWrongUse:
		return "wrong_use"
	default:
		return "none"
	}
}

func (f Failure) sentinel() error {
	switch f {
	case FailureMalformed:
		return ErrMalformed
	case FailureInvalidSignature:
		return ErrInvalidSignature
	case FailureExpired:
		return ErrExpired
	case FailureWrongUse:
		return ErrWrongUse
	default:
		return nil
	}
}

// VerifyError is returned by Verify and Inspect.
type VerifyError struct {
	Failure Failure
	Err     error
}

func (e *VerifyError) Error() string {
	if e.Err == nil {
		return "jwt: " + e.Failure.String()
	}
	return "jwt: " + e.Failure.String() + ": " + e.Err.Error()
}

func (e *VerifyError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the failure kind.
func (e *VerifyError) Is(target error) bool {
	s := e.Failure.sentinel()
	return s != nil && target == s
}

// FailureOf extracts the failure kind from err, or FailureNone when err is not a VerifyError.
func FailureOf(err error) Failure {
	var verr *VerifyError
	if errors.As(err, &verr) {
		return verr.Failure
	}
	return FailureNone
}
