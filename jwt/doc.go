// Package jwt issues and verifies the HS256 access and refresh tokens used by cookieauth.
//
// Verification is pure: no I/O, no shared mutable state. Expiry is checked with a
// configurable clock-skew leeway; signatures are always checked first and never
// benefit from the leeway.
package jwt
