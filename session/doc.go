// Package session provides the Redis-backed store behind refresh sessions and
// token revocation.
//
// # Key layout
//
//	<loginId>:refresh      current refresh token for a principal, TTL = refresh lifetime
//	blacklist:<token>      revoked token, TTL = remaining token lifetime
//
// Both families are optionally namespaced by a store prefix. Every write carries
// a TTL; the store never creates permanent keys.
//
// # What this package must NOT do
//
//   - Import cookieauth or jwt (no upward imports).
//   - Interpret token contents. Tokens are opaque strings here.
package session
