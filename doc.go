// Package cookieauth authenticates HTTP requests with short-lived signed access
// tokens backed by a server-tracked refresh token and Redis-side revocation.
//
// Engine methods are safe to call from multiple goroutines after [Builder.Build].
//
// # Lifecycle
//
//   - [Engine.Login] verifies credentials, issues an access/refresh pair and records
//     the refresh token under "<loginId>:refresh".
//   - [Engine.Authenticate] verifies an access token and resolves its principal. It
//     never reads the store.
//   - [Engine.Refresh] exchanges a refresh token for a new pair and overwrites the
//     record. With Security.EnforceRefreshBinding the presented token must be the
//     one on record and not blacklisted.
//   - [Engine.Logout] blacklists the refresh token for its remaining lifetime and
//     deletes the record.
//
// Every failure is an [*Error] carrying an [ErrorKind] with a stable code and HTTP
// status. HTTP wiring lives in the middleware and httpauth packages.
package cookieauth
