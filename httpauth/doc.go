// Package httpauth adapts a cookieauth.Engine to net/http: login, refresh and
// logout handlers, the credential cookies, and the JSON error body
// {"code","message"} shared with the middleware package.
//
// Tokens travel only in HttpOnly cookies. Response bodies carry the principal
// and expiry instants, never token strings.
package httpauth
