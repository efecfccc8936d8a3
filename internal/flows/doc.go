// Package flows contains pure-function orchestrators for every Engine operation.
//
// Each flow function (RunLogin, RunAuthenticate, RunRefresh, RunLogout) accepts a
// typed dependency struct and returns a result carrying either the outcome or a
// FailureKind. Flows never write HTTP responses, log, or emit metrics; the Engine
// maps results onto errors, audit events and counters.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import cookieauth (to avoid import cycles).
//   - Perform I/O directly. All I/O is mediated through dependency interfaces.
package flows
