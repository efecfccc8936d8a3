// Package rate implements the Redis-backed failed-login throttle.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Keys, under the
// configured prefix:
//   - throttle:login:<loginId>:fails   failures per principal
//   - throttle:ip:<ip>:fails           failures per client address (optional)
//
// The ":fails" suffix keeps these keys disjoint from session records.
package rate
