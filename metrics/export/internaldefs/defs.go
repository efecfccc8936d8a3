package internaldefs

import (
	"github.com/MrEthical07/cookieauth"
)

// CounterDef names one engine counter for exporters.
type CounterDef struct {
	ID   cookieauth.MetricID
	Name string
	Help string
}

type HistogramDef struct {
	ID   cookieauth.MetricID
	Name string
	Help string
}

var CounterDefs = []CounterDef{
	{ID: cookieauth.MetricLoginSuccess, Name: "cookieauth_login_success_total", Help: "Successful logins."},
	{ID: cookieauth.MetricLoginFailure, Name: "cookieauth_login_failure_total", Help: "Failed logins."},
	{ID: cookieauth.MetricLoginLocked, Name: "cookieauth_login_locked_total", Help: "Logins refused by the failed-attempt throttle."},
	{ID: cookieauth.MetricRefreshSuccess, Name: "cookieauth_refresh_success_total", Help: "Successful refreshes."},
	{ID: cookieauth.MetricRefreshFailure, Name: "cookieauth_refresh_failure_total", Help: "Failed refreshes."},
	{ID: cookieauth.MetricRefreshReuseDetected, Name: "cookieauth_refresh_reuse_detected_total", Help: "Revoked or superseded refresh tokens presented."},
	{ID: cookieauth.MetricSessionCreated, Name: "cookieauth_session_created_total", Help: "Refresh sessions recorded at login."},
	{ID: cookieauth.MetricSessionRevoked, Name: "cookieauth_session_revoked_total", Help: "Refresh tokens blacklisted at logout."},
	{ID: cookieauth.MetricLogout, Name: "cookieauth_logout_total", Help: "Logout operations."},
	{ID: cookieauth.MetricGateAuthenticated, Name: "cookieauth_gate_authenticated_total", Help: "Requests that passed the gate with a principal."},
	{ID: cookieauth.MetricGateAnonymous, Name: "cookieauth_gate_anonymous_total", Help: "Requests that passed the gate without a token."},
	{ID: cookieauth.MetricGateRejected, Name: "cookieauth_gate_rejected_total", Help: "Requests rejected by the gate."},
	{ID: cookieauth.MetricUnknownPrincipal, Name: "cookieauth_unknown_principal_total", Help: "Valid tokens whose principal no longer exists."},
	{ID: cookieauth.MetricStoreFailure, Name: "cookieauth_store_failure_total", Help: "Operations failed by the session store."},
	{ID: cookieauth.MetricAuditDropped, Name: "cookieauth_audit_dropped_total", Help: "Audit events dropped under backpressure."},
}

var HistogramDefs = []HistogramDef{
	{ID: cookieauth.MetricAuthenticateLatency, Name: "cookieauth_authenticate_latency_seconds", Help: "Access token authentication latency."},
}

// HistogramBounds are the bucket upper bounds in seconds, +Inf excluded.
var HistogramBounds = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

// HistogramBoundSuffix names each bucket, +Inf included, for exporters that
// cannot carry labels.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates raw to the eight engine buckets.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
