package prometheus

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MrEthical07/cookieauth"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	snapshot cookieauth.MetricsSnapshot
}

func (f fakeSource) MetricsSnapshot() cookieauth.MetricsSnapshot { return f.snapshot }

func TestCollectorGathersCountersAndHistogram(t *testing.T) {
	registry := prometheus.NewRegistry()
	require.NoError(t, registry.Register(NewCollector(fakeSource{
		snapshot: cookieauth.MetricsSnapshot{
			Counters: map[cookieauth.MetricID]uint64{
				cookieauth.MetricLoginSuccess: 7,
				cookieauth.MetricAuditDropped: 2,
			},
			Histograms: map[cookieauth.MetricID][]uint64{
				cookieauth.MetricAuthenticateLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
	})))

	families, err := registry.Gather()
	require.NoError(t, err)

	byName := map[string]float64{}
	var histCount uint64
	var firstBucket uint64
	for _, mf := range families {
		m := mf.GetMetric()[0]
		if h := m.GetHistogram(); h != nil {
			histCount = h.GetSampleCount()
			firstBucket = h.GetBucket()[0].GetCumulativeCount()
			continue
		}
		byName[mf.GetName()] = m.GetCounter().GetValue()
	}

	assert.Equal(t, 7.0, byName["cookieauth_login_success_total"])
	assert.Equal(t, 2.0, byName["cookieauth_audit_dropped_total"])
	assert.Equal(t, 0.0, byName["cookieauth_logout_total"])
	assert.EqualValues(t, 36, histCount)
	assert.EqualValues(t, 1, firstBucket)
}

func TestCollectorSkipsMissingHistogram(t *testing.T) {
	registry := prometheus.NewRegistry()
	require.NoError(t, registry.Register(NewCollector(fakeSource{
		snapshot: cookieauth.MetricsSnapshot{
			Counters:   map[cookieauth.MetricID]uint64{},
			Histograms: map[cookieauth.MetricID][]uint64{},
		},
	})))

	families, err := registry.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		assert.NotEqual(t, "cookieauth_authenticate_latency_seconds", mf.GetName())
	}
}

func TestHandlerServesExposition(t *testing.T) {
	h, err := NewHandler(fakeSource{
		snapshot: cookieauth.MetricsSnapshot{
			Counters:   map[cookieauth.MetricID]uint64{cookieauth.MetricLoginSuccess: 1},
			Histograms: map[cookieauth.MetricID][]uint64{},
		},
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, rec.Body.String(), "cookieauth_login_success_total 1")
}

func BenchmarkCollect(b *testing.B) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(NewCollector(fakeSource{
		snapshot: cookieauth.MetricsSnapshot{
			Counters: map[cookieauth.MetricID]uint64{
				cookieauth.MetricLoginSuccess:   1000,
				cookieauth.MetricLoginFailure:   40,
				cookieauth.MetricRefreshSuccess: 800,
			},
			Histograms: map[cookieauth.MetricID][]uint64{
				cookieauth.MetricAuthenticateLatency: {10, 20, 30, 40, 50, 60, 70, 80},
			},
		},
	}))

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = registry.Gather()
	}
}
