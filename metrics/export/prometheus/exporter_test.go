package prometheus

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MrEthical07/sessionauth"
)

type fakeSource struct {
	snapshot sessionauth.MetricsSnapshot
}

func (f fakeSource) MetricsSnapshot() sessionauth.MetricsSnapshot { return f.snapshot }

func TestRenderEmptyWhenMetricsDisabled(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: sessionauth.NewMetrics(sessionauth.MetricsConfig{}).Snapshot(),
	})

	if got := exp.Render(); got != "" {
		t.Fatalf("expected empty output for disabled metrics, got:\n%s", got)
	}
}

func TestRenderLabelsAuthorizeOutcomesByKind(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: sessionauth.MetricsSnapshot{
			Counters: map[sessionauth.MetricID]uint64{
				sessionauth.MetricAuthorizeSuccess:      40,
				sessionauth.MetricAuthorizeUnauthorized: 3,
				sessionauth.MetricAuthorizeExpired:      2,
			},
			Histograms: map[sessionauth.MetricID][]uint64{},
		},
	})

	out := exp.Render()
	for _, want := range []string{
		"# TYPE sessionauth_authorize_total counter",
		`sessionauth_authorize_total{outcome="ok"} 40`,
		`sessionauth_authorize_total{outcome="Unauthorized"} 3`,
		`sessionauth_authorize_total{outcome="Expired"} 2`,
		`sessionauth_authorize_total{outcome="DBConnectionError"} 0`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got:\n%s", want, out)
		}
	}
	if strings.Count(out, "# TYPE sessionauth_authorize_total") != 1 {
		t.Fatalf("expected one family header, got:\n%s", out)
	}
	if strings.Contains(out, "sessionauth_authorize_latency_seconds") {
		t.Fatalf("expected no histogram while latency is off, got:\n%s", out)
	}
}

func TestRenderSplitsSweepsBySource(t *testing.T) {
	m := sessionauth.NewMetrics(sessionauth.MetricsConfig{Enabled: true})
	m.Add(sessionauth.MetricSweptInline, 4)
	m.Add(sessionauth.MetricSweptReaper, 11)
	m.Inc(sessionauth.MetricReaperFailure)

	out := NewPrometheusExporterFromSource(fakeSource{snapshot: m.Snapshot()}).Render()
	for _, want := range []string{
		`sessionauth_sessions_swept_total{source="inline"} 4`,
		`sessionauth_sessions_swept_total{source="reaper"} 11`,
		`sessionauth_sweep_failures_total{source="inline"} 0`,
		`sessionauth_sweep_failures_total{source="reaper"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got:\n%s", want, out)
		}
	}
}

func TestRenderLatencyHistogram(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: sessionauth.MetricsSnapshot{
			Counters: map[sessionauth.MetricID]uint64{},
			Histograms: map[sessionauth.MetricID][]uint64{
				sessionauth.MetricAuthorizeLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
	})

	out := exp.Render()
	for _, want := range []string{
		"# TYPE sessionauth_authorize_latency_seconds histogram",
		`sessionauth_authorize_latency_seconds_bucket{le="0.005"} 1`,
		`sessionauth_authorize_latency_seconds_bucket{le="+Inf"} 36`,
		"sessionauth_authorize_latency_seconds_count 36",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got:\n%s", want, out)
		}
	}
}

func TestHandlerWritesPrometheusContentType(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: sessionauth.MetricsSnapshot{
			Counters:   map[sessionauth.MetricID]uint64{sessionauth.MetricLoginSuccess: 1},
			Histograms: map[sessionauth.MetricID][]uint64{},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	exp.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("Content-Type"); !strings.Contains(got, "text/plain") {
		t.Fatalf("expected prometheus content type, got %q", got)
	}
	if !strings.Contains(rec.Body.String(), `sessionauth_login_total{outcome="ok"} 1`) {
		t.Fatalf("expected login counter, got:\n%s", rec.Body.String())
	}
}
