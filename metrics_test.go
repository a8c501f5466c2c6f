package sessionauth

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMetricsDisabledNoIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})
	m.Inc(MetricLoginSuccess)

	if got := m.Value(MetricLoginSuccess); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestMetricsEnabledIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Inc(MetricLoginSuccess)
	m.Inc(MetricLoginSuccess)
	m.Inc(MetricLoginSuccess)

	if got := m.Value(MetricLoginSuccess); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
}

func TestMetricsConcurrentIncrementSafe(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	const goroutines = 32
	const perG = 4000

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perG; j++ {
				m.Inc(MetricSessionRenewed)
			}
		}()
	}
	wg.Wait()

	want := uint64(goroutines * perG)
	if got := m.Value(MetricSessionRenewed); got != want {
		t.Fatalf("expected %d, got %d", want, got)
	}
}

func TestMetricsHistogramBucketCorrectness(t *testing.T) {
	m := NewMetrics(MetricsConfig{
		Enabled:                 true,
		EnableLatencyHistograms: true,
	})

	observations := []time.Duration{
		5 * time.Millisecond,
		10 * time.Millisecond,
		25 * time.Millisecond,
		50 * time.Millisecond,
		100 * time.Millisecond,
		250 * time.Millisecond,
		500 * time.Millisecond,
		700 * time.Millisecond,
	}

	for _, d := range observations {
		m.Observe(MetricAuthorizeLatency, d)
	}

	snap := m.Snapshot()
	buckets := snap.Histograms[MetricAuthorizeLatency]
	if len(buckets) != 8 {
		t.Fatalf("expected 8 buckets, got %d", len(buckets))
	}

	for i, v := range buckets {
		if v != 1 {
			t.Fatalf("bucket %d expected 1, got %d", i, v)
		}
	}
}

func TestMetricsSnapshotConsistency(t *testing.T) {
	m := NewMetrics(MetricsConfig{
		Enabled:                 true,
		EnableLatencyHistograms: true,
	})
	m.Inc(MetricLoginSuccess)
	m.Inc(MetricLoginFailure)
	m.Inc(MetricLoginFailure)
	m.Observe(MetricAuthorizeLatency, 2*time.Millisecond)

	snap := m.Snapshot()

	if snap.Counters[MetricLoginSuccess] != 1 {
		t.Fatalf("expected MetricLoginSuccess=1 got %d", snap.Counters[MetricLoginSuccess])
	}
	if snap.Counters[MetricLoginFailure] != 2 {
		t.Fatalf("expected MetricLoginFailure=2 got %d", snap.Counters[MetricLoginFailure])
	}
	if len(snap.Histograms[MetricAuthorizeLatency]) != 8 {
		t.Fatalf("expected histogram length 8")
	}
	if snap.Histograms[MetricAuthorizeLatency][0] != 1 {
		t.Fatalf("expected first histogram bucket=1 got %d", snap.Histograms[MetricAuthorizeLatency][0])
	}
}

func TestMetricsAddCountsSweeps(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Add(MetricSweptReaper, 7)
	m.Add(MetricSweptReaper, 0)
	m.Add(MetricSweptReaper, 3)

	if got := m.Value(MetricSweptReaper); got != 10 {
		t.Fatalf("expected 10, got %d", got)
	}
}

func TestMetricsHistogramOnlyForAuthorizeLatency(t *testing.T) {
	m := NewMetrics(MetricsConfig{
		Enabled:                 true,
		EnableLatencyHistograms: true,
	})
	m.Observe(MetricLoginSuccess, time.Millisecond)

	snap := m.Snapshot()
	if _, ok := snap.Histograms[MetricLoginSuccess]; ok {
		t.Fatal("expected no histogram for a counter metric")
	}
	if _, ok := snap.Counters[MetricAuthorizeLatency]; ok {
		t.Fatal("expected latency metric excluded from counters")
	}
}

func TestAuthorizeRecordsLatencyAndOutcome(t *testing.T) {
	h := newEngineTest(t)
	ctx := context.Background()
	h.createAccount(t, "alice", "correct-horse")

	id, err := h.engine.Login(ctx, "alice", "correct-horse", "")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := h.engine.Authorize(ctx, id.Token); err != nil {
		t.Fatalf("authorize: %v", err)
	}
	if _, err := h.engine.Authorize(ctx, "garbage"); err == nil {
		t.Fatal("expected garbage token rejected")
	}

	snap := h.engine.MetricsSnapshot()
	if snap.Counters[MetricAuthorizeSuccess] != 1 {
		t.Fatalf("expected 1 success, got %d", snap.Counters[MetricAuthorizeSuccess])
	}
	if snap.Counters[MetricAuthorizeUnauthorized] != 1 {
		t.Fatalf("expected 1 unauthorized, got %d", snap.Counters[MetricAuthorizeUnauthorized])
	}
	var total uint64
	for _, v := range snap.Histograms[MetricAuthorizeLatency] {
		total += v
	}
	if total != 2 {
		t.Fatalf("expected 2 latency observations, got %d", total)
	}
}
