package internaldefs

import (
	"github.com/MrEthical07/sessionauth"
)

// Sample binds one engine counter to the label value it is published
// under.
type Sample struct {
	ID    sessionauth.MetricID
	Value string
}

// CounterFamily is one exported counter whose series are split by a single
// label.
type CounterFamily struct {
	Name    string
	Help    string
	Label   string
	Samples []Sample
}

// HistogramDef names one engine histogram for exporters.
type HistogramDef struct {
	ID   sessionauth.MetricID
	Name string
	Help string
}

// OutcomeOK labels the successful series of an outcome family.
const OutcomeOK = "ok"

// CounterFamilies lists every published counter. Authorization outcomes use
// the error kind a client sees in the envelope.
var CounterFamilies = []CounterFamily{
	{
		Name:  "sessionauth_authorize_total",
		Help:  "Authorization attempts by outcome.",
		Label: "outcome",
		Samples: []Sample{
			{ID: sessionauth.MetricAuthorizeSuccess, Value: OutcomeOK},
			{ID: sessionauth.MetricAuthorizeUnauthorized, Value: string(sessionauth.KindUnauthorized)},
			{ID: sessionauth.MetricAuthorizeExpired, Value: string(sessionauth.KindExpired)},
			{ID: sessionauth.MetricAuthorizeDBError, Value: string(sessionauth.KindDBConnectionError)},
		},
	},
	{
		Name:  "sessionauth_login_total",
		Help:  "Login attempts by outcome. Throttled attempts answer InvalidCredentials but are counted apart.",
		Label: "outcome",
		Samples: []Sample{
			{ID: sessionauth.MetricLoginSuccess, Value: OutcomeOK},
			{ID: sessionauth.MetricLoginFailure, Value: string(sessionauth.KindInvalidCredentials)},
			{ID: sessionauth.MetricLoginRateLimited, Value: "throttled"},
		},
	},
	{
		Name:  "sessionauth_session_events_total",
		Help:  "Session lifecycle events.",
		Label: "event",
		Samples: []Sample{
			{ID: sessionauth.MetricSessionCreated, Value: "created"},
			{ID: sessionauth.MetricSessionRenewed, Value: "renewed"},
			{ID: sessionauth.MetricSessionRevoked, Value: "revoked"},
		},
	},
	{
		Name:  "sessionauth_sessions_swept_total",
		Help:  "Dead sessions deleted, by the sweep that removed them.",
		Label: "source",
		Samples: []Sample{
			{ID: sessionauth.MetricSweptInline, Value: "inline"},
			{ID: sessionauth.MetricSweptReaper, Value: "reaper"},
		},
	},
	{
		Name:  "sessionauth_sweep_failures_total",
		Help:  "Sweeps that failed to reach the session table.",
		Label: "source",
		Samples: []Sample{
			{ID: sessionauth.MetricCleanupFailure, Value: "inline"},
			{ID: sessionauth.MetricReaperFailure, Value: "reaper"},
		},
	},
}

var HistogramDefs = []HistogramDef{
	{ID: sessionauth.MetricAuthorizeLatency, Name: "sessionauth_authorize_latency_seconds", Help: "Time spent authorizing one request."},
}

// HistogramBounds are the upper bounds in seconds, matching the engine's
// millisecond buckets.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// NormalizeBuckets pads or truncates raw to eight buckets.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	copy(out[:], raw)
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i, v := range raw {
		running += v
		out[i] = running
	}
	return out
}
