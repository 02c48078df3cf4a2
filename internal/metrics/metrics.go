package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// CaptureRuns counts finished capture runs by outcome ("success"/"failure").
	CaptureRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storemon_capture_runs_total",
		Help: "Total snapshot capture runs by outcome.",
	}, []string{"outcome"})

	// DeviceCalls counts vendor API calls by outcome ("ok"/"vendor_error"/"transport_error").
	DeviceCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storemon_device_calls_total",
		Help: "Total YoSmart API calls by outcome.",
	}, []string{"outcome"})

	// ReadingsCaptured counts persisted snapshot readings.
	ReadingsCaptured = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "storemon_readings_captured_total",
		Help: "Total readings persisted across all capture runs.",
	})

	// TokenGrants counts OAuth2 token grant requests against the vendor.
	TokenGrants = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "storemon_token_grants_total",
		Help: "Total OAuth2 client-credentials grant requests issued.",
	})

	// CallLatency tracks the round-trip latency of vendor API calls.
	CallLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "storemon_api_call_latency_seconds",
		Help:    "Latency of YoSmart API calls.",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
	})
)

func init() {
	prometheus.MustRegister(CaptureRuns, DeviceCalls, ReadingsCaptured, TokenGrants, CallLatency)
}
