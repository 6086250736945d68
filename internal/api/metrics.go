package api

import (
	"net/http"
	"sync/atomic"
	"time"
)

// Metrics accumulates coarse request counters for the admin metrics
// endpoint. Counters are atomic; no histogram, just a running average.
type Metrics struct {
	started        time.Time
	totalRequests  atomic.Int64
	totalErrors    atomic.Int64
	totalLatencyMs atomic.Int64
}

// NewMetrics creates a Metrics anchored at the current time.
func NewMetrics() *Metrics {
	return &Metrics{started: time.Now()}
}

// MetricsSnapshot is the metrics endpoint payload.
type MetricsSnapshot struct {
	TotalRequests    int64   `json:"totalRequests"`
	TotalErrors      int64   `json:"totalErrors"`
	AverageLatencyMs float64 `json:"averageLatencyMs"`
	UptimeSeconds    float64 `json:"uptimeSeconds"`
}

// Snapshot returns the current counter values.
func (m *Metrics) Snapshot() MetricsSnapshot {
	requests := m.totalRequests.Load()

	avg := 0.0
	if requests > 0 {
		avg = float64(m.totalLatencyMs.Load()) / float64(requests)
	}
	return MetricsSnapshot{
		TotalRequests:    requests,
		TotalErrors:      m.totalErrors.Load(),
		AverageLatencyMs: avg,
		UptimeSeconds:    time.Since(m.started).Seconds(),
	}
}

// Middleware counts every request and its latency. Responses with a 5xx
// status count as errors; client mistakes do not.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		m.totalRequests.Add(1)
		m.totalLatencyMs.Add(time.Since(start).Milliseconds())
		if wrapped.statusCode >= http.StatusInternalServerError {
			m.totalErrors.Add(1)
		}
	})
}
