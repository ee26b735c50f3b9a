package obs

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTP-level metrics shared by all handlers.
var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// Domain metrics. Token verification outcomes are labelled so expired and
// structurally invalid tokens stay distinguishable internally even though
// clients only ever see a uniform 401.
var (
	tokenVerifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_token_verifications_total",
			Help: "Bearer token verification outcomes.",
		},
		[]string{"result"}, // ok | expired | invalid
	)

	webhookEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_webhook_events_total",
			Help: "Payment provider webhook events by type.",
		},
		[]string{"type"},
	)

	paymentTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_status_transitions_total",
			Help: "Applied payment status transitions.",
		},
		[]string{"from", "to"},
	)

	paymentAnomalies = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "payment_status_anomalies_total",
		Help: "Rejected writes that would have left a terminal payment state.",
	})
)

// Init registers all metrics in the default registry.
func Init() {
	prometheus.MustRegister(
		httpInFlight, httpRequestsTotal, httpRequestDuration,
		tokenVerifications, webhookEvents, paymentTransitions, paymentAnomalies,
	)
}

// Handler exposes the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveTokenVerification records a token verification outcome.
func ObserveTokenVerification(result string) {
	tokenVerifications.WithLabelValues(result).Inc()
}

// ObserveWebhookEvent records a processed webhook event type.
func ObserveWebhookEvent(eventType string) {
	webhookEvents.WithLabelValues(eventType).Inc()
}

// ObservePaymentTransition records an applied status transition.
func ObservePaymentTransition(from, to string) {
	paymentTransitions.WithLabelValues(from, to).Inc()
}

// ObservePaymentAnomaly counts a rejected write against a terminal state.
func ObservePaymentAnomaly() {
	paymentAnomalies.Inc()
}

// Instrument wraps a handler with RPS/latency/in-flight measurement.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := CanonicalPath(r.URL.Path)
		method := r.Method

		httpInFlight.Inc()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: 200}
		next.ServeHTTP(sw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(sw.code)

		httpRequestDuration.WithLabelValues(method, path, status).Observe(duration)
		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpInFlight.Dec()
	})
}

// CanonicalPath collapses resource identifiers so metric cardinality stays
// bounded.
func CanonicalPath(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return "/"
	}
	prefixes := []struct{ prefix, canonical string }{
		{"/api/programs/public/", "/api/programs/public/:institution_id"},
		{"/api/programs/", "/api/programs/:id"},
		{"/api/bookings/public/", "/api/bookings/public/:institution_id"},
		{"/api/bookings/", "/api/bookings/:id"},
		{"/api/settings/theme/public/", "/api/settings/theme/public/:institution_id"},
		{"/api/payments/status/", "/api/payments/status/:session_id"},
	}
	for _, p := range prefixes {
		rest, ok := strings.CutPrefix(path, p.prefix)
		if !ok || rest == "" {
			continue
		}
		if p.canonical == "/api/bookings/:id" && strings.HasSuffix(rest, "/status") {
			rest = strings.TrimSuffix(rest, "/status")
			if !strings.Contains(rest, "/") {
				return "/api/bookings/:id/status"
			}
			continue
		}
		if !strings.Contains(rest, "/") {
			return p.canonical
		}
	}
	return path
}

// statusWriter captures the response code for labelling.
type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

// Flush keeps SSE responses working through the instrumentation wrapper.
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
