package observability

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"route", "method"},
	)

	WebhookEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Provider webhook deliveries by outcome (accepted, invalid, unlinked)",
		},
		[]string{"outcome"},
	)
	TranscriptsSavedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transcripts_saved_total",
			Help: "Transcripts persisted by entry path (push, pull)",
		},
		[]string{"path"},
	)
	EvaluationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "evaluations_total",
			Help: "Evaluation attempts by entry path and outcome",
		},
		[]string{"path", "outcome"},
	)
	ProviderFetchAttempts = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "conversation_fetch_attempts",
			Help:    "Attempts used per pull-path conversation fetch",
			Buckets: []float64{1, 2, 3, 4, 5},
		},
	)
	InterviewScoreHistogram = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "interview_score",
			Help:    "Distribution of interview scores ([0,10])",
			Buckets: []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
		},
	)
)

// InitMetrics registers all Prometheus collectors once per process.
func InitMetrics() {
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(WebhookEventsTotal)
	prometheus.MustRegister(TranscriptsSavedTotal)
	prometheus.MustRegister(EvaluationsTotal)
	prometheus.MustRegister(ProviderFetchAttempts)
	prometheus.MustRegister(InterviewScoreHistogram)
}

// HTTPMetricsMiddleware records Prometheus metrics for each request.
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		dur := time.Since(start).Seconds()
		var route string
		if rc := chi.RouteContext(r.Context()); rc != nil {
			route = rc.RoutePattern()
		}
		if route == "" {
			route = r.URL.Path
		}
		HTTPRequestsTotal.WithLabelValues(route, r.Method, http.StatusText(ww.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(route, r.Method).Observe(dur)
	})
}
