// Package app wires configuration, adapters, and usecases into the HTTP
// application.
package app

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpserver "github.com/talentloop/ai-interviewer/internal/adapter/httpserver"
	"github.com/talentloop/ai-interviewer/internal/adapter/observability"
	"github.com/talentloop/ai-interviewer/internal/config"
)

// ParseOrigins splits a comma-separated origin list, trimming spaces.
// Empty input means allow all.
func ParseOrigins(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" || s == "*" {
		return []string{"*"}
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func ipLimiter(requests int, cfg config.Config) func(http.Handler) http.Handler {
	return httprate.Limit(requests, cfg.RateLimitWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(httpserver.RateLimitedHandler()),
	)
}

// BuildRouter constructs the HTTP handler with all middleware and routes.
func BuildRouter(cfg config.Config, srv *httpserver.Server) http.Handler {
	r := chi.NewRouter()
	r.Use(httpserver.Recoverer())
	r.Use(httpserver.RequestID())
	r.Use(httpserver.TraceMiddleware)
	r.Use(httpserver.AccessLog())
	r.Use(observability.HTTPMetricsMiddleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   ParseOrigins(cfg.CORSAllowOrigins),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"X-Request-Id", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Webhook deliveries are not rate limited; the provider retries on 429
	// and the payload validator rejects junk cheaply.
	r.Post("/webhook", srv.WebhookHandler())

	r.Group(func(gr chi.Router) {
		gr.Use(ipLimiter(cfg.CompleteRateLimit, cfg))
		gr.Post("/complete-interview", srv.CompleteInterviewHandler())
	})
	r.Group(func(gr chi.Router) {
		gr.Use(ipLimiter(cfg.EvaluateRateLimit, cfg))
		gr.Post("/evaluate", srv.EvaluateHandler())
		gr.Post("/generate-prompt", srv.GeneratePromptHandler())
		gr.Post("/link-conversation", srv.LinkConversationHandler())
	})
	r.Group(func(gr chi.Router) {
		gr.Use(ipLimiter(cfg.UploadRateLimit, cfg))
		gr.Post("/upload-cv", srv.UploadCVHandler())
	})

	r.Get("/jobs", srv.ListJobsHandler())

	if cfg.AdminEnabled() {
		r.Route("/admin", func(ar chi.Router) {
			ar.Use(middleware.BasicAuth("admin", map[string]string{cfg.AdminUsername: cfg.AdminPassword}))
			ar.Post("/jobs", srv.CreateJobHandler())
			ar.Get("/candidates", srv.AdminListCandidatesHandler())
			ar.Get("/candidates/{id}", srv.AdminCandidateDetailHandler())
			ar.Get("/candidates/{id}/cv", srv.AdminDownloadCVHandler())
		})
	}

	r.Get("/healthz", srv.HealthzHandler())
	r.Get("/readyz", srv.ReadyzHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) { promhttp.Handler().ServeHTTP(w, r) })

	return httpserver.SecurityHeaders(r)
}
