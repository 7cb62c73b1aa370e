// Package app wires the HTTP router and readiness probes.
package app

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpserver "github.com/fairyhunter13/ielts-writing-coach/internal/adapter/httpserver"
	"github.com/fairyhunter13/ielts-writing-coach/internal/adapter/observability"
	"github.com/fairyhunter13/ielts-writing-coach/internal/config"
)

// NormalizeOrigins trims the configured origins and drops empty entries.
// An empty result allows every origin.
func NormalizeOrigins(in []string) []string {
	out := make([]string, 0, len(in))
	for _, p := range in {
		p = strings.TrimSpace(p)
		if p == "*" {
			return []string{"*"}
		}
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

// RequestTimeout is the handler deadline. It stays below the server write
// timeout so the 504 reaches the client before the connection closes.
func RequestTimeout(cfg config.Config) time.Duration {
	wt := cfg.HTTPWriteTimeout
	if wt <= 0 {
		wt = 150 * time.Second
	}
	return wt * 9 / 10
}

// BuildRouter constructs the HTTP handler with all middlewares and routes.
func BuildRouter(cfg config.Config, srv *httpserver.Server) http.Handler {
	r := chi.NewRouter()
	// Security & instrumentation middleware
	r.Use(httpserver.Recoverer())
	r.Use(httpserver.RequestID())
	r.Use(httpserver.TimeoutMiddleware(RequestTimeout(cfg)))
	r.Use(httpserver.TraceMiddleware)
	r.Use(httpserver.AccessLog())
	r.Use(observability.HTTPMetricsMiddleware)

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   NormalizeOrigins(cfg.CORSAllowOrigins),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Analysis calls the AI provider, so it is rate limited per client IP.
	r.Group(func(wr chi.Router) {
		if cfg.RateLimitPerMin > 0 {
			wr.Use(httprate.LimitByIP(cfg.RateLimitPerMin, 1*time.Minute))
		}
		wr.Post("/v1/analyze", srv.AnalyzeHandler())
		wr.Post("/v1/analyze/upload", srv.UploadHandler())
	})
	// Read-only endpoints
	r.Get("/v1/reports/{id}", srv.ReportHandler())

	// Health and metrics
	r.Get("/healthz", srv.HealthzHandler())
	r.Get("/readyz", srv.ReadyzHandler())
	r.Handle("/metrics", promhttp.Handler())

	return httpserver.SecurityHeaders(r)
}
