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
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"route", "method"},
	)

	AIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_requests_total",
			Help: "Total number of AI generation requests by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)
	AIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_request_duration_seconds",
			Help:    "AI request duration in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 60},
		},
		[]string{"provider"},
	)
	AITokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_tokens_total",
			Help: "Estimated tokens exchanged with the AI provider",
		},
		[]string{"kind"},
	)
	AICacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_cache_total",
			Help: "AI response cache lookups by result",
		},
		[]string{"result"},
	)

	// Analysis pipeline outcomes
	AnalysisStageTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analysis_stage_total",
			Help: "Analysis stages completed, by stage and the source that produced the result",
		},
		[]string{"stage", "source"},
	)
	AnnotationsDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "analysis_annotations_dropped_total",
			Help: "Annotations dropped because their text could not be aligned with the essay",
		},
	)
	OverallBandHistogram = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "analysis_overall_band",
			Help:    "Distribution of overall IELTS band ([0,9])",
			Buckets: []float64{1, 2, 3, 4, 4.5, 5, 5.5, 6, 6.5, 7, 7.5, 8, 8.5, 9},
		},
	)
	ConfidenceHistogram = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "analysis_confidence",
			Help:    "Distribution of aggregate result confidence ([0,1])",
			Buckets: []float64{0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		},
	)
	ReportsStoredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reports_stored_total",
			Help: "Analysis reports persisted, by outcome",
		},
		[]string{"outcome"},
	)
)

func InitMetrics() {
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(AIRequestsTotal)
	prometheus.MustRegister(AIRequestDuration)
	prometheus.MustRegister(AITokensTotal)
	prometheus.MustRegister(AICacheTotal)
	prometheus.MustRegister(AnalysisStageTotal)
	prometheus.MustRegister(AnnotationsDroppedTotal)
	prometheus.MustRegister(OverallBandHistogram)
	prometheus.MustRegister(ConfidenceHistogram)
	prometheus.MustRegister(ReportsStoredTotal)
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

// RecordStage counts which source produced a pipeline stage.
func RecordStage(stage, source string) {
	AnalysisStageTotal.WithLabelValues(stage, source).Inc()
}

// ObserveAnalysis records the outcome distributions of a finished analysis.
func ObserveAnalysis(overallBand, confidence float64) {
	if overallBand >= 0 && overallBand <= 9 {
		OverallBandHistogram.Observe(overallBand)
	}
	if confidence >= 0 && confidence <= 1 {
		ConfidenceHistogram.Observe(confidence)
	}
}
