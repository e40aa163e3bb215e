package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"meal-planner/internal/shared"
)

// Collector holds the Prometheus metrics of the application.
type Collector struct {
	aiRequestsTotal     *prometheus.CounterVec
	aiTokensTotal       *prometheus.CounterVec
	aiRequestDuration   *prometheus.HistogramVec
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	plansGenerated      *prometheus.CounterVec
	notificationsTotal  *prometheus.CounterVec
}

// NewCollector registers the metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	f := promauto.With(reg)
	return &Collector{
		aiRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "meal_planner_ai_requests_total",
				Help: "Total number of AI generator calls",
			},
			[]string{"agent", "model", "status"},
		),
		aiTokensTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "meal_planner_ai_tokens_total",
				Help: "Tokens consumed by AI generator calls",
			},
			[]string{"agent", "type"},
		),
		aiRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "meal_planner_ai_request_duration_seconds",
				Help:    "AI generator call duration in seconds",
				Buckets: []float64{0.1, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0},
			},
			[]string{"agent"},
		),
		httpRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "meal_planner_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status_code"},
		),
		httpRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "meal_planner_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		plansGenerated: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "meal_planner_plans_generated_total",
				Help: "Weekly plan generations by outcome",
			},
			[]string{"status"},
		),
		notificationsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "meal_planner_notifications_total",
				Help: "Notifications sent by kind and outcome",
			},
			[]string{"kind", "status"},
		),
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// ObserveAgent records one AI generator call.
func (c *Collector) ObserveAgent(meta shared.AgentMeta, err error) {
	c.aiRequestsTotal.WithLabelValues(meta.AgentName, meta.Usage.Model, status(err)).Inc()
	c.aiTokensTotal.WithLabelValues(meta.AgentName, "prompt").Add(float64(meta.Usage.PromptTokens))
	c.aiTokensTotal.WithLabelValues(meta.AgentName, "completion").Add(float64(meta.Usage.CompletionTokens))
	c.aiRequestDuration.WithLabelValues(meta.AgentName).Observe(meta.Latency.Seconds())
}

// ObservePlanGeneration counts a weekly plan generation.
func (c *Collector) ObservePlanGeneration(err error) {
	c.plansGenerated.WithLabelValues(status(err)).Inc()
}

// ObserveNotification counts a notification attempt.
func (c *Collector) ObserveNotification(kind string, err error) {
	c.notificationsTotal.WithLabelValues(kind, status(err)).Inc()
}

// Middleware records request counts and durations labelled by chi route pattern.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		code := ww.Status()
		if code == 0 {
			code = http.StatusOK
		}
		c.httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(code)).Inc()
		c.httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
