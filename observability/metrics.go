package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the payroll engine. It implements
// payroll.Recorder.
type Metrics struct {
	// Registry owns these metrics; /metrics serves it.
	Registry *prometheus.Registry

	requestDuration    *prometheus.HistogramVec
	periodsGenerated   prometheus.Counter
	sessionsClassified prometheus.Counter
	validationFailures *prometheus.CounterVec
	statusRefreshes    prometheus.Counter
	statusesUpdated    prometheus.Counter
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. A private registry lets tests build as many
// servers as they like.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "payroll_http_request_duration_seconds",
				Help:    "Duration of HTTP requests by route and status.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
		periodsGenerated: factory.NewCounter(prometheus.CounterOpts{
			Name: "payroll_periods_generated_total",
			Help: "Pay periods inserted by generation.",
		}),
		sessionsClassified: factory.NewCounter(prometheus.CounterOpts{
			Name: "payroll_sessions_classified_total",
			Help: "Work sessions run through the time classifier.",
		}),
		validationFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payroll_validation_failures_total",
				Help: "Rejected inputs by kind.",
			},
			[]string{"kind"},
		),
		statusRefreshes: factory.NewCounter(prometheus.CounterOpts{
			Name: "payroll_status_refresh_runs_total",
			Help: "Period status refresh runs.",
		}),
		statusesUpdated: factory.NewCounter(prometheus.CounterOpts{
			Name: "payroll_period_statuses_updated_total",
			Help: "Stored period statuses rewritten by refresh runs.",
		}),
	}
}

func (m *Metrics) PeriodsGenerated(n int)   { m.periodsGenerated.Add(float64(n)) }
func (m *Metrics) SessionsClassified(n int) { m.sessionsClassified.Add(float64(n)) }

func (m *Metrics) ValidationFailed(kind string) {
	m.validationFailures.WithLabelValues(kind).Inc()
}

func (m *Metrics) StatusesRefreshed(updated int) {
	m.statusRefreshes.Inc()
	m.statusesUpdated.Add(float64(updated))
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// Middleware records request duration labelled by chi route pattern, so
// /periods/{periodID}/hours is one series regardless of ID.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
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
		m.requestDuration.
			WithLabelValues(r.Method, route, strconv.Itoa(ww.Status())).
			Observe(time.Since(start).Seconds())
	})
}
