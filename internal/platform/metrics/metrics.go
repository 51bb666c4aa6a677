package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/invoice-api/internal/settings"
	"github.com/phrazzld/invoice-api/internal/settings/schema"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for save counters.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Metrics holds the collectors for one registry. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	validationFailures *prometheus.CounterVec
	droppedSettings    *prometheus.CounterVec
	saves              *prometheus.CounterVec
	lookups            *prometheus.CounterVec
	requests           *prometheus.CounterVec
	requestDuration    *prometheus.HistogramVec
}

// Ensure Metrics can observe the settings engine.
var _ settings.Observer = (*Metrics)(nil)

// New registers every collector under namespace on a fresh registry. The Go
// runtime and process collectors are included.
func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		validationFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "settings_validation_failures_total",
				Help:      "Payload keys rejected by validation",
			},
			[]string{"key", "expected_type"},
		),
		droppedSettings: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "settings_dropped_total",
				Help:      "Payload keys silently dropped during coercion",
			},
			[]string{"key", "expected_type"},
		),
		saves: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "settings_saves_total",
				Help:      "Settings saves by level and outcome",
			},
			[]string{"level", "outcome"},
		),
		lookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "settings_lookups_total",
				Help:      "Cascade lookups by resolving level and status",
			},
			[]string{"level", "status"},
		),
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
	}
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ValidationFailed implements settings.Observer.
func (m *Metrics) ValidationFailed(key string, expected schema.TypeTag) {
	if m == nil {
		return
	}
	m.validationFailures.WithLabelValues(key, string(expected)).Inc()
}

// SettingDropped implements settings.Observer.
func (m *Metrics) SettingDropped(key string, expected schema.TypeTag) {
	if m == nil {
		return
	}
	m.droppedSettings.WithLabelValues(key, string(expected)).Inc()
}

// ObserveSave counts a save at level.
func (m *Metrics) ObserveSave(level settings.Level, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	m.saves.WithLabelValues(level.String(), outcome).Inc()
}

// ObserveLookup counts a cascade resolution.
func (m *Metrics) ObserveLookup(res settings.Resolution) {
	if m == nil {
		return
	}
	level := "none"
	if res.Found() {
		level = res.Level.String()
	}
	m.lookups.WithLabelValues(level, res.Status.String()).Inc()
}

// Middleware records request counts and durations labelled by the matched
// chi route pattern rather than the raw path.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := routePattern(r)
		labels := []string{r.Method, route, strconv.Itoa(status)}
		m.requests.WithLabelValues(labels...).Inc()
		m.requestDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
	})
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}
