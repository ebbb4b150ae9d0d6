package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bookshelf"

// PrometheusRecorder exports metrics through a dedicated Prometheus registry.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	logins           *prometheus.CounterVec
	registrations    *prometheus.CounterVec
	tokenValidations *prometheus.CounterVec
	ownershipDenied  *prometheus.CounterVec
	bookMutations    *prometheus.CounterVec
	bookListCache    *prometheus.CounterVec
}

// NewPrometheus returns a Recorder backed by a fresh registry that also
// carries the Go runtime and process collectors.
func NewPrometheus() *PrometheusRecorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &PrometheusRecorder{
		registry: reg,
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"method", "path"}),
		logins: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login attempts by outcome",
		}, []string{"outcome"}),
		registrations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "Registration attempts by outcome",
		}, []string{"outcome"}),
		tokenValidations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_validations_total",
			Help:      "Bearer token checks by outcome",
		}, []string{"outcome"}),
		ownershipDenied: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ownership_denied_total",
			Help:      "Rejected cross-account accesses by resource",
		}, []string{"resource"}),
		bookMutations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "book_mutations_total",
			Help:      "Book writes by operation",
		}, []string{"op"}),
		bookListCache: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "book_list_cache_total",
			Help:      "Book list cache lookups by result",
		}, []string{"result"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

// Registry returns the underlying registry.
func (p *PrometheusRecorder) Registry() *prometheus.Registry {
	return p.registry
}

// ObserveHTTPRequest records one served request.
func (p *PrometheusRecorder) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	p.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	p.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// IncLogin counts a login attempt by outcome.
func (p *PrometheusRecorder) IncLogin(outcome string) {
	p.logins.WithLabelValues(outcome).Inc()
}

// IncRegistration counts a registration attempt by outcome.
func (p *PrometheusRecorder) IncRegistration(outcome string) {
	p.registrations.WithLabelValues(outcome).Inc()
}

// IncTokenValidation counts a bearer token check by outcome.
func (p *PrometheusRecorder) IncTokenValidation(outcome string) {
	p.tokenValidations.WithLabelValues(outcome).Inc()
}

// IncOwnershipDenied counts a rejected cross-account access.
func (p *PrometheusRecorder) IncOwnershipDenied(resource string) {
	p.ownershipDenied.WithLabelValues(resource).Inc()
}

// IncBookCreated counts a created book.
func (p *PrometheusRecorder) IncBookCreated() {
	p.bookMutations.WithLabelValues("create").Inc()
}

// IncBookUpdated counts an updated book.
func (p *PrometheusRecorder) IncBookUpdated() {
	p.bookMutations.WithLabelValues("update").Inc()
}

// IncBookDeleted counts a deleted book.
func (p *PrometheusRecorder) IncBookDeleted() {
	p.bookMutations.WithLabelValues("delete").Inc()
}

// IncBookListCacheHit counts a cache hit.
func (p *PrometheusRecorder) IncBookListCacheHit() {
	p.bookListCache.WithLabelValues("hit").Inc()
}

// IncBookListCacheMiss counts a cache miss.
func (p *PrometheusRecorder) IncBookListCacheMiss() {
	p.bookListCache.WithLabelValues("miss").Inc()
}
