package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"auth-backend/internal/apperr"
)

// Metrics owns the service collectors. Each instance has its own registry
// so tests can build as many as they like.
type Metrics struct {
	Registry *prometheus.Registry

	SessionsIssued      *prometheus.CounterVec
	TokenVerifications  *prometheus.CounterVec
	PermissionLookups   *prometheus.CounterVec
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// New registers the service collectors plus the Go and process collectors
// on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		SessionsIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_sessions_issued_total",
			Help: "Token pairs issued, by role.",
		}, []string{"role"}),
		TokenVerifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_token_verifications_total",
			Help: "Bearer header resolutions, by result (guest|valid|malformed|invalid).",
		}, []string{"result"}),
		PermissionLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_permission_resolutions_total",
			Help: "Permission map resolutions, by role.",
		}, []string{"role"}),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests processed.",
		}, []string{"method", "path", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
	m.Registry.MustRegister(
		m.SessionsIssued,
		m.TokenVerifications,
		m.PermissionLookups,
		m.httpRequestsTotal,
		m.httpRequestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
}

// Middleware records count and latency per route. The route pattern, not
// the raw path, is used as the label to keep cardinality bounded. Label
// values are copied because Fiber's strings alias request buffers that are
// reused once the handler returns.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = apperr.As(err).Status
		}
		method := utils.CopyString(c.Method())
		path := utils.CopyString(c.Route().Path)
		m.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
		m.httpRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
		return err
	}
}
