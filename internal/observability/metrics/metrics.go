package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskflow_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "taskflow_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	authAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskflow_auth_attempts_total",
		Help: "Login and token verification outcomes",
	}, []string{"operation", "result"})

	tenantRegistrations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskflow_tenant_registrations_total",
		Help: "Tenant registrations by result",
	}, []string{"result"})

	quotaRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskflow_quota_rejections_total",
		Help: "Creates refused because a tenant reached its plan limit",
	}, []string{"resource"})

	resourceMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskflow_resource_mutations_total",
		Help: "Successful creates, updates and deletes by resource",
	}, []string{"resource", "operation"})

	revocations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskflow_token_revocations_total",
		Help: "Token revocation list operations by backend and result",
	}, []string{"backend", "result"})

	revocationEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "taskflow_revocation_cache_entries",
		Help: "Entries held in the in-process revocation cache after the last sweep",
	})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, route, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, status).Inc()
	httpRequestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}

// ObserveAuth records a login/verify outcome ("success", "failure").
func ObserveAuth(operation, result string) {
	authAttempts.WithLabelValues(operation, result).Inc()
}

// ObserveRegistration records the outcome of a tenant registration.
func ObserveRegistration(result string) {
	tenantRegistrations.WithLabelValues(result).Inc()
}

// ObserveQuotaRejection counts a create refused by a plan limit.
func ObserveQuotaRejection(resource string) {
	quotaRejections.WithLabelValues(resource).Inc()
}

// ObserveMutation counts a successful write on a tenant resource.
func ObserveMutation(resource, operation string) {
	resourceMutations.WithLabelValues(resource, operation).Inc()
}

// ObserveRevocation records a revocation list operation.
func ObserveRevocation(backend, result string) {
	revocations.WithLabelValues(backend, result).Inc()
}

// SetRevocationEntries sets the revocation cache gauge.
func SetRevocationEntries(count int) {
	if count < 0 {
		count = 0
	}
	revocationEntries.Set(float64(count))
}
