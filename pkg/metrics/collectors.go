package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "portal"

var (
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of portal HTTP requests by route class, method and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"class", "method", "status"})

	BackendRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "backend_requests_total",
		Help:      "Calls made to the backend API by operation and outcome.",
	}, []string{"operation", "status"})

	GateDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "access_gate_decisions_total",
		Help:      "Access gate outcomes (allowed, bypassed, denied).",
	}, []string{"decision"})

	TenantMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tenant_mutations_total",
		Help:      "Tenant and staff mutations submitted through the portal.",
	}, []string{"kind"})

	TokenAcquisitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_acquisitions_total",
		Help:      "Silent token acquisition outcomes (cache, refresh, interaction_required, error).",
	}, []string{"source"})
)

func ObserveHTTPRequest(class, method string, status int, d time.Duration) {
	HTTPRequestDuration.WithLabelValues(class, method, strconv.Itoa(status)).Observe(d.Seconds())
}

// ObserveBackend records a backend call; status 0 means a transport failure.
func ObserveBackend(operation string, status int) {
	label := "transport_error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	BackendRequests.WithLabelValues(operation, label).Inc()
}
