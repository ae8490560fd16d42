// Package metrics provides Prometheus metrics for the PaaS operator
// (RED for HTTP, plus subprocess, Cloudflare, and OAuth counters).
// Scrapeable at /metrics; dashboards and runbooks rely on these names.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "paas_operator"

var (
	// HTTPRequestTotal counts requests by method, path, status (RED: rate).
	HTTPRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by method, path, and status.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDurationSeconds is request latency histogram (RED: duration).
	HTTPRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2.5, 10), // 1ms to ~9.3s
		},
		[]string{"method", "path"},
	)

	// SubprocessInvocationsTotal counts helm/kubectl runs by binary and outcome
	// (success | error | timeout | not_found).
	SubprocessInvocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subprocess_invocations_total",
			Help:      "Total external CLI invocations by binary and outcome.",
		},
		[]string{"binary", "outcome"},
	)

	// SubprocessDurationSeconds is subprocess wall-clock duration per binary.
	SubprocessDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "subprocess_duration_seconds",
			Help:      "External CLI invocation duration in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12), // 50ms to ~102s
		},
		[]string{"binary"},
	)

	// CloudflareAPICallsTotal counts outbound Cloudflare API calls by outcome.
	CloudflareAPICallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cloudflare_api_calls_total",
			Help:      "Total Cloudflare API calls by outcome (success | error).",
		},
		[]string{"outcome"},
	)

	// OAuthTokensIssuedTotal counts issued token pairs by grant type.
	OAuthTokensIssuedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "oauth_tokens_issued_total",
			Help:      "Total OAuth2 access tokens issued by grant type.",
		},
		[]string{"grant_type"},
	)

	// APIKeyValidationsTotal counts admin API-key checks by result.
	APIKeyValidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_key_validations_total",
			Help:      "Total API key validations by result (valid | invalid).",
		},
		[]string{"result"},
	)

	// BearerValidationsTotal counts bearer-token checks by result.
	BearerValidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bearer_validations_total",
			Help:      "Total bearer token validations by result (valid | invalid | missing | forbidden).",
		},
		[]string{"result"},
	)
)
