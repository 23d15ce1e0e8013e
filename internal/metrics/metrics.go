// Package metrics holds the Prometheus collectors for ledger outcomes.
// Collectors register with the default registry, which cmd/api exposes at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Commits counts store mutations by operation (create, update, delete, enrich, restore, rate).
	Commits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tripledger",
		Name:      "store_commits_total",
		Help:      "Committed store mutations by operation.",
	}, []string{"op"})

	// Restores counts restore attempts by outcome (ok, extraction_error, format_error).
	Restores = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tripledger",
		Name:      "restores_total",
		Help:      "Backup restore attempts by outcome.",
	}, []string{"outcome"})

	// Enrichments counts finished enrichment runs by outcome.
	Enrichments = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tripledger",
		Name:      "enrichments_total",
		Help:      "Finished enrichment runs by outcome.",
	}, []string{"outcome"})

	// Saves counts debounced persistence writes by outcome.
	Saves = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tripledger",
		Name:      "saves_total",
		Help:      "Snapshot writes to durable storage by outcome.",
	}, []string{"outcome"})

	// GeneratorCalls counts generative text service calls by provider and outcome.
	GeneratorCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tripledger",
		Name:      "generator_calls_total",
		Help:      "Generative text service calls by provider and outcome.",
	}, []string{"provider", "outcome"})

	// HTTPRequests counts served requests by route pattern and status class.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tripledger",
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	// HTTPDuration observes request latency by route pattern.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tripledger",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
)
