package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics for the /v1/query endpoint, grounded on holomush/holomush's
// internal/access/policy metrics shape: a status-labeled counter and a
// latency histogram.
var (
	queryRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "markql_agent_query_requests_total",
		Help: "Total number of /v1/query requests by response status",
	}, []string{"status"})

	queryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "markql_agent_query_duration_seconds",
		Help:    "Histogram of /v1/query request latency in seconds",
		Buckets: prometheus.DefBuckets,
	})
)
