// Package metrics holds the Prometheus collectors for the document
// context graph server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "datapack", Name: "http_requests_total", Help: "Number of HTTP requests by method, route and status."},
		[]string{"method", "route", "status"},
	)
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: "datapack", Name: "http_request_duration_seconds", Help: "HTTP request latency by method and route.", Buckets: prometheus.DefBuckets},
		[]string{"method", "route"},
	)
	DocumentsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "datapack", Name: "documents_created_total", Help: "Number of documents created."},
	)
	TraversalNodes = prometheus.NewHistogram(
		prometheus.HistogramOpts{Namespace: "datapack", Name: "traversal_nodes", Help: "Nodes returned per context traversal.", Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100}},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RequestsTotal)
	reg.MustRegister(RequestDuration)
	reg.MustRegister(DocumentsCreated)
	reg.MustRegister(TraversalNodes)
}
