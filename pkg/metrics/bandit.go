package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// Latency of the variant selection HTTP handler
	VariantSelectLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "experiment_variant_select_latency_seconds",
		Help:    "Latency of the variant selection handler",
		Buckets: prometheus.DefBuckets,
	})

	// Total number of variant selection requests, by outcome
	VariantSelectRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "experiment_variant_select_requests_total",
		Help: "Total number of variant selection requests",
	}, []string{"outcome"})
)

func Init() {
	prometheus.MustRegister(
		VariantSelectLatency,
		VariantSelectRequests,
	)
}
