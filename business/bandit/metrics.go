package bandit

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	VariantSelectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "experiment_variant_selections_total",
			Help: "Count of arm selections by selection reason (sticky, single_arm, cold_start, thompson).",
		},
		[]string{"reason"},
	)

	RebalancesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "experiment_rebalances_total",
			Help: "Count of traffic weight rebalances by result.",
		},
		[]string{"result"},
	)

	WeightWriteFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "experiment_weight_write_failures_total",
			Help: "Count of arm traffic weights that failed to persist.",
		},
	)

	ArmTrafficWeight = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "experiment_arm_traffic_weight",
			Help: "Last computed traffic weight (percent) per experiment arm.",
		},
		[]string{"experiment_id", "arm_id"},
	)

	RebalanceJobDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "experiment_rebalance_job_duration_seconds",
		Help:    "Duration of a scheduled rebalance pass over all running experiments.",
		Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
	})

	RebalanceJobLastSuccess = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "experiment_rebalance_job_last_success_timestamp_seconds",
		Help: "Unix time of the last scheduled rebalance pass that completed.",
	})

	RebalanceJobSkipped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "experiment_rebalance_job_skipped_total",
		Help: "Passes skipped because another replica holds the rebalance lock.",
	})
)

func init() {
	prometheus.MustRegister(
		VariantSelectionsTotal,
		RebalancesTotal,
		WeightWriteFailuresTotal,
		ArmTrafficWeight,
		RebalanceJobDuration,
		RebalanceJobLastSuccess,
		RebalanceJobSkipped,
	)
}
