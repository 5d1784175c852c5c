package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "algoarena"

var (
	// 50ms -> 2min
	judgeLatencyBuckets = []float64{
		0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5, 8, 13, 21, 34, 60, 120,
	}

	SubmissionVerdicts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "submission",
		Name:      "verdicts_total",
		Help:      "Judged submissions by final status",
	}, []string{"status"})

	JudgeErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "judge",
		Name:      "errors_total",
		Help:      "Judge calls that ended without results",
	}, []string{"kind"})

	JudgePollRounds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "judge",
		Name:      "poll_rounds",
		Help:      "Number of batch status queries needed before all tokens resolved",
		Buckets:   prometheus.LinearBuckets(1, 2, 15),
	})

	JudgeLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "judge",
		Name:      "latency_seconds",
		Help:      "Wall time from batch submit to all results ready",
		Buckets:   judgeLatencyBuckets,
	}, []string{"flow"})

	SideEffectErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "submission",
		Name:      "side_effect_errors_total",
		Help:      "Failures in post-acceptance coordinators",
	}, []string{"coordinator"})

	OrphansReconciled = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "submission",
		Name:      "orphans_reconciled_total",
		Help:      "Pending submissions closed by the reconciler",
	})
)

func init() {
	prometheus.MustRegister(
		SubmissionVerdicts,
		JudgeErrors,
		JudgePollRounds,
		JudgeLatency,
		SideEffectErrors,
		OrphansReconciled,
	)
}
