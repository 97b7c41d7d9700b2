package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// SubmissionsTotal counts audit submissions by kind (audio|text) and result.
	SubmissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "callaudit",
		Subsystem: "assembly",
		Name:      "submissions_total",
		Help:      "Total number of audit submissions, labeled by kind and result.",
	}, []string{"kind", "result"})

	// AnalysisDurationSeconds is the collaborator round trip, including parsing.
	AnalysisDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "callaudit",
		Subsystem: "assembly",
		Name:      "analysis_duration_seconds",
		Help:      "Time spent in the analysis collaborator per submission.",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120, 300},
	}, []string{"kind"})

	// IssueResolutionsTotal counts auditor decisions.
	IssueResolutionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "callaudit",
		Subsystem: "review",
		Name:      "issue_resolutions_total",
		Help:      "Total number of issues resolved by auditors, labeled by decision.",
	}, []string{"decision"})

	StaleResolutionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "callaudit",
		Subsystem: "review",
		Name:      "stale_resolutions_total",
		Help:      "Resolve requests ignored because they named a non-active issue.",
	})

	AutoStopTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "callaudit",
		Subsystem: "playback",
		Name:      "autostop_total",
		Help:      "Number of times playback was stopped at an issue boundary.",
	})

	// OpenReviews is the number of live review workstations.
	OpenReviews = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "callaudit",
		Subsystem: "review",
		Name:      "open_workstations",
		Help:      "Number of review workstations currently open.",
	})

	PlayerClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "callaudit",
		Subsystem: "playback",
		Name:      "player_clients",
		Help:      "Number of connected player websocket clients.",
	})

	// TrailPublishErrorsTotal counts audit-trail events that could not be published.
	TrailPublishErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "callaudit",
		Subsystem: "trail",
		Name:      "publish_errors_total",
		Help:      "Total number of audit trail publish errors.",
	})
)

// Register registers metrics with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			SubmissionsTotal,
			AnalysisDurationSeconds,
			IssueResolutionsTotal,
			StaleResolutionsTotal,
			AutoStopTotal,
			OpenReviews,
			PlayerClients,
			TrailPublishErrorsTotal,
		)
	})
}
