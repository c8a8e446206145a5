package metrics

import "github.com/prometheus/client_golang/prometheus"

// Service is the Prometheus-backed Metrics implementation.
type Service struct {
	ArrangeRuns        prometheus.Counter
	MatchesPlanned     prometheus.Counter
	PlayersBenched     prometheus.Counter
	CheckIns           prometheus.Counter
	SessionsEnded      prometheus.Counter
	SnapshotFailures   prometheus.Counter
	SlackNotifSent     prometheus.Counter
	SlackNotifFailed   prometheus.Counter
	ArrangeDuration    prometheus.Histogram
	StartupTimeSeconds prometheus.Gauge
}
