package metrics

// Metrics defines the interface for collecting application metrics.
// This decouples the application from the specific metrics implementation (e.g., Prometheus).
type Metrics interface {
	IncArrangeRuns()
	IncMatchesPlanned(count int)
	IncPlayersBenched(count int)
	IncCheckIns()
	IncSessionsEnded()
	IncSnapshotFailures()
	IncSlackNotifSent()
	IncSlackNotifFailed()
	ObserveArrangeDuration(duration float64)
	SetStartupTime(duration float64)
}
