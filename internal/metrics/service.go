package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ Metrics = (*Service)(nil)

// NewMetricsHandler returns an http.Handler for the given Gatherer.
// If no gatherer is provided, it uses the default one.
func NewMetricsHandler(gatherer ...prometheus.Gatherer) http.Handler {
	gath := prometheus.DefaultGatherer
	if len(gatherer) > 0 {
		gath = gatherer[0]
	}
	return promhttp.HandlerFor(gath, promhttp.HandlerOpts{})
}

// NewService creates and registers the Prometheus metrics.
// If no registerer is provided, it uses the default Prometheus registerer.
func NewService(registerer ...prometheus.Registerer) *Service {
	reg := prometheus.DefaultRegisterer
	if len(registerer) > 0 {
		reg = registerer[0]
	}

	s := &Service{
		ArrangeRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "badminton_arrange_runs_total",
			Help: "The total number of times the round planner has run.",
		}),
		MatchesPlanned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "badminton_matches_planned_total",
			Help: "The total number of matches produced by the round planner.",
		}),
		PlayersBenched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "badminton_players_benched_total",
			Help: "The total number of players left benched by the round planner.",
		}),
		CheckIns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "badminton_check_ins_total",
			Help: "The total number of successful check-ins.",
		}),
		SessionsEnded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "badminton_sessions_ended_total",
			Help: "The total number of training sessions ended.",
		}),
		SnapshotFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "badminton_snapshot_failures_total",
			Help: "The total number of failed statistics snapshots.",
		}),
		SlackNotifSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "badminton_slack_notifications_sent_total",
			Help: "The total number of Slack notifications sent successfully.",
		}),
		SlackNotifFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "badminton_slack_notifications_failed_total",
			Help: "The total number of Slack notifications that failed to send.",
		}),
		ArrangeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "badminton_arrange_duration_seconds",
			Help:    "The duration of individual round arrangements.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		StartupTimeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "badminton_startup_duration_seconds",
			Help: "The duration of the application startup in seconds.",
		}),
	}

	reg.MustRegister(
		s.ArrangeRuns,
		s.MatchesPlanned,
		s.PlayersBenched,
		s.CheckIns,
		s.SessionsEnded,
		s.SnapshotFailures,
		s.SlackNotifSent,
		s.SlackNotifFailed,
		s.ArrangeDuration,
		s.StartupTimeSeconds,
	)

	return s
}

func (s *Service) IncArrangeRuns() {
	s.ArrangeRuns.Inc()
}

func (s *Service) IncMatchesPlanned(count int) {
	s.MatchesPlanned.Add(float64(count))
}

func (s *Service) IncPlayersBenched(count int) {
	s.PlayersBenched.Add(float64(count))
}

func (s *Service) IncCheckIns() {
	s.CheckIns.Inc()
}

func (s *Service) IncSessionsEnded() {
	s.SessionsEnded.Inc()
}

func (s *Service) IncSnapshotFailures() {
	s.SnapshotFailures.Inc()
}

func (s *Service) IncSlackNotifSent() {
	s.SlackNotifSent.Inc()
}

func (s *Service) IncSlackNotifFailed() {
	s.SlackNotifFailed.Inc()
}

func (s *Service) ObserveArrangeDuration(duration float64) {
	s.ArrangeDuration.Observe(duration)
}

func (s *Service) SetStartupTime(duration float64) {
	s.StartupTimeSeconds.Set(duration)
}
