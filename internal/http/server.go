package http

import (
	"net/http"

	"github.com/mauv0809/crispy-shuttle/internal/checkin"
	"github.com/mauv0809/crispy-shuttle/internal/club"
	"github.com/mauv0809/crispy-shuttle/internal/config"
	"github.com/mauv0809/crispy-shuttle/internal/matchmaking"
	"github.com/mauv0809/crispy-shuttle/internal/metrics"
	"github.com/mauv0809/crispy-shuttle/internal/notifier"
	"github.com/mauv0809/crispy-shuttle/internal/pubsub"
	"github.com/mauv0809/crispy-shuttle/internal/session"
)

func NewServer(clubStore club.ClubStore, ledger checkin.Ledger, sessions session.Orchestrator, matchmakingSvc matchmaking.MatchmakingService, metricsSvc metrics.Metrics, metricsHandler http.Handler, cfg config.Config, notifier notifier.Notifier, pubsub pubsub.PubSubClient) *Server {
	server := &Server{
		Club:           clubStore,
		Ledger:         ledger,
		Sessions:       sessions,
		Matchmaking:    matchmakingSvc,
		Metrics:        metricsSvc,
		MetricsHandler: metricsHandler,
		Cfg:            cfg,
		Notifier:       notifier,
		Router:         http.NewServeMux(),
		pubsub:         pubsub,
	}

	server.routes()
	return server
}

func (s *Server) routes() {
	// All handlers are wrapped with middleware using the Chain helper.
	// This makes it easy to add more middlewares in the future, like an authentication middleware.
	// e.g. Chain(s.MyHandler(), paramsMiddleware, authMiddleware)
	// Store-backed routes additionally get the single-retry wrapper for
	// transient store failures.
	s.Router.Handle("/metrics", s.MetricsHandler)
	s.Router.Handle("/health", Chain(s.HealthCheckHandler(), paramsMiddleware))

	s.Router.Handle("/players", Chain(s.ListPlayersHandler(), retryMiddleware, paramsMiddleware))
	s.Router.Handle("/players/create", Chain(s.CreatePlayerHandler(), retryMiddleware, paramsMiddleware))
	s.Router.Handle("/players/update", Chain(s.UpdatePlayerHandler(), retryMiddleware, paramsMiddleware))
	s.Router.Handle("/courts", Chain(s.ListCourtsHandler(), retryMiddleware, paramsMiddleware))
	s.Router.Handle("/courts/create", Chain(s.CreateCourtHandler(), retryMiddleware, paramsMiddleware))

	s.Router.Handle("/session/start", Chain(s.StartSessionHandler(), retryMiddleware, paramsMiddleware))
	s.Router.Handle("/session", Chain(s.ActiveSessionHandler(), retryMiddleware, paramsMiddleware))
	s.Router.Handle("/session/end", Chain(s.EndSessionHandler(), retryMiddleware, paramsMiddleware))

	s.Router.Handle("/checkins", Chain(s.ListCheckInsHandler(), retryMiddleware, paramsMiddleware))
	s.Router.Handle("/checkins/add", Chain(s.CheckInHandler(), retryMiddleware, paramsMiddleware))
	s.Router.Handle("/checkins/update", Chain(s.UpdateCheckInHandler(), retryMiddleware, paramsMiddleware))
	s.Router.Handle("/checkins/remove", Chain(s.RemoveCheckInHandler(), retryMiddleware, paramsMiddleware))

	s.Router.Handle("/matches", Chain(s.ListMatchesHandler(), retryMiddleware, paramsMiddleware))
	s.Router.Handle("/matches/arrange", Chain(s.ArrangeRoundHandler(), retryMiddleware, paramsMiddleware))
	s.Router.Handle("/matches/reset", Chain(s.ResetRoundHandler(), retryMiddleware, paramsMiddleware))
	s.Router.Handle("/matches/place", Chain(s.PlacePlayerHandler(), retryMiddleware, paramsMiddleware))
	s.Router.Handle("/matches/bench", Chain(s.BenchPlayerHandler(), retryMiddleware, paramsMiddleware))
	s.Router.Handle("/matches/swap", Chain(s.SwapPlayersHandler(), retryMiddleware, paramsMiddleware))
	s.Router.Handle("/matches/result", Chain(s.MatchResultHandler(), retryMiddleware, paramsMiddleware))

	s.Router.Handle("/snapshots", Chain(s.ListSnapshotsHandler(), retryMiddleware, paramsMiddleware))
	s.Router.Handle("/snapshots/session", Chain(s.GetSnapshotHandler(), retryMiddleware, paramsMiddleware))

	s.Router.Handle("/slack/command/lineup", Chain(s.LineupCommandHandler(), retryMiddleware, paramsMiddleware))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}
