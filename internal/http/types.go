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

type Server struct {
	Club           club.ClubStore
	Ledger         checkin.Ledger
	Sessions       session.Orchestrator
	Matchmaking    matchmaking.MatchmakingService
	Metrics        metrics.Metrics
	MetricsHandler http.Handler
	Notifier       notifier.Notifier
	Cfg            config.Config
	Router         *http.ServeMux
	pubsub         pubsub.PubSubClient
}
