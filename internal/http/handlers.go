package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/crispy-shuttle/internal/checkin"
	"github.com/mauv0809/crispy-shuttle/internal/club"
	"github.com/mauv0809/crispy-shuttle/internal/database"
	"github.com/mauv0809/crispy-shuttle/internal/matchmaking"
	"github.com/mauv0809/crispy-shuttle/internal/pubsub"
	"github.com/mauv0809/crispy-shuttle/internal/session"
	"github.com/slack-go/slack"
)

func (s *Server) HealthCheckHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug("Received health check request")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK!")
	}
}

// statusFor maps domain sentinel errors to HTTP status codes. Transient
// store failures map to 503, which the retry middleware keys on.
func statusFor(err error) int {
	switch {
	case database.IsUnavailable(err):
		return http.StatusServiceUnavailable
	case errors.Is(err, club.ErrUnknownPlayer),
		errors.Is(err, club.ErrUnknownCourt),
		errors.Is(err, checkin.ErrNotCheckedIn),
		errors.Is(err, session.ErrNoActiveSession),
		errors.Is(err, session.ErrSnapshotMissing),
		errors.Is(err, matchmaking.ErrMatchNotFound),
		errors.Is(err, matchmaking.ErrCourtNotFound):
		return http.StatusNotFound
	case errors.Is(err, matchmaking.ErrInvalidSlot),
		errors.Is(err, matchmaking.ErrInvalidScore):
		return http.StatusBadRequest
	case errors.Is(err, checkin.ErrInactivePlayer),
		errors.Is(err, matchmaking.ErrSlotOccupied),
		errors.Is(err, matchmaking.ErrCourtFull):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondJSON writes v as a JSON response body.
func respondJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Failed to write response", "error", err)
	}
}

// roundParam parses the required positive 'round' query parameter.
func roundParam(r *http.Request) (int, error) {
	roundStr := r.URL.Query().Get("round")
	round, err := strconv.Atoi(roundStr)
	if err != nil || round < 1 {
		return 0, fmt.Errorf("invalid 'round' parameter: %q", roundStr)
	}
	return round, nil
}

func (s *Server) ListPlayersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := club.PlayerFilter{
			ActiveOnly:    r.URL.Query().Get("active") == "true",
			TrainingGroup: r.URL.Query().Get("group"),
			Category:      club.Category(r.URL.Query().Get("category")),
		}

		players, err := s.Club.ListPlayers(r.Context(), filter)
		if err != nil {
			http.Error(w, "Failed to get players", statusFor(err))
			log.Error("Failed to get players from store", "error", err)
			return
		}
		respondJSON(w, players)
	}
}

func (s *Server) CreatePlayerHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var player club.PlayerInfo
		if err := json.NewDecoder(r.Body).Decode(&player); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		if player.Name == "" {
			http.Error(w, "Player name is required.", http.StatusBadRequest)
			return
		}

		created, err := s.Club.CreatePlayer(r.Context(), player)
		if err != nil {
			http.Error(w, "Failed to create player", statusFor(err))
			log.Error("Failed to create player", "error", err)
			return
		}
		log.Info("Created player", "playerID", created.ID, "name", created.Name)
		respondJSON(w, created)
	}
}

func (s *Server) UpdatePlayerHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID := r.URL.Query().Get("playerID")
		if playerID == "" {
			http.Error(w, "Player ID is required.", http.StatusBadRequest)
			return
		}

		var patch club.PlayerPatch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}

		updated, err := s.Club.UpdatePlayer(r.Context(), playerID, patch)
		if err != nil {
			http.Error(w, "Failed to update player", statusFor(err))
			log.Error("Failed to update player", "playerID", playerID, "error", err)
			return
		}
		respondJSON(w, updated)
	}
}

func (s *Server) ListCourtsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courts, err := s.Club.ListCourts(r.Context())
		if err != nil {
			http.Error(w, "Failed to get courts", statusFor(err))
			log.Error("Failed to get courts from store", "error", err)
			return
		}
		respondJSON(w, courts)
	}
}

func (s *Server) CreateCourtHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		idxStr := r.URL.Query().Get("idx")
		idx, err := strconv.Atoi(idxStr)
		if err != nil || idx < 1 {
			http.Error(w, fmt.Sprintf("invalid 'idx' parameter: %q", idxStr), http.StatusBadRequest)
			return
		}

		court, err := s.Club.CreateCourt(r.Context(), idx)
		if err != nil {
			http.Error(w, "Failed to create court", statusFor(err))
			log.Error("Failed to create court", "idx", idx, "error", err)
			return
		}
		respondJSON(w, court)
	}
}

func (s *Server) StartSessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.Sessions.StartOrGet(r.Context())
		if err != nil {
			http.Error(w, "Failed to start session", statusFor(err))
			log.Error("Failed to start session", "error", err)
			return
		}
		log.Info("Training session active", "sessionID", sess.ID)
		respondJSON(w, sess)
	}
}

func (s *Server) ActiveSessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.Sessions.GetActive(r.Context())
		if err != nil {
			http.Error(w, "No active session", statusFor(err))
			return
		}
		respondJSON(w, sess)
	}
}

func (s *Server) EndSessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		isDryRun := isDryRunFromContext(r)

		snap, err := s.Sessions.End(r.Context())
		if err != nil {
			if errors.Is(err, session.ErrSnapshotFailed) {
				s.Metrics.IncSnapshotFailures()
			}
			http.Error(w, "Failed to end session", statusFor(err))
			log.Error("Failed to end session", "error", err)
			return
		}
		s.Metrics.IncSessionsEnded()
		log.Info("Training session ended", "sessionID", snap.SessionID, "season", snap.Season)

		if err := s.pubsub.SendMessage(pubsub.EventSessionEnded, snap); err != nil {
			log.Error("Failed to publish session-ended event", "error", err)
		}
		if err := s.Notifier.SendSessionSummary(&snap, isDryRun); err != nil {
			log.Error("Failed to send session summary", "error", err)
		}

		respondJSON(w, snap)
	}
}

func (s *Server) ListCheckInsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.Sessions.GetActive(r.Context())
		if err != nil {
			http.Error(w, "No active session", statusFor(err))
			return
		}

		checkIns, err := s.Ledger.ListActive(r.Context(), sess.ID)
		if err != nil {
			http.Error(w, "Failed to get check-ins", statusFor(err))
			log.Error("Failed to get check-ins", "sessionID", sess.ID, "error", err)
			return
		}
		respondJSON(w, checkIns)
	}
}

func (s *Server) CheckInHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID := r.URL.Query().Get("playerID")
		if playerID == "" {
			http.Error(w, "Player ID is required.", http.StatusBadRequest)
			return
		}

		var opts checkin.AdmitOptions
		if r.Body != nil && r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
				http.Error(w, "Invalid JSON", http.StatusBadRequest)
				return
			}
		}
		if opts.MaxRounds != nil && *opts.MaxRounds < 1 {
			http.Error(w, "max_rounds must be positive", http.StatusBadRequest)
			return
		}

		sess, err := s.Sessions.GetActive(r.Context())
		if err != nil {
			http.Error(w, "No active session", statusFor(err))
			return
		}

		ci, err := s.Ledger.Admit(r.Context(), sess.ID, playerID, opts)
		if err != nil {
			http.Error(w, "Failed to check in player", statusFor(err))
			log.Error("Failed to check in player", "playerID", playerID, "error", err)
			return
		}
		s.Metrics.IncCheckIns()
		log.Info("Player checked in", "playerID", playerID, "sessionID", sess.ID)
		respondJSON(w, ci)
	}
}

func (s *Server) UpdateCheckInHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID := r.URL.Query().Get("playerID")
		if playerID == "" {
			http.Error(w, "Player ID is required.", http.StatusBadRequest)
			return
		}

		var patch checkin.Patch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}

		sess, err := s.Sessions.GetActive(r.Context())
		if err != nil {
			http.Error(w, "No active session", statusFor(err))
			return
		}

		ci, err := s.Ledger.Update(r.Context(), sess.ID, playerID, patch)
		if err != nil {
			http.Error(w, "Failed to update check-in", statusFor(err))
			log.Error("Failed to update check-in", "playerID", playerID, "error", err)
			return
		}
		respondJSON(w, ci)
	}
}

func (s *Server) RemoveCheckInHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID := r.URL.Query().Get("playerID")
		if playerID == "" {
			http.Error(w, "Player ID is required.", http.StatusBadRequest)
			return
		}

		sess, err := s.Sessions.GetActive(r.Context())
		if err != nil {
			http.Error(w, "No active session", statusFor(err))
			return
		}

		if err := s.Ledger.Remove(r.Context(), sess.ID, playerID); err != nil {
			http.Error(w, "Failed to remove check-in", statusFor(err))
			log.Error("Failed to remove check-in", "playerID", playerID, "error", err)
			return
		}
		log.Info("Player checked out", "playerID", playerID, "sessionID", sess.ID)
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "Check-in removed.")
	}
}

func (s *Server) ListMatchesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.Sessions.GetActive(r.Context())
		if err != nil {
			http.Error(w, "No active session", statusFor(err))
			return
		}

		round := 0
		if roundStr := r.URL.Query().Get("round"); roundStr != "" {
			round, err = strconv.Atoi(roundStr)
			if err != nil || round < 1 {
				http.Error(w, fmt.Sprintf("invalid 'round' parameter: %q", roundStr), http.StatusBadRequest)
				return
			}
		}

		matches, err := s.Matchmaking.ListMatches(r.Context(), sess.ID, round)
		if err != nil {
			http.Error(w, "Failed to get matches", statusFor(err))
			log.Error("Failed to get matches from store", "error", err)
			return
		}
		respondJSON(w, matches)
	}
}

func (s *Server) ArrangeRoundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		isDryRun := isDryRunFromContext(r)

		round, err := roundParam(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		sess, err := s.Sessions.GetActive(r.Context())
		if err != nil {
			http.Error(w, "No active session", statusFor(err))
			return
		}

		log.Info("Arranging round", "sessionID", sess.ID, "round", round)
		s.Metrics.IncArrangeRuns()
		start := time.Now()

		result, err := s.Matchmaking.AutoArrange(r.Context(), sess.ID, round)
		if err != nil {
			http.Error(w, "Failed to arrange round", statusFor(err))
			log.Error("Failed to arrange round", "round", round, "error", err)
			return
		}
		s.Metrics.ObserveArrangeDuration(time.Since(start).Seconds())
		s.Metrics.IncMatchesPlanned(len(result.Matches))
		s.Metrics.IncPlayersBenched(len(result.Benched))
		log.Info("Round arranged", "round", round, "matches", len(result.Matches), "benched", len(result.Benched))

		if err := s.pubsub.SendMessage(pubsub.EventRoundArranged, result); err != nil {
			log.Error("Failed to publish round-arranged event", "error", err)
		}

		names, err := s.playerNames(r, result)
		if err != nil {
			log.Error("Failed to resolve player names for line-up", "error", err)
		} else if err := s.Notifier.SendRoundLineup(&result, names, isDryRun); err != nil {
			log.Error("Failed to send line-up notification", "error", err)
		}

		respondJSON(w, result)
	}
}

func (s *Server) ResetRoundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		round, err := roundParam(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		sess, err := s.Sessions.GetActive(r.Context())
		if err != nil {
			http.Error(w, "No active session", statusFor(err))
			return
		}

		if err := s.Matchmaking.ResetRound(r.Context(), sess.ID, round); err != nil {
			http.Error(w, "Failed to reset round", statusFor(err))
			log.Error("Failed to reset round", "round", round, "error", err)
			return
		}
		log.Info("Round reset", "sessionID", sess.ID, "round", round)
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "Round reset.")
	}
}

func (s *Server) PlacePlayerHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		round, err := roundParam(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		playerID := r.URL.Query().Get("playerID")
		if playerID == "" {
			http.Error(w, "Player ID is required.", http.StatusBadRequest)
			return
		}
		courtStr := r.URL.Query().Get("court")
		courtIdx, err := strconv.Atoi(courtStr)
		if err != nil {
			http.Error(w, fmt.Sprintf("invalid 'court' parameter: %q", courtStr), http.StatusBadRequest)
			return
		}
		slotStr := r.URL.Query().Get("slot")
		slot, err := strconv.Atoi(slotStr)
		if err != nil {
			http.Error(w, fmt.Sprintf("invalid 'slot' parameter: %q", slotStr), http.StatusBadRequest)
			return
		}

		sess, err := s.Sessions.GetActive(r.Context())
		if err != nil {
			http.Error(w, "No active session", statusFor(err))
			return
		}

		if err := s.Matchmaking.Place(r.Context(), sess.ID, round, playerID, courtIdx, slot); err != nil {
			http.Error(w, "Failed to place player", statusFor(err))
			log.Error("Failed to place player", "playerID", playerID, "court", courtIdx, "slot", slot, "error", err)
			return
		}
		log.Info("Player placed", "playerID", playerID, "round", round, "court", courtIdx, "slot", slot)
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "Player placed.")
	}
}

func (s *Server) BenchPlayerHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		round, err := roundParam(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		playerID := r.URL.Query().Get("playerID")
		if playerID == "" {
			http.Error(w, "Player ID is required.", http.StatusBadRequest)
			return
		}

		sess, err := s.Sessions.GetActive(r.Context())
		if err != nil {
			http.Error(w, "No active session", statusFor(err))
			return
		}

		if err := s.Matchmaking.BenchPlayer(r.Context(), sess.ID, round, playerID); err != nil {
			http.Error(w, "Failed to bench player", statusFor(err))
			log.Error("Failed to bench player", "playerID", playerID, "round", round, "error", err)
			return
		}
		log.Info("Player benched", "playerID", playerID, "round", round)
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "Player benched.")
	}
}

func (s *Server) SwapPlayersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		round, err := roundParam(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		playerA := r.URL.Query().Get("playerA")
		playerB := r.URL.Query().Get("playerB")
		if playerA == "" || playerB == "" {
			http.Error(w, "Both player IDs are required.", http.StatusBadRequest)
			return
		}

		sess, err := s.Sessions.GetActive(r.Context())
		if err != nil {
			http.Error(w, "No active session", statusFor(err))
			return
		}

		if err := s.Matchmaking.Swap(r.Context(), sess.ID, round, playerA, playerB); err != nil {
			http.Error(w, "Failed to swap players", statusFor(err))
			log.Error("Failed to swap players", "playerA", playerA, "playerB", playerB, "round", round, "error", err)
			return
		}
		log.Info("Players swapped", "playerA", playerA, "playerB", playerB, "round", round)
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "Players swapped.")
	}
}

func (s *Server) MatchResultHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		matchID := r.URL.Query().Get("matchID")
		if matchID == "" {
			http.Error(w, "Match ID is required.", http.StatusBadRequest)
			return
		}

		if r.Method == http.MethodGet {
			score, err := s.Matchmaking.GetResult(r.Context(), matchID)
			if err != nil {
				http.Error(w, "Failed to get result", statusFor(err))
				return
			}
			respondJSON(w, score)
			return
		}

		var score matchmaking.Score
		if err := json.NewDecoder(r.Body).Decode(&score); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}

		if err := s.Matchmaking.RecordResult(r.Context(), matchID, score); err != nil {
			http.Error(w, err.Error(), statusFor(err))
			log.Error("Failed to record result", "matchID", matchID, "error", err)
			return
		}
		log.Info("Result recorded", "matchID", matchID, "winner", score.Winner)
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "Result recorded.")
	}
}

func (s *Server) ListSnapshotsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		season := r.URL.Query().Get("season")

		snaps, err := s.Sessions.ListSnapshots(r.Context(), season)
		if err != nil {
			http.Error(w, "Failed to get snapshots", statusFor(err))
			log.Error("Failed to get snapshots", "error", err)
			return
		}
		respondJSON(w, snaps)
	}
}

func (s *Server) GetSnapshotHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.URL.Query().Get("sessionID")
		if sessionID == "" {
			http.Error(w, "Session ID is required.", http.StatusBadRequest)
			return
		}

		snap, err := s.Sessions.GetSnapshot(r.Context(), sessionID)
		if err != nil {
			http.Error(w, "Failed to get snapshot", statusFor(err))
			return
		}
		respondJSON(w, snap)
	}
}

// respondWithSlackMsg is a helper to format and write a Slack message as an HTTP response.
func respondWithSlackMsg(w http.ResponseWriter, msg slack.Message) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(msg); err != nil {
		log.Error("Failed to encode slack message to JSON", "error", err)
	}
}

// LineupCommandHandler returns a handler for the /lineup Slack command.
// The command text may name a round; it defaults to the latest one.
func (s *Server) LineupCommandHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Error parsing form", http.StatusBadRequest)
			return
		}

		sess, err := s.Sessions.GetActive(r.Context())
		if err != nil {
			http.Error(w, "No active session", statusFor(err))
			return
		}

		matches, err := s.Matchmaking.ListMatches(r.Context(), sess.ID, 0)
		if err != nil {
			http.Error(w, "Failed to get matches", statusFor(err))
			log.Error("Failed to get matches from store", "error", err)
			return
		}
		if len(matches) == 0 {
			http.Error(w, "No rounds arranged yet.", http.StatusNotFound)
			return
		}

		round := 0
		for _, m := range matches {
			if m.Round > round {
				round = m.Round
			}
		}
		if text := r.FormValue("text"); text != "" {
			parsed, err := strconv.Atoi(text)
			if err != nil || parsed < 1 {
				http.Error(w, fmt.Sprintf("invalid round: %q", text), http.StatusBadRequest)
				return
			}
			round = parsed
		}

		result := matchmaking.ArrangeResult{Round: round}
		assigned := make(map[string]bool)
		for _, m := range matches {
			if m.Round != round {
				continue
			}
			result.Matches = append(result.Matches, m)
			for _, slot := range m.Slots {
				assigned[slot.PlayerID] = true
			}
		}

		checkIns, err := s.Ledger.ListActive(r.Context(), sess.ID)
		if err != nil {
			http.Error(w, "Failed to get check-ins", statusFor(err))
			log.Error("Failed to get check-ins", "sessionID", sess.ID, "error", err)
			return
		}
		for _, ci := range checkIns {
			if !assigned[ci.PlayerID] {
				result.Benched = append(result.Benched, ci.PlayerID)
			}
		}

		names, err := s.playerNames(r, result)
		if err != nil {
			http.Error(w, "Failed to resolve player names", statusFor(err))
			log.Error("Failed to resolve player names", "error", err)
			return
		}

		msg, err := s.Notifier.FormatLineupResponse(&result, names)
		if err != nil {
			http.Error(w, "Failed to format line-up", http.StatusInternalServerError)
			log.Error("Failed to format line-up", "error", err)
			return
		}

		slackMsg, ok := msg.(slack.Message)
		if !ok {
			http.Error(w, "Invalid message format for Slack", http.StatusInternalServerError)
			log.Error("Failed to cast message to slack.Message")
			return
		}
		respondWithSlackMsg(w, slackMsg)
	}
}

// playerNames resolves the display names of every player appearing in result.
func (s *Server) playerNames(r *http.Request, result matchmaking.ArrangeResult) (map[string]string, error) {
	seen := make(map[string]bool)
	var ids []string
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, m := range result.Matches {
		for _, slot := range m.Slots {
			add(slot.PlayerID)
		}
	}
	for _, id := range result.Benched {
		add(id)
	}

	players, err := s.Club.GetPlayers(r.Context(), ids)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(players))
	for _, p := range players {
		names[p.ID] = p.DisplayName()
	}
	return names, nil
}
