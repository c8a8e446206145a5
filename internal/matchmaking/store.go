package matchmaking

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/mauv0809/crispy-shuttle/internal/checkin"
	"github.com/mauv0809/crispy-shuttle/internal/club"
	"github.com/mauv0809/crispy-shuttle/internal/database"
	"github.com/mauv0809/crispy-shuttle/internal/planner"
)

// NewStore creates a matchmaking service backed by the given database.
func NewStore(db *sql.DB, clubStore club.ClubStore, ledger checkin.Ledger, tenantID string) MatchmakingService {
	return &store{
		db:     db,
		club:   clubStore,
		ledger: ledger,
		tenant: tenantID,
	}
}

func (s *store) ListMatches(ctx context.Context, sessionID string, round int) ([]Match, error) {
	ctx, cancel := database.CallContext(ctx)
	defer cancel()
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listMatchesLocked(ctx, s.db, sessionID, round)
}

// querier lets match listing run both on the pool and inside transactions.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *store) listMatchesLocked(ctx context.Context, q querier, sessionID string, round int) ([]Match, error) {
	query := `
		SELECT m.id, m.session_id, m.court_id, c.idx, m.round, m.started_at, m.ended_at
		FROM matches m JOIN courts c ON c.id = m.court_id
		WHERE m.session_id = ? AND m.tenant_id = ?`
	args := []any{sessionID, s.tenant}
	if round > 0 {
		query += ` AND m.round = ?`
		args = append(args, round)
	}
	query += ` ORDER BY m.round, c.idx`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	matches := []Match{}
	index := map[string]int{}
	for rows.Next() {
		var m Match
		var endedAt sql.NullInt64
		if err := rows.Scan(&m.ID, &m.SessionID, &m.CourtID, &m.CourtIdx, &m.Round, &m.StartedAt, &endedAt); err != nil {
			log.Error("Failed to scan match row", "error", err)
			continue
		}
		if endedAt.Valid {
			m.EndedAt = &endedAt.Int64
		}
		m.Slots = []SlotAssignment{}
		index[m.ID] = len(matches)
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return matches, nil
	}

	slotQuery := `
		SELECT mp.id, mp.match_id, mp.player_id, mp.slot
		FROM match_players mp JOIN matches m ON m.id = mp.match_id
		WHERE m.session_id = ? AND mp.tenant_id = ?`
	slotArgs := []any{sessionID, s.tenant}
	if round > 0 {
		slotQuery += ` AND m.round = ?`
		slotArgs = append(slotArgs, round)
	}
	slotQuery += ` ORDER BY mp.match_id, mp.slot`

	slotRows, err := q.QueryContext(ctx, slotQuery, slotArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to query slot assignments: %w", err)
	}
	defer slotRows.Close()
	for slotRows.Next() {
		var sl SlotAssignment
		if err := slotRows.Scan(&sl.ID, &sl.MatchID, &sl.PlayerID, &sl.Slot); err != nil {
			log.Error("Failed to scan slot row", "error", err)
			continue
		}
		if i, ok := index[sl.MatchID]; ok {
			matches[i].Slots = append(matches[i].Slots, sl)
		}
	}
	return matches, slotRows.Err()
}

// AutoArrange replans the round from scratch: the ledger is filtered by
// MaxRounds caps and inactive players, the pairing history of earlier
// rounds feeds the repeat penalties, and the whole replacement happens in
// one transaction.
func (s *store) AutoArrange(ctx context.Context, sessionID string, round int) (ArrangeResult, error) {
	ctx, cancel := database.CallContext(ctx)
	defer cancel()
	s.mu.Lock()
	defer s.mu.Unlock()

	checkIns, err := s.ledger.ListActive(ctx, sessionID)
	if err != nil {
		return ArrangeResult{}, err
	}

	played, err := s.matchesPlayed(ctx, sessionID, round)
	if err != nil {
		return ArrangeResult{}, err
	}

	playerIDs := make([]string, 0, len(checkIns))
	for _, ci := range checkIns {
		playerIDs = append(playerIDs, ci.PlayerID)
	}
	players, err := s.club.GetPlayers(ctx, playerIDs)
	if err != nil {
		return ArrangeResult{}, err
	}
	playerByID := make(map[string]club.PlayerInfo, len(players))
	for _, p := range players {
		playerByID[p.ID] = p
	}

	entrants := []planner.Entrant{}
	for _, ci := range checkIns {
		p, ok := playerByID[ci.PlayerID]
		if !ok || !p.Active {
			// Inactive players are invisible to the planner.
			continue
		}
		if ci.MaxRounds != nil && played[ci.PlayerID] >= *ci.MaxRounds {
			log.Debug("Player excluded by max-rounds cap", "playerID", ci.PlayerID, "maxRounds", *ci.MaxRounds)
			continue
		}
		level, hasLevel := p.EffectiveLevel(club.MatchTypeDoubles)
		singlesLevel, hasSingles := p.EffectiveLevel(club.MatchTypeSingles)
		entrants = append(entrants, planner.Entrant{
			ID:              p.ID,
			Category:        p.Category,
			Level:           level,
			HasLevel:        hasLevel,
			SinglesLevel:    singlesLevel,
			HasSinglesLevel: hasSingles,
			Played:          played[p.ID],
		})
	}

	courts, err := s.club.ListCourts(ctx)
	if err != nil {
		return ArrangeResult{}, err
	}
	courtIdxs := make([]int, 0, len(courts))
	courtByIdx := make(map[int]club.Court, len(courts))
	for _, c := range courts {
		courtIdxs = append(courtIdxs, c.Idx)
		courtByIdx[c.Idx] = c
	}

	hist, err := s.loadHistory(ctx, sessionID, round)
	if err != nil {
		return ArrangeResult{}, err
	}

	plan := planner.BuildRound(entrants, courtIdxs, round, hist)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ArrangeResult{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := deleteRound(ctx, tx, s.tenant, sessionID, round); err != nil {
		return ArrangeResult{}, err
	}

	now := time.Now().Unix()
	result := ArrangeResult{Round: round, Matches: []Match{}, Benched: plan.Benched}
	for _, pm := range plan.Matches {
		court := courtByIdx[pm.CourtIdx]
		match := Match{
			ID:        uuid.NewString(),
			SessionID: sessionID,
			CourtID:   court.ID,
			CourtIdx:  court.Idx,
			Round:     round,
			StartedAt: now,
			Slots:     []SlotAssignment{},
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO matches (id, tenant_id, session_id, court_id, round, started_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			match.ID, s.tenant, sessionID, court.ID, round, now,
		)
		if err != nil {
			return ArrangeResult{}, fmt.Errorf("failed to insert match: %w", err)
		}
		for _, seat := range pm.Seats {
			sl := SlotAssignment{
				ID:       uuid.NewString(),
				MatchID:  match.ID,
				PlayerID: seat.Player,
				Slot:     seat.Slot,
			}
			_, err := tx.ExecContext(ctx, `
				INSERT INTO match_players (id, tenant_id, match_id, player_id, slot)
				VALUES (?, ?, ?, ?, ?)`,
				sl.ID, s.tenant, match.ID, sl.PlayerID, sl.Slot,
			)
			if err != nil {
				return ArrangeResult{}, fmt.Errorf("failed to insert slot assignment: %w", err)
			}
			match.Slots = append(match.Slots, sl)
		}
		result.Matches = append(result.Matches, match)
	}

	if err := tx.Commit(); err != nil {
		return ArrangeResult{}, fmt.Errorf("failed to commit arrangement: %w", err)
	}
	log.Info("Arranged round", "sessionID", sessionID, "round", round,
		"matches", len(result.Matches), "benched", len(result.Benched))
	return result, nil
}

func (s *store) ResetRound(ctx context.Context, sessionID string, round int) error {
	ctx, cancel := database.CallContext(ctx)
	defer cancel()
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()
	if err := deleteRound(ctx, tx, s.tenant, sessionID, round); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit round reset: %w", err)
	}
	log.Info("Reset round", "sessionID", sessionID, "round", round)
	return nil
}

func deleteRound(ctx context.Context, tx *sql.Tx, tenant, sessionID string, round int) error {
	// match_players rows go with their match via ON DELETE CASCADE.
	_, err := tx.ExecContext(ctx,
		`DELETE FROM matches WHERE session_id = ? AND tenant_id = ? AND round = ?`,
		sessionID, tenant, round,
	)
	if err != nil {
		return fmt.Errorf("failed to delete round matches: %w", err)
	}
	return nil
}

// matchesPlayed counts how many matches of other rounds each player is in.
func (s *store) matchesPlayed(ctx context.Context, sessionID string, round int) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT mp.player_id, COUNT(*)
		FROM match_players mp JOIN matches m ON m.id = mp.match_id
		WHERE m.session_id = ? AND m.tenant_id = ? AND m.round != ?
		GROUP BY mp.player_id`,
		sessionID, s.tenant, round,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to count matches played: %w", err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var playerID string
		var n int
		if err := rows.Scan(&playerID, &n); err != nil {
			return nil, err
		}
		counts[playerID] = n
	}
	return counts, rows.Err()
}

// loadHistory replays the slot assignments of rounds before the given one.
// A structurally broken match disables penalties instead of aborting.
func (s *store) loadHistory(ctx context.Context, sessionID string, round int) (*planner.History, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT mp.match_id, mp.slot, mp.player_id
		FROM match_players mp JOIN matches m ON m.id = mp.match_id
		WHERE m.session_id = ? AND m.tenant_id = ? AND m.round < ?
		ORDER BY mp.match_id, mp.slot`,
		sessionID, s.tenant, round,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load round history: %w", err)
	}
	defer rows.Close()

	hist := planner.NewHistory()
	bySlots := map[string]map[int]string{}
	for rows.Next() {
		var matchID, playerID string
		var slot int
		if err := rows.Scan(&matchID, &slot, &playerID); err != nil {
			return nil, err
		}
		if bySlots[matchID] == nil {
			bySlots[matchID] = map[int]string{}
		}
		if _, dup := bySlots[matchID][slot]; dup {
			hist.MarkInconsistent()
		}
		bySlots[matchID][slot] = playerID
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, slots := range bySlots {
		hist.AddMatch(slots)
	}
	return hist, nil
}
