package matchmaking

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/crispy-shuttle/internal/database"
)

// SetScore is the points of one set, team one first.
type SetScore struct {
	Team1 int `json:"team1"`
	Team2 int `json:"team2"`
}

// Score is the structured result document of a badminton match: up to
// three sets and the overall winner.
type Score struct {
	Sets   []SetScore `json:"sets"`
	Winner string     `json:"winner"` // "team1" or "team2"
}

// Validate checks badminton validity: a set is won at 21 or more with a
// two-point margin, capped at 30-29; the match is won with two sets out
// of three, and the declared winner must match the sets.
func (s Score) Validate() error {
	if len(s.Sets) < 2 || len(s.Sets) > 3 {
		return fmt.Errorf("%w: a match has 2 or 3 sets, got %d", ErrInvalidScore, len(s.Sets))
	}
	if s.Winner != "team1" && s.Winner != "team2" {
		return fmt.Errorf("%w: winner must be team1 or team2", ErrInvalidScore)
	}

	wins1, wins2 := 0, 0
	for i, set := range s.Sets {
		if wins1 == 2 || wins2 == 2 {
			return fmt.Errorf("%w: set %d played after the match was decided", ErrInvalidScore, i+1)
		}
		winner, err := setWinner(set)
		if err != nil {
			return fmt.Errorf("%w: set %d: %v", ErrInvalidScore, i+1, err)
		}
		if winner == 1 {
			wins1++
		} else {
			wins2++
		}
	}

	switch {
	case wins1 == 2 && s.Winner == "team1":
		return nil
	case wins2 == 2 && s.Winner == "team2":
		return nil
	}
	return fmt.Errorf("%w: declared winner does not have two set wins", ErrInvalidScore)
}

// setWinner returns 1 or 2, or an error when the set score is not a
// finished badminton set.
func setWinner(set SetScore) (int, error) {
	hi, lo := set.Team1, set.Team2
	winner := 1
	if set.Team2 > set.Team1 {
		hi, lo = set.Team2, set.Team1
		winner = 2
	}

	switch {
	case hi == 30 && lo == 29:
		return winner, nil
	case hi == 21 && hi-lo >= 2:
		return winner, nil
	case hi > 21 && hi < 30 && hi-lo == 2:
		return winner, nil
	}
	return 0, fmt.Errorf("%d-%d is not a finished set", set.Team1, set.Team2)
}

func (s *store) RecordResult(ctx context.Context, matchID string, score Score) error {
	ctx, cancel := database.CallContext(ctx)
	defer cancel()
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := score.Validate(); err != nil {
		return err
	}

	var exists bool
	err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM matches WHERE id = ? AND tenant_id = ?)",
		matchID, s.tenant,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check match: %w", err)
	}
	if !exists {
		return fmt.Errorf("match %s: %w", matchID, ErrMatchNotFound)
	}

	scoreJSON, err := json.Marshal(score)
	if err != nil {
		return fmt.Errorf("failed to marshal score: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO match_results (match_id, tenant_id, sport, score_data, winner_team, updated_at)
		VALUES (?, ?, 'badminton', ?, ?, ?)
		ON CONFLICT(match_id, tenant_id) DO UPDATE SET
			score_data = excluded.score_data,
			winner_team = excluded.winner_team,
			updated_at = excluded.updated_at`,
		matchID, s.tenant, string(scoreJSON), score.Winner, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to record result: %w", err)
	}
	log.Info("Recorded match result", "matchID", matchID, "winner", score.Winner)
	return nil
}

func (s *store) GetResult(ctx context.Context, matchID string) (Score, error) {
	ctx, cancel := database.CallContext(ctx)
	defer cancel()
	s.mu.RLock()
	defer s.mu.RUnlock()

	var scoreJSON string
	err := s.db.QueryRowContext(ctx,
		"SELECT score_data FROM match_results WHERE match_id = ? AND tenant_id = ?",
		matchID, s.tenant,
	).Scan(&scoreJSON)
	if err != nil {
		if err == sql.ErrNoRows {
			return Score{}, fmt.Errorf("match %s: %w", matchID, ErrMatchNotFound)
		}
		return Score{}, fmt.Errorf("failed to get result: %w", err)
	}
	var score Score
	if err := json.Unmarshal([]byte(scoreJSON), &score); err != nil {
		return Score{}, fmt.Errorf("failed to unmarshal score: %w", err)
	}
	return score, nil
}
