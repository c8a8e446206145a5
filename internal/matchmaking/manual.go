package matchmaking

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/mauv0809/crispy-shuttle/internal/checkin"
	"github.com/mauv0809/crispy-shuttle/internal/database"
)

// Manual adjustments work on one round only. A player may appear in other
// rounds on other courts; those are never touched. Each operation runs in
// a single transaction so invariants hold at every commit point, even
// when a move passes through a transient 3-player state.

func (s *store) Place(ctx context.Context, sessionID string, round int, playerID string, courtIdx, slot int) error {
	ctx, cancel := database.CallContext(ctx)
	defer cancel()
	s.mu.Lock()
	defer s.mu.Unlock()

	if slot < 0 || slot > 3 {
		return fmt.Errorf("%w: %d", ErrInvalidSlot, slot)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var courtID string
	err = tx.QueryRowContext(ctx,
		"SELECT id FROM courts WHERE tenant_id = ? AND idx = ?",
		s.tenant, courtIdx,
	).Scan(&courtID)
	if err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("court %d: %w", courtIdx, ErrCourtNotFound)
		}
		return fmt.Errorf("failed to look up court: %w", err)
	}

	var checkedIn bool
	err = tx.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM check_ins WHERE session_id = ? AND player_id = ? AND tenant_id = ?)",
		sessionID, playerID, s.tenant,
	).Scan(&checkedIn)
	if err != nil {
		return fmt.Errorf("failed to check ledger: %w", err)
	}
	if !checkedIn {
		return fmt.Errorf("player %s: %w", playerID, checkin.ErrNotCheckedIn)
	}

	var matchID string
	err = tx.QueryRowContext(ctx,
		"SELECT id FROM matches WHERE session_id = ? AND court_id = ? AND round = ? AND tenant_id = ?",
		sessionID, courtID, round, s.tenant,
	).Scan(&matchID)
	createMatch := err == sql.ErrNoRows
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("failed to look up match: %w", err)
	}

	if !createMatch {
		occupied, err := matchSlots(ctx, tx, matchID)
		if err != nil {
			return err
		}
		if holder, ok := occupied[slot]; ok {
			if holder == playerID {
				// Identical to current state; idempotent no-op.
				return tx.Commit()
			}
			return fmt.Errorf("court %d slot %d: %w", courtIdx, slot, ErrSlotOccupied)
		}
		others := 0
		for _, holder := range occupied {
			if holder != playerID {
				others++
			}
		}
		if others >= 4 {
			return fmt.Errorf("court %d: %w", courtIdx, ErrCourtFull)
		}
	}

	// Pull the player out of wherever they stand in this round, cleaning
	// up any match that ends up empty (except the target).
	if err := removeFromRound(ctx, tx, s.tenant, sessionID, round, playerID, matchID); err != nil {
		return err
	}

	if createMatch {
		matchID = uuid.NewString()
		_, err = tx.ExecContext(ctx, `
			INSERT INTO matches (id, tenant_id, session_id, court_id, round, started_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			matchID, s.tenant, sessionID, courtID, round, time.Now().Unix(),
		)
		if err != nil {
			return fmt.Errorf("failed to create match: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO match_players (id, tenant_id, match_id, player_id, slot)
		VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(), s.tenant, matchID, playerID, slot,
	)
	if err != nil {
		return fmt.Errorf("failed to place player: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit placement: %w", err)
	}
	log.Info("Placed player", "sessionID", sessionID, "round", round, "playerID", playerID, "court", courtIdx, "slot", slot)
	return nil
}

func (s *store) BenchPlayer(ctx context.Context, sessionID string, round int, playerID string) error {
	ctx, cancel := database.CallContext(ctx)
	defer cancel()
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := removeFromRound(ctx, tx, s.tenant, sessionID, round, playerID, ""); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit bench: %w", err)
	}
	log.Info("Benched player", "sessionID", sessionID, "round", round, "playerID", playerID)
	return nil
}

// Swap exchanges the positions of two players within the round. If only
// one of them is placed, the other takes that seat and the first goes to
// the bench. Both rows are rewritten inside one transaction so the
// (match, player) and (match, slot) uniqueness never breaks mid-way.
func (s *store) Swap(ctx context.Context, sessionID string, round int, playerA, playerB string) error {
	ctx, cancel := database.CallContext(ctx)
	defer cancel()
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, playerID := range []string{playerA, playerB} {
		var checkedIn bool
		err = tx.QueryRowContext(ctx,
			"SELECT EXISTS(SELECT 1 FROM check_ins WHERE session_id = ? AND player_id = ? AND tenant_id = ?)",
			sessionID, playerID, s.tenant,
		).Scan(&checkedIn)
		if err != nil {
			return fmt.Errorf("failed to check ledger: %w", err)
		}
		if !checkedIn {
			return fmt.Errorf("player %s: %w", playerID, checkin.ErrNotCheckedIn)
		}
	}

	posA, okA, err := roundPosition(ctx, tx, s.tenant, sessionID, round, playerA)
	if err != nil {
		return err
	}
	posB, okB, err := roundPosition(ctx, tx, s.tenant, sessionID, round, playerB)
	if err != nil {
		return err
	}
	if !okA && !okB {
		// Neither player is on a court; nothing to exchange.
		return tx.Commit()
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM match_players WHERE tenant_id = ? AND player_id IN (?, ?) AND match_id IN (
			SELECT id FROM matches WHERE session_id = ? AND round = ?)`,
		s.tenant, playerA, playerB, sessionID, round,
	)
	if err != nil {
		return fmt.Errorf("failed to clear swap positions: %w", err)
	}

	if okA {
		if err := insertSlot(ctx, tx, s.tenant, posA.matchID, playerB, posA.slot); err != nil {
			return err
		}
	}
	if okB {
		if err := insertSlot(ctx, tx, s.tenant, posB.matchID, playerA, posB.slot); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit swap: %w", err)
	}
	log.Info("Swapped players", "sessionID", sessionID, "round", round, "playerA", playerA, "playerB", playerB)
	return nil
}

type position struct {
	matchID string
	slot    int
}

func roundPosition(ctx context.Context, tx *sql.Tx, tenant, sessionID string, round int, playerID string) (position, bool, error) {
	var pos position
	err := tx.QueryRowContext(ctx, `
		SELECT mp.match_id, mp.slot
		FROM match_players mp JOIN matches m ON m.id = mp.match_id
		WHERE m.session_id = ? AND m.round = ? AND mp.player_id = ? AND mp.tenant_id = ?`,
		sessionID, round, playerID, tenant,
	).Scan(&pos.matchID, &pos.slot)
	if err == sql.ErrNoRows {
		return position{}, false, nil
	}
	if err != nil {
		return position{}, false, fmt.Errorf("failed to find player position: %w", err)
	}
	return pos, true, nil
}

func insertSlot(ctx context.Context, tx *sql.Tx, tenant, matchID, playerID string, slot int) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO match_players (id, tenant_id, match_id, player_id, slot)
		VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(), tenant, matchID, playerID, slot,
	)
	if err != nil {
		return fmt.Errorf("failed to insert slot assignment: %w", err)
	}
	return nil
}

// removeFromRound deletes the player's slot rows in the round and any
// match left empty by it. keepMatchID protects the move target from the
// empty-match cleanup.
func removeFromRound(ctx context.Context, tx *sql.Tx, tenant, sessionID string, round int, playerID, keepMatchID string) error {
	rows, err := tx.QueryContext(ctx, `
		SELECT DISTINCT mp.match_id
		FROM match_players mp JOIN matches m ON m.id = mp.match_id
		WHERE m.session_id = ? AND m.round = ? AND mp.player_id = ? AND mp.tenant_id = ?`,
		sessionID, round, playerID, tenant,
	)
	if err != nil {
		return fmt.Errorf("failed to find player matches: %w", err)
	}
	var matchIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		matchIDs = append(matchIDs, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, matchID := range matchIDs {
		_, err := tx.ExecContext(ctx,
			"DELETE FROM match_players WHERE match_id = ? AND player_id = ? AND tenant_id = ?",
			matchID, playerID, tenant,
		)
		if err != nil {
			return fmt.Errorf("failed to remove slot assignment: %w", err)
		}
		if matchID == keepMatchID {
			continue
		}
		var remaining int
		if err := tx.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM match_players WHERE match_id = ?", matchID,
		).Scan(&remaining); err != nil {
			return err
		}
		if remaining == 0 {
			if _, err := tx.ExecContext(ctx, "DELETE FROM matches WHERE id = ?", matchID); err != nil {
				return fmt.Errorf("failed to delete empty match: %w", err)
			}
		}
	}
	return nil
}

func matchSlots(ctx context.Context, tx *sql.Tx, matchID string) (map[int]string, error) {
	rows, err := tx.QueryContext(ctx,
		"SELECT slot, player_id FROM match_players WHERE match_id = ?", matchID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query match slots: %w", err)
	}
	defer rows.Close()

	slots := map[int]string{}
	for rows.Next() {
		var slot int
		var playerID string
		if err := rows.Scan(&slot, &playerID); err != nil {
			return nil, err
		}
		slots[slot] = playerID
	}
	return slots, rows.Err()
}
