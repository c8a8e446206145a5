package checkin

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/mauv0809/crispy-shuttle/internal/club"
	"github.com/mauv0809/crispy-shuttle/internal/database"
)

// NewLedger creates a check-in ledger backed by the given database.
func NewLedger(db *sql.DB, clubStore club.ClubStore, tenantID string) Ledger {
	return &store{
		db:     db,
		club:   clubStore,
		tenant: tenantID,
	}
}

func (s *store) Admit(ctx context.Context, sessionID, playerID string, opts AdmitOptions) (CheckIn, error) {
	ctx, cancel := database.CallContext(ctx)
	defer cancel()
	s.mu.Lock()
	defer s.mu.Unlock()

	player, err := s.club.GetPlayer(ctx, playerID)
	if err != nil {
		return CheckIn{}, err
	}
	if !player.Active {
		return CheckIn{}, fmt.Errorf("player %s: %w", playerID, ErrInactivePlayer)
	}

	row := CheckIn{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		PlayerID:  playerID,
		MaxRounds: opts.MaxRounds,
		Note:      opts.Note,
		CreatedAt: time.Now().Unix(),
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO check_ins (id, tenant_id, session_id, player_id, max_rounds, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		row.ID, s.tenant, row.SessionID, row.PlayerID, row.MaxRounds, row.Note, row.CreatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			// A concurrent admit won the race. The caller's intent is
			// satisfied, so surface the winning row instead of an error.
			log.Debug("Duplicate admit treated as success", "sessionID", sessionID, "playerID", playerID)
			return s.getLocked(ctx, sessionID, playerID)
		}
		return CheckIn{}, fmt.Errorf("failed to admit player: %w", err)
	}
	log.Info("Checked player in", "sessionID", sessionID, "playerID", playerID)
	return row, nil
}

func (s *store) Update(ctx context.Context, sessionID, playerID string, patch Patch) (CheckIn, error) {
	ctx, cancel := database.CallContext(ctx)
	defer cancel()
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.getLocked(ctx, sessionID, playerID)
	if err != nil {
		return CheckIn{}, err
	}

	if patch.MaxRounds != nil {
		current.MaxRounds = patch.MaxRounds
	}
	if patch.Note != nil {
		current.Note = patch.Note
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE check_ins SET max_rounds = ?, notes = ? WHERE id = ? AND tenant_id = ?`,
		current.MaxRounds, current.Note, current.ID, s.tenant,
	)
	if err != nil {
		return CheckIn{}, fmt.Errorf("failed to update check-in: %w", err)
	}
	log.Info("Updated check-in", "sessionID", sessionID, "playerID", playerID)
	return current, nil
}

func (s *store) Remove(ctx context.Context, sessionID, playerID string) error {
	ctx, cancel := database.CallContext(ctx)
	defer cancel()
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Release the player from matches that have not finished yet.
	// Completed rounds keep their slot assignments for the statistics.
	_, err = tx.ExecContext(ctx, `
		DELETE FROM match_players
		WHERE player_id = ? AND tenant_id = ? AND match_id IN (
			SELECT m.id FROM matches m
			WHERE m.session_id = ? AND m.ended_at IS NULL
			  AND NOT EXISTS (SELECT 1 FROM match_results r WHERE r.match_id = m.id)
		)`,
		playerID, s.tenant, sessionID,
	)
	if err != nil {
		return fmt.Errorf("failed to release player from open matches: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`DELETE FROM check_ins WHERE session_id = ? AND player_id = ? AND tenant_id = ?`,
		sessionID, playerID, s.tenant,
	)
	if err != nil {
		return fmt.Errorf("failed to remove check-in: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit check-in removal: %w", err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		log.Debug("No check-in found to remove", "sessionID", sessionID, "playerID", playerID)
	} else {
		log.Info("Removed check-in", "sessionID", sessionID, "playerID", playerID)
	}
	return nil
}

func (s *store) ListActive(ctx context.Context, sessionID string) ([]CheckIn, error) {
	ctx, cancel := database.CallContext(ctx)
	defer cancel()
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, player_id, max_rounds, notes, created_at
		FROM check_ins
		WHERE session_id = ? AND tenant_id = ?
		ORDER BY created_at, id`,
		sessionID, s.tenant,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query check-ins: %w", err)
	}
	defer rows.Close()

	checkIns := []CheckIn{}
	for rows.Next() {
		ci, err := scanCheckIn(rows)
		if err != nil {
			log.Error("Failed to scan check-in row", "error", err)
			continue
		}
		checkIns = append(checkIns, ci)
	}
	return checkIns, rows.Err()
}

func (s *store) getLocked(ctx context.Context, sessionID, playerID string) (CheckIn, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, session_id, player_id, max_rounds, notes, created_at
		FROM check_ins
		WHERE session_id = ? AND player_id = ? AND tenant_id = ?`,
		sessionID, playerID, s.tenant,
	)
	ci, err := scanCheckIn(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return CheckIn{}, fmt.Errorf("player %s in session %s: %w", playerID, sessionID, ErrNotCheckedIn)
		}
		return CheckIn{}, fmt.Errorf("failed to get check-in: %w", err)
	}
	return ci, nil
}

func scanCheckIn(scanner interface{ Scan(...any) error }) (CheckIn, error) {
	var ci CheckIn
	var maxRounds sql.NullInt64
	var note sql.NullString
	err := scanner.Scan(&ci.ID, &ci.SessionID, &ci.PlayerID, &maxRounds, &note, &ci.CreatedAt)
	if err != nil {
		return CheckIn{}, err
	}
	if maxRounds.Valid {
		v := int(maxRounds.Int64)
		ci.MaxRounds = &v
	}
	if note.Valid {
		ci.Note = &note.String
	}
	return ci, nil
}
