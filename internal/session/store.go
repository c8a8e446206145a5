package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/mauv0809/crispy-shuttle/internal/database"
)

// New creates a session orchestrator scoped to a single tenant.
func New(db *sql.DB, tenantID string) Orchestrator {
	return &store{
		db:     db,
		tenant: tenantID,
	}
}

func (s *store) StartOrGet(ctx context.Context) (TrainingSession, error) {
	ctx, cancel := database.CallContext(ctx)
	defer cancel()
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, err := s.getActiveLocked(ctx); err == nil {
		return existing, nil
	} else if err != ErrNoActiveSession {
		return TrainingSession{}, err
	}

	now := time.Now().Unix()
	sess := TrainingSession{
		ID:        uuid.NewString(),
		Date:      now,
		Status:    StatusActive,
		CreatedAt: now,
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO training_sessions (id, tenant_id, date, status, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		sess.ID, s.tenant, sess.Date, string(sess.Status), sess.CreatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			// A concurrent start won the race on the active-session index.
			log.Debug("Concurrent session start detected, returning the winner")
			return s.getActiveLocked(ctx)
		}
		return TrainingSession{}, fmt.Errorf("failed to start session: %w", err)
	}
	log.Info("Started training session", "sessionID", sess.ID)
	return sess, nil
}

func (s *store) GetActive(ctx context.Context) (TrainingSession, error) {
	ctx, cancel := database.CallContext(ctx)
	defer cancel()
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getActiveLocked(ctx)
}

func (s *store) getActiveLocked(ctx context.Context) (TrainingSession, error) {
	var sess TrainingSession
	var status string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, date, status, created_at FROM training_sessions
		WHERE tenant_id = ? AND status = ?`,
		s.tenant, string(StatusActive),
	).Scan(&sess.ID, &sess.Date, &status, &sess.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return TrainingSession{}, ErrNoActiveSession
		}
		return TrainingSession{}, fmt.Errorf("failed to get active session: %w", err)
	}
	sess.Status = Status(status)
	return sess, nil
}

// End performs the ending transition in a single transaction: close open
// matches, freeze the snapshot, flip the status. Any failure rolls the
// whole transition back so the session stays active.
func (s *store) End(ctx context.Context) (Snapshot, error) {
	ctx, cancel := database.CallContext(ctx)
	defer cancel()
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getActiveLocked(ctx)
	if err != nil {
		return Snapshot{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	_, err = tx.ExecContext(ctx,
		`UPDATE matches SET ended_at = ? WHERE session_id = ? AND tenant_id = ? AND ended_at IS NULL`,
		now, sess.ID, s.tenant,
	)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to close open matches: %w", err)
	}

	snap, err := s.buildSnapshot(ctx, tx, sess, now)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrSnapshotFailed, err)
	}
	if err := insertSnapshot(ctx, tx, s.tenant, snap); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrSnapshotFailed, err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE training_sessions SET status = ? WHERE id = ? AND tenant_id = ?`,
		string(StatusEnded), sess.ID, s.tenant,
	)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to end session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Snapshot{}, fmt.Errorf("failed to commit session end: %w", err)
	}
	log.Info("Ended training session", "sessionID", sess.ID, "season", snap.Season, "matches", len(snap.Matches))
	return snap, nil
}

// buildSnapshot deep-copies the session's matches, slot assignments and
// check-ins within the ending transaction.
func (s *store) buildSnapshot(ctx context.Context, tx *sql.Tx, sess TrainingSession, now int64) (Snapshot, error) {
	snap := Snapshot{
		ID:          uuid.NewString(),
		SessionID:   sess.ID,
		SessionDate: sess.Date,
		Season:      SeasonLabel(time.Unix(sess.Date, 0)),
		Version:     snapshotVersion,
		Matches:     []SnapshotMatch{},
		Slots:       []SnapshotSlot{},
		CheckIns:    []SnapshotCheckIn{},
		CreatedAt:   now,
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT m.id, m.court_id, c.idx, m.round, m.started_at, m.ended_at
		FROM matches m JOIN courts c ON c.id = m.court_id
		WHERE m.session_id = ? AND m.tenant_id = ?
		ORDER BY m.round, c.idx`,
		sess.ID, s.tenant,
	)
	if err != nil {
		return Snapshot{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var m SnapshotMatch
		var endedAt sql.NullInt64
		if err := rows.Scan(&m.ID, &m.CourtID, &m.CourtIdx, &m.Round, &m.StartedAt, &endedAt); err != nil {
			return Snapshot{}, err
		}
		if endedAt.Valid {
			m.EndedAt = &endedAt.Int64
		}
		snap.Matches = append(snap.Matches, m)
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, err
	}

	slotRows, err := tx.QueryContext(ctx, `
		SELECT mp.match_id, mp.player_id, p.name, mp.slot
		FROM match_players mp
		JOIN matches m ON m.id = mp.match_id
		JOIN players p ON p.id = mp.player_id
		WHERE m.session_id = ? AND mp.tenant_id = ?
		ORDER BY mp.match_id, mp.slot`,
		sess.ID, s.tenant,
	)
	if err != nil {
		return Snapshot{}, err
	}
	defer slotRows.Close()
	for slotRows.Next() {
		var sl SnapshotSlot
		if err := slotRows.Scan(&sl.MatchID, &sl.PlayerID, &sl.PlayerName, &sl.Slot); err != nil {
			return Snapshot{}, err
		}
		snap.Slots = append(snap.Slots, sl)
	}
	if err := slotRows.Err(); err != nil {
		return Snapshot{}, err
	}

	ciRows, err := tx.QueryContext(ctx, `
		SELECT ci.player_id, p.name, ci.max_rounds, ci.notes, ci.created_at
		FROM check_ins ci JOIN players p ON p.id = ci.player_id
		WHERE ci.session_id = ? AND ci.tenant_id = ?
		ORDER BY ci.created_at, ci.id`,
		sess.ID, s.tenant,
	)
	if err != nil {
		return Snapshot{}, err
	}
	defer ciRows.Close()
	for ciRows.Next() {
		var ci SnapshotCheckIn
		var maxRounds sql.NullInt64
		var note sql.NullString
		if err := ciRows.Scan(&ci.PlayerID, &ci.PlayerName, &maxRounds, &note, &ci.CreatedAt); err != nil {
			return Snapshot{}, err
		}
		if maxRounds.Valid {
			v := int(maxRounds.Int64)
			ci.MaxRounds = &v
		}
		if note.Valid {
			ci.Note = &note.String
		}
		snap.CheckIns = append(snap.CheckIns, ci)
	}
	return snap, ciRows.Err()
}

func insertSnapshot(ctx context.Context, tx *sql.Tx, tenant string, snap Snapshot) error {
	matchesJSON, err := json.Marshal(snap.Matches)
	if err != nil {
		return err
	}
	slotsJSON, err := json.Marshal(snap.Slots)
	if err != nil {
		return err
	}
	checkInsJSON, err := json.Marshal(snap.CheckIns)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO statistics_snapshots (id, tenant_id, session_id, session_date, season, version, matches, match_players, check_ins, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.ID, tenant, snap.SessionID, snap.SessionDate, snap.Season, snap.Version,
		string(matchesJSON), string(slotsJSON), string(checkInsJSON), snap.CreatedAt,
	)
	return err
}

func (s *store) GetSnapshot(ctx context.Context, sessionID string) (Snapshot, error) {
	ctx, cancel := database.CallContext(ctx)
	defer cancel()
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, session_id, session_date, season, version, matches, match_players, check_ins, created_at
		FROM statistics_snapshots
		WHERE session_id = ? AND tenant_id = ?`,
		sessionID, s.tenant,
	)
	snap, err := scanSnapshot(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return Snapshot{}, fmt.Errorf("session %s: %w", sessionID, ErrSnapshotMissing)
		}
		return Snapshot{}, fmt.Errorf("failed to get snapshot: %w", err)
	}
	return snap, nil
}

func (s *store) ListSnapshots(ctx context.Context, season string) ([]Snapshot, error) {
	ctx, cancel := database.CallContext(ctx)
	defer cancel()
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, session_id, session_date, season, version, matches, match_players, check_ins, created_at
		FROM statistics_snapshots WHERE tenant_id = ?`
	args := []any{s.tenant}
	if season != "" {
		query += ` AND season = ?`
		args = append(args, season)
	}
	query += ` ORDER BY session_date DESC, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := []Snapshot{}
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			log.Error("Failed to scan snapshot row", "error", err)
			continue
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots, rows.Err()
}

func scanSnapshot(scanner interface{ Scan(...any) error }) (Snapshot, error) {
	var snap Snapshot
	var matchesJSON, slotsJSON, checkInsJSON string
	err := scanner.Scan(
		&snap.ID, &snap.SessionID, &snap.SessionDate, &snap.Season, &snap.Version,
		&matchesJSON, &slotsJSON, &checkInsJSON, &snap.CreatedAt,
	)
	if err != nil {
		return Snapshot{}, err
	}
	if err := json.Unmarshal([]byte(matchesJSON), &snap.Matches); err != nil {
		return Snapshot{}, err
	}
	if err := json.Unmarshal([]byte(slotsJSON), &snap.Slots); err != nil {
		return Snapshot{}, err
	}
	if err := json.Unmarshal([]byte(checkInsJSON), &snap.CheckIns); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}
