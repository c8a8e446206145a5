package club

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/mauv0809/crispy-shuttle/internal/database"
)

// New creates a new ClubStore scoped to a single tenant. Every query it
// issues carries the tenant filter.
func New(db *sql.DB, tenantID string) ClubStore {
	return &store{
		db:     db,
		tenant: tenantID,
	}
}

func (s *store) CreatePlayer(ctx context.Context, player PlayerInfo) (PlayerInfo, error) {
	ctx, cancel := database.CallContext(ctx)
	defer cancel()
	s.mu.Lock()
	defer s.mu.Unlock()

	if player.ID == "" {
		player.ID = uuid.NewString()
	}
	if player.Category == "" {
		player.Category = CategoryEither
	}
	player.CreatedAt = time.Now().Unix()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO players (id, tenant_id, name, alias, level_single, level_double, level_mix, gender, category, active, training_groups, preferred_doubles, preferred_mixed, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		player.ID, s.tenant, player.Name, player.Alias,
		player.LevelSingle, player.LevelDouble, player.LevelMix,
		player.Gender, string(player.Category), boolToInt(player.Active),
		encodeStringList(player.TrainingGroups),
		encodeStringList(player.PreferredDoubles),
		encodeStringList(player.PreferredMixed),
		player.CreatedAt,
	)
	if err != nil {
		return PlayerInfo{}, fmt.Errorf("failed to create player: %w", err)
	}
	log.Info("Created player", "playerID", player.ID, "name", player.Name, "category", player.Category)
	return player, nil
}

func (s *store) UpdatePlayer(ctx context.Context, playerID string, patch PlayerPatch) (PlayerInfo, error) {
	ctx, cancel := database.CallContext(ctx)
	defer cancel()
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.getPlayerLocked(ctx, playerID)
	if err != nil {
		return PlayerInfo{}, err
	}

	if patch.Name != nil {
		current.Name = *patch.Name
	}
	if patch.Alias != nil {
		current.Alias = patch.Alias
	}
	if patch.LevelSingle != nil {
		current.LevelSingle = patch.LevelSingle
	}
	if patch.LevelDouble != nil {
		current.LevelDouble = patch.LevelDouble
	}
	if patch.LevelMix != nil {
		current.LevelMix = patch.LevelMix
	}
	if patch.Gender != nil {
		current.Gender = patch.Gender
	}
	if patch.Category != nil {
		current.Category = *patch.Category
	}
	if patch.Active != nil {
		current.Active = *patch.Active
	}
	if patch.TrainingGroups != nil {
		current.TrainingGroups = patch.TrainingGroups
	}
	if patch.PreferredDoubles != nil {
		current.PreferredDoubles = patch.PreferredDoubles
	}
	if patch.PreferredMixed != nil {
		current.PreferredMixed = patch.PreferredMixed
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE players SET name = ?, alias = ?, level_single = ?, level_double = ?, level_mix = ?, gender = ?, category = ?, active = ?, training_groups = ?, preferred_doubles = ?, preferred_mixed = ?
		WHERE id = ? AND tenant_id = ?`,
		current.Name, current.Alias,
		current.LevelSingle, current.LevelDouble, current.LevelMix,
		current.Gender, string(current.Category), boolToInt(current.Active),
		encodeStringList(current.TrainingGroups),
		encodeStringList(current.PreferredDoubles),
		encodeStringList(current.PreferredMixed),
		playerID, s.tenant,
	)
	if err != nil {
		return PlayerInfo{}, fmt.Errorf("failed to update player: %w", err)
	}
	log.Info("Updated player", "playerID", playerID)
	return current, nil
}

func (s *store) GetPlayer(ctx context.Context, playerID string) (PlayerInfo, error) {
	ctx, cancel := database.CallContext(ctx)
	defer cancel()
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getPlayerLocked(ctx, playerID)
}

func (s *store) getPlayerLocked(ctx context.Context, playerID string) (PlayerInfo, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+playerColumns+` FROM players WHERE id = ? AND tenant_id = ?`,
		playerID, s.tenant,
	)
	p, err := scanPlayer(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return PlayerInfo{}, fmt.Errorf("player %s: %w", playerID, ErrUnknownPlayer)
		}
		return PlayerInfo{}, fmt.Errorf("failed to get player: %w", err)
	}
	return p, nil
}

func (s *store) GetPlayers(ctx context.Context, playerIDs []string) ([]PlayerInfo, error) {
	ctx, cancel := database.CallContext(ctx)
	defer cancel()
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(playerIDs) == 0 {
		return []PlayerInfo{}, nil
	}

	query := `SELECT ` + playerColumns + ` FROM players WHERE tenant_id = ? AND id IN (?` +
		repeatPlaceholder(len(playerIDs)-1) + `) ORDER BY id`
	args := append([]any{s.tenant}, toAnySlice(playerIDs)...)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query players: %w", err)
	}
	defer rows.Close()

	players := []PlayerInfo{}
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			log.Error("Failed to scan player row", "error", err)
			continue
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

func (s *store) ListPlayers(ctx context.Context, filter PlayerFilter) ([]PlayerInfo, error) {
	ctx, cancel := database.CallContext(ctx)
	defer cancel()
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT ` + playerColumns + ` FROM players WHERE tenant_id = ?`
	args := []any{s.tenant}
	if filter.ActiveOnly {
		query += ` AND active = 1`
	}
	if filter.Category != "" {
		query += ` AND category = ?`
		args = append(args, string(filter.Category))
	}
	query += ` ORDER BY name, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query players: %w", err)
	}
	defer rows.Close()

	players := []PlayerInfo{}
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			log.Error("Failed to scan player row", "error", err)
			continue
		}
		if filter.TrainingGroup != "" && !contains(p.TrainingGroups, filter.TrainingGroup) {
			continue
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

func (s *store) IsKnownPlayer(ctx context.Context, playerID string) bool {
	ctx, cancel := database.CallContext(ctx)
	defer cancel()
	s.mu.RLock()
	defer s.mu.RUnlock()

	var exists bool
	err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM players WHERE id = ? AND tenant_id = ?)",
		playerID, s.tenant,
	).Scan(&exists)
	if err != nil {
		log.Error("Failed to check if player exists", "error", err, "playerID", playerID)
		return false
	}
	return exists
}

func (s *store) CreateCourt(ctx context.Context, idx int) (Court, error) {
	ctx, cancel := database.CallContext(ctx)
	defer cancel()
	s.mu.Lock()
	defer s.mu.Unlock()

	court := Court{ID: uuid.NewString(), Idx: idx}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO courts (id, tenant_id, idx) VALUES (?, ?, ?)",
		court.ID, s.tenant, court.Idx,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			// The index already exists for this tenant; return the existing row.
			return s.getCourtByIdxLocked(ctx, idx)
		}
		return Court{}, fmt.Errorf("failed to create court: %w", err)
	}
	log.Info("Created court", "courtID", court.ID, "idx", idx)
	return court, nil
}

func (s *store) ListCourts(ctx context.Context) ([]Court, error) {
	ctx, cancel := database.CallContext(ctx)
	defer cancel()
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, idx FROM courts WHERE tenant_id = ? ORDER BY idx",
		s.tenant,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query courts: %w", err)
	}
	defer rows.Close()

	courts := []Court{}
	for rows.Next() {
		var c Court
		if err := rows.Scan(&c.ID, &c.Idx); err != nil {
			log.Error("Failed to scan court row", "error", err)
			continue
		}
		courts = append(courts, c)
	}
	return courts, rows.Err()
}

func (s *store) GetCourtByIdx(ctx context.Context, idx int) (Court, error) {
	ctx, cancel := database.CallContext(ctx)
	defer cancel()
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getCourtByIdxLocked(ctx, idx)
}

func (s *store) getCourtByIdxLocked(ctx context.Context, idx int) (Court, error) {
	var c Court
	err := s.db.QueryRowContext(ctx,
		"SELECT id, idx FROM courts WHERE tenant_id = ? AND idx = ?",
		s.tenant, idx,
	).Scan(&c.ID, &c.Idx)
	if err != nil {
		if err == sql.ErrNoRows {
			return Court{}, fmt.Errorf("court %d: %w", idx, ErrUnknownCourt)
		}
		return Court{}, fmt.Errorf("failed to get court: %w", err)
	}
	return c, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func repeatPlaceholder(n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += ", ?"
	}
	return out
}

func toAnySlice(s []string) []any {
	a := make([]any, len(s))
	for i, v := range s {
		a[i] = v
	}
	return a
}
