package club_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/mauv0809/crispy-shuttle/internal/club"
	"github.com/mauv0809/crispy-shuttle/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates a temporary in-memory SQLite database for testing.
func setupTestDB(t *testing.T) (club.ClubStore, *sql.DB, func()) {
	t.Helper()

	db, dbTeardown, err := database.InitDB(":memory:", "", "", "../../migrations")
	require.NoError(t, err)

	store := club.New(db, "test-tenant")
	teardown := func() {
		dbTeardown()
	}

	return store, db, teardown
}

func floatPtr(f float64) *float64 { return &f }
func strPtr(s string) *string     { return &s }

func TestCreateAndGetPlayer(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	created, err := store.CreatePlayer(ctx, club.PlayerInfo{
		Name:        "Anna Holm",
		Alias:       strPtr("Anna"),
		LevelDouble: floatPtr(450),
		Active:      true,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, club.CategoryEither, created.Category, "category defaults to either")

	got, err := store.GetPlayer(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Anna Holm", got.Name)
	require.NotNil(t, got.Alias)
	assert.Equal(t, "Anna", *got.Alias)
	require.NotNil(t, got.LevelDouble)
	assert.Equal(t, 450.0, *got.LevelDouble)
	assert.Nil(t, got.LevelSingle, "unrated disciplines stay nil")

	assert.True(t, store.IsKnownPlayer(ctx, created.ID))
	assert.False(t, store.IsKnownPlayer(ctx, "nope"))

	_, err = store.GetPlayer(ctx, "nope")
	assert.ErrorIs(t, err, club.ErrUnknownPlayer)
}

func TestUpdatePlayer(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	created, err := store.CreatePlayer(ctx, club.PlayerInfo{Name: "Bo Jensen", Active: true})
	require.NoError(t, err)

	doublesOnly := club.CategoryDoublesOnly
	inactive := false
	updated, err := store.UpdatePlayer(ctx, created.ID, club.PlayerPatch{
		LevelSingle: floatPtr(380),
		Category:    &doublesOnly,
		Active:      &inactive,
	})
	require.NoError(t, err)
	require.NotNil(t, updated.LevelSingle)
	assert.Equal(t, 380.0, *updated.LevelSingle)
	assert.Equal(t, club.CategoryDoublesOnly, updated.Category)
	assert.False(t, updated.Active)
	assert.Equal(t, "Bo Jensen", updated.Name, "unpatched fields are untouched")

	_, err = store.UpdatePlayer(ctx, "nope", club.PlayerPatch{})
	assert.ErrorIs(t, err, club.ErrUnknownPlayer)
}

func TestListPlayersFilter(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	_, err := store.CreatePlayer(ctx, club.PlayerInfo{
		Name:           "Anna",
		Active:         true,
		TrainingGroups: []string{"elite", "tuesday"},
	})
	require.NoError(t, err)
	_, err = store.CreatePlayer(ctx, club.PlayerInfo{
		Name:           "Bo",
		Active:         true,
		Category:       club.CategoryDoublesOnly,
		TrainingGroups: []string{"tuesday"},
	})
	require.NoError(t, err)
	_, err = store.CreatePlayer(ctx, club.PlayerInfo{Name: "Carla", Active: false})
	require.NoError(t, err)

	all, err := store.ListPlayers(ctx, club.PlayerFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	active, err := store.ListPlayers(ctx, club.PlayerFilter{ActiveOnly: true})
	require.NoError(t, err)
	assert.Len(t, active, 2)

	elite, err := store.ListPlayers(ctx, club.PlayerFilter{TrainingGroup: "elite"})
	require.NoError(t, err)
	require.Len(t, elite, 1)
	assert.Equal(t, "Anna", elite[0].Name)

	doubles, err := store.ListPlayers(ctx, club.PlayerFilter{Category: club.CategoryDoublesOnly})
	require.NoError(t, err)
	require.Len(t, doubles, 1)
	assert.Equal(t, "Bo", doubles[0].Name)
}

func TestGetPlayers(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	anna, err := store.CreatePlayer(ctx, club.PlayerInfo{Name: "Anna", Active: true})
	require.NoError(t, err)
	bo, err := store.CreatePlayer(ctx, club.PlayerInfo{Name: "Bo", Active: true})
	require.NoError(t, err)

	players, err := store.GetPlayers(ctx, []string{anna.ID, bo.ID, "missing"})
	require.NoError(t, err)
	assert.Len(t, players, 2, "unknown IDs are skipped")

	players, err = store.GetPlayers(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, players)
}

func TestCreateCourt(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	c1, err := store.CreateCourt(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, c1.Idx)

	// Creating the same court again returns the existing row.
	again, err := store.CreateCourt(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, c1.ID, again.ID)

	_, err = store.CreateCourt(ctx, 2)
	require.NoError(t, err)

	courts, err := store.ListCourts(ctx)
	require.NoError(t, err)
	require.Len(t, courts, 2)
	assert.Equal(t, 1, courts[0].Idx, "courts are ordered by index")
	assert.Equal(t, 2, courts[1].Idx)

	byIdx, err := store.GetCourtByIdx(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, courts[1].ID, byIdx.ID)

	_, err = store.GetCourtByIdx(ctx, 9)
	assert.ErrorIs(t, err, club.ErrUnknownCourt)
}

func TestTenantIsolation(t *testing.T) {
	store, db, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	other := club.New(db, "other-tenant")

	_, err := store.CreatePlayer(ctx, club.PlayerInfo{Name: "Anna", Active: true})
	require.NoError(t, err)

	players, err := other.ListPlayers(ctx, club.PlayerFilter{})
	require.NoError(t, err)
	assert.Empty(t, players, "players of one tenant are invisible to another")
}

func TestEffectiveLevelFallback(t *testing.T) {
	p := club.PlayerInfo{LevelDouble: floatPtr(450)}

	level, ok := p.EffectiveLevel(club.MatchTypeDoubles)
	require.True(t, ok)
	assert.Equal(t, 450.0, level)

	// Singles falls back to the doubles rating when unrated.
	level, ok = p.EffectiveLevel(club.MatchTypeSingles)
	require.True(t, ok)
	assert.Equal(t, 450.0, level)

	unrated := club.PlayerInfo{}
	_, ok = unrated.EffectiveLevel(club.MatchTypeDoubles)
	assert.False(t, ok)
}
