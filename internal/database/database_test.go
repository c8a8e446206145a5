package database

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitDB_CreatesTables(t *testing.T) {

	db, teardown, err := InitDB(":memory:", "", "", "../../migrations")
	require.NoError(t, err, "InitDB should not return an error")
	if teardown != nil {
		defer teardown()
	} else {
		defer db.Close()
	}

	tables := []string{
		"players",
		"courts",
		"training_sessions",
		"check_ins",
		"matches",
		"match_players",
		"match_results",
		"statistics_snapshots",
	}
	for _, table := range tables {
		var name string
		err = db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		require.NoErrorf(t, err, "Querying for %s table should not produce an error", table)
		assert.Equal(t, table, name)
	}

	// The partial unique index keeps a tenant from running two sessions at once.
	var indexName string
	err = db.QueryRow("SELECT name FROM sqlite_master WHERE type='index' AND name='ux_training_sessions_active'").Scan(&indexName)
	require.NoError(t, err, "Querying for active-session index should not produce an error")
	assert.Equal(t, "ux_training_sessions_active", indexName)
}

func TestIsUniqueViolation(t *testing.T) {
	db, teardown, err := InitDB(":memory:", "", "", "../../migrations")
	require.NoError(t, err)
	defer teardown()

	_, err = db.Exec(`INSERT INTO players (id, tenant_id, name, category, created_at)
		VALUES ('p1', 't1', 'Anna', 'either', 0)`)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO players (id, tenant_id, name, category, created_at)
		VALUES ('p1', 't1', 'Anna', 'either', 0)`)
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))

	assert.False(t, IsUniqueViolation(nil))
}

func TestIsUnavailable(t *testing.T) {
	assert.False(t, IsUnavailable(nil))
	assert.False(t, IsUnavailable(errors.New("UNIQUE constraint failed: players.id")))

	// A per-call deadline expiry stays classified through wrapping.
	assert.True(t, IsUnavailable(fmt.Errorf("failed to list players: %w", context.DeadlineExceeded)))
	assert.True(t, IsUnavailable(ErrUnavailable))
	assert.True(t, IsUnavailable(errors.New("database is locked")))
}

func TestCallContext_CarriesDeadline(t *testing.T) {
	ctx, cancel := CallContext(context.Background())
	defer cancel()

	deadline, ok := ctx.Deadline()
	require.True(t, ok, "per-call context must carry a deadline")
	assert.False(t, deadline.IsZero())
}
