package db

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationSourceOrder(t *testing.T) {
	found, err := migrationSource().FindMigrations()
	require.NoError(t, err)
	require.Len(t, found, len(Migrations))

	ids := make([]string, 0, len(found))
	for _, m := range found {
		ids = append(ids, m.Id)
		assert.NotEmpty(t, m.Up, m.Id)
		assert.NotEmpty(t, m.Down, m.Id)
	}
	assert.Equal(t, []string{
		"0001_create_player_ratings",
		"0002_create_tournament_state",
		"0003_create_tournament_history",
		"0004_create_tournament_settings",
	}, ids)
}

func TestMigrationsOneStatementPerEntry(t *testing.T) {
	for _, m := range Migrations {
		for _, stmt := range m.Up {
			assert.NotContains(t, strings.TrimSpace(stmt), ";", m.Id)
		}
	}
}
