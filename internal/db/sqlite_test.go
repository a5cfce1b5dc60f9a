package db

import (
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunMigrationsIsIdempotent(t *testing.T) {
	database, err := OpenSQLite(filepath.Join(t.TempDir(), "data", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	source := MigrationSource("")
	require.NoError(t, RunMigrations(database, source))
	require.NoError(t, RunMigrations(database, source))

	var tables int
	require.NoError(t, database.QueryRow(
		`SELECT COUNT(1) FROM sqlite_master WHERE type = 'table' AND name IN ('users', 'pomodoro_states', 'pomodoro_sessions')`,
	).Scan(&tables))
	assert.Equal(t, 3, tables)
}

func TestRunMigrationsSkipsNonSQLAndRollsBackFailures(t *testing.T) {
	database, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	source := fstest.MapFS{
		"0001_ok.sql":  {Data: []byte(`CREATE TABLE widgets (id INTEGER PRIMARY KEY);`)},
		"0002_bad.sql": {Data: []byte(`CREATE TABLE broken (`)},
		"README.md":    {Data: []byte(`not sql`)},
	}
	err = RunMigrations(database, source)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "0002_bad.sql")

	var applied int
	require.NoError(t, database.QueryRow(`SELECT COUNT(1) FROM schema_migrations`).Scan(&applied))
	assert.Equal(t, 1, applied)
}
