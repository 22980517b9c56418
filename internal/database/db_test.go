package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDB(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "planner.db")

	db, err := NewDB(dbPath)
	require.NoError(t, err)
	defer db.Close()

	tables := []string{
		"meal_plans",
		"recipes",
		"shopping_checks",
		"execution_metrics",
		"weight_entries",
		"workouts",
		"hydration_entries",
		"sessions",
	}
	for _, table := range tables {
		t.Run(table, func(t *testing.T) {
			var name string
			err := db.SQL.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
			require.NoError(t, err)
			assert.Equal(t, table, name)
		})
	}
}

func TestRunMigrations_Idempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "planner.db")

	require.NoError(t, RunMigrations(dbPath))
	require.NoError(t, RunMigrations(dbPath), "second run should be a no-op")
}
