package data

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), DataFileName)
	require.NoError(t, Init(path))

	db, err := GetDB(path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), DataFileName)
	require.NoError(t, Init(path))

	// Idempotent.
	require.NoError(t, Init(path))

	db, err := GetDB(path)
	require.NoError(t, err)
	defer db.Close()

	for _, table := range []string{"student", "assessment", "training_run"} {
		var n int
		err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n)
		require.NoError(t, err, table)
		assert.Equal(t, 0, n, table)
	}
}

func TestInit_EmptyPath(t *testing.T) {
	assert.Error(t, Init(""))
}
