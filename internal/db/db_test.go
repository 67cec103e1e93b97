package db

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", name).Scan(&n)
	require.NoError(t, err)
	return n > 0
}

func TestOpenForTesting(t *testing.T) {
	db, err := OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, db.Close()) })

	assert.True(t, tableExists(t, db, "food_logs"))

	version, dirty, err := Version(db)
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)
}

func TestOpenForTesting_Isolated(t *testing.T) {
	a, err := OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, a.Close()) })
	b, err := OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, b.Close()) })

	_, err = a.Exec("INSERT INTO food_logs (user_id, created_at) VALUES ('u1', 1)")
	require.NoError(t, err)

	var n int
	require.NoError(t, b.QueryRow("SELECT COUNT(*) FROM food_logs").Scan(&n))
	assert.Zero(t, n)
}

func TestOpen_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "foodcoach.db")

	db, err := Open(path)
	require.NoError(t, err)
	assert.True(t, tableExists(t, db, "food_logs"))
	require.NoError(t, db.Close())

	// Reopening an up-to-date database is a no-op.
	db, err = Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, db.Close()) })
	assert.True(t, tableExists(t, db, "food_logs"))
}

func TestRollbackAndMigrate(t *testing.T) {
	db, err := OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, db.Close()) })

	require.NoError(t, Rollback(db))
	assert.False(t, tableExists(t, db, "food_logs"))

	version, _, err := Version(db)
	require.NoError(t, err)
	assert.Equal(t, uint(0), version)

	require.NoError(t, Migrate(db))
	assert.True(t, tableExists(t, db, "food_logs"))
}

func TestOpenUnmigrated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fresh.db")
	db, err := OpenUnmigrated(path)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, db.Close()) })

	assert.False(t, tableExists(t, db, "food_logs"))
	version, _, err := Version(db)
	require.NoError(t, err)
	assert.Equal(t, uint(0), version)

	require.NoError(t, Migrate(db))
	assert.True(t, tableExists(t, db, "food_logs"))
}
