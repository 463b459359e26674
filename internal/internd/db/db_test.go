package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenCreatesSchema(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := Open("sqlite", dbPath)
	require.NoError(t, err)
	defer db.Close()

	assert.FileExists(t, dbPath)

	for _, table := range []string{"users", "internships", "applications", "application_status_history", "audit_log"} {
		var count int
		err := db.Get(&count, "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table)
		require.NoError(t, err)
		assert.Equal(t, 1, count, table)
	}

	var version int
	require.NoError(t, db.Get(&version, "SELECT MAX(version) FROM schema_version"))
	assert.Equal(t, SchemaVersion, version)
}

func TestOpenIsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	first, err := Open("sqlite", dbPath)
	require.NoError(t, err)
	first.Close()

	second, err := Open("sqlite", dbPath)
	require.NoError(t, err)
	defer second.Close()

	var rows int
	require.NoError(t, second.Get(&rows, "SELECT COUNT(*) FROM schema_version"))
	assert.Equal(t, 1, rows)
}

func TestOpenUnsupportedDriver(t *testing.T) {
	db, err := Open("mysql", "whatever")
	assert.Error(t, err)
	assert.Nil(t, db)
}

func TestOpenInvalidPath(t *testing.T) {
	db, err := Open("sqlite", "/invalid/path/test.db")
	assert.Error(t, err)
	assert.Nil(t, db)
}
