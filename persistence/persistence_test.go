package persistence

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paologalligit/films-feed/entities"
)

func TestFilePersistence_WriteRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.jsonl")
	p := NewFilePersistence(path)
	loggedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, p.WriteRun(context.Background(), entities.RunLogEntry{RunId: "r1", Checksum: "abc", Films: 3, Changed: true, LoggedAt: loggedAt}))
	require.NoError(t, p.WriteRun(context.Background(), entities.RunLogEntry{RunId: "r2", Checksum: "abc", Films: 3, LoggedAt: loggedAt}))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	var entries []entities.RunLogEntry
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var entry entities.RunLogEntry
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		entries = append(entries, entry)
	}
	require.Len(t, entries, 2)
	assert.Equal(t, "r1", entries[0].RunId)
	assert.True(t, entries[0].Changed)
	assert.False(t, entries[1].Changed)
	assert.True(t, loggedAt.Equal(entries[1].LoggedAt))
}

func TestFilePersistence_UnwritablePath(t *testing.T) {
	p := NewFilePersistence(filepath.Join(t.TempDir(), "missing", "runs.jsonl"))

	err := p.WriteRun(context.Background(), entities.RunLogEntry{RunId: "r1"})

	assert.Error(t, err)
}

func TestSchemaStatements(t *testing.T) {
	stmts := schemaStatements(schemaSQL)

	require.Len(t, stmts, 2)
	assert.Contains(t, stmts[0], "CREATE TABLE IF NOT EXISTS feed_run")
	assert.NotContains(t, stmts[0], "--")
	assert.Contains(t, stmts[1], "CREATE INDEX")
}

func TestNewPostgresPool_RequiresDSN(t *testing.T) {
	_, err := NewPostgresPool(context.Background(), "")

	assert.EqualError(t, err, "DATABASE_URL is not set")
}
