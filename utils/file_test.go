package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "films.json")

	require.NoError(t, WriteFileAtomic(target, []byte(`{"a":1}`), 0644))
	require.NoError(t, WriteFileAtomic(target, []byte(`{"a":2}`), 0644))

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, `{"a":2}`, string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp file should be left behind")
}

func TestWriteFileAtomic_MissingDirectory(t *testing.T) {
	target := filepath.Join(t.TempDir(), "missing", "films.json")

	err := WriteFileAtomic(target, []byte("{}"), 0644)

	assert.Error(t, err)
	_, statErr := os.Stat(target)
	assert.True(t, os.IsNotExist(statErr))
}
