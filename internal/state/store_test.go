package state

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadReturnsEmptyWhenFileMissing(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "does-not-exist"))

	id, err := s.Read()
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestReadReturnsStoredValue(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("MY_F0001_abc123"), 0600))

	s := NewStore(dir)
	id, err := s.Read()
	require.NoError(t, err)
	assert.Equal(t, "MY_F0001_abc123", id)
}

func TestReadStripsWhitespace(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("  MY_F0001_abc123\n  "), 0600))

	s := NewStore(dir)
	id, err := s.Read()
	require.NoError(t, err)
	assert.Equal(t, "MY_F0001_abc123", id)
}

func TestWriteCreatesDirectoryAndFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), ".frame-automation")
	s := NewStore(dir)

	require.NoError(t, s.Write("MY_F0002_xyz789"))

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.Equal(t, "MY_F0002_xyz789", string(data))
}

func TestWriteOverwritesExisting(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)

	require.NoError(t, s.Write("old_id"))
	require.NoError(t, s.Write("new_id"))

	id, err := s.Read()
	require.NoError(t, err)
	assert.Equal(t, "new_id", id)
}

func TestWriteThenReadRoundTripsTrimmed(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)

	require.NoError(t, s.Write("  padded-id \n"))

	id, err := s.Read()
	require.NoError(t, err)
	assert.Equal(t, "padded-id", id)
}
