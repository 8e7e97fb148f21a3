package daemon

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentWatcherFiresOnWrite(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "note.md")
	require.NoError(t, os.WriteFile(file, []byte("# v1"), 0600))

	var fired atomic.Int64
	cw, err := NewContentWatcher(file, func() { fired.Add(1) })
	require.NoError(t, err)
	cw.debounceTime = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, cw.Start(ctx))
	defer cw.Stop()

	require.NoError(t, os.WriteFile(file, []byte("# v2"), 0600))

	waitFor(t, func() bool { return fired.Load() >= 1 })
}

func TestContentWatcherDebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "note.md")
	require.NoError(t, os.WriteFile(file, []byte("# v1"), 0600))

	var fired atomic.Int64
	cw, err := NewContentWatcher(file, func() { fired.Add(1) })
	require.NoError(t, err)
	cw.debounceTime = 100 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, cw.Start(ctx))
	defer cw.Stop()

	// Rapid saves within the debounce window collapse into one callback.
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(file, []byte("# burst"), 0600))
		time.Sleep(10 * time.Millisecond)
	}

	waitFor(t, func() bool { return fired.Load() >= 1 })
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int64(1), fired.Load())
}

func TestContentWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "note.md")
	other := filepath.Join(dir, "other.md")
	require.NoError(t, os.WriteFile(file, []byte("# v1"), 0600))

	var fired atomic.Int64
	cw, err := NewContentWatcher(file, func() { fired.Add(1) })
	require.NoError(t, err)
	cw.debounceTime = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, cw.Start(ctx))
	defer cw.Stop()

	require.NoError(t, os.WriteFile(other, []byte("# noise"), 0600))

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int64(0), fired.Load())
}
