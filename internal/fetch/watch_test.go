package fetch

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWatcherFiresOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.csv")
	require.NoError(t, os.WriteFile(path, []byte("a\n1\n"), 0o644))

	var hits atomic.Int32
	w, err := NewWatcher(path, func() { hits.Add(1) }, zap.NewNop())
	require.NoError(t, err)
	w.settle = 50 * time.Millisecond
	require.NoError(t, w.Start())
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte("a\n2\n"), 0o644))

	require.Eventually(t, func() bool { return hits.Load() > 0 },
		3*time.Second, 25*time.Millisecond)
}

func TestWatcherIgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.csv")
	require.NoError(t, os.WriteFile(path, []byte("a\n"), 0o644))

	var hits atomic.Int32
	w, err := NewWatcher(path, func() { hits.Add(1) }, zap.NewNop())
	require.NoError(t, err)
	w.settle = 30 * time.Millisecond
	require.NoError(t, w.Start())
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.csv"), []byte("x\n"), 0o644))

	time.Sleep(300 * time.Millisecond)
	assert.Zero(t, hits.Load())
}

func TestWatcherCoalescesRapidSaves(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.csv")
	require.NoError(t, os.WriteFile(path, []byte("a\n"), 0o644))

	var hits atomic.Int32
	w, err := NewWatcher(path, func() { hits.Add(1) }, zap.NewNop())
	require.NoError(t, err)
	w.settle = 200 * time.Millisecond
	require.NoError(t, w.Start())
	defer w.Stop()

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte("a\n1\n"), 0o644))
	}

	require.Eventually(t, func() bool { return hits.Load() > 0 },
		3*time.Second, 25*time.Millisecond)
	assert.Equal(t, int32(1), hits.Load())
}

// The package TestMain verifies no goroutine survives, so a watcher
// left open by the failed start would fail this test.
func TestWatcherStartFailureReleasesWatcher(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "gone", "data.csv")

	w, err := NewWatcher(missing, func() {}, zap.NewNop())
	require.NoError(t, err)

	require.Error(t, w.Start())
	w.Stop()
}

func TestWatcherStopIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.csv")

	w, err := NewWatcher(path, func() {}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, w.Start())
	require.NoError(t, w.Start())

	w.Stop()
	w.Stop()
}
