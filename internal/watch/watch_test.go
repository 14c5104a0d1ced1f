package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatchDetectsNewWavFile(t *testing.T) {
	dir := t.TempDir()
	w := New(dir)

	var mu sync.Mutex
	var seen []string

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go w.Watch(ctx, 10*time.Millisecond, func(path string) {
		mu.Lock()
		seen = append(seen, path)
		mu.Unlock()
	})

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "song.wav"), []byte("data"), 0o644))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 1
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	require.Equal(t, filepath.Join(dir, "song.wav"), seen[0])
	mu.Unlock()
}

func TestWatchIgnoresNonWavFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	w := New(dir)
	snap, _ := w.dirSnapshot()
	require.Empty(t, snap)
}

func TestSnapshotsEqual(t *testing.T) {
	a := snapshot{"a.wav": 1, "b.wav": 2}
	b := snapshot{"a.wav": 1, "b.wav": 2}
	require.True(t, snapshotsEqual(a, b))

	c := snapshot{"a.wav": 1, "b.wav": 3}
	require.False(t, snapshotsEqual(a, c))

	require.False(t, snapshotsEqual(a, snapshot{"a.wav": 1}))
}

func TestChangedNamesDetectsAddedAndModified(t *testing.T) {
	prev := snapshot{"a.wav": 1, "b.wav": 2}
	curr := snapshot{"a.wav": 1, "b.wav": 3, "c.wav": 5}

	changed := changedNames(prev, curr)
	require.Equal(t, []string{"b.wav", "c.wav"}, changed)
}

func TestSetDirAndDir(t *testing.T) {
	w := New("/tmp/one")
	require.Equal(t, "/tmp/one", w.Dir())
	w.SetDir("/tmp/two")
	require.Equal(t, "/tmp/two", w.Dir())
}
