// Package watch polls a directory for wav files and re-runs the clip
// analysis pipeline whenever one is added or modified, adapted from the
// incremental directory-snapshot polling loop used to keep a video
// library in sync with the filesystem.
package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// snapshot maps a wav file's name to its modification time, in a
// directory captured at scan time.
type snapshot map[string]int64

// Watcher polls dir for *.wav files and invokes onChange for every
// file that is new or has a changed modification time since the last
// poll. Dir can be updated concurrently via SetDir.
type Watcher struct {
	mu  sync.RWMutex
	dir string
}

// New returns a Watcher rooted at dir.
func New(dir string) *Watcher {
	return &Watcher{dir: dir}
}

// SetDir changes the watched directory; takes effect on the next poll.
func (w *Watcher) SetDir(dir string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.dir = dir
}

// Dir returns the currently watched directory.
func (w *Watcher) Dir() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.dir
}

func (w *Watcher) dirSnapshot() (snapshot, string) {
	w.mu.RLock()
	dir := w.dir
	w.mu.RUnlock()

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, dir
	}

	snap := make(snapshot, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !strings.EqualFold(filepath.Ext(e.Name()), ".wav") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		snap[e.Name()] = info.ModTime().Unix()
	}
	return snap, dir
}

// Watch polls the directory at the given interval and calls onChange
// once per file that is newly present or has a changed modification
// time since the previous poll, with the absolute path of that file.
// Cancel ctx to stop watching.
func (w *Watcher) Watch(ctx context.Context, interval time.Duration, onChange func(path string)) {
	prev, _ := w.dirSnapshot()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			curr, dir := w.dirSnapshot()
			if curr == nil {
				continue
			}
			if !snapshotsEqual(prev, curr) {
				for _, name := range changedNames(prev, curr) {
					slog.Info("watch: wav file changed", "file", name)
					if onChange != nil {
						onChange(filepath.Join(dir, name))
					}
				}
				prev = curr
			}
		}
	}
}

// changedNames returns the names present in curr that are new or whose
// modification time differs from prev, sorted for deterministic order.
func changedNames(prev, curr snapshot) []string {
	var changed []string
	for name, modTime := range curr {
		if oldMod, existed := prev[name]; !existed || oldMod != modTime {
			changed = append(changed, name)
		}
	}
	sort.Strings(changed)
	return changed
}

// snapshotsEqual returns true if both snapshots have the same files
// with the same modification times.
func snapshotsEqual(a, b snapshot) bool {
	if len(a) != len(b) {
		return false
	}
	for name, modA := range a {
		if modB, ok := b[name]; !ok || modA != modB {
			return false
		}
	}
	return true
}
