package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// waitForEvent pulls from the source until an event satisfies the predicate
// or the timeout elapses.
func waitForEvent(t *testing.T, s *Source, match func(RawEvent) bool) RawEvent {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case raw, ok := <-s.Events():
			if !ok {
				t.Fatal("event channel closed while waiting")
			}
			if match(raw) {
				return raw
			}
		case <-deadline:
			t.Fatal("timed out waiting for event")
		}
	}
}

func startSource(t *testing.T, root string, recursive bool, matcher *Matcher) *Source {
	t.Helper()
	s, err := NewSource(root, recursive, 0, matcher)
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(s.Stop)
	return s
}

func TestSourceRejectsBadRoot(t *testing.T) {
	_, err := NewSource(filepath.Join(t.TempDir(), "missing"), true, 0, nil)
	require.Error(t, err)

	file := filepath.Join(t.TempDir(), "plain.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))
	_, err = NewSource(file, true, 0, nil)
	require.Error(t, err)
}

func TestSourceEmitsCreate(t *testing.T) {
	dir := t.TempDir()
	s := startSource(t, dir, true, nil)

	path := filepath.Join(dir, "new.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0644))

	raw := waitForEvent(t, s, func(r RawEvent) bool { return r.Kind == RawCreated })
	assert.Equal(t, path, raw.Path)
}

func TestSourceEmitsModify(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "existing.txt")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0644))

	s := startSource(t, dir, true, nil)
	require.NoError(t, os.WriteFile(path, []byte("v2"), 0644))

	raw := waitForEvent(t, s, func(r RawEvent) bool { return r.Kind == RawModified })
	assert.Equal(t, path, raw.Path)
}

func TestSourceEmitsRemove(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doomed.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	s := startSource(t, dir, true, nil)
	require.NoError(t, os.Remove(path))

	raw := waitForEvent(t, s, func(r RawEvent) bool { return r.Kind == RawRemoved })
	assert.Equal(t, path, raw.Path)
}

func TestSourceWatchesNewSubdirectories(t *testing.T) {
	dir := t.TempDir()
	s := startSource(t, dir, true, nil)

	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0755))
	waitForEvent(t, s, func(r RawEvent) bool {
		return r.Kind == RawCreated && r.Path == sub
	})

	// The new directory must be in the watch set by the time its create
	// event was delivered; give the add a moment regardless.
	time.Sleep(50 * time.Millisecond)
	inner := filepath.Join(sub, "inner.txt")
	require.NoError(t, os.WriteFile(inner, []byte("x"), 0644))

	raw := waitForEvent(t, s, func(r RawEvent) bool {
		return r.Kind == RawCreated && r.Path == inner
	})
	assert.Equal(t, inner, raw.Path)
}

func TestSourceNonRecursiveIgnoresSubdirectories(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0755))

	s := startSource(t, dir, false, nil)
	require.NoError(t, os.WriteFile(filepath.Join(sub, "deep.txt"), []byte("x"), 0644))
	top := filepath.Join(dir, "top.txt")
	require.NoError(t, os.WriteFile(top, []byte("x"), 0644))

	// Only the top-level create should arrive.
	raw := waitForEvent(t, s, func(r RawEvent) bool { return r.Kind == RawCreated })
	assert.Equal(t, top, raw.Path)
}

func TestSourcePrunesIgnoredDirectories(t *testing.T) {
	dir := t.TempDir()
	ignored := filepath.Join(dir, "node_modules")
	require.NoError(t, os.Mkdir(ignored, 0755))

	matcher, err := NewMatcher(dir, true, false, nil)
	require.NoError(t, err)

	s := startSource(t, dir, true, matcher)
	require.NoError(t, os.WriteFile(filepath.Join(ignored, "dep.js"), []byte("x"), 0644))
	visible := filepath.Join(dir, "app.js")
	require.NoError(t, os.WriteFile(visible, []byte("x"), 0644))

	raw := waitForEvent(t, s, func(r RawEvent) bool { return r.Kind == RawCreated })
	assert.Equal(t, visible, raw.Path)
}

func TestSourceRenamePairing(t *testing.T) {
	dir := t.TempDir()
	oldPath := filepath.Join(dir, "old.txt")
	require.NoError(t, os.WriteFile(oldPath, []byte("x"), 0644))

	s := startSource(t, dir, true, nil)
	newPath := filepath.Join(dir, "new.txt")
	require.NoError(t, os.Rename(oldPath, newPath))

	raw := waitForEvent(t, s, func(r RawEvent) bool { return r.Kind == RawRenamedTo })
	assert.Equal(t, newPath, raw.Path)
	assert.Equal(t, oldPath, raw.From)
}

func TestSourceRootLossIsTerminal(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "root")
	require.NoError(t, os.Mkdir(root, 0755))

	s, err := NewSource(root, true, 0, nil)
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))

	require.NoError(t, os.RemoveAll(root))

	// Drain until closure.
	deadline := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-s.Events():
			if !ok {
				require.Error(t, s.Err())
				return
			}
		case <-deadline:
			t.Fatal("channel not closed after root removal")
		}
	}
}

func TestSourceStopClosesChannel(t *testing.T) {
	dir := t.TempDir()
	s := startSource(t, dir, true, nil)
	s.Stop()

	deadline := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-s.Events():
			if !ok {
				assert.NoError(t, s.Err())
				return
			}
		case <-deadline:
			t.Fatal("channel not closed after Stop")
		}
	}
}
