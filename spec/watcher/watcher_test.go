package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/specdeck/specdeck/errors"
)

func newTestWatcher(t *testing.T, changes, removals *firingLog) *Watcher {
	t.Helper()
	w, err := New(Config{
		Debounce: 50 * time.Millisecond,
		OnChange: changes.record,
		OnRemove: removals.record,
	}, zap.NewNop().Sugar())
	require.NoError(t, err)
	t.Cleanup(func() { w.Stop() })
	return w
}

func TestNewRequiresOnChange(t *testing.T) {
	_, err := New(Config{}, zap.NewNop().Sugar())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrWatch))
}

func TestStartValidatesTarget(t *testing.T) {
	w := newTestWatcher(t, &firingLog{}, &firingLog{})

	err := w.Start(filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrWatch))

	file := filepath.Join(t.TempDir(), "spec.yaml")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	err = w.Start(file)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
}

func TestStartIsIdempotentWhileWatching(t *testing.T) {
	dir := t.TempDir()
	w := newTestWatcher(t, &firingLog{}, &firingLog{})

	require.NoError(t, w.Start(dir))
	assert.True(t, w.Watching())
	require.NoError(t, w.Start(dir))

	require.NoError(t, w.Stop())
	assert.False(t, w.Watching())
	require.NoError(t, w.Stop())
}

func TestWriteTriggersOnChangeOnce(t *testing.T) {
	dir := t.TempDir()
	changes := &firingLog{}
	w := newTestWatcher(t, changes, &firingLog{})
	require.NoError(t, w.Start(dir))

	path := filepath.Join(dir, "petstore.yaml")

	// Several writes in quick succession, as editors produce on save
	require.NoError(t, os.WriteFile(path, []byte("openapi: 3.0.0\n"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte("openapi: 3.0.0\ninfo: {}\n"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte("openapi: 3.0.0\ninfo: {title: x}\n"), 0o644))

	require.Eventually(t, func() bool {
		return len(changes.snapshot()) >= 1
	}, 2*time.Second, 10*time.Millisecond)

	// The burst collapsed into one trigger
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, []string{path}, changes.snapshot())
}

func TestUnsupportedFilesAreIgnored(t *testing.T) {
	dir := t.TempDir()
	changes := &firingLog{}
	w := newTestWatcher(t, changes, &firingLog{})
	require.NoError(t, w.Start(dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden.swp"), []byte("hi"), 0o644))

	time.Sleep(200 * time.Millisecond)
	assert.Empty(t, changes.snapshot())
}

func TestRemoveCancelsPendingAndNotifies(t *testing.T) {
	dir := t.TempDir()
	changes := &firingLog{}
	removals := &firingLog{}
	w := newTestWatcher(t, changes, removals)
	require.NoError(t, w.Start(dir))

	path := filepath.Join(dir, "petstore.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"openapi":"3.0.0"}`), 0o644))
	require.NoError(t, os.Remove(path))

	require.Eventually(t, func() bool {
		return len(removals.snapshot()) >= 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Contains(t, removals.snapshot(), path)

	time.Sleep(150 * time.Millisecond)
	assert.Empty(t, changes.snapshot())
}

func TestVanishedPathAtFireIsTreatedAsRemoval(t *testing.T) {
	changes := &firingLog{}
	removals := &firingLog{}
	w := newTestWatcher(t, changes, removals)

	// The file can disappear between the last event and the debounce window
	// closing; that surfaces as a removal, never as a change
	missing := filepath.Join(t.TempDir(), "gone.yaml")
	w.debounce.Trigger(missing)

	require.Eventually(t, func() bool {
		return len(removals.snapshot()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{missing}, removals.snapshot())
	assert.Empty(t, changes.snapshot())

	// A path that still exists when the window closes is a change
	present := filepath.Join(t.TempDir(), "here.yaml")
	require.NoError(t, os.WriteFile(present, []byte("openapi: 3.0.0\n"), 0o644))
	w.debounce.Trigger(present)

	require.Eventually(t, func() bool {
		return len(changes.snapshot()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{present}, changes.snapshot())
	assert.Equal(t, []string{missing}, removals.snapshot())
}

func TestNewToleratesNilLogger(t *testing.T) {
	w, err := New(Config{OnChange: func(string) {}}, nil)
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, w.Start(dir))
	require.NoError(t, w.Stop())
}

func TestAllowTriggerCapsSustainedRate(t *testing.T) {
	w, err := New(Config{
		MaxTriggersPerMinute: 2,
		OnChange:             func(string) {},
	}, zap.NewNop().Sugar())
	require.NoError(t, err)

	// Burst up to the cap passes, then the ceiling applies
	assert.True(t, w.allowTrigger("a.yaml"))
	assert.True(t, w.allowTrigger("a.yaml"))
	assert.False(t, w.allowTrigger("a.yaml"))

	// Other paths have their own limiter
	assert.True(t, w.allowTrigger("b.yaml"))
}
