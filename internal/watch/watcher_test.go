package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const fileName = "beco-services.json"

func TestWatchDirs(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src", "foo"), 0755))

	dirs := []string{
		filepath.Join(root, "src", "foo"),
		filepath.Join(root, "src", "foo", "debug"),
		filepath.Join(root, "src", "debug"),
		filepath.Join(root, "other", "x"),
	}

	got := watchDirs(root, dirs)
	assert.Equal(t, []string{
		root,
		filepath.Join(root, "src"),
		filepath.Join(root, "src", "foo"),
	}, got)
}

func TestIsCandidateAncestor(t *testing.T) {
	root := t.TempDir()
	w, err := New(root, fileName, []string{"src/foo/debug"}, time.Second, nil, nil)
	require.NoError(t, err)
	defer w.Stop()

	assert.True(t, w.isCandidateAncestor(filepath.Join(root, "src")))
	assert.True(t, w.isCandidateAncestor(filepath.Join(root, "src", "foo")))
	assert.True(t, w.isCandidateAncestor(filepath.Join(root, "src", "foo", "debug")))
	assert.False(t, w.isCandidateAncestor(filepath.Join(root, "src", "fo")))
	assert.False(t, w.isCandidateAncestor(root))
	assert.False(t, w.isCandidateAncestor(filepath.Join(root, "lib")))
}

func TestWatcher_TriggersOnModify(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "src", "foo")
	require.NoError(t, os.MkdirAll(dir, 0755))
	target := filepath.Join(dir, fileName)
	require.NoError(t, os.WriteFile(target, []byte("{}"), 0644))

	var calls atomic.Int32
	w, err := New(root, fileName, []string{"src/foo"}, 20*time.Millisecond, func(context.Context) error {
		calls.Add(1)
		return nil
	}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	assert.Contains(t, w.WatchedDirs(), dir)

	require.NoError(t, os.WriteFile(target, []byte(`{"a": 1}`), 0644))

	require.Eventually(t, func() bool { return calls.Load() >= 1 }, 5*time.Second, 10*time.Millisecond)
	stats := w.Stats()
	assert.GreaterOrEqual(t, stats.Events, 1)
	assert.Equal(t, target, stats.LastEventPath)
}

func TestWatcher_NoticesNewCandidateDirectory(t *testing.T) {
	root := t.TempDir()

	var calls atomic.Int32
	w, err := New(root, fileName, []string{"src/foo"}, 20*time.Millisecond, func(context.Context) error {
		calls.Add(1)
		return nil
	}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	require.NoError(t, os.MkdirAll(filepath.Join(root, "src", "foo"), 0755))

	require.Eventually(t, func() bool {
		return calls.Load() >= 1
	}, 5*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool {
		for _, d := range w.WatchedDirs() {
			if d == filepath.Join(root, "src", "foo") {
				return true
			}
		}
		return false
	}, 5*time.Second, 10*time.Millisecond)
}

func TestWatcher_IgnoresUnrelatedFiles(t *testing.T) {
	root := t.TempDir()

	var calls atomic.Int32
	w, err := New(root, fileName, []string{"src/foo"}, 10*time.Millisecond, func(context.Context) error {
		calls.Add(1)
		return nil
	}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(root, "README.md"), []byte("x"), 0644))
	time.Sleep(150 * time.Millisecond)

	assert.Equal(t, int32(0), calls.Load())
	assert.Equal(t, 0, w.Stats().Events)
}

func TestWatcher_TriggerErrorsAreCounted(t *testing.T) {
	root := t.TempDir()

	w, err := New(root, fileName, nil, 10*time.Millisecond, func(context.Context) error {
		return assert.AnError
	}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(root, fileName), []byte("{}"), 0644))

	require.Eventually(t, func() bool { return w.Stats().Errors >= 1 }, 5*time.Second, 10*time.Millisecond)
}

func TestWatcher_StartTwiceAndStopTwice(t *testing.T) {
	w, err := New(t.TempDir(), fileName, nil, time.Second, nil, nil)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, w.Start(ctx))
	require.NoError(t, w.Start(ctx))
	w.Stop()
	w.Stop()
}
