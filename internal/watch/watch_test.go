package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/sightline/pkg/errors"
	"github.com/agentstation/sightline/pkg/logging"
)

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, func(context.Context, []string) {})
	assert.True(t, errors.IsValidationError(err))

	_, err = New([]string{"x.csv"}, nil)
	assert.True(t, errors.IsValidationError(err))
}

func TestWatcher_DebouncesWrites(t *testing.T) {
	logging.DisableLoggingForTest(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "a.csv")
	other := filepath.Join(dir, "b.csv")
	require.NoError(t, os.WriteFile(path, []byte("Name\n"), 0o644))

	calls := make(chan []string, 10)
	w, err := New([]string{path}, func(_ context.Context, changed []string) {
		calls <- changed
	}, WithDebounce(50*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)
	defer w.Stop()

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte("Name\npc0"+string(rune('1'+i))+"\n"), 0o644))
	}
	require.NoError(t, os.WriteFile(other, []byte("ignored"), 0o644))

	abs, _ := filepath.Abs(path)
	select {
	case changed := <-calls:
		assert.Equal(t, []string{abs}, changed)
	case <-time.After(5 * time.Second):
		t.Fatal("no change delivered")
	}

	select {
	case changed := <-calls:
		t.Fatalf("burst delivered twice: %v", changed)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_StopsOnContextCancel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.csv")
	w, err := New([]string{path}, func(context.Context, []string) {})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		w.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
	w.Stop()
}

func TestDue(t *testing.T) {
	w := &Watcher{pending: map[string]time.Time{}, debounce: time.Second, files: map[string]struct{}{}}
	now := time.Now()
	w.pending["/b"] = now.Add(-2 * time.Second)
	w.pending["/a"] = now.Add(-3 * time.Second)
	w.pending["/c"] = now

	assert.Equal(t, []string{"/a", "/b"}, w.due(now))
	assert.Len(t, w.pending, 1)

	w.files["/c"] = struct{}{}
	w.record(fsnotify.Event{Name: "/c", Op: fsnotify.Chmod})
	assert.Equal(t, now, w.pending["/c"])
}
