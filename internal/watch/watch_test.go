package watch

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelevant(t *testing.T) {
	tests := []struct {
		ev   fsnotify.Event
		want bool
	}{
		{fsnotify.Event{Name: "models/user.yaml", Op: fsnotify.Write}, true},
		{fsnotify.Event{Name: "models/user.yml", Op: fsnotify.Create}, true},
		{fsnotify.Event{Name: "models/user.yaml", Op: fsnotify.Remove}, true},
		{fsnotify.Event{Name: "models/user.yaml", Op: fsnotify.Rename}, true},
		{fsnotify.Event{Name: "models/user.yaml", Op: fsnotify.Chmod}, false},
		{fsnotify.Event{Name: "models/notes.txt", Op: fsnotify.Write}, false},
		{fsnotify.Event{Name: "models/.user.yaml", Op: fsnotify.Write}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Relevant(tt.ev), tt.ev.String())
	}
}

func TestWatcherRun(t *testing.T) {
	dir := t.TempDir()
	var runs atomic.Int32
	w := &Watcher{
		Dir:      dir,
		Debounce: 50 * time.Millisecond,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Action: func(context.Context) error {
			runs.Add(1)
			return nil
		},
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "user.yaml"), []byte("name: User\n"), 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	assert.Eventually(t, func() bool { return runs.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(1), runs.Load(), "a burst triggers one run")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcherMissingDir(t *testing.T) {
	w := &Watcher{Dir: filepath.Join(t.TempDir(), "missing"), Action: func(context.Context) error { return nil }}
	assert.Error(t, w.Run(context.Background()))
}
