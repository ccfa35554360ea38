package watcher_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/pumlview/internal/pubsub"
	"github.com/zjrosen/pumlview/internal/watcher"
)

func startWatcher(t *testing.T, paths ...string) <-chan pubsub.Event[string] {
	t.Helper()
	w, err := watcher.New(watcher.Config{DebounceDur: 50 * time.Millisecond})
	require.NoError(t, err, "failed to create watcher")
	t.Cleanup(func() { _ = w.Stop() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	events := w.Events().Subscribe(ctx)

	for _, p := range paths {
		require.NoError(t, w.Add(p))
	}
	w.Start()
	return events
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644), "failed to write file")
}

func TestWatcher_DebounceMultipleWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file.puml")
	writeFile(t, path, "@startuml\n@enduml\n")
	events := startWatcher(t, path)

	// Rapid writes should coalesce into single notification
	for i := 0; i < 10; i++ {
		writeFile(t, path, fmt.Sprintf("@startuml\nA -> B%d\n@enduml\n", i))
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case evt := <-events:
		assert.Equal(t, pubsub.ChangedEvent, evt.Type)
		assert.Equal(t, path, evt.Payload)
	case <-time.After(time.Second):
		t.Fatal("expected notification but got timeout")
	}

	select {
	case evt := <-events:
		t.Fatalf("unexpected second notification for %s", evt.Payload)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestWatcher_IgnoresUnwatchedFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "file.puml")
	other := filepath.Join(dir, "other.txt")
	writeFile(t, path, "a")
	writeFile(t, other, "initial")
	events := startWatcher(t, path)

	writeFile(t, other, "changed")

	select {
	case evt := <-events:
		t.Fatalf("unexpected notification for %s", evt.Payload)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_DebouncesEachFileSeparately(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.puml")
	b := filepath.Join(dir, "b.puml")
	writeFile(t, a, "a")
	writeFile(t, b, "b")
	events := startWatcher(t, a, b)

	writeFile(t, a, "a2")
	writeFile(t, b, "b2")

	got := map[string]bool{}
	for len(got) < 2 {
		select {
		case evt := <-events:
			got[evt.Payload] = true
		case <-time.After(time.Second):
			t.Fatalf("timed out, got %v", got)
		}
	}
	require.True(t, got[a])
	require.True(t, got[b])
}

func TestWatcher_AtomicSaveIsSeen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "file.puml")
	writeFile(t, path, "a")
	events := startWatcher(t, path)

	tmp := filepath.Join(dir, ".file.puml.swp")
	writeFile(t, tmp, "b")
	require.NoError(t, os.Rename(tmp, path))

	select {
	case evt := <-events:
		require.Equal(t, path, evt.Payload)
	case <-time.After(time.Second):
		t.Fatal("rename over the watched file was not reported")
	}
}

func TestWatcher_AddRemove(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "file.puml")
	writeFile(t, path, "a")

	w, err := watcher.New(watcher.Config{DebounceDur: 20 * time.Millisecond})
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	require.NoError(t, w.Add(path))
	require.NoError(t, w.Add(path), "adding twice is a no-op")
	require.Equal(t, []string{path}, w.Watching())

	w.Remove(path)
	w.Remove(path)
	require.Empty(t, w.Watching())

	err = w.Add(filepath.Join(dir, "missing", "file.puml"))
	require.Error(t, err, "missing directory cannot be watched")
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	w, err := watcher.New(watcher.DefaultConfig())
	require.NoError(t, err)
	w.Start()

	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())
}
