package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0644)
}

func waitChange(t *testing.T, ch <-chan string, timeout time.Duration) string {
	t.Helper()
	select {
	case p := <-ch:
		return p
	case <-time.After(timeout):
		t.Fatal("timed out waiting for change callback")
	}
	return ""
}

func TestWatcher_DebouncedChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "products.json")
	if err := writeFile(path, "[]"); err != nil {
		t.Fatal(err)
	}

	var calls atomic.Int32
	changed := make(chan string, 4)
	w := NewWatcher(path, func(p string) {
		calls.Add(1)
		changed <- p
	}, WithDebounce(100*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	for i := 0; i < 5; i++ {
		if err := writeFile(path, `[{"id":1,"name":"a"}]`); err != nil {
			t.Fatal(err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	if got := waitChange(t, changed, 3*time.Second); got != filepath.Clean(path) {
		t.Errorf("callback path = %q", got)
	}
	time.Sleep(300 * time.Millisecond)
	if n := calls.Load(); n != 1 {
		t.Errorf("expected 1 debounced callback, got %d", n)
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "products.json")
	if err := writeFile(path, "[]"); err != nil {
		t.Fatal(err)
	}

	var calls atomic.Int32
	w := NewWatcher(path, func(string) { calls.Add(1) }, WithDebounce(50*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := writeFile(filepath.Join(dir, "notes.txt"), "hello"); err != nil {
		t.Fatal(err)
	}
	time.Sleep(300 * time.Millisecond)
	if n := calls.Load(); n != 0 {
		t.Errorf("unrelated file triggered %d callbacks", n)
	}
}

func TestWatcher_AtomicReplace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "products.json")
	if err := writeFile(path, "[]"); err != nil {
		t.Fatal(err)
	}

	changed := make(chan string, 4)
	w := NewWatcher(path, func(p string) { changed <- p }, WithDebounce(50*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	tmp := filepath.Join(dir, ".products.json.tmp")
	if err := writeFile(tmp, `[{"id":2,"name":"b"}]`); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}
	waitChange(t, changed, 3*time.Second)
}

func TestWatcher_StopCancelsPending(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "products.json")
	var calls atomic.Int32
	w := NewWatcher(path, func(string) { calls.Add(1) }, WithDebounce(200*time.Millisecond))
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	w.handleEvent(fsnotify.Event{Name: path, Op: fsnotify.Write})
	w.Stop()
	w.Stop()
	time.Sleep(400 * time.Millisecond)
	if n := calls.Load(); n != 0 {
		t.Errorf("callback ran after Stop: %d", n)
	}
}

func TestWatcher_RemoveCancelsPending(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "products.json")
	var calls atomic.Int32
	w := NewWatcher(path, func(string) { calls.Add(1) }, WithDebounce(100*time.Millisecond))
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	w.handleEvent(fsnotify.Event{Name: path, Op: fsnotify.Write})
	w.handleEvent(fsnotify.Event{Name: path, Op: fsnotify.Remove})
	time.Sleep(300 * time.Millisecond)
	if n := calls.Load(); n != 0 {
		t.Errorf("removed catalog triggered %d callbacks", n)
	}
}

func TestWatcher_StartMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "products.json")
	w := NewWatcher(path, nil)
	if err := w.Start(context.Background()); err == nil {
		w.Stop()
		t.Error("expected error for missing parent directory")
	}
	if w.Path() != filepath.Clean(path) {
		t.Errorf("Path() = %q", w.Path())
	}
}

func TestWatcher_StopOnContextCancel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.json")
	w := NewWatcher(path, nil)
	ctx, cancel := context.WithCancel(context.Background())
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	cancel()
	select {
	case <-w.done:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop after context cancel")
	}
}
