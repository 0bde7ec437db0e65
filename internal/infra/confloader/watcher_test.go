package confloader

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcher_OnChange(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "cli.yaml")
	if err := os.WriteFile(cfgFile, []byte("log:\n  level: warn\n"), 0600); err != nil {
		t.Fatal(err)
	}

	w, err := NewWatcher()
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Stop()

	if err := w.Watch(cfgFile); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	changed := make(chan string, 8)
	w.OnChange(func(path string) { changed <- path })
	w.StartAsync()

	// Writes to siblings are ignored.
	if err := os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x: 1"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(cfgFile, []byte("log:\n  level: debug\n"), 0600); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-changed:
		if got != cfgFile {
			t.Errorf("callback path = %q, want %q", got, cfgFile)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no change notification")
	}
}

func TestWatcher_WatchMissingDir(t *testing.T) {
	w, err := NewWatcher()
	if err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := w.Watch("/nonexistent/dir/cli.yaml"); err == nil {
		t.Error("Watch() should fail for a missing directory")
	}
}

func TestWatcher_StopTwice(t *testing.T) {
	w, err := NewWatcher()
	if err != nil {
		t.Fatal(err)
	}
	w.StartAsync()

	if err := w.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Errorf("second Stop() error = %v", err)
	}
}
