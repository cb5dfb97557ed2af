package daemon

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func collectEvent(t *testing.T, fw *FileWatcher) FileEvent {
	t.Helper()
	select {
	case ev := <-fw.Events():
		return ev
	case err := <-fw.Errors():
		t.Fatalf("watcher error: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for file event")
	}
	return FileEvent{}
}

func startWatcher(t *testing.T, dir string) *FileWatcher {
	t.Helper()
	fw, err := NewFileWatcher()
	if err != nil {
		t.Fatalf("NewFileWatcher failed: %v", err)
	}
	if err := fw.Start(dir); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(func() { _ = fw.Stop() })
	return fw
}

func TestWatcherEmitsCreate(t *testing.T) {
	dir := t.TempDir()
	fw := startWatcher(t, dir)

	path := filepath.Join(dir, "issue-1.md")
	if err := os.WriteFile(path, []byte("---\nnumber: 1\n---\n"), 0644); err != nil {
		t.Fatal(err)
	}

	ev := collectEvent(t, fw)
	if ev.Path != path {
		t.Errorf("event path = %q, want %q", ev.Path, path)
	}
	if ev.Op != OpCreate && ev.Op != OpModify {
		t.Errorf("unexpected op %v for new file", ev.Op)
	}
}

func TestWatcherEmitsRemove(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "issue-2.md")
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	fw := startWatcher(t, dir)
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}

	ev := collectEvent(t, fw)
	if ev.Op != OpRemove {
		t.Errorf("expected remove, got %v", ev.Op)
	}
}

func TestWatcherIgnoresNonMarkdown(t *testing.T) {
	dir := t.TempDir()
	fw := startWatcher(t, dir)

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case ev := <-fw.Events():
		t.Errorf("unexpected event for non-markdown file: %+v", ev)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcherStartTwiceFails(t *testing.T) {
	dir := t.TempDir()
	fw := startWatcher(t, dir)

	if err := fw.Start(dir); err == nil {
		t.Error("expected error starting a running watcher")
	}
	if !fw.IsRunning() {
		t.Error("watcher should still be running")
	}
}

func TestWatcherStopIsIdempotent(t *testing.T) {
	fw, err := NewFileWatcher()
	if err != nil {
		t.Fatalf("NewFileWatcher failed: %v", err)
	}
	if err := fw.Start(t.TempDir()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := fw.Stop(); err != nil {
		t.Errorf("first Stop failed: %v", err)
	}
	if err := fw.Stop(); err != nil {
		t.Errorf("second Stop failed: %v", err)
	}
}

func TestEventOpString(t *testing.T) {
	tests := []struct {
		op   EventOp
		want string
	}{
		{OpCreate, "create"},
		{OpModify, "modify"},
		{OpRemove, "remove"},
		{EventOp(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.op.String(); got != tt.want {
			t.Errorf("EventOp(%d).String() = %q, want %q", tt.op, got, tt.want)
		}
	}
}
