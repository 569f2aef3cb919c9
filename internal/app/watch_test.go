package app

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func TestFolderWatcherCoalescesChanges(t *testing.T) {
	dir := t.TempDir()
	var calls atomic.Int32
	fw, err := NewFolderWatcher(dir, 50*time.Millisecond, func() { calls.Add(1) })
	if err != nil {
		t.Fatalf("NewFolderWatcher: %v", err)
	}
	fw.Start()
	defer fw.Stop()

	for _, name := range []string{"a.jpg", "b.png", "c.gif"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}

	deadline := time.Now().Add(2 * time.Second)
	for calls.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("no change reported")
		}
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(150 * time.Millisecond)
	if n := calls.Load(); n != 1 {
		t.Errorf("expected one coalesced callback, got %d", n)
	}
}

func TestFolderWatcherMissingDir(t *testing.T) {
	if _, err := NewFolderWatcher(filepath.Join(t.TempDir(), "gone"), time.Millisecond, func() {}); err == nil {
		t.Error("expected an error for a missing folder")
	}
}

func TestRelevantEvents(t *testing.T) {
	tests := []struct {
		ev   fsnotify.Event
		want bool
	}{
		{fsnotify.Event{Name: "/p/a.jpg", Op: fsnotify.Create}, true},
		{fsnotify.Event{Name: "/p/a.JPG", Op: fsnotify.Remove}, true},
		{fsnotify.Event{Name: "/p/a.png", Op: fsnotify.Chmod}, false},
		{fsnotify.Event{Name: "/p/notes.txt", Op: fsnotify.Create}, false},
	}
	for _, tt := range tests {
		if got := relevant(tt.ev); got != tt.want {
			t.Errorf("relevant(%v) = %v, want %v", tt.ev, got, tt.want)
		}
	}
}
