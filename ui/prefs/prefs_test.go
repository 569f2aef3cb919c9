package prefs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMissingFileIsEmpty(t *testing.T) {
	p := LoadFrom(t.TempDir())
	if p.LastFolder() != "" {
		t.Errorf("expected no last folder, got %q", p.LastFolder())
	}
	if n := p.Columns(4); n != 4 {
		t.Errorf("expected fallback 4, got %d", n)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	p := LoadFrom(dir)
	p.SetLastFolder("/home/me/pictures")
	p.SetColumns(5)
	p.SetFloat(KeyWindowWidth, 1280)
	if err := p.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	q := LoadFrom(dir)
	if q.LastFolder() != "/home/me/pictures" {
		t.Errorf("unexpected folder %q", q.LastFolder())
	}
	if n := q.Columns(3); n != 5 {
		t.Errorf("expected 5 columns, got %d", n)
	}
	if w := q.Float(KeyWindowWidth, 0); w != 1280 {
		t.Errorf("expected width 1280, got %v", w)
	}
}

func TestCorruptFileIsIgnored(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, prefsFile), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	p := LoadFrom(dir)
	if n := p.Columns(4); n != 4 {
		t.Errorf("expected fallback, got %d", n)
	}
}
