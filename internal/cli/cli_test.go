package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"

	"masonry-gallery/internal/config"
)

// errExitCalled is a sentinel used to catch kong's os.Exit calls in tests.
var errExitCalled = errors.New("exit called")

func TestVersionFlag(t *testing.T) {
	var buf bytes.Buffer
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected --version to exit")
		}
		if err, ok := r.(error); !ok || !errors.Is(err, errExitCalled) {
			panic(r)
		}
		if !strings.Contains(buf.String(), "v9.9.9") {
			t.Errorf("version output = %q", buf.String())
		}
	}()
	Parse([]string{"--version"}, "v9.9.9",
		kong.Writers(&buf, &buf),
		kong.Exit(func(int) { panic(errExitCalled) }),
	)
}

func TestFlagsOverrideConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "gallery.json")
	if err := os.WriteFile(cfgPath, []byte(`{"columns": 3, "workers": 2}`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	c, err := Parse([]string{dir, "-c", cfgPath, "--workers", "4", "--log-level", "debug", "--no-watch"}, "test")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.Folder != dir {
		t.Errorf("expected folder %q, got %q", dir, c.Folder)
	}

	cfg, err := c.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Columns != 3 {
		t.Errorf("expected columns from file, got %d", cfg.Columns)
	}
	if cfg.Workers != 4 {
		t.Errorf("expected workers from flag, got %d", cfg.Workers)
	}
	if cfg.Log.Level != "debug" || cfg.Watch {
		t.Errorf("flags not applied: %+v", cfg.Log)
	}
}

func TestInvalidFlag(t *testing.T) {
	c, err := Parse([]string{"--columns", "9"}, "test")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := c.Load(); !errors.Is(err, config.ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
}

func TestRejectsMissingFolder(t *testing.T) {
	if _, err := Parse([]string{filepath.Join(t.TempDir(), "missing")}, "test"); err == nil {
		t.Error("expected an error for a missing folder")
	}
}

func TestBadLogFormat(t *testing.T) {
	c, err := Parse([]string{"--log-format", "xml"}, "test")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := c.Load(); !errors.Is(err, config.ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
}
