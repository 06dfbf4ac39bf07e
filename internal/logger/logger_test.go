package logger

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// restore puts back the package logger after a test reconfigures it.
func restore(t *testing.T) {
	old, oldFile := Log, logFile
	t.Cleanup(func() {
		if logFile != nil && logFile != oldFile {
			_ = logFile.Close()
		}
		Log, logFile = old, oldFile
	})
}

func TestInit_FileJSON(t *testing.T) {
	restore(t)

	p := filepath.Join(t.TempDir(), "propdash.log")
	if err := Init("debug", "json", p); err != nil {
		t.Fatalf("init: %v", err)
	}
	Debug("dataset loaded")
	if err := Sync(); err != nil {
		t.Fatalf("sync: %v", err)
	}
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(b)
	if !strings.Contains(out, `"message":"dataset loaded"`) || !strings.Contains(out, `"level":"debug"`) {
		t.Fatalf("unexpected log output: %s", out)
	}
}

func TestInit_InvalidLevel(t *testing.T) {
	restore(t)
	if err := Init("loud", "console", "stderr"); err == nil {
		t.Fatalf("expected error for invalid level")
	}
}

func TestInit_ClosesPreviousFile(t *testing.T) {
	restore(t)

	dir := t.TempDir()
	if err := Init("info", "console", filepath.Join(dir, "first.log")); err != nil {
		t.Fatalf("init first: %v", err)
	}
	first := logFile
	if first == nil {
		t.Fatalf("expected file handle after file init")
	}
	if err := Init("info", "console", filepath.Join(dir, "second.log")); err != nil {
		t.Fatalf("init second: %v", err)
	}
	if logFile == first {
		t.Fatalf("expected a new file handle")
	}
	if _, err := first.Write([]byte("x")); !errors.Is(err, os.ErrClosed) {
		t.Fatalf("expected first log file closed, write err = %v", err)
	}

	if err := Init("info", "console", "stderr"); err != nil {
		t.Fatalf("init stderr: %v", err)
	}
	if logFile != nil {
		t.Fatalf("expected no file handle for stderr output")
	}
}
