package fsutil

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReadFileScoped_ReadsFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "scenario.yaml")
	if err := os.WriteFile(p, []byte("event_type: pandemic"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	b, err := ReadFileScoped(p, MaxInputBytes)
	if err != nil {
		t.Fatalf("ReadFileScoped error: %v", err)
	}
	if string(b) != "event_type: pandemic" {
		t.Fatalf("unexpected content: %q", string(b))
	}
}

func TestReadFileScoped_RejectsInvalidPath(t *testing.T) {
	for _, p := range []string{"", ".", string(filepath.Separator)} {
		if _, err := ReadFileScoped(p, 0); err == nil {
			t.Fatalf("expected error for %q", p)
		}
	}
}

func TestReadFileScoped_NonexistentFile(t *testing.T) {
	if _, err := ReadFileScoped(filepath.Join(t.TempDir(), "missing.yaml"), 0); err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestReadFileScoped_SizeLimit(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "big.json")
	if err := os.WriteFile(p, []byte(strings.Repeat("x", 64)), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := ReadFileScoped(p, 32); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
	if b, err := ReadFileScoped(p, 64); err != nil || len(b) != 64 {
		t.Fatalf("exact-size read failed: %d bytes, %v", len(b), err)
	}
	if b, err := ReadFileScoped(p, 0); err != nil || len(b) != 64 {
		t.Fatalf("unlimited read failed: %d bytes, %v", len(b), err)
	}
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "reports", "analysis.json")

	if err := WriteFileAtomic(p, []byte(`{"a":1}`), 0o600); err != nil {
		t.Fatalf("WriteFileAtomic: %v", err)
	}
	if err := WriteFileAtomic(p, []byte(`{"a":2}`), 0o600); err != nil {
		t.Fatalf("WriteFileAtomic overwrite: %v", err)
	}

	data, err := os.ReadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"a":2}` {
		t.Errorf("content = %q", data)
	}

	entries, err := os.ReadDir(filepath.Dir(p))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the target file, found %d entries", len(entries))
	}
}
