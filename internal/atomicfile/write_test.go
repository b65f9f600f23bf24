package atomicfile

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestWrite_CreatesAndReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	for _, content := range []string{"version = 2\n", "version = 3\n"} {
		if err := Write(path, []byte(content), 0o644); err != nil {
			t.Fatalf("Write(%q): %v", content, err)
		}
		got, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != content {
			t.Errorf("file = %q, want %q", got, content)
		}
	}
}

func TestStream_KeepsExistingMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not meaningful on Windows")
	}
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("old"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		t.Fatal(err)
	}

	if err := Write(path, []byte("new"), 0o644); err != nil {
		t.Fatalf("Write: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("mode = %v, want 0600 kept from the old file", info.Mode().Perm())
	}
}

func TestStream_FailureLeavesNoTrace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("original"), 0o644); err != nil {
		t.Fatal(err)
	}

	encodeErr := errors.New("encode failed")
	err := Stream(path, 0o644, func(w io.Writer) error {
		_, _ = io.WriteString(w, "[discord")
		return encodeErr
	})
	if !errors.Is(err, encodeErr) {
		t.Fatalf("err = %v, want the fill error", err)
	}

	got, _ := os.ReadFile(path)
	if string(got) != "original" {
		t.Errorf("file = %q, want original contents", got)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name()
		}
		t.Errorf("dir = %v, want only config.toml", names)
	}
}

func TestStream_MissingDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "config.toml")
	if err := Write(path, []byte("x"), 0o644); err == nil {
		t.Fatal("expected error for a missing parent directory")
	}
}
