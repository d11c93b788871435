package archive

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestArchiveFile(t *testing.T) {
	tmpDir := t.TempDir()

	pkg := filepath.Join(tmpDir, "English.apkg")
	if err := os.WriteFile(pkg, []byte("old package"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
	modTime := time.Date(2025, 3, 14, 15, 9, 26, 0, time.Local)
	if err := os.Chtimes(pkg, modTime, modTime); err != nil {
		t.Fatalf("Failed to set mod time: %v", err)
	}

	archived, err := ArchiveFile(pkg)
	if err != nil {
		t.Fatalf("ArchiveFile() error = %v", err)
	}

	want := filepath.Join(tmpDir, Dir, "English-20250314-150926.apkg")
	if archived != want {
		t.Errorf("ArchiveFile() = %s, want %s", archived, want)
	}

	// Original should be gone
	if _, err := os.Stat(pkg); !os.IsNotExist(err) {
		t.Error("Original file still exists after archiving")
	}

	content, err := os.ReadFile(archived)
	if err != nil {
		t.Fatalf("Failed to read archived file: %v", err)
	}
	if string(content) != "old package" {
		t.Errorf("Archived content = %q", content)
	}
}

func TestArchiveFileSameSecond(t *testing.T) {
	tmpDir := t.TempDir()
	pkg := filepath.Join(tmpDir, "deck.csv")
	modTime := time.Date(2025, 1, 1, 12, 0, 0, 0, time.Local)

	var paths []string
	for i := 0; i < 2; i++ {
		if err := os.WriteFile(pkg, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
		os.Chtimes(pkg, modTime, modTime)

		archived, err := ArchiveFile(pkg)
		if err != nil {
			t.Fatalf("ArchiveFile() error = %v", err)
		}
		paths = append(paths, archived)
	}

	if paths[0] == paths[1] {
		t.Errorf("second archive overwrote the first: %s", paths[0])
	}
	if !strings.HasSuffix(paths[1], ".csv") {
		t.Errorf("extension lost: %s", paths[1])
	}
}

func TestArchiveFileMissing(t *testing.T) {
	archived, err := ArchiveFile(filepath.Join(t.TempDir(), "missing.apkg"))
	if err != nil || archived != "" {
		t.Errorf("ArchiveFile(missing) = %q, %v", archived, err)
	}
}

func TestArchiveFileDirectory(t *testing.T) {
	if _, err := ArchiveFile(t.TempDir()); err == nil {
		t.Error("expected error for a directory")
	}
}
