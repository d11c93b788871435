// Package archive keeps earlier export packages when a new one is written
// to the same path.
package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Dir is the name of the archive directory, next to the archived file
const Dir = "archive"

// ArchiveFile moves path into an archive directory beside it with a
// timestamped name and returns the new location. A missing file is not
// an error and returns "".
func ArchiveFile(path string) (string, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("not a file: %s", path)
	}

	archiveDir := filepath.Join(filepath.Dir(path), Dir)

	// Create archive directory if it doesn't exist
	if err := os.MkdirAll(archiveDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(filepath.Base(path), ext)

	timestamp := info.ModTime().Format("20060102-150405")
	archivePath := filepath.Join(archiveDir, fmt.Sprintf("%s-%s%s", stem, timestamp, ext))

	// Check if archive already exists (two exports within a second)
	if _, err := os.Stat(archivePath); err == nil {
		timestamp = time.Now().Format("20060102-150405.000000")
		archivePath = filepath.Join(archiveDir, fmt.Sprintf("%s-%s%s", stem, timestamp, ext))
	}

	if err := os.Rename(path, archivePath); err != nil {
		return "", fmt.Errorf("failed to archive %s: %w", path, err)
	}
	return archivePath, nil
}
