package audio

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"codeberg.org/snonux/ankilex/internal/fetch"
)

// Fetcher downloads pronunciation audio into a cache directory
type Fetcher struct {
	client   *fetch.Client
	cacheDir string
	logger   *zap.Logger
}

// NewFetcher creates a fetcher caching under cacheDir
func NewFetcher(client *fetch.Client, cacheDir string, logger *zap.Logger) (*Fetcher, error) {
	if cacheDir == "" {
		return nil, errors.New("audio cache directory is required")
	}
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{client: client, cacheDir: cacheDir, logger: logger}, nil
}

// Fetch returns the local path of the audio at url, downloading it on a cache miss
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	if url == "" {
		return "", errors.New("audio URL is empty")
	}

	path := f.CachePath(url)
	if info, err := os.Stat(path); err == nil && info.Size() > 0 {
		f.logger.Debug("Audio cache hit", zap.String("url", url))
		return path, nil
	}

	data, err := f.client.Get(ctx, url)
	if err != nil {
		return "", fmt.Errorf("failed to download audio: %w", err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("no audio data received from %s", url)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create cache directory: %w", err)
	}

	// Write then rename so an interrupted download never looks like a cache hit
	tmp := path + ".part"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write audio file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to write audio file: %w", err)
	}

	f.logger.Debug("Audio downloaded", zap.String("url", url), zap.Int("bytes", len(data)))
	return path, nil
}

// CachePath returns where the audio for url is cached
func (f *Fetcher) CachePath(url string) string {
	sum := md5.Sum([]byte(url))
	hash := hex.EncodeToString(sum[:])

	// First 2 chars as subdirectory keeps directories small
	return filepath.Join(f.cacheDir, hash[:2], hash[2:]+".mp3")
}

// ClearCache removes all cached audio files
func (f *Fetcher) ClearCache() error {
	return os.RemoveAll(f.cacheDir)
}

// CacheStats returns the number and total size of cached files
func (f *Fetcher) CacheStats() (fileCount int, totalSize int64, err error) {
	err = filepath.Walk(f.cacheDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			fileCount++
			totalSize += info.Size()
		}
		return nil
	})
	return fileCount, totalSize, err
}
