package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Spool keeps attachment bytes on disk between the chat download and the
// remote upload. Files are short-lived: the upload path removes them after
// every attempt, and CleanupOlderThan sweeps anything left behind by crashes.
type Spool struct {
	baseDir string
}

// NewSpool ensures the base directory exists and returns a handle.
func NewSpool(baseDir string) (*Spool, error) {
	if baseDir == "" {
		baseDir = "./spool"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create spool directory: %w", err)
	}
	return &Spool{baseDir: baseDir}, nil
}

// Save writes the given bytes under the base dir and returns the filename.
func (s *Spool) Save(filename string, data []byte) (string, error) {
	path := s.resolve(filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write spool file: %w", err)
	}
	return filename, nil
}

// Open returns a read-only handle for the spooled file.
func (s *Spool) Open(filename string) (*os.File, error) {
	file, err := os.Open(s.resolve(filename))
	if err != nil {
		return nil, fmt.Errorf("open spool file: %w", err)
	}
	return file, nil
}

// Delete removes a spooled file if present.
func (s *Spool) Delete(filename string) error {
	if err := os.Remove(s.resolve(filename)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete spool file: %w", err)
	}
	return nil
}

// CleanupOlderThan removes files older than the provided TTL and returns
// deleted names.
func (s *Spool) CleanupOlderThan(ttl time.Duration) ([]string, error) {
	cutoff := time.Now().Add(-ttl)
	deleted := make([]string, 0)
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("cleanup spool: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("cleanup spool: %w", err)
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(s.resolve(entry.Name())); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("cleanup spool: %w", err)
		}
		deleted = append(deleted, entry.Name())
	}
	return deleted, nil
}

func (s *Spool) resolve(filename string) string {
	return filepath.Join(s.baseDir, filepath.Base(filename))
}
