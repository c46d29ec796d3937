package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
)

const tempPattern = ".immich-dl-*.tmp"

// Manager lays out album directories under one root and writes asset files
// into them
type Manager struct {
	rootDir string
	saved   int64
}

// NewManager creates a new storage manager, creating rootDir if it is missing
func NewManager(rootDir string) (*Manager, error) {
	if err := os.MkdirAll(rootDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	return &Manager{rootDir: rootDir}, nil
}

// SafeName makes a single path element out of a name taken from the server.
// Separators become underscores and "." or ".." are rejected by prefixing.
func SafeName(name string) string {
	name = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == 0 {
			return '_'
		}
		return r
	}, name)

	if name == "." || name == ".." {
		return "_" + name
	}
	return name
}

// AlbumDir returns the directory for an album, creating it if missing
func (m *Manager) AlbumDir(albumName string) (string, error) {
	dir := filepath.Join(m.rootDir, SafeName(albumName))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create album directory %s: %w", dir, err)
	}
	return dir, nil
}

// SaveAsset writes r to albumDir/fileName, replacing any existing file of
// that name. Content goes to a temporary file first and is renamed into place.
func (m *Manager) SaveAsset(r io.Reader, albumDir, fileName string) (string, error) {
	filename := filepath.Join(albumDir, SafeName(fileName))

	// fixed-length temp name so a file name at the length limit still fits
	out, err := os.CreateTemp(albumDir, tempPattern)
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}
	tempFile := out.Name()

	_, err = io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("failed to save asset data: %w", err)
	}

	if closeErr != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Chmod(tempFile, 0644); err != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("failed to set file mode: %w", err)
	}

	if err := os.Rename(tempFile, filename); err != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("failed to rename temporary file: %w", err)
	}

	atomic.AddInt64(&m.saved, 1)
	return filename, nil
}

// GetRootDir returns the output root directory
func (m *Manager) GetRootDir() string {
	return m.rootDir
}

// GetSavedCount returns the number of files written by this manager
func (m *Manager) GetSavedCount() int {
	return int(atomic.LoadInt64(&m.saved))
}
