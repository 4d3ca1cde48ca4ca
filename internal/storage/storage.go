// Package storage lays out session media on disk: one directory per session
// holding the uploaded original, the preview clip and the processed output.
package storage

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

const (
	sourcePrefix = "original_video"
	previewName  = "preview.mp4"
	outputName   = "processed_video.mp4"
)

// Store resolves and manages per-session media files under a root directory.
type Store struct {
	root string
}

// New creates the root directory if needed and returns a store over it.
func New(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &Store{root: root}, nil
}

// Root returns the storage root directory.
func (s *Store) Root() string {
	return s.root
}

// SessionDir returns the directory holding a session's files.
func (s *Store) SessionDir(id uuid.UUID) string {
	return filepath.Join(s.root, id.String())
}

// SaveSource streams an uploaded video into the session directory, keeping
// the upload's extension. It returns the stored path and the byte count.
func (s *Store) SaveSource(id uuid.UUID, ext string, r io.Reader) (string, int64, error) {
	dir := s.SessionDir(id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", 0, fmt.Errorf("create session dir: %w", err)
	}

	path := filepath.Join(dir, sourcePrefix+ext)
	f, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("create source file: %w", err)
	}

	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return "", 0, fmt.Errorf("write source file: %w", err)
	}
	return path, n, nil
}

// SourcePath returns where a session's original upload lives for the given
// extension.
func (s *Store) SourcePath(id uuid.UUID, ext string) string {
	return filepath.Join(s.SessionDir(id), sourcePrefix+ext)
}

// PreviewPath returns where a session's preview clip lives.
func (s *Store) PreviewPath(id uuid.UUID) string {
	return filepath.Join(s.SessionDir(id), previewName)
}

// OutputPath returns where a session's processed video lives.
func (s *Store) OutputPath(id uuid.UUID) string {
	return filepath.Join(s.SessionDir(id), outputName)
}

// Exists reports whether a file is present at path.
func (s *Store) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Remove deletes a session directory and everything in it.
func (s *Store) Remove(id uuid.UUID) error {
	if err := os.RemoveAll(s.SessionDir(id)); err != nil {
		return fmt.Errorf("remove session dir: %w", err)
	}
	return nil
}

// Usage walks the root and sums the size of all stored files.
func (s *Store) Usage() (int64, error) {
	var total int64
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Entries can vanish mid-walk when a sweep runs concurrently.
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		total += info.Size()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("walk storage root: %w", err)
	}
	return total, nil
}

// CheckWritable verifies the root accepts writes, for health reporting.
func (s *Store) CheckWritable() error {
	probe := filepath.Join(s.root, ".healthcheck")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		return fmt.Errorf("storage not writable: %w", err)
	}
	return os.Remove(probe)
}
