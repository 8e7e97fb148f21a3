// Package state persists the identifier of the most recently uploaded
// artwork so the next push can delete it from the TV before uploading.
//
// The record is a single plain-text file (last_content_id) under the state
// directory. There is exactly one record at a time: it is written only after
// an upload succeeds, so until then the previous identifier stays current for
// deletion purposes. The tool runs one invocation at a time, so no locking is
// provided; the last writer wins.
package state

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileName is the well-known name of the state file inside the state directory.
const FileName = "last_content_id"

// Store reads and writes the last-uploaded content identifier.
type Store struct {
	path string
}

// NewStore returns a Store backed by the file last_content_id inside dir.
func NewStore(dir string) *Store {
	return &Store{path: filepath.Join(dir, FileName)}
}

// Path returns the location of the state file.
func (s *Store) Path() string { return s.path }

// Read returns the stored content identifier with surrounding whitespace
// stripped, or the empty string when no state file exists.
func (s *Store) Read() (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read state file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Write overwrites the state file with exactly the given identifier,
// creating the containing directory if needed.
func (s *Store) Write(id string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0750); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(id), 0600); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	return nil
}
