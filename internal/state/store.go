// Package state implements address book persistence to the filesystem.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/smileynet/contacts/internal/contact"
)

// ErrCorrupt indicates the state file exists but cannot be decoded.
var ErrCorrupt = errors.New("state: corrupt state file")

// Entry is one keyed record of a Snapshot.
type Entry struct {
	Key    string          `json:"key"`
	Record *contact.Record `json:"record"`
}

// Snapshot is the complete persisted content of an address book:
// records in insertion order and the last-used record identifier.
type Snapshot struct {
	Entries      []Entry `json:"records"`
	LastRecordID int     `json:"last_record_id"`
}

// FileStore persists a Snapshot as a single JSON file.
// It keeps no file handle open between calls.
type FileStore struct {
	path string
}

// NewFileStore creates a FileStore bound to path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the file the store reads and writes.
func (s *FileStore) Path() string { return s.path }

// Save replaces the state file with snap. The data is written to a temporary
// file in the same directory and renamed over the target, so a failed save
// leaves the previous file intact.
func (s *FileStore) Save(snap Snapshot) error {
	if snap.Entries == nil {
		snap.Entries = []Entry{}
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("state: creating directory: %w", err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("state: marshaling: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("state: creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("state: writing %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("state: closing %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("state: replacing %s: %w", s.path, err)
	}
	return nil
}

// Load reads the state file.
// Returns (snapshot, true, nil) if found, (zero, false, nil) if the file does
// not exist. Undecodable content returns an error wrapping ErrCorrupt.
func (s *FileStore) Load() (Snapshot, bool, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Snapshot{}, false, nil
		}
		return Snapshot{}, false, fmt.Errorf("state: reading %s: %w", s.path, err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, false, fmt.Errorf("%w: %s: %w", ErrCorrupt, s.path, err)
	}
	for i, e := range snap.Entries {
		if e.Record == nil {
			return Snapshot{}, false, fmt.Errorf("%w: %s: entry %d has no record", ErrCorrupt, s.path, i)
		}
	}
	return snap, true, nil
}

// Remove deletes the state file. Removing a missing file is not an error.
func (s *FileStore) Remove() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("state: removing %s: %w", s.path, err)
	}
	return nil
}
