// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package staging persists the queue of downloaded-but-unprocessed papers
// between runs. The queue lives in a single JSON file next to the PDFs so
// a download-only pass and a later processing pass can hand off work.
package staging

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdiddy/paper-collector/pkg/types"
)

// FileName is the staging queue file, stored under the papers directory.
const FileName = "pending_papers.json"

// Store is the on-disk staging queue. Entries keep insertion order.
type Store struct {
	path    string
	entries []types.StagingEntry
}

// Open loads the staging queue from papersDir, returning an empty store
// when the file does not exist yet.
func Open(papersDir string) (*Store, error) {
	s := &Store{path: filepath.Join(papersDir, FileName)}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading staging file: %w", err)
	}

	if err := json.Unmarshal(data, &s.entries); err != nil {
		return nil, fmt.Errorf("parsing staging file %s: %w", s.path, err)
	}
	return s, nil
}

// Len returns the number of staged entries.
func (s *Store) Len() int { return len(s.entries) }

// Entries returns a copy of the staged entries in insertion order.
func (s *Store) Entries() []types.StagingEntry {
	out := make([]types.StagingEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Contains reports whether a paper ID is already staged.
func (s *Store) Contains(id string) bool {
	for _, e := range s.entries {
		if e.ID == id {
			return true
		}
	}
	return false
}

// Append stages an entry. Returns false without modifying the queue when
// the paper ID is already present.
func (s *Store) Append(e types.StagingEntry) bool {
	if s.Contains(e.ID) {
		return false
	}
	s.entries = append(s.entries, e)
	return true
}

// Remove drops the entry with the given ID, reporting whether it existed.
func (s *Store) Remove(id string) bool {
	for i, e := range s.entries {
		if e.ID == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Flush writes the queue to disk atomically via a temp file and rename.
func (s *Store) Flush() error {
	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding staging entries: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating staging directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".staging-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp staging file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing staging file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing staging file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing staging file: %w", err)
	}
	return nil
}
