package profile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Store persists raw candidate data as a single flat JSON document.
// Writes are last-write-wins; there is no schema versioning.
type Store struct {
	path string
}

// NewStore creates a Store rooted at the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads the candidate data document. A missing file is not an error and
// loads as an empty document.
func (s *Store) Load() (map[string]any, error) {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading candidate data: %w", err)
	}

	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parsing candidate data %q: %w", s.path, err)
	}
	if data == nil {
		data = map[string]any{}
	}

	return data, nil
}

// Save overwrites the candidate data document. The write goes through a
// temporary file and a rename so a concurrent reader never observes a
// partially written document.
func (s *Store) Save(data map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding candidate data: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".candidate_*.json")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing candidate data: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}

	return os.Rename(tmp.Name(), s.path)
}
