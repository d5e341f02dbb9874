package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

type filterFile struct {
	Filters []string `json:"filters"`
}

// JSONFile implements Storage as a single JSON document replaced on every save.
type JSONFile struct {
	path string
}

// NewJSONFile returns a store backed by the file at path.
// The file does not need to exist yet.
func NewJSONFile(path string) *JSONFile {
	return &JSONFile{path: path}
}

// Path returns the backing file location.
func (s *JSONFile) Path() string {
	return s.path
}

// LoadFilters reads the filter list. A missing file yields an empty list.
func (s *JSONFile) LoadFilters(_ context.Context) ([]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("read filters: %w", err)
	}

	var doc filterFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse filters %s: %w", s.path, err)
	}
	if doc.Filters == nil {
		return []string{}, nil
	}
	return doc.Filters, nil
}

// SaveFilters replaces the whole file. The new content is written to a
// temporary file in the same directory and renamed over the old one.
func (s *JSONFile) SaveFilters(_ context.Context, filters []string) error {
	if filters == nil {
		filters = []string{}
	}
	data, err := json.MarshalIndent(filterFile{Filters: filters}, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal filters: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create filters directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".filters-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write filters: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync filters: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close filters: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace filters: %w", err)
	}
	return nil
}

// Close is a no-op; the file is opened per call.
func (s *JSONFile) Close() error {
	return nil
}
