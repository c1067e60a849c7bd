package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNotFound is returned by a Store when no settings record has been
// persisted yet. The manager treats it as "use defaults", not as a failure.
var ErrNotFound = errors.New("settings record not found")

// Store persists a single settings record. Implementations: FileStore here,
// the sqlite-backed store in internal/db, and MemoryStore for tests.
// Any other failure than ErrNotFound must be surfaced to the caller;
// silently losing calibration state is safety-relevant.
type Store interface {
	Load() (*DetectionConfig, error)
	Save(*DetectionConfig) error
}

// FileStore persists the settings record as a flat JSON file.
type FileStore struct {
	Path string
}

// NewFileStore creates a file-backed settings store at the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// Load reads and parses the persisted record, or ErrNotFound if the file
// does not exist yet.
func (s *FileStore) Load() (*DetectionConfig, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}
	cfg := EmptyDetectionConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse settings file: %w", err)
	}
	return cfg, nil
}

// Save writes the record atomically: marshal to a temp file in the same
// directory, then rename over the target.
func (s *FileStore) Save(cfg *DetectionConfig) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	dir := filepath.Dir(s.Path)
	tmp, err := os.CreateTemp(dir, ".settings-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp settings file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close settings file: %w", err)
	}
	if err := os.Rename(tmpName, s.Path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace settings file: %w", err)
	}
	return nil
}

// MemoryStore keeps the settings record in memory. Used by tests and by
// validation runs that must not touch persisted state.
type MemoryStore struct {
	cfg *DetectionConfig

	// FailNext simulates a persistence failure on the next Save call.
	FailNext error
}

// NewMemoryStore creates an empty in-memory settings store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load() (*DetectionConfig, error) {
	if s.cfg == nil {
		return nil, ErrNotFound
	}
	return s.cfg.Clone(), nil
}

func (s *MemoryStore) Save(cfg *DetectionConfig) error {
	if s.FailNext != nil {
		err := s.FailNext
		s.FailNext = nil
		return err
	}
	s.cfg = cfg.Clone()
	return nil
}
