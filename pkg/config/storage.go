package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
)

const (
	// SectionIDStorage is the identifier for the storage section
	SectionIDStorage = "storage"

	// Storage backends
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// StorageSection selects where function definitions are persisted.
type StorageSection struct {
	Backend string
	// Path is the definitions file or database. Empty means the default
	// under ~/.funcbox for the backend.
	Path string
	mu   sync.RWMutex
}

// NewStorageSection creates a storage section using the JSON backend.
func NewStorageSection() *StorageSection {
	return &StorageSection{Backend: BackendJSON}
}

// ID returns the section identifier.
func (s *StorageSection) ID() string {
	return SectionIDStorage
}

// Title returns the section title.
func (s *StorageSection) Title() string {
	return "Storage"
}

// Description returns the section description.
func (s *StorageSection) Description() string {
	return "Where custom function definitions are kept: a JSON document or a SQLite database."
}

// Data returns the current configuration data.
func (s *StorageSection) Data() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]interface{}{
		"backend": s.Backend,
		"path":    s.Path,
	}
}

// SetData updates the configuration from the provided data.
func (s *StorageSection) SetData(data map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, value := range data {
		switch key {
		case "backend":
			v, err := stringValue(key, value)
			if err != nil {
				return err
			}
			s.Backend = strings.ToLower(strings.TrimSpace(v))
		case "path":
			v, err := stringValue(key, value)
			if err != nil {
				return err
			}
			s.Path = strings.TrimSpace(v)
		}
	}
	return nil
}

// Validate validates the current configuration.
func (s *StorageSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch s.Backend {
	case BackendJSON, BackendSQLite:
		return nil
	default:
		return fmt.Errorf("backend must be %q or %q, got %q", BackendJSON, BackendSQLite, s.Backend)
	}
}

// Reset resets the section to default configuration.
func (s *StorageSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Backend = BackendJSON
	s.Path = ""
}

// Location returns the backend and the resolved storage path.
func (s *StorageSection) Location() (string, string, error) {
	s.mu.RLock()
	backend, path := s.Backend, s.Path
	s.mu.RUnlock()

	if path != "" {
		return backend, path, nil
	}
	dir, err := DefaultDir()
	if err != nil {
		return "", "", err
	}
	if backend == BackendSQLite {
		return backend, filepath.Join(dir, "functions.db"), nil
	}
	return backend, filepath.Join(dir, "functions.json"), nil
}
