package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/entrhq/funcbox/pkg/function"
)

// FilePersister stores the function set as a single JSON document.
type FilePersister struct {
	path string
}

// NewFilePersister creates a persister writing to path. The parent
// directory is created if needed.
func NewFilePersister(path string) (*FilePersister, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("store: init directory %s: %w", filepath.Dir(path), err)
	}
	return &FilePersister{path: path}, nil
}

// Path returns the document location.
func (p *FilePersister) Path() string {
	return p.path
}

func (p *FilePersister) Load(_ context.Context) (*Document, error) {
	data, err := os.ReadFile(p.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, function.WrapError(function.KindStorageCorrupted, err, "read %s", p.path)
	}

	doc, err := Unmarshal(data, EncodingJSON)
	if err != nil {
		return nil, function.WrapError(function.KindStorageCorrupted, err, "parse %s", p.path)
	}
	if issues := doc.Check(); len(issues) > 0 {
		e := function.NewError(function.KindStorageCorrupted, "%s: %s", p.path, issues[0].Message)
		e.Issues = issues
		return nil, e
	}
	return doc, nil
}

// Save writes the document atomically via a temporary file.
func (p *FilePersister) Save(_ context.Context, doc *Document) error {
	data, err := Marshal(doc, EncodingJSON)
	if err != nil {
		return err
	}
	tmp := p.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("store: write temp file: %w", err)
	}
	if err := os.Rename(tmp, p.path); err != nil {
		_ = os.Remove(tmp) // best-effort cleanup
		return fmt.Errorf("store: atomic rename %s: %w", p.path, err)
	}
	return nil
}
