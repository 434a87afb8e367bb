package store

import (
	"context"
	"sync"

	"github.com/entrhq/funcbox/pkg/function"
)

// Persister durably stores the whole function set. Save must be atomic:
// after a failed Save, Load returns the previously saved document.
type Persister interface {
	// Load returns the stored document, or nil when nothing has been saved
	// yet. Unreadable or unparseable data is reported as an error wrapping
	// function.ErrStorageCorrupted.
	Load(ctx context.Context) (*Document, error)

	// Save replaces the stored document.
	Save(ctx context.Context, doc *Document) error
}

// MemoryPersister keeps the document in memory. Documents are deep-copied
// on the way in and out.
type MemoryPersister struct {
	mu  sync.Mutex
	doc *Document

	// FailSave, when set, is returned by Save without storing anything.
	FailSave error
	saves    int
}

// NewMemoryPersister creates an empty in-memory persister.
func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{}
}

func (m *MemoryPersister) Load(_ context.Context) (*Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneDocument(m.doc), nil
}

func (m *MemoryPersister) Save(_ context.Context, doc *Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailSave != nil {
		return m.FailSave
	}
	m.doc = cloneDocument(doc)
	m.saves++
	return nil
}

// Saves reports how many successful saves have happened.
func (m *MemoryPersister) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func cloneDocument(doc *Document) *Document {
	if doc == nil {
		return nil
	}
	c := &Document{Version: doc.Version}
	if doc.ExportedAt != nil {
		t := *doc.ExportedAt
		c.ExportedAt = &t
	}
	c.Functions = make([]*function.Function, len(doc.Functions))
	for i, fn := range doc.Functions {
		c.Functions[i] = fn.Clone()
	}
	return c
}
