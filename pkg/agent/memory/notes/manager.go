package notes

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrNotFound is returned for unknown note IDs.
var ErrNotFound = errors.New("note not found")

// DefaultLimit caps List and Search when no limit is given.
const DefaultLimit = 50

// Manager handles CRUD operations and search for notes.
// All operations are thread-safe; notes live in memory.
type Manager struct {
	notes map[string]*Note
	mu    sync.RWMutex
}

// NewManager creates a new notes manager
func NewManager() *Manager {
	return &Manager{
		notes: make(map[string]*Note),
	}
}

// Add creates a new note
func (m *Manager) Add(title, content string, tags []string) (*Note, error) {
	note, err := NewNote(title, content, tags)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.notes[note.ID] = note
	return note.clone(), nil
}

// Get retrieves a copy of a note by ID
func (m *Manager) Get(id string) (*Note, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	note, exists := m.notes[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return note.clone(), nil
}

// Update modifies an existing note
func (m *Manager) Update(id string, c Changes) (*Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	note, exists := m.notes[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err := note.Update(c); err != nil {
		return nil, err
	}
	return note.clone(), nil
}

// Delete removes a note by ID. It reports whether a note was removed.
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.notes[id]; !exists {
		return false
	}
	delete(m.notes, id)
	return true
}

// Archive hides a note from list and search
func (m *Manager) Archive(id string) (*Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	note, exists := m.notes[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	note.Archive()
	return note.clone(), nil
}

// ListOptions configures the List operation
type ListOptions struct {
	Tags            []string // notes must carry all of these
	IncludeArchived bool
	Limit           int // default DefaultLimit
}

// List retrieves notes, most recently updated first
func (m *Manager) List(opts ListOptions) []*Note {
	return m.Search(SearchOptions{
		Tags:            opts.Tags,
		IncludeArchived: opts.IncludeArchived,
		Limit:           opts.Limit,
	})
}

// SearchOptions configures the Search operation
type SearchOptions struct {
	Query           string   // matched against title and content, case-insensitive
	Tags            []string // notes must carry all of these
	IncludeArchived bool
	Limit           int // default DefaultLimit
}

// Search finds notes matching the query and tags, most recently updated first
func (m *Manager) Search(opts SearchOptions) []*Note {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}

	result := make([]*Note, 0)
	for _, note := range m.notes {
		if note.Archived && !opts.IncludeArchived {
			continue
		}
		if !note.ContainsText(opts.Query) || !note.MatchesAllTags(opts.Tags) {
			continue
		}
		result = append(result, note.clone())
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].UpdatedAt.Equal(result[j].UpdatedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].UpdatedAt.After(result[j].UpdatedAt)
	})

	if len(result) > opts.Limit {
		result = result[:opts.Limit]
	}
	return result
}

// ListTags returns all unique tags on active notes, sorted
func (m *Manager) ListTags() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tagSet := make(map[string]bool)
	for _, note := range m.notes {
		if note.Archived {
			continue
		}
		for _, tag := range note.Tags {
			tagSet[tag] = true
		}
	}

	tags := make([]string, 0, len(tagSet))
	for tag := range tagSet {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Count returns the total number of notes (including archived)
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.notes)
}

// Clear removes all notes from the manager
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.notes = make(map[string]*Note)
}
