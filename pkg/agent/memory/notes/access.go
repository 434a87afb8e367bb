package notes

import (
	"context"
	"errors"

	"github.com/entrhq/funcbox/pkg/function/capability"
)

var _ capability.NoteAccess = (*Manager)(nil)

func toCapability(n *Note) *capability.Note {
	return &capability.Note{
		ID:        n.ID,
		Title:     n.Title,
		Content:   n.Content,
		Tags:      append([]string{}, n.Tags...),
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}

func toCapabilityList(list []*Note) []*capability.Note {
	out := make([]*capability.Note, len(list))
	for i, n := range list {
		out[i] = toCapability(n)
	}
	return out
}

func notFound(err error) error {
	if errors.Is(err, ErrNotFound) {
		return capability.ErrNoteNotFound
	}
	return err
}

// GetNote implements capability.NoteAccess.
func (m *Manager) GetNote(ctx context.Context, id string) (*capability.Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n, err := m.Get(id)
	if err != nil {
		return nil, notFound(err)
	}
	return toCapability(n), nil
}

// CreateNote implements capability.NoteAccess.
func (m *Manager) CreateNote(ctx context.Context, in capability.NoteInput) (*capability.Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n, err := m.Add(in.Title, in.Content, in.Tags)
	if err != nil {
		return nil, err
	}
	return toCapability(n), nil
}

// UpdateNote implements capability.NoteAccess.
func (m *Manager) UpdateNote(ctx context.Context, id string, in capability.NoteUpdate) (*capability.Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n, err := m.Update(id, Changes{Title: in.Title, Content: in.Content, Tags: in.Tags})
	if err != nil {
		return nil, notFound(err)
	}
	return toCapability(n), nil
}

// DeleteNote implements capability.NoteAccess.
func (m *Manager) DeleteNote(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return m.Delete(id), nil
}

// ListNotes implements capability.NoteAccess.
func (m *Manager) ListNotes(ctx context.Context, q capability.NoteQuery) ([]*capability.Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return toCapabilityList(m.List(ListOptions{Tags: q.Tags, Limit: q.Limit})), nil
}

// SearchNotes implements capability.NoteAccess.
func (m *Manager) SearchNotes(ctx context.Context, text string, q capability.NoteQuery) ([]*capability.Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return toCapabilityList(m.Search(SearchOptions{Query: text, Tags: q.Tags, Limit: q.Limit})), nil
}

// NoteTags implements capability.NoteAccess.
func (m *Manager) NoteTags(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m.ListTags(), nil
}
