package notes

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/funcbox/pkg/function/capability"
)

func TestNoteAccess(t *testing.T) {
	ctx := context.Background()
	m := NewManager()

	created, err := m.CreateNote(ctx, capability.NoteInput{Title: "Plan", Content: "draft", Tags: []string{"Work"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"work"}, created.Tags)

	got, err := m.GetNote(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Plan", got.Title)

	_, err = m.GetNote(ctx, "missing")
	assert.ErrorIs(t, err, capability.ErrNoteNotFound)

	title := "Final plan"
	updated, err := m.UpdateNote(ctx, created.ID, capability.NoteUpdate{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Final plan", updated.Title)
	assert.Equal(t, "draft", updated.Content)

	_, err = m.UpdateNote(ctx, "missing", capability.NoteUpdate{Title: &title})
	assert.ErrorIs(t, err, capability.ErrNoteNotFound)

	listed, err := m.ListNotes(ctx, capability.NoteQuery{Tags: []string{"work"}})
	require.NoError(t, err)
	assert.Len(t, listed, 1)

	found, err := m.SearchNotes(ctx, "final", capability.NoteQuery{})
	require.NoError(t, err)
	assert.Len(t, found, 1)

	tags, err := m.NoteTags(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"work"}, tags)

	removed, err := m.DeleteNote(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = m.DeleteNote(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestNoteAccessCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := NewManager()
	_, err := m.CreateNote(ctx, capability.NoteInput{Title: "x"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, m.Count())
}
