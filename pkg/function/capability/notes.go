package capability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dop251/goja"
)

// Note is the guest-visible shape of a note.
type Note struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NoteInput creates a note.
type NoteInput struct {
	Title   string
	Content string
	Tags    []string
}

// NoteUpdate changes the non-nil fields of a note.
type NoteUpdate struct {
	Title   *string
	Content *string
	Tags    *[]string
}

// NoteQuery narrows list and search results. Zero values match everything.
type NoteQuery struct {
	Tags  []string
	Limit int
}

// ErrNoteNotFound is returned by NoteAccess implementations for unknown ids.
var ErrNoteNotFound = errors.New("note not found")

// NoteAccess is the host note store as seen by sandboxed functions.
type NoteAccess interface {
	GetNote(ctx context.Context, id string) (*Note, error)
	CreateNote(ctx context.Context, in NoteInput) (*Note, error)
	UpdateNote(ctx context.Context, id string, in NoteUpdate) (*Note, error)
	DeleteNote(ctx context.Context, id string) (bool, error)
	ListNotes(ctx context.Context, q NoteQuery) ([]*Note, error)
	SearchNotes(ctx context.Context, text string, q NoteQuery) ([]*Note, error)
	NoteTags(ctx context.Context) ([]string, error)
}

// NotesCapability exposes a NoteAccess as the "notes" global:
//
//	notes.get(id)                       -> note or null
//	notes.create({title, content, tags}) -> note
//	notes.update(id, {title?, content?, tags?}) -> note
//	notes.delete(id)                    -> boolean
//	notes.list({tag?, tags?, limit?})   -> note[]
//	notes.search(text, {tags?, limit?}) -> note[]
//	notes.tags()                        -> string[]
type NotesCapability struct {
	Access NoteAccess
}

func (NotesCapability) Name() Name { return Notes }

func (c NotesCapability) Build(env *Env) (*goja.Object, error) {
	if c.Access == nil {
		return nil, fmt.Errorf("no note store")
	}
	rt, ctx := env.Runtime, env.Context
	obj := rt.NewObject()

	method(rt, obj, "get", func(call goja.FunctionCall) (interface{}, error) {
		note, err := c.Access.GetNote(ctx, argString(call, 0))
		if errors.Is(err, ErrNoteNotFound) {
			return nil, nil
		}
		return note, err
	})

	method(rt, obj, "create", func(call goja.FunctionCall) (interface{}, error) {
		fields := exportObject(call.Argument(0))
		if fields == nil {
			return nil, fmt.Errorf("notes.create expects an object {title, content, tags}")
		}
		in := NoteInput{}
		in.Title, _ = stringField(fields, "title")
		in.Content, _ = stringField(fields, "content")
		in.Tags, _ = stringsField(fields, "tags")
		return c.Access.CreateNote(ctx, in)
	})

	method(rt, obj, "update", func(call goja.FunctionCall) (interface{}, error) {
		fields := exportObject(call.Argument(1))
		if fields == nil {
			return nil, fmt.Errorf("notes.update expects an id and an object {title?, content?, tags?}")
		}
		var in NoteUpdate
		if s, ok := stringField(fields, "title"); ok {
			in.Title = &s
		}
		if s, ok := stringField(fields, "content"); ok {
			in.Content = &s
		}
		if tags, ok := stringsField(fields, "tags"); ok {
			in.Tags = &tags
		}
		return c.Access.UpdateNote(ctx, argString(call, 0), in)
	})

	method(rt, obj, "delete", func(call goja.FunctionCall) (interface{}, error) {
		return c.Access.DeleteNote(ctx, argString(call, 0))
	})

	method(rt, obj, "list", func(call goja.FunctionCall) (interface{}, error) {
		return c.Access.ListNotes(ctx, noteQuery(exportObject(call.Argument(0))))
	})

	method(rt, obj, "search", func(call goja.FunctionCall) (interface{}, error) {
		return c.Access.SearchNotes(ctx, argString(call, 0), noteQuery(exportObject(call.Argument(1))))
	})

	method(rt, obj, "tags", func(call goja.FunctionCall) (interface{}, error) {
		return c.Access.NoteTags(ctx)
	})

	return obj, nil
}

func noteQuery(fields map[string]interface{}) NoteQuery {
	var q NoteQuery
	if fields == nil {
		return q
	}
	if tag, ok := stringField(fields, "tag"); ok && tag != "" {
		q.Tags = append(q.Tags, tag)
	}
	if tags, ok := stringsField(fields, "tags"); ok {
		q.Tags = append(q.Tags, tags...)
	}
	q.Limit = intField(fields, "limit")
	return q
}
