package scratchpad

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/entrhq/funcbox/pkg/agent/memory/notes"
	"github.com/entrhq/funcbox/pkg/agent/tools"
)

func execute(t *testing.T, tool tools.Tool, args string) (string, map[string]interface{}) {
	t.Helper()
	out, meta, err := tool.Execute(context.Background(), []byte("<arguments>"+args+"</arguments>"))
	if err != nil {
		t.Fatalf("%s: unexpected error: %v", tool.Name(), err)
	}
	return out, meta
}

func mustAdd(t *testing.T, m *notes.Manager, title string, tags ...string) *notes.Note {
	t.Helper()
	note, err := m.Add(title, "content of "+title, tags)
	if err != nil {
		t.Fatalf("Add(%q) error = %v", title, err)
	}
	return note
}

func TestAll(t *testing.T) {
	manager := notes.NewManager()
	var names []string
	for _, tool := range All(manager) {
		names = append(names, tool.Name())
		if tool.IsLoopBreaking() {
			t.Errorf("%s should not break the loop", tool.Name())
		}
		if tool.Description() == "" {
			t.Errorf("%s has no description", tool.Name())
		}
		if tool.Schema()["type"] != "object" {
			t.Errorf("%s schema type = %v, want object", tool.Name(), tool.Schema()["type"])
		}
	}
	sort.Strings(names)
	want := []string{"add_note", "archive_note", "delete_note", "list_notes", "list_tags", "search_notes", "update_note"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Errorf("tool names = %v, want %v", names, want)
	}
}

func TestAddNoteTool(t *testing.T) {
	manager := notes.NewManager()
	tool := NewAddNoteTool(manager)

	out, meta := execute(t, tool, `<title>Rates</title><content>EUR to USD is 1.1</content><tags><tag>Finance</tag><tag>fx</tag></tags>`)
	if !strings.Contains(out, "Rates") {
		t.Errorf("output %q should mention the title", out)
	}
	if meta["total_notes"] != 1 {
		t.Errorf("total_notes = %v, want 1", meta["total_notes"])
	}

	list := manager.List(notes.ListOptions{})
	if len(list) != 1 {
		t.Fatalf("store has %d notes, want 1", len(list))
	}
	if got := strings.Join(list[0].Tags, ","); got != "finance,fx" {
		t.Errorf("tags = %q, want finance,fx", got)
	}
	if list[0].ID != meta["note_id"] {
		t.Errorf("note_id = %v, want %s", meta["note_id"], list[0].ID)
	}
}

func TestAddNoteTool_Errors(t *testing.T) {
	tool := NewAddNoteTool(notes.NewManager())
	tests := []struct {
		name string
		args string
	}{
		{"missing title", `<content>body</content>`},
		{"title too long", `<title>` + strings.Repeat("x", notes.MaxTitleLength+1) + `</title>`},
		{"malformed", `<title>unclosed`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := tool.Execute(context.Background(), []byte("<arguments>"+tt.args+"</arguments>")); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestListAndSearchNotes(t *testing.T) {
	manager := notes.NewManager()
	mustAdd(t, manager, "alpha", "work")
	mustAdd(t, manager, "beta", "work", "urgent")
	archived := mustAdd(t, manager, "gamma", "work")
	if _, err := manager.Archive(archived.ID); err != nil {
		t.Fatal(err)
	}

	list := NewListNotesTool(manager)
	out, meta := execute(t, list, `<tags><tag>work</tag></tags>`)
	if meta["note_count"] != 2 {
		t.Errorf("note_count = %v, want 2", meta["note_count"])
	}
	if strings.Contains(out, "gamma") {
		t.Errorf("archived note listed: %q", out)
	}

	_, meta = execute(t, list, `<include_archived>true</include_archived>`)
	if meta["note_count"] != 3 {
		t.Errorf("note_count with archived = %v, want 3", meta["note_count"])
	}

	search := NewSearchNotesTool(manager)
	out, meta = execute(t, search, `<query>GAMMA</query>`)
	if meta["result_count"] != 1 || !strings.Contains(out, "[ARCHIVED]") {
		t.Errorf("search archived = %q (%v)", out, meta)
	}

	out, meta = execute(t, search, `<tags><tag>work</tag><tag>urgent</tag></tags>`)
	if meta["result_count"] != 1 || !strings.Contains(out, "beta") {
		t.Errorf("search by tags = %q (%v)", out, meta)
	}

	out, _ = execute(t, search, `<query>nothing like this</query>`)
	if out != "No notes found." {
		t.Errorf("empty search = %q", out)
	}
}

func TestListTagsTool(t *testing.T) {
	manager := notes.NewManager()
	tool := NewListTagsTool(manager)

	out, _ := execute(t, tool, "")
	if out != "No tags in use." {
		t.Errorf("empty store = %q", out)
	}

	mustAdd(t, manager, "one", "zeta", "alpha")
	mustAdd(t, manager, "two", "alpha")
	out, meta := execute(t, tool, "")
	if out != "Tags in use (2): alpha, zeta" {
		t.Errorf("output = %q", out)
	}
	if meta["tag_count"] != 2 {
		t.Errorf("tag_count = %v, want 2", meta["tag_count"])
	}
}

func TestUpdateNoteTool(t *testing.T) {
	manager := notes.NewManager()
	note := mustAdd(t, manager, "draft", "todo")
	tool := NewUpdateNoteTool(manager)

	out, meta := execute(t, tool, `<id>`+note.ID+`</id><content>final</content><tags/>`)
	if !strings.Contains(out, "content, tags") {
		t.Errorf("output = %q", out)
	}
	if tags := meta["tags"].([]string); len(tags) != 0 {
		t.Errorf("tags = %v, want cleared", tags)
	}

	got, err := manager.Get(note.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "draft" || got.Content != "final" {
		t.Errorf("note = %+v", got)
	}

	if _, _, err := tool.Execute(context.Background(), []byte(`<arguments><id>`+note.ID+`</id></arguments>`)); err == nil {
		t.Error("expected an error when nothing changes")
	}
	_, _, err = tool.Execute(context.Background(), []byte(`<arguments><id>note_missing</id><title>x</title></arguments>`))
	if !errors.Is(err, notes.ErrNotFound) {
		t.Errorf("missing note error = %v, want ErrNotFound", err)
	}
}

func TestArchiveAndDeleteNote(t *testing.T) {
	manager := notes.NewManager()
	note := mustAdd(t, manager, "old", "misc")

	execute(t, NewArchiveNoteTool(manager), `<id>`+note.ID+`</id>`)
	if got := manager.List(notes.ListOptions{}); len(got) != 0 {
		t.Errorf("archived note still listed: %v", got)
	}
	if got := manager.ListTags(); len(got) != 0 {
		t.Errorf("archived note tags still listed: %v", got)
	}

	del := NewDeleteNoteTool(manager)
	_, meta := execute(t, del, `<id>`+note.ID+`</id>`)
	if meta["total_notes"] != 0 {
		t.Errorf("total_notes = %v, want 0", meta["total_notes"])
	}
	_, _, err := del.Execute(context.Background(), []byte(`<arguments><id>`+note.ID+`</id></arguments>`))
	if !errors.Is(err, notes.ErrNotFound) {
		t.Errorf("second delete error = %v, want ErrNotFound", err)
	}
	if _, _, err := del.Execute(context.Background(), []byte(`<arguments></arguments>`)); err == nil {
		t.Error("expected an error for a missing id")
	}
}

func TestRegistryDispatch(t *testing.T) {
	manager := notes.NewManager()
	registry := tools.NewRegistry(All(manager)...)

	out, _, err := registry.Dispatch(context.Background(), `<tool>
<tool_name>add_note</tool_name>
<arguments><title>Q&A</title><content>ask & answer</content></arguments>
</tool>`)
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if !strings.Contains(out, "Q&A") {
		t.Errorf("output = %q", out)
	}
	if manager.Count() != 1 {
		t.Errorf("Count() = %d, want 1", manager.Count())
	}
}
