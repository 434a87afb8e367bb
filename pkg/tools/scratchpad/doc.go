// Package scratchpad provides agent tools over the host note store.
//
// The same notes.Manager backs the notes capability inside function bodies,
// so a note a custom function writes with notes.add is visible to list_notes
// and search_notes, and the other way round.
//
// Tool Overview:
//
// add_note: Create a note with a title, content and up to ten tags
//
// search_notes: Find notes whose title or content contains a query, optionally filtered by tags
//
// list_notes: List active notes, most recently updated first
//
// list_tags: List the tags in use across active notes
//
// update_note: Change a note's title, content and/or tags by ID
//
// archive_note: Hide a note from list and search without deleting it
//
// delete_note: Permanently remove a note
//
// Usage Example:
//
//	manager := notes.NewManager()
//	registry := tools.NewRegistry(scratchpad.All(manager)...)
package scratchpad
