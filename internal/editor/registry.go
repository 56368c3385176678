package editor

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"atelier/portal/internal/util"
)

var ErrEditorNotFound = errors.New("editor not found")

// Deps are shared by every editor a Registry creates. IDs and Journal
// default to UUIDs and an in-memory journal.
type Deps struct {
	Upstream Upstream
	Choices  ChoiceSource
	Journal  Journal
	IDs      IDGenerator
	Logger   *slog.Logger
}

// Registry holds at most one editor per owner. Opening a new editor
// replaces the owner's previous one.
type Registry struct {
	deps Deps

	mu      sync.Mutex
	byID    map[string]*Editor
	byOwner map[string]string
}

func NewRegistry(deps Deps) *Registry {
	if deps.IDs == nil {
		deps.IDs = UUIDs{}
	}
	if deps.Journal == nil {
		deps.Journal = NewMemoryJournal(1000)
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Registry{
		deps:    deps,
		byID:    map[string]*Editor{},
		byOwner: map[string]string{},
	}
}

// Open registers a fresh editor for owner, opened from session, and loads
// it. The editor is returned even when loading fails; it is then in the
// error state.
func (r *Registry) Open(ctx context.Context, owner, session string, projectID ID) (*Editor, error) {
	ed := newEditor(util.NewID("ed"), owner, session, r.deps)

	r.mu.Lock()
	if previous, ok := r.byOwner[owner]; ok {
		delete(r.byID, previous)
	}
	r.byID[ed.id] = ed
	r.byOwner[owner] = ed.id
	open := len(r.byID)
	r.mu.Unlock()

	r.deps.Logger.Debug("editor opened", "editor", ed.id, "project", projectID, "open_editors", open)

	return ed, ed.Open(ctx, projectID)
}

func (r *Registry) Get(owner, editorID string) (*Editor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ed, ok := r.byID[editorID]
	if !ok || ed.owner != owner {
		return nil, ErrEditorNotFound
	}
	return ed, nil
}

// Current returns the owner's editor, if any.
func (r *Registry) Current(owner string) (*Editor, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byOwner[owner]
	if !ok {
		return nil, false
	}
	return r.byID[id], true
}

// Close discards the editor. Autosaves still in flight finish on their own.
func (r *Registry) Close(owner, editorID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ed, ok := r.byID[editorID]
	if !ok || ed.owner != owner {
		return ErrEditorNotFound
	}
	delete(r.byID, editorID)
	if r.byOwner[owner] == editorID {
		delete(r.byOwner, owner)
	}
	return nil
}

// CloseSession discards the owner's editor if it was opened from session.
// An editor opened from another of the owner's sessions stays open.
func (r *Registry) CloseSession(owner, session string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byOwner[owner]
	if !ok || r.byID[id].session != session {
		return false
	}
	delete(r.byID, id)
	delete(r.byOwner, owner)
	return true
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}
