package editor

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"atelier/portal/internal/backend"
	"atelier/portal/internal/logging"
)

type upstreamCall struct {
	projectID ID
	body      []byte
}

type fakeUpstream struct {
	mu       sync.Mutex
	tree     string
	treeErr  error
	createFn func(body []byte) (ID, error)
	patchFn  func(projectID ID, body []byte) error
	// draftFn answers one-field draft autosaves, which are POSTs as well.
	draftFn func(body []byte) error
	creates []upstreamCall
	drafts  []upstreamCall
	patches []upstreamCall
}

func (f *fakeUpstream) GetProjectTree(context.Context, ID) (json.RawMessage, error) {
	if f.treeErr != nil {
		return nil, f.treeErr
	}
	return json.RawMessage(f.tree), nil
}

func (f *fakeUpstream) CreateProject(_ context.Context, body any) (ID, error) {
	raw, _ := json.Marshal(body)
	if _, isField := body.(map[Field]any); isField {
		f.mu.Lock()
		f.drafts = append(f.drafts, upstreamCall{body: raw})
		fn := f.draftFn
		f.mu.Unlock()
		if fn == nil {
			return "", nil
		}
		return "", fn(raw)
	}
	f.mu.Lock()
	f.creates = append(f.creates, upstreamCall{body: raw})
	fn := f.createFn
	f.mu.Unlock()
	if fn == nil {
		return "101", nil
	}
	return fn(raw)
}

func (f *fakeUpstream) PatchProject(_ context.Context, projectID ID, body any) error {
	raw, _ := json.Marshal(body)
	f.mu.Lock()
	f.patches = append(f.patches, upstreamCall{projectID: projectID, body: raw})
	fn := f.patchFn
	f.mu.Unlock()
	if fn == nil {
		return nil
	}
	return fn(projectID, raw)
}

func (f *fakeUpstream) calls() (creates, patches []upstreamCall) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]upstreamCall(nil), f.creates...), append([]upstreamCall(nil), f.patches...)
}

func (f *fakeUpstream) draftCalls() []upstreamCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]upstreamCall(nil), f.drafts...)
}

type fakeChoices struct {
	groups backend.StandardGroups
	err    error
}

func (f fakeChoices) Choices(context.Context) (backend.StandardGroups, error) {
	return f.groups, f.err
}

var testChoices = fakeChoices{groups: backend.StandardGroups{
	ApplicationTypes: []string{"Residential", "Villa", "Commercial"},
	ResidentialTypes: []string{"Tower"},
	FlatTypes:        []string{"2BHK", "3BHK"},
}}

func newTestRegistry(up *fakeUpstream, journal Journal) *Registry {
	return NewRegistry(Deps{
		Upstream: up,
		Choices:  testChoices,
		Journal:  journal,
		Logger:   logging.Discard(),
	})
}

func openDraft(t *testing.T, up *fakeUpstream) *Editor {
	t.Helper()
	ed, err := newTestRegistry(up, nil).Open(context.Background(), "owner@atelier.test", "ses-1", "")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return ed
}

func openExisting(t *testing.T, up *fakeUpstream, projectID ID) *Editor {
	t.Helper()
	ed, err := newTestRegistry(up, nil).Open(context.Background(), "owner@atelier.test", "ses-1", projectID)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return ed
}

// mustID wraps an (ID, error) producing call: mustID(t)(ed.AddBuilding()).
func mustID(t *testing.T) func(ID, error) ID {
	return func(id ID, err error) ID {
		t.Helper()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if id.IsZero() {
			t.Fatal("expected a new id")
		}
		return id
	}
}

func ptr[T any](v T) *T { return &v }

var errBoom = errors.New("boom")
