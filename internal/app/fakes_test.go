package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"atelier/portal/internal/backend"
	"atelier/portal/internal/board"
	"atelier/portal/internal/catalog"
	"atelier/portal/internal/editor"
	"atelier/portal/internal/logging"
	"atelier/portal/internal/session"
)

// fakeBackend stands in for every upstream the portal talks to.
type fakeBackend struct {
	mu sync.Mutex

	levels  map[string]string
	syncErr error

	tree       string
	treeErr    error
	createID   backend.ID
	createErr  error
	patchErr   error
	created    [][]byte
	fieldPosts [][]byte
	patched    []backend.ID

	groups        backend.StandardGroups
	choiceFetches int
	standards     []backend.Standard
	writeErr      error
	writes        []string

	projects   []backend.ProjectSummary
	archived   []backend.ProjectSummary
	archiveErr error
	leads      []backend.User
	assigned   map[backend.ID]backend.ID
	mas        []backend.MASItem
	rfi        []backend.RFIItem
	masSummary []backend.MASSummaryRow
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		levels: map[string]string{
			"admin@atelier.test":  "SUPER_ADMIN",
			"l1@atelier.test":     "L1",
			"l2@atelier.test":     "L2",
			"l4@atelier.test":     "L4",
			"vendor@atelier.test": "VENDOR",
		},
		createID: "p-new",
		groups: backend.StandardGroups{
			ApplicationTypes: []string{"Residential", "Villa"},
			ResidentialTypes: []string{"Tower"},
			FlatTypes:        []string{"2BHK"},
		},
		standards: []backend.Standard{
			{ID: "s1", Category: backend.CategoryFlatType, Value: "2BHK", Description: "two bed", IsActive: true},
			{ID: "s2", Category: backend.CategoryApplicationType, Value: "Villa", IsActive: true},
		},
		projects: []backend.ProjectSummary{
			{ID: "p1", Name: "Marina Heights", LifecycleStage: "Concept"},
			{ID: "p2", Name: "Palm Court", LifecycleStage: "Tender"},
		},
		archived: []backend.ProjectSummary{},
		leads:    []backend.User{{ID: "u7", FullName: "Riya Lead", UserLevel: "L2"}},
		assigned: map[backend.ID]backend.ID{},
		mas:      []backend.MASItem{{ID: "m1", ProjectID: "p1", MaterialName: "Cement", Status: "Pending"}},
		rfi:      []backend.RFIItem{{ID: "r1", ProjectID: "p1", Title: "Slab depth", Status: "Open"}},
		masSummary: []backend.MASSummaryRow{
			{ProjectID: "p1", PendingCount: backend.NewNumber(1), ApprovedCount: backend.NewNumber(2), TotalCount: backend.NewNumber(3)},
		},
	}
}

func (f *fakeBackend) SyncUser(_ context.Context, email, displayName string) (backend.SyncedUser, error) {
	if f.syncErr != nil {
		return backend.SyncedUser{}, f.syncErr
	}
	return backend.SyncedUser{Email: email, FullName: displayName, UserLevel: f.levels[email]}, nil
}

func (f *fakeBackend) GetProjectTree(context.Context, backend.ID) (json.RawMessage, error) {
	if f.treeErr != nil {
		return nil, f.treeErr
	}
	return json.RawMessage(f.tree), nil
}

func (f *fakeBackend) CreateProject(_ context.Context, body any) (backend.ID, error) {
	raw, _ := json.Marshal(body)
	f.mu.Lock()
	defer f.mu.Unlock()
	// Draft autosaves post a single field; submits post the whole tree.
	if _, isField := body.(map[editor.Field]any); isField {
		f.fieldPosts = append(f.fieldPosts, raw)
		return "p-draft", f.createErr
	}
	f.created = append(f.created, raw)
	return f.createID, f.createErr
}

func (f *fakeBackend) PatchProject(_ context.Context, projectID backend.ID, _ any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.patched = append(f.patched, projectID)
	return f.patchErr
}

func (f *fakeBackend) ActiveStandards(context.Context) (backend.StandardGroups, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.choiceFetches++
	return f.groups, nil
}

func (f *fakeBackend) AllStandards(context.Context) ([]backend.Standard, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]backend.Standard(nil), f.standards...), nil
}

func (f *fakeBackend) CreateStandard(_ context.Context, in backend.StandardInput) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.writes = append(f.writes, "create:"+in.Value)
	f.standards = append(f.standards, backend.Standard{ID: "s-new", Category: in.Category, Value: in.Value, Description: in.Description, IsActive: true})
	return nil
}

func (f *fakeBackend) UpdateStandard(_ context.Context, id backend.ID, patch backend.StandardPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.writes = append(f.writes, "update:"+id.String())
	for i := range f.standards {
		if f.standards[i].ID != id {
			continue
		}
		if patch.Value != nil {
			f.standards[i].Value = *patch.Value
		}
		if patch.Description != nil {
			f.standards[i].Description = *patch.Description
		}
		if patch.IsActive != nil {
			f.standards[i].IsActive = *patch.IsActive
		}
	}
	return nil
}

func (f *fakeBackend) DeleteStandard(_ context.Context, id backend.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.writes = append(f.writes, "delete:"+id.String())
	kept := f.standards[:0]
	for _, s := range f.standards {
		if s.ID != id {
			kept = append(kept, s)
		}
	}
	f.standards = kept
	return nil
}

func (f *fakeBackend) ListProjects(context.Context, string) ([]backend.ProjectSummary, error) {
	return append([]backend.ProjectSummary(nil), f.projects...), nil
}

func (f *fakeBackend) ListArchivedProjects(context.Context) ([]backend.ProjectSummary, error) {
	return append([]backend.ProjectSummary(nil), f.archived...), nil
}

func (f *fakeBackend) ArchiveProject(context.Context, backend.ID, string) error {
	return f.archiveErr
}

func (f *fakeBackend) UsersByLevel(context.Context, string) ([]backend.User, error) {
	return f.leads, nil
}

func (f *fakeBackend) AssignLead(_ context.Context, projectID, leadID backend.ID, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assigned[projectID] = leadID
	return nil
}

func (f *fakeBackend) MASByProject(context.Context, backend.ID) ([]backend.MASItem, error) {
	return f.mas, nil
}

func (f *fakeBackend) MASPendingCount(context.Context, backend.ID, string) (int, error) {
	return len(f.mas), nil
}

func (f *fakeBackend) MASSummary(context.Context) ([]backend.MASSummaryRow, error) {
	return f.masSummary, nil
}

func (f *fakeBackend) RFIByProject(context.Context, backend.ID) ([]backend.RFIItem, error) {
	return f.rfi, nil
}

func (f *fakeBackend) RFIPendingCount(context.Context, backend.ID, string) (int, error) {
	return len(f.rfi), nil
}

type fakeChecker struct {
	err error
}

func (c fakeChecker) Ping(context.Context) error { return c.err }

type testServer struct {
	handler http.Handler
	backend *fakeBackend
	editors *editor.Registry
	journal *editor.MemoryJournal
	redis   *miniredis.Miniredis
	checks  map[string]Checker
}

func newTestServer(t *testing.T, fb *fakeBackend) *testServer {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := logging.Discard()
	sessions := session.NewManager(
		session.NewRedisStoreWithClient(client),
		session.NewResolver(fb, time.Second, logger),
		[]byte("test-secret"),
		time.Hour,
		logger,
	)
	cat := catalog.New(fb, time.Minute, logger)
	journal := editor.NewMemoryJournal(0)
	editors := editor.NewRegistry(editor.Deps{
		Upstream: fb,
		Choices:  cat,
		Journal:  journal,
		IDs:      &editor.Sequence{Prefix: "n"},
		Logger:   logger,
	})
	checks := map[string]Checker{"sessions": sessions}
	svc := NewService(Deps{
		Sessions: sessions,
		Editors:  editors,
		Catalog:  cat,
		Boards:   board.NewService(fb, logger),
		Checks:   checks,
		Logger:   logger,
	})
	return &testServer{
		handler: NewHTTPServer(svc, "*", logger).Handler(),
		backend: fb,
		editors: editors,
		journal: journal,
		redis:   mr,
		checks:  checks,
	}
}

// do sends a JSON request and decodes the JSON answer into a map.
func (ts *testServer) do(t *testing.T, method, path, token, body string) (int, map[string]any) {
	t.Helper()
	var reader *bytes.Buffer
	if body == "" {
		reader = &bytes.Buffer{}
	} else {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)

	payload := map[string]any{}
	if strings.TrimSpace(rr.Body.String()) != "" {
		if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
			t.Fatalf("%s %s: parse response %q: %v", method, path, rr.Body.String(), err)
		}
	}
	return rr.Code, payload
}

func (ts *testServer) signIn(t *testing.T, email string) string {
	t.Helper()
	code, payload := ts.do(t, http.MethodPost, "/api/session/signin", "", `{"email":"`+email+`","displayName":"Test User"}`)
	if code != http.StatusOK {
		t.Fatalf("signin %s: status %d body=%v", email, code, payload)
	}
	token, _ := payload["token"].(string)
	if token == "" {
		t.Fatalf("signin %s: no token in %v", email, payload)
	}
	return token
}

func field(t *testing.T, payload map[string]any, path ...string) any {
	t.Helper()
	var cur any = payload
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			t.Fatalf("field %v: %v is not an object", path, cur)
		}
		cur = m[key]
	}
	return cur
}

var errBoom = errors.New("boom")
