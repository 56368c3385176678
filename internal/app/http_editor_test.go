package app

import (
	"net/http"
	"testing"

	"atelier/portal/internal/backend"
)

const existingTree = `{
  "id": "p1",
  "name": "Marina Heights",
  "location": "Worli",
  "latitude": 19.0176,
  "longitude": 72.8562,
  "buildings": [
    {"id": "b1", "name": "Tower A", "applicationType": "Residential", "residentialType": "Tower",
     "floors": [{"id": "f1", "floorNumber": 1, "floorName": "Floor 1", "flats": [{"id": "x1", "type": "2BHK", "area": 850, "count": 4}]}]}
  ]
}`

func editorID(t *testing.T, payload map[string]any) string {
	t.Helper()
	id, _ := payload["editorId"].(string)
	if id == "" {
		t.Fatalf("no editorId in %v", payload)
	}
	return id
}

func createdID(t *testing.T, code int, payload map[string]any) string {
	t.Helper()
	if code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%v", code, payload)
	}
	id, _ := payload["id"].(string)
	if id == "" {
		t.Fatalf("no id in %v", payload)
	}
	return id
}

func TestDraftEditorBuildAndSubmit(t *testing.T) {
	ts := newTestServer(t, newFakeBackend())
	token := ts.signIn(t, "l1@atelier.test")

	code, payload := ts.do(t, http.MethodPost, "/api/editor", token, `{}`)
	if code != http.StatusCreated {
		t.Fatalf("open: expected 201, got %d body=%v", code, payload)
	}
	if payload["state"] != "ready" || payload["mode"] != "create" {
		t.Fatalf("unexpected draft snapshot: %v", payload)
	}
	if got := field(t, payload, "standards", "flatTypes").([]any); len(got) != 1 || got[0] != "2BHK" {
		t.Fatalf("expected catalog choices on open, got %v", got)
	}
	id := editorID(t, payload)
	base := "/api/editor/" + id

	code, payload = ts.do(t, http.MethodPost, base+"/buildings", token, "")
	building := createdID(t, code, payload)
	code, payload = ts.do(t, http.MethodPost, base+"/buildings/"+building+"/floors", token, "")
	floor := createdID(t, code, payload)
	code, payload = ts.do(t, http.MethodPost, base+"/buildings/"+building+"/floors/"+floor+"/flats", token, "")
	flat := createdID(t, code, payload)

	code, payload = ts.do(t, http.MethodPatch, base+"/buildings/"+building, token, `{"name":"Tower A","applicationType":"Villa"}`)
	if code != http.StatusOK {
		t.Fatalf("update building: %d body=%v", code, payload)
	}
	fields := field(t, payload, "buildingFields", building).([]any)
	if len(fields) != 2 || fields[0] != "villaType" || fields[1] != "villaCount" {
		t.Fatalf("expected villa fields, got %v", fields)
	}

	code, payload = ts.do(t, http.MethodPatch, base+"/buildings/"+building+"/floors/"+floor+"/flats/"+flat, token, `{"type":"2BHK","area":"850","count":4}`)
	if code != http.StatusOK {
		t.Fatalf("update flat: %d body=%v", code, payload)
	}
	buildings := field(t, payload, "project", "buildings").([]any)
	floors := buildings[0].(map[string]any)["floors"].([]any)
	if floors[0].(map[string]any)["floorName"] != "Floor 1" {
		t.Fatalf("expected first floor to be named Floor 1, got %v", floors[0])
	}
	flats := floors[0].(map[string]any)["flats"].([]any)
	if flats[0].(map[string]any)["area"] != float64(850) {
		t.Fatalf("expected numeric area, got %v", flats[0])
	}

	code, payload = ts.do(t, http.MethodPatch, base+"/project", token, `{"field":"name","value":"Palm Court"}`)
	if code != http.StatusOK || field(t, payload, "project", "name") != "Palm Court" {
		t.Fatalf("set name: %d body=%v", code, payload)
	}

	code, payload = ts.do(t, http.MethodPost, base+"/submit", token, "")
	if code != http.StatusOK {
		t.Fatalf("submit: expected 200, got %d body=%v", code, payload)
	}
	if field(t, payload, "result", "projectId") != "p-new" || field(t, payload, "result", "redirect") != "/l1-dashboard" {
		t.Fatalf("unexpected submit result: %v", payload)
	}
	if field(t, payload, "editor", "state") != "submitted" {
		t.Fatalf("expected submitted state, got %v", field(t, payload, "editor", "state"))
	}

	ed, err := ts.editors.Get("l1@atelier.test", id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	ed.Wait()

	ts.backend.mu.Lock()
	defer ts.backend.mu.Unlock()
	if len(ts.backend.created) != 1 {
		t.Fatalf("expected exactly one tree create call, got %d", len(ts.backend.created))
	}
	if len(ts.backend.fieldPosts) != 1 || string(ts.backend.fieldPosts[0]) != `{"name":"Palm Court"}` {
		t.Fatalf("expected the name edit posted on its own, got %q", ts.backend.fieldPosts)
	}
	if len(ts.backend.patched) != 0 {
		t.Fatalf("draft edits must never patch, got %v", ts.backend.patched)
	}
}

func TestSubmitWithoutNameIsRejectedLocally(t *testing.T) {
	ts := newTestServer(t, newFakeBackend())
	token := ts.signIn(t, "admin@atelier.test")

	_, payload := ts.do(t, http.MethodPost, "/api/editor", token, `{}`)
	base := "/api/editor/" + editorID(t, payload)

	code, payload := ts.do(t, http.MethodPost, base+"/submit", token, "")
	if code != http.StatusUnprocessableEntity || payload["code"] != "NAME_REQUIRED" {
		t.Fatalf("expected 422 NAME_REQUIRED, got %d body=%v", code, payload)
	}
	if payload["error"] != "Project name is required" {
		t.Fatalf("unexpected message: %v", payload["error"])
	}
	if field(t, payload, "details", "editor", "state") != "ready" {
		t.Fatalf("editor must stay ready, got %v", payload["details"])
	}
	if len(ts.backend.created) != 0 {
		t.Fatalf("expected no create call, got %d", len(ts.backend.created))
	}
}

func TestSubmitUpstreamFailureKeepsTree(t *testing.T) {
	fb := newFakeBackend()
	fb.createErr = errBoom
	ts := newTestServer(t, fb)
	token := ts.signIn(t, "l1@atelier.test")

	_, payload := ts.do(t, http.MethodPost, "/api/editor", token, `{}`)
	base := "/api/editor/" + editorID(t, payload)
	ts.do(t, http.MethodPatch, base+"/project", token, `{"field":"name","value":"Palm Court"}`)
	ts.do(t, http.MethodPost, base+"/buildings", token, "")

	code, payload := ts.do(t, http.MethodPost, base+"/submit", token, "")
	if code != http.StatusBadGateway || payload["error"] != "Failed to save project" {
		t.Fatalf("expected 502 with generic message, got %d body=%v", code, payload)
	}
	if got := field(t, payload, "details", "editor", "project", "buildings").([]any); len(got) != 1 {
		t.Fatalf("expected tree to be kept, got %v", got)
	}
	if field(t, payload, "details", "editor", "state") != "ready" {
		t.Fatalf("expected ready after failure, got %v", field(t, payload, "details", "editor", "state"))
	}
}

func TestExistingEditorAutosavesFields(t *testing.T) {
	fb := newFakeBackend()
	fb.tree = existingTree
	ts := newTestServer(t, fb)
	token := ts.signIn(t, "l1@atelier.test")

	code, payload := ts.do(t, http.MethodPost, "/api/editor", token, `{"projectId":"p1"}`)
	if code != http.StatusCreated || payload["mode"] != "edit" || payload["state"] != "ready" {
		t.Fatalf("open existing: %d body=%v", code, payload)
	}
	id := editorID(t, payload)
	base := "/api/editor/" + id

	code, payload = ts.do(t, http.MethodPut, base+"/location", token, `{"address":"Bandra","latitude":19.066,"longitude":72.865}`)
	if code != http.StatusOK || field(t, payload, "project", "location") != "Bandra" {
		t.Fatalf("set location: %d body=%v", code, payload)
	}

	ed, err := ts.editors.Get("l1@atelier.test", id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	ed.Wait()

	fb.mu.Lock()
	patched := append([]backend.ID(nil), fb.patched...)
	fb.mu.Unlock()
	if len(patched) != 3 {
		t.Fatalf("expected three field autosaves, got %v", patched)
	}
	for _, p := range patched {
		if p != "p1" {
			t.Fatalf("autosave addressed %q, want p1", p)
		}
	}

	code, payload = ts.do(t, http.MethodGet, base, token, "")
	if code != http.StatusOK {
		t.Fatalf("get: %d body=%v", code, payload)
	}
	if field(t, payload, "autosave", "location", "status") != "succeeded" {
		t.Fatalf("expected settled autosave status, got %v", payload["autosave"])
	}
}

func TestCopyBuildingOverHTTP(t *testing.T) {
	fb := newFakeBackend()
	fb.tree = existingTree
	ts := newTestServer(t, fb)
	token := ts.signIn(t, "l1@atelier.test")

	_, payload := ts.do(t, http.MethodPost, "/api/editor", token, `{"projectId":"p1"}`)
	base := "/api/editor/" + editorID(t, payload)

	code, payload := ts.do(t, http.MethodPost, base+"/buildings/b1/copy", token, "")
	twin := createdID(t, code, payload)
	buildings := field(t, payload, "editor", "project", "buildings").([]any)
	if len(buildings) != 2 {
		t.Fatalf("expected two buildings, got %d", len(buildings))
	}
	copied := buildings[1].(map[string]any)
	if copied["id"] != twin || copied["name"] != "Tower A (Copy)" || copied["isTwin"] != true || copied["twinOfBuildingId"] != "b1" {
		t.Fatalf("unexpected copy: %v", copied)
	}

	code, payload = ts.do(t, http.MethodPost, base+"/buildings/b1/floors/f1/copy", token, "")
	createdID(t, code, payload)

	code, payload = ts.do(t, http.MethodGet, base+"/buildings/b1/fields", token, "")
	if code != http.StatusOK {
		t.Fatalf("fields: %d body=%v", code, payload)
	}
	if got := payload["fields"].([]any); len(got) != 1 || got[0] != "residentialType" {
		t.Fatalf("expected residential fields, got %v", got)
	}
}

func TestStaleNodeIsNoOp(t *testing.T) {
	ts := newTestServer(t, newFakeBackend())
	token := ts.signIn(t, "l1@atelier.test")

	_, payload := ts.do(t, http.MethodPost, "/api/editor", token, `{}`)
	base := "/api/editor/" + editorID(t, payload)

	code, payload := ts.do(t, http.MethodPost, base+"/buildings/gone/floors", token, "")
	if code != http.StatusOK {
		t.Fatalf("expected 200 for stale parent, got %d body=%v", code, payload)
	}
	if _, ok := payload["id"].(string); ok {
		t.Fatalf("expected no id for stale parent, got %v", payload["id"])
	}

	code, _ = ts.do(t, http.MethodDelete, base+"/buildings/gone", token, "")
	if code != http.StatusOK {
		t.Fatalf("expected 200 for stale delete, got %d", code)
	}
}

func TestOpenExistingFetchFailure(t *testing.T) {
	fb := newFakeBackend()
	fb.treeErr = errBoom
	ts := newTestServer(t, fb)
	token := ts.signIn(t, "l1@atelier.test")

	code, payload := ts.do(t, http.MethodPost, "/api/editor", token, `{"projectId":"p9"}`)
	if code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%v", code, payload)
	}
	if payload["state"] != "error" || payload["error"] != "Failed to fetch project data" {
		t.Fatalf("expected error state, got %v", payload)
	}

	base := "/api/editor/" + editorID(t, payload)
	code, payload = ts.do(t, http.MethodPost, base+"/buildings", token, "")
	if code != http.StatusConflict || payload["code"] != "EDITOR_NOT_READY" {
		t.Fatalf("expected 409 for edits in error state, got %d body=%v", code, payload)
	}
}

func TestEditorAccessControl(t *testing.T) {
	ts := newTestServer(t, newFakeBackend())
	l1 := ts.signIn(t, "l1@atelier.test")
	admin := ts.signIn(t, "admin@atelier.test")
	l2 := ts.signIn(t, "l2@atelier.test")

	code, payload := ts.do(t, http.MethodPost, "/api/editor", l2, `{}`)
	if code != http.StatusForbidden || payload["code"] != "FORBIDDEN" {
		t.Fatalf("expected L2 to be forbidden, got %d body=%v", code, payload)
	}

	_, payload = ts.do(t, http.MethodPost, "/api/editor", l1, `{}`)
	base := "/api/editor/" + editorID(t, payload)

	code, payload = ts.do(t, http.MethodGet, base, admin, "")
	if code != http.StatusNotFound || payload["code"] != "EDITOR_NOT_FOUND" {
		t.Fatalf("expected another user's editor to be hidden, got %d body=%v", code, payload)
	}

	code, _ = ts.do(t, http.MethodDelete, base, l1, "")
	if code != http.StatusOK {
		t.Fatalf("close: expected 200, got %d", code)
	}
	code, _ = ts.do(t, http.MethodGet, base, l1, "")
	if code != http.StatusNotFound {
		t.Fatalf("expected closed editor to be gone, got %d", code)
	}
}

func TestSignOutDiscardsEditor(t *testing.T) {
	ts := newTestServer(t, newFakeBackend())
	token := ts.signIn(t, "l1@atelier.test")
	ts.do(t, http.MethodPost, "/api/editor", token, `{}`)
	if ts.editors.Len() != 1 {
		t.Fatalf("expected one open editor, got %d", ts.editors.Len())
	}

	ts.do(t, http.MethodPost, "/api/session/signout", token, "")
	if ts.editors.Len() != 0 {
		t.Fatalf("expected editor discarded on sign-out, got %d", ts.editors.Len())
	}
}

func TestSetProjectFieldValidation(t *testing.T) {
	ts := newTestServer(t, newFakeBackend())
	token := ts.signIn(t, "l1@atelier.test")
	_, payload := ts.do(t, http.MethodPost, "/api/editor", token, `{}`)
	base := "/api/editor/" + editorID(t, payload)

	code, payload := ts.do(t, http.MethodPatch, base+"/project", token, `{"field":"latitude","value":"north"}`)
	if code != http.StatusBadRequest || payload["code"] != "INVALID_INPUT" {
		t.Fatalf("expected 400 for non-numeric latitude, got %d body=%v", code, payload)
	}
	code, _ = ts.do(t, http.MethodPatch, base+"/project", token, `{"field":"colour","value":"red"}`)
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field, got %d", code)
	}
	code, _ = ts.do(t, http.MethodPut, base+"/location", token, `{"address":"Worli"}`)
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400 without coordinates, got %d", code)
	}
}

func TestSignOutKeepsEditorOfOtherSession(t *testing.T) {
	ts := newTestServer(t, newFakeBackend())
	laptop := ts.signIn(t, "l1@atelier.test")
	phone := ts.signIn(t, "l1@atelier.test")

	_, payload := ts.do(t, http.MethodPost, "/api/editor", laptop, `{}`)
	id := editorID(t, payload)

	ts.do(t, http.MethodPost, "/api/session/signout", phone, "")
	if ts.editors.Len() != 1 {
		t.Fatalf("signing out another device must keep the editor, got %d open", ts.editors.Len())
	}
	code, payload := ts.do(t, http.MethodGet, "/api/editor/current", laptop, "")
	if code != http.StatusOK || payload["editorId"] != id {
		t.Fatalf("expected the laptop editor to resume, got %d body=%v", code, payload)
	}

	ts.do(t, http.MethodPost, "/api/session/signout", laptop, "")
	if ts.editors.Len() != 0 {
		t.Fatalf("expected editor discarded with its own session, got %d", ts.editors.Len())
	}
}

func TestCurrentEditorWithoutOneIsNotFound(t *testing.T) {
	ts := newTestServer(t, newFakeBackend())
	token := ts.signIn(t, "l1@atelier.test")

	code, payload := ts.do(t, http.MethodGet, "/api/editor/current", token, "")
	if code != http.StatusNotFound || payload["code"] != "EDITOR_NOT_FOUND" {
		t.Fatalf("expected 404 EDITOR_NOT_FOUND, got %d body=%v", code, payload)
	}
}

func TestAutosaveHistoryOverHTTP(t *testing.T) {
	fb := newFakeBackend()
	fb.tree = existingTree
	ts := newTestServer(t, fb)
	token := ts.signIn(t, "l1@atelier.test")

	_, payload := ts.do(t, http.MethodPost, "/api/editor", token, `{"projectId":"p1"}`)
	id := editorID(t, payload)
	base := "/api/editor/" + id
	ts.do(t, http.MethodPatch, base+"/project", token, `{"field":"name","value":"Marina Heights II"}`)

	ed, err := ts.editors.Get("l1@atelier.test", id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	ed.Wait()

	code, payload := ts.do(t, http.MethodGet, base+"/autosave", token, "")
	if code != http.StatusOK {
		t.Fatalf("autosave history: %d body=%v", code, payload)
	}
	records := payload["records"].([]any)
	if len(records) != 1 {
		t.Fatalf("expected one field in the history, got %v", records)
	}
	rec := records[0].(map[string]any)
	if rec["field"] != "name" || rec["status"] != "succeeded" || rec["project_id"] != "p1" {
		t.Fatalf("unexpected history record: %v", rec)
	}
}

func TestNonFiniteNumbersAreRejected(t *testing.T) {
	ts := newTestServer(t, newFakeBackend())
	token := ts.signIn(t, "l1@atelier.test")
	_, payload := ts.do(t, http.MethodPost, "/api/editor", token, `{}`)
	base := "/api/editor/" + editorID(t, payload)

	for _, value := range []string{"NaN", "Inf", "-Infinity"} {
		code, payload := ts.do(t, http.MethodPatch, base+"/project", token, `{"field":"latitude","value":"`+value+`"}`)
		if code != http.StatusBadRequest || payload["code"] != "INVALID_INPUT" {
			t.Fatalf("latitude %q: expected 400 INVALID_INPUT, got %d body=%v", value, code, payload)
		}
	}

	code, payload := ts.do(t, http.MethodPost, base+"/buildings", token, "")
	building := createdID(t, code, payload)
	code, payload = ts.do(t, http.MethodPost, base+"/buildings/"+building+"/floors", token, "")
	floor := createdID(t, code, payload)
	code, payload = ts.do(t, http.MethodPost, base+"/buildings/"+building+"/floors/"+floor+"/flats", token, "")
	flat := createdID(t, code, payload)

	code, payload = ts.do(t, http.MethodPatch, base+"/buildings/"+building+"/floors/"+floor+"/flats/"+flat, token, `{"area":"Infinity"}`)
	if code != http.StatusBadRequest || payload["code"] != "INVALID_BODY" {
		t.Fatalf("expected 400 INVALID_BODY for an infinite area, got %d body=%v", code, payload)
	}

	// The snapshot must still encode after the rejected edits.
	code, payload = ts.do(t, http.MethodGet, base, token, "")
	if code != http.StatusOK || payload["state"] != "ready" {
		t.Fatalf("expected a readable snapshot, got %d body=%v", code, payload)
	}
}
