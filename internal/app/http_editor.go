package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"atelier/portal/internal/editor"
	"atelier/portal/internal/rbac"
	"atelier/portal/internal/session"
)

func (s *HTTPServer) mountEditor(r chi.Router) {
	r.Route("/editor", func(r chi.Router) {
		r.Use(s.requireAction(rbac.ActionEditProject))

		r.Post("/", s.handleOpenEditor)
		r.Get("/current", s.handleCurrentEditor)
		r.Route("/{editorID}", func(r chi.Router) {
			r.Get("/", s.handleGetEditor)
			r.Delete("/", s.handleCloseEditor)
			r.Get("/autosave", s.handleAutosaveHistory)
			r.Get("/validate", s.editorRead(func(ed *editor.Editor, _ *http.Request) any {
				return map[string]any{"issues": editorIssues(ed)}
			}))
			r.Patch("/project", s.handleSetProjectField)
			r.Put("/location", s.handleSetLocation)
			r.Post("/submit", s.handleSubmit)

			r.Post("/buildings", s.handleAddBuilding)
			r.Route("/buildings/{buildingID}", func(r chi.Router) {
				r.Patch("/", s.handleUpdateBuilding)
				r.Delete("/", s.editorWrite(func(ed *editor.Editor, r *http.Request) error {
					return ed.DeleteBuilding(urlID(r, "buildingID"))
				}))
				r.Get("/fields", s.editorRead(func(ed *editor.Editor, r *http.Request) any {
					return map[string]any{"fields": ed.BuildingFields(urlID(r, "buildingID"))}
				}))
				r.Post("/copy", s.editorCreate(func(ed *editor.Editor, r *http.Request) (editor.ID, error) {
					return ed.CopyBuildingData(urlID(r, "buildingID"))
				}))

				r.Post("/floors", s.editorCreate(func(ed *editor.Editor, r *http.Request) (editor.ID, error) {
					return ed.AddFloor(urlID(r, "buildingID"))
				}))
				r.Route("/floors/{floorID}", func(r chi.Router) {
					r.Patch("/", s.handleUpdateFloor)
					r.Delete("/", s.editorWrite(func(ed *editor.Editor, r *http.Request) error {
						return ed.DeleteFloor(urlID(r, "buildingID"), urlID(r, "floorID"))
					}))
					r.Post("/copy", s.editorCreate(func(ed *editor.Editor, r *http.Request) (editor.ID, error) {
						return ed.CopyFloorData(urlID(r, "buildingID"), urlID(r, "floorID"))
					}))

					r.Post("/flats", s.editorCreate(func(ed *editor.Editor, r *http.Request) (editor.ID, error) {
						return ed.AddFlat(urlID(r, "buildingID"), urlID(r, "floorID"))
					}))
					r.Patch("/flats/{flatID}", s.handleUpdateFlat)
					r.Delete("/flats/{flatID}", s.editorWrite(func(ed *editor.Editor, r *http.Request) error {
						return ed.DeleteFlat(urlID(r, "buildingID"), urlID(r, "floorID"), urlID(r, "flatID"))
					}))
				})
			})
		})
	})
}

func urlID(r *http.Request, name string) editor.ID {
	return editor.ID(chi.URLParam(r, name))
}

func editorIssues(ed *editor.Editor) []string {
	return ed.Snapshot().Warnings
}

// currentEditor resolves {editorID} against the caller's session.
func (s *HTTPServer) currentEditor(w http.ResponseWriter, r *http.Request) (*editor.Editor, bool) {
	sess, _ := session.FromContext(r.Context())
	ed, err := s.service.Editor(sess, chi.URLParam(r, "editorID"))
	if err != nil {
		writeMappedError(w, err)
		return nil, false
	}
	return ed, true
}

func (s *HTTPServer) editorRead(view func(*editor.Editor, *http.Request) any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ed, ok := s.currentEditor(w, r)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, view(ed, r))
	}
}

// editorWrite applies a mutation and answers with the new snapshot.
func (s *HTTPServer) editorWrite(apply func(*editor.Editor, *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ed, ok := s.currentEditor(w, r)
		if !ok {
			return
		}
		if err := apply(ed, r); err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ed.Snapshot())
	}
}

type createdNode struct {
	ID     editor.ID       `json:"id"`
	Editor editor.Snapshot `json:"editor"`
}

// editorCreate adds a node. A zero id means the parent no longer exists and
// nothing was added.
func (s *HTTPServer) editorCreate(add func(*editor.Editor, *http.Request) (editor.ID, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ed, ok := s.currentEditor(w, r)
		if !ok {
			return
		}
		id, err := add(ed, r)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		status := http.StatusCreated
		if id.IsZero() {
			status = http.StatusOK
		}
		writeJSON(w, status, createdNode{ID: id, Editor: ed.Snapshot()})
	}
}

func (s *HTTPServer) handleOpenEditor(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ProjectID editor.ID `json:"projectId"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeMappedError(w, invalidBody(err))
		return
	}
	sess, _ := session.FromContext(r.Context())
	snap, err := s.service.OpenEditor(r.Context(), sess, body.ProjectID)
	if err != nil {
		writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

func (s *HTTPServer) handleGetEditor(w http.ResponseWriter, r *http.Request) {
	s.editorRead(func(ed *editor.Editor, _ *http.Request) any { return ed.Snapshot() })(w, r)
}

func (s *HTTPServer) handleCurrentEditor(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())
	ed, err := s.service.CurrentEditor(sess)
	if err != nil {
		writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ed.Snapshot())
}

func (s *HTTPServer) handleAutosaveHistory(w http.ResponseWriter, r *http.Request) {
	ed, ok := s.currentEditor(w, r)
	if !ok {
		return
	}
	records, err := ed.AutosaveHistory(r.Context())
	if err != nil {
		writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": records})
}

func (s *HTTPServer) handleCloseEditor(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())
	if err := s.service.CloseEditor(sess, chi.URLParam(r, "editorID")); err != nil {
		writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *HTTPServer) handleSetProjectField(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Field editor.Field `json:"field"`
		Value string       `json:"value"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeMappedError(w, invalidBody(err))
		return
	}
	s.editorWrite(func(ed *editor.Editor, r *http.Request) error {
		return ed.SetProjectField(r.Context(), body.Field, body.Value)
	})(w, r)
}

func (s *HTTPServer) handleSetLocation(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Address   string   `json:"address"`
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeMappedError(w, invalidBody(err))
		return
	}
	if body.Latitude == nil || body.Longitude == nil {
		writeMappedError(w, invalidInput("latitude and longitude are required"))
		return
	}
	s.editorWrite(func(ed *editor.Editor, r *http.Request) error {
		return ed.SetLocation(r.Context(), body.Address, *body.Latitude, *body.Longitude)
	})(w, r)
}

func (s *HTTPServer) handleAddBuilding(w http.ResponseWriter, r *http.Request) {
	s.editorCreate(func(ed *editor.Editor, _ *http.Request) (editor.ID, error) {
		return ed.AddBuilding()
	})(w, r)
}

func (s *HTTPServer) handleUpdateBuilding(w http.ResponseWriter, r *http.Request) {
	var patch editor.BuildingPatch
	if err := decodeBody(r, &patch); err != nil {
		writeMappedError(w, invalidBody(err))
		return
	}
	s.editorWrite(func(ed *editor.Editor, r *http.Request) error {
		return ed.UpdateBuilding(urlID(r, "buildingID"), patch)
	})(w, r)
}

func (s *HTTPServer) handleUpdateFloor(w http.ResponseWriter, r *http.Request) {
	var patch editor.FloorPatch
	if err := decodeBody(r, &patch); err != nil {
		writeMappedError(w, invalidBody(err))
		return
	}
	s.editorWrite(func(ed *editor.Editor, r *http.Request) error {
		return ed.UpdateFloor(urlID(r, "buildingID"), urlID(r, "floorID"), patch)
	})(w, r)
}

func (s *HTTPServer) handleUpdateFlat(w http.ResponseWriter, r *http.Request) {
	var patch editor.FlatPatch
	if err := decodeBody(r, &patch); err != nil {
		writeMappedError(w, invalidBody(err))
		return
	}
	s.editorWrite(func(ed *editor.Editor, r *http.Request) error {
		return ed.UpdateFlat(urlID(r, "buildingID"), urlID(r, "floorID"), urlID(r, "flatID"), patch)
	})(w, r)
}

// handleSubmit answers 200 with the redirect on success. A rejected submit
// still carries the snapshot so the client keeps the tree and shows the
// message.
func (s *HTTPServer) handleSubmit(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())
	result, snap, err := s.service.Submit(r.Context(), sess, chi.URLParam(r, "editorID"))
	if err != nil {
		status, code, message, _ := mapError(err)
		if snap.EditorID == "" {
			writeError(w, status, code, message, nil)
			return
		}
		writeError(w, status, code, message, map[string]any{"editor": snap})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"result": result, "editor": snap})
}
