package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"atelier/portal/internal/backend"
	"atelier/portal/internal/catalog"
	"atelier/portal/internal/rbac"
)

func (s *HTTPServer) mountStandards(r chi.Router) {
	r.Route("/standards", func(r chi.Router) {
		r.With(s.requireAction(rbac.ActionView)).Get("/", s.handleChoices)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAction(rbac.ActionManageStandards))
			r.Get("/all", s.handleAllStandards)
			r.Post("/refresh", s.handleRefreshStandards)
			r.Post("/", s.handleCreateStandard)
			r.Patch("/{standardID}", s.handleUpdateStandard)
			r.Delete("/{standardID}", s.handleDeleteStandard)
		})
	})
}

type standardsView struct {
	Categories []catalog.Category `json:"categories"`
	Standards  []backend.Standard `json:"standards"`
}

func (s *HTTPServer) handleChoices(w http.ResponseWriter, r *http.Request) {
	groups, err := s.service.Catalog().Choices(r.Context())
	if err != nil {
		writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

// handleRefreshStandards drops cached choices, then answers with a fresh
// fetch.
func (s *HTTPServer) handleRefreshStandards(w http.ResponseWriter, r *http.Request) {
	cat := s.service.Catalog()
	cat.Invalidate()
	groups, err := cat.Choices(r.Context())
	if err != nil {
		writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

// handleAllStandards lists every standard, active or not, optionally
// narrowed with ?category=.
func (s *HTTPServer) handleAllStandards(w http.ResponseWriter, r *http.Request) {
	all, err := s.service.Catalog().All(r.Context())
	if err != nil {
		writeMappedError(w, err)
		return
	}
	if category := r.URL.Query().Get("category"); category != "" {
		all = catalog.ByCategory(all, category)
	}
	writeJSON(w, http.StatusOK, standardsView{Categories: catalog.Categories, Standards: all})
}

func (s *HTTPServer) handleCreateStandard(w http.ResponseWriter, r *http.Request) {
	var body backend.StandardInput
	if err := decodeBody(r, &body); err != nil {
		writeMappedError(w, invalidBody(err))
		return
	}
	all, err := s.service.Catalog().Create(r.Context(), body)
	if err != nil {
		writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, standardsView{Categories: catalog.Categories, Standards: all})
}

// handleUpdateStandard edits value and description, or toggles isActive when
// that is all the body carries.
func (s *HTTPServer) handleUpdateStandard(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Value       *string `json:"value"`
		Description *string `json:"description"`
		IsActive    *bool   `json:"isActive"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeMappedError(w, invalidBody(err))
		return
	}
	id := backend.ID(chi.URLParam(r, "standardID"))
	cat := s.service.Catalog()

	var all []backend.Standard
	var err error
	switch {
	case body.Value != nil:
		all, err = cat.Update(r.Context(), id, *body.Value, body.Description)
		if err == nil && body.IsActive != nil {
			all, err = cat.SetActive(r.Context(), id, *body.IsActive)
		}
	case body.IsActive != nil:
		all, err = cat.SetActive(r.Context(), id, *body.IsActive)
	default:
		err = catalog.ErrValueRequired
	}
	if err != nil {
		writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, standardsView{Categories: catalog.Categories, Standards: all})
}

func (s *HTTPServer) handleDeleteStandard(w http.ResponseWriter, r *http.Request) {
	all, err := s.service.Catalog().Delete(r.Context(), backend.ID(chi.URLParam(r, "standardID")))
	if err != nil {
		writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, standardsView{Categories: catalog.Categories, Standards: all})
}
