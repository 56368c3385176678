package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"atelier/portal/internal/backend"
	"atelier/portal/internal/board"
	"atelier/portal/internal/rbac"
	"atelier/portal/internal/session"
)

func (s *HTTPServer) mountBoards(r chi.Router) {
	r.Route("/board", func(r chi.Router) {
		r.With(s.requireAction(rbac.ActionView)).Get("/status", s.handleStatusBoard)
		r.With(s.requireAction(rbac.ActionArchive)).Post("/status/{projectID}/archive", s.handleArchive)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAction(rbac.ActionAssignLead))
			r.Get("/leads", s.handleLeadTable)
			r.Post("/leads/{projectID}/assign", s.handleAssignLead)
		})

		r.Get("/approvals", s.handleApprovals)
		r.Get("/approvals/stats", s.handleApprovalStats)
		r.With(s.requireAction(rbac.ActionVendorSummary)).Get("/vendor", s.handleVendorSummary)
	})
}

type statusBoardView struct {
	board.StatusBoard
	Columns []board.StageColumn `json:"columns"`
}

func newStatusBoardView(b board.StatusBoard) statusBoardView {
	return statusBoardView{StatusBoard: b, Columns: b.Columns()}
}

func (s *HTTPServer) handleStatusBoard(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())
	writeJSON(w, http.StatusOK, newStatusBoardView(s.service.Boards().StatusBoard(r.Context(), sess.Email)))
}

// handleArchive re-reads the board, archives, and returns the board as it
// stands once the backend has agreed.
func (s *HTTPServer) handleArchive(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())
	boards := s.service.Boards()
	current := boards.StatusBoard(r.Context(), sess.Email)
	if err := boards.Archive(r.Context(), &current, backend.ID(chi.URLParam(r, "projectID")), sess.Email); err != nil {
		writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newStatusBoardView(current))
}

func (s *HTTPServer) handleLeadTable(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())
	writeJSON(w, http.StatusOK, s.service.Boards().LeadTable(r.Context(), sess.Email))
}

func (s *HTTPServer) handleAssignLead(w http.ResponseWriter, r *http.Request) {
	var body struct {
		LeadID backend.ID `json:"leadId"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeMappedError(w, invalidBody(err))
		return
	}
	if body.LeadID.IsZero() {
		writeMappedError(w, invalidInput("leadId is required"))
		return
	}
	sess, _ := session.FromContext(r.Context())
	boards := s.service.Boards()
	table := boards.LeadTable(r.Context(), sess.Email)
	if err := boards.AssignLead(r.Context(), &table, backend.ID(chi.URLParam(r, "projectID")), body.LeadID, sess.Email); err != nil {
		writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, table)
}

// handleApprovals returns the MAS and RFI lists the caller's role may see.
func (s *HTTPServer) handleApprovals(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())
	withMAS := s.service.Can(sess.Role, rbac.ActionViewMAS)
	withRFI := s.service.Can(sess.Role, rbac.ActionViewRFI)
	if !withMAS && !withRFI {
		s.forbid(w, r, sess, rbac.ActionViewMAS)
		return
	}
	projectID := backend.ID(r.URL.Query().Get("projectId"))
	writeJSON(w, http.StatusOK, s.service.Boards().Approvals(r.Context(), projectID, sess.Email, withMAS, withRFI))
}

func (s *HTTPServer) handleApprovalStats(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.allow(w, r, rbac.ActionViewRFI)
	if !ok {
		return
	}
	projectID := backend.ID(r.URL.Query().Get("projectId"))
	writeJSON(w, http.StatusOK, s.service.Boards().ApprovalStats(r.Context(), projectID, sess.Email))
}

func (s *HTTPServer) handleVendorSummary(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())
	writeJSON(w, http.StatusOK, s.service.Boards().VendorSummary(r.Context(), sess.Email))
}
