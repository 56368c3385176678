package app

import (
	"net/http"

	"atelier/portal/internal/routes"
	"atelier/portal/internal/session"
)

func (s *HTTPServer) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email       string `json:"email"`
		DisplayName string `json:"displayName"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeMappedError(w, invalidBody(err))
		return
	}
	result, err := s.service.SignIn(r.Context(), body.Email, body.DisplayName)
	if err != nil {
		writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *HTTPServer) handleSession(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"session": sess,
		"landing": routes.Landing(sess.Role),
	})
}

func (s *HTTPServer) handleSignOut(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())
	if err := s.service.SignOut(r.Context(), sess); err != nil {
		writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "redirect": routes.SignInPath})
}

// handleGate answers which view a client path renders, or where it
// redirects, for whoever is asking.
func (s *HTTPServer) handleGate(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeMappedError(w, invalidInput("path is required"))
		return
	}
	var decision routes.Decision
	if sess, ok := session.FromContext(r.Context()); ok {
		decision = s.service.Gate(path, &sess)
	} else {
		decision = s.service.Gate(path, nil)
	}
	writeJSON(w, http.StatusOK, decision)
}
