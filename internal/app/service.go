package app

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"atelier/portal/internal/board"
	"atelier/portal/internal/catalog"
	"atelier/portal/internal/editor"
	"atelier/portal/internal/rbac"
	"atelier/portal/internal/routes"
	"atelier/portal/internal/session"
)

// Checker is a dependency pinged by the readiness endpoint.
type Checker interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Sessions *session.Manager
	Editors  *editor.Registry
	Catalog  *catalog.Catalog
	Boards   *board.Service
	Checks   map[string]Checker
	Logger   *slog.Logger
}

// Service ties the portal's domain packages to one signed-in caller.
// Editors are owned by the session email and remember the session that
// opened them.
type Service struct {
	sessions *session.Manager
	editors  *editor.Registry
	catalog  *catalog.Catalog
	boards   *board.Service
	checks   map[string]Checker
	logger   *slog.Logger
}

func NewService(deps Deps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		sessions: deps.Sessions,
		editors:  deps.Editors,
		catalog:  deps.Catalog,
		boards:   deps.Boards,
		checks:   deps.Checks,
		logger:   logger,
	}
}

type SignInResult struct {
	session.Session
	Landing string `json:"landing"`
}

func (s *Service) SignIn(ctx context.Context, email, displayName string) (SignInResult, error) {
	sess, err := s.sessions.SignIn(ctx, email, displayName)
	if err != nil {
		return SignInResult{}, err
	}
	return SignInResult{Session: sess, Landing: routes.Landing(sess.Role)}, nil
}

func (s *Service) SessionFromToken(ctx context.Context, token string) (session.Session, error) {
	return s.sessions.Lookup(ctx, token)
}

// SignOut revokes the session and discards the editor it opened. An editor
// opened from another live session of the same user is kept.
func (s *Service) SignOut(ctx context.Context, sess session.Session) error {
	if err := s.sessions.SignOut(ctx, sess); err != nil {
		return err
	}
	if s.editors.CloseSession(sess.Email, sess.ID) {
		s.logger.Info("editor discarded on sign-out", "email", sess.Email)
	}
	return nil
}

func (s *Service) Can(role rbac.Role, action rbac.Action) bool {
	return rbac.Can(role, action)
}

// Gate resolves a client path for the caller; sess is nil when signed out.
func (s *Service) Gate(path string, sess *session.Session) routes.Decision {
	if sess == nil {
		return routes.Resolve(path, false, "")
	}
	return routes.Resolve(path, true, sess.Role)
}

// OpenEditor starts a new editing session. A load failure is not an error
// here: the snapshot carries the error state and message.
func (s *Service) OpenEditor(ctx context.Context, sess session.Session, projectID editor.ID) (editor.Snapshot, error) {
	ed, err := s.editors.Open(ctx, sess.Email, sess.ID, projectID)
	if ed == nil {
		return editor.Snapshot{}, err
	}
	if err != nil {
		s.logger.Warn("editor opened in error state", "editor", ed.ID(), "project", projectID, "err", err)
	}
	return ed.Snapshot(), nil
}

func (s *Service) Editor(sess session.Session, editorID string) (*editor.Editor, error) {
	return s.editors.Get(sess.Email, editorID)
}

// CurrentEditor returns the caller's open editor so a reloaded client can
// resume it.
func (s *Service) CurrentEditor(sess session.Session) (*editor.Editor, error) {
	ed, ok := s.editors.Current(sess.Email)
	if !ok {
		return nil, editor.ErrEditorNotFound
	}
	return ed, nil
}

func (s *Service) CloseEditor(sess session.Session, editorID string) error {
	return s.editors.Close(sess.Email, editorID)
}

// Submit sends the tree upstream. The catalog is left alone; the board views
// re-fetch on their own.
func (s *Service) Submit(ctx context.Context, sess session.Session, editorID string) (editor.SubmitResult, editor.Snapshot, error) {
	ed, err := s.editors.Get(sess.Email, editorID)
	if err != nil {
		return editor.SubmitResult{}, editor.Snapshot{}, err
	}
	result, err := ed.Submit(ctx)
	return result, ed.Snapshot(), err
}

func (s *Service) Catalog() *catalog.Catalog { return s.catalog }

func (s *Service) Boards() *board.Service { return s.boards }

type ReadyReport struct {
	Status      string            `json:"status"`
	Checks      map[string]string `json:"checks"`
	OpenEditors int               `json:"openEditors"`
}

// Ready pings every configured dependency; any failure makes the service
// not ready.
func (s *Service) Ready(ctx context.Context) (ReadyReport, bool) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	report := ReadyReport{Status: "ready", Checks: map[string]string{}, OpenEditors: s.editors.Len()}
	ok := true
	for _, name := range names {
		if err := s.checks[name].Ping(ctx); err != nil {
			s.logger.Warn("readiness check failed", "check", name, "err", err)
			report.Checks[name] = "unavailable"
			ok = false
			continue
		}
		report.Checks[name] = "ok"
	}
	if !ok {
		report.Status = "not_ready"
	}
	return report, ok
}
