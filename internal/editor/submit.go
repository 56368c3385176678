package editor

import (
	"context"
	"errors"
	"strings"

	"atelier/portal/internal/backend"
)

// SubmitResult reports a successful submit. Redirect is where the client
// goes next.
type SubmitResult struct {
	ProjectID ID     `json:"projectId"`
	Created   bool   `json:"created"`
	Redirect  string `json:"redirect"`
}

const submitRedirect = "/l1-dashboard"

// SubmitError is a rejected submit. Message is what the user sees; the tree
// is kept and the editor returns to ready.
type SubmitError struct {
	Message string
	Err     error
}

func (e *SubmitError) Error() string { return e.Message }

func (e *SubmitError) Unwrap() error { return e.Err }

// Submit sends the whole tree in one create (draft) or update call. An empty
// name is rejected before any request is made.
func (e *Editor) Submit(ctx context.Context) (SubmitResult, error) {
	e.mu.Lock()
	if err := e.ready(); err != nil {
		e.mu.Unlock()
		return SubmitResult{}, err
	}
	if strings.TrimSpace(e.project.Name) == "" {
		e.message = ErrNameRequired.Error()
		e.mu.Unlock()
		return SubmitResult{}, &SubmitError{Message: ErrNameRequired.Error(), Err: ErrNameRequired}
	}
	projectID := e.projectID
	tree := e.project.clone()
	e.state = StateSubmitting
	e.message = ""
	e.mu.Unlock()

	var err error
	created := projectID.IsZero()
	if created {
		projectID, err = e.upstream.CreateProject(ctx, tree)
	} else {
		err = e.upstream.PatchProject(ctx, projectID, tree)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		e.state = StateReady
		e.message = backend.Message(err, msgSubmitFailed)
		e.logger.Warn("submit failed", "project", projectID, "err", err)
		return SubmitResult{}, &SubmitError{Message: e.message, Err: err}
	}

	e.state = StateSubmitted
	e.projectID = projectID
	e.project.ID = projectID
	e.logger.Info("project submitted", "project", projectID, "created", created, "buildings", len(tree.Buildings))
	return SubmitResult{ProjectID: projectID, Created: created, Redirect: submitRedirect}, nil
}

// IsNameRequired reports whether err is the local empty-name rejection.
func IsNameRequired(err error) bool {
	return errors.Is(err, ErrNameRequired)
}
