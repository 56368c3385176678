// Package editor holds the per-user project editing sessions: a nested
// Project → Building → Floor → Flat tree with field autosave, floor and
// building copies, and whole-tree submit.
package editor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"

	"atelier/portal/internal/backend"
	"atelier/portal/internal/store"
)

type State string

const (
	StateLoading    State = "loading"
	StateReady      State = "ready"
	StateSubmitting State = "submitting"
	StateSubmitted  State = "submitted"
	StateError      State = "error"
)

var (
	ErrNameRequired  = errors.New("Project name is required")
	ErrNotReady      = errors.New("editor is not ready")
	ErrInvalidTwin   = errors.New("twin must reference an earlier building")
	ErrUnknownField  = errors.New("unknown project field")
	ErrInvalidNumber = errors.New("value is not a number")
	ErrAlreadyOpen   = errors.New("editor already opened")
)

const (
	msgFetchFailed  = "Failed to fetch project data"
	msgSubmitFailed = "Failed to save project"
)

// Upstream is the part of the backend the editor writes to.
type Upstream interface {
	GetProjectTree(ctx context.Context, projectID ID) (json.RawMessage, error)
	CreateProject(ctx context.Context, body any) (ID, error)
	PatchProject(ctx context.Context, projectID ID, body any) error
}

type ChoiceSource interface {
	Choices(ctx context.Context) (backend.StandardGroups, error)
}

// Editor is one editing session. Every method is serialized on mu; only
// Submit releases it across the network call, and the submitting state keeps
// mutations out meanwhile.
type Editor struct {
	id       string
	owner    string
	session  string
	upstream Upstream
	choices  ChoiceSource
	ids      IDGenerator
	saver    *autosaver
	logger   *slog.Logger

	mu        sync.Mutex
	opened    bool
	state     State
	projectID ID
	project   Project
	standards backend.StandardGroups
	message   string
}

func newEditor(id, owner, session string, deps Deps) *Editor {
	logger := deps.Logger.With("component", "editor", "editor", id)
	return &Editor{
		id:       id,
		owner:    owner,
		session:  session,
		upstream: deps.Upstream,
		choices:  deps.Choices,
		ids:      deps.IDs,
		saver:    newAutosaver(id, deps.Upstream, deps.Journal, logger),
		logger:   logger,
		state:    StateLoading,
		project:  Project{Buildings: []Building{}},
		standards: backend.StandardGroups{
			ApplicationTypes: []string{},
			ResidentialTypes: []string{},
			FlatTypes:        []string{},
		},
	}
}

func (e *Editor) ID() string { return e.id }

// Open loads the catalog and, for an existing project, its tree. A catalog
// failure leaves the pickers empty; a tree failure puts the editor in the
// error state.
func (e *Editor) Open(ctx context.Context, projectID ID) error {
	e.mu.Lock()
	if e.opened {
		e.mu.Unlock()
		return ErrAlreadyOpen
	}
	e.opened = true
	e.projectID = projectID
	e.mu.Unlock()

	standards, err := e.choices.Choices(ctx)
	if err != nil {
		e.logger.Warn("standards fetch failed", "err", err)
	}

	var project Project
	var loadErr error
	if projectID.IsZero() {
		project = Project{Buildings: []Building{}}
	} else {
		project, loadErr = e.load(ctx, projectID)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err == nil {
		e.standards = standards
	}
	if loadErr != nil {
		e.logger.Warn("project fetch failed", "project", projectID, "err", loadErr)
		e.state = StateError
		e.message = msgFetchFailed
		return loadErr
	}
	e.project = project
	e.state = StateReady
	return nil
}

func (e *Editor) load(ctx context.Context, projectID ID) (Project, error) {
	raw, err := e.upstream.GetProjectTree(ctx, projectID)
	if err != nil {
		return Project{}, err
	}
	project, err := decodeProject(raw)
	if err != nil {
		return Project{}, err
	}
	if project.ID.IsZero() {
		project.ID = projectID
	}
	e.fillMissingIDs(&project)
	return project, nil
}

// fillMissingIDs gives id-less nested entities a local id so they stay
// addressable.
func (e *Editor) fillMissingIDs(p *Project) {
	if p.Buildings == nil {
		p.Buildings = []Building{}
	}
	for i := range p.Buildings {
		b := &p.Buildings[i]
		if b.ID.IsZero() {
			b.ID = e.ids.NewID()
		}
		if b.Floors == nil {
			b.Floors = []Floor{}
		}
		for j := range b.Floors {
			f := &b.Floors[j]
			if f.ID.IsZero() {
				f.ID = e.ids.NewID()
			}
			if f.Flats == nil {
				f.Flats = []Flat{}
			}
			for k := range f.Flats {
				if f.Flats[k].ID.IsZero() {
					f.Flats[k].ID = e.ids.NewID()
				}
			}
		}
	}
}

// ready must be called with mu held.
func (e *Editor) ready() error {
	if e.state != StateReady {
		return fmt.Errorf("%w (state %s)", ErrNotReady, e.state)
	}
	return nil
}

// SetProjectField updates a top-level field and autosaves it. Latitude and
// longitude accept a decimal string; an empty string clears them.
func (e *Editor) SetProjectField(ctx context.Context, field Field, value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ready(); err != nil {
		return err
	}

	var saved any
	switch field {
	case FieldName:
		e.project.Name = value
		saved = value
	case FieldLocation:
		e.project.Location = value
		saved = value
	case FieldLatitude, FieldLongitude:
		n, err := parseNumber(value)
		if err != nil {
			return err
		}
		if field == FieldLatitude {
			e.project.Latitude = n
		} else {
			e.project.Longitude = n
		}
		saved = n
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	e.saver.save(ctx, e.projectID, field, saved)
	return nil
}

// SetLocation applies a map pick: address plus coordinates, each autosaved
// as its own field.
func (e *Editor) SetLocation(ctx context.Context, address string, lat, lng float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ready(); err != nil {
		return err
	}
	if !finite(lat) || !finite(lng) {
		return fmt.Errorf("%w: coordinates must be finite", ErrInvalidNumber)
	}
	e.project.Location = address
	e.project.Latitude = backend.NewNumber(lat)
	e.project.Longitude = backend.NewNumber(lng)
	e.saver.save(ctx, e.projectID, FieldLocation, address)
	e.saver.save(ctx, e.projectID, FieldLatitude, e.project.Latitude)
	e.saver.save(ctx, e.projectID, FieldLongitude, e.project.Longitude)
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func parseNumber(value string) (Number, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Number{}, nil
	}
	v, err := backend.ParseFinite(value)
	if err != nil {
		return Number{}, fmt.Errorf("%w: %q", ErrInvalidNumber, value)
	}
	return backend.NewNumber(v), nil
}

// Snapshot is the editor as the client renders it.
type Snapshot struct {
	EditorID       string                 `json:"editorId"`
	State          State                  `json:"state"`
	Mode           string                 `json:"mode"`
	ProjectID      ID                     `json:"projectId,omitempty"`
	Project        Project                `json:"project"`
	Standards      backend.StandardGroups `json:"standards"`
	BuildingFields map[ID][]Field         `json:"buildingFields"`
	Error          string                 `json:"error,omitempty"`
	Warnings       []string               `json:"warnings,omitempty"`
	Preview        Preview                `json:"preview"`
	Autosave       map[Field]FieldStatus  `json:"autosave"`
}

func (e *Editor) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	mode := "create"
	if !e.projectID.IsZero() {
		mode = "edit"
	}
	fields := make(map[ID][]Field, len(e.project.Buildings))
	for _, b := range e.project.Buildings {
		fields[b.ID] = TypeSpecificFields(b.ApplicationType)
	}
	return Snapshot{
		EditorID:       e.id,
		State:          e.state,
		Mode:           mode,
		ProjectID:      e.projectID,
		Project:        e.project.clone(),
		Standards:      e.standards,
		BuildingFields: fields,
		Error:          e.message,
		Warnings:       issues(validate(e.project)),
		Preview:        buildPreview(e.project),
		Autosave:       e.saver.status(),
	}
}

func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Project returns a deep copy of the current tree.
func (e *Editor) Project() Project {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.project.clone()
}

// BuildingFields lists the type-specific fields a building exposes. Unknown
// ids yield nil.
func (e *Editor) BuildingFields(buildingID ID) []Field {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, b := e.project.building(buildingID)
	if b == nil {
		return nil
	}
	return TypeSpecificFields(b.ApplicationType)
}

func (e *Editor) AutosaveStatus() map[Field]FieldStatus {
	return e.saver.status()
}

// AutosaveHistory reads the journal: the newest recorded transition of each
// field, which survives the in-process status when the journal is Postgres.
func (e *Editor) AutosaveHistory(ctx context.Context) ([]store.AutosaveRecord, error) {
	return e.saver.history(ctx)
}

// Wait blocks until every autosave started so far has settled.
func (e *Editor) Wait() {
	e.saver.wait()
}
