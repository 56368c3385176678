package editor

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"atelier/portal/internal/store"
)

// Journal receives every autosave state transition. store.PostgresStore
// implements it; MemoryJournal is the default.
type Journal interface {
	RecordAutosave(ctx context.Context, record store.AutosaveRecord) error
	LatestAutosaves(ctx context.Context, editorID string) ([]store.AutosaveRecord, error)
}

// journalTimeout bounds each journal write so a slow store cannot hold an
// autosave goroutine forever.
const journalTimeout = 3 * time.Second

type FieldStatus struct {
	Seq    int64                `json:"seq"`
	Status store.AutosaveStatus `json:"status"`
	Error  string               `json:"error,omitempty"`
}

// autosaver issues one write per field change without waiting for it: a
// PATCH once the project has an id, a one-field POST while it is a draft.
// The caller never sees the outcome; failures are logged and journaled.
type autosaver struct {
	editorID string
	upstream Upstream
	journal  Journal
	logger   *slog.Logger

	wg     sync.WaitGroup
	mu     sync.Mutex
	seq    int64
	latest map[Field]FieldStatus
}

func newAutosaver(editorID string, upstream Upstream, journal Journal, logger *slog.Logger) *autosaver {
	return &autosaver{
		editorID: editorID,
		upstream: upstream,
		journal:  journal,
		logger:   logger,
		latest:   map[Field]FieldStatus{},
	}
}

// save marks the field pending and returns. The upstream call and every
// journal write happen on the autosave goroutine.
func (a *autosaver) save(ctx context.Context, projectID ID, field Field, value any) {
	a.mu.Lock()
	a.seq++
	seq := a.seq
	a.latest[field] = FieldStatus{Seq: seq, Status: store.AutosavePending}
	a.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.record(ctx, projectID, field, seq, store.AutosavePending, "")

		body := map[Field]any{field: value}
		var err error
		if projectID.IsZero() {
			var created ID
			created, err = a.upstream.CreateProject(ctx, body)
			if err == nil {
				a.logger.Debug("draft field autosaved", "editor", a.editorID, "field", field, "upstream_id", created)
			}
		} else {
			err = a.upstream.PatchProject(ctx, projectID, body)
		}
		if err != nil {
			a.logger.Warn("autosave failed", "editor", a.editorID, "project", projectID, "field", field, "err", err)
			a.settle(ctx, projectID, field, seq, store.AutosaveFailed, err.Error())
			return
		}
		a.settle(ctx, projectID, field, seq, store.AutosaveSucceeded, "")
	}()
}

// settle records an outcome unless a newer save of the same field has
// already been issued.
func (a *autosaver) settle(ctx context.Context, projectID ID, field Field, seq int64, status store.AutosaveStatus, errText string) {
	a.mu.Lock()
	if current, ok := a.latest[field]; !ok || current.Seq <= seq {
		a.latest[field] = FieldStatus{Seq: seq, Status: status, Error: errText}
	}
	a.mu.Unlock()
	a.record(ctx, projectID, field, seq, status, errText)
}

func (a *autosaver) record(ctx context.Context, projectID ID, field Field, seq int64, status store.AutosaveStatus, errText string) {
	if a.journal == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, journalTimeout)
	defer cancel()
	err := a.journal.RecordAutosave(ctx, store.AutosaveRecord{
		EditorID:   a.editorID,
		ProjectID:  projectID.String(),
		Field:      string(field),
		Seq:        seq,
		Status:     status,
		Error:      errText,
		RecordedAt: time.Now().UTC(),
	})
	if err != nil {
		a.logger.Debug("autosave journal write failed", "editor", a.editorID, "err", err)
	}
}

func (a *autosaver) status() map[Field]FieldStatus {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[Field]FieldStatus, len(a.latest))
	for k, v := range a.latest {
		out[k] = v
	}
	return out
}

// history reads the newest journaled record per field.
func (a *autosaver) history(ctx context.Context) ([]store.AutosaveRecord, error) {
	if a.journal == nil {
		return []store.AutosaveRecord{}, nil
	}
	records, err := a.journal.LatestAutosaves(ctx, a.editorID)
	if records == nil {
		records = []store.AutosaveRecord{}
	}
	return records, err
}

func (a *autosaver) wait() {
	a.wg.Wait()
}

// MemoryJournal keeps autosave records in process memory.
type MemoryJournal struct {
	mu      sync.Mutex
	records []store.AutosaveRecord
	limit   int
}

// NewMemoryJournal keeps at most limit records, dropping the oldest. A
// non-positive limit keeps everything.
func NewMemoryJournal(limit int) *MemoryJournal {
	return &MemoryJournal{limit: limit}
}

func (j *MemoryJournal) RecordAutosave(_ context.Context, record store.AutosaveRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.records = append(j.records, record)
	if j.limit > 0 && len(j.records) > j.limit {
		j.records = append([]store.AutosaveRecord(nil), j.records[len(j.records)-j.limit:]...)
	}
	return nil
}

func (j *MemoryJournal) Records(editorID string) []store.AutosaveRecord {
	j.mu.Lock()
	defer j.mu.Unlock()
	var out []store.AutosaveRecord
	for _, r := range j.records {
		if editorID == "" || r.EditorID == editorID {
			out = append(out, r)
		}
	}
	return out
}

// LatestAutosaves returns the newest record per field for one editor,
// ordered by field.
func (j *MemoryJournal) LatestAutosaves(_ context.Context, editorID string) ([]store.AutosaveRecord, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	latest := map[string]store.AutosaveRecord{}
	for _, r := range j.records {
		if r.EditorID != editorID {
			continue
		}
		if current, ok := latest[r.Field]; !ok || r.Seq >= current.Seq {
			latest[r.Field] = r
		}
	}
	out := make([]store.AutosaveRecord, 0, len(latest))
	for _, r := range latest {
		out = append(out, r)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].Field < out[k].Field })
	return out, nil
}
