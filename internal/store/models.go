package store

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("not found")

// SessionRecord is the server-side half of a portal session. Key is the hash
// of the session id carried in the token.
type SessionRecord struct {
	Key         string    `json:"-"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type AutosaveStatus string

const (
	AutosavePending   AutosaveStatus = "pending"
	AutosaveSucceeded AutosaveStatus = "succeeded"
	AutosaveFailed    AutosaveStatus = "failed"
)

// AutosaveRecord is one state transition of one autosave attempt.
type AutosaveRecord struct {
	EditorID   string         `json:"editor_id"`
	ProjectID  string         `json:"project_id"`
	Field      string         `json:"field"`
	Seq        int64          `json:"seq"`
	Status     AutosaveStatus `json:"status"`
	Error      string         `json:"error,omitempty"`
	RecordedAt time.Time      `json:"recorded_at"`
}
