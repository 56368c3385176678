package backend

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ID is an upstream identifier. The backend emits numeric ids while locally
// created entities carry string ids, so both forms decode.
type ID string

func (id ID) String() string { return string(id) }

func (id ID) IsZero() bool { return id == "" }

func (id ID) MarshalJSON() ([]byte, error) {
	if id == "" {
		return []byte("null"), nil
	}
	// Only canonical integers go out bare; "007" or "+5" stay strings.
	if n, err := strconv.ParseInt(string(id), 10, 64); err == nil && strconv.FormatInt(n, 10) == string(id) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*id = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("decode id: %w", err)
		}
		*id = ID(n.String())
	}
	return nil
}

// Number decodes JSON numbers, numeric strings, "" and null. Valid is false
// for the unset forms, which encode back as null.
type Number struct {
	Value float64
	Valid bool
}

var ErrNotFinite = errors.New("number is not finite")

func NewNumber(v float64) Number { return Number{Value: v, Valid: true} }

// ParseFinite parses a decimal and rejects NaN and the infinities, which
// have no JSON encoding.
func ParseFinite(raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrNotFinite
	}
	return v, nil
}

func (n Number) Int() int {
	if !n.Valid {
		return 0
	}
	return int(n.Value)
}

func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(n.Value, 'f', -1, 64)), nil
}

func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = Number{}
		return nil
	}
	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			*n = Number{}
			return nil
		}
	}
	v, err := ParseFinite(raw)
	if err != nil {
		return fmt.Errorf("decode number %q: %w", raw, err)
	}
	*n = Number{Value: v, Valid: true}
	return nil
}

type ProjectSummary struct {
	ID                      ID     `json:"id"`
	Name                    string `json:"name"`
	Description             string `json:"description"`
	LifecycleStage          string `json:"lifecycle_stage"`
	CompletionPercentage    Number `json:"completion_percentage"`
	FloorsCompleted         Number `json:"floors_completed"`
	TotalFloors             Number `json:"total_floors"`
	MaterialStockPercentage Number `json:"material_stock_percentage"`
	AssignedLeadID          ID     `json:"assigned_lead_id"`
	AssignedLeadName        string `json:"assigned_lead_name"`
}

type User struct {
	ID        ID     `json:"id"`
	Email     string `json:"email"`
	FullName  string `json:"full_name"`
	UserLevel string `json:"user_level"`
}

// SyncedUser is the answer of the sign-in user sync.
type SyncedUser struct {
	ID        ID     `json:"id"`
	Email     string `json:"email"`
	FullName  string `json:"full_name"`
	UserLevel string `json:"user_level"`
}

// Standard categories as stored upstream.
const (
	CategoryApplicationType = "application_type"
	CategoryResidentialType = "residential_type"
	CategoryFlatType        = "flat_type"
)

type Standard struct {
	ID          ID     `json:"id"`
	Category    string `json:"category"`
	Value       string `json:"value"`
	Description string `json:"description"`
	IsActive    bool   `json:"is_active"`
}

// StandardGroups is the active catalog grouped for form pickers.
type StandardGroups struct {
	ApplicationTypes []string `json:"applicationTypes"`
	ResidentialTypes []string `json:"residentialTypes"`
	FlatTypes        []string `json:"flatTypes"`
}

type StandardInput struct {
	Category    string `json:"category"`
	Value       string `json:"value"`
	Description string `json:"description"`
}

type StandardPatch struct {
	Value       *string `json:"value,omitempty"`
	Description *string `json:"description,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

type MASItem struct {
	ID           ID     `json:"id"`
	ProjectID    ID     `json:"project_id"`
	MaterialName string `json:"material_name"`
	Quantity     Number `json:"quantity"`
	Status       string `json:"status"`
	CreatedAt    string `json:"created_at"`
}

type MASSummaryRow struct {
	ProjectID     ID     `json:"project_id"`
	PendingCount  Number `json:"pending_count"`
	ApprovedCount Number `json:"approved_count"`
	TotalCount    Number `json:"total_count"`
}

type RFIItem struct {
	ID           ID     `json:"id"`
	ProjectID    ID     `json:"project_id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	RaisedByName string `json:"raised_by_name"`
	Status       string `json:"status"`
	CreatedAt    string `json:"created_at"`
}

type PendingCount struct {
	Count Number `json:"count"`
}
