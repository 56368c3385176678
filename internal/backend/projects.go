package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

func (c *Client) ListProjects(ctx context.Context, userEmail string) ([]ProjectSummary, error) {
	var projects []ProjectSummary
	if err := c.getJSON(ctx, "/api/projects", emailQuery(userEmail), &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// GetProjectTree returns the nested project document as sent upstream; the
// editor validates and decodes it.
func (c *Client) GetProjectTree(ctx context.Context, projectID ID) (json.RawMessage, error) {
	raw, err := c.do(ctx, http.MethodGet, "/api/projects/"+segment(projectID)+"/full", nil, nil)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(raw), nil
}

// CreateProject posts body and returns the id the backend assigned. The id
// is read from "id" or "project.id".
func (c *Client) CreateProject(ctx context.Context, body any) (ID, error) {
	raw, err := c.do(ctx, http.MethodPost, "/api/projects", nil, body)
	if err != nil {
		return "", err
	}
	for _, path := range []string{"id", "project.id"} {
		if value := gjson.GetBytes(raw, path); value.Exists() && value.Type != gjson.Null {
			return ID(value.String()), nil
		}
	}
	return "", fmt.Errorf("create project: response carries no id")
}

func (c *Client) PatchProject(ctx context.Context, projectID ID, body any) error {
	return c.sendJSON(ctx, http.MethodPatch, "/api/projects/"+segment(projectID), body, nil)
}

func (c *Client) AssignLead(ctx context.Context, projectID, leadID ID, userEmail string) error {
	body := map[string]any{"leadId": leadID, "userEmail": userEmail}
	return c.sendJSON(ctx, http.MethodPost, "/api/projects/"+segment(projectID)+"/assign-lead", body, nil)
}

func (c *Client) ArchiveProject(ctx context.Context, projectID ID, userEmail string) error {
	body := map[string]string{"userEmail": userEmail}
	return c.sendJSON(ctx, http.MethodPost, "/api/projects/"+segment(projectID)+"/archive", body, nil)
}

func (c *Client) ListArchivedProjects(ctx context.Context) ([]ProjectSummary, error) {
	var projects []ProjectSummary
	if err := c.getJSON(ctx, "/api/projects/archive/list", nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

func (c *Client) UsersByLevel(ctx context.Context, level string) ([]User, error) {
	var users []User
	if err := c.getJSON(ctx, "/api/users/level/"+segment(ID(level)), nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) SyncUser(ctx context.Context, email, displayName string) (SyncedUser, error) {
	var user SyncedUser
	body := map[string]string{"email": email, "displayName": displayName}
	if err := c.sendJSON(ctx, http.MethodPost, "/api/users/sync", body, &user); err != nil {
		return SyncedUser{}, err
	}
	return user, nil
}
