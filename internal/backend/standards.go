package backend

import (
	"context"
	"net/http"
)

func (c *Client) ActiveStandards(ctx context.Context) (StandardGroups, error) {
	var groups StandardGroups
	if err := c.getJSON(ctx, "/api/project-standards", nil, &groups); err != nil {
		return StandardGroups{}, err
	}
	return groups, nil
}

func (c *Client) AllStandards(ctx context.Context) ([]Standard, error) {
	var standards []Standard
	if err := c.getJSON(ctx, "/api/project-standards-all", nil, &standards); err != nil {
		return nil, err
	}
	return standards, nil
}

func (c *Client) CreateStandard(ctx context.Context, in StandardInput) error {
	return c.sendJSON(ctx, http.MethodPost, "/api/project-standards", in, nil)
}

func (c *Client) UpdateStandard(ctx context.Context, id ID, patch StandardPatch) error {
	return c.sendJSON(ctx, http.MethodPatch, "/api/project-standards/"+segment(id), patch, nil)
}

func (c *Client) DeleteStandard(ctx context.Context, id ID) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/project-standards/"+segment(id), nil, nil)
	return err
}
