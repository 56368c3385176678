package backend

import (
	"context"
	"net/url"
)

func (c *Client) MASByProject(ctx context.Context, projectID ID) ([]MASItem, error) {
	var items []MASItem
	if err := c.getJSON(ctx, "/api/mas/project/"+segment(projectID), nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) MASSummary(ctx context.Context) ([]MASSummaryRow, error) {
	var rows []MASSummaryRow
	if err := c.getJSON(ctx, "/api/mas/summary", nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Client) MASPendingCount(ctx context.Context, projectID ID, userEmail string) (int, error) {
	return c.pendingCount(ctx, "/api/mas/pending-count", projectID, userEmail)
}

func (c *Client) RFIByProject(ctx context.Context, projectID ID) ([]RFIItem, error) {
	var items []RFIItem
	if err := c.getJSON(ctx, "/api/rfi/project/"+segment(projectID), nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) RFIPendingCount(ctx context.Context, projectID ID, userEmail string) (int, error) {
	return c.pendingCount(ctx, "/api/rfi/pending-count", projectID, userEmail)
}

func (c *Client) pendingCount(ctx context.Context, path string, projectID ID, userEmail string) (int, error) {
	query := url.Values{}
	if !projectID.IsZero() {
		query.Set("projectId", projectID.String())
	}
	if userEmail != "" {
		query.Set("userEmail", userEmail)
	}
	var out PendingCount
	if err := c.getJSON(ctx, path, query, &out); err != nil {
		return 0, err
	}
	return out.Count.Int(), nil
}
