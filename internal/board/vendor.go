package board

import (
	"context"

	"atelier/portal/internal/backend"
)

type VendorRow struct {
	Project  backend.ProjectSummary `json:"project"`
	Pending  int                    `json:"pending"`
	Approved int                    `json:"approved"`
	Total    int                    `json:"total"`
}

type VendorSummary struct {
	Rows  []VendorRow `json:"rows"`
	Error string      `json:"error,omitempty"`
}

// VendorSummary joins the vendor's projects with per-project MAS counts.
// Projects without a summary row show zeros.
func (s *Service) VendorSummary(ctx context.Context, userEmail string) VendorSummary {
	out := VendorSummary{Rows: []VendorRow{}}
	projects, err := s.upstream.ListProjects(ctx, userEmail)
	if err != nil {
		s.failure(&out.Error, "Failed to fetch projects", err)
		return out
	}
	counts := map[backend.ID]backend.MASSummaryRow{}
	rows, err := s.upstream.MASSummary(ctx)
	if err != nil {
		s.failure(&out.Error, "Failed to fetch MAS summary", err)
	}
	for _, row := range rows {
		counts[row.ProjectID] = row
	}
	for _, p := range projects {
		c := counts[p.ID]
		out.Rows = append(out.Rows, VendorRow{
			Project:  p,
			Pending:  c.PendingCount.Int(),
			Approved: c.ApprovedCount.Int(),
			Total:    c.TotalCount.Int(),
		})
	}
	return out
}
