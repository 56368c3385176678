package board

import (
	"context"

	"atelier/portal/internal/backend"
)

type Approvals struct {
	ProjectID  backend.ID        `json:"projectId,omitempty"`
	MAS        []backend.MASItem `json:"mas"`
	RFI        []backend.RFIItem `json:"rfi"`
	PendingMAS int               `json:"pendingMas"`
	PendingRFI int               `json:"pendingRfi"`
	Error      string            `json:"error,omitempty"`
}

// ApprovalStats are the pending counters shown on the L2 dashboard. An
// empty project id counts across the user's projects.
func (s *Service) ApprovalStats(ctx context.Context, projectID backend.ID, userEmail string) Approvals {
	out := Approvals{ProjectID: projectID, MAS: []backend.MASItem{}, RFI: []backend.RFIItem{}}
	var err error
	if out.PendingMAS, err = s.upstream.MASPendingCount(ctx, projectID, userEmail); err != nil {
		s.failure(&out.Error, "Failed to fetch MAS count", err)
	}
	if out.PendingRFI, err = s.upstream.RFIPendingCount(ctx, projectID, userEmail); err != nil {
		s.failure(&out.Error, "Failed to fetch RFI count", err)
	}
	return out
}

// Approvals adds the item lists to the stats; withMAS and withRFI select
// which lists the caller may see.
func (s *Service) Approvals(ctx context.Context, projectID backend.ID, userEmail string, withMAS, withRFI bool) Approvals {
	out := s.ApprovalStats(ctx, projectID, userEmail)
	if withMAS {
		items, err := s.upstream.MASByProject(ctx, projectID)
		if err != nil {
			s.failure(&out.Error, "Failed to fetch MAS", err)
		} else {
			out.MAS = orEmpty(items)
		}
	}
	if withRFI {
		items, err := s.upstream.RFIByProject(ctx, projectID)
		if err != nil {
			s.failure(&out.Error, "Failed to fetch RFI", err)
		} else {
			out.RFI = orEmpty(items)
		}
	}
	return out
}
