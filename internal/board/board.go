// Package board assembles the read views behind the dashboards: the project
// status board, the lead assignment table, approval lists and the vendor
// summary. A failed fetch is reported in the view's Error field and the rest
// of the view is still returned.
package board

import (
	"context"
	"log/slog"

	"atelier/portal/internal/backend"
)

type Upstream interface {
	ListProjects(ctx context.Context, userEmail string) ([]backend.ProjectSummary, error)
	ListArchivedProjects(ctx context.Context) ([]backend.ProjectSummary, error)
	ArchiveProject(ctx context.Context, projectID backend.ID, userEmail string) error
	UsersByLevel(ctx context.Context, level string) ([]backend.User, error)
	AssignLead(ctx context.Context, projectID, leadID backend.ID, userEmail string) error
	MASByProject(ctx context.Context, projectID backend.ID) ([]backend.MASItem, error)
	MASPendingCount(ctx context.Context, projectID backend.ID, userEmail string) (int, error)
	MASSummary(ctx context.Context) ([]backend.MASSummaryRow, error)
	RFIByProject(ctx context.Context, projectID backend.ID) ([]backend.RFIItem, error)
	RFIPendingCount(ctx context.Context, projectID backend.ID, userEmail string) (int, error)
}

type Service struct {
	upstream Upstream
	logger   *slog.Logger
}

func NewService(upstream Upstream, logger *slog.Logger) *Service {
	return &Service{upstream: upstream, logger: logger.With("component", "board")}
}

// failure records the first failure message on a view.
func (s *Service) failure(current *string, message string, err error) {
	s.logger.Warn(message, "err", err)
	if *current == "" {
		*current = message
	}
}

func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
