package board

import (
	"context"
	"errors"

	"atelier/portal/internal/backend"
)

// Stages in board order. Projects in any other stage land in a trailing
// column of their own.
var Stages = []string{"Concept", "DD", "Tender", "VFC"}

var ErrProjectNotOnBoard = errors.New("project is not on the board")

type StageColumn struct {
	Stage    string                   `json:"stage"`
	Projects []backend.ProjectSummary `json:"projects"`
}

type StatusBoard struct {
	Projects []backend.ProjectSummary `json:"projects"`
	Archived []backend.ProjectSummary `json:"archived"`
	Error    string                   `json:"error,omitempty"`
}

// Columns groups the active projects by lifecycle stage.
func (b *StatusBoard) Columns() []StageColumn {
	cols := make([]StageColumn, 0, len(Stages))
	index := map[string]int{}
	for _, stage := range Stages {
		index[stage] = len(cols)
		cols = append(cols, StageColumn{Stage: stage, Projects: []backend.ProjectSummary{}})
	}
	for _, p := range b.Projects {
		i, ok := index[p.LifecycleStage]
		if !ok {
			i = len(cols)
			index[p.LifecycleStage] = i
			cols = append(cols, StageColumn{Stage: p.LifecycleStage, Projects: []backend.ProjectSummary{}})
		}
		cols[i].Projects = append(cols[i].Projects, p)
	}
	return cols
}

// moveToArchive takes the project off the active list and puts it at the
// head of the archive.
func (b *StatusBoard) moveToArchive(projectID backend.ID) bool {
	for i, p := range b.Projects {
		if p.ID != projectID {
			continue
		}
		b.Projects = append(b.Projects[:i:i], b.Projects[i+1:]...)
		b.Archived = append([]backend.ProjectSummary{p}, b.Archived...)
		return true
	}
	return false
}

func (s *Service) StatusBoard(ctx context.Context, userEmail string) StatusBoard {
	board := StatusBoard{Projects: []backend.ProjectSummary{}, Archived: []backend.ProjectSummary{}}
	projects, err := s.upstream.ListProjects(ctx, userEmail)
	if err != nil {
		s.failure(&board.Error, "Failed to fetch projects", err)
	} else {
		board.Projects = orEmpty(projects)
	}
	archived, err := s.upstream.ListArchivedProjects(ctx)
	if err != nil {
		s.failure(&board.Error, "Failed to fetch archived projects", err)
	} else {
		board.Archived = orEmpty(archived)
	}
	return board
}

// Archive asks the backend to archive the project and, once it has agreed,
// moves the project locally. A failed request leaves the board untouched.
func (s *Service) Archive(ctx context.Context, board *StatusBoard, projectID backend.ID, userEmail string) error {
	if err := s.upstream.ArchiveProject(ctx, projectID, userEmail); err != nil {
		s.logger.Warn("archive failed", "project", projectID, "err", err)
		return err
	}
	if !board.moveToArchive(projectID) {
		return ErrProjectNotOnBoard
	}
	s.logger.Info("project archived", "project", projectID, "by", userEmail)
	return nil
}
