package board

import (
	"context"

	"atelier/portal/internal/backend"
)

// LeadLevel is the user level offered as project lead.
const LeadLevel = "L2"

type LeadTable struct {
	Projects []backend.ProjectSummary `json:"projects"`
	Leads    []backend.User           `json:"leads"`
	Error    string                   `json:"error,omitempty"`
}

func (s *Service) LeadTable(ctx context.Context, userEmail string) LeadTable {
	table := LeadTable{Projects: []backend.ProjectSummary{}, Leads: []backend.User{}}
	projects, err := s.upstream.ListProjects(ctx, userEmail)
	if err != nil {
		s.failure(&table.Error, "Failed to fetch projects", err)
	} else {
		table.Projects = orEmpty(projects)
	}
	leads, err := s.upstream.UsersByLevel(ctx, LeadLevel)
	if err != nil {
		s.failure(&table.Error, "Failed to fetch users", err)
	} else {
		table.Leads = orEmpty(leads)
	}
	return table
}

// AssignLead records the lead upstream and then updates the table row.
func (s *Service) AssignLead(ctx context.Context, table *LeadTable, projectID, leadID backend.ID, userEmail string) error {
	if err := s.upstream.AssignLead(ctx, projectID, leadID, userEmail); err != nil {
		s.logger.Warn("assign lead failed", "project", projectID, "lead", leadID, "err", err)
		return err
	}
	name := ""
	for _, u := range table.Leads {
		if u.ID == leadID {
			name = u.FullName
			break
		}
	}
	for i := range table.Projects {
		if table.Projects[i].ID == projectID {
			table.Projects[i].AssignedLeadID = leadID
			table.Projects[i].AssignedLeadName = name
		}
	}
	return nil
}
