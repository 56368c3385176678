// Package routes decides which portal view a path resolves to for a given
// session. It is a pure function of (path, authenticated, role).
package routes

import (
	"strings"

	"atelier/portal/internal/rbac"
)

type View string

const (
	ViewSignIn              View = "sign-in"
	ViewSuperAdminDashboard View = "super-admin-dashboard"
	ViewL1Dashboard         View = "l1-dashboard"
	ViewL2Dashboard         View = "l2-dashboard"
	ViewL3Dashboard         View = "l3-dashboard"
	ViewL4Dashboard         View = "l4-dashboard"
	ViewVendorDashboard     View = "vendor-dashboard"
	ViewProjectStandards    View = "project-standards"
	ViewProjectInput        View = "project-input"
	ViewProjectDetail       View = "project-detail"
	ViewMAS                 View = "mas"
	ViewRFI                 View = "rfi"
	ViewComingSoon          View = "coming-soon"
)

const (
	SignInPath    = "/"
	DashboardPath = "/dashboard"
)

// Decision is either a view to render or a path to redirect to.
type Decision struct {
	View     View              `json:"view,omitempty"`
	Redirect string            `json:"redirect,omitempty"`
	Params   map[string]string `json:"params,omitempty"`
}

func (d Decision) IsRedirect() bool {
	return d.Redirect != ""
}

// Access describes who may open a route. Authenticated grants any signed-in
// role; otherwise the role must satisfy Min (exactly when Exact is set) or be
// listed in Also.
type Access struct {
	Authenticated bool
	Min           rbac.Role
	Exact         bool
	Also          []rbac.Role
}

func (a Access) Allows(role rbac.Role) bool {
	if a.Authenticated {
		return true
	}
	if a.Exact {
		if role == a.Min {
			return true
		}
	} else if rbac.AtLeast(role, a.Min) {
		return true
	}
	for _, extra := range a.Also {
		if role == extra {
			return true
		}
	}
	return false
}

type Route struct {
	Pattern string
	View    View
	Access  Access
}

var Table = []Route{
	{Pattern: "/super-admin-dashboard", View: ViewSuperAdminDashboard, Access: Access{Min: rbac.RoleSuperAdmin, Exact: true}},
	{Pattern: "/l1-dashboard", View: ViewL1Dashboard, Access: Access{Min: rbac.RoleL1}},
	{Pattern: "/l2-dashboard", View: ViewL2Dashboard, Access: Access{Min: rbac.RoleL2}},
	{Pattern: "/l3-dashboard", View: ViewL3Dashboard, Access: Access{Min: rbac.RoleL3}},
	{Pattern: "/l4-dashboard", View: ViewL4Dashboard, Access: Access{Min: rbac.RoleL4}},
	{Pattern: "/vendor-dashboard", View: ViewVendorDashboard, Access: Access{Min: rbac.RoleVendor, Exact: true}},
	{Pattern: "/project-standards", View: ViewProjectStandards, Access: Access{Min: rbac.RoleSuperAdmin, Exact: true}},
	{Pattern: "/project-input", View: ViewProjectInput, Access: Access{Min: rbac.RoleL1}},
	{Pattern: "/project-input/:projectId", View: ViewProjectInput, Access: Access{Min: rbac.RoleL1}},
	{Pattern: "/project/:id", View: ViewProjectDetail, Access: Access{Authenticated: true}},
	{Pattern: "/mas", View: ViewMAS, Access: Access{Min: rbac.RoleL2, Also: []rbac.Role{rbac.RoleVendor}}},
	{Pattern: "/rfi", View: ViewRFI, Access: Access{Min: rbac.RoleL2}},
	{Pattern: "/project-plans", View: ViewComingSoon, Access: Access{Authenticated: true}},
	{Pattern: "/structural-data", View: ViewComingSoon, Access: Access{Authenticated: true}},
	{Pattern: "/settings", View: ViewComingSoon, Access: Access{Authenticated: true}},
}

// Landing returns the dashboard path a role is sent to from /dashboard.
func Landing(role rbac.Role) string {
	switch role {
	case rbac.RoleSuperAdmin:
		return "/super-admin-dashboard"
	case rbac.RoleL1:
		return "/l1-dashboard"
	case rbac.RoleVendor:
		return "/vendor-dashboard"
	case rbac.RoleL3:
		return "/l3-dashboard"
	case rbac.RoleL4:
		return "/l4-dashboard"
	default:
		return "/l2-dashboard"
	}
}

func Resolve(path string, authenticated bool, role rbac.Role) Decision {
	clean := normalizePath(path)

	switch clean {
	case SignInPath:
		if authenticated {
			return Decision{Redirect: DashboardPath}
		}
		return Decision{View: ViewSignIn}
	case DashboardPath:
		if !authenticated {
			return Decision{Redirect: SignInPath}
		}
		return Decision{Redirect: Landing(role)}
	}

	for _, route := range Table {
		params, ok := match(route.Pattern, clean)
		if !ok {
			continue
		}
		if !authenticated || !route.Access.Allows(role) {
			return Decision{Redirect: SignInPath}
		}
		return Decision{View: route.View, Params: params}
	}

	return Decision{Redirect: SignInPath}
}

func normalizePath(path string) string {
	path = strings.TrimSpace(path)
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return "/"
	}
	return "/" + trimmed
}

func match(pattern, path string) (map[string]string, bool) {
	patternParts := strings.Split(strings.Trim(pattern, "/"), "/")
	pathParts := strings.Split(strings.Trim(path, "/"), "/")
	if len(patternParts) != len(pathParts) {
		return nil, false
	}

	var params map[string]string
	for i, part := range patternParts {
		if strings.HasPrefix(part, ":") {
			if pathParts[i] == "" {
				return nil, false
			}
			if params == nil {
				params = make(map[string]string)
			}
			params[strings.TrimPrefix(part, ":")] = pathParts[i]
			continue
		}
		if part != pathParts[i] {
			return nil, false
		}
	}
	return params, true
}
