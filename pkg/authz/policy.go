// Package authz concentrates every role/ownership decision in one
// declarative table plus two ownership predicates, instead of per-route
// conditionals.
package authz

import "obra-control-backend/pkg/models"

// Action names a manager-gated mutating operation.
type Action string

const (
	ActionCreateProject Action = "project:create"
	ActionDeleteProject Action = "project:delete"
	ActionAssignUsers   Action = "project:assign-users"
	ActionMergeData     Action = "project:merge-data"
)

// rolePolicy maps each coarse action to the global roles allowed to perform
// it. Deletion is strictly admin: the manager role alone is insufficient,
// even for projects the caller owns.
var rolePolicy = map[Action][]models.Role{
	ActionCreateProject: {models.RoleAdmin, models.RoleProjectManager},
	ActionDeleteProject: {models.RoleAdmin},
	ActionAssignUsers:   {models.RoleAdmin, models.RoleProjectManager},
	ActionMergeData:     {models.RoleAdmin, models.RoleProjectManager},
}

// Allows reports whether the global role passes the coarse gate for action.
func Allows(rol models.Role, action Action) bool {
	for _, allowed := range rolePolicy[action] {
		if rol == allowed {
			return true
		}
	}
	return false
}

// MembershipChecker is the single existence lookup fine-grained visibility
// needs beyond the role gate.
type MembershipChecker interface {
	IsUserAssigned(projectID, userID int) (bool, error)
}

// CanViewProject decides read access to a single project: an admin or the
// project's declared manager passes unconditionally, anyone else needs an
// assignment row for the (project, user) pair.
func CanViewProject(user models.AuthUser, project *models.Project, members MembershipChecker) (bool, error) {
	if user.Rol == models.RoleAdmin || project.ManagerID == user.ID {
		return true, nil
	}
	return members.IsUserAssigned(project.ID, user.ID)
}

// CanEditProject decides edit access: ownership, not just role. The
// project's own manager may edit it even when their global role is not
// project_manager; nobody else but an admin may.
func CanEditProject(user models.AuthUser, project *models.Project) bool {
	return user.Rol == models.RoleAdmin || project.ManagerID == user.ID
}
