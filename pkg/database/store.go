package database

import "obra-control-backend/pkg/models"

// Store is the persistence surface the handlers depend on. The Postgres
// implementation is the only real one; tests substitute in-memory fakes.
type Store interface {
	// Users
	CreateUser(nombre, email, passwordHash string, rol models.Role) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	// GetActiveUser resolves an id to an active user; inactive or absent
	// users yield sql.ErrNoRows so deactivation acts like deletion.
	GetActiveUser(id int) (*models.AuthUser, error)
	EmailExists(email string) (bool, error)

	// Projects
	ListProjects(filter models.ProjectFilter) ([]models.ProjectSummary, int, error)
	GetProjectDetail(id int) (*models.ProjectDetail, error)
	GetProject(id int) (*models.Project, error)
	CreateProject(req models.CreateProjectRequest, managerID int) (*models.Project, error)
	UpdateProject(id int, req models.UpdateProjectRequest) (*models.Project, error)
	DeleteProject(id int) error
	AssignUser(projectID, userID int, rol models.ProjectRole) error
	IsUserAssigned(projectID, userID int) (bool, error)
	MergeProjectData(id int, datos map[string]interface{}) (map[string]interface{}, error)
	ProjectStats(visibleTo *int) (*models.ProjectStats, error)

	// Tracking
	TrackingDashboard(projectID int) (*models.TrackingDashboard, error)
}
