package handlers

import (
	"database/sql"
	"sort"
	"strings"
	"time"

	"obra-control-backend/pkg/database"
	"obra-control-backend/pkg/models"

	"github.com/lib/pq"
)

// memStore is an in-memory database.Store used by the handler tests. It
// mirrors the error contract of the Postgres store: sql.ErrNoRows for
// missing rows, pq unique violations for duplicate keys.
type memStore struct {
	users       map[int]*models.User
	projects    map[int]*models.Project
	assignments map[[2]int]models.ProjectRole
	nextUserID  int
	nextProjID  int
}

func newMemStore() *memStore {
	return &memStore{
		users:       map[int]*models.User{},
		projects:    map[int]*models.Project{},
		assignments: map[[2]int]models.ProjectRole{},
		nextUserID:  1,
		nextProjID:  1,
	}
}

func uniqueViolation(constraint string) error {
	return &pq.Error{Code: "23505", Constraint: constraint}
}

func (m *memStore) addUser(nombre, email string, rol models.Role) *models.User {
	user := &models.User{
		ID:     m.nextUserID,
		Nombre: nombre,
		Email:  email,
		Rol:    rol,
		Activo: true,
	}
	m.users[user.ID] = user
	m.nextUserID++
	return user
}

func (m *memStore) addProject(nombre string, managerID int) *models.Project {
	p := &models.Project{
		ID:               m.nextProjID,
		Nombre:           nombre,
		Estado:           models.EstadoPlanificacion,
		ManagerID:        managerID,
		DatosAdicionales: map[string]interface{}{},
		Activo:           true,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}
	m.projects[p.ID] = p
	m.nextProjID++
	return p
}

func (m *memStore) CreateUser(nombre, email, passwordHash string, rol models.Role) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return nil, uniqueViolation("users_email_key")
		}
	}
	user := m.addUser(nombre, email, rol)
	user.Password = passwordHash
	out := *user
	out.Password = ""
	return &out, nil
}

func (m *memStore) GetUserByEmail(email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memStore) GetActiveUser(id int) (*models.AuthUser, error) {
	u, ok := m.users[id]
	if !ok || !u.Activo {
		return nil, sql.ErrNoRows
	}
	return &models.AuthUser{ID: u.ID, Nombre: u.Nombre, Email: u.Email, Rol: u.Rol}, nil
}

func (m *memStore) EmailExists(email string) (bool, error) {
	for _, u := range m.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) visible(p *models.Project, userID int) bool {
	if p.ManagerID == userID {
		return true
	}
	_, assigned := m.assignments[[2]int{p.ID, userID}]
	return assigned
}

func (m *memStore) ListProjects(filter models.ProjectFilter) ([]models.ProjectSummary, int, error) {
	var rows []models.ProjectSummary
	for _, p := range m.projects {
		if !p.Activo {
			continue
		}
		if filter.Estado != "" && p.Estado != filter.Estado {
			continue
		}
		if filter.ManagerID != nil && p.ManagerID != *filter.ManagerID {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(p.Nombre), strings.ToLower(filter.Search)) {
			continue
		}
		if filter.VisibleTo != nil && !m.visible(p, *filter.VisibleTo) {
			continue
		}
		count := 0
		for key := range m.assignments {
			if key[0] == p.ID {
				count++
			}
		}
		rows = append(rows, models.ProjectSummary{Project: *p, UsuariosAsignados: count})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })

	total := len(rows)
	offset := (filter.Page - 1) * filter.Limit
	if offset >= total {
		return nil, total, nil
	}
	end := offset + filter.Limit
	if end > total {
		end = total
	}
	return rows[offset:end], total, nil
}

func (m *memStore) GetProjectDetail(id int) (*models.ProjectDetail, error) {
	p, err := m.GetProject(id)
	if err != nil {
		return nil, err
	}
	detail := &models.ProjectDetail{Project: *p, UsuariosAsignados: []models.ProjectMember{}}
	for key, rol := range m.assignments {
		if key[0] != id {
			continue
		}
		if u, ok := m.users[key[1]]; ok {
			detail.UsuariosAsignados = append(detail.UsuariosAsignados, models.ProjectMember{
				ID: u.ID, Nombre: u.Nombre, Email: u.Email, RolProyecto: rol,
			})
		}
	}
	return detail, nil
}

func (m *memStore) GetProject(id int) (*models.Project, error) {
	p, ok := m.projects[id]
	if !ok || !p.Activo {
		return nil, sql.ErrNoRows
	}
	out := *p
	return &out, nil
}

func (m *memStore) CreateProject(req models.CreateProjectRequest, managerID int) (*models.Project, error) {
	if req.Codigo != nil {
		for _, p := range m.projects {
			if p.Codigo != nil && *p.Codigo == *req.Codigo {
				return nil, uniqueViolation("proyectos_codigo_key")
			}
		}
	}
	p := m.addProject(req.Nombre, managerID)
	p.Codigo = req.Codigo
	p.Descripcion = req.Descripcion
	p.ClienteID = req.ClienteID
	p.Ubicacion = req.Ubicacion
	p.PresupuestoInicial = req.PresupuestoInicial
	p.PresupuestoActual = req.PresupuestoInicial
	out := *p
	return &out, nil
}

func (m *memStore) UpdateProject(id int, req models.UpdateProjectRequest) (*models.Project, error) {
	p, ok := m.projects[id]
	if !ok || !p.Activo {
		return nil, sql.ErrNoRows
	}

	changed := false
	if req.Nombre != nil {
		p.Nombre = *req.Nombre
		changed = true
	}
	if req.Codigo != nil {
		for _, other := range m.projects {
			if other.ID != id && other.Codigo != nil && *other.Codigo == *req.Codigo {
				return nil, uniqueViolation("proyectos_codigo_key")
			}
		}
		p.Codigo = req.Codigo
		changed = true
	}
	if req.Descripcion != nil {
		p.Descripcion = *req.Descripcion
		changed = true
	}
	if req.ClienteID != nil {
		p.ClienteID = req.ClienteID
		changed = true
	}
	if req.Ubicacion != nil {
		p.Ubicacion = *req.Ubicacion
		changed = true
	}
	if req.FechaInicio != nil {
		t, _ := time.Parse("2006-01-02", *req.FechaInicio)
		p.FechaInicio = &t
		changed = true
	}
	if req.FechaFinEstimada != nil {
		t, _ := time.Parse("2006-01-02", *req.FechaFinEstimada)
		p.FechaFinEstimada = &t
		changed = true
	}
	if req.FechaFinReal != nil {
		t, _ := time.Parse("2006-01-02", *req.FechaFinReal)
		p.FechaFinReal = &t
		changed = true
	}
	if req.PresupuestoInicial != nil {
		p.PresupuestoInicial = req.PresupuestoInicial
		changed = true
	}
	if req.PresupuestoActual != nil {
		p.PresupuestoActual = req.PresupuestoActual
		changed = true
	}
	if req.Estado != nil {
		p.Estado = *req.Estado
		changed = true
	}
	if req.ManagerID != nil {
		p.ManagerID = *req.ManagerID
		changed = true
	}

	if !changed {
		return nil, database.ErrNothingToUpdate
	}
	p.UpdatedAt = time.Now()
	out := *p
	return &out, nil
}

func (m *memStore) DeleteProject(id int) error {
	p, ok := m.projects[id]
	if !ok || !p.Activo {
		return sql.ErrNoRows
	}
	p.Activo = false
	return nil
}

func (m *memStore) AssignUser(projectID, userID int, rol models.ProjectRole) error {
	m.assignments[[2]int{projectID, userID}] = rol
	return nil
}

func (m *memStore) IsUserAssigned(projectID, userID int) (bool, error) {
	_, ok := m.assignments[[2]int{projectID, userID}]
	return ok, nil
}

func (m *memStore) MergeProjectData(id int, datos map[string]interface{}) (map[string]interface{}, error) {
	p, ok := m.projects[id]
	if !ok || !p.Activo {
		return nil, sql.ErrNoRows
	}
	p.DatosAdicionales = database.MergeJSON(p.DatosAdicionales, datos)
	return p.DatosAdicionales, nil
}

func (m *memStore) ProjectStats(visibleTo *int) (*models.ProjectStats, error) {
	stats := &models.ProjectStats{}
	for _, p := range m.projects {
		if !p.Activo {
			continue
		}
		if visibleTo != nil && !m.visible(p, *visibleTo) {
			continue
		}
		stats.TotalProyectos++
		switch p.Estado {
		case models.EstadoEnCurso:
			stats.ProyectosActivos++
		case models.EstadoPlanificacion:
			stats.ProyectosPlanificacion++
		case models.EstadoCompletado:
			stats.ProyectosCompletados++
		}
		if p.PresupuestoInicial != nil {
			stats.PresupuestoTotal += *p.PresupuestoInicial
		}
		if p.PresupuestoActual != nil {
			stats.PresupuestoActualTotal += *p.PresupuestoActual
		}
	}
	return stats, nil
}

func (m *memStore) TrackingDashboard(projectID int) (*models.TrackingDashboard, error) {
	if _, ok := m.projects[projectID]; !ok {
		return nil, sql.ErrNoRows
	}
	return &models.TrackingDashboard{
		ResumenGeneral: models.TrackingSummary{},
		Metas:          []models.ProjectGoal{},
	}, nil
}

var _ database.Store = (*memStore)(nil)
