package models

import "time"

// Estado is the lifecycle state of a project.
type Estado string

const (
	EstadoPlanificacion Estado = "planificacion"
	EstadoEnCurso       Estado = "en_curso"
	EstadoPausado       Estado = "pausado"
	EstadoCompletado    Estado = "completado"
	EstadoCancelado     Estado = "cancelado"
)

// ValidEstado reports whether e is one of the known project states.
func ValidEstado(e Estado) bool {
	switch e {
	case EstadoPlanificacion, EstadoEnCurso, EstadoPausado, EstadoCompletado, EstadoCancelado:
		return true
	}
	return false
}

// ProjectRole is the project-scoped role carried by an assignment.
type ProjectRole string

const (
	ProjectRoleSupervisor ProjectRole = "supervisor"
	ProjectRoleOperario   ProjectRole = "operario"
)

// ValidProjectRole reports whether r is a known project-scoped role.
func ValidProjectRole(r ProjectRole) bool {
	return r == ProjectRoleSupervisor || r == ProjectRoleOperario
}

// Project is the canonical project row: soft-deleted, budgeted, with an
// optional unique short code and a free-form datos_adicionales document.
type Project struct {
	ID                 int                    `json:"id" db:"id"`
	Nombre             string                 `json:"nombre" db:"nombre"`
	Codigo             *string                `json:"codigo,omitempty" db:"codigo"`
	Descripcion        string                 `json:"descripcion,omitempty" db:"descripcion"`
	ClienteID          *int                   `json:"cliente_id,omitempty" db:"cliente_id"`
	Ubicacion          string                 `json:"ubicacion,omitempty" db:"ubicacion"`
	FechaInicio        *time.Time             `json:"fecha_inicio,omitempty" db:"fecha_inicio"`
	FechaFinEstimada   *time.Time             `json:"fecha_fin_estimada,omitempty" db:"fecha_fin_estimada"`
	FechaFinReal       *time.Time             `json:"fecha_fin_real,omitempty" db:"fecha_fin_real"`
	PresupuestoInicial *float64               `json:"presupuesto_inicial,omitempty" db:"presupuesto_inicial"`
	PresupuestoActual  *float64               `json:"presupuesto_actual,omitempty" db:"presupuesto_actual"`
	Estado             Estado                 `json:"estado" db:"estado"`
	ManagerID          int                    `json:"manager_id" db:"manager_id"`
	DatosAdicionales   map[string]interface{} `json:"datos_adicionales" db:"datos_adicionales"`
	Activo             bool                   `json:"activo" db:"activo"`
	CreatedAt          time.Time              `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time              `json:"updated_at" db:"updated_at"`
}

// ProjectSummary is a project row as returned by the collection listing,
// with joined display fields and the assigned-user count.
type ProjectSummary struct {
	Project
	ClienteNombre     *string `json:"cliente_nombre"`
	ManagerNombre     *string `json:"manager_nombre"`
	UsuariosAsignados int     `json:"usuarios_asignados"`
}

// ProjectDetail is a single project with joined client/manager contact data
// and the full assigned-user list.
type ProjectDetail struct {
	Project
	ClienteNombre     *string         `json:"cliente_nombre"`
	ClienteContacto   *string         `json:"cliente_contacto,omitempty"`
	ClienteTelefono   *string         `json:"cliente_telefono,omitempty"`
	ClienteEmail      *string         `json:"cliente_email,omitempty"`
	ManagerNombre     *string         `json:"manager_nombre"`
	UsuariosAsignados []ProjectMember `json:"usuarios_asignados"`
}

// ProjectMember is an active user assigned to a project.
type ProjectMember struct {
	ID          int         `json:"id"`
	Nombre      string      `json:"nombre"`
	Email       string      `json:"email"`
	RolProyecto ProjectRole `json:"rol_proyecto"`
}

// Client is referenced, never owned, by projects.
type Client struct {
	ID       int    `json:"id" db:"id"`
	Nombre   string `json:"nombre" db:"nombre"`
	Contacto string `json:"contacto,omitempty" db:"contacto"`
	Telefono string `json:"telefono,omitempty" db:"telefono"`
	Email    string `json:"email,omitempty" db:"email"`
}

// CreateProjectRequest is the payload for POST /api/projects. Dates travel
// as YYYY-MM-DD strings and are validated at the boundary.
type CreateProjectRequest struct {
	Nombre             string   `json:"nombre"`
	Codigo             *string  `json:"codigo"`
	Descripcion        string   `json:"descripcion"`
	ClienteID          *int     `json:"cliente_id"`
	Ubicacion          string   `json:"ubicacion"`
	FechaInicio        *string  `json:"fecha_inicio"`
	FechaFinEstimada   *string  `json:"fecha_fin_estimada"`
	PresupuestoInicial *float64 `json:"presupuesto_inicial"`
	ManagerID          *int     `json:"manager_id"`
}

// UpdateProjectRequest is the sparse payload for PUT /api/projects/{id}.
// Nil means "field absent": it contributes neither a SET fragment nor a
// bound parameter.
type UpdateProjectRequest struct {
	Nombre             *string  `json:"nombre"`
	Codigo             *string  `json:"codigo"`
	Descripcion        *string  `json:"descripcion"`
	ClienteID          *int     `json:"cliente_id"`
	Ubicacion          *string  `json:"ubicacion"`
	FechaInicio        *string  `json:"fecha_inicio"`
	FechaFinEstimada   *string  `json:"fecha_fin_estimada"`
	FechaFinReal       *string  `json:"fecha_fin_real"`
	PresupuestoInicial *float64 `json:"presupuesto_inicial"`
	PresupuestoActual  *float64 `json:"presupuesto_actual"`
	Estado             *Estado  `json:"estado"`
	ManagerID          *int     `json:"manager_id"`
}

// AssignUserRequest is the payload for POST /api/projects/{id}/usuarios.
type AssignUserRequest struct {
	UserID      int         `json:"user_id"`
	RolProyecto ProjectRole `json:"rol_proyecto"`
}

// ProjectFilter drives the collection listing. Zero values mean "no filter";
// VisibleTo restricts rows to projects the user manages or is assigned to.
type ProjectFilter struct {
	Estado    Estado
	ManagerID *int
	Search    string
	VisibleTo *int
	Page      int
	Limit     int
}

// ProjectStats is the role-filtered dashboard aggregate.
type ProjectStats struct {
	ProyectosActivos       int     `json:"proyectos_activos"`
	ProyectosPlanificacion int     `json:"proyectos_planificacion"`
	ProyectosCompletados   int     `json:"proyectos_completados"`
	TotalProyectos         int     `json:"total_proyectos"`
	PresupuestoTotal       float64 `json:"presupuesto_total"`
	PresupuestoActualTotal float64 `json:"presupuesto_actual_total"`
}
