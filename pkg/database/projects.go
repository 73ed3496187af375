package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"obra-control-backend/pkg/models"
)

// Column lists are kept in one place so every project query scans the same
// shape. projectColumnsP carries the "p." alias used in joined queries.
const (
	projectColumns = `id, nombre, codigo, descripcion, cliente_id, ubicacion,
		fecha_inicio, fecha_fin_estimada, fecha_fin_real,
		presupuesto_inicial, presupuesto_actual, estado, manager_id,
		datos_adicionales, activo, created_at, updated_at`

	projectColumnsP = `p.id, p.nombre, p.codigo, p.descripcion, p.cliente_id, p.ubicacion,
		p.fecha_inicio, p.fecha_fin_estimada, p.fecha_fin_real,
		p.presupuesto_inicial, p.presupuesto_actual, p.estado, p.manager_id,
		p.datos_adicionales, p.activo, p.created_at, p.updated_at`
)

// projectRow buffers one scanned proyectos row with its nullable columns.
type projectRow struct {
	id                 int
	nombre             string
	codigo             sql.NullString
	descripcion        sql.NullString
	clienteID          sql.NullInt64
	ubicacion          sql.NullString
	fechaInicio        sql.NullTime
	fechaFinEstimada   sql.NullTime
	fechaFinReal       sql.NullTime
	presupuestoInicial sql.NullFloat64
	presupuestoActual  sql.NullFloat64
	estado             string
	managerID          int
	datos              []byte
	activo             bool
	createdAt          time.Time
	updatedAt          time.Time
}

func (r *projectRow) fields() []interface{} {
	return []interface{}{
		&r.id, &r.nombre, &r.codigo, &r.descripcion, &r.clienteID, &r.ubicacion,
		&r.fechaInicio, &r.fechaFinEstimada, &r.fechaFinReal,
		&r.presupuestoInicial, &r.presupuestoActual, &r.estado, &r.managerID,
		&r.datos, &r.activo, &r.createdAt, &r.updatedAt,
	}
}

func (r *projectRow) toModel() (models.Project, error) {
	p := models.Project{
		ID:          r.id,
		Nombre:      r.nombre,
		Descripcion: r.descripcion.String,
		Ubicacion:   r.ubicacion.String,
		Estado:      models.Estado(r.estado),
		ManagerID:   r.managerID,
		Activo:      r.activo,
		CreatedAt:   r.createdAt,
		UpdatedAt:   r.updatedAt,
	}
	if r.codigo.Valid {
		p.Codigo = &r.codigo.String
	}
	if r.clienteID.Valid {
		id := int(r.clienteID.Int64)
		p.ClienteID = &id
	}
	if r.fechaInicio.Valid {
		p.FechaInicio = &r.fechaInicio.Time
	}
	if r.fechaFinEstimada.Valid {
		p.FechaFinEstimada = &r.fechaFinEstimada.Time
	}
	if r.fechaFinReal.Valid {
		p.FechaFinReal = &r.fechaFinReal.Time
	}
	if r.presupuestoInicial.Valid {
		p.PresupuestoInicial = &r.presupuestoInicial.Float64
	}
	if r.presupuestoActual.Valid {
		p.PresupuestoActual = &r.presupuestoActual.Float64
	}

	p.DatosAdicionales = map[string]interface{}{}
	if len(r.datos) > 0 {
		if err := json.Unmarshal(r.datos, &p.DatosAdicionales); err != nil {
			return p, fmt.Errorf("failed to decode datos_adicionales: %w", err)
		}
	}
	return p, nil
}

// ListProjects returns one visibility-filtered page plus the total count.
func (s *PostgresStore) ListProjects(filter models.ProjectFilter) ([]models.ProjectSummary, int, error) {
	qb := NewQueryBuilder()
	qb.WhereStatic("p.activo = true")

	if filter.Estado != "" {
		qb.Where("p.estado", filter.Estado)
	}
	if filter.ManagerID != nil {
		qb.Where("p.manager_id", *filter.ManagerID)
	}
	if filter.Search != "" {
		qb.WhereExpr("(p.nombre ILIKE $%d OR p.codigo ILIKE $%d OR p.descripcion ILIKE $%d)",
			"%"+filter.Search+"%")
	}
	// Visibility is pushed into the query: non-admins only receive rows
	// where they are manager or assigned.
	if filter.VisibleTo != nil {
		qb.WhereExpr("(p.manager_id = $%d OR pu.user_id = $%d)", *filter.VisibleTo)
	}

	whereClause := qb.WhereClause()

	var total int
	err := s.db.QueryRow(fmt.Sprintf(`
		SELECT COUNT(DISTINCT p.id)
		FROM proyectos p
		LEFT JOIN proyecto_usuarios pu ON p.id = pu.proyecto_id
		%s`, whereClause), qb.Args()...,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count projects: %w", err)
	}

	offset := (filter.Page - 1) * filter.Limit
	limitClause := qb.Paginate(filter.Limit, offset)

	rows, err := s.db.Query(fmt.Sprintf(`
		SELECT
			%s,
			c.nombre AS cliente_nombre,
			u.nombre AS manager_nombre,
			COUNT(DISTINCT pu.user_id) AS usuarios_asignados
		FROM proyectos p
		LEFT JOIN clientes c ON p.cliente_id = c.id
		LEFT JOIN users u ON p.manager_id = u.id
		LEFT JOIN proyecto_usuarios pu ON p.id = pu.proyecto_id
		%s
		GROUP BY p.id, c.nombre, u.nombre
		ORDER BY p.created_at DESC
		%s`, projectColumnsP, whereClause, limitClause), qb.Args()...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []models.ProjectSummary
	for rows.Next() {
		var (
			row           projectRow
			clienteNombre sql.NullString
			managerNombre sql.NullString
			asignados     int
		)
		dest := append(row.fields(), &clienteNombre, &managerNombre, &asignados)
		if err := rows.Scan(dest...); err != nil {
			return nil, 0, fmt.Errorf("failed to scan project: %w", err)
		}
		p, err := row.toModel()
		if err != nil {
			return nil, 0, err
		}
		summary := models.ProjectSummary{Project: p, UsuariosAsignados: asignados}
		if clienteNombre.Valid {
			summary.ClienteNombre = &clienteNombre.String
		}
		if managerNombre.Valid {
			summary.ManagerNombre = &managerNombre.String
		}
		projects = append(projects, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read projects: %w", err)
	}

	return projects, total, nil
}

// GetProject returns a bare active project row.
func (s *PostgresStore) GetProject(id int) (*models.Project, error) {
	var row projectRow
	err := s.db.QueryRow(fmt.Sprintf(`
		SELECT %s FROM proyectos
		WHERE id = $1 AND activo = true`, projectColumns),
		id,
	).Scan(row.fields()...)
	if err != nil {
		return nil, err
	}
	p, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetProjectDetail returns an active project with joined client/manager
// contact data and its assigned active users.
func (s *PostgresStore) GetProjectDetail(id int) (*models.ProjectDetail, error) {
	var (
		row             projectRow
		clienteNombre   sql.NullString
		clienteContacto sql.NullString
		clienteTelefono sql.NullString
		clienteEmail    sql.NullString
		managerNombre   sql.NullString
	)
	dest := append(row.fields(), &clienteNombre, &clienteContacto, &clienteTelefono, &clienteEmail, &managerNombre)
	err := s.db.QueryRow(fmt.Sprintf(`
		SELECT
			%s,
			c.nombre AS cliente_nombre,
			c.contacto AS cliente_contacto,
			c.telefono AS cliente_telefono,
			c.email AS cliente_email,
			u.nombre AS manager_nombre
		FROM proyectos p
		LEFT JOIN clientes c ON p.cliente_id = c.id
		LEFT JOIN users u ON p.manager_id = u.id
		WHERE p.id = $1 AND p.activo = true`, projectColumnsP),
		id,
	).Scan(dest...)
	if err != nil {
		return nil, err
	}

	p, err := row.toModel()
	if err != nil {
		return nil, err
	}
	detail := &models.ProjectDetail{Project: p, UsuariosAsignados: []models.ProjectMember{}}
	if clienteNombre.Valid {
		detail.ClienteNombre = &clienteNombre.String
	}
	if clienteContacto.Valid {
		detail.ClienteContacto = &clienteContacto.String
	}
	if clienteTelefono.Valid {
		detail.ClienteTelefono = &clienteTelefono.String
	}
	if clienteEmail.Valid {
		detail.ClienteEmail = &clienteEmail.String
	}
	if managerNombre.Valid {
		detail.ManagerNombre = &managerNombre.String
	}

	rows, err := s.db.Query(`
		SELECT u.id, u.nombre, u.email, pu.rol_proyecto
		FROM proyecto_usuarios pu
		JOIN users u ON pu.user_id = u.id
		WHERE pu.proyecto_id = $1 AND u.activo = true`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load assigned users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m models.ProjectMember
		if err := rows.Scan(&m.ID, &m.Nombre, &m.Email, &m.RolProyecto); err != nil {
			return nil, fmt.Errorf("failed to scan assigned user: %w", err)
		}
		detail.UsuariosAsignados = append(detail.UsuariosAsignados, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read assigned users: %w", err)
	}

	return detail, nil
}

// CreateProject inserts a project. The current budget starts equal to the
// initial budget; the manager is decided by the caller.
func (s *PostgresStore) CreateProject(req models.CreateProjectRequest, managerID int) (*models.Project, error) {
	var row projectRow
	err := s.db.QueryRow(fmt.Sprintf(`
		INSERT INTO proyectos (
			nombre, codigo, descripcion, cliente_id, ubicacion,
			fecha_inicio, fecha_fin_estimada, presupuesto_inicial,
			presupuesto_actual, manager_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8, $9)
		RETURNING %s`, projectColumns),
		req.Nombre, req.Codigo, req.Descripcion, req.ClienteID, req.Ubicacion,
		req.FechaInicio, req.FechaFinEstimada, req.PresupuestoInicial,
		managerID,
	).Scan(row.fields()...)
	if err != nil {
		return nil, err
	}
	p, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProject applies a sparse partial update. A request with zero
// effective fields fails with ErrNothingToUpdate before touching the store.
func (s *PostgresStore) UpdateProject(id int, req models.UpdateProjectRequest) (*models.Project, error) {
	qb := NewQueryBuilder()
	if req.Nombre != nil {
		qb.Set("nombre", *req.Nombre)
	}
	if req.Codigo != nil {
		qb.Set("codigo", *req.Codigo)
	}
	if req.Descripcion != nil {
		qb.Set("descripcion", *req.Descripcion)
	}
	if req.ClienteID != nil {
		qb.Set("cliente_id", *req.ClienteID)
	}
	if req.Ubicacion != nil {
		qb.Set("ubicacion", *req.Ubicacion)
	}
	if req.FechaInicio != nil {
		qb.Set("fecha_inicio", *req.FechaInicio)
	}
	if req.FechaFinEstimada != nil {
		qb.Set("fecha_fin_estimada", *req.FechaFinEstimada)
	}
	if req.FechaFinReal != nil {
		qb.Set("fecha_fin_real", *req.FechaFinReal)
	}
	if req.PresupuestoInicial != nil {
		qb.Set("presupuesto_inicial", *req.PresupuestoInicial)
	}
	if req.PresupuestoActual != nil {
		qb.Set("presupuesto_actual", *req.PresupuestoActual)
	}
	if req.Estado != nil {
		qb.Set("estado", *req.Estado)
	}
	if req.ManagerID != nil {
		qb.Set("manager_id", *req.ManagerID)
	}

	qb.SetStatic("updated_at = CURRENT_TIMESTAMP")
	setClause, err := qb.SetClause()
	if err != nil {
		return nil, err
	}

	qb.WhereStatic("activo = true")
	qb.Where("id", id)

	var row projectRow
	err = s.db.QueryRow(fmt.Sprintf(`
		UPDATE proyectos SET %s
		%s
		RETURNING %s`, setClause, qb.WhereClause(), projectColumns),
		qb.Args()...,
	).Scan(row.fields()...)
	if err != nil {
		return nil, err
	}
	p, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// DeleteProject soft-deletes a project; the row survives for history.
func (s *PostgresStore) DeleteProject(id int) error {
	res, err := s.db.Exec(`
		UPDATE proyectos
		SET activo = false, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND activo = true`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// AssignUser upserts an assignment: re-assigning updates the project role
// instead of duplicating the pair. The conflict target is the table's
// (proyecto_id, user_id) unique constraint, so concurrent assigns cannot
// race into duplicates.
func (s *PostgresStore) AssignUser(projectID, userID int, rol models.ProjectRole) error {
	_, err := s.db.Exec(`
		INSERT INTO proyecto_usuarios (proyecto_id, user_id, rol_proyecto)
		VALUES ($1, $2, $3)
		ON CONFLICT (proyecto_id, user_id)
		DO UPDATE SET rol_proyecto = EXCLUDED.rol_proyecto, created_at = CURRENT_TIMESTAMP`,
		projectID, userID, rol,
	)
	if err != nil {
		return fmt.Errorf("failed to assign user: %w", err)
	}
	return nil
}

// IsUserAssigned is the single existence check behind fine-grained
// visibility.
func (s *PostgresStore) IsUserAssigned(projectID, userID int) (bool, error) {
	var exists bool
	err := s.db.QueryRow(
		`SELECT EXISTS(SELECT 1 FROM proyecto_usuarios WHERE proyecto_id = $1 AND user_id = $2)`,
		projectID, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check assignment: %w", err)
	}
	return exists, nil
}

// MergeProjectData shallow-merges datos into the stored datos_adicionales
// document and returns the merged result. The merged document is bound as a
// single serialized parameter.
func (s *PostgresStore) MergeProjectData(id int, datos map[string]interface{}) (map[string]interface{}, error) {
	var blob []byte
	err := s.db.QueryRow(
		`SELECT datos_adicionales FROM proyectos WHERE id = $1 AND activo = true`,
		id,
	).Scan(&blob)
	if err != nil {
		return nil, err
	}

	stored := map[string]interface{}{}
	if len(blob) > 0 {
		if err := json.Unmarshal(blob, &stored); err != nil {
			return nil, fmt.Errorf("failed to decode datos_adicionales: %w", err)
		}
	}

	merged := MergeJSON(stored, datos)
	out, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("failed to encode datos_adicionales: %w", err)
	}

	_, err = s.db.Exec(`
		UPDATE proyectos
		SET datos_adicionales = $1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2 AND activo = true`,
		out, id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update datos_adicionales: %w", err)
	}

	return merged, nil
}

// ProjectStats aggregates the dashboard counters, visibility-filtered for
// non-admins.
func (s *PostgresStore) ProjectStats(visibleTo *int) (*models.ProjectStats, error) {
	qb := NewQueryBuilder()
	qb.WhereStatic("p.activo = true")
	if visibleTo != nil {
		qb.WhereExpr("(p.manager_id = $%d OR pu.user_id = $%d)", *visibleTo)
	}

	// The assignment join fans out rows, so aggregation runs over the
	// deduplicated project set.
	var stats models.ProjectStats
	err := s.db.QueryRow(fmt.Sprintf(`
		SELECT
			COUNT(CASE WHEN v.estado = 'en_curso' THEN 1 END) AS proyectos_activos,
			COUNT(CASE WHEN v.estado = 'planificacion' THEN 1 END) AS proyectos_planificacion,
			COUNT(CASE WHEN v.estado = 'completado' THEN 1 END) AS proyectos_completados,
			COUNT(*) AS total_proyectos,
			COALESCE(SUM(v.presupuesto_inicial), 0) AS presupuesto_total,
			COALESCE(SUM(v.presupuesto_actual), 0) AS presupuesto_actual_total
		FROM (
			SELECT DISTINCT p.id, p.estado, p.presupuesto_inicial, p.presupuesto_actual
			FROM proyectos p
			LEFT JOIN proyecto_usuarios pu ON p.id = pu.proyecto_id
			%s
		) v`, qb.WhereClause()), qb.Args()...,
	).Scan(
		&stats.ProyectosActivos, &stats.ProyectosPlanificacion,
		&stats.ProyectosCompletados, &stats.TotalProyectos,
		&stats.PresupuestoTotal, &stats.PresupuestoActualTotal,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate project stats: %w", err)
	}
	return &stats, nil
}
