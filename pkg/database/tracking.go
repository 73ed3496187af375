package database

import (
	"database/sql"
	"fmt"

	"obra-control-backend/pkg/models"
)

// TrackingDashboard aggregates pipe-laying progress for one project:
// required totals over active sections plus the milestone list. Installed
// figures stay zero until field reports are wired in.
func (s *PostgresStore) TrackingDashboard(projectID int) (*models.TrackingDashboard, error) {
	// The aggregate below always yields a row, so a missing project has to
	// be detected up front.
	var exists bool
	err := s.db.QueryRow(
		`SELECT EXISTS(SELECT 1 FROM proyectos WHERE id = $1 AND activo = true)`,
		projectID,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check project existence: %w", err)
	}
	if !exists {
		return nil, sql.ErrNoRows
	}

	var summary models.TrackingSummary
	err = s.db.QueryRow(`
		SELECT
			COALESCE(SUM(tubos_requeridos), 0) AS tubos_totales_requeridos,
			COALESCE(SUM(longitud_total), 0) AS metros_totales_requeridos
		FROM tramos_proyecto
		WHERE proyecto_id = $1 AND activo = true`,
		projectID,
	).Scan(&summary.TubosTotalesRequeridos, &summary.MetrosTotalesRequeridos)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate tracking summary: %w", err)
	}

	rows, err := s.db.Query(`
		SELECT id, proyecto_id, porcentaje_meta, descripcion
		FROM metas_proyecto
		WHERE proyecto_id = $1
		ORDER BY porcentaje_meta`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load project goals: %w", err)
	}
	defer rows.Close()

	metas := []models.ProjectGoal{}
	for rows.Next() {
		var g models.ProjectGoal
		if err := rows.Scan(&g.ID, &g.ProyectoID, &g.PorcentajeMeta, &g.Descripcion); err != nil {
			return nil, fmt.Errorf("failed to scan project goal: %w", err)
		}
		metas = append(metas, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read project goals: %w", err)
	}

	return &models.TrackingDashboard{ResumenGeneral: summary, Metas: metas}, nil
}
