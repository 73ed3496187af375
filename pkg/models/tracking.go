package models

// TrackingSummary aggregates pipe-laying progress over a project's active
// sections. Installed figures stay zero until field reports land.
type TrackingSummary struct {
	TubosTotalesRequeridos  float64 `json:"tubos_totales_requeridos"`
	MetrosTotalesRequeridos float64 `json:"metros_totales_requeridos"`
	TubosInstaladosTotal    float64 `json:"tubos_instalados_total"`
	MetrosInstaladosTotal   float64 `json:"metros_instalados_total"`
	PorcentajeAvanceTotal   float64 `json:"porcentaje_avance_total"`
}

// ProjectGoal is a progress milestone (metas_proyecto row).
type ProjectGoal struct {
	ID             int     `json:"id" db:"id"`
	ProyectoID     int     `json:"proyecto_id" db:"proyecto_id"`
	PorcentajeMeta float64 `json:"porcentaje_meta" db:"porcentaje_meta"`
	Descripcion    string  `json:"descripcion,omitempty" db:"descripcion"`
}

// TrackingDashboard is the payload of GET /api/seguimiento/{id}/dashboard.
type TrackingDashboard struct {
	ResumenGeneral TrackingSummary `json:"resumen_general"`
	Metas          []ProjectGoal   `json:"metas"`
}
