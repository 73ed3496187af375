package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"obra-control-backend/pkg/authz"
	"obra-control-backend/pkg/database"
	"obra-control-backend/pkg/middleware"
	"obra-control-backend/pkg/models"
	"obra-control-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100

	dateLayout = "2006-01-02"
)

// ProjectsHandler serves the project resource: CRUD, assignment upsert,
// datos-adicionales merge and the stats dashboard.
type ProjectsHandler struct {
	store database.Store
}

func NewProjectsHandler(store database.Store) *ProjectsHandler {
	return &ProjectsHandler{store: store}
}

type listProjectsResponse struct {
	Success    bool                    `json:"success"`
	Proyectos  []models.ProjectSummary `json:"proyectos"`
	Pagination utils.Pagination        `json:"pagination"`
}

type projectResponse struct {
	Success  bool            `json:"success"`
	Message  string          `json:"message,omitempty"`
	Proyecto *models.Project `json:"proyecto"`
}

type projectDetailResponse struct {
	Success  bool                  `json:"success"`
	Proyecto *models.ProjectDetail `json:"proyecto"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type statsResponse struct {
	Success bool                 `json:"success"`
	Stats   *models.ProjectStats `json:"stats"`
}

type datosResponse struct {
	Success          bool                   `json:"success"`
	Message          string                 `json:"message"`
	DatosAdicionales map[string]interface{} `json:"datos_adicionales"`
}

// projectID parses the {id} route parameter.
func projectID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		return 0, errors.New("ID debe ser un número")
	}
	return id, nil
}

func validDate(s string) bool {
	_, err := time.Parse(dateLayout, s)
	return err == nil
}

func validateCreateProject(req *models.CreateProjectRequest) []string {
	var errs []string

	req.Nombre = strings.TrimSpace(req.Nombre)
	if len(req.Nombre) < 2 {
		errs = append(errs, "Nombre debe tener al menos 2 caracteres")
	}
	if req.FechaInicio != nil && !validDate(*req.FechaInicio) {
		errs = append(errs, "Fecha de inicio inválida")
	}
	if req.FechaFinEstimada != nil && !validDate(*req.FechaFinEstimada) {
		errs = append(errs, "Fecha fin estimada inválida")
	}

	return errs
}

func validateUpdateProject(req *models.UpdateProjectRequest) []string {
	var errs []string

	if req.Nombre != nil {
		trimmed := strings.TrimSpace(*req.Nombre)
		*req.Nombre = trimmed
		if len(trimmed) < 2 {
			errs = append(errs, "Nombre debe tener al menos 2 caracteres")
		}
	}
	if req.Estado != nil && !models.ValidEstado(*req.Estado) {
		errs = append(errs, "Estado inválido")
	}
	if req.FechaInicio != nil && !validDate(*req.FechaInicio) {
		errs = append(errs, "Fecha de inicio inválida")
	}
	if req.FechaFinEstimada != nil && !validDate(*req.FechaFinEstimada) {
		errs = append(errs, "Fecha fin estimada inválida")
	}
	if req.FechaFinReal != nil && !validDate(*req.FechaFinReal) {
		errs = append(errs, "Fecha fin real inválida")
	}

	return errs
}

// List returns one visibility-filtered page of projects.
// GET /api/projects?estado=&manager_id=&search=&page=&limit=
func (h *ProjectsHandler) List(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteError(w, http.StatusUnauthorized, "Token de acceso requerido")
		return
	}

	filter := models.ProjectFilter{
		Estado: models.Estado(r.URL.Query().Get("estado")),
		Search: strings.TrimSpace(r.URL.Query().Get("search")),
	}

	if filter.Estado != "" && !models.ValidEstado(filter.Estado) {
		utils.WriteError(w, http.StatusBadRequest, "Estado inválido")
		return
	}

	if raw := r.URL.Query().Get("manager_id"); raw != "" {
		managerID, err := strconv.Atoi(raw)
		if err != nil {
			utils.WriteError(w, http.StatusBadRequest, "Manager ID debe ser un número")
			return
		}
		filter.ManagerID = &managerID
	}

	filter.Page, _ = strconv.Atoi(utils.GetQueryParam(r, "page", strconv.Itoa(defaultPage)))
	if filter.Page < 1 {
		filter.Page = defaultPage
	}
	filter.Limit, _ = strconv.Atoi(utils.GetQueryParam(r, "limit", strconv.Itoa(defaultLimit)))
	if filter.Limit < 1 {
		filter.Limit = defaultLimit
	}
	if filter.Limit > maxLimit {
		filter.Limit = maxLimit
	}

	if user.Rol != models.RoleAdmin {
		filter.VisibleTo = &user.ID
	}

	proyectos, total, err := h.store.ListProjects(filter)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}
	if proyectos == nil {
		proyectos = []models.ProjectSummary{}
	}

	utils.WriteJSON(w, http.StatusOK, listProjectsResponse{
		Success:    true,
		Proyectos:  proyectos,
		Pagination: utils.NewPagination(filter.Page, filter.Limit, total),
	})
}

// Get returns a single project with its assigned users.
// GET /api/projects/{id}
func (h *ProjectsHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteError(w, http.StatusUnauthorized, "Token de acceso requerido")
		return
	}

	id, err := projectID(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	detail, err := h.store.GetProjectDetail(id)
	if err != nil {
		if utils.IsNotFound(err) {
			utils.WriteError(w, http.StatusNotFound, "Proyecto no encontrado")
			return
		}
		utils.WriteAppError(w, err)
		return
	}

	visible, err := authz.CanViewProject(*user, &detail.Project, h.store)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}
	if !visible {
		utils.WriteError(w, http.StatusForbidden, "No tienes permisos para ver este proyecto")
		return
	}

	utils.WriteJSON(w, http.StatusOK, projectDetailResponse{Success: true, Proyecto: detail})
}

// Create inserts a project. Non-admin creators always become the manager;
// admins may name another one. POST /api/projects
func (h *ProjectsHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteError(w, http.StatusUnauthorized, "Token de acceso requerido")
		return
	}

	var req models.CreateProjectRequest
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Datos inválidos")
		return
	}

	if errs := validateCreateProject(&req); len(errs) > 0 {
		utils.WriteValidationError(w, "Datos inválidos", errs)
		return
	}

	managerID := user.ID
	if user.Rol == models.RoleAdmin && req.ManagerID != nil {
		managerID = *req.ManagerID
	}

	proyecto, err := h.store.CreateProject(req, managerID)
	if err != nil {
		if utils.IsUniqueViolation(err) {
			utils.WriteError(w, http.StatusBadRequest, "El código del proyecto ya existe")
			return
		}
		utils.WriteAppError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, projectResponse{
		Success:  true,
		Message:  "Proyecto creado exitosamente",
		Proyecto: proyecto,
	})
}

// Update applies a sparse partial update. Ownership, not just role, grants
// edit rights: the project's manager passes even without the global
// project_manager role. PUT /api/projects/{id}
func (h *ProjectsHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteError(w, http.StatusUnauthorized, "Token de acceso requerido")
		return
	}

	id, err := projectID(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req models.UpdateProjectRequest
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Datos inválidos")
		return
	}

	if errs := validateUpdateProject(&req); len(errs) > 0 {
		utils.WriteValidationError(w, "Datos inválidos", errs)
		return
	}

	proyecto, err := h.store.GetProject(id)
	if err != nil {
		if utils.IsNotFound(err) {
			utils.WriteError(w, http.StatusNotFound, "Proyecto no encontrado")
			return
		}
		utils.WriteAppError(w, err)
		return
	}

	if !authz.CanEditProject(*user, proyecto) {
		utils.WriteError(w, http.StatusForbidden, "No tienes permisos para editar este proyecto")
		return
	}

	updated, err := h.store.UpdateProject(id, req)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrNothingToUpdate):
			utils.WriteError(w, http.StatusBadRequest, "No hay datos para actualizar")
		case utils.IsUniqueViolation(err):
			utils.WriteError(w, http.StatusBadRequest, "El código del proyecto ya existe")
		case utils.IsNotFound(err):
			utils.WriteError(w, http.StatusNotFound, "Proyecto no encontrado")
		default:
			utils.WriteAppError(w, err)
		}
		return
	}

	utils.WriteJSON(w, http.StatusOK, projectResponse{
		Success:  true,
		Message:  "Proyecto actualizado exitosamente",
		Proyecto: updated,
	})
}

// Delete soft-deletes a project. The route is gated strictly to admins.
// DELETE /api/projects/{id}
func (h *ProjectsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := projectID(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.DeleteProject(id); err != nil {
		if utils.IsNotFound(err) {
			utils.WriteError(w, http.StatusNotFound, "Proyecto no encontrado")
			return
		}
		utils.WriteAppError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, messageResponse{
		Success: true,
		Message: "Proyecto eliminado exitosamente",
	})
}

// AssignUser upserts a user onto a project; re-assigning only updates the
// project role. POST /api/projects/{id}/usuarios
func (h *ProjectsHandler) AssignUser(w http.ResponseWriter, r *http.Request) {
	id, err := projectID(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req models.AssignUserRequest
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Datos inválidos")
		return
	}

	var errs []string
	if req.UserID <= 0 {
		errs = append(errs, "User ID debe ser un número")
	}
	if req.RolProyecto == "" {
		req.RolProyecto = models.ProjectRoleOperario
	} else if !models.ValidProjectRole(req.RolProyecto) {
		errs = append(errs, "Rol de proyecto inválido")
	}
	if len(errs) > 0 {
		utils.WriteValidationError(w, "Datos inválidos", errs)
		return
	}

	if _, err := h.store.GetProject(id); err != nil {
		if utils.IsNotFound(err) {
			utils.WriteError(w, http.StatusNotFound, "Proyecto no encontrado")
			return
		}
		utils.WriteAppError(w, err)
		return
	}

	if _, err := h.store.GetActiveUser(req.UserID); err != nil {
		if utils.IsNotFound(err) {
			utils.WriteError(w, http.StatusNotFound, "Usuario no encontrado")
			return
		}
		utils.WriteAppError(w, err)
		return
	}

	if err := h.store.AssignUser(id, req.UserID, req.RolProyecto); err != nil {
		utils.WriteAppError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, messageResponse{
		Success: true,
		Message: "Usuario asignado al proyecto exitosamente",
	})
}

// MergeDatos shallow-merges the submitted document into datos_adicionales.
// PATCH /api/projects/{id}/datos-adicionales
func (h *ProjectsHandler) MergeDatos(w http.ResponseWriter, r *http.Request) {
	id, err := projectID(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req struct {
		Datos map[string]interface{} `json:"datos"`
	}
	if err := utils.ParseJSONBody(r, &req); err != nil || req.Datos == nil {
		utils.WriteError(w, http.StatusBadRequest, "Datos inválidos")
		return
	}

	merged, err := h.store.MergeProjectData(id, req.Datos)
	if err != nil {
		if utils.IsNotFound(err) {
			utils.WriteError(w, http.StatusNotFound, "Proyecto no encontrado")
			return
		}
		utils.WriteAppError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, datosResponse{
		Success:          true,
		Message:          "Datos adicionales actualizados exitosamente",
		DatosAdicionales: merged,
	})
}

// Stats returns the role-filtered dashboard aggregates.
// GET /api/projects/stats/dashboard
func (h *ProjectsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteError(w, http.StatusUnauthorized, "Token de acceso requerido")
		return
	}

	var visibleTo *int
	if user.Rol != models.RoleAdmin {
		visibleTo = &user.ID
	}

	stats, err := h.store.ProjectStats(visibleTo)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, statsResponse{Success: true, Stats: stats})
}
