package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"obra-control-backend/pkg/middleware"
	"obra-control-backend/pkg/models"
	"obra-control-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
)

// asUser attaches an authenticated identity and the chi route params a
// handler would see behind the router.
func asUser(req *http.Request, user *models.User, params map[string]string) *http.Request {
	ctx := req.Context()
	if user != nil {
		ctx = context.WithValue(ctx, middleware.UserContextKey, &models.AuthUser{
			ID: user.ID, Nombre: user.Nombre, Email: user.Email, Rol: user.Rol,
		})
	}
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	return req.WithContext(ctx)
}

func idParam(id int) map[string]string {
	return map[string]string{"id": strconv.Itoa(id)}
}

type projectFixture struct {
	store   *memStore
	handler *ProjectsHandler
	admin   *models.User
	manager *models.User
	worker  *models.User
	project *models.Project
}

func newProjectFixture() *projectFixture {
	store := newMemStore()
	f := &projectFixture{
		store:   store,
		handler: NewProjectsHandler(store),
		admin:   store.addUser("Admin", "admin@example.com", models.RoleAdmin),
		manager: store.addUser("Marta", "marta@example.com", models.RoleProjectManager),
		worker:  store.addUser("Saul", "saul@example.com", models.RoleSupervisor),
	}
	f.project = store.addProject("Colector Norte", f.manager.ID)
	return f
}

func TestGetProjectVisibility(t *testing.T) {
	f := newProjectFixture()

	get := func(user *models.User) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/projects/1", nil)
		f.handler.Get(rec, asUser(req, user, idParam(f.project.ID)))
		return rec
	}

	if rec := get(f.manager); rec.Code != http.StatusOK {
		t.Fatalf("manager: status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if rec := get(f.admin); rec.Code != http.StatusOK {
		t.Fatalf("admin: status = %d, want 200", rec.Code)
	}

	rec := get(f.worker)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("unassigned: status = %d, want 403", rec.Code)
	}
	var body utils.ErrorResponse
	decodeBody(t, rec, &body)
	if body.Message != "No tienes permisos para ver este proyecto" {
		t.Fatalf("message = %q", body.Message)
	}

	// Assignment flips visibility without touching the global role.
	if err := f.store.AssignUser(f.project.ID, f.worker.ID, models.ProjectRoleSupervisor); err != nil {
		t.Fatalf("AssignUser: %v", err)
	}
	if rec := get(f.worker); rec.Code != http.StatusOK {
		t.Fatalf("assigned: status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
}

func TestGetProjectNotFound(t *testing.T) {
	f := newProjectFixture()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/projects/99", nil)
	f.handler.Get(rec, asUser(req, f.admin, idParam(99)))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/projects/abc", nil)
	f.handler.Get(rec, asUser(req, f.admin, map[string]string{"id": "abc"}))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("non-numeric id: status = %d, want 400", rec.Code)
	}
}

func TestListProjectsScopedByRole(t *testing.T) {
	f := newProjectFixture()
	other := f.store.addUser("Pedro", "pedro@example.com", models.RoleProjectManager)
	f.store.addProject("Planta Sur", other.ID)

	list := func(user *models.User) listProjectsResponse {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
		f.handler.List(rec, asUser(req, user, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		var body listProjectsResponse
		decodeBody(t, rec, &body)
		return body
	}

	if body := list(f.admin); len(body.Proyectos) != 2 {
		t.Fatalf("admin sees %d projects, want 2", len(body.Proyectos))
	}
	if body := list(f.manager); len(body.Proyectos) != 1 || body.Proyectos[0].Nombre != "Colector Norte" {
		t.Fatalf("manager listing = %+v", body.Proyectos)
	}

	// No managed or assigned projects yields an empty array, not null.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
	f.handler.List(rec, asUser(req, f.worker, nil))
	if !strings.Contains(rec.Body.String(), `"proyectos":[]`) {
		t.Fatalf("expected empty proyectos array, got %s", rec.Body.String())
	}
}

func TestListProjectsRejectsBadFilters(t *testing.T) {
	f := newProjectFixture()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/projects?estado=volando", nil)
	f.handler.List(rec, asUser(req, f.admin, nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad estado: status = %d, want 400", rec.Code)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/projects?manager_id=abc", nil)
	f.handler.List(rec, asUser(req, f.admin, nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad manager_id: status = %d, want 400", rec.Code)
	}
}

func TestCreateProjectManagerAssignment(t *testing.T) {
	f := newProjectFixture()

	create := func(user *models.User, req models.CreateProjectRequest) (*httptest.ResponseRecorder, projectResponse) {
		rec := httptest.NewRecorder()
		httpReq := jsonRequest(t, http.MethodPost, "/api/projects", req)
		f.handler.Create(rec, asUser(httpReq, user, nil))
		var body projectResponse
		if rec.Code == http.StatusCreated {
			decodeBody(t, rec, &body)
		}
		return rec, body
	}

	// A manager creating a project becomes its manager even when the
	// payload names somebody else.
	rec, body := create(f.manager, models.CreateProjectRequest{Nombre: "Obra A", ManagerID: &f.admin.ID})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if body.Proyecto.ManagerID != f.manager.ID {
		t.Fatalf("manager_id = %d, want creator %d", body.Proyecto.ManagerID, f.manager.ID)
	}

	// Admins may delegate.
	rec, body = create(f.admin, models.CreateProjectRequest{Nombre: "Obra B", ManagerID: &f.manager.ID})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if body.Proyecto.ManagerID != f.manager.ID {
		t.Fatalf("delegated manager_id = %d, want %d", body.Proyecto.ManagerID, f.manager.ID)
	}
}

func TestCreateProjectDuplicateCodigo(t *testing.T) {
	f := newProjectFixture()
	codigo := "OBR-001"
	f.project.Codigo = &codigo

	rec := httptest.NewRecorder()
	req := jsonRequest(t, http.MethodPost, "/api/projects", models.CreateProjectRequest{
		Nombre: "Obra Repetida",
		Codigo: &codigo,
	})
	f.handler.Create(rec, asUser(req, f.manager, nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var body utils.ErrorResponse
	decodeBody(t, rec, &body)
	if body.Message != "El código del proyecto ya existe" {
		t.Fatalf("message = %q", body.Message)
	}
}

func TestUpdateProjectOwnership(t *testing.T) {
	f := newProjectFixture()
	nombre := "Colector Norte Fase 2"

	update := func(user *models.User, req models.UpdateProjectRequest) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		httpReq := jsonRequest(t, http.MethodPut, "/api/projects/1", req)
		f.handler.Update(rec, asUser(httpReq, user, idParam(f.project.ID)))
		return rec
	}

	// An assigned supervisor is not an editor.
	if err := f.store.AssignUser(f.project.ID, f.worker.ID, models.ProjectRoleSupervisor); err != nil {
		t.Fatalf("AssignUser: %v", err)
	}
	rec := update(f.worker, models.UpdateProjectRequest{Nombre: &nombre})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("assigned non-owner: status = %d, want 403", rec.Code)
	}

	// The declared manager edits regardless of global role checks.
	rec = update(f.manager, models.UpdateProjectRequest{Nombre: &nombre})
	if rec.Code != http.StatusOK {
		t.Fatalf("owner: status = %d: %s", rec.Code, rec.Body.String())
	}
	var body projectResponse
	decodeBody(t, rec, &body)
	if body.Proyecto.Nombre != nombre {
		t.Fatalf("nombre = %q, want %q", body.Proyecto.Nombre, nombre)
	}
}

func TestUpdateProjectOwnershipBeatsGlobalRole(t *testing.T) {
	f := newProjectFixture()
	// A supervisor who owns a project edits it; a project manager who
	// does not own it cannot.
	owned := f.store.addProject("Obra Propia", f.worker.ID)
	nombre := "Obra Propia v2"

	rec := httptest.NewRecorder()
	req := jsonRequest(t, http.MethodPut, "/api/projects/2", models.UpdateProjectRequest{Nombre: &nombre})
	f.handler.Update(rec, asUser(req, f.worker, idParam(owned.ID)))
	if rec.Code != http.StatusOK {
		t.Fatalf("supervisor-owner: status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	req = jsonRequest(t, http.MethodPut, "/api/projects/2", models.UpdateProjectRequest{Nombre: &nombre})
	f.handler.Update(rec, asUser(req, f.manager, idParam(owned.ID)))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("non-owner manager: status = %d, want 403", rec.Code)
	}
}

func TestUpdateProjectNothingToUpdate(t *testing.T) {
	f := newProjectFixture()

	rec := httptest.NewRecorder()
	req := jsonRequest(t, http.MethodPut, "/api/projects/1", models.UpdateProjectRequest{})
	f.handler.Update(rec, asUser(req, f.manager, idParam(f.project.ID)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var body utils.ErrorResponse
	decodeBody(t, rec, &body)
	if body.Message != "No hay datos para actualizar" {
		t.Fatalf("message = %q", body.Message)
	}
}

func TestDeleteProjectSoftDeletes(t *testing.T) {
	f := newProjectFixture()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/projects/1", nil)
	f.handler.Delete(rec, asUser(req, f.admin, idParam(f.project.ID)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	// The row survives but is gone from reads; a second delete is a 404.
	if _, err := f.store.GetProject(f.project.ID); !utils.IsNotFound(err) {
		t.Fatalf("deleted project still readable: %v", err)
	}
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodDelete, "/api/projects/1", nil)
	f.handler.Delete(rec, asUser(req, f.admin, idParam(f.project.ID)))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("repeat delete: status = %d, want 404", rec.Code)
	}
}

func TestAssignUserUpsert(t *testing.T) {
	f := newProjectFixture()

	assign := func(req models.AssignUserRequest, params map[string]string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		httpReq := jsonRequest(t, http.MethodPost, "/api/projects/1/usuarios", req)
		f.handler.AssignUser(rec, asUser(httpReq, f.manager, params))
		return rec
	}

	rec := assign(models.AssignUserRequest{UserID: f.worker.ID, RolProyecto: models.ProjectRoleOperario}, idParam(f.project.ID))
	if rec.Code != http.StatusOK {
		t.Fatalf("assign: status = %d: %s", rec.Code, rec.Body.String())
	}

	// Re-assignment updates the project role instead of erroring.
	rec = assign(models.AssignUserRequest{UserID: f.worker.ID, RolProyecto: models.ProjectRoleSupervisor}, idParam(f.project.ID))
	if rec.Code != http.StatusOK {
		t.Fatalf("reassign: status = %d: %s", rec.Code, rec.Body.String())
	}
	if rol := f.store.assignments[[2]int{f.project.ID, f.worker.ID}]; rol != models.ProjectRoleSupervisor {
		t.Fatalf("rol after upsert = %q, want supervisor", rol)
	}

	rec = assign(models.AssignUserRequest{UserID: 999}, idParam(f.project.ID))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown user: status = %d, want 404", rec.Code)
	}
	rec = assign(models.AssignUserRequest{UserID: f.worker.ID}, idParam(42))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown project: status = %d, want 404", rec.Code)
	}
}

func TestMergeDatosAdicionales(t *testing.T) {
	f := newProjectFixture()
	f.project.DatosAdicionales = map[string]interface{}{"fase": "inicial", "turnos": float64(2)}

	rec := httptest.NewRecorder()
	req := jsonRequest(t, http.MethodPatch, "/api/projects/1/datos-adicionales", map[string]interface{}{
		"datos": map[string]interface{}{"fase": "ejecucion", "contratista": "ACME"},
	})
	f.handler.MergeDatos(rec, asUser(req, f.manager, idParam(f.project.ID)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var body datosResponse
	decodeBody(t, rec, &body)
	if body.DatosAdicionales["fase"] != "ejecucion" {
		t.Fatalf("fase = %v, want overwritten value", body.DatosAdicionales["fase"])
	}
	if body.DatosAdicionales["turnos"] != float64(2) {
		t.Fatalf("turnos = %v, want preserved value", body.DatosAdicionales["turnos"])
	}
	if body.DatosAdicionales["contratista"] != "ACME" {
		t.Fatalf("contratista = %v, want added value", body.DatosAdicionales["contratista"])
	}

	// Missing datos document is a validation failure, not an empty merge.
	rec = httptest.NewRecorder()
	req = jsonRequest(t, http.MethodPatch, "/api/projects/1/datos-adicionales", map[string]interface{}{})
	f.handler.MergeDatos(rec, asUser(req, f.manager, idParam(f.project.ID)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("nil datos: status = %d, want 400", rec.Code)
	}
}

func TestStatsScopedByRole(t *testing.T) {
	f := newProjectFixture()
	presupuesto := 1000.0
	f.project.PresupuestoInicial = &presupuesto
	f.project.PresupuestoActual = &presupuesto
	other := f.store.addUser("Pedro", "pedro@example.com", models.RoleProjectManager)
	f.store.addProject("Planta Sur", other.ID)

	stats := func(user *models.User) statsResponse {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/projects/stats/dashboard", nil)
		f.handler.Stats(rec, asUser(req, user, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		var body statsResponse
		decodeBody(t, rec, &body)
		return body
	}

	if body := stats(f.admin); body.Stats.TotalProyectos != 2 {
		t.Fatalf("admin total = %d, want 2", body.Stats.TotalProyectos)
	}
	body := stats(f.manager)
	if body.Stats.TotalProyectos != 1 {
		t.Fatalf("manager total = %d, want 1", body.Stats.TotalProyectos)
	}
	if body.Stats.PresupuestoTotal != presupuesto {
		t.Fatalf("presupuesto_total = %v, want %v", body.Stats.PresupuestoTotal, presupuesto)
	}
}
