package handlers

import (
	"net/http"
	"strconv"

	"obra-control-backend/pkg/database"
	"obra-control-backend/pkg/models"
	"obra-control-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
)

// TrackingHandler serves the seguimiento (progress reporting) endpoints.
type TrackingHandler struct {
	store database.Store
}

func NewTrackingHandler(store database.Store) *TrackingHandler {
	return &TrackingHandler{store: store}
}

type trackingResponse struct {
	Success   bool                      `json:"success"`
	Dashboard *models.TrackingDashboard `json:"dashboard"`
}

// Test confirms the tracking router is mounted. GET /api/seguimiento/test
func (h *TrackingHandler) Test(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, messageResponse{
		Success: true,
		Message: "Seguimiento funcionando",
	})
}

// Dashboard returns the progress summary and milestones for a project.
// GET /api/seguimiento/{projectId}/dashboard
func (h *TrackingHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	projectID, err := strconv.Atoi(chi.URLParam(r, "projectId"))
	if err != nil || projectID <= 0 {
		utils.WriteError(w, http.StatusBadRequest, "ID debe ser un número")
		return
	}

	dashboard, err := h.store.TrackingDashboard(projectID)
	if err != nil {
		if utils.IsNotFound(err) {
			utils.WriteError(w, http.StatusNotFound, "Proyecto no encontrado")
			return
		}
		utils.WriteAppError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, trackingResponse{Success: true, Dashboard: dashboard})
}
