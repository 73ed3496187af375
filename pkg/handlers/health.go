package handlers

import (
	"net/http"
	"time"

	"obra-control-backend/pkg/utils"
)

type healthResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// HealthCheck answers the liveness probe. GET /api/health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, healthResponse{
		Success:   true,
		Message:   "Servidor funcionando correctamente",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
