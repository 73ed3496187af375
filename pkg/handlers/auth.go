package handlers

import (
	"net/http"
	"net/mail"
	"strings"

	"obra-control-backend/pkg/database"
	"obra-control-backend/pkg/middleware"
	"obra-control-backend/pkg/models"
	"obra-control-backend/pkg/utils"
)

// AuthHandler serves registration, login and identity endpoints.
type AuthHandler struct {
	store database.Store
	jwt   *utils.JWTService
}

func NewAuthHandler(store database.Store, jwtService *utils.JWTService) *AuthHandler {
	return &AuthHandler{store: store, jwt: jwtService}
}

type registerResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	User    *models.User `json:"user"`
}

type loginResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Token   string       `json:"token"`
	User    *models.User `json:"user"`
}

type identityResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message,omitempty"`
	User    *models.AuthUser `json:"user"`
}

func validateRegister(req *models.RegisterRequest) []string {
	var errs []string

	req.Nombre = strings.TrimSpace(req.Nombre)
	if len(req.Nombre) < 2 {
		errs = append(errs, "Nombre debe tener al menos 2 caracteres")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		errs = append(errs, "Email inválido")
	}
	if len(req.Password) < 6 {
		errs = append(errs, "Password debe tener al menos 6 caracteres")
	}
	if req.Rol == "" {
		req.Rol = models.RoleOperario
	} else if !models.ValidRole(req.Rol) {
		errs = append(errs, "Rol inválido")
	}

	return errs
}

// Register creates a user account. POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Datos inválidos")
		return
	}

	if errs := validateRegister(&req); len(errs) > 0 {
		utils.WriteValidationError(w, "Datos inválidos", errs)
		return
	}

	exists, err := h.store.EmailExists(req.Email)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}
	if exists {
		utils.WriteError(w, http.StatusBadRequest, "El email ya está registrado")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}

	user, err := h.store.CreateUser(req.Nombre, req.Email, hash, req.Rol)
	if err != nil {
		// The pre-check races with concurrent registrations; the unique
		// index has the last word.
		if utils.IsUniqueViolation(err) {
			utils.WriteError(w, http.StatusBadRequest, "El email ya está registrado")
			return
		}
		utils.WriteAppError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, registerResponse{
		Success: true,
		Message: "Usuario registrado exitosamente",
		User:    user,
	})
}

// Login verifies credentials and issues a bearer token. POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Datos inválidos")
		return
	}

	var errs []string
	if _, err := mail.ParseAddress(req.Email); err != nil {
		errs = append(errs, "Email inválido")
	}
	if req.Password == "" {
		errs = append(errs, "Password requerido")
	}
	if len(errs) > 0 {
		utils.WriteValidationError(w, "Datos inválidos", errs)
		return
	}

	user, err := h.store.GetUserByEmail(req.Email)
	if err != nil {
		if utils.IsNotFound(err) {
			utils.WriteError(w, http.StatusUnauthorized, "Credenciales inválidas")
			return
		}
		utils.WriteAppError(w, err)
		return
	}

	if !utils.CheckPassword(user.Password, req.Password) {
		utils.WriteError(w, http.StatusUnauthorized, "Credenciales inválidas")
		return
	}

	token, err := h.jwt.GenerateToken(models.AuthUser{
		ID:     user.ID,
		Nombre: user.Nombre,
		Email:  user.Email,
		Rol:    user.Rol,
	})
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, loginResponse{
		Success: true,
		Message: "Login exitoso",
		Token:   token,
		User:    user,
	})
}

// Profile returns the authenticated identity. GET /api/auth/profile
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteError(w, http.StatusUnauthorized, "Token de acceso requerido")
		return
	}

	utils.WriteJSON(w, http.StatusOK, identityResponse{Success: true, User: user})
}

// Verify confirms the bearer token still resolves. GET /api/auth/verify
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteError(w, http.StatusUnauthorized, "Token de acceso requerido")
		return
	}

	utils.WriteJSON(w, http.StatusOK, identityResponse{
		Success: true,
		Message: "Token válido",
		User:    user,
	})
}
