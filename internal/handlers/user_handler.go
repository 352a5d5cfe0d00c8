package handlers

import (
	"encoding/json"
	"net/http"

	"oyakatsu/internal/models"
	"oyakatsu/internal/service"
	"oyakatsu/internal/validation"
)

// UserHandler handles profile and device endpoints
type UserHandler struct {
	userService *service.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// Me retrieves the caller's profile
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		respondAppError(w, errUnauthorized)
		return
	}

	respondJSON(w, http.StatusOK, newUserResponse(user))
}

type updateProfileRequest struct {
	DisplayName string `json:"displayName"`
}

// UpdateProfile updates the caller's display name
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		respondAppError(w, errUnauthorized)
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondAppError(w, &AppError{http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body"})
		return
	}
	if err := validation.ValidateDisplayName(req.DisplayName); err != nil {
		respondError(w, err)
		return
	}

	updated, err := h.userService.UpdateProfile(user.ID, req.DisplayName)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newUserResponse(updated))
}

type setRoleRequest struct {
	Role string `json:"role"`
}

// SetRole records the caller's role, once
func (h *UserHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		respondAppError(w, errUnauthorized)
		return
	}

	var req setRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondAppError(w, &AppError{http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body"})
		return
	}

	role, err := models.ParseRole(req.Role)
	if err != nil {
		respondAppError(w, &AppError{http.StatusBadRequest, "VALIDATION_ERROR", "role must be parent or child"})
		return
	}

	updated, err := h.userService.SetRole(user.ID, role)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newUserResponse(updated))
}

type registerDeviceRequest struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
}

// RegisterDevice stores a push token for the caller's device
func (h *UserHandler) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		respondAppError(w, errUnauthorized)
		return
	}

	var req registerDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondAppError(w, &AppError{http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body"})
		return
	}
	if req.Token == "" {
		respondAppError(w, &AppError{http.StatusBadRequest, "VALIDATION_ERROR", "device token is required"})
		return
	}

	platform, err := models.ParsePlatform(req.Platform)
	if err != nil {
		respondAppError(w, &AppError{http.StatusBadRequest, "VALIDATION_ERROR", "platform must be ios or android"})
		return
	}

	if err := h.userService.RegisterDevice(user.ID, req.Token, platform); err != nil {
		respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UploadAvatar is a placeholder until image storage is wired up
func (h *UserHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	respondAppError(w, errNotImplemented)
}
