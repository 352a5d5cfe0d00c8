package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"oyakatsu/internal/models"
	"oyakatsu/internal/service"
	"oyakatsu/internal/validation"
)

// AuthHandler handles the verification-code authentication endpoints
type AuthHandler struct {
	authService         *service.AuthService
	verificationService *service.VerificationService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, verificationService *service.VerificationService) *AuthHandler {
	return &AuthHandler{
		authService:         authService,
		verificationService: verificationService,
	}
}

type sendCodeRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	Email       string `json:"email"`
}

type sendCodeResponse struct {
	ExpiresAt  string `json:"expiresAt"`
	RetryAfter int    `json:"retryAfter"`
}

// SendCode issues a verification code for a phone number or email address.
// The response never reveals whether delivery succeeded.
func (h *AuthHandler) SendCode(w http.ResponseWriter, r *http.Request) {
	var req sendCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondAppError(w, &AppError{http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body"})
		return
	}

	target, err := validation.ValidateTarget(req.PhoneNumber, req.Email)
	if err != nil {
		respondError(w, err)
		return
	}

	codeType := models.CodeTypePhone
	if req.PhoneNumber == "" {
		codeType = models.CodeTypeEmail
	}

	expiresAt, retryAfter, err := h.verificationService.Issue(r.Context(), target, codeType)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, sendCodeResponse{
		ExpiresAt:  expiresAt.UTC().Format(time.RFC3339),
		RetryAfter: retryAfter,
	})
}

type verifyCodeRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	Email       string `json:"email"`
	Code        string `json:"code"`
}

type newUserResponseBody struct {
	IsNewUser bool   `json:"isNewUser"`
	Message   string `json:"message"`
}

// VerifyCode consumes a code. Known targets get tokens, unknown targets get
// an isNewUser signal telling the client to register.
func (h *AuthHandler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	var req verifyCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondAppError(w, &AppError{http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body"})
		return
	}

	target, err := validation.ValidateTarget(req.PhoneNumber, req.Email)
	if err != nil {
		respondError(w, err)
		return
	}
	if err := validation.ValidateVerificationCode(req.Code); err != nil {
		respondError(w, err)
		return
	}

	result, err := h.authService.VerifyCode(target, req.Code)
	if err != nil {
		respondError(w, err)
		return
	}

	if result.IsNewUser {
		respondJSON(w, http.StatusOK, newUserResponseBody{
			IsNewUser: true,
			Message:   "Verification successful, please register",
		})
		return
	}

	respondJSON(w, http.StatusOK, newTokenResponse(result.Tokens, result.User))
}

type registerRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	Email       string `json:"email"`
	Code        string `json:"code"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

// Register creates an account for a freshly verified target
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondAppError(w, &AppError{http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body"})
		return
	}

	if _, err := validation.ValidateTarget(req.PhoneNumber, req.Email); err != nil {
		respondError(w, err)
		return
	}
	if err := validation.ValidateVerificationCode(req.Code); err != nil {
		respondError(w, err)
		return
	}
	if err := validation.ValidateDisplayName(req.DisplayName); err != nil {
		respondError(w, err)
		return
	}
	if req.Password != "" {
		if err := validation.ValidatePassword(req.Password); err != nil {
			respondError(w, err)
			return
		}
	}

	result, err := h.authService.Register(req.PhoneNumber, req.Email, req.Code, req.Password, req.DisplayName)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, newTokenResponse(result.Tokens, result.User))
}

type loginRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	Email       string `json:"email"`
	Password    string `json:"password"`
}

// Login authenticates a password-holding account
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondAppError(w, &AppError{http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body"})
		return
	}

	target, err := validation.ValidateTarget(req.PhoneNumber, req.Email)
	if err != nil {
		respondError(w, err)
		return
	}
	if req.Password == "" {
		respondAppError(w, &AppError{http.StatusBadRequest, "VALIDATION_ERROR", "password is required"})
		return
	}

	result, err := h.authService.Login(target, req.Password)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newTokenResponse(result.Tokens, result.User))
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Refresh rotates a refresh token into a fresh pair
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondAppError(w, &AppError{http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body"})
		return
	}
	if req.RefreshToken == "" {
		respondAppError(w, errMissingToken)
		return
	}

	result, err := h.authService.Refresh(req.RefreshToken)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newTokenResponse(result.Tokens, result.User))
}

// Logout revokes all of the caller's refresh tokens
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		respondAppError(w, errUnauthorized)
		return
	}

	if err := h.authService.Logout(user.ID); err != nil {
		respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
