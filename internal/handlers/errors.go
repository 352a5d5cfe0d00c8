package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"oyakatsu/internal/service"
	"oyakatsu/internal/validation"
)

// AppError is a client-facing error with a stable machine-readable code
type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string {
	return e.Message
}

var (
	errUnauthorized   = &AppError{http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required"}
	errTokenExpired   = &AppError{http.StatusUnauthorized, "TOKEN_EXPIRED", "Access token expired"}
	errInvalidToken   = &AppError{http.StatusUnauthorized, "INVALID_TOKEN", "Invalid token"}
	errMissingToken   = &AppError{http.StatusBadRequest, "MISSING_TOKEN", "Refresh token required"}
	errRoleRequired   = &AppError{http.StatusForbidden, "ROLE_REQUIRED", "Role selection required"}
	errForbidden      = &AppError{http.StatusForbidden, "FORBIDDEN", "Access denied"}
	errNotFound       = &AppError{http.StatusNotFound, "NOT_FOUND", "Resource not found"}
	errRateLimited    = &AppError{http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests, try again later"}
	errNotImplemented = &AppError{http.StatusNotImplemented, "NOT_IMPLEMENTED", "Not implemented yet"}
	errInternal       = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}
)

// serviceErrors maps every service sentinel to its client-facing error.
// The single table keeps status-code decisions out of individual handlers.
var serviceErrors = []struct {
	err error
	app *AppError
}{
	{service.ErrInvalidCode, &AppError{http.StatusBadRequest, "INVALID_CODE", "Invalid or expired verification code"}},
	{service.ErrInvalidVerification, &AppError{http.StatusBadRequest, "INVALID_VERIFICATION", "Verification invalid or expired"}},
	{service.ErrUserExists, &AppError{http.StatusConflict, "USER_EXISTS", "An account already exists for this target"}},
	{service.ErrInvalidCredentials, &AppError{http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password"}},
	{service.ErrTokenExpired, errTokenExpired},
	{service.ErrInvalidToken, errInvalidToken},
	{service.ErrUserGone, errUnauthorized},
	{service.ErrUserNotFound, errNotFound},
	{service.ErrRoleAlreadySet, &AppError{http.StatusConflict, "ROLE_ALREADY_SET", "Role has already been set"}},
	{service.ErrForbidden, errForbidden},
	{service.ErrFamilyNotFound, &AppError{http.StatusNotFound, "NOT_FOUND", "Family not found"}},
	{service.ErrAlreadyMember, &AppError{http.StatusConflict, "ALREADY_MEMBER", "Already a member of a family"}},
	{service.ErrInvalidInviteCode, &AppError{http.StatusBadRequest, "INVALID_CODE", "Invalid invite code"}},
	{service.ErrFamilyFull, &AppError{http.StatusConflict, "FAMILY_FULL", "Family has reached its member limit"}},
	{service.ErrNotMember, &AppError{http.StatusBadRequest, "NOT_MEMBER", "Not a member of this family"}},
	{service.ErrCannotLeave, &AppError{http.StatusBadRequest, "CANNOT_LEAVE", "Family creator cannot leave"}},
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func respondAppError(w http.ResponseWriter, app *AppError) {
	respondJSON(w, app.Status, errorBody{Error: errorDetail{Code: app.Code, Message: app.Message}})
}

// respondError translates any error into the JSON error envelope. Service
// sentinels keep their mapped status and code; validation errors become 400
// VALIDATION_ERROR; everything else is logged and hidden behind a 500.
func respondError(w http.ResponseWriter, err error) {
	var app *AppError
	if errors.As(err, &app) {
		respondAppError(w, app)
		return
	}

	var ve validation.ValidationError
	if errors.As(err, &ve) {
		respondAppError(w, &AppError{http.StatusBadRequest, "VALIDATION_ERROR", ve.Message})
		return
	}

	for _, m := range serviceErrors {
		if errors.Is(err, m.err) {
			respondAppError(w, m.app)
			return
		}
	}

	log.Printf("Internal error: %v", err)
	respondAppError(w, errInternal)
}
