package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"oyakatsu/internal/service"
	"oyakatsu/internal/validation"
)

func TestRespondErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"invalid code", service.ErrInvalidCode, http.StatusBadRequest, "INVALID_CODE"},
		{"user exists", service.ErrUserExists, http.StatusConflict, "USER_EXISTS"},
		{"invalid credentials", service.ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{"token expired", service.ErrTokenExpired, http.StatusUnauthorized, "TOKEN_EXPIRED"},
		{"invalid token", service.ErrInvalidToken, http.StatusUnauthorized, "INVALID_TOKEN"},
		{"user gone", service.ErrUserGone, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"role already set", service.ErrRoleAlreadySet, http.StatusConflict, "ROLE_ALREADY_SET"},
		{"forbidden", service.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
		{"family full", service.ErrFamilyFull, http.StatusConflict, "FAMILY_FULL"},
		{"cannot leave", service.ErrCannotLeave, http.StatusBadRequest, "CANNOT_LEAVE"},
		{"validation error", validation.ValidationError{Field: "email", Message: "invalid email format"}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unexpected error", errors.New("database on fire"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			respondError(rec, tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			var body errorBody
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("Failed to decode error body: %v", err)
			}
			if body.Error.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", body.Error.Code, tt.wantCode)
			}
		})
	}
}

func TestRespondErrorKeepsWrappedSentinels(t *testing.T) {
	rec := httptest.NewRecorder()
	respondError(rec, errors.New("wrapped: "+service.ErrInvalidToken.Error()))

	// A message that merely resembles a sentinel is not one
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500 for unrecognized error", rec.Code)
	}
}

func TestRespondErrorHidesInternals(t *testing.T) {
	rec := httptest.NewRecorder()
	respondError(rec, errors.New("pq: connection refused to db-internal-host:5432"))

	var body errorBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode error body: %v", err)
	}
	if body.Error.Message != "An unexpected error occurred" {
		t.Errorf("message = %q, internals should not leak", body.Error.Message)
	}
}
