package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"oyakatsu/internal/service"
	"oyakatsu/internal/validation"
)

// FamilyHandler handles family and membership endpoints
type FamilyHandler struct {
	familyService *service.FamilyService
}

// NewFamilyHandler creates a new family handler
func NewFamilyHandler(familyService *service.FamilyService) *FamilyHandler {
	return &FamilyHandler{familyService: familyService}
}

type createFamilyRequest struct {
	Name string `json:"name"`
}

// Create creates a family with the caller as its first parent member
func (h *FamilyHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		respondAppError(w, errUnauthorized)
		return
	}

	var req createFamilyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondAppError(w, &AppError{http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body"})
		return
	}
	if err := validation.ValidateFamilyName(req.Name); err != nil {
		respondError(w, err)
		return
	}

	family, err := h.familyService.Create(user.ID, req.Name)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, newFamilyResponse(family, 1))
}

// List retrieves the caller's families
func (h *FamilyHandler) List(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		respondAppError(w, errUnauthorized)
		return
	}

	families, err := h.familyService.ListMine(user.ID)
	if err != nil {
		respondError(w, err)
		return
	}

	resp := make([]familyResponse, 0, len(families))
	for i := range families {
		resp = append(resp, newFamilyResponse(&families[i].Family, families[i].MemberCount))
	}

	respondJSON(w, http.StatusOK, resp)
}

type familyDetailResponse struct {
	familyResponse
	Members []memberResponse `json:"members"`
}

// Get retrieves one family with its active roster
func (h *FamilyHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		respondAppError(w, errUnauthorized)
		return
	}

	familyID, err := parseID(r.PathValue("id"))
	if err != nil {
		respondAppError(w, errNotFound)
		return
	}

	detail, err := h.familyService.Detail(familyID, user.ID)
	if err != nil {
		respondError(w, err)
		return
	}

	members, err := h.familyService.Members(familyID, user.ID)
	if err != nil {
		respondError(w, err)
		return
	}

	resp := familyDetailResponse{
		familyResponse: newFamilyResponse(&detail.Family, detail.MemberCount),
		Members:        make([]memberResponse, 0, len(members)),
	}
	for i := range members {
		resp.Members = append(resp.Members, newMemberResponse(&members[i]))
	}

	respondJSON(w, http.StatusOK, resp)
}

// Members retrieves a family's active roster
func (h *FamilyHandler) Members(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		respondAppError(w, errUnauthorized)
		return
	}

	familyID, err := parseID(r.PathValue("id"))
	if err != nil {
		respondAppError(w, errNotFound)
		return
	}

	members, err := h.familyService.Members(familyID, user.ID)
	if err != nil {
		respondError(w, err)
		return
	}

	resp := make([]memberResponse, 0, len(members))
	for i := range members {
		resp = append(resp, newMemberResponse(&members[i]))
	}

	respondJSON(w, http.StatusOK, resp)
}

// GetInviteCode retrieves the family's current invite code (parents only)
func (h *FamilyHandler) GetInviteCode(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		respondAppError(w, errUnauthorized)
		return
	}

	familyID, err := parseID(r.PathValue("id"))
	if err != nil {
		respondAppError(w, errNotFound)
		return
	}

	code, err := h.familyService.InviteCode(familyID, user.ID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, inviteCodeResponse{
		Code: code,
		URL:  h.familyService.InviteURL(code),
	})
}

// RegenerateInviteCode replaces the family's invite code (parents only).
// The previous code stops working immediately.
func (h *FamilyHandler) RegenerateInviteCode(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		respondAppError(w, errUnauthorized)
		return
	}

	familyID, err := parseID(r.PathValue("id"))
	if err != nil {
		respondAppError(w, errNotFound)
		return
	}

	code, err := h.familyService.RegenerateInviteCode(familyID, user.ID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, inviteCodeResponse{
		Code: code,
		URL:  h.familyService.InviteURL(code),
	})
}

type joinFamilyRequest struct {
	InviteCode string `json:"inviteCode"`
}

// Join enrolls the caller in the family behind an invite code
func (h *FamilyHandler) Join(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		respondAppError(w, errUnauthorized)
		return
	}

	var req joinFamilyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondAppError(w, &AppError{http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body"})
		return
	}
	if req.InviteCode == "" {
		respondAppError(w, &AppError{http.StatusBadRequest, "VALIDATION_ERROR", "invite code is required"})
		return
	}

	family, _, err := h.familyService.Join(user.ID, req.InviteCode, user.Role)
	if err != nil {
		respondError(w, err)
		return
	}

	count, err := h.familyService.Detail(family.ID, user.ID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newFamilyResponse(&count.Family, count.MemberCount))
}

// Leave ends the caller's membership in a family
func (h *FamilyHandler) Leave(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		respondAppError(w, errUnauthorized)
		return
	}

	familyID, err := parseID(r.PathValue("id"))
	if err != nil {
		respondAppError(w, errNotFound)
		return
	}

	if err := h.familyService.Leave(familyID, user.ID); err != nil {
		respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func parseID(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}
