package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/forgo/campusfeed/internal/authz"
	"github.com/forgo/campusfeed/internal/middleware"
	"github.com/forgo/campusfeed/internal/model"
)

// AccountAdmin is implemented by service.AdminService
type AccountAdmin interface {
	ListAccounts(ctx context.Context, p authz.Principal) ([]*model.AccountListing, error)
	Promote(ctx context.Context, p authz.Principal, accountID string, role model.Role) (*model.AccountListing, error)
}

// AdminUsersHandler handles admin account management endpoints
type AdminUsersHandler struct {
	admin AccountAdmin
}

// NewAdminUsersHandler creates a new admin users handler
func NewAdminUsersHandler(admin AccountAdmin) *AdminUsersHandler {
	return &AdminUsersHandler{admin: admin}
}

// PromoteRequest is the body of a role change
type PromoteRequest struct {
	Role string `json:"role"`
}

// ListUsers handles GET /v1/admin/users
func (h *AdminUsersHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	accounts, err := h.admin.ListAccounts(r.Context(), p)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteCollection(w, http.StatusOK, accounts, len(accounts), nil)
}

// Promote handles POST /v1/admin/users/{id}/role
func (h *AdminUsersHandler) Promote(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	accountID := chi.URLParam(r, "id")
	if accountID == "" {
		WriteError(w, model.NewBadRequestError("account id is required"))
		return
	}

	var req PromoteRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	listing, err := h.admin.Promote(r.Context(), p, accountID, model.Role(req.Role))
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, listing, nil)
}
