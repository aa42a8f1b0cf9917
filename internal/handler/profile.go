package handler

import (
	"context"
	"net/http"

	"github.com/forgo/campusfeed/internal/authz"
	"github.com/forgo/campusfeed/internal/middleware"
	"github.com/forgo/campusfeed/internal/model"
	"github.com/forgo/campusfeed/internal/service"
)

// ProfileEditor is implemented by service.ProfileService
type ProfileEditor interface {
	GetProfile(ctx context.Context, accountID string) (*model.ProfileView, error)
	UpdateProfile(ctx context.Context, p authz.Principal, req service.ProfileUpdate) (*model.ProfileView, error)
}

// ProfileHandler handles the caller's own profile
type ProfileHandler struct {
	profiles       ProfileEditor
	maxUploadBytes int64
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profiles ProfileEditor, maxUploadBytes int64) *ProfileHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = service.DefaultMaxUploadBytes
	}
	return &ProfileHandler{
		profiles:       profiles,
		maxUploadBytes: maxUploadBytes,
	}
}

// UpdateProfileRequest is the JSON form of a profile update. Absent
// fields are left unchanged.
type UpdateProfileRequest struct {
	Username *string `json:"username,omitempty"`
	Bio      *string `json:"bio,omitempty"`
}

// Get handles GET /v1/profile
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	view, err := h.profiles.GetProfile(r.Context(), p.AccountID)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, view, nil)
}

// Update handles PATCH /v1/profile with either a JSON body or a
// multipart form carrying username, bio, avatar and banner
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	var update service.ProfileUpdate
	if isMultipart(r) {
		if err := parseMultipart(w, r, 2, h.maxUploadBytes); err != nil {
			writeFormError(w, err)
			return
		}
		update.Username = formValue(r, "username")
		update.Bio = formValue(r, "bio")

		var err error
		if update.Avatar, err = formFile(r, "avatar", h.maxUploadBytes); err != nil {
			writeFormError(w, err)
			return
		}
		if update.Banner, err = formFile(r, "banner", h.maxUploadBytes); err != nil {
			writeFormError(w, err)
			return
		}
	} else {
		var req UpdateProfileRequest
		if err := DecodeJSON(r, &req); err != nil {
			WriteError(w, model.NewBadRequestError("invalid request body"))
			return
		}
		update.Username = req.Username
		update.Bio = req.Bio
	}

	view, err := h.profiles.UpdateProfile(r.Context(), p, update)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, view, nil)
}
