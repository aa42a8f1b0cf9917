package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/forgo/campusfeed/internal/authz"
	"github.com/forgo/campusfeed/internal/middleware"
	"github.com/forgo/campusfeed/internal/model"
	"github.com/forgo/campusfeed/internal/service"
)

// Feed is implemented by service.FeedService
type Feed interface {
	CreatePost(ctx context.Context, authorID, content string, image *service.Upload) (*model.Post, error)
	ListRecent(ctx context.Context, limit int) ([]*model.FeedItem, error)
	DeletePost(ctx context.Context, p authz.Principal, postID string) error
}

// PostHandler handles the feed endpoints
type PostHandler struct {
	feed           Feed
	maxUploadBytes int64
}

// NewPostHandler creates a new post handler
func NewPostHandler(feed Feed, maxUploadBytes int64) *PostHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = service.DefaultMaxUploadBytes
	}
	return &PostHandler{
		feed:           feed,
		maxUploadBytes: maxUploadBytes,
	}
}

// CreatePostRequest is the JSON form of a new post
type CreatePostRequest struct {
	Content string `json:"content"`
}

// List handles GET /v1/posts?limit=N
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := model.MaxFeedPageSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			WriteError(w, model.NewValidationError([]model.FieldError{
				{Field: "limit", Message: "limit must be a positive integer"},
			}))
			return
		}
		limit = n
	}

	items, err := h.feed.ListRecent(r.Context(), limit)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteCollection(w, http.StatusOK, items, len(items), nil)
}

// Create handles POST /v1/posts with a JSON body or a multipart form
// carrying content and an optional image
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	var (
		content string
		image   *service.Upload
	)
	if isMultipart(r) {
		if err := parseMultipart(w, r, 1, h.maxUploadBytes); err != nil {
			writeFormError(w, err)
			return
		}
		if v := formValue(r, "content"); v != nil {
			content = *v
		}
		var err error
		if image, err = formFile(r, "image", h.maxUploadBytes); err != nil {
			writeFormError(w, err)
			return
		}
	} else {
		var req CreatePostRequest
		if err := DecodeJSON(r, &req); err != nil {
			WriteError(w, model.NewBadRequestError("invalid request body"))
			return
		}
		content = req.Content
	}

	post, err := h.feed.CreatePost(r.Context(), p.AccountID, content, image)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusCreated, post, map[string]string{
		"self": "/v1/posts/" + post.ID,
		"feed": "/v1/posts",
	})
}

// Delete handles DELETE /v1/posts/{id}
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	postID := chi.URLParam(r, "id")
	if postID == "" {
		WriteError(w, model.NewBadRequestError("post id is required"))
		return
	}

	if err := h.feed.DeletePost(r.Context(), p, postID); err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteNoContent(w)
}
