package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/forgo/campusfeed/internal/middleware"
	"github.com/forgo/campusfeed/internal/model"
	"github.com/forgo/campusfeed/internal/service"
	"github.com/forgo/campusfeed/internal/session"
)

// Authenticator is the credential side of service.AuthService
type Authenticator interface {
	Register(ctx context.Context, req service.RegisterRequest) (*model.Account, error)
	Authenticate(ctx context.Context, email, password string) (*model.Account, error)
}

// SessionIssuer is the part of session.Manager the auth endpoints use
type SessionIssuer interface {
	Issue(ctx context.Context, accountID string) (*session.Session, error)
	Destroy(ctx context.Context, token string) error
	SetCookie(w http.ResponseWriter, sess *session.Session) error
	ClearCookie(w http.ResponseWriter)
	TokenFromRequest(r *http.Request) (string, error)
}

// AuthHandler handles registration, login and logout
type AuthHandler struct {
	auth     Authenticator
	sessions SessionIssuer
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(auth Authenticator, sessions SessionIssuer) *AuthHandler {
	return &AuthHandler{
		auth:     auth,
		sessions: sessions,
	}
}

// RegisterRequest represents the register endpoint request body
type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginRequest represents the login endpoint request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles POST /v1/auth/register. A new account is logged in
// straight away.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	acc, err := h.auth.Register(r.Context(), service.RegisterRequest{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	if !h.startSession(w, r, acc.ID) {
		return
	}

	WriteData(w, http.StatusCreated, acc.ToProfileView(), map[string]string{
		"self": "/v1/profile",
	})
}

// Login handles POST /v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	acc, err := h.auth.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		slog.Info("login failed",
			slog.String("request_id", middleware.GetRequestID(r.Context())),
			slog.String("remote_addr", middleware.ClientIP(r)),
		)
		WriteError(w, MapLoginError(err))
		return
	}

	if !h.startSession(w, r, acc.ID) {
		return
	}

	WriteData(w, http.StatusOK, acc.ToProfileView(), map[string]string{
		"self": "/v1/profile",
	})
}

// Logout handles POST /v1/auth/logout. Logging out without a session,
// or twice, succeeds.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if !h.endSession(w, r) {
		return
	}
	WriteNoContent(w)
}

// LogoutRedirect handles GET /logout for plain links and sends the
// browser back to the site root.
func (h *AuthHandler) LogoutRedirect(w http.ResponseWriter, r *http.Request) {
	if !h.endSession(w, r) {
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, accountID string) bool {
	sess, err := h.sessions.Issue(r.Context(), accountID)
	if err == nil {
		err = h.sessions.SetCookie(w, sess)
	}
	if err != nil {
		slog.Error("issue session",
			slog.String("request_id", middleware.GetRequestID(r.Context())),
			slog.String("account_id", accountID),
			slog.Any("error", err),
		)
		WriteError(w, model.NewInternalError(""))
		return false
	}
	return true
}

func (h *AuthHandler) endSession(w http.ResponseWriter, r *http.Request) bool {
	h.sessions.ClearCookie(w)

	token, err := h.sessions.TokenFromRequest(r)
	if err != nil {
		return true
	}
	if err := h.sessions.Destroy(r.Context(), token); err != nil {
		slog.Error("destroy session",
			slog.String("request_id", middleware.GetRequestID(r.Context())),
			slog.Any("error", err),
		)
		WriteError(w, model.NewInternalError(""))
		return false
	}
	return true
}
