package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/forgo/campusfeed/internal/authz"
	"github.com/forgo/campusfeed/internal/model"
	"github.com/forgo/campusfeed/internal/service"
	"github.com/forgo/campusfeed/internal/session"
)

// SessionManager is the part of session.Manager the middleware needs
type SessionManager interface {
	TokenFromRequest(r *http.Request) (string, error)
	Resolve(ctx context.Context, token string) (*session.Session, error)
	SetCookie(w http.ResponseWriter, sess *session.Session) error
	ClearCookie(w http.ResponseWriter)
	Sliding() bool
}

// AccountLookup loads the account behind a session
type AccountLookup interface {
	GetAccount(ctx context.Context, accountID string) (*model.Account, error)
}

// Session resolves the session cookie to a principal. The chain is
// cookie, then token, then account id, then role. Requests without a
// usable session continue anonymously; RequireSession rejects them.
func Session(sessions SessionManager, accounts AccountLookup) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := sessions.TokenFromRequest(r)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			sess, err := sessions.Resolve(r.Context(), token)
			if errors.Is(err, session.ErrUnauthenticated) {
				sessions.ClearCookie(w)
				next.ServeHTTP(w, r)
				return
			}
			if err != nil {
				slog.Error("session lookup failed",
					slog.String("request_id", GetRequestID(r.Context())),
					slog.Any("error", err),
				)
				model.NewInternalError("an unexpected error occurred").WriteJSON(w)
				return
			}

			acc, err := accounts.GetAccount(r.Context(), sess.AccountID)
			if errors.Is(err, service.ErrAccountNotFound) {
				// account removed under a live session
				sessions.ClearCookie(w)
				next.ServeHTTP(w, r)
				return
			}
			if err != nil {
				slog.Error("account lookup failed",
					slog.String("request_id", GetRequestID(r.Context())),
					slog.Any("error", err),
				)
				model.NewInternalError("an unexpected error occurred").WriteJSON(w)
				return
			}

			if sessions.Sliding() {
				if err := sessions.SetCookie(w, sess); err != nil {
					slog.Warn("refresh session cookie", slog.Any("error", err))
				}
			}

			ctx := context.WithValue(r.Context(), SessionKey, sess)
			ctx = context.WithValue(ctx, PrincipalKey, authz.Principal{
				AccountID: acc.ID,
				Role:      acc.Role,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSession rejects requests that carry no resolved session
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetPrincipal(r.Context()); !ok {
			model.NewUnauthorizedError("authentication required").WriteJSON(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects anyone whose role is not admin
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := GetPrincipal(r.Context())
		if !ok {
			model.NewUnauthorizedError("authentication required").WriteJSON(w)
			return
		}
		if authz.Authorize(p, authz.ActionViewAdminListing, "") != nil {
			model.NewForbiddenError("admin role required").WriteJSON(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetPrincipal extracts the authenticated principal from context
func GetPrincipal(ctx context.Context) (authz.Principal, bool) {
	p, ok := ctx.Value(PrincipalKey).(authz.Principal)
	return p, ok
}

// GetSession extracts the resolved session from context
func GetSession(ctx context.Context) *session.Session {
	sess, _ := ctx.Value(SessionKey).(*session.Session)
	return sess
}

// WithPrincipal stores p in ctx. Used by tests and by callers that
// authenticate outside HTTP.
func WithPrincipal(ctx context.Context, p authz.Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, p)
}
