package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/forgo/campusfeed/internal/authz"
	"github.com/forgo/campusfeed/internal/model"
	"github.com/forgo/campusfeed/internal/service"
	"github.com/forgo/campusfeed/internal/session"
)

type fakeSessions struct {
	token      string
	tokenErr   error
	sess       *session.Session
	resolveErr error
	sliding    bool

	cleared   int
	refreshed int
}

func (f *fakeSessions) TokenFromRequest(r *http.Request) (string, error) {
	return f.token, f.tokenErr
}

func (f *fakeSessions) Resolve(ctx context.Context, token string) (*session.Session, error) {
	if f.resolveErr != nil {
		return nil, f.resolveErr
	}
	return f.sess, nil
}

func (f *fakeSessions) SetCookie(w http.ResponseWriter, sess *session.Session) error {
	f.refreshed++
	return nil
}

func (f *fakeSessions) ClearCookie(w http.ResponseWriter) {
	f.cleared++
}

func (f *fakeSessions) Sliding() bool {
	return f.sliding
}

type fakeAccounts struct {
	acc *model.Account
	err error
}

func (f *fakeAccounts) GetAccount(ctx context.Context, accountID string) (*model.Account, error) {
	return f.acc, f.err
}

func liveSession() *session.Session {
	return &session.Session{
		Token:     "tok",
		AccountID: "account:1",
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

// probe records what the downstream handler saw
type probe struct {
	called    bool
	principal authz.Principal
	hasP      bool
	sess      *session.Session
}

func (p *probe) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p.called = true
		p.principal, p.hasP = GetPrincipal(r.Context())
		p.sess = GetSession(r.Context())
	})
}

func TestSession_NoCookieIsAnonymous(t *testing.T) {
	t.Parallel()

	sessions := &fakeSessions{tokenErr: session.ErrUnauthenticated}
	var p probe
	rr := httptest.NewRecorder()
	Session(sessions, &fakeAccounts{})(p.handler()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if !p.called || p.hasP {
		t.Errorf("expected anonymous pass-through, called=%v principal=%v", p.called, p.hasP)
	}
	if sessions.cleared != 0 {
		t.Error("a missing cookie should not be cleared")
	}
}

func TestSession_ResolvesPrincipal(t *testing.T) {
	t.Parallel()

	sessions := &fakeSessions{token: "tok", sess: liveSession()}
	accounts := &fakeAccounts{acc: &model.Account{ID: "account:1", Role: model.RoleModerator}}

	var p probe
	Session(sessions, accounts)(p.handler()).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if !p.hasP {
		t.Fatal("expected a principal")
	}
	if p.principal.AccountID != "account:1" || p.principal.Role != model.RoleModerator {
		t.Errorf("unexpected principal %+v", p.principal)
	}
	if p.sess == nil || p.sess.Token != "tok" {
		t.Errorf("expected session in context, got %+v", p.sess)
	}
	if sessions.refreshed != 0 {
		t.Error("fixed sessions must not refresh the cookie")
	}
}

func TestSession_RoleReadFromAccountEachRequest(t *testing.T) {
	t.Parallel()

	sessions := &fakeSessions{token: "tok", sess: liveSession()}
	accounts := &fakeAccounts{acc: &model.Account{ID: "account:1", Role: model.RoleUser}}
	mw := Session(sessions, accounts)

	var before probe
	mw(before.handler()).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	accounts.acc = &model.Account{ID: "account:1", Role: model.RoleAdmin}
	var after probe
	mw(after.handler()).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if before.principal.Role != model.RoleUser || after.principal.Role != model.RoleAdmin {
		t.Errorf("promotion should apply to the live session, got %s then %s", before.principal.Role, after.principal.Role)
	}
}

func TestSession_SlidingRefreshesCookie(t *testing.T) {
	t.Parallel()

	sessions := &fakeSessions{token: "tok", sess: liveSession(), sliding: true}
	accounts := &fakeAccounts{acc: &model.Account{ID: "account:1", Role: model.RoleUser}}

	var p probe
	Session(sessions, accounts)(p.handler()).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if sessions.refreshed != 1 {
		t.Errorf("expected cookie refresh, got %d", sessions.refreshed)
	}
}

func TestSession_UnknownTokenClearsCookie(t *testing.T) {
	t.Parallel()

	sessions := &fakeSessions{token: "gone", resolveErr: session.ErrUnauthenticated}
	var p probe
	Session(sessions, &fakeAccounts{})(p.handler()).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if !p.called || p.hasP {
		t.Error("expected anonymous pass-through")
	}
	if sessions.cleared != 1 {
		t.Errorf("expected cookie cleared once, got %d", sessions.cleared)
	}
}

func TestSession_DeletedAccountClearsCookie(t *testing.T) {
	t.Parallel()

	sessions := &fakeSessions{token: "tok", sess: liveSession()}
	accounts := &fakeAccounts{err: service.ErrAccountNotFound}

	var p probe
	Session(sessions, accounts)(p.handler()).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if !p.called || p.hasP {
		t.Error("expected anonymous pass-through")
	}
	if sessions.cleared != 1 {
		t.Errorf("expected cookie cleared, got %d", sessions.cleared)
	}
}

func TestSession_StoreFailureIs500(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		sessions *fakeSessions
		accounts *fakeAccounts
	}{
		{
			name:     "session store down",
			sessions: &fakeSessions{token: "tok", resolveErr: errors.New("redis: connection refused")},
			accounts: &fakeAccounts{},
		},
		{
			name:     "account store down",
			sessions: &fakeSessions{token: "tok", sess: liveSession()},
			accounts: &fakeAccounts{err: errors.New("db: timeout")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p probe
			rr := httptest.NewRecorder()
			Session(tt.sessions, tt.accounts)(p.handler()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

			if rr.Code != http.StatusInternalServerError {
				t.Errorf("expected 500, got %d", rr.Code)
			}
			if p.called {
				t.Error("handler must not run when the store fails")
			}
		})
	}
}

func TestRequireSession(t *testing.T) {
	t.Parallel()

	var p probe
	handler := RequireSession(p.handler())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/profile", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rr.Code)
	}
	if p.called {
		t.Error("anonymous request must not reach the handler")
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/profile", nil)
	req = req.WithContext(WithPrincipal(req.Context(), authz.Principal{AccountID: "account:1", Role: model.RoleUser}))
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if !p.called {
		t.Error("authenticated request should reach the handler")
	}
}

func TestRequireAdmin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		role model.Role
		anon bool
		want int
	}{
		{name: "anonymous", anon: true, want: http.StatusUnauthorized},
		{name: "user", role: model.RoleUser, want: http.StatusForbidden},
		{name: "moderator", role: model.RoleModerator, want: http.StatusForbidden},
		{name: "admin", role: model.RoleAdmin, want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/v1/admin/users", nil)
			if !tt.anon {
				req = req.WithContext(WithPrincipal(req.Context(), authz.Principal{AccountID: "account:1", Role: tt.role}))
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, rr.Code)
			}
		})
	}
}
