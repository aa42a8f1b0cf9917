package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/forgo/campusfeed/pkg/jwt"
)

// ErrUnauthenticated covers every token that does not resolve to a live session
var ErrUnauthenticated = errors.New("unauthenticated")

const (
	tokenBytes        = 32
	DefaultCookieName = "campusfeed_session"
	DefaultTTL        = 24 * time.Hour
)

// Session is a resolved, live session
type Session struct {
	Token     string
	AccountID string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Options configures a Manager
type Options struct {
	TTL        time.Duration
	Sliding    bool
	CookieName string
	Secure     bool
}

// Manager issues, resolves and destroys sessions and moves their tokens
// in and out of signed cookies.
type Manager struct {
	store  Store
	signer *jwt.Service
	opts   Options
	now    func() time.Time
}

// NewManager creates a Manager, filling in default TTL and cookie name
func NewManager(store Store, signer *jwt.Service, opts Options) *Manager {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.CookieName == "" {
		opts.CookieName = DefaultCookieName
	}
	return &Manager{
		store:  store,
		signer: signer,
		opts:   opts,
		now:    time.Now,
	}
}

// TTL returns the configured session lifetime
func (m *Manager) TTL() time.Duration {
	return m.opts.TTL
}

// Sliding reports whether Resolve extends the session
func (m *Manager) Sliding() bool {
	return m.opts.Sliding
}

func newToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Issue starts a new session for accountID
func (m *Manager) Issue(ctx context.Context, accountID string) (*Session, error) {
	token, err := newToken()
	if err != nil {
		return nil, err
	}

	now := m.now()
	rec := Record{
		AccountID: accountID,
		CreatedAt: now,
		ExpiresAt: now.Add(m.opts.TTL),
	}
	if err := m.store.Save(ctx, token, rec); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	return &Session{
		Token:     token,
		AccountID: rec.AccountID,
		CreatedAt: rec.CreatedAt,
		ExpiresAt: rec.ExpiresAt,
	}, nil
}

// Resolve returns the live session behind token. Unknown, expired and
// destroyed tokens all give ErrUnauthenticated. Store failures are
// returned wrapped so callers can log them.
func (m *Manager) Resolve(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}

	rec, err := m.store.Load(ctx, token)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	sess := &Session{
		Token:     token,
		AccountID: rec.AccountID,
		CreatedAt: rec.CreatedAt,
		ExpiresAt: rec.ExpiresAt,
	}

	if m.opts.Sliding {
		expiresAt := m.now().Add(m.opts.TTL)
		err := m.store.Touch(ctx, token, expiresAt)
		switch {
		case errors.Is(err, ErrNotFound):
			// destroyed between load and touch
			return nil, ErrUnauthenticated
		case err != nil:
			return nil, fmt.Errorf("touch session: %w", err)
		}
		sess.ExpiresAt = expiresAt
	}

	return sess, nil
}

// Destroy ends the session. Unknown or already destroyed tokens are not an error.
func (m *Manager) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := m.store.Delete(ctx, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// SetCookie writes the signed session cookie
func (m *Manager) SetCookie(w http.ResponseWriter, sess *Session) error {
	value, err := m.signer.Sign(sess.Token, sess.ExpiresAt)
	if err != nil {
		return err
	}

	maxAge := int(sess.ExpiresAt.Sub(m.now()).Seconds())
	if maxAge <= 0 {
		maxAge = -1
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.opts.CookieName,
		Value:    value,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   m.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// ClearCookie expires the session cookie in the browser
func (m *Manager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.opts.CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// TokenFromRequest extracts and verifies the session token carried by the
// request cookie. A missing, tampered or expired cookie gives ErrUnauthenticated.
func (m *Manager) TokenFromRequest(r *http.Request) (string, error) {
	cookie, err := r.Cookie(m.opts.CookieName)
	if err != nil || cookie.Value == "" {
		return "", ErrUnauthenticated
	}

	claims, err := m.signer.Validate(cookie.Value)
	if err != nil {
		return "", ErrUnauthenticated
	}
	return claims.SessionID, nil
}
