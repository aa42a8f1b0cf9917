package handler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/forgo/campusfeed/internal/authz"
	"github.com/forgo/campusfeed/internal/middleware"
	"github.com/forgo/campusfeed/internal/model"
	"github.com/forgo/campusfeed/internal/service"
	"github.com/forgo/campusfeed/internal/session"
	"github.com/forgo/campusfeed/pkg/jwt"
)

const testDomain = "@alumno.etec.um.edu.ar"

// fakeDirectory is an in-memory account directory serving both the auth
// endpoints and the session middleware
type fakeDirectory struct {
	mu        sync.Mutex
	byID      map[string]*model.Account
	passwords map[string]string // email -> password
	nextID    int
	lookupErr error
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		byID:      make(map[string]*model.Account),
		passwords: make(map[string]string),
	}
}

func (d *fakeDirectory) add(acc *model.Account, password string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.byID[acc.ID] = acc
	d.passwords[acc.Email] = password
}

func (d *fakeDirectory) byEmail(email string) *model.Account {
	for _, acc := range d.byID {
		if acc.Email == email {
			return acc
		}
	}
	return nil
}

func (d *fakeDirectory) Register(ctx context.Context, req service.RegisterRequest) (*model.Account, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !strings.HasSuffix(req.Email, testDomain) {
		return nil, service.ErrEmailDomain
	}
	if len(req.Password) < model.MinPasswordLength {
		return nil, service.ErrPasswordTooShort
	}
	if d.byEmail(req.Email) != nil {
		return nil, service.ErrEmailAlreadyExists
	}

	d.nextID++
	acc := &model.Account{
		ID:       fmt.Sprintf("account:new%d", d.nextID),
		Email:    req.Email,
		Username: req.Username,
		Role:     model.RoleUser,
	}
	d.byID[acc.ID] = acc
	d.passwords[acc.Email] = req.Password
	return acc, nil
}

func (d *fakeDirectory) Authenticate(ctx context.Context, email, password string) (*model.Account, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	acc := d.byEmail(email)
	if acc == nil {
		return nil, service.ErrAccountNotFound
	}
	if d.passwords[email] != password {
		return nil, service.ErrInvalidCredentials
	}
	return acc, nil
}

func (d *fakeDirectory) GetAccount(ctx context.Context, accountID string) (*model.Account, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.lookupErr != nil {
		return nil, d.lookupErr
	}
	acc, ok := d.byID[accountID]
	if !ok {
		return nil, service.ErrAccountNotFound
	}
	return acc, nil
}

type fakeProfiles struct {
	dir        *fakeDirectory
	lastUpdate service.ProfileUpdate
	lastCaller authz.Principal
	err        error
}

func (f *fakeProfiles) GetProfile(ctx context.Context, accountID string) (*model.ProfileView, error) {
	acc, err := f.dir.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return acc.ToProfileView(), nil
}

func (f *fakeProfiles) UpdateProfile(ctx context.Context, p authz.Principal, req service.ProfileUpdate) (*model.ProfileView, error) {
	f.lastUpdate = req
	f.lastCaller = p
	if f.err != nil {
		return nil, f.err
	}
	view, err := f.GetProfile(ctx, p.AccountID)
	if err != nil {
		return nil, err
	}
	if req.Username != nil {
		view.Username = *req.Username
	}
	if req.Bio != nil {
		view.Bio = req.Bio
	}
	return view, nil
}

type fakeFeed struct {
	mu         sync.Mutex
	created    []*model.Post
	lastImage  *service.Upload
	lastLimit  int
	items      []*model.FeedItem
	deleted    []string
	lastCaller authz.Principal
	err        error
}

func (f *fakeFeed) CreatePost(ctx context.Context, authorID, content string, image *service.Upload) (*model.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	post := &model.Post{
		ID:        fmt.Sprintf("post:%d", len(f.created)+1),
		AuthorID:  authorID,
		Content:   content,
		CreatedOn: time.Now().UTC(),
	}
	f.created = append(f.created, post)
	f.lastImage = image
	return post, nil
}

func (f *fakeFeed) ListRecent(ctx context.Context, limit int) ([]*model.FeedItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	return f.items, nil
}

func (f *fakeFeed) DeletePost(ctx context.Context, p authz.Principal, postID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.lastCaller = p
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, postID)
	return nil
}

type fakeAdmin struct {
	listing      []*model.AccountListing
	promotedID   string
	promotedRole model.Role
	err          error
}

func (f *fakeAdmin) ListAccounts(ctx context.Context, p authz.Principal) ([]*model.AccountListing, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.listing, nil
}

func (f *fakeAdmin) Promote(ctx context.Context, p authz.Principal, accountID string, role model.Role) (*model.AccountListing, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.promotedID = accountID
	f.promotedRole = role
	return &model.AccountListing{ID: accountID, Username: "promoted", Role: role}, nil
}

// testEnv is a fully wired router over fakes and a real session manager
type testEnv struct {
	router   http.Handler
	sessions *session.Manager
	dir      *fakeDirectory
	profiles *fakeProfiles
	feed     *fakeFeed
	admin    *fakeAdmin
	room     *service.ChatBroadcaster
	pingErr  error
}

func newTestEnv(t *testing.T, opts ...func(*RouterConfig)) *testEnv {
	t.Helper()

	signer, err := jwt.NewService(jwt.Config{Secret: []byte("0123456789abcdef0123456789abcdef")})
	require.NoError(t, err)
	store := session.NewMemoryStore()

	env := &testEnv{
		sessions: session.NewManager(store, signer, session.Options{TTL: time.Hour}),
		dir:      newFakeDirectory(),
		feed:     &fakeFeed{},
		admin:    &fakeAdmin{},
		room:     service.NewChatBroadcaster(service.DefaultChatHistory, service.DefaultChatBuffer),
	}
	env.profiles = &fakeProfiles{dir: env.dir}
	t.Cleanup(env.room.Close)

	limiter := middleware.NewRateLimiter(middleware.RateLimitConfig{Rate: 100})
	t.Cleanup(limiter.Stop)
	idem := middleware.NewIdempotencyStore(middleware.IdempotencyConfig{})
	t.Cleanup(idem.Stop)

	cfg := RouterConfig{
		Auth:    NewAuthHandler(env.dir, env.sessions),
		Profile: NewProfileHandler(env.profiles, 1024),
		Posts:   NewPostHandler(env.feed, 1024),
		Admin:   NewAdminUsersHandler(env.admin),
		Chat:    NewChatHandler(env.room, []string{"https://feed.etec.test"}, 0),
		Health: NewHealthHandler(PingFunc(func(ctx context.Context) error {
			return env.pingErr
		})),
		Sessions:       env.sessions,
		Accounts:       env.dir,
		AllowedOrigins: []string{"https://feed.etec.test"},
		AuthLimiter:    limiter,
		Idempotency:    idem,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	env.router = NewRouter(cfg)
	return env
}

// loginAs creates the account if needed and returns a valid session cookie
func (e *testEnv) loginAs(t *testing.T, id string, role model.Role) *http.Cookie {
	t.Helper()

	if _, err := e.dir.GetAccount(context.Background(), id); err != nil {
		e.dir.add(&model.Account{
			ID:       id,
			Email:    strings.ReplaceAll(id, ":", "_") + testDomain,
			Username: id,
			Role:     role,
		}, "password123")
	}

	sess, err := e.sessions.Issue(context.Background(), id)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	require.NoError(t, e.sessions.SetCookie(rr, sess))
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

func (e *testEnv) do(req *http.Request, cookie *http.Cookie) *httptest.ResponseRecorder {
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func jsonRequest(method, path, body string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// multipartRequest builds a form with text fields and named files
func multipartRequest(t *testing.T, method, path string, fields map[string]string, files map[string][]byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for k, data := range files {
		fw, err := mw.CreateFormFile(k, k+".png")
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// sessionCookie returns the named cookie set by a response, if any
func sessionCookie(rr *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == session.DefaultCookieName {
			return c
		}
	}
	return nil
}
