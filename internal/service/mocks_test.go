package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/forgo/campusfeed/internal/database"
	"github.com/forgo/campusfeed/internal/model"
)

// Mock implementations

type mockAccountRepo struct {
	mu         sync.Mutex
	accounts   map[string]*model.Account
	emailIndex map[string]*model.Account
	nextID     int
	createErr  error
	getErr     error
	updates    int
}

func newMockAccountRepo() *mockAccountRepo {
	return &mockAccountRepo{
		accounts:   make(map[string]*model.Account),
		emailIndex: make(map[string]*model.Account),
	}
}

func (m *mockAccountRepo) Create(ctx context.Context, acc *model.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createErr != nil {
		return m.createErr
	}
	if _, exists := m.emailIndex[acc.Email]; exists {
		return fmt.Errorf("%w: account_email", database.ErrDuplicate)
	}
	m.nextID++
	acc.ID = fmt.Sprintf("account:%d", m.nextID)
	acc.CreatedOn = time.Now()
	acc.UpdatedOn = acc.CreatedOn
	stored := *acc
	m.accounts[acc.ID] = &stored
	m.emailIndex[acc.Email] = &stored
	return nil
}

func (m *mockAccountRepo) GetByID(ctx context.Context, id string) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.getErr != nil {
		return nil, m.getErr
	}
	acc, ok := m.accounts[id]
	if !ok {
		return nil, nil
	}
	cp := *acc
	return &cp, nil
}

func (m *mockAccountRepo) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.getErr != nil {
		return nil, m.getErr
	}
	acc, ok := m.emailIndex[email]
	if !ok {
		return nil, nil
	}
	cp := *acc
	return &cp, nil
}

func (m *mockAccountRepo) UpdateProfile(ctx context.Context, id string, patch model.ProfilePatch) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	acc, ok := m.accounts[id]
	if !ok {
		return nil, nil
	}
	m.updates++
	if patch.Username != nil {
		acc.Username = *patch.Username
	}
	if patch.Bio != nil {
		acc.Bio = patch.Bio
	}
	if patch.Avatar != nil {
		acc.Avatar = patch.Avatar
	}
	if patch.Banner != nil {
		acc.Banner = patch.Banner
	}
	cp := *acc
	return &cp, nil
}

func (m *mockAccountRepo) SetRole(ctx context.Context, id string, role model.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	acc, ok := m.accounts[id]
	if !ok {
		return database.ErrNotFound
	}
	acc.Role = role
	return nil
}

func (m *mockAccountRepo) List(ctx context.Context) ([]*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*model.Account, 0, len(m.accounts))
	for _, acc := range m.accounts {
		cp := *acc
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// seed inserts an account directly, bypassing validation
func (m *mockAccountRepo) seed(id, email string, role model.Role) *model.Account {
	m.mu.Lock()
	defer m.mu.Unlock()

	acc := &model.Account{ID: id, Email: email, Username: id, Role: role}
	m.accounts[id] = acc
	m.emailIndex[email] = acc
	return acc
}

type mockPostRepo struct {
	mu        sync.Mutex
	posts     map[string]*model.Post
	order     []string
	nextID    int
	now       time.Time
	lastLimit int
	createErr error
	// deleteMiss makes Delete report no rows, as if another request won
	deleteMiss bool
}

func newMockPostRepo() *mockPostRepo {
	return &mockPostRepo{
		posts: make(map[string]*model.Post),
		now:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (m *mockPostRepo) Create(ctx context.Context, post *model.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createErr != nil {
		return m.createErr
	}
	m.nextID++
	m.now = m.now.Add(time.Second)
	post.ID = fmt.Sprintf("post:%d", m.nextID)
	post.CreatedOn = m.now
	cp := *post
	m.posts[post.ID] = &cp
	m.order = append(m.order, post.ID)
	return nil
}

func (m *mockPostRepo) GetByID(ctx context.Context, id string) (*model.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	post, ok := m.posts[id]
	if !ok {
		return nil, nil
	}
	cp := *post
	return &cp, nil
}

func (m *mockPostRepo) ListRecent(ctx context.Context, limit int) ([]*model.FeedItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastLimit = limit
	var items []*model.FeedItem
	for i := len(m.order) - 1; i >= 0 && len(items) < limit; i-- {
		post, ok := m.posts[m.order[i]]
		if !ok {
			continue
		}
		items = append(items, &model.FeedItem{
			Post:   *post,
			Author: model.AuthorSummary{ID: post.AuthorID, Username: post.AuthorID, Role: model.RoleUser},
		})
	}
	return items, nil
}

func (m *mockPostRepo) Delete(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.deleteMiss {
		return false, nil
	}
	if _, ok := m.posts[id]; !ok {
		return false, nil
	}
	delete(m.posts, id)
	return true, nil
}

type mockBlobStore struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (m *mockBlobStore) Put(ctx context.Context, data []byte, contentType, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return "", m.err
	}
	m.keys = append(m.keys, key)
	return "https://cdn.test/" + key, nil
}

var testPNG = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)

func strPtr(s string) *string { return &s }
