package fixtures

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/forgo/campusfeed/internal/model"
	"github.com/forgo/campusfeed/internal/repository"
)

// DefaultPassword is the plaintext behind every fixture account hash
const DefaultPassword = "testpass123"

// Factory creates test entities through the repositories
type Factory struct {
	accounts repository.Accounts
	posts    repository.Posts
}

// New creates a new fixture factory
func New(accounts repository.Accounts, posts repository.Posts) *Factory {
	return &Factory{accounts: accounts, posts: posts}
}

func randomID() string {
	b := make([]byte, 6)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func ctx(t *testing.T) context.Context {
	c, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return c
}

// AccountOpts customizes account creation
type AccountOpts struct {
	Email    string
	Username string
	Password string
	Role     model.Role
}

// WithRole sets the role the account is created with
func WithRole(role model.Role) func(*AccountOpts) {
	return func(o *AccountOpts) { o.Role = role }
}

// WithEmail sets the account email
func WithEmail(email string) func(*AccountOpts) {
	return func(o *AccountOpts) { o.Email = email }
}

// CreateAccount stores an account with an institutional email and a real
// bcrypt hash of the password.
func (f *Factory) CreateAccount(t *testing.T, opts ...func(*AccountOpts)) *model.Account {
	t.Helper()

	id := randomID()
	o := &AccountOpts{
		Email:    fmt.Sprintf("student_%s@alumno.etec.um.edu.ar", id),
		Username: "student_" + id,
		Password: DefaultPassword,
		Role:     model.RoleUser,
	}
	for _, fn := range opts {
		fn(o)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(o.Password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("fixtures: hash password: %v", err)
	}

	acc := &model.Account{
		Email:    o.Email,
		Username: o.Username,
		Hash:     string(hash),
		Role:     model.RoleUser,
	}
	if err := f.accounts.Create(ctx(t), acc); err != nil {
		t.Fatalf("fixtures: create account: %v", err)
	}

	if o.Role != model.RoleUser {
		if err := f.accounts.SetRole(ctx(t), acc.ID, o.Role); err != nil {
			t.Fatalf("fixtures: set role: %v", err)
		}
		acc.Role = o.Role
	}
	return acc
}

// CreatePost stores a post by author. Content defaults to a unique line.
func (f *Factory) CreatePost(t *testing.T, author *model.Account, content ...string) *model.Post {
	t.Helper()

	text := "post " + randomID()
	if len(content) > 0 {
		text = content[0]
	}

	post := &model.Post{AuthorID: author.ID, Content: text}
	if err := f.posts.Create(ctx(t), post); err != nil {
		t.Fatalf("fixtures: create post: %v", err)
	}
	return post
}
