package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/forgo/campusfeed/internal/database"
	"github.com/forgo/campusfeed/internal/model"
	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultEmailDomain is the institutional suffix every account email carries
	DefaultEmailDomain = "@alumno.etec.um.edu.ar"

	// bcrypt cost factor used when none is configured
	defaultBcryptCost = 10

	// hashed once per service so unknown-email logins pay a full compare
	dummyPassword = "campusfeed-timing-equaliser"
)

// AccountRepository defines the interface for account storage.
// GetByID and GetByEmail return nil, nil when nothing matches.
type AccountRepository interface {
	Create(ctx context.Context, acc *model.Account) error
	GetByID(ctx context.Context, id string) (*model.Account, error)
	GetByEmail(ctx context.Context, email string) (*model.Account, error)
	UpdateProfile(ctx context.Context, id string, patch model.ProfilePatch) (*model.Account, error)
	SetRole(ctx context.Context, id string, role model.Role) error
	List(ctx context.Context) ([]*model.Account, error)
}

// AuthService registers and authenticates accounts
type AuthService struct {
	accounts    AccountRepository
	emailDomain string
	bcryptCost  int
	dummyHash   []byte
}

// AuthServiceConfig holds configuration for the auth service
type AuthServiceConfig struct {
	Accounts    AccountRepository
	EmailDomain string
	BcryptCost  int
}

// NewAuthService creates a new auth service
func NewAuthService(cfg AuthServiceConfig) (*AuthService, error) {
	if cfg.EmailDomain == "" {
		cfg.EmailDomain = DefaultEmailDomain
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = defaultBcryptCost
	}

	dummy, err := bcrypt.GenerateFromPassword([]byte(dummyPassword), cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}

	return &AuthService{
		accounts:    cfg.Accounts,
		emailDomain: strings.ToLower(cfg.EmailDomain),
		bcryptCost:  cfg.BcryptCost,
		dummyHash:   dummy,
	}, nil
}

// RegisterRequest represents a registration request
type RegisterRequest struct {
	Email    string
	Username string
	Password string
}

// Register creates a new account with role user
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*model.Account, error) {
	email := normalizeEmail(req.Email)
	if !s.isInstitutionalEmail(email) {
		return nil, ErrEmailDomain
	}

	username, err := validateUsername(req.Username)
	if err != nil {
		return nil, err
	}

	if err := validatePassword(req.Password); err != nil {
		return nil, err
	}

	// Fast path. The unique index still decides concurrent registrations.
	existing, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailAlreadyExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	acc := &model.Account{
		Email:    email,
		Username: username,
		Hash:     string(hash),
		Role:     model.RoleUser,
	}
	if err := s.accounts.Create(ctx, acc); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, err
	}

	return acc, nil
}

// Authenticate checks an email and password pair.
// Unknown emails give ErrAccountNotFound and wrong passwords
// ErrInvalidCredentials; both take one bcrypt compare.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*model.Account, error) {
	acc, err := s.accounts.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if acc == nil {
		s.burnCompare(password)
		return nil, ErrAccountNotFound
	}

	// bcrypt only reads the first 72 bytes, so a longer input could
	// match a stored prefix
	if len(password) > model.MaxPasswordLength {
		s.burnCompare(password)
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(acc.Hash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return acc, nil
}

// GetAccount retrieves an account by ID
func (s *AuthService) GetAccount(ctx context.Context, accountID string) (*model.Account, error) {
	acc, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, ErrAccountNotFound
	}
	return acc, nil
}

// Helper functions

// burnCompare spends one bcrypt compare against the dummy hash
func (s *AuthService) burnCompare(password string) {
	if len(password) > model.MaxPasswordLength {
		password = password[:model.MaxPasswordLength]
	}
	_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) isInstitutionalEmail(email string) bool {
	local, ok := strings.CutSuffix(email, s.emailDomain)
	if !ok || local == "" {
		return false
	}
	return !strings.ContainsAny(local, "@ \t\r\n")
}

func validateUsername(username string) (string, error) {
	username = strings.TrimSpace(username)
	n := utf8.RuneCountInString(username)
	if n == 0 || n > model.MaxUsernameLength {
		return "", ErrUsernameInvalid
	}
	return username, nil
}

func validatePassword(password string) error {
	if len(password) < model.MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > model.MaxPasswordLength {
		return ErrPasswordTooLong
	}
	return nil
}
