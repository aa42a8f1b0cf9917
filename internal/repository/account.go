package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/forgo/campusfeed/internal/database"
	"github.com/forgo/campusfeed/internal/model"
)

// AccountRepository handles account data access on SurrealDB
type AccountRepository struct {
	db database.Database
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db database.Database) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create inserts a new account. A taken email surfaces as database.ErrDuplicate.
func (r *AccountRepository) Create(ctx context.Context, acc *model.Account) error {
	role := acc.Role
	if role == "" {
		role = model.RoleUser
	}

	query := `
		CREATE account CONTENT {
			email: $email,
			username: $username,
			password: $password,
			role: $role,
			created_on: time::now(),
			updated_on: time::now()
		}
	`
	vars := map[string]interface{}{
		"email":    acc.Email,
		"username": acc.Username,
		"password": acc.Hash,
		"role":     string(role),
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%w: email already exists", database.ErrDuplicate)
		}
		return err
	}

	record, err := database.FirstRecord(result)
	if err != nil {
		return err
	}
	created, err := parseAccount(record)
	if err != nil {
		return err
	}

	acc.ID = created.ID
	acc.Role = created.Role
	acc.CreatedOn = created.CreatedOn
	acc.UpdatedOn = created.UpdatedOn
	return nil
}

// GetByID retrieves an account by ID. Returns nil, nil when absent.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*model.Account, error) {
	if !hasTable(id, "account") {
		return nil, nil
	}
	return r.getOne(ctx, `SELECT * FROM type::record($id)`, map[string]interface{}{"id": id})
}

// GetByEmail retrieves an account by email. Returns nil, nil when absent.
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	return r.getOne(ctx, `SELECT * FROM account WHERE email = $email LIMIT 1`, map[string]interface{}{"email": email})
}

func (r *AccountRepository) getOne(ctx context.Context, query string, vars map[string]interface{}) (*model.Account, error) {
	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return parseAccount(result)
}

// UpdateProfile applies the non-nil fields of patch and returns the stored
// account. Returns nil, nil when the account does not exist.
func (r *AccountRepository) UpdateProfile(ctx context.Context, id string, patch model.ProfilePatch) (*model.Account, error) {
	if !hasTable(id, "account") {
		return nil, nil
	}

	query := `
		UPDATE type::record($id) SET
			username = IF $username IS NOT NULL THEN $username ELSE username END,
			bio = IF $bio IS NOT NULL THEN $bio ELSE bio END,
			avatar = IF $avatar IS NOT NULL THEN $avatar ELSE avatar END,
			banner = IF $banner IS NOT NULL THEN $banner ELSE banner END,
			updated_on = time::now()
		RETURN AFTER
	`
	vars := map[string]interface{}{
		"id":       id,
		"username": stringOrNil(patch.Username),
		"bio":      stringOrNil(patch.Bio),
		"avatar":   stringOrNil(patch.Avatar),
		"banner":   stringOrNil(patch.Banner),
	}

	return r.getOne(ctx, query, vars)
}

// SetRole updates an account's role. Returns database.ErrNotFound when absent.
func (r *AccountRepository) SetRole(ctx context.Context, id string, role model.Role) error {
	if !hasTable(id, "account") {
		return database.ErrNotFound
	}

	query := `UPDATE type::record($id) SET role = $role, updated_on = time::now() RETURN AFTER`
	_, err := r.db.QueryOne(ctx, query, map[string]interface{}{
		"id":   id,
		"role": string(role),
	})
	return err
}

// List returns every account in registration order
func (r *AccountRepository) List(ctx context.Context) ([]*model.Account, error) {
	results, err := r.db.Query(ctx, `SELECT * FROM account ORDER BY created_on ASC`, nil)
	if err != nil {
		return nil, err
	}

	rows := database.Records(results, 0)
	accounts := make([]*model.Account, 0, len(rows))
	for _, row := range rows {
		acc, err := parseAccount(row)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acc)
	}
	return accounts, nil
}

func parseAccount(result interface{}) (*model.Account, error) {
	data, ok := result.(map[string]interface{})
	if !ok {
		return nil, errors.New("unexpected account result format")
	}

	acc := &model.Account{
		ID:        convertSurrealID(data["id"]),
		Email:     getString(data, "email"),
		Username:  getString(data, "username"),
		Hash:      getString(data, "password"),
		Role:      model.Role(getString(data, "role")),
		Bio:       getStringPtr(data, "bio"),
		Avatar:    getStringPtr(data, "avatar"),
		Banner:    getStringPtr(data, "banner"),
		CreatedOn: parseTime(data["created_on"]),
		UpdatedOn: parseTime(data["updated_on"]),
	}
	if acc.Role == "" {
		acc.Role = model.RoleUser
	}
	return acc, nil
}
