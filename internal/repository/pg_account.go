package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/forgo/campusfeed/internal/database"
	"github.com/forgo/campusfeed/internal/model"
)

// PostgresAccountRepository handles account data access on Postgres
type PostgresAccountRepository struct {
	db database.DBTX
}

// NewPostgresAccountRepository creates a Postgres-backed account repository
func NewPostgresAccountRepository(db database.DBTX) *PostgresAccountRepository {
	return &PostgresAccountRepository{db: db}
}

const accountColumns = `id, email, username, password, role, bio, avatar, banner, created_on, updated_on`

// Create inserts a new account. A taken email surfaces as database.ErrDuplicate.
func (r *PostgresAccountRepository) Create(ctx context.Context, acc *model.Account) error {
	role := acc.Role
	if role == "" {
		role = model.RoleUser
	}

	query :=
		`INSERT INTO accounts (email, username, password, role)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_on, updated_on`

	var id int64
	err := r.db.QueryRowContext(ctx, query, acc.Email, acc.Username, acc.Hash, string(role)).
		Scan(&id, &acc.CreatedOn, &acc.UpdatedOn)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return fmt.Errorf("%w: email already exists", database.ErrDuplicate)
		}
		return fmt.Errorf("db error: %w", err)
	}

	acc.ID = strconv.FormatInt(id, 10)
	acc.Role = role
	return nil
}

// GetByID retrieves an account by ID. Returns nil, nil when absent.
func (r *PostgresAccountRepository) GetByID(ctx context.Context, id string) (*model.Account, error) {
	key, ok := parsePostgresID(id)
	if !ok {
		return nil, nil
	}
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return scanAccount(r.db.QueryRowContext(ctx, query, key))
}

// GetByEmail retrieves an account by email. Returns nil, nil when absent.
func (r *PostgresAccountRepository) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`
	return scanAccount(r.db.QueryRowContext(ctx, query, email))
}

// UpdateProfile applies the non-nil fields of patch and returns the stored
// account. Returns nil, nil when the account does not exist.
func (r *PostgresAccountRepository) UpdateProfile(ctx context.Context, id string, patch model.ProfilePatch) (*model.Account, error) {
	key, ok := parsePostgresID(id)
	if !ok {
		return nil, nil
	}

	query :=
		`UPDATE accounts SET
			username = COALESCE($2, username),
			bio = COALESCE($3, bio),
			avatar = COALESCE($4, avatar),
			banner = COALESCE($5, banner),
			updated_on = now()
		 WHERE id = $1
		 RETURNING ` + accountColumns

	return scanAccount(r.db.QueryRowContext(ctx, query, key,
		nullString(patch.Username), nullString(patch.Bio), nullString(patch.Avatar), nullString(patch.Banner)))
}

// SetRole updates an account's role. Returns database.ErrNotFound when absent.
func (r *PostgresAccountRepository) SetRole(ctx context.Context, id string, role model.Role) error {
	key, ok := parsePostgresID(id)
	if !ok {
		return database.ErrNotFound
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET role = $2, updated_on = now() WHERE id = $1`, key, string(role))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return database.ErrNotFound
	}
	return nil
}

// List returns every account in registration order
func (r *PostgresAccountRepository) List(ctx context.Context) ([]*model.Account, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var accounts []*model.Account
	for rows.Next() {
		acc, err := scanAccountRow(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		accounts = append(accounts, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return accounts, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row *sql.Row) (*model.Account, error) {
	acc, err := scanAccountRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return acc, nil
}

func scanAccountRow(row rowScanner) (*model.Account, error) {
	var (
		acc                 model.Account
		id                  int64
		role                string
		bio, avatar, banner sql.NullString
	)
	if err := row.Scan(&id, &acc.Email, &acc.Username, &acc.Hash, &role, &bio, &avatar, &banner, &acc.CreatedOn, &acc.UpdatedOn); err != nil {
		return nil, err
	}

	acc.ID = strconv.FormatInt(id, 10)
	acc.Role = model.Role(role)
	acc.Bio = stringPtr(bio)
	acc.Avatar = stringPtr(avatar)
	acc.Banner = stringPtr(banner)
	return &acc, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
