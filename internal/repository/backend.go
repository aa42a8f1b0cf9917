package repository

import (
	"context"
	"fmt"

	"github.com/forgo/campusfeed/internal/config"
	"github.com/forgo/campusfeed/internal/database"
	"github.com/forgo/campusfeed/internal/model"
)

// Accounts is the account data access both backends provide
type Accounts interface {
	Create(ctx context.Context, acc *model.Account) error
	GetByID(ctx context.Context, id string) (*model.Account, error)
	GetByEmail(ctx context.Context, email string) (*model.Account, error)
	UpdateProfile(ctx context.Context, id string, patch model.ProfilePatch) (*model.Account, error)
	SetRole(ctx context.Context, id string, role model.Role) error
	List(ctx context.Context) ([]*model.Account, error)
}

// Posts is the post data access both backends provide
type Posts interface {
	Create(ctx context.Context, post *model.Post) error
	GetByID(ctx context.Context, id string) (*model.Post, error)
	ListRecent(ctx context.Context, limit int) ([]*model.FeedItem, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// Backend is an opened database with its repositories
type Backend struct {
	Driver   string
	Accounts Accounts
	Posts    Posts

	ping  func(ctx context.Context) error
	close func() error
}

// Ping checks the database is reachable
func (b *Backend) Ping(ctx context.Context) error {
	return b.ping(ctx)
}

// Close releases the connection
func (b *Backend) Close() error {
	return b.close()
}

// Open connects to the configured database, brings its schema up to date
// and returns the repositories over it.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Backend, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		db, err := database.OpenPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if err := database.MigratePostgres(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		return &Backend{
			Driver:   cfg.Driver,
			Accounts: NewPostgresAccountRepository(db),
			Posts:    NewPostgresPostRepository(db),
			ping:     db.PingContext,
			close:    db.Close,
		}, nil

	case config.DriverSurrealDB:
		db := database.NewSurrealDB(database.Config{
			Host:      cfg.Surreal.Host,
			Port:      cfg.Surreal.Port,
			User:      cfg.Surreal.User,
			Password:  cfg.Surreal.Password,
			Namespace: cfg.Surreal.Namespace,
			Database:  cfg.Surreal.Database,
		})
		if err := db.Connect(ctx); err != nil {
			return nil, err
		}
		if err := database.ApplySurrealSchema(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		return &Backend{
			Driver:   cfg.Driver,
			Accounts: NewAccountRepository(db),
			Posts:    NewPostRepository(db),
			ping:     db.Ping,
			close:    db.Close,
		}, nil
	}

	return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
}
