package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/forgo/campusfeed/internal/authz"
	"github.com/forgo/campusfeed/internal/database"
	"github.com/forgo/campusfeed/internal/model"
)

// AdminService handles account administration
type AdminService struct {
	accounts AccountRepository
}

// NewAdminService creates a new admin service
func NewAdminService(accounts AccountRepository) *AdminService {
	return &AdminService{accounts: accounts}
}

// ListAccounts returns every account for the admin listing, the one view
// that includes email addresses
func (s *AdminService) ListAccounts(ctx context.Context, p authz.Principal) ([]*model.AccountListing, error) {
	if err := authz.Authorize(p, authz.ActionViewAdminListing, ""); err != nil {
		return nil, err
	}

	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return nil, err
	}

	showEmail := authz.EmailVisible(authz.ViewAdminListing)
	items := make([]*model.AccountListing, 0, len(accounts))
	for _, acc := range accounts {
		item := &model.AccountListing{
			ID:       acc.ID,
			Username: acc.Username,
			Role:     acc.Role,
		}
		if showEmail {
			item.Email = acc.Email
		}
		items = append(items, item)
	}
	return items, nil
}

// Promote raises an account's role. Lowering a role is rejected and
// promoting to the current role is a no-op.
func (s *AdminService) Promote(ctx context.Context, p authz.Principal, accountID string, role model.Role) (*model.AccountListing, error) {
	if err := authz.Authorize(p, authz.ActionPromote, ""); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	acc, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, ErrAccountNotFound
	}

	switch {
	case role.Rank() < acc.Role.Rank():
		return nil, ErrRoleDowngrade
	case role == acc.Role:
		return listingOf(acc), nil
	}

	if err := s.accounts.SetRole(ctx, accountID, role); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	slog.Info("account promoted",
		"account_id", accountID,
		"from", acc.Role,
		"to", role,
		"by", p.AccountID,
	)

	acc.Role = role
	return listingOf(acc), nil
}

func listingOf(acc *model.Account) *model.AccountListing {
	return &model.AccountListing{
		ID:       acc.ID,
		Email:    acc.Email,
		Username: acc.Username,
		Role:     acc.Role,
	}
}
