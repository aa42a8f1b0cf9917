package service

import (
	"context"
	"errors"
	"testing"

	"github.com/forgo/campusfeed/internal/authz"
	"github.com/forgo/campusfeed/internal/model"
)

var (
	adminPrincipal = authz.Principal{AccountID: "account:admin", Role: model.RoleAdmin}
	modPrincipal   = authz.Principal{AccountID: "account:mod", Role: model.RoleModerator}
	userPrincipal  = authz.Principal{AccountID: "account:user", Role: model.RoleUser}
)

func TestListAccounts_AdminSeesEmails(t *testing.T) {
	t.Parallel()

	repo := newMockAccountRepo()
	repo.seed("account:1", "one@alumno.etec.um.edu.ar", model.RoleUser)
	repo.seed("account:2", "two@alumno.etec.um.edu.ar", model.RoleModerator)
	svc := NewAdminService(repo)

	items, err := svc.ListAccounts(context.Background(), adminPrincipal)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(items))
	}
	if items[0].Email != "one@alumno.etec.um.edu.ar" {
		t.Errorf("expected email in admin listing, got %q", items[0].Email)
	}
}

func TestListAccounts_NonAdminForbidden(t *testing.T) {
	t.Parallel()

	svc := NewAdminService(newMockAccountRepo())
	for _, p := range []authz.Principal{modPrincipal, userPrincipal} {
		if _, err := svc.ListAccounts(context.Background(), p); !errors.Is(err, authz.ErrForbidden) {
			t.Errorf("%s: expected ErrForbidden, got %v", p.Role, err)
		}
	}
}

func TestPromote(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		actor   authz.Principal
		current model.Role
		target  model.Role
		want    error
		final   model.Role
	}{
		{"user to moderator", adminPrincipal, model.RoleUser, model.RoleModerator, nil, model.RoleModerator},
		{"user to admin", adminPrincipal, model.RoleUser, model.RoleAdmin, nil, model.RoleAdmin},
		{"same role is a no-op", adminPrincipal, model.RoleModerator, model.RoleModerator, nil, model.RoleModerator},
		{"demotion rejected", adminPrincipal, model.RoleAdmin, model.RoleUser, ErrRoleDowngrade, model.RoleAdmin},
		{"unknown role", adminPrincipal, model.RoleUser, model.Role("owner"), ErrInvalidRole, model.RoleUser},
		{"moderator cannot promote", modPrincipal, model.RoleUser, model.RoleModerator, authz.ErrForbidden, model.RoleUser},
		{"user cannot promote", userPrincipal, model.RoleUser, model.RoleAdmin, authz.ErrForbidden, model.RoleUser},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockAccountRepo()
			repo.seed("account:target", "target@alumno.etec.um.edu.ar", tt.current)
			svc := NewAdminService(repo)

			listing, err := svc.Promote(context.Background(), tt.actor, "account:target", tt.target)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if err == nil && listing.Role != tt.final {
				t.Errorf("expected listing role %s, got %s", tt.final, listing.Role)
			}
			if got := repo.accounts["account:target"].Role; got != tt.final {
				t.Errorf("expected stored role %s, got %s", tt.final, got)
			}
		})
	}
}

func TestPromote_MissingAccount(t *testing.T) {
	t.Parallel()

	svc := NewAdminService(newMockAccountRepo())
	if _, err := svc.Promote(context.Background(), adminPrincipal, "account:nope", model.RoleModerator); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("expected ErrAccountNotFound, got %v", err)
	}
}
