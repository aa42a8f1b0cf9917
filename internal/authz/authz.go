package authz

import (
	"errors"
	"html"

	"github.com/forgo/campusfeed/internal/model"
)

// ErrForbidden is returned when the principal may not perform the action
var ErrForbidden = errors.New("forbidden")

// Principal is the authenticated actor of a request
type Principal struct {
	AccountID string
	Role      model.Role
}

// Action names a guarded operation
type Action string

const (
	ActionDeletePost       Action = "post.delete"
	ActionViewAdminListing Action = "admin.listing"
	ActionPromote          Action = "admin.promote"
)

// View names a place where account data is rendered
type View string

const (
	ViewOwnProfile   View = "own_profile"
	ViewFeed         View = "feed"
	ViewAdminListing View = "admin_listing"
)

// Authorize returns nil when p may perform action on a resource owned by
// ownerID, and ErrForbidden otherwise. ownerID is ignored by actions that
// have no owner.
func Authorize(p Principal, action Action, ownerID string) error {
	if p.AccountID == "" || !p.Role.Valid() {
		return ErrForbidden
	}

	switch action {
	case ActionDeletePost:
		if ownerID != "" && p.AccountID == ownerID {
			return nil
		}
		if p.Role.IsPrivileged() {
			return nil
		}
	case ActionViewAdminListing, ActionPromote:
		if p.Role == model.RoleAdmin {
			return nil
		}
	}
	return ErrForbidden
}

// SanitizeBio applies the bio storage policy for the given role.
// Moderators and admins keep their markup; everyone else is escaped.
func SanitizeBio(role model.Role, bio string) string {
	if role.IsPrivileged() {
		return bio
	}
	return html.EscapeString(bio)
}

// EmailVisible reports whether account emails may be rendered in view
func EmailVisible(view View) bool {
	return view == ViewAdminListing
}
