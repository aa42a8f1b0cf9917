package model

import "time"

// Role represents the role of an account in the system
type Role string

const (
	RoleUser      Role = "user"      // Default role
	RoleModerator Role = "moderator" // Can delete any post
	RoleAdmin     Role = "admin"     // Moderation plus account administration
)

// Account field limits
const (
	MaxUsernameLength = 50
	MaxBioLength      = 1000
	MinPasswordLength = 8
	MaxPasswordLength = 72 // bcrypt ignores anything past 72 bytes
)

// Rank orders roles so promotions can be checked for direction.
func (r Role) Rank() int {
	switch r {
	case RoleUser:
		return 1
	case RoleModerator:
		return 2
	case RoleAdmin:
		return 3
	}
	return 0
}

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	return r.Rank() > 0
}

// IsPrivileged returns true for moderator and admin
func (r Role) IsPrivileged() bool {
	return r == RoleModerator || r == RoleAdmin
}

// Account represents a registered account
type Account struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Hash      string    `json:"-"` // Never expose password hash
	Role      Role      `json:"role"`
	Bio       *string   `json:"bio,omitempty"`
	Avatar    *string   `json:"avatar,omitempty"`
	Banner    *string   `json:"banner,omitempty"`
	CreatedOn time.Time `json:"created_on"`
	UpdatedOn time.Time `json:"updated_on"`
}

// ProfileView is what an account sees of itself. Email stays out of it.
type ProfileView struct {
	ID       string  `json:"id"`
	Username string  `json:"username"`
	Role     Role    `json:"role"`
	Bio      *string `json:"bio,omitempty"`
	Avatar   *string `json:"avatar,omitempty"`
	Banner   *string `json:"banner,omitempty"`
}

// ToProfileView strips the account down to its profile fields
func (a *Account) ToProfileView() *ProfileView {
	return &ProfileView{
		ID:       a.ID,
		Username: a.Username,
		Role:     a.Role,
		Bio:      a.Bio,
		Avatar:   a.Avatar,
		Banner:   a.Banner,
	}
}

// AccountListing is a row of the privileged account listing
type AccountListing struct {
	ID       string `json:"id"`
	Email    string `json:"email,omitempty"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// ProfilePatch carries the stored-column changes of a profile update.
// Nil fields are left unchanged.
type ProfilePatch struct {
	Username *string
	Bio      *string
	Avatar   *string
	Banner   *string
}

// IsEmpty returns true when the patch changes nothing
func (p ProfilePatch) IsEmpty() bool {
	return p.Username == nil && p.Bio == nil && p.Avatar == nil && p.Banner == nil
}
