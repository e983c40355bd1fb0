// Package models defines server-side data models persisted in the database.
package models

import "time"

// Role is the forum role of an identity. Moderation endpoints accept
// moderator, administrator and staff.
type Role string

const (
	RoleMember        Role = "member"
	RoleModerator     Role = "moderator"
	RoleAdministrator Role = "administrator"
	RoleStaff         Role = "staff"
)

// CanModerate reports whether the role may perform moderator actions.
func (r Role) CanModerate() bool {
	switch r {
	case RoleModerator, RoleAdministrator, RoleStaff:
		return true
	default:
		return false
	}
}

// Identity is a forum account. Email is stored case-normalized; Username is
// optional. Ban fields hold the persisted state, which may lag behind the
// effective state once BanExpiresAt has passed.
type Identity struct {
	ID            string
	Email         string
	Username      *string
	Name          string
	Role          Role
	EmailVerified bool
	Banned        bool
	BanReason     *string
	BanExpiresAt  *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// BanState is the ban status of an identity after expiry is applied.
type BanState struct {
	Banned    bool
	Reason    *string
	ExpiresAt *time.Time
}
