package domain

import "time"

type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleMember:
		return true
	default:
		return false
	}
}

type Team struct {
	ID      TeamID
	Name    string
	OwnerID UserID

	CreatedAt time.Time
}

// User is a team membership record. It is meaningless outside its team.
type User struct {
	ID     UserID
	TeamID TeamID

	Email       string
	DisplayName string
	Role        Role

	IsDeleted bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Account is the authenticated identity, independent of any team.
type Account struct {
	UserID      UserID
	Email       string
	DisplayName string
}

// Invite grants a single membership in TeamID until ExpiresAt.
type Invite struct {
	Code      InviteCode
	TeamID    TeamID
	Role      Role
	CreatedBy UserID

	CreatedAt time.Time
	ExpiresAt time.Time

	// RedeemedBy/RedeemedAt are set once the code has been used.
	RedeemedBy *UserID
	RedeemedAt *time.Time
}

// Usable reports whether the invite can still be redeemed at now.
func (i Invite) Usable(now time.Time) bool {
	return i.RedeemedBy == nil && now.Before(i.ExpiresAt)
}
