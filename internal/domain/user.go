package domain

import (
	"errors"
	"time"
)

// Role is the authorization tier for an account. The authoritative value
// always lives in the record store; role values carried in tokens or
// requests are hints only.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleManager  Role = "manager"
	RoleAdmin    Role = "admin"
)

// Valid reports whether the role is one of the known tiers.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleManager, RoleAdmin:
		return true
	}
	return false
}

// ErrRoleNotFound signals an authenticated identity with no matching local
// account. Distinct from a wrong role: callers typically treat it as
// "needs provisioning" rather than a denial.
var ErrRoleNotFound = errors.New("domain: role not found")

// User is the record-store account backing an identity.
type User struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity is the normalized result of either authentication path
// (provider session or locally issued token). Consumers never need to
// know which path produced it.
type Identity struct {
	ID    string
	Name  string
	Email string
	Phone string
	Role  Role
}

// IdentityFromUser builds the identity shape handed to the token service.
func IdentityFromUser(u *User) Identity {
	return Identity{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Phone: u.Phone,
		Role:  u.Role,
	}
}
