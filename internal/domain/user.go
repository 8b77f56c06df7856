package domain

import "fmt"

type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
	RoleAdmin  Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleBuyer, RoleSeller, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID           int64  `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	Role         Role   `json:"role"`
	IsActive     bool   `json:"is_active"`
}

// Actor is the authenticated caller of a service operation. The zero value is anonymous.
type Actor struct {
	UserID int64
	Role   Role
}

func (a Actor) Authenticated() bool { return a.UserID != 0 }

// RequireRole fails with ErrUnauthorized for anonymous actors and ErrForbidden
// when the actor holds none of the given roles.
func RequireRole(a Actor, roles ...Role) error {
	if !a.Authenticated() {
		return Unauthorized("authentication required")
	}
	for _, r := range roles {
		if a.Role == r {
			return nil
		}
	}
	return Forbidden(fmt.Sprintf("role %q is not allowed to perform this action", a.Role))
}
