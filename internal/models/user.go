package models

import (
	"fmt"
	"strings"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleVendor   Role = "vendor"
	RoleCustomer Role = "customer"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleVendor, RoleCustomer:
		return true
	}
	return false
}

// User is a marketplace account. Password holds a bcrypt hash once the
// record has passed through the store.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
	Avatar   string `json:"avatar"`
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (u *User) Validate() error {
	switch {
	case u.ID == "":
		return fmt.Errorf("user: missing id")
	case !strings.Contains(u.Email, "@"):
		return fmt.Errorf("user %s: invalid email %q", u.ID, u.Email)
	case u.Password == "":
		return fmt.Errorf("user %s: missing password", u.ID)
	case !u.Role.Valid():
		return fmt.Errorf("user %s: invalid role %q", u.ID, u.Role)
	}
	return nil
}
