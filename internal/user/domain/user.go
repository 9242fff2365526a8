package domain

import (
	"errors"
	"strings"
	"time"
)

// User is a bank user as returned by the API. Secrets (password, transfer PIN) are never held here.
type User struct {
	ID          string    `json:"id"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phoneNumber"`
	Role        Role      `json:"role"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Role is the user's role; it selects the dashboard and the actions allowed.
type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleStaff    Role = "STAFF"
	RoleAdmin    Role = "ADMIN"
)

// ParseRole accepts a role name case-insensitively.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToUpper(strings.TrimSpace(s))); r {
	case RoleCustomer, RoleStaff, RoleAdmin:
		return r, nil
	}
	return "", errors.New("role must be CUSTOMER, STAFF or ADMIN")
}

// IsStaff reports whether the role uses the staff dashboard (staff and admin).
func (r Role) IsStaff() bool {
	return r == RoleStaff || r == RoleAdmin
}

// FullName returns "First Last".
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Validate validates a user decoded from the API. Returns an error describing the first failure.
func (u *User) Validate() error {
	if u.ID == "" {
		return errors.New("user id is required")
	}
	if u.Role == "" {
		u.Role = RoleCustomer
	}
	if _, err := ParseRole(string(u.Role)); err != nil {
		return err
	}
	return nil
}
