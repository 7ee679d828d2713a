package portal

import (
	"time"
)

// User is an authenticated account of the application
type User struct {
	ID           string    `json:"id"`
	Login        string    `json:"login"`
	Role         Role      `json:"role"`
	Lang         string    `json:"lang"`
	PasswordHash string    `json:"-"` // never serialized
	CreatedAt    time.Time `json:"created_at"`
}

// Role represents the access level of a user
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Allows reports whether a user holding r may access something requiring required.
// ADMIN implies USER.
func (r Role) Allows(required Role) bool {
	if r == required {
		return true
	}
	return r == RoleAdmin && required == RoleUser
}

// DefaultLang is assigned to users registering without a language preference
const DefaultLang = "en"

// Portfolio is a named collection owned by exactly one user
type Portfolio struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
