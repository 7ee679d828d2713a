package portal

import (
	"context"
	"time"
)

// Repository defines the base interface for all repositories
type Repository interface {
	// Health returns the health status of the repository
	Health(ctx context.Context) HealthStatus

	// Close closes the repository connection and releases resources
	Close() error
}

// HealthStatus represents the health status of a repository
type HealthStatus struct {
	Status    string                 `json:"status"`
	Message   string                 `json:"message,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// UserRepository defines the interface for user data operations
type UserRepository interface {
	// Create stores a new user with a hashed password. A duplicate login
	// is a conflict error.
	Create(ctx context.Context, login string, role Role, lang, password string) (*User, error)

	// ByID retrieves a user by ID, returning a not found error when absent
	ByID(ctx context.Context, id string) (*User, error)

	// ByLogin retrieves a user by login, returning a not found error when absent
	ByLogin(ctx context.Context, login string) (*User, error)

	// ByCredentials returns the user for a login/password pair, or nil when
	// the login is unknown or the password does not match
	ByCredentials(ctx context.Context, login, password string) (*User, error)

	// Count returns the number of stored users
	Count(ctx context.Context) (int64, error)
}

// PortfolioRepository defines portfolio operations. Every call is scoped by the
// owning user; a portfolio is never visible or mutable through another user.
type PortfolioRepository interface {
	// ListAll returns all portfolios owned by user
	ListAll(ctx context.Context, user *User) ([]*Portfolio, error)

	// FindByID returns the portfolio if it exists and is owned by user, nil otherwise
	FindByID(ctx context.Context, id string, user *User) (*Portfolio, error)

	// Create stores a new portfolio owned by user and returns it
	Create(ctx context.Context, portfolio *Portfolio, user *User) (*Portfolio, error)

	// Update renames a portfolio owned by user. It fails with a not found error
	// when no (id, user) row exists.
	Update(ctx context.Context, portfolio *Portfolio, user *User) (*Portfolio, error)

	// Delete removes a portfolio owned by user, with the same rule as Update
	Delete(ctx context.Context, id string, user *User) error
}
