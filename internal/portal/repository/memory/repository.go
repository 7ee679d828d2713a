package memory

import (
	"context"
	"sync"
	"time"

	"github.com/folio-app/folio/pkg/portal"
)

// Repository holds users and portfolios in memory. It backs the "memory"
// database driver and handler tests.
type Repository struct {
	mu           sync.RWMutex
	users        map[string]*portal.User
	usersByLogin map[string]*portal.User
	portfolios   map[string]*ownedPortfolio
	closed       bool
}

type ownedPortfolio struct {
	portal.Portfolio
	userID string
}

// NewRepository creates a new in-memory repository
func NewRepository() *Repository {
	return &Repository{
		users:        make(map[string]*portal.User),
		usersByLogin: make(map[string]*portal.User),
		portfolios:   make(map[string]*ownedPortfolio),
	}
}

// Health returns the health status of the repository
func (r *Repository) Health(ctx context.Context) portal.HealthStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	status := "healthy"
	message := "In-memory repository is operational"
	details := map[string]interface{}{
		"database_type":    "memory",
		"users_count":      len(r.users),
		"portfolios_count": len(r.portfolios),
		"closed":           r.closed,
	}

	if r.closed {
		status = "unhealthy"
		message = "Repository is closed"
	}

	return portal.HealthStatus{
		Status:    status,
		Message:   message,
		Details:   details,
		Timestamp: time.Now(),
	}
}

// Close clears all data; later calls fail with REPO_CLOSED
func (r *Repository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}

	r.users = nil
	r.usersByLogin = nil
	r.portfolios = nil
	r.closed = true

	return nil
}

func errClosed() error {
	return portal.NewDatabaseError("REPO_CLOSED", "repository is closed", nil)
}
