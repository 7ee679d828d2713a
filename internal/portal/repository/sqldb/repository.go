// Package sqldb implements the portal repositories on top of internal/db,
// for PostgreSQL in production and SQLite in tests and local development.
package sqldb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/folio-app/folio/internal/db"
	"github.com/folio-app/folio/pkg/portal"
)

// Repository implements portal.Repository for a database
type Repository struct {
	db *db.DB
}

// NewRepository wraps an open database
func NewRepository(d *db.DB) *Repository {
	return &Repository{db: d}
}

// DB returns the underlying database
func (r *Repository) DB() *db.DB {
	return r.db
}

// Health returns the health status of the repository
func (r *Repository) Health(ctx context.Context) portal.HealthStatus {
	details, err := r.db.Health(ctx)
	status := portal.HealthStatus{
		Status:    "healthy",
		Message:   fmt.Sprintf("%s repository is operational", r.db.Dialect().Name()),
		Details:   details,
		Timestamp: time.Now(),
	}
	if err != nil {
		status.Status = "unhealthy"
		status.Message = fmt.Sprintf("Database connection failed: %v", err)
	}
	return status
}

// Close closes the database
func (r *Repository) Close() error {
	return r.db.Close()
}

// dbError maps data-layer failures to portal errors. Not-found and unique
// violations become domain errors; everything else is a database error.
func dbError(d *db.DB, err error, code, message string) error {
	if err == nil {
		return nil
	}
	var pe *portal.PortalError
	if errors.As(err, &pe) {
		return err
	}
	if d.Dialect().IsUniqueViolation(err) {
		return portal.NewConflictError("UNIQUE_VIOLATION", "record already exists")
	}
	return portal.NewDatabaseError(code, message, err)
}
