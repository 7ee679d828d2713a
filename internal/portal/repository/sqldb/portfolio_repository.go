package sqldb

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/folio-app/folio/internal/db"
	"github.com/folio-app/folio/pkg/portal"
)

const portfoliosTable = "portfolios"

// PortfolioRepository implements portal.PortfolioRepository. Every statement
// is filtered by user_id, so rows of other users behave as absent.
type PortfolioRepository struct {
	db.BaseRepository
}

// NewPortfolioRepository creates a portfolio repository
func NewPortfolioRepository(d *db.DB) *PortfolioRepository {
	return &PortfolioRepository{BaseRepository: db.NewBaseRepository(d, portfoliosTable)}
}

func mapPortfolio(r *db.Row) (*portal.Portfolio, error) {
	return &portal.Portfolio{
		ID:   r.String("id"),
		Name: r.String("name"),
	}, nil
}

func owner(user *portal.User) error {
	if user == nil || user.ID == "" {
		return portal.NewUnauthorizedError("UNAUTHORIZED", "user is required")
	}
	return nil
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return portal.NewValidationError("INVALID_PORTFOLIO_NAME", "portfolio name is required")
	}
	if utf8.RuneCountInString(name) > 100 {
		return portal.NewValidationError("INVALID_PORTFOLIO_NAME", "portfolio name is too long")
	}
	return nil
}

// ListAll returns the portfolios of user ordered by name
func (pr *PortfolioRepository) ListAll(ctx context.Context, user *portal.User) ([]*portal.Portfolio, error) {
	if err := owner(user); err != nil {
		return nil, err
	}
	d := pr.Conn(ctx)
	portfolios, err := db.Query(ctx, d, pr.Table, db.Where{db.C("user_id", user.ID)}, "order by name, id", mapPortfolio)
	if err != nil {
		return nil, dbError(d, err, "PORTFOLIO_QUERY_FAILED", "failed to list portfolios")
	}
	return portfolios, nil
}

// FindByID returns the portfolio, or nil when it does not exist or belongs to someone else
func (pr *PortfolioRepository) FindByID(ctx context.Context, id string, user *portal.User) (*portal.Portfolio, error) {
	if err := owner(user); err != nil {
		return nil, err
	}
	d := pr.Conn(ctx)
	portfolios, err := db.Query(ctx, d, pr.Table, db.Where{db.C("id", id), db.C("user_id", user.ID)}, "", mapPortfolio)
	if err != nil {
		return nil, dbError(d, err, "PORTFOLIO_QUERY_FAILED", "failed to load portfolio")
	}
	if len(portfolios) == 0 {
		return nil, nil
	}
	return portfolios[0], nil
}

// Create inserts portfolio for user, generating an ID when it has none
func (pr *PortfolioRepository) Create(ctx context.Context, portfolio *portal.Portfolio, user *portal.User) (*portal.Portfolio, error) {
	if err := owner(user); err != nil {
		return nil, err
	}
	if portfolio == nil {
		return nil, portal.NewValidationError("INVALID_PORTFOLIO", "portfolio is required")
	}
	if err := validateName(portfolio.Name); err != nil {
		return nil, err
	}
	if portfolio.ID == "" {
		portfolio.ID = uuid.NewString()
	}

	d := pr.Conn(ctx)
	_, err := d.Insert(ctx, pr.Table, db.Values{
		db.C("id", portfolio.ID),
		db.C("user_id", user.ID),
		db.C("name", portfolio.Name),
	})
	if err != nil {
		if d.Dialect().IsUniqueViolation(err) {
			return nil, portal.NewConflictError("PORTFOLIO_EXISTS", "portfolio with this ID already exists")
		}
		return nil, dbError(d, err, "PORTFOLIO_CREATE_FAILED", "failed to create portfolio")
	}
	return portfolio, nil
}

// Update renames a portfolio of user
func (pr *PortfolioRepository) Update(ctx context.Context, portfolio *portal.Portfolio, user *portal.User) (*portal.Portfolio, error) {
	if err := owner(user); err != nil {
		return nil, err
	}
	if portfolio == nil || portfolio.ID == "" {
		return nil, portal.NewValidationError("INVALID_PORTFOLIO_ID", "portfolio ID is required")
	}
	if err := validateName(portfolio.Name); err != nil {
		return nil, err
	}

	d := pr.Conn(ctx)
	n, err := d.Update(ctx, pr.Table,
		db.Where{db.C("id", portfolio.ID), db.C("user_id", user.ID)},
		db.Values{db.C("name", portfolio.Name)})
	if err != nil {
		return nil, dbError(d, err, "PORTFOLIO_UPDATE_FAILED", "failed to update portfolio")
	}
	if n == 0 {
		return nil, portal.NewNotFoundError("PORTFOLIO_NOT_FOUND", "portfolio not found")
	}
	return portfolio, nil
}

// Delete removes a portfolio of user
func (pr *PortfolioRepository) Delete(ctx context.Context, id string, user *portal.User) error {
	if err := owner(user); err != nil {
		return err
	}
	d := pr.Conn(ctx)
	n, err := d.Delete(ctx, pr.Table, db.Where{db.C("id", id), db.C("user_id", user.ID)})
	if err != nil {
		return dbError(d, err, "PORTFOLIO_DELETE_FAILED", "failed to delete portfolio")
	}
	if n == 0 {
		return portal.NewNotFoundError("PORTFOLIO_NOT_FOUND", "portfolio not found")
	}
	return nil
}
