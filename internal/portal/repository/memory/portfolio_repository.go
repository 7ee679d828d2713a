package memory

import (
	"context"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/folio-app/folio/pkg/portal"
)

// PortfolioRepository implements portal.PortfolioRepository using in-memory storage
type PortfolioRepository struct {
	repo *Repository
}

// NewPortfolioRepository creates a new in-memory portfolio repository
func NewPortfolioRepository(repo *Repository) *PortfolioRepository {
	return &PortfolioRepository{repo: repo}
}

func checkOwner(user *portal.User) error {
	if user == nil || user.ID == "" {
		return portal.NewUnauthorizedError("UNAUTHORIZED", "user is required")
	}
	return nil
}

func checkName(name string) error {
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
	if err := checkOwner(user); err != nil {
		return nil, err
	}

	pr.repo.mu.RLock()
	defer pr.repo.mu.RUnlock()

	if pr.repo.closed {
		return nil, errClosed()
	}

	result := []*portal.Portfolio{}
	for _, p := range pr.repo.portfolios {
		if p.userID == user.ID {
			pc := p.Portfolio
			result = append(result, &pc)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// FindByID returns the portfolio, or nil when it is absent or owned by someone else
func (pr *PortfolioRepository) FindByID(ctx context.Context, id string, user *portal.User) (*portal.Portfolio, error) {
	if err := checkOwner(user); err != nil {
		return nil, err
	}

	pr.repo.mu.RLock()
	defer pr.repo.mu.RUnlock()

	if pr.repo.closed {
		return nil, errClosed()
	}
	p, exists := pr.repo.portfolios[id]
	if !exists || p.userID != user.ID {
		return nil, nil
	}
	pc := p.Portfolio
	return &pc, nil
}

// Create stores portfolio for user, generating an ID when it has none
func (pr *PortfolioRepository) Create(ctx context.Context, portfolio *portal.Portfolio, user *portal.User) (*portal.Portfolio, error) {
	if err := checkOwner(user); err != nil {
		return nil, err
	}
	if portfolio == nil {
		return nil, portal.NewValidationError("INVALID_PORTFOLIO", "portfolio is required")
	}
	if err := checkName(portfolio.Name); err != nil {
		return nil, err
	}

	pr.repo.mu.Lock()
	defer pr.repo.mu.Unlock()

	if pr.repo.closed {
		return nil, errClosed()
	}
	if portfolio.ID == "" {
		portfolio.ID = uuid.NewString()
	}
	if _, exists := pr.repo.portfolios[portfolio.ID]; exists {
		return nil, portal.NewConflictError("PORTFOLIO_EXISTS", "portfolio with this ID already exists")
	}
	pr.repo.portfolios[portfolio.ID] = &ownedPortfolio{Portfolio: *portfolio, userID: user.ID}
	return portfolio, nil
}

// Update renames a portfolio of user
func (pr *PortfolioRepository) Update(ctx context.Context, portfolio *portal.Portfolio, user *portal.User) (*portal.Portfolio, error) {
	if err := checkOwner(user); err != nil {
		return nil, err
	}
	if portfolio == nil || portfolio.ID == "" {
		return nil, portal.NewValidationError("INVALID_PORTFOLIO_ID", "portfolio ID is required")
	}
	if err := checkName(portfolio.Name); err != nil {
		return nil, err
	}

	pr.repo.mu.Lock()
	defer pr.repo.mu.Unlock()

	if pr.repo.closed {
		return nil, errClosed()
	}
	p, exists := pr.repo.portfolios[portfolio.ID]
	if !exists || p.userID != user.ID {
		return nil, portal.NewNotFoundError("PORTFOLIO_NOT_FOUND", "portfolio not found")
	}
	p.Name = portfolio.Name
	return portfolio, nil
}

// Delete removes a portfolio of user
func (pr *PortfolioRepository) Delete(ctx context.Context, id string, user *portal.User) error {
	if err := checkOwner(user); err != nil {
		return err
	}

	pr.repo.mu.Lock()
	defer pr.repo.mu.Unlock()

	if pr.repo.closed {
		return errClosed()
	}
	p, exists := pr.repo.portfolios[id]
	if !exists || p.userID != user.ID {
		return portal.NewNotFoundError("PORTFOLIO_NOT_FOUND", "portfolio not found")
	}
	delete(pr.repo.portfolios, id)
	return nil
}
