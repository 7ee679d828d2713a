package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/folio-app/folio/internal/portal/middleware"
	"github.com/folio-app/folio/pkg/log"
	"github.com/folio-app/folio/pkg/portal"
)

// PortfolioHandler serves the portfolios of the logged in user
type PortfolioHandler struct {
	portfolios portal.PortfolioRepository
	logger     log.Logger
}

// NewPortfolioHandler creates a new portfolio handler
func NewPortfolioHandler(portfolios portal.PortfolioRepository) *PortfolioHandler {
	return &PortfolioHandler{
		portfolios: portfolios,
		logger:     log.Component("portfolios"),
	}
}

func requireUser(c *gin.Context) (*portal.User, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		middleware.WriteError(c, http.StatusUnauthorized, "login.unauthorized", "authentication required")
	}
	return user, ok
}

// ListAll handles GET /api/portfolios
func (h *PortfolioHandler) ListAll(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	portfolios, err := h.portfolios.ListAll(c.Request.Context(), user)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, portfolios)
}

// FindByID handles GET /api/portfolios/:id
func (h *PortfolioHandler) FindByID(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		middleware.WriteError(c, http.StatusBadRequest, "INVALID_PORTFOLIO_ID", "portfolio ID must be a UUID")
		return
	}

	portfolio, err := h.portfolios.FindByID(c.Request.Context(), id, user)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	if portfolio == nil {
		middleware.WriteError(c, http.StatusNotFound, "PORTFOLIO_NOT_FOUND", "portfolio not found")
		return
	}
	c.JSON(http.StatusOK, portfolio)
}

// Create handles POST /api/portfolios
func (h *PortfolioHandler) Create(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var req portal.Portfolio
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.WriteError(c, http.StatusBadRequest, "INVALID_JSON", "invalid JSON format")
		return
	}
	if req.ID != "" {
		if _, err := uuid.Parse(req.ID); err != nil {
			middleware.WriteError(c, http.StatusBadRequest, "INVALID_PORTFOLIO_ID", "portfolio ID must be a UUID")
			return
		}
	}

	portfolio, err := h.portfolios.Create(c.Request.Context(), &req, user)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	h.logger.WithContext(c.Request.Context()).Info("portfolio created",
		log.String("portfolio_id", portfolio.ID), log.String(log.FieldUserID, user.ID))
	c.JSON(http.StatusCreated, portfolio)
}

// Update handles PUT /api/portfolios
func (h *PortfolioHandler) Update(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var req portal.Portfolio
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.WriteError(c, http.StatusBadRequest, "INVALID_JSON", "invalid JSON format")
		return
	}

	portfolio, err := h.portfolios.Update(c.Request.Context(), &req, user)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, portfolio)
}

// Delete handles DELETE /api/portfolios/:id
func (h *PortfolioHandler) Delete(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	if err := h.portfolios.Delete(c.Request.Context(), c.Param("id"), user); err != nil {
		middleware.Fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
