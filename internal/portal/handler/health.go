package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/folio-app/folio/pkg/portal"
	"github.com/folio-app/folio/pkg/store"
)

// HealthHandler reports the state of the repository and the session store
type HealthHandler struct {
	repo    portal.Repository
	store   store.Store
	version string
}

// NewHealthHandler creates a health handler; kv may be nil for stateless sessions
func NewHealthHandler(repo portal.Repository, kv store.Store, version string) *HealthHandler {
	return &HealthHandler{repo: repo, store: kv, version: version}
}

// Health handles GET /api/health
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]interface{}{}
	healthy := true

	repoHealth := h.repo.Health(ctx)
	checks["database"] = repoHealth
	if repoHealth.Status != "healthy" {
		healthy = false
	}

	if h.store != nil {
		storeHealth := h.store.Health(ctx)
		checks["sessions"] = storeHealth
		if storeHealth.Status != "healthy" {
			healthy = false
		}
	}

	status, code := "healthy", http.StatusOK
	if !healthy {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":    status,
		"version":   h.version,
		"timestamp": time.Now().UTC(),
		"checks":    checks,
	})
}
