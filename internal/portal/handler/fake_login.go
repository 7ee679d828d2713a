package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/folio-app/folio/internal/portal/middleware"
	"github.com/folio-app/folio/pkg/portal"
)

// FakeLogin handles POST /api/test/login?login=...&page=... in the test
// profile only. Unknown logins are created as USER with a random password.
// With page set the response redirects there.
func (h *AuthHandler) FakeLogin(c *gin.Context) {
	login := c.Query("login")
	if login == "" {
		middleware.WriteError(c, http.StatusBadRequest, "INVALID_LOGIN", "login query parameter is required")
		return
	}

	ctx := c.Request.Context()
	user, err := h.users.ByLogin(ctx, login)
	if portal.IsNotFoundError(err) {
		user, err = h.users.Create(ctx, login, portal.RoleUser, portal.DefaultLang, uuid.NewString())
	}
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	if err := h.sessions.Clear(c); err != nil {
		middleware.Fail(c, err)
		return
	}
	if err := h.sessions.Start(c, user); err != nil {
		middleware.Fail(c, err)
		return
	}

	if page := c.Query("page"); page != "" {
		c.Redirect(http.StatusFound, "/"+page)
		return
	}
	c.JSON(http.StatusOK, userInfo(user))
}
