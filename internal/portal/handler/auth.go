package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/folio-app/folio/internal/portal/middleware"
	"github.com/folio-app/folio/pkg/log"
	"github.com/folio-app/folio/pkg/portal"
)

// AuthHandler handles login, logout and registration
type AuthHandler struct {
	users    portal.UserRepository
	sessions *middleware.Sessions
	logger   log.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(users portal.UserRepository, sessions *middleware.Sessions) *AuthHandler {
	return &AuthHandler{
		users:    users,
		sessions: sessions,
		logger:   log.Component("auth"),
	}
}

// LoginRequest represents a login request
type LoginRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterRequest represents a registration request
type RegisterRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
	Lang     string `json:"lang"`
}

// UserInfo is the public view of a user
type UserInfo struct {
	ID    string      `json:"id"`
	Login string      `json:"login"`
	Role  portal.Role `json:"role"`
	Lang  string      `json:"lang"`
}

func userInfo(u *portal.User) UserInfo {
	return UserInfo{ID: u.ID, Login: u.Login, Role: u.Role, Lang: u.Lang}
}

// Login handles POST /api/auth/login. Any existing session is discarded
// first, so failed attempts leave the client logged out.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.WriteError(c, http.StatusBadRequest, "INVALID_JSON", "login and password are required")
		return
	}

	if err := h.sessions.Clear(c); err != nil {
		h.logger.WithContext(c.Request.Context()).Warn("failed to clear previous session", log.Error(err))
	}

	ctx := c.Request.Context()
	user, err := h.users.ByCredentials(ctx, req.Login, req.Password)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	if user == nil {
		h.logger.WithContext(ctx).Warn("login failed", log.String("login", req.Login))
		middleware.WriteError(c, http.StatusUnauthorized, "login.failed", "invalid login or password")
		return
	}

	if err := h.sessions.Start(c, user); err != nil {
		middleware.Fail(c, err)
		return
	}
	h.logger.WithContext(ctx).Info("user logged in", log.String(log.FieldUserID, user.ID))
	c.JSON(http.StatusOK, userInfo(user))
}

// Logout handles POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.sessions.Clear(c); err != nil {
		h.logger.WithContext(c.Request.Context()).Error("failed to delete session", log.Error(err))
	}
	c.Redirect(http.StatusFound, "/")
}

// Register handles POST /api/auth/register: creates a USER and logs it in
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.WriteError(c, http.StatusBadRequest, "INVALID_JSON", "login and password are required")
		return
	}

	ctx := c.Request.Context()
	user, err := h.users.Create(ctx, req.Login, portal.RoleUser, req.Lang, req.Password)
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
	h.logger.WithContext(ctx).Info("user registered", log.String(log.FieldUserID, user.ID))
	c.JSON(http.StatusCreated, userInfo(user))
}

// User handles GET /api/auth/user
func (h *AuthHandler) User(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		middleware.WriteError(c, http.StatusUnauthorized, "login.unauthorized", "authentication required")
		return
	}
	c.JSON(http.StatusOK, userInfo(user))
}
