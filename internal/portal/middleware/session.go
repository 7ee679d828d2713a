package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/folio-app/folio/internal/portal/auth"
	"github.com/folio-app/folio/pkg/log"
	"github.com/folio-app/folio/pkg/portal"
)

const userKey = "user"

// Sessions binds login sessions to a cookie and resolves the current user
type Sessions struct {
	store      auth.SessionStore
	users      portal.UserRepository
	cookieName string
	ttl        time.Duration
	secure     bool
	logger     log.Logger
}

// NewSessions creates the session middleware
func NewSessions(store auth.SessionStore, users portal.UserRepository, cookieName string, ttl time.Duration, secure bool) *Sessions {
	return &Sessions{
		store:      store,
		users:      users,
		cookieName: cookieName,
		ttl:        ttl,
		secure:     secure,
		logger:     log.Component("session"),
	}
}

// Start opens a new session for user and sets the session cookie
func (s *Sessions) Start(c *gin.Context, user *portal.User) error {
	session := auth.NewSession(user.ID)
	token, err := s.store.Save(c.Request.Context(), session)
	if err != nil {
		return err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.cookieName, token, int(s.ttl.Seconds()), "/", "", s.secure, true)
	setUser(c, user)
	c.Request = c.Request.WithContext(auth.SetSessionInContext(c.Request.Context(), session))
	return nil
}

// Clear invalidates the current session, if any, and expires the cookie
func (s *Sessions) Clear(c *gin.Context) error {
	token, _ := c.Cookie(s.cookieName)
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.cookieName, "", -1, "/", "", s.secure, true)
	c.Set(userKey, nil)
	c.Request = c.Request.WithContext(auth.SetUserInContext(c.Request.Context(), nil))
	if token == "" {
		return nil
	}
	return s.store.Delete(c.Request.Context(), token)
}

// LoadUser resolves the user of the session cookie. Requests without a valid
// session continue anonymously.
func (s *Sessions) LoadUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(s.cookieName)
		if err != nil || token == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		session, err := s.store.Load(ctx, token)
		if err != nil {
			if !errors.Is(err, auth.ErrNoSession) {
				s.logger.WithContext(ctx).Error("failed to load session", log.Error(err))
			}
			c.Next()
			return
		}

		user, err := s.users.ByID(ctx, session.UserID)
		if err != nil {
			if !portal.IsNotFoundError(err) {
				s.logger.WithContext(ctx).Error("failed to load session user",
					log.String(log.FieldUserID, session.UserID), log.Error(err))
			}
			c.Next()
			return
		}

		c.Request = c.Request.WithContext(auth.SetSessionInContext(ctx, session))
		setUser(c, user)
		c.Next()
	}
}

func setUser(c *gin.Context, user *portal.User) {
	c.Set(userKey, user)
	c.Request = c.Request.WithContext(auth.SetUserInContext(c.Request.Context(), user))
}

// CurrentUser returns the authenticated user of the request
func CurrentUser(c *gin.Context) (*portal.User, bool) {
	return auth.GetUserFromContext(c.Request.Context())
}

// RequireUser aborts with 401 unless the request carries a valid session
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUser(c); !ok {
			WriteError(c, http.StatusUnauthorized, "login.unauthorized", "authentication required")
			return
		}
		c.Next()
	}
}

// RequireRole aborts with 401 for anonymous requests and 403 when the user's
// role does not grant role
func RequireRole(role portal.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			WriteError(c, http.StatusUnauthorized, "login.unauthorized", "authentication required")
			return
		}
		if !user.Role.Allows(role) {
			WriteError(c, http.StatusForbidden, "INSUFFICIENT_PERMISSIONS", "required role: "+string(role))
			return
		}
		c.Next()
	}
}
