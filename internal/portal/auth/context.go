package auth

import (
	"context"

	"github.com/folio-app/folio/pkg/portal"
)

type contextKey string

const (
	userContextKey    contextKey = "user"
	sessionContextKey contextKey = "session"
)

// GetUserFromContext retrieves the authenticated user from the request context
func GetUserFromContext(ctx context.Context) (*portal.User, bool) {
	user, ok := ctx.Value(userContextKey).(*portal.User)
	return user, ok && user != nil
}

// SetUserInContext sets the authenticated user in the request context
func SetUserInContext(ctx context.Context, user *portal.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// GetSessionFromContext retrieves the session loaded for this request
func GetSessionFromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionContextKey).(*Session)
	return s, ok && s != nil
}

// SetSessionInContext stores the session loaded for this request
func SetSessionInContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, s)
}
