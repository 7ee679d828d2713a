package memory

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/folio-app/folio/internal/portal/auth"
	"github.com/folio-app/folio/pkg/portal"
)

// UserRepository implements portal.UserRepository using in-memory storage
type UserRepository struct {
	repo   *Repository
	hasher *auth.PasswordHasher
}

// NewUserRepository creates a new in-memory user repository
func NewUserRepository(repo *Repository, hasher *auth.PasswordHasher) *UserRepository {
	if hasher == nil {
		hasher = auth.NewPasswordHasher(0)
	}
	return &UserRepository{repo: repo, hasher: hasher}
}

// Create stores a new user with a hashed password
func (ur *UserRepository) Create(ctx context.Context, login string, role portal.Role, lang, password string) (*portal.User, error) {
	login = strings.TrimSpace(login)
	if login == "" {
		return nil, portal.NewValidationError("INVALID_LOGIN", "login is required")
	}
	if utf8.RuneCountInString(login) > 100 {
		return nil, portal.NewValidationError("INVALID_LOGIN", "login is too long")
	}
	if role == "" {
		role = portal.RoleUser
	}
	if !role.Valid() {
		return nil, portal.NewValidationError("INVALID_USER_ROLE", "invalid user role")
	}
	if lang == "" {
		lang = portal.DefaultLang
	}
	if len(lang) != 2 {
		return nil, portal.NewValidationError("INVALID_LANG", "lang must be a two letter code")
	}
	if password == "" {
		return nil, portal.NewValidationError("INVALID_PASSWORD", "password is required")
	}
	if len(password) > auth.MaxPasswordLength {
		return nil, portal.NewValidationError("INVALID_PASSWORD", "password must be at most 72 bytes")
	}

	hash, err := ur.hasher.HashPassword(password)
	if err != nil {
		return nil, portal.NewInternalError("PASSWORD_HASH_FAILED", "failed to hash password", err)
	}

	ur.repo.mu.Lock()
	defer ur.repo.mu.Unlock()

	if ur.repo.closed {
		return nil, errClosed()
	}
	if _, exists := ur.repo.usersByLogin[login]; exists {
		return nil, portal.NewConflictError("USER_LOGIN_EXISTS", "user with this login already exists")
	}

	user := &portal.User{
		ID:           uuid.NewString(),
		Login:        login,
		Role:         role,
		Lang:         lang,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	ur.repo.users[user.ID] = user
	ur.repo.usersByLogin[login] = user

	userCopy := *user
	return &userCopy, nil
}

// ByID retrieves a user by ID
func (ur *UserRepository) ByID(ctx context.Context, id string) (*portal.User, error) {
	if id == "" {
		return nil, portal.NewValidationError("INVALID_USER_ID", "user ID cannot be empty")
	}

	ur.repo.mu.RLock()
	defer ur.repo.mu.RUnlock()

	if ur.repo.closed {
		return nil, errClosed()
	}
	user, exists := ur.repo.users[id]
	if !exists {
		return nil, portal.NewNotFoundError("USER_NOT_FOUND", "user not found")
	}
	userCopy := *user
	return &userCopy, nil
}

// ByLogin retrieves a user by login
func (ur *UserRepository) ByLogin(ctx context.Context, login string) (*portal.User, error) {
	if login == "" {
		return nil, portal.NewValidationError("INVALID_LOGIN", "login cannot be empty")
	}

	ur.repo.mu.RLock()
	defer ur.repo.mu.RUnlock()

	if ur.repo.closed {
		return nil, errClosed()
	}
	user, exists := ur.repo.usersByLogin[login]
	if !exists {
		return nil, portal.NewNotFoundError("USER_NOT_FOUND", "user not found")
	}
	userCopy := *user
	return &userCopy, nil
}

// ByCredentials returns the user for login and password, or nil when they do not match
func (ur *UserRepository) ByCredentials(ctx context.Context, login, password string) (*portal.User, error) {
	if login == "" || password == "" {
		return nil, nil
	}
	user, err := ur.ByLogin(ctx, login)
	if portal.IsNotFoundError(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if ur.hasher.VerifyPassword(password, user.PasswordHash) != nil {
		return nil, nil
	}
	return user, nil
}

// Count returns the number of users
func (ur *UserRepository) Count(ctx context.Context) (int64, error) {
	ur.repo.mu.RLock()
	defer ur.repo.mu.RUnlock()

	if ur.repo.closed {
		return 0, errClosed()
	}
	return int64(len(ur.repo.users)), nil
}
