package sqldb

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/folio-app/folio/internal/db"
	"github.com/folio-app/folio/internal/portal/auth"
	"github.com/folio-app/folio/pkg/portal"
)

const usersTable = "users"

// UserRepository implements portal.UserRepository
type UserRepository struct {
	db.BaseRepository
	hasher *auth.PasswordHasher
}

// NewUserRepository creates a user repository; hasher hashes and verifies passwords
func NewUserRepository(d *db.DB, hasher *auth.PasswordHasher) *UserRepository {
	if hasher == nil {
		hasher = auth.NewPasswordHasher(0)
	}
	return &UserRepository{
		BaseRepository: db.NewBaseRepository(d, usersTable),
		hasher:         hasher,
	}
}

func mapUser(r *db.Row) (*portal.User, error) {
	return &portal.User{
		ID:           r.String("id"),
		Login:        r.String("login"),
		Role:         db.Enum(r, "role", portal.RoleUser, portal.RoleAdmin),
		Lang:         r.String("lang"),
		PasswordHash: r.String("password_hash"),
		CreatedAt:    r.Time("created_at"),
	}, nil
}

// Create stores a new user with a bcrypt password hash
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

	user := &portal.User{
		ID:           uuid.NewString(),
		Login:        login,
		Role:         role,
		Lang:         lang,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}
	d := ur.Conn(ctx)
	_, err = d.Insert(ctx, ur.Table, db.Values{
		db.C("id", user.ID),
		db.C("login", user.Login),
		db.C("role", user.Role),
		db.C("lang", user.Lang),
		db.C("password_hash", user.PasswordHash),
		db.C("created_at", user.CreatedAt),
	})
	if err != nil {
		if d.Dialect().IsUniqueViolation(err) {
			return nil, portal.NewConflictError("USER_LOGIN_EXISTS", "user with this login already exists")
		}
		return nil, dbError(d, err, "USER_CREATE_FAILED", "failed to create user")
	}
	return user, nil
}

// ByID retrieves a user by ID
func (ur *UserRepository) ByID(ctx context.Context, id string) (*portal.User, error) {
	if id == "" {
		return nil, portal.NewValidationError("INVALID_USER_ID", "user ID cannot be empty")
	}
	d := ur.Conn(ctx)
	user, err := db.QueryOne(ctx, d, ur.Table, id, mapUser)
	if errors.Is(err, db.ErrNotFound) {
		return nil, portal.NewNotFoundError("USER_NOT_FOUND", "user not found")
	}
	if err != nil {
		return nil, dbError(d, err, "USER_QUERY_FAILED", "failed to load user")
	}
	return user, nil
}

// ByLogin retrieves a user by login
func (ur *UserRepository) ByLogin(ctx context.Context, login string) (*portal.User, error) {
	if login == "" {
		return nil, portal.NewValidationError("INVALID_LOGIN", "login cannot be empty")
	}
	d := ur.Conn(ctx)
	users, err := db.Query(ctx, d, ur.Table, db.Where{db.C("login", login)}, "", mapUser)
	if err != nil {
		return nil, dbError(d, err, "USER_QUERY_FAILED", "failed to load user")
	}
	if len(users) == 0 {
		return nil, portal.NewNotFoundError("USER_NOT_FOUND", "user not found")
	}
	return users[0], nil
}

// ByCredentials returns the user matching login and password. Unknown logins
// and wrong passwords both yield nil without an error.
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
	d := ur.Conn(ctx)
	n, err := ur.BaseRepository.Count(ctx)
	if err != nil {
		return 0, dbError(d, err, "USER_COUNT_FAILED", "failed to count users")
	}
	return n, nil
}
