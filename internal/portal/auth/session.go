package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/folio-app/folio/pkg/store"
)

// ErrNoSession is returned by Load for unknown, expired or tampered sessions.
var ErrNoSession = errors.New("no session")

// Session is the server-side login state: who logged in and when.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	LoginTime time.Time `json:"login_time"`
}

// SessionStore persists sessions behind an opaque token carried in a cookie.
type SessionStore interface {
	// Save stores s and returns the token identifying it
	Save(ctx context.Context, s *Session) (string, error)

	// Load returns the session for token, or ErrNoSession
	Load(ctx context.Context, token string) (*Session, error)

	// Delete invalidates token. Unknown tokens are ignored.
	Delete(ctx context.Context, token string) error
}

// NewSession starts a session for userID at the current time.
func NewSession(userID string) *Session {
	return &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		LoginTime: time.Now().UTC(),
	}
}

// KVSessionStore keeps sessions in a store.Store (memory or redis) with a
// sliding expiry: every successful Load extends the TTL.
type KVSessionStore struct {
	kv  store.Store
	ttl time.Duration
}

// NewKVSessionStore creates a store-backed session store
func NewKVSessionStore(kv store.Store, ttl time.Duration) *KVSessionStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &KVSessionStore{kv: kv, ttl: ttl}
}

func sessionKey(token string) string { return "session:" + token }

func (s *KVSessionStore) Save(ctx context.Context, session *Session) (string, error) {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	data, err := json.Marshal(session)
	if err != nil {
		return "", err
	}
	if err := s.kv.Set(ctx, sessionKey(session.ID), data, s.ttl); err != nil {
		return "", fmt.Errorf("failed to save session: %w", err)
	}
	return session.ID, nil
}

func (s *KVSessionStore) Load(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrNoSession
	}
	data, err := s.kv.Get(ctx, sessionKey(token))
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if data == nil {
		return nil, ErrNoSession
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, ErrNoSession
	}
	if err := s.kv.Expire(ctx, sessionKey(token), s.ttl); err != nil {
		return nil, fmt.Errorf("failed to refresh session: %w", err)
	}
	return &session, nil
}

func (s *KVSessionStore) Delete(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.kv.Delete(ctx, sessionKey(token))
}

// JWTSessionStore keeps no server state: the token is a signed JWT holding
// the session. Delete cannot revoke a token; logout only clears the cookie.
type JWTSessionStore struct {
	secret    []byte
	algorithm string
	expiresIn time.Duration
	issuer    string
}

// SessionClaims are the JWT claims of a stateless session
type SessionClaims struct {
	UserID    string `json:"user_id"`
	LoginTime int64  `json:"login_time"`
	jwt.RegisteredClaims
}

// NewJWTSessionStore creates a stateless session store
func NewJWTSessionStore(secret, algorithm string, expiresIn time.Duration, issuer string) (*JWTSessionStore, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT secret cannot be empty")
	}
	if algorithm == "" {
		algorithm = "HS256"
	}
	if jwt.GetSigningMethod(algorithm) == nil {
		return nil, fmt.Errorf("unsupported signing method %s", algorithm)
	}
	if expiresIn == 0 {
		expiresIn = 24 * time.Hour
	}
	if issuer == "" {
		issuer = "folio"
	}

	return &JWTSessionStore{
		secret:    []byte(secret),
		algorithm: algorithm,
		expiresIn: expiresIn,
		issuer:    issuer,
	}, nil
}

func (s *JWTSessionStore) Save(ctx context.Context, session *Session) (string, error) {
	if session.UserID == "" {
		return "", fmt.Errorf("user ID cannot be empty")
	}
	if session.ID == "" {
		session.ID = uuid.NewString()
	}

	now := time.Now()
	claims := &SessionClaims{
		UserID:    session.UserID,
		LoginTime: session.LoginTime.UnixMilli(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        session.ID,
			Issuer:    s.issuer,
			Subject:   session.UserID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiresIn)),
			NotBefore: jwt.NewNumericDate(now.Add(-time.Second)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.GetSigningMethod(s.algorithm), claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (s *JWTSessionStore) Load(ctx context.Context, tokenString string) (*Session, error) {
	if tokenString == "" {
		return nil, ErrNoSession
	}

	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != s.algorithm {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(s.issuer))
	if err != nil || !token.Valid {
		return nil, ErrNoSession
	}

	return &Session{
		ID:        claims.ID,
		UserID:    claims.UserID,
		LoginTime: time.UnixMilli(claims.LoginTime).UTC(),
	}, nil
}

func (s *JWTSessionStore) Delete(ctx context.Context, token string) error {
	return nil
}
