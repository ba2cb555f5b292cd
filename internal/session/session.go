// Package session issues and verifies the signed cookie that identifies a
// logged-in author between requests.
package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// CookieName is the cookie carrying the session token.
	CookieName = "unnest_session"
	issuer     = "unnest"
	revokedKey = "session:revoked:"
)

var (
	// ErrInvalidSession covers malformed, tampered and expired tokens.
	ErrInvalidSession = errors.New("invalid session")
	// ErrRevoked is returned for a token that was logged out.
	ErrRevoked = errors.New("session revoked")
)

// Claims is the token payload.
type Claims struct {
	Remember bool `json:"rem,omitempty"`
	jwt.RegisteredClaims
}

// Session is a verified token.
type Session struct {
	UserID    uint
	ID        string
	Remember  bool
	ExpiresAt time.Time
}

// Manager signs sessions with an HMAC key and, when Redis is available,
// tracks revoked session ids until they would have expired anyway.
type Manager struct {
	secret      []byte
	sessionTTL  time.Duration
	rememberTTL time.Duration
	redis       *redis.Client
	now         func() time.Time
}

// NewManager returns a Manager. rdb may be nil.
func NewManager(secret string, sessionTTL, rememberTTL time.Duration, rdb *redis.Client) *Manager {
	return &Manager{
		secret:      []byte(secret),
		sessionTTL:  sessionTTL,
		rememberTTL: rememberTTL,
		redis:       rdb,
		now:         time.Now,
	}
}

// TTL is the lifetime of a session with the given remember flag.
func (m *Manager) TTL(remember bool) time.Duration {
	if remember {
		return m.rememberTTL
	}
	return m.sessionTTL
}

// Issue signs a new session for userID.
func (m *Manager) Issue(userID uint, remember bool) (string, *Session, error) {
	if len(m.secret) == 0 {
		return "", nil, fmt.Errorf("session secret not configured")
	}

	now := m.now()
	expires := now.Add(m.TTL(remember))
	id := uuid.NewString()

	claims := Claims{
		Remember: remember,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			Issuer:    issuer,
			ID:        id,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign session: %w", err)
	}

	return signed, &Session{UserID: userID, ID: id, Remember: remember, ExpiresAt: expires}, nil
}

// Parse verifies the token and checks the revocation list.
func (m *Manager) Parse(ctx context.Context, raw string) (*Session, error) {
	if raw == "" {
		return nil, ErrInvalidSession
	}

	var claims Claims
	token, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return m.secret, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidSession
	}

	userID, err := strconv.ParseUint(claims.Subject, 10, 32)
	if err != nil || userID == 0 || claims.ID == "" {
		return nil, ErrInvalidSession
	}

	if m.redis != nil {
		n, err := m.redis.Exists(ctx, revokedKey+claims.ID).Result()
		if err == nil && n > 0 {
			return nil, ErrRevoked
		}
	}

	return &Session{
		UserID:    uint(userID),
		ID:        claims.ID,
		Remember:  claims.Remember,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Revoke marks the session as logged out. Without Redis this is a no-op and
// the caller clearing the cookie is the only effect.
func (m *Manager) Revoke(ctx context.Context, s *Session) error {
	if m.redis == nil || s == nil {
		return nil
	}
	ttl := s.ExpiresAt.Sub(m.now())
	if ttl <= 0 {
		return nil
	}
	if err := m.redis.Set(ctx, revokedKey+s.ID, "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}
