package session

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"

	"github.com/roperito/roperito-backend/pkg/config"
	redisclient "github.com/roperito/roperito-backend/pkg/redis"
)

const (
	refreshTokenBytes = 32
	valueSeparator    = ":"
)

var ErrInvalidRefreshToken = errors.New("invalid refresh token")

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

type sessionKeyer interface {
	AccessSessionKey(accessID string) string
}

// Manager issues refresh tokens bound to an access token jti and its user.
// Each session is stored as "<user_id>:<refresh_token>" under the jti key.
type Manager struct {
	store sessionStore
	keyer sessionKeyer
	ttl   time.Duration
}

// AccessSessionChecker exposes the read-only surface needed by middleware.
type AccessSessionChecker interface {
	HasSession(ctx context.Context, accessID string) (bool, error)
}

// NewManager constructs a session manager backed by Redis.
func NewManager(client *redisclient.Client, cfg config.JWTConfig) (*Manager, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	return newManager(client, client, cfg)
}

func newManager(store sessionStore, keyer sessionKeyer, cfg config.JWTConfig) (*Manager, error) {
	ttl := cfg.RefreshTokenTTL()
	if ttl <= 0 {
		return nil, fmt.Errorf("refresh token ttl must be positive")
	}
	accessTTL := time.Duration(cfg.ExpirationMinutes) * time.Minute
	if ttl <= accessTTL {
		return nil, fmt.Errorf("refresh token ttl (%s) must exceed access token ttl (%s)", ttl, accessTTL)
	}
	return &Manager{store: store, keyer: keyer, ttl: ttl}, nil
}

// Generate creates a refresh token for the access ID and stores it in Redis.
func (m *Manager) Generate(ctx context.Context, accessID string, userID uuid.UUID) (string, error) {
	if strings.TrimSpace(accessID) == "" {
		return "", fmt.Errorf("access id is required")
	}
	if userID == uuid.Nil {
		return "", fmt.Errorf("user id is required")
	}
	token, err := generateRefreshToken()
	if err != nil {
		return "", err
	}
	if err := m.store.Set(ctx, m.keyer.AccessSessionKey(accessID), encodeValue(userID, token), m.ttl); err != nil {
		return "", err
	}
	return token, nil
}

// Rotate checks the refresh token against the session of oldAccessID, drops that
// session and opens a new one. It returns the new jti, refresh token and owner.
func (m *Manager) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, uuid.UUID, error) {
	if strings.TrimSpace(oldAccessID) == "" || strings.TrimSpace(provided) == "" {
		return "", "", uuid.Nil, ErrInvalidRefreshToken
	}

	key := m.keyer.AccessSessionKey(oldAccessID)
	stored, err := m.store.Get(ctx, key)
	if err != nil {
		return "", "", uuid.Nil, wrapNotFound(err)
	}
	userID, token, ok := decodeValue(stored)
	if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(provided)) != 1 {
		return "", "", uuid.Nil, ErrInvalidRefreshToken
	}

	newAccessID := NewAccessID()
	newToken, err := m.Generate(ctx, newAccessID, userID)
	if err != nil {
		return "", "", uuid.Nil, err
	}
	if err := m.store.Del(ctx, key); err != nil {
		return "", "", uuid.Nil, err
	}
	return newAccessID, newToken, userID, nil
}

// Revoke deletes the refresh mapping tied to the access identifier.
func (m *Manager) Revoke(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return fmt.Errorf("access id is required")
	}
	return m.store.Del(ctx, m.keyer.AccessSessionKey(accessID))
}

// HasSession reports whether the access ID still has an active refresh session.
func (m *Manager) HasSession(ctx context.Context, accessID string) (bool, error) {
	if strings.TrimSpace(accessID) == "" {
		return false, fmt.Errorf("access id is required")
	}
	if _, err := m.store.Get(ctx, m.keyer.AccessSessionKey(accessID)); err != nil {
		if errors.Is(err, redislib.Nil) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// NewAccessID produces the identifier used as the JWT jti and Redis key.
func NewAccessID() string {
	return uuid.NewString()
}

func generateRefreshToken() (string, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating refresh token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func encodeValue(userID uuid.UUID, token string) string {
	return userID.String() + valueSeparator + token
}

func decodeValue(raw string) (uuid.UUID, string, bool) {
	idPart, token, found := strings.Cut(raw, valueSeparator)
	if !found || token == "" {
		return uuid.Nil, "", false
	}
	userID, err := uuid.Parse(idPart)
	if err != nil {
		return uuid.Nil, "", false
	}
	return userID, token, true
}

func wrapNotFound(err error) error {
	if errors.Is(err, redislib.Nil) {
		return ErrInvalidRefreshToken
	}
	return err
}
