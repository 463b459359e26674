package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenStore keeps refresh tokens and revoked access token IDs
type TokenStore interface {
	SaveRefresh(ctx context.Context, token, userID string, ttl time.Duration) error
	// ConsumeRefresh returns the owner of token and deletes it
	ConsumeRefresh(ctx context.Context, token string) (string, error)
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

const (
	refreshPrefix   = "internd:refresh:"
	blocklistPrefix = "internd:revoked:"
)

// RedisTokenStore keeps tokens in Redis with native expiry
type RedisTokenStore struct {
	client *redis.Client
}

// NewRedisTokenStore creates a Redis-backed token store
func NewRedisTokenStore(client *redis.Client) *RedisTokenStore {
	return &RedisTokenStore{client: client}
}

func (s *RedisTokenStore) SaveRefresh(ctx context.Context, token, userID string, ttl time.Duration) error {
	if err := s.client.Set(ctx, refreshPrefix+token, userID, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}
	return nil
}

func (s *RedisTokenStore) ConsumeRefresh(ctx context.Context, token string) (string, error) {
	userID, err := s.client.GetDel(ctx, refreshPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrRefreshNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to consume refresh token: %w", err)
	}
	return userID, nil
}

func (s *RedisTokenStore) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if err := s.client.Set(ctx, blocklistPrefix+jti, "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

func (s *RedisTokenStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := s.client.Exists(ctx, blocklistPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return n > 0, nil
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryTokenStore is a process-local TokenStore for single-instance
// deployments and tests
type MemoryTokenStore struct {
	mu      sync.Mutex
	refresh map[string]memoryEntry
	revoked map[string]time.Time
	now     func() time.Time
}

// NewMemoryTokenStore creates an empty in-memory token store
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{
		refresh: make(map[string]memoryEntry),
		revoked: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (s *MemoryTokenStore) SaveRefresh(_ context.Context, token, userID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh[token] = memoryEntry{value: userID, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryTokenStore) ConsumeRefresh(_ context.Context, token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.refresh[token]
	if !ok {
		return "", ErrRefreshNotFound
	}
	delete(s.refresh, token)
	if !s.now().Before(e.expiresAt) {
		return "", ErrRefreshNotFound
	}
	return e.value, nil
}

func (s *MemoryTokenStore) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[jti] = s.now().Add(ttl)

	// prune
	now := s.now()
	for k, exp := range s.revoked {
		if !now.Before(exp) {
			delete(s.revoked, k)
		}
	}
	return nil
}

func (s *MemoryTokenStore) IsRevoked(_ context.Context, jti string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.revoked[jti]
	return ok && s.now().Before(exp), nil
}
