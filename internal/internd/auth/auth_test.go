package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sorenmh/nextintern/internal/lifecycle"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", hash)

	assert.NoError(t, CheckPassword(hash, "s3cret-pass"))
	assert.ErrorIs(t, CheckPassword(hash, "wrong"), ErrInvalidCredentials)
}

func newRedisStore(t *testing.T) (*RedisTokenStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisTokenStore(client), mr
}

func TestManagerIssueAndAuthenticate(t *testing.T) {
	stores := map[string]TokenStore{
		"memory": NewMemoryTokenStore(),
	}
	redisStore, _ := newRedisStore(t)
	stores["redis"] = redisStore

	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			m := NewManager(testSecret, 15*time.Minute, time.Hour, store)

			pair, err := m.Issue(ctx, "user-1", lifecycle.RoleProvider)
			require.NoError(t, err)
			assert.NotEmpty(t, pair.AccessToken)
			assert.NotEmpty(t, pair.RefreshToken)

			claims, err := m.Authenticate(ctx, pair.AccessToken)
			require.NoError(t, err)
			assert.Equal(t, "user-1", claims.Subject)
			assert.Equal(t, lifecycle.RoleProvider, claims.Role)
			assert.NotEmpty(t, claims.ID)

			userID, err := m.Rotate(ctx, pair.RefreshToken)
			require.NoError(t, err)
			assert.Equal(t, "user-1", userID)

			_, err = m.Rotate(ctx, pair.RefreshToken)
			assert.ErrorIs(t, err, ErrRefreshNotFound)

			require.NoError(t, m.Revoke(ctx, "", claims))
			_, err = m.Authenticate(ctx, pair.AccessToken)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestAuthenticateRejectsBadTokens(t *testing.T) {
	ctx := context.Background()
	m := NewManager(testSecret, time.Minute, time.Hour, NewMemoryTokenStore())

	expired := NewManager(testSecret, time.Minute, time.Hour, NewMemoryTokenStore())
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	old, err := expired.Issue(ctx, "user-1", lifecycle.RoleStudent)
	require.NoError(t, err)

	other := NewManager("another-secret-another-secret-xx", time.Minute, time.Hour, NewMemoryTokenStore())
	foreign, err := other.Issue(ctx, "user-1", lifecycle.RoleStudent)
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		Role:             lifecycle.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-jwt"},
		{"expired", old.AccessToken},
		{"wrong secret", foreign.AccessToken},
		{"unsigned", none},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Authenticate(ctx, tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestRevokeConsumesRefreshToken(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t)
	m := NewManager(testSecret, 15*time.Minute, time.Hour, store)

	pair, err := m.Issue(ctx, "user-1", lifecycle.RoleStudent)
	require.NoError(t, err)
	claims, err := m.Authenticate(ctx, pair.AccessToken)
	require.NoError(t, err)

	require.NoError(t, m.Revoke(ctx, pair.RefreshToken, claims))

	_, err = m.Rotate(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshNotFound)

	ttl := mr.TTL(blocklistPrefix + claims.ID)
	assert.True(t, ttl > 0 && ttl <= 15*time.Minute, "blocklist ttl %s", ttl)

	// already consumed refresh tokens are not an error
	assert.NoError(t, m.Revoke(ctx, pair.RefreshToken, nil))
}

func TestRedisRefreshExpires(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t)

	require.NoError(t, store.SaveRefresh(ctx, "tok", "user-1", time.Minute))
	mr.FastForward(2 * time.Minute)

	_, err := store.ConsumeRefresh(ctx, "tok")
	assert.ErrorIs(t, err, ErrRefreshNotFound)
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryTokenStore()
	now := time.Now()
	s.now = func() time.Time { return now }

	require.NoError(t, s.SaveRefresh(ctx, "tok", "user-1", time.Minute))
	require.NoError(t, s.Revoke(ctx, "jti-1", time.Minute))

	revoked, err := s.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	now = now.Add(2 * time.Minute)

	revoked, err = s.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	_, err = s.ConsumeRefresh(ctx, "tok")
	assert.ErrorIs(t, err, ErrRefreshNotFound)
}
