package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sorenmh/nextintern/internal/internctl/client"
	"github.com/sorenmh/nextintern/internal/lifecycle"
)

type fakeAuth struct {
	logins    int
	refreshes []string
	logouts   []string
	logoutErr error
	next      int
}

func (f *fakeAuth) issue(userID string) *client.AuthResponse {
	f.next++
	return &client.AuthResponse{
		AccessToken:  "access-" + string(rune('0'+f.next)),
		RefreshToken: "refresh-" + string(rune('0'+f.next)),
		ExpiresAt:    time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
		User:         client.UserInfo{ID: userID, Email: "p@example.com", FullName: "Pat", Role: lifecycle.RoleProvider},
	}
}

func (f *fakeAuth) Login(ctx context.Context, email, password string) (*client.AuthResponse, error) {
	f.logins++
	if password != "secret" {
		return nil, &client.APIError{StatusCode: 401, Code: "unauthorized", Message: "invalid credentials"}
	}
	return f.issue("u1"), nil
}

func (f *fakeAuth) Refresh(ctx context.Context, refreshToken string) (*client.AuthResponse, error) {
	f.refreshes = append(f.refreshes, refreshToken)
	return f.issue("u1"), nil
}

func (f *fakeAuth) Logout(ctx context.Context, refreshToken string) error {
	f.logouts = append(f.logouts, refreshToken)
	return f.logoutErr
}

func TestLoginNotifiesListenersAndPersists(t *testing.T) {
	auth := &fakeAuth{}
	store := &MemoryStore{}
	m, err := NewManager(auth, store)
	require.NoError(t, err)

	var tokens []string
	m.OnChange(func(s *Session) {
		if s == nil {
			tokens = append(tokens, "")
			return
		}
		tokens = append(tokens, s.AccessToken)
	})

	s, err := m.Login(context.Background(), "p@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "u1", s.UserID)
	assert.Equal(t, lifecycle.Viewer{UserID: "u1", Role: lifecycle.RoleProvider}, s.Viewer())

	assert.Equal(t, []string{"", "access-1"}, tokens)

	persisted, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "refresh-1", persisted.RefreshToken)
}

func TestLoginFailureKeepsNoSession(t *testing.T) {
	m, err := NewManager(&fakeAuth{}, &MemoryStore{})
	require.NoError(t, err)

	_, err = m.Login(context.Background(), "p@example.com", "wrong")
	require.Error(t, err)

	_, ok := m.Current()
	assert.False(t, ok)
}

func TestEnsureFreshRefreshesNearExpiry(t *testing.T) {
	auth := &fakeAuth{}
	store := &MemoryStore{}
	require.NoError(t, store.Save(&Session{
		UserID:       "u1",
		Role:         lifecycle.RoleProvider,
		AccessToken:  "old",
		RefreshToken: "old-refresh",
		ExpiresAt:    time.Date(2025, 1, 1, 12, 0, 10, 0, time.UTC),
	}))

	m, err := NewManager(auth, store)
	require.NoError(t, err)
	m.now = func() time.Time { return time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC) }

	s, err := m.EnsureFresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"old-refresh"}, auth.refreshes)
	assert.Equal(t, "access-1", s.AccessToken)

	// A fresh token is returned untouched.
	s, err = m.EnsureFresh(context.Background())
	require.NoError(t, err)
	assert.Len(t, auth.refreshes, 1)
	assert.Equal(t, "access-1", s.AccessToken)
}

func TestEnsureFreshWithoutSession(t *testing.T) {
	m, err := NewManager(&fakeAuth{}, &MemoryStore{})
	require.NoError(t, err)

	_, err = m.EnsureFresh(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)

	_, err = m.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestLogoutClearsEvenWhenBackendFails(t *testing.T) {
	auth := &fakeAuth{logoutErr: errors.New("connection refused")}
	store := &MemoryStore{}
	m, err := NewManager(auth, store)
	require.NoError(t, err)

	_, err = m.Login(context.Background(), "p@example.com", "secret")
	require.NoError(t, err)

	var cleared bool
	m.OnChange(func(s *Session) { cleared = s == nil })

	err = m.Logout(context.Background())
	require.Error(t, err)
	assert.Equal(t, []string{"refresh-1"}, auth.logouts)
	assert.True(t, cleared)

	_, ok := m.Current()
	assert.False(t, ok)
	persisted, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, persisted)
}
