// Package session holds the authenticated viewer for internctl. A Manager
// owns the session lifecycle (login, refresh, logout) and is passed
// explicitly to whatever needs the viewer's identity.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sorenmh/nextintern/internal/internctl/client"
	"github.com/sorenmh/nextintern/internal/lifecycle"
)

// ErrNoSession is returned when an operation needs a logged-in viewer.
var ErrNoSession = errors.New("not logged in")

// refreshSkew is how long before expiry a token is considered stale.
const refreshSkew = 30 * time.Second

// Session is the authenticated viewer.
type Session struct {
	UserID       string         `mapstructure:"userId" json:"userId"`
	Email        string         `mapstructure:"email" json:"email"`
	FullName     string         `mapstructure:"fullName" json:"fullName"`
	Role         lifecycle.Role `mapstructure:"role" json:"role"`
	AccessToken  string         `mapstructure:"accessToken" json:"-"`
	RefreshToken string         `mapstructure:"refreshToken" json:"-"`
	ExpiresAt    time.Time      `mapstructure:"expiresAt" json:"expiresAt"`
}

// Viewer returns the lifecycle viewer for this session.
func (s Session) Viewer() lifecycle.Viewer {
	return lifecycle.Viewer{UserID: s.UserID, Role: s.Role}
}

// Expired reports whether the access token is past (or near) its expiry.
func (s Session) Expired(now time.Time) bool {
	if s.ExpiresAt.IsZero() {
		return false
	}
	return !now.Add(refreshSkew).Before(s.ExpiresAt)
}

// Authenticator is the backend half of the session lifecycle.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*client.AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*client.AuthResponse, error)
	Logout(ctx context.Context, refreshToken string) error
}

// Store persists a session between process runs.
type Store interface {
	Load() (*Session, error)
	Save(s *Session) error
	Clear() error
}

// Manager owns the current session.
type Manager struct {
	auth  Authenticator
	store Store
	now   func() time.Time

	mu        sync.RWMutex
	current   *Session
	listeners []func(*Session)
}

// NewManager creates a Manager and restores any persisted session.
func NewManager(auth Authenticator, store Store) (*Manager, error) {
	m := &Manager{auth: auth, store: store, now: time.Now}

	s, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	m.current = s
	return m, nil
}

// OnChange registers fn to be called with the new session (nil on logout)
// whenever it changes. fn is also called immediately with the current one.
func (m *Manager) OnChange(fn func(*Session)) {
	m.mu.Lock()
	m.listeners = append(m.listeners, fn)
	cur := m.current
	m.mu.Unlock()
	fn(cur)
}

// Current returns a copy of the current session.
func (m *Manager) Current() (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return Session{}, false
	}
	return *m.current, true
}

// Login authenticates and replaces the current session.
func (m *Manager) Login(ctx context.Context, email, password string) (*Session, error) {
	resp, err := m.auth.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return m.set(fromAuth(resp))
}

// Adopt installs a session obtained elsewhere, such as from registration.
func (m *Manager) Adopt(resp *client.AuthResponse) (*Session, error) {
	return m.set(fromAuth(resp))
}

// Refresh rotates the refresh token and replaces the access token.
func (m *Manager) Refresh(ctx context.Context) (*Session, error) {
	cur, ok := m.Current()
	if !ok || cur.RefreshToken == "" {
		return nil, ErrNoSession
	}

	resp, err := m.auth.Refresh(ctx, cur.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh session: %w", err)
	}
	return m.set(fromAuth(resp))
}

// EnsureFresh refreshes the session when its access token is about to expire.
func (m *Manager) EnsureFresh(ctx context.Context) (Session, error) {
	cur, ok := m.Current()
	if !ok {
		return Session{}, ErrNoSession
	}
	if !cur.Expired(m.now()) {
		return cur, nil
	}

	s, err := m.Refresh(ctx)
	if err != nil {
		return Session{}, err
	}
	return *s, nil
}

// Logout revokes the session server-side and forgets it locally. The local
// session is cleared even when the backend call fails.
func (m *Manager) Logout(ctx context.Context) error {
	cur, ok := m.Current()
	if !ok {
		return nil
	}

	remoteErr := m.auth.Logout(ctx, cur.RefreshToken)

	m.mu.Lock()
	m.current = nil
	listeners := append([]func(*Session){}, m.listeners...)
	m.mu.Unlock()

	if err := m.store.Clear(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	for _, fn := range listeners {
		fn(nil)
	}

	if remoteErr != nil {
		return fmt.Errorf("failed to revoke session: %w", remoteErr)
	}
	return nil
}

func (m *Manager) set(s *Session) (*Session, error) {
	if err := m.store.Save(s); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	m.mu.Lock()
	m.current = s
	listeners := append([]func(*Session){}, m.listeners...)
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(s)
	}
	out := *s
	return &out, nil
}

func fromAuth(resp *client.AuthResponse) *Session {
	return &Session{
		UserID:       resp.User.ID,
		Email:        resp.User.Email,
		FullName:     resp.User.FullName,
		Role:         resp.User.Role,
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    resp.ExpiresAt,
	}
}

// MemoryStore keeps the session in process memory only.
type MemoryStore struct {
	mu sync.Mutex
	s  *Session
}

func (m *MemoryStore) Load() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.s == nil {
		return nil, nil
	}
	cp := *m.s
	return &cp, nil
}

func (m *MemoryStore) Save(s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.s = &cp
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.s = nil
	return nil
}
