package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/sorenmh/nextintern/internal/lifecycle"
	"github.com/sorenmh/nextintern/internal/session"
)

const sessionKey = "session"

// SessionStore persists the internctl session under the "session" key of
// the config file. Other keys in the file are preserved.
type SessionStore struct {
	path string
}

// NewSessionStore creates a store backed by the config file at path
func NewSessionStore(path string) *SessionStore {
	return &SessionStore{path: path}
}

func (s *SessionStore) read() (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigFile(s.path)
	v.SetConfigType("yaml")
	v.SetConfigPermissions(0600)
	if err := v.ReadInConfig(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return v, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return v, nil
}

// Load returns the stored session, or nil when there is none
func (s *SessionStore) Load() (*session.Session, error) {
	v, err := s.read()
	if err != nil {
		return nil, err
	}

	token := v.GetString(sessionKey + ".accessToken")
	if token == "" {
		return nil, nil
	}

	sess := &session.Session{
		UserID:       v.GetString(sessionKey + ".userId"),
		Email:        v.GetString(sessionKey + ".email"),
		FullName:     v.GetString(sessionKey + ".fullName"),
		Role:         lifecycle.Role(v.GetString(sessionKey + ".role")),
		AccessToken:  token,
		RefreshToken: v.GetString(sessionKey + ".refreshToken"),
	}
	if raw := v.GetString(sessionKey + ".expiresAt"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, fmt.Errorf("invalid session expiry %q: %w", raw, err)
		}
		sess.ExpiresAt = t
	}
	return sess, nil
}

// Save writes the session into the config file
func (s *SessionStore) Save(sess *session.Session) error {
	v, err := s.read()
	if err != nil {
		return err
	}

	expires := ""
	if !sess.ExpiresAt.IsZero() {
		expires = sess.ExpiresAt.UTC().Format(time.RFC3339)
	}
	v.Set(sessionKey, map[string]interface{}{
		"userId":       sess.UserID,
		"email":        sess.Email,
		"fullName":     sess.FullName,
		"role":         string(sess.Role),
		"accessToken":  sess.AccessToken,
		"refreshToken": sess.RefreshToken,
		"expiresAt":    expires,
	})
	return s.write(v)
}

// Clear removes the session from the config file
func (s *SessionStore) Clear() error {
	if _, err := os.Stat(s.path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	v, err := s.read()
	if err != nil {
		return err
	}

	settings := v.AllSettings()
	delete(settings, sessionKey)

	fresh := viper.New()
	fresh.SetConfigType("yaml")
	fresh.SetConfigPermissions(0600)
	for k, val := range settings {
		fresh.Set(k, val)
	}
	return s.write(fresh)
}

func (s *SessionStore) write(v *viper.Viper) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := v.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
