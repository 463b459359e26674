package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sorenmh/nextintern/internal/internd/auth"
	"github.com/sorenmh/nextintern/internal/internd/models"
	"github.com/sorenmh/nextintern/internal/internd/store"
	"github.com/sorenmh/nextintern/internal/lifecycle"
)

// ListAuditLog pages through the audit log, newest first. Admins only.
func (s *Service) ListAuditLog(ctx context.Context, actor Actor, page, size int) (*models.Page[models.AuditEntry], error) {
	if actor.Role != lifecycle.RoleAdmin {
		return nil, forbidden("Only admins can read the audit log")
	}

	entries, total, err := s.audit.List(ctx, size, page*size)
	if err != nil {
		return nil, internal("Failed to list audit log", err)
	}
	p := models.NewPage(entries, page, size, total)
	return &p, nil
}

// EnsureAdmin creates the admin account with the given email if it does not
// exist yet. Admins cannot self-register, so this is how the first one is
// provisioned. An existing non-admin account with that email is an error.
func (s *Service) EnsureAdmin(ctx context.Context, email, password, fullName string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	u, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if u.Role != lifecycle.RoleAdmin {
			return nil, fmt.Errorf("user %s exists with role %s", email, u.Role)
		}
		return u, nil
	case !errors.Is(err, store.ErrNotFound):
		return nil, fmt.Errorf("failed to look up admin: %w", err)
	}

	if len(password) < 8 {
		return nil, fmt.Errorf("admin password must be at least 8 characters")
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash admin password: %w", err)
	}
	if fullName == "" {
		fullName = "Administrator"
	}

	u = &models.User{Email: email, PasswordHash: hash, FullName: fullName, Role: lifecycle.RoleAdmin}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("failed to create admin: %w", err)
	}

	s.recordAudit(ctx, Actor{UserID: u.ID, Role: u.Role}, store.AuditUserRegistered, "USER", u.ID, map[string]interface{}{"bootstrap": true})
	s.logger.Info("admin account created", map[string]interface{}{"user_id": u.ID, "email": u.Email})
	return u, nil
}
