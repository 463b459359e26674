package service

import (
	"context"
	"errors"

	"github.com/sorenmh/nextintern/internal/internd/auth"
	"github.com/sorenmh/nextintern/internal/internd/models"
	"github.com/sorenmh/nextintern/internal/internd/store"
	"github.com/sorenmh/nextintern/internal/lifecycle"
)

// Register creates an account and signs it in
func (s *Service) Register(ctx context.Context, req models.RegisterRequest, ip string) (*models.AuthResponse, error) {
	if err := models.Validate(req); err != nil {
		return nil, invalidRequest(err.Error(), err)
	}
	role, err := lifecycle.ParseRole(req.Role)
	if err != nil {
		return nil, invalidRequest(err.Error(), err)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, internal("Failed to register user", err)
	}

	u := &models.User{
		Email:          req.Email,
		PasswordHash:   hash,
		FullName:       req.FullName,
		Role:           role,
		University:     req.University,
		EducationLevel: req.EducationLevel,
		ResumeURL:      req.ResumeURL,
		CompanyName:    req.CompanyName,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, conflict("Email is already registered", err)
		}
		return nil, internal("Failed to register user", err)
	}

	s.recordAudit(ctx, Actor{UserID: u.ID, Role: u.Role, IP: ip}, store.AuditUserRegistered, "USER", u.ID, nil)
	s.logger.Info("user registered", map[string]interface{}{"user_id": u.ID, "role": string(u.Role)})

	return s.signIn(ctx, u)
}

// Login checks credentials and issues a token pair
func (s *Service) Login(ctx context.Context, req models.LoginRequest, ip string) (*models.AuthResponse, error) {
	if err := models.Validate(req); err != nil {
		return nil, invalidRequest(err.Error(), err)
	}

	u, err := s.users.GetByEmail(ctx, req.Email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, unauthorized("Invalid email or password")
	}
	if err != nil {
		return nil, internal("Failed to log in", err)
	}
	if err := auth.CheckPassword(u.PasswordHash, req.Password); err != nil {
		return nil, unauthorized("Invalid email or password")
	}

	s.recordAudit(ctx, Actor{UserID: u.ID, Role: u.Role, IP: ip}, store.AuditUserLoggedIn, "USER", u.ID, nil)
	return s.signIn(ctx, u)
}

// Refresh exchanges a refresh token for a new token pair. The presented
// refresh token is consumed.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*models.AuthResponse, error) {
	if refreshToken == "" {
		return nil, invalidRequest("refreshToken: is required", nil)
	}

	userID, err := s.tokens.Rotate(ctx, refreshToken)
	if errors.Is(err, auth.ErrRefreshNotFound) {
		return nil, unauthorized("Refresh token is invalid or expired")
	}
	if err != nil {
		return nil, internal("Failed to refresh session", err)
	}

	u, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, unauthorized("Refresh token is invalid or expired")
	}
	if err != nil {
		return nil, internal("Failed to refresh session", err)
	}

	return s.signIn(ctx, u)
}

// Logout revokes the refresh token and the access token in claims
func (s *Service) Logout(ctx context.Context, refreshToken string, claims *auth.Claims) error {
	if err := s.tokens.Revoke(ctx, refreshToken, claims); err != nil {
		return internal("Failed to log out", err)
	}
	return nil
}

// Authenticate resolves a bearer token to an actor
func (s *Service) Authenticate(ctx context.Context, token, ip string) (Actor, *auth.Claims, error) {
	claims, err := s.tokens.Authenticate(ctx, token)
	if errors.Is(err, auth.ErrInvalidToken) {
		return Actor{}, nil, unauthorized("Invalid or expired token")
	}
	if err != nil {
		return Actor{}, nil, internal("Failed to authenticate", err)
	}
	return Actor{UserID: claims.Subject, Role: claims.Role, IP: ip}, claims, nil
}

func (s *Service) signIn(ctx context.Context, u *models.User) (*models.AuthResponse, error) {
	pair, err := s.tokens.Issue(ctx, u.ID, u.Role)
	if err != nil {
		return nil, internal("Failed to issue tokens", err)
	}
	return &models.AuthResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.ExpiresAt,
		User: models.UserInfo{
			ID:       u.ID,
			Email:    u.Email,
			FullName: u.FullName,
			Role:     u.Role,
		},
	}, nil
}
