package models

import (
	"time"

	"github.com/sorenmh/nextintern/internal/lifecycle"
)

// MaxCoverNoteLength bounds the free-text cover note
const MaxCoverNoteLength = 500

// ApplyRequest is the body of POST /internships/{id}/apply
type ApplyRequest struct {
	CoverNote string `json:"coverNote" validate:"max=500"`
}

// UpdateStatusRequest is the body of PATCH /applications/{id}/status
type UpdateStatusRequest struct {
	Status lifecycle.Status `json:"status" validate:"required,app_status"`
}

// CreateInternshipRequest is the body of POST /internships
type CreateInternshipRequest struct {
	Title               string     `json:"title" validate:"required,max=200"`
	CompanyName         string     `json:"companyName" validate:"required,max=200"`
	Description         string     `json:"description" validate:"max=5000"`
	ApplicationDeadline *time.Time `json:"applicationDeadline"`
	MaxApplicants       *int       `json:"maxApplicants" validate:"omitempty,min=1"`
}

// UpdateInternshipStatusRequest is the body of PATCH /internships/{id}/status
type UpdateInternshipStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active closed"`
}

// RegisterRequest is the body of POST /auth/register
type RegisterRequest struct {
	Email          string `json:"email" validate:"required,email,max=254"`
	Password       string `json:"password" validate:"required,min=8,max=128"`
	FullName       string `json:"fullName" validate:"required,max=200"`
	Role           string `json:"role" validate:"required,account_role"`
	University     string `json:"university" validate:"max=200"`
	EducationLevel string `json:"educationLevel" validate:"max=100"`
	ResumeURL      string `json:"resumeUrl" validate:"omitempty,url"`
	CompanyName    string `json:"companyName" validate:"max=200"`
}

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest is the body of POST /auth/refresh and /auth/logout
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// AuthResponse is returned by register, login and refresh
type AuthResponse struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
	User         UserInfo  `json:"user"`
}

// UserInfo is the public part of a User
type UserInfo struct {
	ID       string         `json:"id"`
	Email    string         `json:"email"`
	FullName string         `json:"fullName"`
	Role     lifecycle.Role `json:"role"`
}
