package client

import (
	"time"

	"github.com/sorenmh/nextintern/internal/lifecycle"
)

// ApplicantInfo is the student summary embedded in an application
type ApplicantInfo struct {
	ID             string `json:"id"`
	FullName       string `json:"fullName"`
	Email          string `json:"email"`
	ResumeURL      string `json:"resumeUrl,omitempty"`
	EducationLevel string `json:"educationLevel,omitempty"`
	University     string `json:"university,omitempty"`
}

// InternshipInfo is the internship summary embedded in an application
type InternshipInfo struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	CompanyName string `json:"companyName"`
	ProviderID  string `json:"providerId"`
}

// StatusChange is one entry of an application's status history
type StatusChange struct {
	Status    lifecycle.Status `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	Reason    string           `json:"reason"`
}

// Application represents an internship application
type Application struct {
	ID            string           `json:"id"`
	Status        lifecycle.Status `json:"status"`
	CoverNote     string           `json:"coverNote,omitempty"`
	AppliedAt     time.Time        `json:"appliedAt"`
	Student       ApplicantInfo    `json:"student"`
	Internship    InternshipInfo   `json:"internship"`
	StatusHistory []StatusChange   `json:"statusHistory,omitempty"`
}

// ApplicationPage is one page of applications
type ApplicationPage struct {
	Content       []Application `json:"content"`
	Page          int           `json:"page"`
	Size          int           `json:"size"`
	TotalElements int           `json:"totalElements"`
	TotalPages    int           `json:"totalPages"`
}

// Internship represents an internship posting
type Internship struct {
	ID                  string     `json:"id"`
	ProviderID          string     `json:"providerId"`
	Title               string     `json:"title"`
	CompanyName         string     `json:"companyName"`
	Description         string     `json:"description,omitempty"`
	Status              string     `json:"status"`
	ApplicationDeadline *time.Time `json:"applicationDeadline,omitempty"`
	MaxApplicants       *int       `json:"maxApplicants,omitempty"`
	CreatedAt           time.Time  `json:"createdAt"`
}

// InternshipPage is one page of internships
type InternshipPage struct {
	Content       []Internship `json:"content"`
	Page          int          `json:"page"`
	Size          int          `json:"size"`
	TotalElements int          `json:"totalElements"`
	TotalPages    int          `json:"totalPages"`
}

// AuditEntry is one audit log record
type AuditEntry struct {
	ID         string    `json:"id"`
	ActorID    string    `json:"actorId"`
	Action     string    `json:"action"`
	TargetType string    `json:"targetType"`
	TargetID   string    `json:"targetId"`
	Details    string    `json:"details,omitempty"`
	IPAddress  string    `json:"ipAddress,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// AuditPage is one page of the audit log
type AuditPage struct {
	Content       []AuditEntry `json:"content"`
	Page          int          `json:"page"`
	Size          int          `json:"size"`
	TotalElements int          `json:"totalElements"`
	TotalPages    int          `json:"totalPages"`
}

// CreateInternshipRequest is the request body for posting an internship
type CreateInternshipRequest struct {
	Title               string     `json:"title"`
	CompanyName         string     `json:"companyName"`
	Description         string     `json:"description,omitempty"`
	ApplicationDeadline *time.Time `json:"applicationDeadline,omitempty"`
	MaxApplicants       *int       `json:"maxApplicants,omitempty"`
}

// UserInfo describes the authenticated account
type UserInfo struct {
	ID       string         `json:"id"`
	Email    string         `json:"email"`
	FullName string         `json:"fullName"`
	Role     lifecycle.Role `json:"role"`
}

// AuthResponse is returned by login, register and refresh
type AuthResponse struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
	User         UserInfo  `json:"user"`
}

// RegisterRequest is the request body for creating an account
type RegisterRequest struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	FullName       string `json:"fullName"`
	Role           string `json:"role"`
	University     string `json:"university,omitempty"`
	EducationLevel string `json:"educationLevel,omitempty"`
	ResumeURL      string `json:"resumeUrl,omitempty"`
	CompanyName    string `json:"companyName,omitempty"`
}
