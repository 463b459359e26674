package models

import (
	"time"

	"github.com/sorenmh/nextintern/internal/lifecycle"
)

// Internship statuses
const (
	InternshipActive = "active"
	InternshipClosed = "closed"
)

// User represents an account. Student profile fields are empty for providers
// and CompanyName is empty for students.
type User struct {
	ID             string         `db:"id" json:"id"`
	Email          string         `db:"email" json:"email"`
	PasswordHash   string         `db:"password_hash" json:"-"`
	FullName       string         `db:"full_name" json:"fullName"`
	Role           lifecycle.Role `db:"role" json:"role"`
	University     string         `db:"university" json:"university,omitempty"`
	EducationLevel string         `db:"education_level" json:"educationLevel,omitempty"`
	ResumeURL      string         `db:"resume_url" json:"resumeUrl,omitempty"`
	CompanyName    string         `db:"company_name" json:"companyName,omitempty"`
	CreatedAt      time.Time      `db:"created_at" json:"createdAt"`
}

// Internship represents a posting owned by a provider user
type Internship struct {
	ID                  string     `db:"id" json:"id"`
	ProviderID          string     `db:"provider_id" json:"providerId"`
	Title               string     `db:"title" json:"title"`
	CompanyName         string     `db:"company_name" json:"companyName"`
	Description         string     `db:"description" json:"description,omitempty"`
	Status              string     `db:"status" json:"status"`
	ApplicationDeadline *time.Time `db:"application_deadline" json:"applicationDeadline,omitempty"`
	MaxApplicants       *int       `db:"max_applicants" json:"maxApplicants,omitempty"`
	CreatedAt           time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updatedAt"`
}

// Application is one student's submission to one internship
type Application struct {
	ID           string           `db:"id" json:"id"`
	InternshipID string           `db:"internship_id" json:"internshipId"`
	StudentID    string           `db:"student_id" json:"studentId"`
	Status       lifecycle.Status `db:"status" json:"status"`
	CoverNote    string           `db:"cover_note" json:"coverNote,omitempty"`
	AppliedAt    time.Time        `db:"applied_at" json:"appliedAt"`
	UpdatedAt    time.Time        `db:"updated_at" json:"updatedAt"`
}

// StatusChange is one entry in an application's status history
type StatusChange struct {
	Status    lifecycle.Status `db:"status" json:"status"`
	Timestamp time.Time        `db:"created_at" json:"timestamp"`
	Reason    string           `db:"reason" json:"reason"`
}

// ApplicantInfo is the student summary shown with an application
type ApplicantInfo struct {
	ID             string `json:"id"`
	FullName       string `json:"fullName"`
	Email          string `json:"email"`
	ResumeURL      string `json:"resumeUrl,omitempty"`
	EducationLevel string `json:"educationLevel,omitempty"`
	University     string `json:"university,omitempty"`
}

// InternshipInfo is the internship summary shown with an application
type InternshipInfo struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	CompanyName string `json:"companyName"`
	ProviderID  string `json:"providerId"`
}

// ApplicationView is the API representation of an application
type ApplicationView struct {
	ID            string           `json:"id"`
	Status        lifecycle.Status `json:"status"`
	CoverNote     string           `json:"coverNote,omitempty"`
	AppliedAt     time.Time        `json:"appliedAt"`
	Student       ApplicantInfo    `json:"student"`
	Internship    InternshipInfo   `json:"internship"`
	StatusHistory []StatusChange   `json:"statusHistory,omitempty"`
}

// AuditEntry records who did what to which record
type AuditEntry struct {
	ID         string    `db:"id" json:"id"`
	ActorID    string    `db:"actor_id" json:"actorId"`
	Action     string    `db:"action" json:"action"`
	TargetType string    `db:"target_type" json:"targetType"`
	TargetID   string    `db:"target_id" json:"targetId"`
	Details    string    `db:"details" json:"details,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ipAddress,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// Page is one page of a listing
type Page[T any] struct {
	Content       []T `json:"content"`
	Page          int `json:"page"`
	Size          int `json:"size"`
	TotalElements int `json:"totalElements"`
	TotalPages    int `json:"totalPages"`
}

// NewPage builds a Page from a slice and the total row count
func NewPage[T any](content []T, page, size, total int) Page[T] {
	if content == nil {
		content = []T{}
	}
	pages := 0
	if size > 0 {
		pages = (total + size - 1) / size
	}
	return Page[T]{
		Content:       content,
		Page:          page,
		Size:          size,
		TotalElements: total,
		TotalPages:    pages,
	}
}

// HealthResponse is the response for the health check endpoint
type HealthResponse struct {
	Status             string `json:"status"`
	Version            string `json:"version"`
	DatabaseAccessible bool   `json:"databaseAccessible"`
	RedisAccessible    *bool  `json:"redisAccessible,omitempty"`
}
