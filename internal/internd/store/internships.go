package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sorenmh/nextintern/internal/internd/models"
	"github.com/sorenmh/nextintern/internal/lifecycle"
)

// InternshipStore handles internship database operations
type InternshipStore struct {
	db *sqlx.DB
}

// NewInternshipStore creates a new internship store
func NewInternshipStore(db *sqlx.DB) *InternshipStore {
	return &InternshipStore{db: db}
}

const internshipColumns = `id, provider_id, title, company_name, description, status, application_deadline, max_applicants, created_at, updated_at`

// Create inserts an internship in the active state
func (s *InternshipStore) Create(ctx context.Context, in *models.Internship) error {
	now := time.Now().UTC()
	in.ID = uuid.New().String()
	in.CreatedAt = now
	in.UpdatedAt = now
	if in.Status == "" {
		in.Status = models.InternshipActive
	}

	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO internships (`+internshipColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), in.ID, in.ProviderID, in.Title, in.CompanyName, in.Description, in.Status,
		in.ApplicationDeadline, in.MaxApplicants, in.CreatedAt, in.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create internship: %w", err)
	}
	return nil
}

// GetByID gets an internship by ID
func (s *InternshipStore) GetByID(ctx context.Context, id string) (*models.Internship, error) {
	var in models.Internship
	err := s.db.GetContext(ctx, &in, s.db.Rebind(`SELECT `+internshipColumns+` FROM internships WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("internship %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get internship: %w", err)
	}
	return &in, nil
}

// SetStatus opens or closes an internship
func (s *InternshipStore) SetStatus(ctx context.Context, id, status string) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`UPDATE internships SET status = ?, updated_at = ? WHERE id = ?`),
		status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update internship: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("internship %s: %w", id, ErrNotFound)
	}
	return nil
}

// CountActiveApplications counts applications that still hold a seat
func (s *InternshipStore) CountActiveApplications(ctx context.Context, internshipID string) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, s.db.Rebind(`
		SELECT COUNT(*) FROM applications WHERE internship_id = ? AND status <> ?
	`), internshipID, lifecycle.StatusWithdrawn)
	if err != nil {
		return 0, fmt.Errorf("failed to count applications: %w", err)
	}
	return n, nil
}

// ListByStatus lists internships in the given status, newest first
func (s *InternshipStore) ListByStatus(ctx context.Context, status string, limit, offset int) ([]models.Internship, int, error) {
	return s.list(ctx, "status", status, limit, offset)
}

// ListByProvider lists every internship a provider posted, newest first
func (s *InternshipStore) ListByProvider(ctx context.Context, providerID string, limit, offset int) ([]models.Internship, int, error) {
	return s.list(ctx, "provider_id", providerID, limit, offset)
}

func (s *InternshipStore) list(ctx context.Context, column, value string, limit, offset int) ([]models.Internship, int, error) {
	var total int
	err := s.db.GetContext(ctx, &total, s.db.Rebind(`SELECT COUNT(*) FROM internships WHERE `+column+` = ?`), value)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count internships: %w", err)
	}

	internships := []models.Internship{}
	err = s.db.SelectContext(ctx, &internships, s.db.Rebind(`
		SELECT `+internshipColumns+` FROM internships
		WHERE `+column+` = ?
		ORDER BY created_at DESC, id
		LIMIT ? OFFSET ?
	`), value, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list internships: %w", err)
	}
	return internships, total, nil
}
