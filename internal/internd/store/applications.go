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

// ApplicationStore handles application database operations
type ApplicationStore struct {
	db *sqlx.DB
}

// NewApplicationStore creates a new application store
func NewApplicationStore(db *sqlx.DB) *ApplicationStore {
	return &ApplicationStore{db: db}
}

const applicationColumns = `id, internship_id, student_id, status, cover_note, applied_at, updated_at`

// applicationRow is an application joined with its student and internship
type applicationRow struct {
	ID             string           `db:"id"`
	Status         lifecycle.Status `db:"status"`
	CoverNote      string           `db:"cover_note"`
	AppliedAt      time.Time        `db:"applied_at"`
	StudentID      string           `db:"student_id"`
	FullName       string           `db:"full_name"`
	Email          string           `db:"email"`
	ResumeURL      string           `db:"resume_url"`
	EducationLevel string           `db:"education_level"`
	University     string           `db:"university"`
	InternshipID   string           `db:"internship_id"`
	Title          string           `db:"title"`
	CompanyName    string           `db:"company_name"`
	ProviderID     string           `db:"provider_id"`
}

func (r applicationRow) view() models.ApplicationView {
	return models.ApplicationView{
		ID:        r.ID,
		Status:    r.Status,
		CoverNote: r.CoverNote,
		AppliedAt: r.AppliedAt,
		Student: models.ApplicantInfo{
			ID:             r.StudentID,
			FullName:       r.FullName,
			Email:          r.Email,
			ResumeURL:      r.ResumeURL,
			EducationLevel: r.EducationLevel,
			University:     r.University,
		},
		Internship: models.InternshipInfo{
			ID:          r.InternshipID,
			Title:       r.Title,
			CompanyName: r.CompanyName,
			ProviderID:  r.ProviderID,
		},
	}
}

const viewSelect = `
	SELECT a.id, a.status, a.cover_note, a.applied_at,
	       a.student_id, u.full_name, u.email, u.resume_url, u.education_level, u.university,
	       a.internship_id, i.title, i.company_name, i.provider_id
	FROM applications a
	JOIN users u ON u.id = a.student_id
	JOIN internships i ON i.id = a.internship_id
`

// Create inserts an application in the applied state together with its
// first history entry
func (s *ApplicationStore) Create(ctx context.Context, app *models.Application, reason string) error {
	now := time.Now().UTC()
	app.ID = uuid.New().String()
	app.Status = lifecycle.StatusApplied
	app.AppliedAt = now
	app.UpdatedAt = now

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO applications (`+applicationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`), app.ID, app.InternshipID, app.StudentID, app.Status, app.CoverNote, app.AppliedAt, app.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("application for internship %s: %w", app.InternshipID, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	if err := insertHistory(ctx, tx, app.ID, app.Status, reason, app.StudentID, now); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit application: %w", err)
	}
	return nil
}

// GetByID gets an application row by ID
func (s *ApplicationStore) GetByID(ctx context.Context, id string) (*models.Application, error) {
	var app models.Application
	err := s.db.GetContext(ctx, &app, s.db.Rebind(`SELECT `+applicationColumns+` FROM applications WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("application %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	return &app, nil
}

// GetByStudentAndInternship finds the single application a student has for an internship
func (s *ApplicationStore) GetByStudentAndInternship(ctx context.Context, studentID, internshipID string) (*models.Application, error) {
	var app models.Application
	err := s.db.GetContext(ctx, &app, s.db.Rebind(`
		SELECT `+applicationColumns+` FROM applications WHERE student_id = ? AND internship_id = ?
	`), studentID, internshipID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("application: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	return &app, nil
}

// GetView gets the API view of an application including its status history
func (s *ApplicationStore) GetView(ctx context.Context, id string) (*models.ApplicationView, error) {
	var row applicationRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(viewSelect+` WHERE a.id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("application %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get application: %w", err)
	}

	view := row.view()
	view.StatusHistory, err = s.History(ctx, id)
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// UpdateStatus moves an application from one status to another. The update
// only applies if the stored status still equals from; otherwise
// ErrStaleStatus is returned and nothing changes.
func (s *ApplicationStore) UpdateStatus(ctx context.Context, id string, from, to lifecycle.Status, reason, actorID string) error {
	now := time.Now().UTC()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, tx.Rebind(`
		UPDATE applications SET status = ?, updated_at = ? WHERE id = ? AND status = ?
	`), to, now, id, from)
	if err != nil {
		return fmt.Errorf("failed to update application status: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update application status: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("application %s: %w", id, ErrStaleStatus)
	}

	if err := insertHistory(ctx, tx, id, to, reason, actorID, now); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit status update: %w", err)
	}
	return nil
}

// ListByInternship lists applications for an internship, newest first
func (s *ApplicationStore) ListByInternship(ctx context.Context, internshipID string, limit, offset int) ([]models.ApplicationView, int, error) {
	return s.list(ctx, "a.internship_id", internshipID, limit, offset)
}

// ListByStudent lists a student's applications, newest first
func (s *ApplicationStore) ListByStudent(ctx context.Context, studentID string, limit, offset int) ([]models.ApplicationView, int, error) {
	return s.list(ctx, "a.student_id", studentID, limit, offset)
}

func (s *ApplicationStore) list(ctx context.Context, column, value string, limit, offset int) ([]models.ApplicationView, int, error) {
	var total int
	err := s.db.GetContext(ctx, &total, s.db.Rebind(`SELECT COUNT(*) FROM applications a WHERE `+column+` = ?`), value)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count applications: %w", err)
	}

	var rows []applicationRow
	err = s.db.SelectContext(ctx, &rows, s.db.Rebind(viewSelect+`
		WHERE `+column+` = ?
		ORDER BY a.applied_at DESC, a.id
		LIMIT ? OFFSET ?
	`), value, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list applications: %w", err)
	}

	views := make([]models.ApplicationView, 0, len(rows))
	for _, r := range rows {
		views = append(views, r.view())
	}
	return views, total, nil
}

// History returns the status history of an application, oldest first
func (s *ApplicationStore) History(ctx context.Context, applicationID string) ([]models.StatusChange, error) {
	var changes []models.StatusChange
	err := s.db.SelectContext(ctx, &changes, s.db.Rebind(`
		SELECT status, reason, created_at FROM application_status_history
		WHERE application_id = ?
		ORDER BY created_at, id
	`), applicationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get status history: %w", err)
	}
	return changes, nil
}

func insertHistory(ctx context.Context, tx *sqlx.Tx, applicationID string, status lifecycle.Status, reason, actorID string, at time.Time) error {
	_, err := tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO application_status_history (id, application_id, status, reason, changed_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`), uuid.New().String(), applicationID, status, reason, actorID, at)
	if err != nil {
		return fmt.Errorf("failed to record status history: %w", err)
	}
	return nil
}
