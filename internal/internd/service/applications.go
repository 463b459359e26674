package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sorenmh/nextintern/internal/internd/events"
	"github.com/sorenmh/nextintern/internal/internd/models"
	"github.com/sorenmh/nextintern/internal/internd/store"
	"github.com/sorenmh/nextintern/internal/lifecycle"
)

// Status history reasons
const (
	reasonApplied   = "application submitted"
	reasonWithdrawn = "withdrawn by student"
	reasonProvider  = "updated by provider"
)

// Apply submits the calling student's application to an internship
func (s *Service) Apply(ctx context.Context, actor Actor, internshipID string, req models.ApplyRequest) (*models.ApplicationView, error) {
	if actor.Role != lifecycle.RoleStudent {
		return nil, forbidden("Only students can apply to internships")
	}
	if err := models.Validate(req); err != nil {
		return nil, invalidRequest(err.Error(), err)
	}

	in, err := s.GetInternship(ctx, internshipID)
	if err != nil {
		return nil, err
	}
	if in.Status != models.InternshipActive {
		return nil, conflict("Internship is not accepting applications", nil)
	}
	if in.ApplicationDeadline != nil && s.now().After(*in.ApplicationDeadline) {
		return nil, conflict("Application deadline has passed", nil)
	}
	if in.MaxApplicants != nil {
		n, err := s.internships.CountActiveApplications(ctx, in.ID)
		if err != nil {
			return nil, internal("Failed to apply", err)
		}
		if n >= *in.MaxApplicants {
			return nil, conflict("Internship has reached its maximum number of applicants", nil)
		}
	}

	existing, err := s.applications.GetByStudentAndInternship(ctx, actor.UserID, in.ID)
	switch {
	case err == nil && existing.Status == lifecycle.StatusWithdrawn:
		return nil, conflict("You withdrew from this internship and cannot apply again", nil)
	case err == nil:
		return nil, conflict("You have already applied to this internship", nil)
	case !errors.Is(err, store.ErrNotFound):
		return nil, internal("Failed to apply", err)
	}

	app := &models.Application{InternshipID: in.ID, StudentID: actor.UserID, CoverNote: req.CoverNote}
	if err := s.applications.Create(ctx, app, reasonApplied); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, conflict("You have already applied to this internship", err)
		}
		return nil, internal("Failed to apply", err)
	}

	if s.metrics != nil {
		s.metrics.ApplicationsCreated.Inc()
	}
	s.recordAudit(ctx, actor, store.AuditApplicationCreated, "APPLICATION", app.ID, map[string]interface{}{
		"internship_id": in.ID,
	})
	s.publish(ctx, app.ID, app.InternshipID, app.StudentID, events.ApplicationCreated, app.Status)

	return s.view(ctx, app.ID)
}

// Withdraw moves the calling student's application for an internship to
// withdrawn. Withdrawing an application that already reached a terminal
// status changes nothing.
func (s *Service) Withdraw(ctx context.Context, actor Actor, internshipID string) error {
	if actor.Role != lifecycle.RoleStudent {
		return forbidden("Only students can withdraw applications")
	}

	app, err := s.applications.GetByStudentAndInternship(ctx, actor.UserID, internshipID)
	if errors.Is(err, store.ErrNotFound) {
		return notFound("Application not found", err)
	}
	if err != nil {
		return internal("Failed to withdraw application", err)
	}
	if app.Status.IsTerminal() {
		return nil
	}

	err = s.applications.UpdateStatus(ctx, app.ID, app.Status, lifecycle.StatusWithdrawn, reasonWithdrawn, actor.UserID)
	if errors.Is(err, store.ErrStaleStatus) {
		// lost a race with the provider; terminal now means nothing to do
		current, getErr := s.applications.GetByID(ctx, app.ID)
		if getErr == nil && current.Status.IsTerminal() {
			return nil
		}
		return invalidTransition("Application status changed, try again", err)
	}
	if err != nil {
		return internal("Failed to withdraw application", err)
	}

	s.recordAudit(ctx, actor, store.AuditApplicationWithdrawn, "APPLICATION", app.ID, map[string]interface{}{
		"from": app.Status.String(),
	})
	s.publish(ctx, app.ID, app.InternshipID, app.StudentID, events.StatusChanged, lifecycle.StatusWithdrawn)
	return nil
}

// UpdateStatus applies a provider decision to an application and returns the
// updated record
func (s *Service) UpdateStatus(ctx context.Context, actor Actor, applicationID string, target lifecycle.Status) (view *models.ApplicationView, err error) {
	if s.metrics != nil {
		defer func() { s.metrics.ObserveTransition(target.String(), err) }()
	}

	app, err := s.applications.GetByID(ctx, applicationID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, notFound("Application not found", err)
	}
	if err != nil {
		return nil, internal("Failed to update application", err)
	}

	in, err := s.internships.GetByID(ctx, app.InternshipID)
	if err != nil {
		return nil, internal("Failed to update application", err)
	}
	if !actor.Viewer().Owns(in.ProviderID) {
		return nil, forbidden("Only the provider that owns this internship can change application status")
	}

	if !target.Valid() || target == lifecycle.StatusWithdrawn || !lifecycle.CanTransition(app.Status, target) {
		return nil, invalidTransition(fmt.Sprintf("Cannot move application from %s to %s", app.Status, target), nil)
	}

	err = s.applications.UpdateStatus(ctx, app.ID, app.Status, target, reasonProvider, actor.UserID)
	if errors.Is(err, store.ErrStaleStatus) {
		return nil, invalidTransition("Application status changed concurrently", err)
	}
	if err != nil {
		return nil, internal("Failed to update application", err)
	}

	s.recordAudit(ctx, actor, store.AuditApplicationStatusChanged, "APPLICATION", app.ID, map[string]interface{}{
		"from": app.Status.String(),
		"to":   target.String(),
	})
	s.publish(ctx, app.ID, app.InternshipID, app.StudentID, events.StatusChanged, target)

	return s.view(ctx, app.ID)
}

// ListForInternship lists an internship's applications for its owning provider
func (s *Service) ListForInternship(ctx context.Context, actor Actor, internshipID string, page, size int) (*models.Page[models.ApplicationView], error) {
	in, err := s.GetInternship(ctx, internshipID)
	if err != nil {
		return nil, err
	}
	if !actor.Viewer().Owns(in.ProviderID) {
		return nil, forbidden("Only the provider that owns this internship can list its applications")
	}

	views, total, err := s.applications.ListByInternship(ctx, in.ID, size, page*size)
	if err != nil {
		return nil, internal("Failed to list applications", err)
	}
	p := models.NewPage(views, page, size, total)
	return &p, nil
}

// ListMine lists the calling student's applications
func (s *Service) ListMine(ctx context.Context, actor Actor, page, size int) (*models.Page[models.ApplicationView], error) {
	if actor.Role != lifecycle.RoleStudent {
		return nil, forbidden("Only students have applications")
	}

	views, total, err := s.applications.ListByStudent(ctx, actor.UserID, size, page*size)
	if err != nil {
		return nil, internal("Failed to list applications", err)
	}
	p := models.NewPage(views, page, size, total)
	return &p, nil
}

func (s *Service) view(ctx context.Context, id string) (*models.ApplicationView, error) {
	v, err := s.applications.GetView(ctx, id)
	if err != nil {
		return nil, internal("Failed to load application", err)
	}
	return v, nil
}
