package service

import (
	"context"
	"errors"

	"github.com/sorenmh/nextintern/internal/internd/models"
	"github.com/sorenmh/nextintern/internal/internd/store"
	"github.com/sorenmh/nextintern/internal/lifecycle"
)

// CreateInternship publishes a new internship owned by the calling provider
func (s *Service) CreateInternship(ctx context.Context, actor Actor, req models.CreateInternshipRequest) (*models.Internship, error) {
	if actor.Role != lifecycle.RoleProvider {
		return nil, forbidden("Only providers can create internships")
	}
	if err := models.Validate(req); err != nil {
		return nil, invalidRequest(err.Error(), err)
	}
	if req.ApplicationDeadline != nil && !req.ApplicationDeadline.After(s.now()) {
		return nil, invalidRequest("applicationDeadline: must be in the future", nil)
	}

	in := &models.Internship{
		ProviderID:          actor.UserID,
		Title:               req.Title,
		CompanyName:         req.CompanyName,
		Description:         req.Description,
		ApplicationDeadline: req.ApplicationDeadline,
		MaxApplicants:       req.MaxApplicants,
	}
	if err := s.internships.Create(ctx, in); err != nil {
		return nil, internal("Failed to create internship", err)
	}

	s.recordAudit(ctx, actor, store.AuditInternshipCreated, "INTERNSHIP", in.ID, map[string]interface{}{"title": in.Title})
	return in, nil
}

// GetInternship returns one internship
func (s *Service) GetInternship(ctx context.Context, id string) (*models.Internship, error) {
	in, err := s.internships.GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, notFound("Internship not found", err)
	}
	if err != nil {
		return nil, internal("Failed to get internship", err)
	}
	return in, nil
}

// ListInternships lists the internships that are open for applications
func (s *Service) ListInternships(ctx context.Context, page, size int) (*models.Page[models.Internship], error) {
	internships, total, err := s.internships.ListByStatus(ctx, models.InternshipActive, size, page*size)
	if err != nil {
		return nil, internal("Failed to list internships", err)
	}
	p := models.NewPage(internships, page, size, total)
	return &p, nil
}

// ListMyInternships lists every internship the calling provider posted,
// closed ones included
func (s *Service) ListMyInternships(ctx context.Context, actor Actor, page, size int) (*models.Page[models.Internship], error) {
	if actor.Role != lifecycle.RoleProvider {
		return nil, forbidden("Only providers have internships")
	}

	internships, total, err := s.internships.ListByProvider(ctx, actor.UserID, size, page*size)
	if err != nil {
		return nil, internal("Failed to list internships", err)
	}
	p := models.NewPage(internships, page, size, total)
	return &p, nil
}

// SetInternshipStatus closes an internship to new applications or reopens
// it. Only the owning provider may do this; existing applications keep
// their status.
func (s *Service) SetInternshipStatus(ctx context.Context, actor Actor, id string, req models.UpdateInternshipStatusRequest) (*models.Internship, error) {
	if err := models.Validate(req); err != nil {
		return nil, invalidRequest(err.Error(), err)
	}

	in, err := s.GetInternship(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Viewer().Owns(in.ProviderID) {
		return nil, forbidden("Only the provider that owns this internship can change its status")
	}
	if in.Status == req.Status {
		return in, nil
	}

	err = s.internships.SetStatus(ctx, in.ID, req.Status)
	if errors.Is(err, store.ErrNotFound) {
		return nil, notFound("Internship not found", err)
	}
	if err != nil {
		return nil, internal("Failed to update internship", err)
	}

	s.recordAudit(ctx, actor, store.AuditInternshipStatusChanged, "INTERNSHIP", in.ID, map[string]interface{}{
		"from": in.Status,
		"to":   req.Status,
	})
	s.logger.Info("internship status changed", map[string]interface{}{
		"internship_id": in.ID,
		"from":          in.Status,
		"to":            req.Status,
	})
	return s.GetInternship(ctx, in.ID)
}
