// Package service holds internd's business rules on top of the stores.
package service

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sorenmh/nextintern/internal/internd/auth"
	"github.com/sorenmh/nextintern/internal/internd/events"
	"github.com/sorenmh/nextintern/internal/internd/metrics"
	"github.com/sorenmh/nextintern/internal/internd/store"
	"github.com/sorenmh/nextintern/internal/lifecycle"
	"github.com/sorenmh/nextintern/internal/logging"
)

// Actor is the authenticated caller of a service operation
type Actor struct {
	UserID string
	Role   lifecycle.Role
	IP     string
}

// Viewer returns the lifecycle view of the actor
func (a Actor) Viewer() lifecycle.Viewer {
	return lifecycle.Viewer{UserID: a.UserID, Role: a.Role}
}

// Service implements internd's operations
type Service struct {
	users        *store.UserStore
	internships  *store.InternshipStore
	applications *store.ApplicationStore
	audit        *store.AuditStore
	tokens       *auth.Manager
	events       events.Publisher
	metrics      *metrics.Metrics
	logger       logging.Logger
	now          func() time.Time
}

// New creates a service. m may be nil.
func New(db *sqlx.DB, tokens *auth.Manager, publisher events.Publisher, m *metrics.Metrics, logger logging.Logger) *Service {
	return &Service{
		users:        store.NewUserStore(db),
		internships:  store.NewInternshipStore(db),
		applications: store.NewApplicationStore(db),
		audit:        store.NewAuditStore(db),
		tokens:       tokens,
		events:       publisher,
		metrics:      m,
		logger:       logger,
		now:          time.Now,
	}
}

// recordAudit writes an audit entry; failures are logged only
func (s *Service) recordAudit(ctx context.Context, actor Actor, action, targetType, targetID string, details map[string]interface{}) {
	if err := s.audit.Record(ctx, actor.UserID, action, targetType, targetID, actor.IP, details); err != nil {
		s.logger.WithError(err).Error("failed to write audit log", map[string]interface{}{
			"action":    action,
			"target_id": targetID,
		})
	}
}

// publish emits an application event after a successful write. A failed
// publish is logged and never fails the caller.
func (s *Service) publish(ctx context.Context, applicationID, internshipID, studentID, eventType string, status lifecycle.Status) {
	event := events.ApplicationEvent{
		ApplicationID: applicationID,
		InternshipID:  internshipID,
		StudentID:     studentID,
		EventType:     eventType,
		NewStatus:     status,
		Timestamp:     s.now().UTC(),
		TraceID:       events.TraceID(ctx),
	}

	err := s.events.Publish(ctx, event)
	if s.metrics != nil {
		s.metrics.ObservePublish(eventType, err)
	}
	if err != nil {
		s.logger.WithError(err).Warn("failed to publish application event", map[string]interface{}{
			"event_type":     eventType,
			"application_id": applicationID,
		})
	}
}
