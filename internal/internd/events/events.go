// Package events publishes application lifecycle events for downstream
// consumers such as notification senders.
package events

import (
	"context"
	"fmt"
	"time"

	"github.com/sorenmh/nextintern/internal/internd/config"
	"github.com/sorenmh/nextintern/internal/lifecycle"
	"github.com/sorenmh/nextintern/internal/logging"
)

// Event types
const (
	ApplicationCreated = "APPLICATION_CREATED"
	StatusChanged      = "STATUS_CHANGED"
)

// ApplicationEvent is emitted after an application is created or changes status
type ApplicationEvent struct {
	ApplicationID string           `json:"applicationId"`
	InternshipID  string           `json:"internshipId"`
	StudentID     string           `json:"studentId"`
	EventType     string           `json:"eventType"`
	NewStatus     lifecycle.Status `json:"newStatus"`
	Timestamp     time.Time        `json:"timestamp"`
	TraceID       string           `json:"traceId,omitempty"`
}

// Publisher delivers application events
type Publisher interface {
	Publish(ctx context.Context, event ApplicationEvent) error
}

type traceKey struct{}

// WithTraceID returns a context carrying the request trace ID
func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceKey{}, id)
}

// TraceID returns the trace ID stored by WithTraceID, if any
func TraceID(ctx context.Context) string {
	id, _ := ctx.Value(traceKey{}).(string)
	return id
}

// LogPublisher writes events to the log. It is the default when no broker
// is configured.
type LogPublisher struct {
	logger logging.Logger
}

// NewLogPublisher creates a publisher that logs each event
func NewLogPublisher(logger logging.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, event ApplicationEvent) error {
	p.logger.Info("application event", map[string]interface{}{
		"event_type":     event.EventType,
		"application_id": event.ApplicationID,
		"internship_id":  event.InternshipID,
		"student_id":     event.StudentID,
		"new_status":     event.NewStatus.String(),
		"trace_id":       event.TraceID,
	})
	return nil
}

// NewPublisher builds the publisher selected by cfg.Driver
func NewPublisher(ctx context.Context, cfg config.EventsConfig, logger logging.Logger) (Publisher, error) {
	switch cfg.Driver {
	case "", "log":
		return NewLogPublisher(logger), nil
	case "sns":
		return NewSNSPublisher(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported events driver: %s", cfg.Driver)
	}
}
