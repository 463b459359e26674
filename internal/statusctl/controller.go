// Package statusctl is the application status controller. It keeps a local
// view of the applications a viewer is looking at, computes which actions
// the viewer may take, and performs transitions optimistically: the local
// view changes first and is restored if the backend does not confirm.
package statusctl

import (
	"context"
	"fmt"
	"sync"

	"github.com/sorenmh/nextintern/internal/internctl/client"
	"github.com/sorenmh/nextintern/internal/lifecycle"
	"github.com/sorenmh/nextintern/internal/logging"
	"github.com/sorenmh/nextintern/internal/session"
)

// Backend is the subset of the internd API the controller drives.
type Backend interface {
	ListInternshipApplications(ctx context.Context, internshipID string, page, size int) (*client.ApplicationPage, error)
	ListMyApplications(ctx context.Context, page, size int) (*client.ApplicationPage, error)
	UpdateApplicationStatus(ctx context.Context, applicationID string, status lifecycle.Status) (*client.Application, error)
}

// Sessions supplies the current viewer.
type Sessions interface {
	Current() (session.Session, bool)
}

// Controller tracks application statuses for one viewer.
type Controller struct {
	backend  Backend
	sessions Sessions
	logger   logging.Logger

	mu       sync.Mutex
	apps     map[string]*client.Application
	inFlight map[string]*Pending
}

// New creates a Controller.
func New(backend Backend, sessions Sessions, logger logging.Logger) *Controller {
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	return &Controller{
		backend:  backend,
		sessions: sessions,
		logger:   logger,
		apps:     make(map[string]*client.Application),
		inFlight: make(map[string]*Pending),
	}
}

// ListForInternship fetches a page of applications for an internship and
// merges it into the local view.
func (c *Controller) ListForInternship(ctx context.Context, internshipID string, page, size int) (*client.ApplicationPage, error) {
	if _, ok := c.sessions.Current(); !ok {
		return nil, session.ErrNoSession
	}

	p, err := c.backend.ListInternshipApplications(ctx, internshipID, page, size)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications for internship %s: %w", internshipID, classifyWrap(err))
	}
	c.merge(p.Content)
	return c.snapshot(p), nil
}

// ListMine fetches a page of the current student's applications and merges
// it into the local view.
func (c *Controller) ListMine(ctx context.Context, page, size int) (*client.ApplicationPage, error) {
	if _, ok := c.sessions.Current(); !ok {
		return nil, session.ErrNoSession
	}

	p, err := c.backend.ListMyApplications(ctx, page, size)
	if err != nil {
		return nil, fmt.Errorf("failed to list my applications: %w", classifyWrap(err))
	}
	c.merge(p.Content)
	return c.snapshot(p), nil
}

// merge stores fetched records. Entries with a pending transition keep
// their optimistic status until it resolves.
func (c *Controller) merge(apps []client.Application) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range apps {
		app := apps[i]
		if pending, ok := c.inFlight[app.ID]; ok {
			app.Status = pending.Target
		}
		c.apps[app.ID] = &app
	}
}

// snapshot returns p with each entry replaced by the local view.
func (c *Controller) snapshot(p *client.ApplicationPage) *client.ApplicationPage {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := *p
	out.Content = make([]client.Application, 0, len(p.Content))
	for _, app := range p.Content {
		if local, ok := c.apps[app.ID]; ok {
			out.Content = append(out.Content, *local)
			continue
		}
		out.Content = append(out.Content, app)
	}
	return &out
}

// Application returns the locally observed record.
func (c *Controller) Application(applicationID string) (client.Application, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	app, ok := c.apps[applicationID]
	if !ok {
		return client.Application{}, false
	}
	return *app, true
}

// Status returns the locally observed status.
func (c *Controller) Status(applicationID string) (lifecycle.Status, bool) {
	app, ok := c.Application(applicationID)
	return app.Status, ok
}

// Actions returns the actions the current viewer may take on an application.
// While a transition is pending no actions are offered.
func (c *Controller) Actions(applicationID string) []lifecycle.Action {
	s, ok := c.sessions.Current()
	if !ok {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	app, ok := c.apps[applicationID]
	if !ok {
		return nil
	}
	if _, busy := c.inFlight[applicationID]; busy {
		return nil
	}
	return lifecycle.ActionsFor(s.Viewer(), app.Internship.ProviderID, app.Status)
}

// Perform runs an action through RequestTransition.
func (c *Controller) Perform(ctx context.Context, applicationID string, action lifecycle.Action) (*client.Application, error) {
	target := action.Target()
	if target == "" {
		prior, _ := c.Status(applicationID)
		return nil, &TransitionError{
			ApplicationID: applicationID,
			Prior:         prior,
			Kind:          ErrInvalidTransition,
			Err:           fmt.Errorf("unknown action %q", action),
		}
	}
	return c.RequestTransition(ctx, applicationID, target)
}

// RequestTransition moves an application to target. The local view is
// updated before the backend is called and restored if the backend rejects
// the change or cannot be reached. Failures are returned as *TransitionError
// and match ErrPermission, ErrInvalidTransition, ErrNotFound, ErrTransport or
// ErrTransitionInFlight with errors.Is. Nothing is retried.
func (c *Controller) RequestTransition(ctx context.Context, applicationID string, target lifecycle.Status) (*client.Application, error) {
	pending, err := c.Begin(applicationID, target)
	if err != nil {
		return nil, err
	}

	log := c.logger.WithFields(map[string]interface{}{
		"application_id": applicationID,
		"from":           pending.Prior.String(),
		"to":             target.String(),
	})
	log.Debug("status transition requested", nil)

	confirmed, err := c.backend.UpdateApplicationStatus(ctx, applicationID, target)
	if err != nil {
		pending.Rollback()
		kind := classify(err)
		log.WithError(err).Warn("status transition rolled back", map[string]interface{}{
			"reason": kind.Error(),
		})
		return nil, &TransitionError{
			ApplicationID: applicationID,
			Prior:         pending.Prior,
			Target:        target,
			Kind:          kind,
			Err:           err,
		}
	}

	app := pending.Commit(confirmed)
	log.Info("status transition confirmed", nil)
	return &app, nil
}

func classifyWrap(err error) error {
	return &wrapped{kind: classify(err), err: err}
}

type wrapped struct {
	kind error
	err  error
}

func (w *wrapped) Error() string   { return fmt.Sprintf("%v: %v", w.kind, w.err) }
func (w *wrapped) Unwrap() []error { return []error{w.kind, w.err} }
