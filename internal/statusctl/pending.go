package statusctl

import (
	"github.com/sorenmh/nextintern/internal/internctl/client"
	"github.com/sorenmh/nextintern/internal/lifecycle"
)

// Pending is a tentative status change. The local view already shows
// Target; exactly one of Commit or Rollback settles it.
type Pending struct {
	ApplicationID string
	Prior         lifecycle.Status
	Target        lifecycle.Status

	c       *Controller
	settled bool
}

// Begin validates a transition against the local view and the current
// viewer, then applies it tentatively.
func (c *Controller) Begin(applicationID string, target lifecycle.Status) (*Pending, error) {
	fail := func(prior lifecycle.Status, kind error) (*Pending, error) {
		return nil, &TransitionError{ApplicationID: applicationID, Prior: prior, Target: target, Kind: kind}
	}

	s, ok := c.sessions.Current()
	if !ok {
		return fail("", ErrPermission)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	app, ok := c.apps[applicationID]
	if !ok {
		return fail("", ErrNotFound)
	}
	if _, busy := c.inFlight[applicationID]; busy {
		return fail(app.Status, ErrTransitionInFlight)
	}

	viewer := s.Viewer()
	if !viewer.Owns(app.Internship.ProviderID) {
		return fail(app.Status, ErrPermission)
	}
	if !offered(lifecycle.ActionsFor(viewer, app.Internship.ProviderID, app.Status), target) {
		return fail(app.Status, ErrInvalidTransition)
	}

	p := &Pending{
		ApplicationID: applicationID,
		Prior:         app.Status,
		Target:        target,
		c:             c,
	}
	app.Status = target
	c.inFlight[applicationID] = p
	return p, nil
}

func offered(actions []lifecycle.Action, target lifecycle.Status) bool {
	for _, a := range actions {
		if a.Target() == target {
			return true
		}
	}
	return false
}

// Commit settles the change as confirmed. A non-nil confirmed record
// replaces the local copy. It returns the resulting local record.
func (p *Pending) Commit(confirmed *client.Application) client.Application {
	c := p.c
	c.mu.Lock()
	defer c.mu.Unlock()

	app := c.apps[p.ApplicationID]
	if p.settled {
		return *app
	}
	p.settled = true
	delete(c.inFlight, p.ApplicationID)

	if confirmed != nil {
		next := *confirmed
		if next.Internship.ProviderID == "" {
			next.Internship = app.Internship
		}
		if next.Student.ID == "" {
			next.Student = app.Student
		}
		c.apps[p.ApplicationID] = &next
		return next
	}
	return *app
}

// Rollback restores the status observed before Begin.
func (p *Pending) Rollback() {
	c := p.c
	c.mu.Lock()
	defer c.mu.Unlock()

	if p.settled {
		return
	}
	p.settled = true
	delete(c.inFlight, p.ApplicationID)

	if app, ok := c.apps[p.ApplicationID]; ok {
		app.Status = p.Prior
	}
}
