package statusctl

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/sorenmh/nextintern/internal/internctl/client"
	"github.com/sorenmh/nextintern/internal/lifecycle"
)

var (
	// ErrPermission means the viewer may not change this application.
	ErrPermission = errors.New("permission denied")
	// ErrInvalidTransition means the target is unreachable from the current status.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrNotFound means the application is unknown locally or to the backend.
	ErrNotFound = errors.New("application not found")
	// ErrTransport means the request did not complete.
	ErrTransport = errors.New("backend unavailable")
	// ErrTransitionInFlight means another transition for the same application
	// has not resolved yet.
	ErrTransitionInFlight = errors.New("transition already in flight")
)

// TransitionError reports a failed transition together with the status the
// local view was restored to.
type TransitionError struct {
	ApplicationID string
	Prior         lifecycle.Status
	Target        lifecycle.Status
	Kind          error
	Err           error
}

func (e *TransitionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("application %s: %s -> %s: %v", e.ApplicationID, e.Prior, e.Target, e.Kind)
	}
	return fmt.Sprintf("application %s: %s -> %s: %v: %v", e.ApplicationID, e.Prior, e.Target, e.Kind, e.Err)
}

func (e *TransitionError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// classify maps a backend or transport failure onto the controller taxonomy.
func classify(err error) error {
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		// network failures, cancelled contexts and undecodable replies
		return ErrTransport
	}

	switch {
	case apiErr.StatusCode == http.StatusUnauthorized, apiErr.StatusCode == http.StatusForbidden:
		return ErrPermission
	case apiErr.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case apiErr.Code == "invalid_transition",
		apiErr.StatusCode == http.StatusConflict,
		apiErr.StatusCode == http.StatusBadRequest,
		apiErr.StatusCode == http.StatusUnprocessableEntity:
		return ErrInvalidTransition
	}
	return ErrTransport
}
