package lifecycle

import (
	"fmt"
	"strings"
)

// Role is the account role carried by a session or token.
type Role string

const (
	RoleStudent  Role = "student"
	RoleProvider Role = "provider"
	RoleAdmin    Role = "admin"
)

// ParseRole normalizes a role string.
func ParseRole(raw string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(raw)))
	switch r {
	case RoleStudent, RoleProvider, RoleAdmin:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", raw)
}

// Action is a provider decision on an application.
type Action string

const (
	ActionShortlist Action = "shortlist"
	ActionAccept    Action = "accept"
	ActionReject    Action = "reject"
)

var actionTargets = map[Action]Status{
	ActionShortlist: StatusShortlisted,
	ActionAccept:    StatusAccepted,
	ActionReject:    StatusRejected,
}

// Target returns the status an action moves an application to.
func (a Action) Target() Status {
	return actionTargets[a]
}

// ParseAction normalizes an action name.
func ParseAction(raw string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := actionTargets[a]; !ok {
		return "", fmt.Errorf("unknown action %q", raw)
	}
	return a, nil
}

// Viewer describes who is looking at an application.
type Viewer struct {
	UserID string
	Role   Role
}

// Owns reports whether the viewer is the provider user that owns the
// internship with the given provider user ID.
func (v Viewer) Owns(providerUserID string) bool {
	return v.Role == RoleProvider && v.UserID != "" && v.UserID == providerUserID
}

// ActionsFor returns the actions offered to a viewer for an application in
// status s whose internship is owned by providerUserID. Only the owning
// provider ever gets actions; everyone else is read-only.
func ActionsFor(v Viewer, providerUserID string, s Status) []Action {
	if !v.Owns(providerUserID) {
		return nil
	}
	switch s {
	case StatusApplied:
		return []Action{ActionShortlist, ActionReject}
	case StatusShortlisted:
		return []Action{ActionAccept, ActionReject}
	}
	return nil
}
