// Package lifecycle holds the application status graph and the
// role-gated action table shared by internd and internctl.
package lifecycle

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Status is the canonical (lowercase) application status.
type Status string

const (
	StatusApplied     Status = "applied"
	StatusShortlisted Status = "shortlisted"
	StatusAccepted    Status = "accepted"
	StatusRejected    Status = "rejected"
	StatusWithdrawn   Status = "withdrawn"
)

// legacyAliases maps historic wire spellings onto canonical statuses.
var legacyAliases = map[string]Status{
	"hired": StatusAccepted,
}

var transitions = map[Status][]Status{
	StatusApplied:     {StatusShortlisted, StatusRejected, StatusWithdrawn},
	StatusShortlisted: {StatusAccepted, StatusRejected, StatusWithdrawn},
	StatusAccepted:    nil,
	StatusRejected:    nil,
	StatusWithdrawn:   nil,
}

// ParseStatus normalizes a wire value (any case, surrounding whitespace,
// legacy aliases) into a canonical Status.
func ParseStatus(raw string) (Status, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	if alias, ok := legacyAliases[v]; ok {
		return alias, nil
	}
	s := Status(v)
	if _, ok := transitions[s]; !ok {
		return "", fmt.Errorf("unknown application status %q", raw)
	}
	return s, nil
}

// Valid reports whether s is a known canonical status.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// IsTerminal reports whether no transition leaves s.
func (s Status) IsTerminal() bool {
	return s.Valid() && len(transitions[s]) == 0
}

func (s Status) String() string {
	return string(s)
}

// UnmarshalJSON accepts any case and legacy aliases so that every decoded
// Status is canonical.
func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("status must be a string: %w", err)
	}
	parsed, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// CanTransition reports whether the graph has an edge from -> to.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// All returns every known status in lifecycle order.
func All() []Status {
	return []Status{StatusApplied, StatusShortlisted, StatusAccepted, StatusRejected, StatusWithdrawn}
}
