package lifecycle

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		raw     string
		want    Status
		wantErr bool
	}{
		{raw: "applied", want: StatusApplied},
		{raw: "SHORTLISTED", want: StatusShortlisted},
		{raw: "  Rejected ", want: StatusRejected},
		{raw: "HIRED", want: StatusAccepted},
		{raw: "accepted", want: StatusAccepted},
		{raw: "WITHDRAWN", want: StatusWithdrawn},
		{raw: "in_review", wantErr: true},
		{raw: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseStatus(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStatusUnmarshalJSON(t *testing.T) {
	var body struct {
		Status Status `json:"status"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"status":"HIRED"}`), &body))
	assert.Equal(t, StatusAccepted, body.Status)

	require.NoError(t, json.Unmarshal([]byte(`{"status":"Shortlisted"}`), &body))
	assert.Equal(t, StatusShortlisted, body.Status)

	assert.Error(t, json.Unmarshal([]byte(`{"status":"pending"}`), &body))
	assert.Error(t, json.Unmarshal([]byte(`{"status":3}`), &body))

	out, err := json.Marshal(struct {
		Status Status `json:"status"`
	}{StatusRejected})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"rejected"}`, string(out))
}

func TestCanTransition(t *testing.T) {
	allowed := map[[2]Status]bool{
		{StatusApplied, StatusShortlisted}:   true,
		{StatusApplied, StatusRejected}:      true,
		{StatusApplied, StatusWithdrawn}:     true,
		{StatusShortlisted, StatusAccepted}:  true,
		{StatusShortlisted, StatusRejected}:  true,
		{StatusShortlisted, StatusWithdrawn}: true,
	}

	for _, from := range All() {
		for _, to := range All() {
			assert.Equal(t, allowed[[2]Status{from, to}], CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestTerminalStatesHaveNoExits(t *testing.T) {
	for _, s := range []Status{StatusAccepted, StatusRejected, StatusWithdrawn} {
		assert.True(t, s.IsTerminal(), s)
		for _, to := range All() {
			assert.False(t, CanTransition(s, to), "%s -> %s", s, to)
		}
	}
	assert.False(t, StatusApplied.IsTerminal())
	assert.False(t, StatusShortlisted.IsTerminal())
	assert.False(t, Status("bogus").IsTerminal())
}

func TestActionsFor(t *testing.T) {
	owner := Viewer{UserID: "prov-1", Role: RoleProvider}
	otherProvider := Viewer{UserID: "prov-2", Role: RoleProvider}
	applicant := Viewer{UserID: "stud-1", Role: RoleStudent}
	anonymous := Viewer{}

	tests := []struct {
		name   string
		viewer Viewer
		status Status
		want   []Action
	}{
		{name: "owner applied", viewer: owner, status: StatusApplied, want: []Action{ActionShortlist, ActionReject}},
		{name: "owner shortlisted", viewer: owner, status: StatusShortlisted, want: []Action{ActionAccept, ActionReject}},
		{name: "owner accepted", viewer: owner, status: StatusAccepted},
		{name: "owner rejected", viewer: owner, status: StatusRejected},
		{name: "owner withdrawn", viewer: owner, status: StatusWithdrawn},
		{name: "other provider applied", viewer: otherProvider, status: StatusApplied},
		{name: "applicant applied", viewer: applicant, status: StatusApplied},
		{name: "applicant shortlisted", viewer: applicant, status: StatusShortlisted},
		{name: "anonymous applied", viewer: anonymous, status: StatusApplied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ActionsFor(tt.viewer, "prov-1", tt.status))
		})
	}
}

func TestStudentWithProviderIDIsNotOwner(t *testing.T) {
	v := Viewer{UserID: "prov-1", Role: RoleStudent}
	assert.Empty(t, ActionsFor(v, "prov-1", StatusApplied))
}

func TestActionTargetsAreReachable(t *testing.T) {
	for _, s := range []Status{StatusApplied, StatusShortlisted} {
		for _, a := range ActionsFor(Viewer{UserID: "p", Role: RoleProvider}, "p", s) {
			assert.True(t, CanTransition(s, a.Target()), "%s via %s", s, a)
		}
	}
}

func TestParseActionAndRole(t *testing.T) {
	a, err := ParseAction(" Shortlist ")
	require.NoError(t, err)
	assert.Equal(t, ActionShortlist, a)
	_, err = ParseAction("withdraw")
	assert.Error(t, err)

	r, err := ParseRole("PROVIDER")
	require.NoError(t, err)
	assert.Equal(t, RoleProvider, r)
	_, err = ParseRole("guest")
	assert.Error(t, err)
}
