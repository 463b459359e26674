package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sorenmh/nextintern/internal/lifecycle"
)

func TestValidateRequests(t *testing.T) {
	zero := 0
	tests := []struct {
		name      string
		req       interface{}
		wantField string
		wantMsg   string
	}{
		{
			name: "cover note at limit",
			req:  &ApplyRequest{CoverNote: strings.Repeat("é", MaxCoverNoteLength)},
		},
		{
			name:      "cover note too long",
			req:       &ApplyRequest{CoverNote: strings.Repeat("a", MaxCoverNoteLength+1)},
			wantField: "coverNote",
			wantMsg:   "must be at most 500",
		},
		{
			name: "status shortlisted",
			req:  &UpdateStatusRequest{Status: lifecycle.StatusShortlisted},
		},
		{
			name:      "status missing",
			req:       &UpdateStatusRequest{},
			wantField: "status",
			wantMsg:   "is required",
		},
		{
			name:      "status withdrawn is not a provider decision",
			req:       &UpdateStatusRequest{Status: lifecycle.StatusWithdrawn},
			wantField: "status",
			wantMsg:   "must be one of",
		},
		{
			name: "register student",
			req:  &RegisterRequest{Email: "ada@example.com", Password: "longenough", FullName: "Ada", Role: "student"},
		},
		{
			name:      "register admin refused",
			req:       &RegisterRequest{Email: "ada@example.com", Password: "longenough", FullName: "Ada", Role: "admin"},
			wantField: "role",
			wantMsg:   "must be student or provider",
		},
		{
			name:      "register short password",
			req:       &RegisterRequest{Email: "ada@example.com", Password: "short", FullName: "Ada", Role: "provider"},
			wantField: "password",
			wantMsg:   "must be at least 8",
		},
		{
			name:      "register bad email",
			req:       &RegisterRequest{Email: "not-an-email", Password: "longenough", FullName: "Ada", Role: "student"},
			wantField: "email",
			wantMsg:   "valid email",
		},
		{
			name:      "internship without title",
			req:       &CreateInternshipRequest{CompanyName: "Acme"},
			wantField: "title",
			wantMsg:   "is required",
		},
		{
			name:      "internship zero capacity",
			req:       &CreateInternshipRequest{Title: "Intern", CompanyName: "Acme", MaxApplicants: &zero},
			wantField: "maxApplicants",
			wantMsg:   "must be at least 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.req)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			var ves ValidationErrors
			require.ErrorAs(t, err, &ves)
			require.Len(t, ves, 1)
			assert.Equal(t, tt.wantField, ves[0].Field)
			assert.Contains(t, ves[0].Message, tt.wantMsg)
		})
	}
}

func TestNewPage(t *testing.T) {
	p := NewPage[string](nil, 0, 20, 41)
	assert.NotNil(t, p.Content)
	assert.Equal(t, 3, p.TotalPages)

	p = NewPage([]string{"a"}, 0, 20, 1)
	assert.Equal(t, 1, p.TotalPages)
}
