package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sorenmh/nextintern/internal/lifecycle"
)

func TestListInternshipApplications(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/internships/int-1/applications", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "10", r.URL.Query().Get("size"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"content": [
				{"id": "app-1", "status": "SHORTLISTED", "appliedAt": "2025-03-01T10:00:00Z",
				 "student": {"id": "s1", "fullName": "Ada", "email": "ada@example.com"},
				 "internship": {"id": "int-1", "title": "Backend Intern", "companyName": "Acme", "providerId": "p1"}}
			],
			"page": 2, "size": 10, "totalElements": 21, "totalPages": 3
		}`)
	}))
	defer server.Close()

	c := NewClient(server.URL+"/", "tok")
	page, err := c.ListInternshipApplications(context.Background(), "int-1", 2, 10)
	require.NoError(t, err)

	require.Len(t, page.Content, 1)
	assert.Equal(t, lifecycle.StatusShortlisted, page.Content[0].Status)
	assert.Equal(t, "Acme", page.Content[0].Internship.CompanyName)
	assert.Equal(t, 21, page.TotalElements)
	assert.Equal(t, 3, page.TotalPages)
}

func TestListMyApplicationsOmitsZeroPaging(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/applications/my", r.URL.Path)
		assert.Empty(t, r.URL.RawQuery)
		io.WriteString(w, `{"content": [], "page": 0, "size": 20, "totalElements": 0, "totalPages": 0}`)
	}))
	defer server.Close()

	page, err := NewClient(server.URL, "tok").ListMyApplications(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Empty(t, page.Content)
}

func TestUpdateApplicationStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/api/v1/applications/app-1/status", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "shortlisted", body["status"])

		io.WriteString(w, `{"id": "app-1", "status": "shortlisted", "appliedAt": "2025-03-01T10:00:00Z"}`)
	}))
	defer server.Close()

	app, err := NewClient(server.URL, "tok").UpdateApplicationStatus(context.Background(), "app-1", lifecycle.StatusShortlisted)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusShortlisted, app.Status)
}

func TestAPIErrorDecoding(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantCode    string
		wantMessage string
	}{
		{
			name:        "error envelope",
			status:      http.StatusConflict,
			body:        `{"error":{"code":"invalid_transition","message":"cannot move from accepted to rejected"}}`,
			wantCode:    "invalid_transition",
			wantMessage: "cannot move from accepted to rejected",
		},
		{
			name:        "plain text",
			status:      http.StatusBadGateway,
			body:        "upstream unavailable\n",
			wantMessage: "upstream unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer server.Close()

			_, err := NewClient(server.URL, "tok").UpdateApplicationStatus(context.Background(), "app-1", lifecycle.StatusAccepted)
			require.Error(t, err)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.wantCode, apiErr.Code)
			assert.Equal(t, tt.wantMessage, apiErr.Message)
		})
	}
}

func TestContextCancellation(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := NewClient(server.URL, "tok").ListMyApplications(ctx, 0, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}

func TestLoginAndSetToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/auth/login":
			assert.Empty(t, r.Header.Get("Authorization"))
			io.WriteString(w, `{"accessToken":"new-access","refreshToken":"r1","expiresAt":"2030-01-01T00:00:00Z",
				"user":{"id":"u1","email":"p@example.com","fullName":"Pat","role":"provider"}}`)
		case "/api/v1/internships/int-1":
			assert.Equal(t, "Bearer new-access", r.Header.Get("Authorization"))
			io.WriteString(w, `{"id":"int-1","providerId":"u1","title":"Data Intern","companyName":"Acme","status":"active"}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	c := NewClient(server.URL, "")
	resp, err := c.Login(context.Background(), "p@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, lifecycle.RoleProvider, resp.User.Role)

	c.SetToken(resp.AccessToken)
	in, err := c.GetInternship(context.Background(), "int-1")
	require.NoError(t, err)
	assert.Equal(t, "Data Intern", in.Title)
}

func TestWithdraw(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/v1/internships/int-1/apply", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	assert.NoError(t, NewClient(server.URL, "tok").Withdraw(context.Background(), "int-1"))
}

func TestInternshipListingAndStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method + " " + r.URL.Path {
		case "GET /api/v1/internships":
			assert.Equal(t, "1", r.URL.Query().Get("page"))
			io.WriteString(w, `{"content": [{"id": "int-2", "title": "Data Intern", "status": "active"}], "page": 1, "size": 1, "totalElements": 2, "totalPages": 2}`)
		case "GET /api/v1/internships/my":
			io.WriteString(w, `{"content": [], "page": 0, "size": 20, "totalElements": 0, "totalPages": 0}`)
		case "PATCH /api/v1/internships/int-1/status":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "closed", body["status"])
			io.WriteString(w, `{"id": "int-1", "title": "Backend Intern", "status": "closed"}`)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	c := NewClient(server.URL, "tok")
	open, err := c.ListInternships(context.Background(), 1, 1)
	require.NoError(t, err)
	require.Len(t, open.Content, 1)
	assert.Equal(t, "int-2", open.Content[0].ID)
	assert.Equal(t, 2, open.TotalElements)

	mine, err := c.ListMyInternships(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Empty(t, mine.Content)

	in, err := c.SetInternshipStatus(context.Background(), "int-1", "closed")
	require.NoError(t, err)
	assert.Equal(t, "closed", in.Status)
}

func TestListAuditLogForbidden(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/admin/audit-logs", r.URL.Path)
		w.WriteHeader(http.StatusForbidden)
		io.WriteString(w, `{"error": {"code": "forbidden", "message": "Access denied"}}`)
	}))
	defer server.Close()

	_, err := NewClient(server.URL, "tok").ListAuditLog(context.Background(), 0, 20)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, "forbidden", apiErr.Code)
}
