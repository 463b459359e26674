package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sorenmh/nextintern/internal/internd/auth"
	"github.com/sorenmh/nextintern/internal/internd/config"
	"github.com/sorenmh/nextintern/internal/internd/db"
	"github.com/sorenmh/nextintern/internal/internd/events"
	"github.com/sorenmh/nextintern/internal/internd/metrics"
	"github.com/sorenmh/nextintern/internal/internd/models"
	"github.com/sorenmh/nextintern/internal/internd/ratelimit"
	"github.com/sorenmh/nextintern/internal/internd/service"
	"github.com/sorenmh/nextintern/internal/lifecycle"
	"github.com/sorenmh/nextintern/internal/logging"
)

func newTestServer(t *testing.T, limiter ratelimit.Limiter) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	database, err := db.Open("sqlite", filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	logger := logging.NewTestLogger(t)
	tokens := auth.NewManager("0123456789abcdef0123456789abcdef", 15*time.Minute, time.Hour, auth.NewMemoryTokenStore())
	m := metrics.New(prometheus.NewRegistry())
	svc := service.New(database.DB, tokens, events.NewLogPublisher(logger), m, logger)

	cfg := &config.Config{Server: config.ServerConfig{Port: "0", Mode: gin.TestMode}}
	return NewServer(cfg, Deps{
		DB:      database,
		Service: svc,
		Limiter: limiter,
		Metrics: m,
		Logger:  logger,
		Version: "test",
	})
}

func do(t *testing.T, s *Server, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func register(t *testing.T, s *Server, email, role string) models.AuthResponse {
	t.Helper()
	w := do(t, s, http.MethodPost, "/api/v1/auth/register", "", models.RegisterRequest{
		Email:    email,
		Password: "correct-horse",
		FullName: "Test User",
		Role:     role,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp models.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp.Error
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)
	w := do(t, s, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "test", resp.Version)
	assert.True(t, resp.DatabaseAccessible)
	assert.Nil(t, resp.RedisAccessible)
	assert.NotEmpty(t, w.Header().Get(HeaderRequestID))
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t, nil)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic abc"},
		{"bad token", "Bearer not-a-token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/applications/my", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			s.Handler().ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, service.CodeUnauthorized, decodeError(t, w).Code)
		})
	}
}

func TestApplicationFlow(t *testing.T) {
	s := newTestServer(t, nil)
	provider := register(t, s, "provider@example.com", "provider")
	student := register(t, s, "student@example.com", "student")

	w := do(t, s, http.MethodPost, "/api/v1/internships", provider.AccessToken, models.CreateInternshipRequest{
		Title:       "Platform Intern",
		CompanyName: "Acme",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var in models.Internship
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &in))

	w = do(t, s, http.MethodPost, "/api/v1/internships/"+in.ID+"/apply", student.AccessToken, models.ApplyRequest{CoverNote: "hi"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var app models.ApplicationView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &app))
	assert.Equal(t, lifecycle.StatusApplied, app.Status)
	assert.Equal(t, provider.User.ID, app.Internship.ProviderID)

	w = do(t, s, http.MethodGet, "/api/v1/internships/"+in.ID+"/applications?page=0&size=500", provider.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var page models.Page[models.ApplicationView]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, 100, page.Size)
	assert.Equal(t, 1, page.TotalElements)
	require.Len(t, page.Content, 1)

	w = do(t, s, http.MethodGet, "/api/v1/internships/"+in.ID+"/applications", student.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, service.CodeForbidden, decodeError(t, w).Code)

	tests := []struct {
		name       string
		token      string
		body       interface{}
		wantStatus int
		wantCode   string
		wantState  lifecycle.Status
	}{
		{"student cannot decide", student.AccessToken, map[string]string{"status": "shortlisted"}, http.StatusForbidden, service.CodeForbidden, ""},
		{"unknown status", provider.AccessToken, map[string]string{"status": "maybe"}, http.StatusBadRequest, service.CodeInvalidRequest, ""},
		{"withdrawn is not a provider decision", provider.AccessToken, map[string]string{"status": "withdrawn"}, http.StatusBadRequest, service.CodeInvalidRequest, ""},
		{"skip shortlist", provider.AccessToken, map[string]string{"status": "accepted"}, http.StatusConflict, service.CodeInvalidTransition, ""},
		{"shortlist with legacy case", provider.AccessToken, map[string]string{"status": "SHORTLISTED"}, http.StatusOK, "", lifecycle.StatusShortlisted},
		{"hired alias accepts", provider.AccessToken, map[string]string{"status": "HIRED"}, http.StatusOK, "", lifecycle.StatusAccepted},
		{"terminal", provider.AccessToken, map[string]string{"status": "rejected"}, http.StatusConflict, service.CodeInvalidTransition, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, s, http.MethodPatch, "/api/v1/applications/"+app.ID+"/status", tt.token, tt.body)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decodeError(t, w).Code)
				return
			}
			var got models.ApplicationView
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
			assert.Equal(t, tt.wantState, got.Status)
		})
	}

	w = do(t, s, http.MethodGet, "/api/v1/applications/my", student.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	require.Len(t, page.Content, 1)
	assert.Equal(t, lifecycle.StatusAccepted, page.Content[0].Status)
	assert.Equal(t, "Platform Intern", page.Content[0].Internship.Title)

	// withdrawing a decided application is a no-op
	w = do(t, s, http.MethodDelete, "/api/v1/internships/"+in.ID+"/apply", student.AccessToken, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, s, http.MethodPatch, "/api/v1/applications/missing/status", provider.AccessToken, map[string]string{"status": "rejected"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPagingValidation(t *testing.T) {
	s := newTestServer(t, nil)
	student := register(t, s, "student@example.com", "student")

	for _, q := range []string{"page=-1", "page=x", "size=0", "size=abc", "page=92233720368547759&size=100", "page=21474837&size=100"} {
		w := do(t, s, http.MethodGet, "/api/v1/applications/my?"+q, student.AccessToken, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
		assert.Equal(t, service.CodeInvalidRequest, decodeError(t, w).Code)
	}

	w := do(t, s, http.MethodGet, "/api/v1/applications/my", student.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page models.Page[models.ApplicationView]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, 20, page.Size)
	assert.Equal(t, 0, page.Page)
	assert.NotNil(t, page.Content)
}

func TestInternshipBrowsingAndClosing(t *testing.T) {
	s := newTestServer(t, nil)
	provider := register(t, s, "provider@example.com", "provider")
	other := register(t, s, "other@example.com", "provider")
	student := register(t, s, "student@example.com", "student")

	var ids []string
	for _, title := range []string{"Backend Intern", "Data Intern"} {
		w := do(t, s, http.MethodPost, "/api/v1/internships", provider.AccessToken, models.CreateInternshipRequest{Title: title, CompanyName: "Acme"})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var in models.Internship
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &in))
		ids = append(ids, in.ID)
	}

	// anonymous callers can browse
	w := do(t, s, http.MethodGet, "/api/v1/internships", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var open models.Page[models.Internship]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &open))
	assert.Equal(t, 2, open.TotalElements)

	w = do(t, s, http.MethodGet, "/api/v1/internships?page=-1", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodPatch, "/api/v1/internships/"+ids[0]+"/status", other.AccessToken, map[string]string{"status": "closed"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = do(t, s, http.MethodPatch, "/api/v1/internships/"+ids[0]+"/status", provider.AccessToken, map[string]string{"status": "paused"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, service.CodeInvalidRequest, decodeError(t, w).Code)

	w = do(t, s, http.MethodPatch, "/api/v1/internships/"+ids[0]+"/status", provider.AccessToken, map[string]string{"status": "closed"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var closed models.Internship
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &closed))
	assert.Equal(t, models.InternshipClosed, closed.Status)

	w = do(t, s, http.MethodPost, "/api/v1/internships/"+ids[0]+"/apply", student.AccessToken, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, s, http.MethodGet, "/api/v1/internships", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &open))
	require.Len(t, open.Content, 1)
	assert.Equal(t, ids[1], open.Content[0].ID)

	// the static segment wins over :id
	w = do(t, s, http.MethodGet, "/api/v1/internships/my?size=1", provider.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var mine models.Page[models.Internship]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &mine))
	assert.Equal(t, 2, mine.TotalElements)
	assert.Equal(t, 2, mine.TotalPages)
	assert.Len(t, mine.Content, 1)

	w = do(t, s, http.MethodGet, "/api/v1/internships/my", student.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = do(t, s, http.MethodGet, "/api/v1/internships/my", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuditLogRequiresAdmin(t *testing.T) {
	s := newTestServer(t, nil)
	provider := register(t, s, "provider@example.com", "provider")

	// admins cannot self-register
	w := do(t, s, http.MethodPost, "/api/v1/auth/register", "", models.RegisterRequest{
		Email: "root@example.com", Password: "correct-horse", FullName: "Root", Role: "admin",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodGet, "/api/v1/admin/audit-logs", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = do(t, s, http.MethodGet, "/api/v1/admin/audit-logs", provider.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, service.CodeForbidden, decodeError(t, w).Code)

	_, err := s.svc.EnsureAdmin(context.Background(), "admin@example.com", "correct-horse", "Admin")
	require.NoError(t, err)
	w = do(t, s, http.MethodPost, "/api/v1/auth/login", "", models.LoginRequest{Email: "admin@example.com", Password: "correct-horse"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var admin models.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &admin))
	assert.Equal(t, lifecycle.RoleAdmin, admin.User.Role)

	w = do(t, s, http.MethodGet, "/api/v1/admin/audit-logs?size=1", admin.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var page models.Page[models.AuditEntry]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	require.Len(t, page.Content, 1)
	assert.Equal(t, "USER_LOGGED_IN", page.Content[0].Action)
	assert.Equal(t, admin.User.ID, page.Content[0].ActorID)
	assert.Equal(t, 3, page.TotalElements)
}

func TestRefreshAndLogout(t *testing.T) {
	s := newTestServer(t, nil)
	student := register(t, s, "student@example.com", "student")

	w := do(t, s, http.MethodPost, "/api/v1/auth/refresh", "", models.RefreshRequest{RefreshToken: student.RefreshToken})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var refreshed models.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &refreshed))

	w = do(t, s, http.MethodPost, "/api/v1/auth/refresh", "", models.RefreshRequest{RefreshToken: student.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, s, http.MethodPost, "/api/v1/auth/logout", refreshed.AccessToken, models.RefreshRequest{RefreshToken: refreshed.RefreshToken})
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, s, http.MethodGet, "/api/v1/applications/my", refreshed.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, s, http.MethodPost, "/api/v1/auth/login", "", models.LoginRequest{Email: "student@example.com", Password: "nope-nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, ratelimit.NewMemoryLimiter(3, time.Minute))

	for i := 0; i < 3; i++ {
		w := do(t, s, http.MethodGet, "/api/v1/internships/x", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, fmt.Sprint(2-i), w.Header().Get(HeaderRateLimitRemaining))
	}

	w := do(t, s, http.MethodGet, "/api/v1/internships/x", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, service.CodeRateLimited, decodeError(t, w).Code)
	assert.Equal(t, "0", w.Header().Get(HeaderRateLimitRemaining))
	assert.Equal(t, "20", w.Header().Get(HeaderRateLimitRetryAfter))

	// health is outside the limited API
	w = do(t, s, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
