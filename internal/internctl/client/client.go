package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sorenmh/nextintern/internal/lifecycle"
)

// Client is an internd API client
type Client struct {
	baseURL string
	client  *http.Client

	mu    sync.RWMutex
	token string
}

// NewClient creates a new internd API client
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetToken replaces the bearer token used for subsequent requests
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) bearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// joinURL joins the base URL with a path, handling slashes
func (c *Client) joinURL(path string) string {
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

func (c *Client) pagedURL(path string, page, size int) (string, error) {
	u, err := url.Parse(c.joinURL(path))
	if err != nil {
		return "", fmt.Errorf("failed to parse URL: %w", err)
	}

	q := u.Query()
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if size > 0 {
		q.Set("size", strconv.Itoa(size))
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// do sends a request and decodes a JSON reply into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, rawURL string, in, out interface{}, want int) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token := c.bearer(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		raw, _ := io.ReadAll(resp.Body)
		return newAPIError(resp.StatusCode, raw)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Login exchanges credentials for a token pair
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	var resp AuthResponse
	err := c.do(ctx, http.MethodPost, c.joinURL("api/v1/auth/login"), loginRequest{Email: email, Password: password}, &resp, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register creates an account and returns its first token pair
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, c.joinURL("api/v1/auth/register"), req, &resp, http.StatusCreated); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Refresh rotates a refresh token
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, c.joinURL("api/v1/auth/refresh"), refreshRequest{RefreshToken: refreshToken}, &resp, http.StatusOK); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Logout revokes the refresh token and the current access token
func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	return c.do(ctx, http.MethodPost, c.joinURL("api/v1/auth/logout"), refreshRequest{RefreshToken: refreshToken}, nil, http.StatusNoContent)
}

// GetInternship gets an internship by ID
func (c *Client) GetInternship(ctx context.Context, internshipID string) (*Internship, error) {
	var in Internship
	if err := c.do(ctx, http.MethodGet, c.joinURL("api/v1/internships/"+url.PathEscape(internshipID)), nil, &in, http.StatusOK); err != nil {
		return nil, err
	}
	return &in, nil
}

// CreateInternship posts a new internship owned by the caller
func (c *Client) CreateInternship(ctx context.Context, req CreateInternshipRequest) (*Internship, error) {
	var in Internship
	if err := c.do(ctx, http.MethodPost, c.joinURL("api/v1/internships"), req, &in, http.StatusCreated); err != nil {
		return nil, err
	}
	return &in, nil
}

// ListInternshipApplications lists applications for an internship the caller owns
func (c *Client) ListInternshipApplications(ctx context.Context, internshipID string, page, size int) (*ApplicationPage, error) {
	u, err := c.pagedURL("api/v1/internships/"+url.PathEscape(internshipID)+"/applications", page, size)
	if err != nil {
		return nil, err
	}

	var p ApplicationPage
	if err := c.do(ctx, http.MethodGet, u, nil, &p, http.StatusOK); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListInternships lists internships open for applications
func (c *Client) ListInternships(ctx context.Context, page, size int) (*InternshipPage, error) {
	return c.listInternships(ctx, "api/v1/internships", page, size)
}

// ListMyInternships lists the internships the caller posted
func (c *Client) ListMyInternships(ctx context.Context, page, size int) (*InternshipPage, error) {
	return c.listInternships(ctx, "api/v1/internships/my", page, size)
}

func (c *Client) listInternships(ctx context.Context, path string, page, size int) (*InternshipPage, error) {
	u, err := c.pagedURL(path, page, size)
	if err != nil {
		return nil, err
	}

	var p InternshipPage
	if err := c.do(ctx, http.MethodGet, u, nil, &p, http.StatusOK); err != nil {
		return nil, err
	}
	return &p, nil
}

type internshipStatusRequest struct {
	Status string `json:"status"`
}

// SetInternshipStatus closes or reopens an internship
func (c *Client) SetInternshipStatus(ctx context.Context, internshipID, status string) (*Internship, error) {
	var in Internship
	err := c.do(ctx, http.MethodPatch, c.joinURL("api/v1/internships/"+url.PathEscape(internshipID)+"/status"),
		internshipStatusRequest{Status: status}, &in, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return &in, nil
}

// ListAuditLog reads the audit log, newest first. Admins only.
func (c *Client) ListAuditLog(ctx context.Context, page, size int) (*AuditPage, error) {
	u, err := c.pagedURL("api/v1/admin/audit-logs", page, size)
	if err != nil {
		return nil, err
	}

	var p AuditPage
	if err := c.do(ctx, http.MethodGet, u, nil, &p, http.StatusOK); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListMyApplications lists the caller's own applications
func (c *Client) ListMyApplications(ctx context.Context, page, size int) (*ApplicationPage, error) {
	u, err := c.pagedURL("api/v1/applications/my", page, size)
	if err != nil {
		return nil, err
	}

	var p ApplicationPage
	if err := c.do(ctx, http.MethodGet, u, nil, &p, http.StatusOK); err != nil {
		return nil, err
	}
	return &p, nil
}

type updateStatusRequest struct {
	Status lifecycle.Status `json:"status"`
}

// UpdateApplicationStatus moves an application to a new status
func (c *Client) UpdateApplicationStatus(ctx context.Context, applicationID string, status lifecycle.Status) (*Application, error) {
	var app Application
	err := c.do(ctx, http.MethodPatch, c.joinURL("api/v1/applications/"+url.PathEscape(applicationID)+"/status"),
		updateStatusRequest{Status: status}, &app, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return &app, nil
}

type applyRequest struct {
	CoverNote string `json:"coverNote,omitempty"`
}

// Apply submits an application to an internship
func (c *Client) Apply(ctx context.Context, internshipID, coverNote string) (*Application, error) {
	var app Application
	err := c.do(ctx, http.MethodPost, c.joinURL("api/v1/internships/"+url.PathEscape(internshipID)+"/apply"),
		applyRequest{CoverNote: coverNote}, &app, http.StatusCreated)
	if err != nil {
		return nil, err
	}
	return &app, nil
}

// Withdraw withdraws the caller's application to an internship
func (c *Client) Withdraw(ctx context.Context, internshipID string) error {
	return c.do(ctx, http.MethodDelete, c.joinURL("api/v1/internships/"+url.PathEscape(internshipID)+"/apply"), nil, nil, http.StatusNoContent)
}
