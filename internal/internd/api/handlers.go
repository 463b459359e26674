package api

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sorenmh/nextintern/internal/internd/models"
	"github.com/sorenmh/nextintern/internal/internd/service"
)

// Paging defaults
const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func (s *Server) handleHealth(c *gin.Context) {
	dbOK := s.db.PingContext(c.Request.Context()) == nil

	resp := models.HealthResponse{
		Status:             "healthy",
		Version:            s.version,
		DatabaseAccessible: dbOK,
	}
	if s.redis != nil {
		redisOK := s.redis.Ping(c.Request.Context()).Err() == nil
		resp.RedisAccessible = &redisOK
		if !redisOK {
			resp.Status = "degraded"
		}
	}

	if !dbOK {
		resp.Status = "unhealthy"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// parsePage reads zero-based page and size query parameters
func parsePage(c *gin.Context) (int, int, bool) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "0"))
	if err != nil || page < 0 {
		writeError(c, http.StatusBadRequest, service.CodeInvalidRequest, "page must be a non-negative integer")
		return 0, 0, false
	}

	size, err := strconv.Atoi(c.DefaultQuery("size", strconv.Itoa(defaultPageSize)))
	if err != nil || size < 1 {
		writeError(c, http.StatusBadRequest, service.CodeInvalidRequest, "size must be a positive integer")
		return 0, 0, false
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	// page*size becomes the SQL offset
	if page > math.MaxInt32/size {
		writeError(c, http.StatusBadRequest, service.CodeInvalidRequest, "page is too large")
		return 0, 0, false
	}
	return page, size, true
}

// bindJSON decodes the request body, writing invalid_request on failure
func bindJSON(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		writeError(c, http.StatusBadRequest, service.CodeInvalidRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

// Auth handlers

func (s *Server) handleRegister(c *gin.Context) {
	var req models.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := s.svc.Register(c.Request.Context(), req, c.ClientIP())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (s *Server) handleLogin(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := s.svc.Login(c.Request.Context(), req, c.ClientIP())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleRefresh(c *gin.Context) {
	var req models.RefreshRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := s.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleLogout(c *gin.Context) {
	var req models.RefreshRequest
	// the body is optional on logout
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}
	if err := s.svc.Logout(c.Request.Context(), req.RefreshToken, claimsFrom(c)); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Internship handlers

func (s *Server) handleCreateInternship(c *gin.Context) {
	actor, _ := actorFrom(c)
	var req models.CreateInternshipRequest
	if !bindJSON(c, &req) {
		return
	}
	in, err := s.svc.CreateInternship(c.Request.Context(), actor, req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, in)
}

func (s *Server) handleGetInternship(c *gin.Context) {
	in, err := s.svc.GetInternship(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, in)
}

func (s *Server) handleListInternships(c *gin.Context) {
	page, size, ok := parsePage(c)
	if !ok {
		return
	}
	resp, err := s.svc.ListInternships(c.Request.Context(), page, size)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleListMyInternships(c *gin.Context) {
	actor, _ := actorFrom(c)
	page, size, ok := parsePage(c)
	if !ok {
		return
	}
	resp, err := s.svc.ListMyInternships(c.Request.Context(), actor, page, size)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleSetInternshipStatus(c *gin.Context) {
	actor, _ := actorFrom(c)
	var req models.UpdateInternshipStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	in, err := s.svc.SetInternshipStatus(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, in)
}

func (s *Server) handleListInternshipApplications(c *gin.Context) {
	actor, _ := actorFrom(c)
	page, size, ok := parsePage(c)
	if !ok {
		return
	}
	resp, err := s.svc.ListForInternship(c.Request.Context(), actor, c.Param("id"), page, size)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleApply(c *gin.Context) {
	actor, _ := actorFrom(c)
	var req models.ApplyRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}
	view, err := s.svc.Apply(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (s *Server) handleWithdraw(c *gin.Context) {
	actor, _ := actorFrom(c)
	if err := s.svc.Withdraw(c.Request.Context(), actor, c.Param("id")); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Application handlers

func (s *Server) handleListMyApplications(c *gin.Context) {
	actor, _ := actorFrom(c)
	page, size, ok := parsePage(c)
	if !ok {
		return
	}
	resp, err := s.svc.ListMine(c.Request.Context(), actor, page, size)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleUpdateStatus(c *gin.Context) {
	actor, _ := actorFrom(c)
	var req models.UpdateStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := models.Validate(req); err != nil {
		writeError(c, http.StatusBadRequest, service.CodeInvalidRequest, err.Error())
		return
	}
	view, err := s.svc.UpdateStatus(c.Request.Context(), actor, c.Param("id"), req.Status)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Admin handlers

func (s *Server) handleListAuditLogs(c *gin.Context) {
	actor, _ := actorFrom(c)
	page, size, ok := parsePage(c)
	if !ok {
		return
	}
	resp, err := s.svc.ListAuditLog(c.Request.Context(), actor, page, size)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
