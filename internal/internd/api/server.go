package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/sorenmh/nextintern/internal/internd/config"
	"github.com/sorenmh/nextintern/internal/internd/db"
	"github.com/sorenmh/nextintern/internal/internd/metrics"
	"github.com/sorenmh/nextintern/internal/internd/ratelimit"
	"github.com/sorenmh/nextintern/internal/internd/service"
	"github.com/sorenmh/nextintern/internal/lifecycle"
	"github.com/sorenmh/nextintern/internal/logging"
)

// Deps are the collaborators of the public API server. Redis, Limiter and
// Metrics are optional.
type Deps struct {
	DB      *db.DB
	Service *service.Service
	Redis   *redis.Client
	Limiter ratelimit.Limiter
	Metrics *metrics.Metrics
	Logger  logging.Logger
	Version string
}

// Server is the public REST API
type Server struct {
	cfg     *config.Config
	db      *db.DB
	svc     *service.Service
	redis   *redis.Client
	limiter ratelimit.Limiter
	metrics *metrics.Metrics
	logger  logging.Logger
	version string
	router  *gin.Engine
	http    *http.Server
}

// NewServer creates the API server and registers its routes
func NewServer(cfg *config.Config, deps Deps) *Server {
	gin.SetMode(cfg.Server.Mode)

	s := &Server{
		cfg:     cfg,
		db:      deps.DB,
		svc:     deps.Service,
		redis:   deps.Redis,
		limiter: deps.Limiter,
		metrics: deps.Metrics,
		logger:  deps.Logger,
		version: deps.Version,
		router:  gin.New(),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(gin.Recovery())
	s.router.Use(requestID())
	s.router.Use(s.requestLogger())
	if s.metrics != nil {
		s.router.Use(s.metrics.Middleware())
	}

	// Health check (no auth)
	s.router.GET("/health", s.handleHealth)

	api := s.router.Group("/api/v1")
	api.Use(s.identify())
	api.Use(s.rateLimit())
	{
		authGroup := api.Group("/auth")
		authGroup.POST("/register", s.handleRegister)
		authGroup.POST("/login", s.handleLogin)
		authGroup.POST("/refresh", s.handleRefresh)
		authGroup.POST("/logout", s.handleLogout)

		// Browsing open internships needs no account
		api.GET("/internships", s.handleListInternships)

		protected := api.Group("")
		protected.Use(s.requireAuth())

		// Internships
		protected.POST("/internships", s.handleCreateInternship)
		protected.GET("/internships/my", s.handleListMyInternships)
		protected.GET("/internships/:id", s.handleGetInternship)
		protected.PATCH("/internships/:id/status", s.handleSetInternshipStatus)
		protected.GET("/internships/:id/applications", s.handleListInternshipApplications)
		protected.POST("/internships/:id/apply", s.handleApply)
		protected.DELETE("/internships/:id/apply", s.handleWithdraw)

		// Applications
		protected.GET("/applications/my", s.handleListMyApplications)
		protected.PATCH("/applications/:id/status", s.handleUpdateStatus)

		// Admin
		admin := protected.Group("/admin")
		admin.Use(requireRole(lifecycle.RoleAdmin))
		admin.GET("/audit-logs", s.handleListAuditLogs)
	}

	s.router.NoRoute(func(c *gin.Context) {
		writeError(c, http.StatusNotFound, service.CodeNotFound, "Route not found")
	})
}

// Handler returns the HTTP handler of the server
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves the API until Shutdown is called
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%s", s.cfg.Server.Port)
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("starting API server", map[string]interface{}{"addr": addr})
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}
