package api

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sorenmh/nextintern/internal/internd/auth"
	"github.com/sorenmh/nextintern/internal/internd/events"
	"github.com/sorenmh/nextintern/internal/internd/service"
	"github.com/sorenmh/nextintern/internal/lifecycle"
)

// Context keys
const (
	actorKey     = "actor"
	claimsKey    = "claims"
	authErrKey   = "auth_error"
	requestIDKey = "request_id"
)

// Rate limit response headers
const (
	HeaderRateLimitRemaining  = "X-Rate-Limit-Remaining"
	HeaderRateLimitRetryAfter = "X-Rate-Limit-Retry-After-Seconds"
	HeaderRequestID           = "X-Request-ID"
)

// requestID propagates or assigns a request ID and makes it the event trace ID
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(requestIDKey, id)
		c.Header(HeaderRequestID, id)
		c.Request = c.Request.WithContext(events.WithTraceID(c.Request.Context(), id))
		c.Next()
	}
}

// requestLogger logs every request once it has been handled
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := map[string]interface{}{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"client_ip":  c.ClientIP(),
			"request_id": c.GetString(requestIDKey),
		}
		if actor, ok := actorFrom(c); ok {
			fields["user_id"] = actor.UserID
		}

		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			s.logger.Error("request", fields)
		case c.Writer.Status() >= http.StatusBadRequest:
			s.logger.Warn("request", fields)
		default:
			s.logger.Info("request", fields)
		}
	}
}

// identify resolves a bearer token when one is present. It never rejects;
// requireAuth decides whether an identity is needed.
func (s *Server) identify() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			c.Set(authErrKey, errors.New("invalid authorization format"))
			c.Next()
			return
		}

		actor, claims, err := s.svc.Authenticate(c.Request.Context(), parts[1], c.ClientIP())
		if err != nil {
			c.Set(authErrKey, err)
			c.Next()
			return
		}

		c.Set(actorKey, actor)
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// requireAuth rejects requests without a valid bearer token
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := actorFrom(c); ok {
			c.Next()
			return
		}

		if v, ok := c.Get(authErrKey); ok {
			var svcErr *service.Error
			if err, _ := v.(error); errors.As(err, &svcErr) && svcErr.Code != service.CodeUnauthorized {
				s.respondError(c, svcErr)
				return
			}
			writeError(c, http.StatusUnauthorized, service.CodeUnauthorized, "Invalid or expired token")
			return
		}
		writeError(c, http.StatusUnauthorized, service.CodeUnauthorized, "Authorization header is required")
	}
}

// requireRole rejects authenticated callers without the given role
func requireRole(role lifecycle.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if actor, ok := actorFrom(c); ok && actor.Role == role {
			c.Next()
			return
		}
		writeError(c, http.StatusForbidden, service.CodeForbidden, "Access denied")
	}
}

// rateLimit budgets requests per user, or per client IP for anonymous
// callers. Limiter failures let the request through.
func (s *Server) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.limiter == nil {
			c.Next()
			return
		}

		key := "ip:" + c.ClientIP()
		if actor, ok := actorFrom(c); ok {
			key = "user:" + actor.UserID
		}

		res, err := s.limiter.Allow(c.Request.Context(), key)
		if err != nil {
			s.logger.WithError(err).Warn("rate limiter unavailable, allowing request", map[string]interface{}{"key": key})
		}

		c.Header(HeaderRateLimitRemaining, strconv.Itoa(res.Remaining))
		if !res.Allowed {
			retry := int(math.Ceil(res.RetryAfter.Seconds()))
			if retry < 1 {
				retry = 1
			}
			c.Header(HeaderRateLimitRetryAfter, strconv.Itoa(retry))
			if s.metrics != nil {
				s.metrics.RateLimitRejections.Inc()
			}
			writeError(c, http.StatusTooManyRequests, service.CodeRateLimited, "Too many requests, try again later")
			return
		}
		c.Next()
	}
}

func actorFrom(c *gin.Context) (service.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return service.Actor{}, false
	}
	actor, ok := v.(service.Actor)
	return actor, ok
}

func claimsFrom(c *gin.Context) *auth.Claims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*auth.Claims)
	return claims
}
