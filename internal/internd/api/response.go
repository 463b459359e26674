package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sorenmh/nextintern/internal/internd/service"
)

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody is the code and message of an API error
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError writes an error envelope and aborts the handler chain
func writeError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: ErrorBody{Code: code, Message: message}})
}

// respondError maps a service error onto the error envelope. Anything that is
// not a *service.Error is logged and reported as an internal error.
func (s *Server) respondError(c *gin.Context, err error) {
	var svcErr *service.Error
	if !errors.As(err, &svcErr) {
		s.logger.WithError(err).Error("unhandled error", map[string]interface{}{"path": c.FullPath()})
		writeError(c, http.StatusInternalServerError, service.CodeInternal, "Internal server error")
		return
	}

	status := svcErr.HTTPStatus()
	if status >= http.StatusInternalServerError {
		s.logger.WithError(err).Error("request failed", map[string]interface{}{
			"path":   c.FullPath(),
			"method": c.Request.Method,
		})
	}
	writeError(c, status, svcErr.Code, svcErr.Message)
}
