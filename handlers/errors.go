package handlers

import (
	"errors"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lessonbook-server-go/auth"
	"lessonbook-server-go/db"
)

// APIError is an error with a client-facing status code.
type APIError struct {
	Status  int
	Message string
	Details []string
}

func (e *APIError) Error() string {
	return e.Message
}

func badRequest(msg string, details ...string) *APIError {
	return &APIError{Status: http.StatusBadRequest, Message: msg, Details: details}
}

func unauthorized(msg string) *APIError {
	return &APIError{Status: http.StatusUnauthorized, Message: msg}
}

func forbidden(msg string) *APIError {
	return &APIError{Status: http.StatusForbidden, Message: msg}
}

func notFound(msg string) *APIError {
	return &APIError{Status: http.StatusNotFound, Message: msg}
}

func validationFailed(details []string) *APIError {
	return badRequest("Validation failed", details...)
}

// fail writes the error envelope. Anything that is not an *APIError is an
// internal failure: it is logged and reported as a generic 500.
func (h *APIHandler) fail(c *gin.Context, err error) {
	var apiErr *APIError
	switch {
	case errors.As(err, &apiErr):
	case errors.Is(err, auth.ErrMissingCredential):
		apiErr = unauthorized("Access code required")
	case errors.Is(err, auth.ErrInvalidCredential):
		apiErr = unauthorized("Invalid access code")
	case errors.Is(err, db.ErrNotFound):
		apiErr = notFound("Not found")
	default:
		h.Log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		h.internalError(c, nil)
		return
	}

	body := gin.H{"error": apiErr.Message}
	if len(apiErr.Details) > 0 {
		body["details"] = apiErr.Details
	}
	c.AbortWithStatusJSON(apiErr.Status, body)
}

// internalError writes the 500 envelope, with a stack trace in development.
func (h *APIHandler) internalError(c *gin.Context, stack []byte) {
	body := gin.H{"error": "Internal server error"}
	if h.Config.IsDevelopment() {
		if stack == nil {
			stack = debug.Stack()
		}
		body["stack"] = string(stack)
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, body)
}

// recovery turns panics into the 500 envelope.
func (h *APIHandler) recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		h.Log.Error("panic recovered",
			zap.Any("panic", recovered),
			zap.String("path", c.Request.URL.Path),
		)
		h.internalError(c, debug.Stack())
	})
}
