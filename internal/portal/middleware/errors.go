package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/folio-app/folio/pkg/portal"
)

// ErrorResponse is the JSON body of every API error
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// WriteError aborts the request with status and an ErrorResponse body
func WriteError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    code,
	})
}

// StatusFor maps a portal error type to an HTTP status
func StatusFor(err error) int {
	switch {
	case portal.IsValidationError(err):
		return http.StatusBadRequest
	case portal.IsNotFoundError(err):
		return http.StatusNotFound
	case portal.IsUnauthorizedError(err):
		return http.StatusUnauthorized
	case portal.IsPermissionError(err):
		return http.StatusForbidden
	case portal.IsConflictError(err):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// Fail writes err as an API error. Internal failures are recorded on the gin
// context for the request logger and answered with a generic message.
func Fail(c *gin.Context, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		c.Error(err)
		WriteError(c, status, "INTERNAL_ERROR", "internal server error")
		return
	}

	code, message := "ERROR", err.Error()
	var pe *portal.PortalError
	if errors.As(err, &pe) {
		code, message = pe.Code, pe.Message
	}
	WriteError(c, status, code, message)
}
