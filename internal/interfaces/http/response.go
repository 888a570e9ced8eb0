package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/expense-desk/internal/application/service"
)

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func respond(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Response{Success: true, Data: data})
}

func abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, Response{Success: false, Error: msg})
}

// statusFor maps application errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrNotFoundOrUnauthorized),
		errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrMissingReason),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrInvalidDate),
		errors.Is(err, service.ErrTextTooLong),
		errors.Is(err, service.ErrEmptyReceipt),
		errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrInvalidRole):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUnsupportedReceipt):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, service.ErrReceiptTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, service.ErrAnalysisFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as an error envelope. Internal errors are logged and not echoed.
func respondError(c *gin.Context, logger Logger, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error("Request failed", "error", err, "path", c.Request.URL.Path)
		msg = "internal server error"
	}
	c.JSON(status, Response{Success: false, Error: msg})
}
