// Package httpx carries the response and error envelopes shared by every
// endpoint, plus the status taxonomy handlers translate service errors into.
package httpx

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the uniform success envelope.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

// ErrorResponse is the uniform failure envelope.
type ErrorResponse struct {
	StatusCode int      `json:"statusCode"`
	Message    string   `json:"message"`
	Success    bool     `json:"success"`
	Errors     []string `json:"errors"`
}

// Error is a typed error carrying the HTTP status it maps to.
type Error struct {
	Status  int
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

func newError(status int, message string, cause error) *Error {
	return &Error{Status: status, Message: message, cause: cause}
}

func BadRequest(message string) *Error { return newError(http.StatusBadRequest, message, nil) }

func Unauthorized(message string) *Error { return newError(http.StatusUnauthorized, message, nil) }

func NotFound(message string) *Error { return newError(http.StatusNotFound, message, nil) }

func Conflict(message string) *Error { return newError(http.StatusConflict, message, nil) }

// Wrap attaches a cause while keeping the outward status and message.
func Wrap(status int, message string, cause error) *Error {
	return newError(status, message, cause)
}

// Respond writes the success envelope.
func Respond(c *gin.Context, status int, data any, message string) {
	c.JSON(status, Response{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    status < http.StatusBadRequest,
	})
}

// RespondError writes the failure envelope. Unrecognized errors become 500s
// with a generic message so internals never leak to clients.
func RespondError(c *gin.Context, err error) {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		apiErr = newError(http.StatusInternalServerError, "internal server error", err)
	}

	c.AbortWithStatusJSON(apiErr.Status, ErrorResponse{
		StatusCode: apiErr.Status,
		Message:    apiErr.Message,
		Success:    false,
		Errors:     []string{},
	})
}
