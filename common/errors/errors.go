package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Error represents an application error
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a new Error
func New(code int, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func BadRequest(message string) *Error {
	return New(http.StatusBadRequest, message, nil)
}

func NotFound(message string) *Error {
	return New(http.StatusNotFound, message, nil)
}

// Upstream reports a failure of an external collaborator. The message is shown to the
// caller, so it should carry the upstream status when there is one.
func Upstream(message string, err error) *Error {
	return New(http.StatusBadGateway, message, err)
}

// Internal hides err behind a generic message.
func Internal(err error) *Error {
	return New(http.StatusInternalServerError, "Internal Server Error", err)
}

// As extracts an *Error from err, wrapping anything else as Internal.
func As(err error) *Error {
	var appErr *Error
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}

// Respond writes {"error": message} with the error's status. Server-side failures are
// logged with their cause.
func Respond(c *gin.Context, logger *zap.Logger, err error) {
	appErr := As(err)
	if appErr.Code >= http.StatusInternalServerError && logger != nil {
		logger.Error("Request failed",
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", appErr.Code),
			zap.String("request_id", c.GetString("request_id")),
			zap.Error(appErr),
		)
	}
	c.JSON(appErr.Code, gin.H{"error": appErr.Message})
}
