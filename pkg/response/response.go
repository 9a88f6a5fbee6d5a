package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// RequestIDKey is the gin context key the request id middleware fills.
const RequestIDKey = "request_id"

// APIResponse is the envelope of every /api endpoint.
type APIResponse[T any] struct {
	Status    int       `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id"`
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Data      T         `json:"data,omitempty"`
	Meta      any       `json:"meta,omitempty"`
	Error     any       `json:"error,omitempty"`
}

func envelope[T any](ctx *gin.Context, status int, ok bool, message string) APIResponse[T] {
	return APIResponse[T]{
		Status:    status,
		Timestamp: time.Now(),
		RequestID: ctx.GetString(RequestIDKey),
		Success:   ok,
		Message:   message,
	}
}

// Success writes the envelope with the given status and returns it.
func Success[T any](ctx *gin.Context, status int, data T, message string, meta any) APIResponse[T] {
	if status == 0 {
		status = http.StatusOK
	}
	res := envelope[T](ctx, status, true, message)
	res.Data = data
	res.Meta = meta
	ctx.JSON(status, res)
	return res
}

// Error writes the error envelope and aborts the handler chain.
func Error[T any](ctx *gin.Context, status int, message string, err any) APIResponse[T] {
	if status == 0 {
		status = http.StatusBadRequest
	}
	res := envelope[T](ctx, status, false, message)
	res.Error = err
	ctx.AbortWithStatusJSON(status, res)
	return res
}

// LegacyError is the flat error body of the root profile routes, which
// predate the envelope and are read by the existing dashboard client.
type LegacyError struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}

// Legacy writes a LegacyError and aborts the handler chain.
func Legacy(ctx *gin.Context, status int, message string, details map[string]string) {
	ctx.AbortWithStatusJSON(status, LegacyError{Error: message, Details: details})
}
