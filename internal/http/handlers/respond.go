package handlers

import (
	"log/slog"
	"net/http"

	"github.com/geocoder89/rentalhub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

// Envelope is the one response shape every endpoint returns. Only the auth
// guards use a non-200 status; every other failure is success=false.
type Envelope struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	Data      any    `json:"data,omitempty"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

const msgDatabaseError = "Database error"

func requestIDFrom(ctx *gin.Context) string {
	v, ok := ctx.Get(middlewares.CtxRequestID)

	if ok {
		s, ok := v.(string)
		if ok && s != "" {
			return s
		}
	}

	// fallback header
	return ctx.GetHeader("X-Request-Id")
}

func RespondOK(ctx *gin.Context, message string, data any) {
	ctx.JSON(http.StatusOK, Envelope{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// RespondFail reports a validation or conflict failure the client can act on.
func RespondFail(ctx *gin.Context, message string, details any) {
	ctx.JSON(http.StatusOK, Envelope{
		Success:   false,
		Message:   message,
		Details:   details,
		RequestID: requestIDFrom(ctx),
	})
}

// RespondStorageError logs the real cause and tells the client only that the
// database failed.
func RespondStorageError(ctx *gin.Context, op string, err error) {
	slog.Default().ErrorContext(ctx.Request.Context(), "storage error",
		"op", op,
		"err", err,
		"request_id", requestIDFrom(ctx),
	)
	RespondFail(ctx, msgDatabaseError, nil)
}

func RespondUnauthorized(ctx *gin.Context, message string) {
	ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success":  false,
		"message":  message,
		"redirect": "login.html",
	})
}

func RespondForbidden(ctx *gin.Context, message string) {
	ctx.AbortWithStatusJSON(http.StatusForbidden, Envelope{
		Success: false,
		Message: message,
	})
}
