package common

import (
	"errors"
	"net/http"

	"github.com/ahearnzach3/Where2Run/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HandleServiceError writes err as a JSON error response and reports
// whether it did so. AppErrors keep their status; anything else becomes a
// logged 500 with fallbackMessage. 5xx errors are attached to the gin
// context for error tracking.
//
// Usage:
//
//	result, err := h.service.Loop(ctx, req)
//	if HandleServiceError(c, err, "failed to generate route") {
//	    return
//	}
func HandleServiceError(c *gin.Context, err error, fallbackMessage string) bool {
	if err == nil {
		return false
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		if appErr.Code >= http.StatusInternalServerError {
			logger.ErrorContext(c.Request.Context(), fallbackMessage, zap.Error(err))
			_ = c.Error(err)
		}
		AppErrorResponse(c, appErr)
		return true
	}

	logger.ErrorContext(c.Request.Context(), fallbackMessage, zap.Error(err))
	_ = c.Error(err)
	AppErrorResponse(c, NewInternalError(fallbackMessage, err))
	return true
}

// BindJSON binds the JSON body and answers 400 on failure.
// Returns true on success, false on failure (response already sent).
func BindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return false
	}
	return true
}

// BindQuery binds query parameters and answers 400 on failure.
func BindQuery(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return false
	}
	return true
}

// NoRouteHandler answers unknown paths with the standard error envelope.
func NoRouteHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ErrorResponse(c, http.StatusNotFound, "route not found")
	}
}

// NoMethodHandler answers unsupported methods with the standard error envelope.
func NoMethodHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ErrorResponse(c, http.StatusMethodNotAllowed, "method not allowed")
	}
}
