package common

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the envelope of every /api/v1 JSON answer.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

// ErrorInfo contains error details
type ErrorInfo struct {
	Code      int    `json:"code"`
	ErrorCode string `json:"error_code,omitempty"`
	Message   string `json:"message"`
}

// Meta carries user-facing notices next to the payload, e.g. the
// "no trails nearby" fallback message.
type Meta struct {
	Notices []string `json:"notices,omitempty"`
}

// SuccessResponse sends a 200 with data.
func SuccessResponse(c *gin.Context, data interface{}) {
	SuccessWithNotices(c, data)
}

// SuccessWithNotices sends a 200 with data. Empty notices are dropped and
// meta is omitted when none remain.
func SuccessWithNotices(c *gin.Context, data interface{}, notices ...string) {
	resp := Response{Success: true, Data: data}
	for _, n := range notices {
		if n == "" {
			continue
		}
		if resp.Meta == nil {
			resp.Meta = &Meta{}
		}
		resp.Meta.Notices = append(resp.Meta.Notices, n)
	}
	c.JSON(http.StatusOK, resp)
}

// ErrorResponse sends an error without a machine-readable code.
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	AppErrorResponse(c, &AppError{Code: statusCode, Message: message})
}

// AppErrorResponse sends an AppError response
func AppErrorResponse(c *gin.Context, err *AppError) {
	c.JSON(err.Code, Response{
		Error: &ErrorInfo{
			Code:      err.Code,
			ErrorCode: err.ErrorCode,
			Message:   err.Message,
		},
	})
}
