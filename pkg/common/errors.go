package common

import (
	"errors"
	"net/http"
)

// Common error types
var (
	ErrNotFound       = errors.New("resource not found")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")
	ErrValidation     = errors.New("validation error")
	ErrUnavailable    = errors.New("upstream unavailable")
)

// AppError represents an application error with HTTP status code
type AppError struct {
	Code      int    `json:"code"`
	ErrorCode string `json:"error_code,omitempty"`
	Message   string `json:"message"`
	Err       error  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap exposes the wrapped cause to errors.Is / errors.As.
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewNotFoundError(message string, err error) *AppError {
	if err == nil {
		err = ErrNotFound
	}
	return &AppError{Code: http.StatusNotFound, ErrorCode: "NOT_FOUND", Message: message, Err: err}
}

func NewBadRequestError(message string, err error) *AppError {
	if err == nil {
		err = ErrBadRequest
	}
	return &AppError{Code: http.StatusBadRequest, ErrorCode: "BAD_REQUEST", Message: message, Err: err}
}

func NewValidationError(message string) *AppError {
	return &AppError{Code: http.StatusBadRequest, ErrorCode: "VALIDATION_ERROR", Message: message, Err: ErrValidation}
}

func NewUnprocessableError(message string, err error) *AppError {
	return &AppError{Code: http.StatusUnprocessableEntity, ErrorCode: "UNPROCESSABLE", Message: message, Err: err}
}

func NewUnavailableError(message string, err error) *AppError {
	if err == nil {
		err = ErrUnavailable
	}
	return &AppError{Code: http.StatusBadGateway, ErrorCode: "UPSTREAM_UNAVAILABLE", Message: message, Err: err}
}

func NewInternalError(message string, err error) *AppError {
	if err == nil {
		err = ErrInternalServer
	}
	return &AppError{Code: http.StatusInternalServerError, ErrorCode: "INTERNAL", Message: message, Err: err}
}
