package common

import (
	"encoding/json"
	"errors"
	"net/http"
)

// AppError represents an error with an attached code and HTTP status.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
	Details    any
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap allows errors.Is/As to inspect the underlying error.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewAppError constructs an AppError.
func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// BadRequest builds a 400 AppError pointing at the offending field.
func BadRequest(field, message string, err error) *AppError {
	appErr := NewAppError("BAD_REQUEST", message, http.StatusBadRequest, err)
	if field != "" {
		appErr.Details = map[string]any{"field": field}
	}
	return appErr
}

// StatusCoder is implemented by domain errors that know how they surface over HTTP.
type StatusCoder interface {
	error
	HTTPStatus() int
	ErrorCode() string
}

// WriteError renders err with the canonical error shape. AppError wins over
// StatusCoder; anything else is reported as an opaque internal error.
func WriteError(w http.ResponseWriter, err error) {
	if err == nil {
		JSONError(w, http.StatusInternalServerError, "INTERNAL", "unknown error", nil)
		return
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		code := appErr.Code
		if code == "" {
			code = "INTERNAL"
		}
		message := appErr.Message
		if message == "" {
			message = "internal error"
		}
		details := appErr.Details
		var syntaxErr *json.SyntaxError
		if details == nil && errors.As(appErr.Err, &syntaxErr) {
			details = map[string]any{"offset": syntaxErr.Offset}
		}
		JSONError(w, status, code, message, details)
		return
	}
	var coded StatusCoder
	if errors.As(err, &coded) {
		JSONError(w, coded.HTTPStatus(), coded.ErrorCode(), coded.Error(), nil)
		return
	}
	JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
}
