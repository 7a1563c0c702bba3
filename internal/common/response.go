package common

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"

	validator "github.com/go-playground/validator/v10"
)

// ErrorBody represents a consistent error payload returned by the API.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// JSON writes the provided value to the response writer as JSON.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// JSONError renders an error response using the canonical error shape.
func JSONError(w http.ResponseWriter, status int, code, message string, details any) {
	JSON(w, status, map[string]any{
		"error": ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func payloadValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// DecodeJSON decodes the request body into dst and runs struct validation.
// Failures are returned as 400 AppErrors listing the offending fields.
func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return BadRequest("", "request body is required", nil)
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return BadRequest("", "invalid payload", err)
	}
	if err := payloadValidator().Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]map[string]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, map[string]string{
					"field": fe.Namespace(),
					"rule":  fe.Tag(),
				})
			}
			appErr := BadRequest("", "validation failed", err)
			appErr.Details = map[string]any{"fields": fields}
			return appErr
		}
		return BadRequest("", "invalid payload", err)
	}
	return nil
}
