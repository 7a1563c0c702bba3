package ledger

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrInvalidOrder marks orders rejected before any ledger mutation.
var ErrInvalidOrder = errors.New("invalid order")

// InvalidOrderError explains why an order was rejected. The caller can fix
// the order and resubmit.
type InvalidOrderError struct {
	Reason     string
	ProductIDs []string
}

// Invalid builds an InvalidOrderError.
func Invalid(reason string, productIDs ...string) *InvalidOrderError {
	return &InvalidOrderError{Reason: reason, ProductIDs: productIDs}
}

func (e *InvalidOrderError) Error() string {
	if len(e.ProductIDs) == 0 {
		return fmt.Sprintf("invalid order: %s", e.Reason)
	}
	return fmt.Sprintf("invalid order: %s: %s", e.Reason, strings.Join(e.ProductIDs, ", "))
}

func (e *InvalidOrderError) Unwrap() error { return ErrInvalidOrder }

// HTTPStatus maps the error to 400.
func (e *InvalidOrderError) HTTPStatus() int { return http.StatusBadRequest }

// ErrorCode returns the API error code.
func (e *InvalidOrderError) ErrorCode() string { return "INVALID_ORDER" }
