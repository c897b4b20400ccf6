package errors

import (
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrorResponse is the body returned by the API for any failed request
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

// ErrorDetail holds the display message and optional diagnostics
type ErrorDetail struct {
	Display       string                 `json:"message"`
	InternalError string                 `json:"internal_error,omitempty"`
	Details       map[string]interface{} `json:"details,omitempty"`
}

// HTTPStatusFromErr maps a marked error to an HTTP status code
func HTTPStatusFromErr(err error) int {
	switch {
	case IsNotFound(err):
		return http.StatusNotFound
	case IsAlreadyExists(err):
		return http.StatusConflict
	case errors.Is(err, ErrVersionConflict):
		return http.StatusConflict
	case IsValidation(err), IsInvalidOperation(err):
		return http.StatusBadRequest
	case IsPermissionDenied(err):
		return http.StatusForbidden
	case IsUnauthorized(err):
		return http.StatusUnauthorized
	case IsHTTPClient(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// NewErrorResponse builds the API body for err. Hints are preferred as the display
// message; internal messages are only included when showInternal is set.
func NewErrorResponse(err error, showInternal bool) ErrorResponse {
	display := strings.Join(errors.GetAllHints(err), "; ")
	if display == "" {
		display = http.StatusText(HTTPStatusFromErr(err))
	}
	resp := ErrorResponse{
		Success: false,
		Error: ErrorDetail{
			Display: display,
		},
	}
	if details := GetReportableDetails(err); len(details) > 0 {
		resp.Error.Details = details
	}
	if showInternal {
		resp.Error.InternalError = err.Error()
	}
	return resp
}
