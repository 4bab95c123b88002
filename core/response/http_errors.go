package response

import "net/http"

// HTTPError represents a structured error response that implements the error interface.
// A handler returning an HTTPError gets its status and message instead of a 500.
type HTTPError struct {
	Status  int            `json:"-"`                 // HTTP status code (not in JSON)
	Code    string         `json:"code"`              // Machine-readable error code
	Message string         `json:"message"`           // Human-readable message
	Details map[string]any `json:"details,omitempty"` // Optional context
}

// NewHTTPError creates an error with the given status and message.
func NewHTTPError(status int, message string) HTTPError {
	if message == "" {
		message = http.StatusText(status)
	}
	return HTTPError{Status: status, Code: codeFor(status), Message: message}
}

// Error implements the error interface.
func (e HTTPError) Error() string {
	return e.Message
}

// StatusCode returns the HTTP status code for the error.
func (e HTTPError) StatusCode() int {
	return e.Status
}

// WithMessage returns a copy of the error with a custom message.
func (e HTTPError) WithMessage(message string) HTTPError {
	e.Message = message
	return e
}

// WithDetails returns a copy of the error with additional details.
func (e HTTPError) WithDetails(details map[string]any) HTTPError {
	e.Details = details
	return e
}

// Predefined HTTP errors using http.StatusText for default messages.
var (
	ErrBadRequest            = NewHTTPError(http.StatusBadRequest, "")
	ErrUnauthorized          = NewHTTPError(http.StatusUnauthorized, "")
	ErrForbidden             = NewHTTPError(http.StatusForbidden, "")
	ErrNotFound              = NewHTTPError(http.StatusNotFound, "")
	ErrMethodNotAllowed      = NewHTTPError(http.StatusMethodNotAllowed, "")
	ErrRequestEntityTooLarge = NewHTTPError(http.StatusRequestEntityTooLarge, "")
	ErrTooManyRequests       = NewHTTPError(http.StatusTooManyRequests, "")
	ErrInternalServerError   = NewHTTPError(http.StatusInternalServerError, "")
	ErrServiceUnavailable    = NewHTTPError(http.StatusServiceUnavailable, "")
)

func codeFor(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case http.StatusRequestEntityTooLarge:
		return "request_entity_too_large"
	case http.StatusTooManyRequests:
		return "too_many_requests"
	case http.StatusInternalServerError:
		return "internal_server_error"
	case http.StatusServiceUnavailable:
		return "service_unavailable"
	default:
		return "error"
	}
}
