package prophet

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Error type tags carried by APIError.
const (
	ErrorTypeAuthorization = "authorization_error"
	ErrorTypeNotFound      = "not_found"
	ErrorTypeAPI           = "api_error"
)

// Static errors that can be wrapped with context.
var (
	ErrConfigRequired       = errors.New("config is required")
	ErrBaseURLRequired      = errors.New("base URL is required")
	ErrClientIDRequired     = errors.New("client ID is required")
	ErrClientSecretRequired = errors.New("client secret is required")
	ErrNoMoreItems          = errors.New("no more items")
	ErrDeploymentNotFound   = errors.New("deployment not found")
	ErrInstancesRequired    = errors.New("at least one instance ID is required")
	ErrPageSizeOutOfRange   = errors.New("page size out of range")
	ErrNoFieldSpecified     = errors.New("no field specified")
	ErrInvalidSortOrder     = errors.New("sort order must be 'asc' or 'desc'")
	ErrNonPositiveRelative  = errors.New("relative time value must be positive")
	ErrInvalidTimestamp     = errors.New("invalid timestamp")
	ErrNameRequired         = errors.New("name is required")
	ErrHandleRequired       = errors.New("handle is required")
	ErrParentIDRequired     = errors.New("parent_id is required")
	ErrCustomerIDRequired   = errors.New("customer_id is required")
)

// ConfigurationError reports an invalid client setup.
type ConfigurationError struct {
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration error: %s: %v", e.Message, e.Err)
	}

	return "configuration error: " + e.Message
}

// Unwrap returns the underlying error.
func (e *ConfigurationError) Unwrap() error { return e.Err }

// AuthenticationError is returned when a token cannot be obtained or a call is
// rejected with 401. Code carries the server supplied error code when present.
type AuthenticationError struct {
	Message string
	Code    string
	Details map[string]interface{}
	Err     error
}

// Error implements the error interface.
func (e *AuthenticationError) Error() string {
	msg := "authentication failed: " + e.Message
	if e.Code != "" {
		msg += " (code: " + e.Code + ")"
	}

	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
}

// Unwrap returns the underlying error.
func (e *AuthenticationError) Unwrap() error { return e.Err }

// ValidationError reports a malformed request, either detected locally before
// sending or reported by the server with a 400.
type ValidationError struct {
	Message string
	Field   string
	Details map[string]interface{}
	Err     error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
	}

	return "validation failed: " + e.Message
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error { return e.Err }

// APIError represents any other non-2xx response.
type APIError struct {
	Message    string
	StatusCode int
	ErrorType  string
	Details    map[string]interface{}
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.ErrorType != "" {
		return fmt.Sprintf("%s (status: %d, type: %s)", e.Message, e.StatusCode, e.ErrorType)
	}

	return fmt.Sprintf("%s (status: %d)", e.Message, e.StatusCode)
}

// ConnectionError reports that the server could not be reached.
type ConnectionError struct {
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ConnectionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

// Unwrap returns the underlying error.
func (e *ConnectionError) Unwrap() error { return e.Err }

// TimeoutError reports that a request exceeded its deadline.
type TimeoutError struct {
	Message string
	Err     error
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

// Unwrap returns the underlying error.
func (e *TimeoutError) Unwrap() error { return e.Err }

// PQLSyntaxError is reported by Query.Build for an invalid builder sequence.
type PQLSyntaxError struct {
	Message string
	Query   string
	Err     error
}

// Error implements the error interface.
func (e *PQLSyntaxError) Error() string {
	if e.Query != "" {
		return fmt.Sprintf("PQL syntax error: %s (query: %q)", e.Message, e.Query)
	}

	return "PQL syntax error: " + e.Message
}

// Unwrap returns the underlying error.
func (e *PQLSyntaxError) Unwrap() error { return e.Err }

// ParseErrorResponse maps a non-2xx status and its body onto the error taxonomy.
// The body is usually {"error": ..., "code": ...}; "error" may be a plain
// string or an object with message, details and field keys.
func ParseErrorResponse(statusCode int, body []byte) error {
	details := map[string]interface{}{}
	if len(body) > 0 && json.Unmarshal(body, &details) != nil {
		details = map[string]interface{}{"body": string(body)}
	}

	message, errObj := errorMessage(details)
	code, _ := details["code"].(string)

	switch statusCode {
	case http.StatusUnauthorized:
		return &AuthenticationError{
			Message: orDefault(message, "Authentication failed"),
			Code:    code,
			Details: details,
		}
	case http.StatusBadRequest:
		verr := &ValidationError{
			Message: orDefault(message, "Validation failed"),
			Details: details,
		}

		if errObj != nil {
			verr.Field, _ = errObj["field"].(string)
			if inner, ok := errObj["details"].(map[string]interface{}); ok {
				verr.Details = inner
			}
		}

		return verr
	case http.StatusForbidden:
		return &APIError{
			Message:    orDefault(message, "Unauthorized"),
			StatusCode: statusCode,
			ErrorType:  ErrorTypeAuthorization,
			Details:    details,
		}
	case http.StatusNotFound:
		return &APIError{
			Message:    orDefault(message, "Not found"),
			StatusCode: statusCode,
			ErrorType:  ErrorTypeNotFound,
			Details:    details,
		}
	default:
		return &APIError{
			Message:    orDefault(message, fmt.Sprintf("Request failed with status %d", statusCode)),
			StatusCode: statusCode,
			ErrorType:  orDefault(code, ErrorTypeAPI),
			Details:    details,
		}
	}
}

func errorMessage(details map[string]interface{}) (string, map[string]interface{}) {
	switch v := details["error"].(type) {
	case string:
		return v, nil
	case map[string]interface{}:
		msg, _ := v["message"].(string)

		return msg, v
	default:
		return "", nil
	}
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}

	return value
}

// IsUnauthorized checks if the error is an authentication failure.
func IsUnauthorized(err error) bool {
	authErr := &AuthenticationError{}

	return errors.As(err, &authErr)
}

// IsForbidden checks if the error is a 403 response.
func IsForbidden(err error) bool {
	return hasStatus(err, http.StatusForbidden)
}

// IsNotFound checks if the error is a 404 response or a missing deployment.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrDeploymentNotFound) {
		return true
	}

	return hasStatus(err, http.StatusNotFound)
}

// IsValidation checks if the error is a validation failure.
func IsValidation(err error) bool {
	valErr := &ValidationError{}

	return errors.As(err, &valErr)
}

// IsTimeout checks if the error is a timeout.
func IsTimeout(err error) bool {
	timeoutErr := &TimeoutError{}

	return errors.As(err, &timeoutErr)
}

// IsConnection checks if the error is a transport level failure.
func IsConnection(err error) bool {
	connErr := &ConnectionError{}

	return errors.As(err, &connErr)
}

func hasStatus(err error, status int) bool {
	apiErr := &APIError{}
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == status
	}

	return false
}
