package errors

import "fmt"

// ErrorCode identifies a Parley error category.
type ErrorCode string

const (
	// State and request errors
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST" // 400
	ErrNotFound       ErrorCode = "NOT_FOUND"       // 404
	ErrInternal       ErrorCode = "INTERNAL"        // 500

	// AI task client taxonomy
	ErrMissingConfig ErrorCode = "MISSING_CONFIG" // endpoint or model not configured
	ErrNetwork       ErrorCode = "NETWORK_ERROR"  // transport failed before a response
	ErrTimeout       ErrorCode = "TIMEOUT"        // request cancelled or deadline exceeded
	ErrUnauthorized  ErrorCode = "UNAUTHORIZED"   // 401/403 from the model endpoint
	ErrBadRequest    ErrorCode = "BAD_REQUEST"    // 400 from the model endpoint
	ErrServer        ErrorCode = "SERVER_ERROR"   // >=500 from the model endpoint
	ErrUnknown       ErrorCode = "UNKNOWN"        // any other non-2xx

	// Backup transport
	ErrSyncFailed ErrorCode = "SYNC_FAILED"
)

// AssistError is a structured error with a code and optional details payload.
type AssistError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *AssistError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid parameters.
func NewInvalidRequest(msg string) *AssistError {
	return &AssistError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for a missing conversation, row, or tag.
func NewNotFound(identifier string) *AssistError {
	return &AssistError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *AssistError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &AssistError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// NewMissingConfig creates an error for a missing model endpoint or model name.
func NewMissingConfig(msg string) *AssistError {
	return &AssistError{
		Code:    ErrMissingConfig,
		Status:  400,
		Message: msg,
	}
}

// NewNetwork creates an error for a transport failure before any HTTP response.
func NewNetwork(err error) *AssistError {
	e := &AssistError{
		Code:    ErrNetwork,
		Status:  502,
		Message: "network failure during AI request",
	}
	if err != nil {
		e.Details = map[string]any{"cause": err.Error()}
	}
	return e
}

// NewTimeout creates an error for a cancelled or timed-out AI request.
func NewTimeout() *AssistError {
	return &AssistError{
		Code:    ErrTimeout,
		Status:  408,
		Message: "AI request cancelled or timed out",
	}
}

// NewUnauthorized creates an error for a 401/403 from the model endpoint.
func NewUnauthorized() *AssistError {
	return &AssistError{
		Code:    ErrUnauthorized,
		Status:  401,
		Message: "model endpoint rejected credentials; check the API key",
	}
}

// NewBadRequest creates an error for a 400 from the model endpoint.
// The response body, when available, is captured in Details.
func NewBadRequest(body string) *AssistError {
	e := &AssistError{
		Code:    ErrBadRequest,
		Status:  400,
		Message: "model endpoint rejected the request parameters",
	}
	if body != "" {
		e.Details = map[string]any{"body": body}
	}
	return e
}

// NewServer creates an error for a >=500 from the model endpoint.
func NewServer() *AssistError {
	return &AssistError{
		Code:    ErrServer,
		Status:  502,
		Message: "model endpoint is temporarily unavailable; retry later",
	}
}

// NewUnknown creates an error for any other non-2xx model endpoint response.
func NewUnknown(status int, body string) *AssistError {
	e := &AssistError{
		Code:    ErrUnknown,
		Status:  502,
		Message: fmt.Sprintf("AI request failed (%d)", status),
		Details: map[string]any{"upstream_status": status},
	}
	if body != "" {
		e.Details["body"] = body
	}
	return e
}

// NewSyncFailed creates an error for a failed backup round-trip.
func NewSyncFailed(msg string) *AssistError {
	return &AssistError{
		Code:    ErrSyncFailed,
		Status:  502,
		Message: msg,
	}
}

// Is checks if an error is an AssistError with the given code.
func Is(err error, code ErrorCode) bool {
	if aErr, ok := err.(*AssistError); ok {
		return aErr.Code == code
	}
	return false
}
