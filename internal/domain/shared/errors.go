package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is matches any DomainError carrying the same code, so errors.Is works
// against the sentinels below even when a copy with a custom message is returned.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// CausedError pairs a caller-facing DomainError with the underlying cause.
// Error() only exposes the domain message; the cause stays reachable through
// errors.Is / errors.As for logging.
type CausedError struct {
	*DomainError
	Cause error
}

// Unwrap exposes both the domain error and its cause
func (e *CausedError) Unwrap() []error {
	return []error{e.DomainError, e.Cause}
}

// WithCause attaches cause to a domain error
func WithCause(de *DomainError, cause error) error {
	if cause == nil {
		return de
	}
	return &CausedError{DomainError: de, Cause: cause}
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
)
