package errors

import (
	"errors"
	"fmt"
	"time"
)

// Base error types
var (
	ErrInvalidURL       = errors.New("invalid url")
	ErrNetwork          = errors.New("network error")
	ErrMissingElement   = errors.New("missing element")
	ErrMissingAttribute = errors.New("missing attribute")
	ErrLoginFailed      = errors.New("login failed")
)

// ErrorType represents the category of error
type ErrorType string

const (
	ErrorTypeInvalidURL       ErrorType = "invalid_url"
	ErrorTypeNetwork          ErrorType = "network"
	ErrorTypeMissingElement   ErrorType = "missing_element"
	ErrorTypeMissingAttribute ErrorType = "missing_attribute"
	ErrorTypeLoginFailed      ErrorType = "login_failed"
)

// RouterError is a structured error for router flow steps
type RouterError struct {
	Type      ErrorType
	Op        string // Step that failed (e.g., "probe_root", "submit_login")
	Host      string // Router origin the step ran against
	Err       error  // Underlying error
	Timestamp time.Time
}

func (e *RouterError) Error() string {
	if e.Host != "" {
		return fmt.Sprintf("%s failed on %s: %v", e.Op, e.Host, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *RouterError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is interface
func (e *RouterError) Is(target error) bool {
	if target == nil {
		return false
	}

	switch target {
	case ErrInvalidURL:
		return e.Type == ErrorTypeInvalidURL
	case ErrNetwork:
		return e.Type == ErrorTypeNetwork
	case ErrMissingElement:
		return e.Type == ErrorTypeMissingElement
	case ErrMissingAttribute:
		return e.Type == ErrorTypeMissingAttribute
	case ErrLoginFailed:
		return e.Type == ErrorTypeLoginFailed
	}

	return errors.Is(e.Err, target)
}

// NewRouterError creates a new RouterError
func NewRouterError(errorType ErrorType, op, host string, err error) *RouterError {
	return &RouterError{
		Type:      errorType,
		Op:        op,
		Host:      host,
		Err:       err,
		Timestamp: time.Now(),
	}
}

// Helper functions

// WrapInvalidURLError wraps a URL composition error with context
func WrapInvalidURLError(op, host string, err error) error {
	return NewRouterError(ErrorTypeInvalidURL, op, host, err)
}

// WrapNetworkError wraps a transport failure with context
func WrapNetworkError(op, host string, err error) error {
	return NewRouterError(ErrorTypeNetwork, op, host, err)
}

// WrapLoginError wraps a rejected login with context
func WrapLoginError(op, host string, err error) error {
	return NewRouterError(ErrorTypeLoginFailed, op, host, err)
}

// Retag rewrites the step and host of a RouterError produced deeper in the
// stack, keeping its type. Errors of any other kind are returned unchanged.
func Retag(err error, op, host string) error {
	var routerErr *RouterError
	if !errors.As(err, &routerErr) {
		return err
	}
	return NewRouterError(routerErr.Type, op, host, routerErr.Err)
}

// IsAuthError checks if an error is a rejected login
func IsAuthError(err error) bool {
	return errors.Is(err, ErrLoginFailed)
}

// IsPageLayoutError reports whether the router served a page whose markup
// does not match the expected firmware.
func IsPageLayoutError(err error) bool {
	return errors.Is(err, ErrMissingElement) || errors.Is(err, ErrMissingAttribute)
}

// IsNetworkError checks if an error came from the transport
func IsNetworkError(err error) bool {
	var routerErr *RouterError
	if errors.As(err, &routerErr) {
		return routerErr.Type == ErrorTypeNetwork
	}
	return errors.Is(err, ErrNetwork)
}
