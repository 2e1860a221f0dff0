package services

import (
	"errors"
	"fmt"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	ErrorTypeValidation  ErrorType = "validation"
	ErrorTypeAuth        ErrorType = "auth"
	ErrorTypeTimeout     ErrorType = "timeout"
	ErrorTypeUnreachable ErrorType = "unreachable"
	ErrorTypeProvider    ErrorType = "provider"
	ErrorTypeParse       ErrorType = "parse"
	ErrorTypeInvariant   ErrorType = "invariant"
	ErrorTypePrompt      ErrorType = "prompt"
	ErrorTypeRateLimit   ErrorType = "rate_limit"
	ErrorTypeInternal    ErrorType = "internal"
)

// DomainError represents a structured error with additional context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Details map[string]interface{}
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// WithDetail adds a detail to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

// Sentinel values for errors.Is comparisons. Only the Type is compared.
var (
	ErrInvalidInput        = NewDomainError(ErrorTypeValidation, "invalid input", nil)
	ErrAuth                = NewDomainError(ErrorTypeAuth, "LLM provider rejected credentials", nil)
	ErrProviderTimeout     = NewDomainError(ErrorTypeTimeout, "LLM provider timeout", nil)
	ErrProviderUnreachable = NewDomainError(ErrorTypeUnreachable, "LLM provider unreachable", nil)
	ErrProvider            = NewDomainError(ErrorTypeProvider, "LLM provider error", nil)
	ErrParse               = NewDomainError(ErrorTypeParse, "malformed model reply", nil)
	ErrInvariant           = NewDomainError(ErrorTypeInvariant, "assignment invariant violated", nil)
	ErrUnsafePrompt        = NewDomainError(ErrorTypePrompt, "prompt rejected", nil)
	ErrRateLimited         = NewDomainError(ErrorTypeRateLimit, "LLM call budget exhausted", nil)
	ErrInternal            = NewDomainError(ErrorTypeInternal, "internal server error", nil)
)

// NewValidationError creates a validation error carrying per-field messages
func NewValidationError(message string, fields map[string]string) *DomainError {
	err := NewDomainError(ErrorTypeValidation, message, nil)
	for field, msg := range fields {
		err.WithDetail(field, msg)
	}
	return err
}

// NewParseError creates a parse error for a rejected model reply
func NewParseError(format string, args ...interface{}) *DomainError {
	return NewDomainError(ErrorTypeParse, fmt.Sprintf(format, args...), nil)
}

// NewInvariantError creates an invariant violation error
func NewInvariantError(format string, args ...interface{}) *DomainError {
	return NewDomainError(ErrorTypeInvariant, fmt.Sprintf(format, args...), nil)
}

// Error type checking helper functions

func isType(err error, errType ErrorType) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == errType
	}
	return false
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return isType(err, ErrorTypeValidation)
}

// IsAuthError checks if an error is a provider credential error
func IsAuthError(err error) bool {
	return isType(err, ErrorTypeAuth)
}

// IsTimeoutError checks if an error is a provider timeout
func IsTimeoutError(err error) bool {
	return isType(err, ErrorTypeTimeout)
}

// IsUnreachableError checks if an error is a connection failure
func IsUnreachableError(err error) bool {
	return isType(err, ErrorTypeUnreachable)
}

// IsProviderError checks if an error is a provider transport/response error
func IsProviderError(err error) bool {
	return isType(err, ErrorTypeProvider)
}

// IsParseError checks if an error is a model reply parse error
func IsParseError(err error) bool {
	return isType(err, ErrorTypeParse)
}

// IsInvariantError checks if an error is an invariant violation
func IsInvariantError(err error) bool {
	return isType(err, ErrorTypeInvariant)
}

// IsInternalError checks if an error is an internal error
func IsInternalError(err error) bool {
	return isType(err, ErrorTypeInternal)
}

// IsLLMPathError reports whether err belongs to the LLM path taxonomy,
// i.e. an error that must be absorbed by falling back to the heuristic.
func IsLLMPathError(err error) bool {
	switch GetErrorType(err) {
	case ErrorTypeAuth, ErrorTypeTimeout, ErrorTypeUnreachable, ErrorTypeProvider,
		ErrorTypeParse, ErrorTypeInvariant, ErrorTypePrompt, ErrorTypeRateLimit:
		return true
	}
	return false
}

// GetErrorType returns the ErrorType of a domain error, or empty string if not a domain error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ""
}

// GetErrorDetails returns the details map of a domain error, or nil if not a domain error
func GetErrorDetails(err error) map[string]interface{} {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Details
	}
	return nil
}

// WrapError wraps an error with additional context
func WrapError(errType ErrorType, message string, err error) error {
	return NewDomainError(errType, message, err)
}

// WrapInternal wraps an error as an internal error
func WrapInternal(message string, err error) error {
	return NewDomainError(ErrorTypeInternal, message, err)
}
