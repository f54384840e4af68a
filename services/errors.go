package services

import (
	"errors"
	"fmt"

	"github.com/Astonie/schoolyathu/rbac"
	"github.com/Astonie/schoolyathu/repositories"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeUnauthorized ErrorType = "unauthorized"
	ErrorTypeForbidden    ErrorType = "forbidden"
	ErrorTypeConflict     ErrorType = "conflict"
	ErrorTypeInternal     ErrorType = "internal"
)

// DetailReason is the details key carrying an rbac.Reason
const DetailReason = "reason"

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
	return e.Type == t.Type && (t.Message == "" || e.Message == t.Message)
}

// WithDetail adds a detail to the error. Do not call it on the shared
// sentinels below; wrap them with NewDomainError first.
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

var (
	// Not Found Errors
	ErrSchoolNotFound   = NewDomainError(ErrorTypeNotFound, "school not found", nil)
	ErrUserNotFound     = NewDomainError(ErrorTypeNotFound, "user not found", nil)
	ErrStudentNotFound  = NewDomainError(ErrorTypeNotFound, "student not found", nil)
	ErrClassNotFound    = NewDomainError(ErrorTypeNotFound, "class not found", nil)
	ErrGuardianNotFound = NewDomainError(ErrorTypeNotFound, "guardian not found", nil)

	// Validation Errors
	ErrInvalidInput            = NewDomainError(ErrorTypeValidation, "invalid input", nil)
	ErrInvalidAttendanceStatus = NewDomainError(ErrorTypeValidation, "invalid attendance status", nil)

	// Authentication Errors
	ErrInvalidCredentials = NewDomainError(ErrorTypeUnauthorized, "invalid email or password", nil)

	// Permission Errors
	ErrForbidden = NewDomainError(ErrorTypeForbidden, "access forbidden", nil)

	// Conflict Errors
	ErrDuplicateEmail         = NewDomainError(ErrorTypeConflict, "email already exists", nil)
	ErrDuplicateStudentNumber = NewDomainError(ErrorTypeConflict, "student number already exists in this school", nil)
	ErrDuplicateClass         = NewDomainError(ErrorTypeConflict, "a class with this grade and section already exists", nil)
	ErrDuplicateGuardian      = NewDomainError(ErrorTypeConflict, "guardian already exists in this school", nil)

	// Internal Errors
	ErrInternal = NewDomainError(ErrorTypeInternal, "internal server error", nil)
)

// Denied converts an authorization failure from the rbac package into a
// domain error carrying its denial reason. Missing-tenant and
// wrong-role denials share one message so clients learn nothing more
// than the reason code.
func Denied(err error) *DomainError {
	reason := rbac.ReasonFor(err)
	if reason == rbac.ReasonUnauthenticated {
		return NewDomainError(ErrorTypeUnauthorized, "authentication required", err).
			WithDetail(DetailReason, string(reason))
	}
	return NewDomainError(ErrorTypeForbidden, ErrForbidden.Message, err).
		WithDetail(DetailReason, string(reason))
}

// fromRepository maps a repository error for entity onto the domain
// taxonomy. A miss inside a restricted scope is reported as a denial so
// callers cannot discover rows owned by other schools.
func fromRepository(err error, filter rbac.TenantFilter, notFound *DomainError, conflict *DomainError) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrInvalidFilter):
		return Denied(rbac.Denied(rbac.ErrNoTenant, "%v", err))
	case errors.Is(err, repositories.ErrOutOfScope):
		return Denied(rbac.Denied(rbac.ErrCrossTenant, "%v", err))
	case errors.Is(err, repositories.ErrNotFound):
		if !filter.Unrestricted() {
			return Denied(rbac.Denied(rbac.ErrCrossTenant, "%v", err))
		}
		return NewDomainError(ErrorTypeNotFound, notFound.Message, err)
	case errors.Is(err, repositories.ErrConflict) && conflict != nil:
		return NewDomainError(ErrorTypeConflict, conflict.Message, err)
	default:
		return WrapInternal("database error", err)
	}
}

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool {
	return GetErrorType(err) == ErrorTypeNotFound
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return GetErrorType(err) == ErrorTypeValidation
}

// IsUnauthorizedError checks if an error is an unauthorized error
func IsUnauthorizedError(err error) bool {
	return GetErrorType(err) == ErrorTypeUnauthorized
}

// IsForbiddenError checks if an error is a forbidden error
func IsForbiddenError(err error) bool {
	return GetErrorType(err) == ErrorTypeForbidden
}

// IsConflictError checks if an error is a conflict error
func IsConflictError(err error) bool {
	return GetErrorType(err) == ErrorTypeConflict
}

// IsInternalError checks if an error is an internal error
func IsInternalError(err error) bool {
	return GetErrorType(err) == ErrorTypeInternal
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

// fromReference maps a failed lookup of an entity named in a request
// body. Restricted callers are denied as for any cross-school reference;
// unrestricted callers get a validation error instead of a 404.
func fromReference(err error, filter rbac.TenantFilter, message string) error {
	if errors.Is(err, repositories.ErrNotFound) && filter.Unrestricted() {
		return NewDomainError(ErrorTypeValidation, message, err)
	}
	return fromRepository(err, filter, ErrInvalidInput, nil)
}
