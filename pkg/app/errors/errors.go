// Package errors contains helper functions and types to work with errors
package errors

import (
	"errors"
	"net/http"
)

// Category defines error category
type Category int

const (
	// CategoryNoError means the operation completed without error.
	CategoryNoError Category = iota
	// CategoryConfigMissing means no usable connector configuration source
	// was found for the attempted operation.
	CategoryConfigMissing
	// CategoryConfigInvalid means a configuration source was present but
	// malformed. This is never silently skipped in favour of a lower
	// precedence source.
	CategoryConfigInvalid
	// CategoryDataError means the client sent invalid data in the request,
	// for example missing or malformed payload content or parameters.
	CategoryDataError
	// CategoryUnauthorized means the caller is not authenticated.
	CategoryUnauthorized
	// CategoryForbidden means the caller is authenticated but not allowed
	// to access the requested resource.
	CategoryForbidden
	// CategorySessionExpired means the platform rejected the session id.
	// Recoverable once via the session renewal callback or a re-login.
	CategorySessionExpired
	// CategoryResourceNotFound means the requested resource does not exist.
	CategoryResourceNotFound
	// CategoryDependencyFailure means the remote platform or another
	// dependent service is failing.
	CategoryDependencyFailure
	// CategoryGeneralError means the service failed in an unexpected way.
	CategoryGeneralError
)

func (c Category) String() string {
	switch c {
	case CategoryConfigMissing:
		return "CategoryConfigMissing"
	case CategoryConfigInvalid:
		return "CategoryConfigInvalid"
	case CategoryDataError:
		return "CategoryDataError"
	case CategoryUnauthorized:
		return "CategoryUnauthorized"
	case CategoryForbidden:
		return "CategoryForbidden"
	case CategorySessionExpired:
		return "CategorySessionExpired"
	case CategoryResourceNotFound:
		return "CategoryResourceNotFound"
	case CategoryDependencyFailure:
		return "CategoryDependencyFailure"
	default:
		return "CategoryGeneralError"
	}
}

// ServiceError represents service specific type that
// is used all over the SDK.
type ServiceError struct {
	Category Category
	Message  string
	Err      error
}

// Error method to comply with error interface
func (err ServiceError) Error() string {
	if err.Err != nil {
		return err.Err.Error()
	}
	return err.Message
}

// Unwrap returns the underlying error
func (err ServiceError) Unwrap() error {
	return err.Err
}

// Is implements the custom condition to check an error is equal to a service error
func (err ServiceError) Is(target error) bool {
	return err.Message == target.Error()
}

// Is checks that provided error is a ServiceError with desired Category
func Is(err error, cat Category) bool {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) && svcErr.Category == cat {
		return true
	}
	return false
}

// ConfigMissingError returns an error with category ConfigMissing
func ConfigMissingError(err error, message string) error {
	if err == nil {
		err = errors.New("configuration missing: " + message)
	}
	return &ServiceError{
		Category: CategoryConfigMissing,
		Message:  message,
		Err:      err,
	}
}

// ConfigInvalidError returns an error with category ConfigInvalid
func ConfigInvalidError(err error, message string) error {
	if err == nil {
		err = errors.New("configuration invalid: " + message)
	}
	return &ServiceError{
		Category: CategoryConfigInvalid,
		Message:  message,
		Err:      err,
	}
}

// SessionExpiredError returns an error with category SessionExpired
func SessionExpiredError(err error, message string) error {
	if err == nil {
		err = errors.New("session expired: " + message)
	}
	return &ServiceError{
		Category: CategorySessionExpired,
		Message:  message,
		Err:      err,
	}
}

// BadRequestError returns an error with category DataError
// the error message provided is returned to the user
// the error object provided is logged in logger
func BadRequestError(err error, message string) error {
	if err == nil {
		err = errors.New("bad request: " + message)
	}
	return &ServiceError{
		Category: CategoryDataError,
		Message:  message,
		Err:      err,
	}
}

// UnAuthorizedError returns an error with category CategoryUnauthorized
func UnAuthorizedError(err error, message string) error {
	if err == nil {
		err = errors.New("unauthorized")
	}
	return &ServiceError{
		Category: CategoryUnauthorized,
		Message:  message,
		Err:      err,
	}
}

// ForbiddenError returns an error with category CategoryForbidden
func ForbiddenError(err error, message string) error {
	if err == nil {
		err = errors.New("request forbidden")
	}
	return &ServiceError{
		Category: CategoryForbidden,
		Message:  message,
		Err:      err,
	}
}

// ResourceNotFoundError returns an error with category ResourceNotFound
func ResourceNotFoundError(err error, message string) error {
	if err == nil {
		err = errors.New("resource not found: " + message)
	}
	return &ServiceError{
		Category: CategoryResourceNotFound,
		Message:  message,
		Err:      err,
	}
}

// DependencyFailureError returns an error with category DependencyFailure
func DependencyFailureError(err error, message string) error {
	if err == nil {
		err = errors.New("dependency failure: " + message)
	}
	return &ServiceError{
		Category: CategoryDependencyFailure,
		Message:  message,
		Err:      err,
	}
}

// GeneralError returns a general service error
// this error message sent to the user is "Internal Server Error"
// the error passed is logged in the logger
func GeneralError(err error) error {
	if err == nil {
		err = errors.New("internal server error")
	}
	return &ServiceError{
		Category: CategoryGeneralError,
		Message:  "Internal Server Error",
		Err:      err,
	}
}

// IsInternalError checks that provided error is an internal system error
func IsInternalError(err error) bool {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) && (svcErr.Category < CategoryDependencyFailure) {
		return false
	}
	return true
}

// StatusCode returns the HTTP status code for the error category
func (err ServiceError) StatusCode() int {
	switch err.Category {
	case CategoryConfigMissing, CategoryConfigInvalid, CategoryDataError:
		return http.StatusBadRequest
	case CategoryUnauthorized, CategorySessionExpired:
		return http.StatusUnauthorized
	case CategoryForbidden:
		return http.StatusForbidden
	case CategoryResourceNotFound:
		return http.StatusNotFound
	case CategoryDependencyFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
