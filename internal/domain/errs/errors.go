package errs

import (
	"fmt"
	"time"
)

// Stable machine-readable error codes. Clients branch on these, never on
// message text.
const (
	CodeUserNotFound        = "USER_NOT_FOUND"
	CodeDuplicateUser       = "DUPLICATE_USER"
	CodeValidationError     = "VALIDATION_ERROR"
	CodeInternalError       = "INTERNAL_ERROR"
	CodeUnknownError        = "UNKNOWN_ERROR"
	CodeConstraintViolation = "CONSTRAINT_VIOLATION"
)

// Kind classifies a domain failure.
type Kind int

const (
	KindNotFound Kind = iota
	KindDuplicate
	KindValidation
)

// Error is a typed domain failure carrying a stable code and the time it
// was raised. Domain services raise these; the HTTP boundary maps each
// kind to a fixed status and error body.
type Error struct {
	Kind      Kind
	Code      string
	Message   string
	Timestamp time.Time
}

func (e *Error) Error() string { return e.Message }

func newError(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Timestamp: time.Now()}
}

// UserNotFoundByID reports that no user has the given id.
func UserNotFoundByID(id int64) *Error {
	return newError(KindNotFound, CodeUserNotFound, fmt.Sprintf("User not found with id: %d", id))
}

// UserNotFoundBy reports that no user has the given value for a field.
func UserNotFoundBy(field, value string) *Error {
	return newError(KindNotFound, CodeUserNotFound, fmt.Sprintf("User not found with %s: %s", field, value))
}

// DuplicateEmail reports an email uniqueness violation.
func DuplicateEmail(email string) *Error {
	return newError(KindDuplicate, CodeDuplicateUser, fmt.Sprintf("User already exists with email: %s", email))
}

// DuplicateUsername reports a username uniqueness violation.
func DuplicateUsername(username string) *Error {
	return newError(KindDuplicate, CodeDuplicateUser, fmt.Sprintf("User already exists with username: %s", username))
}

// Validation reports malformed or missing input detected by the domain.
func Validation(message string) *Error {
	return newError(KindValidation, CodeValidationError, message)
}
