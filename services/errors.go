package services

import (
	"errors"
	"fmt"
)

// Error kinds returned by the supervision workflow. Controllers translate
// these to HTTP status codes; nothing in this package touches HTTP.
type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindConflict
	KindState
	KindAuthorization
	KindNotFound
	KindStorage
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindState:
		return "state"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	case KindStorage:
		return "storage"
	}
	return "unknown"
}

// WorkflowError carries an error kind plus a user-facing message. Conflict
// and state errors both mean "the data moved under you, refresh" rather
// than a hard failure; the kind lets the API layer keep them apart from
// validation or storage problems.
type WorkflowError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *WorkflowError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *WorkflowError) Unwrap() error { return e.Err }

func ValidationError(format string, args ...interface{}) error {
	return &WorkflowError{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func ConflictError(format string, args ...interface{}) error {
	return &WorkflowError{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func StateError(format string, args ...interface{}) error {
	return &WorkflowError{Kind: KindState, Message: fmt.Sprintf(format, args...)}
}

func AuthorizationError(format string, args ...interface{}) error {
	return &WorkflowError{Kind: KindAuthorization, Message: fmt.Sprintf(format, args...)}
}

func NotFoundError(format string, args ...interface{}) error {
	return &WorkflowError{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func StorageError(message string, err error) error {
	return &WorkflowError{Kind: KindStorage, Message: message, Err: err}
}

// KindOf extracts the workflow error kind, or 0 for plain errors.
func KindOf(err error) ErrorKind {
	var werr *WorkflowError
	if errors.As(err, &werr) {
		return werr.Kind
	}
	return 0
}

// IsKind reports whether err is a workflow error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
