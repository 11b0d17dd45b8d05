package manager

import "fmt"

// Code is one of spec.md §6's stable error codes that a caller may
// switch on; Message is a human-readable diagnostic only.
type Code string

const (
	NotFound      Code = "NOT_FOUND"
	InvalidColumn Code = "INVALID_COLUMN"
	DriverError   Code = "DRIVER_ERROR"
)

// PersistenceError is the recoverable error class: it is always safe to
// roll back and retry the enclosing session. Grounded on
// original_source/asgard/table_manager.py's PersistenceException.
type PersistenceError struct {
	Code    Code
	Message string
}

func (e PersistenceError) Error() string { return e.Message }

func persistenceErrorf(format string, args ...any) error {
	return PersistenceError{Code: DriverError, Message: fmt.Sprintf(format, args...)}
}

func notFoundf(format string, args ...any) error {
	return PersistenceError{Code: NotFound, Message: fmt.Sprintf(format, args...)}
}

func invalidColumnf(format string, args ...any) error {
	return PersistenceError{Code: InvalidColumn, Message: fmt.Sprintf(format, args...)}
}

// UnrecoverablePersistenceError means a data mutation partially
// succeeded: some of the requested ids were not found, so fewer rows
// were changed than the caller asked for. Grounded on
// original_source/asgard/table_manager.py's
// UnrecoverablePersistenceException — the whole enclosing transaction
// must be rolled back whenever this is raised, never retried in place.
type UnrecoverablePersistenceError struct {
	Message string
}

func (e UnrecoverablePersistenceError) Error() string { return e.Message }

func unrecoverablef(format string, args ...any) error {
	return UnrecoverablePersistenceError{Message: fmt.Sprintf(format, args...)}
}

// ErrNestedSession is returned by WithSession when a session is already
// open on the supplied context, mirroring the assertion in
// original_source/asgard/table_manager.py's transaction():
// "Only one connection can be opened at the same time".
var ErrNestedSession = fmt.Errorf("a session is already open on this context")
