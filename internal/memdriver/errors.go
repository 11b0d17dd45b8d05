package memdriver

import "fmt"

// evalError is raised by this driver: evaluating a bound expression
// against a row (type mismatches such as comparing a string with a
// number, division or modulo by zero, unsupported operators), a
// malformed mutation predicate, or use of a closed transaction. The
// binder's checks do not cover operand types or values, so a filter
// written by a user can reach these errors.
type evalError struct {
	Message string
}

func (e evalError) Error() string {
	return fmt.Sprintf("memdriver: %s", e.Message)
}

func errf(format string, args ...any) error {
	return evalError{Message: fmt.Sprintf(format, args...)}
}
