package binder

import "fmt"

// Code is one of the stable error codes from spec.md §6 that a caller
// may switch on; Message is a human-readable diagnostic only.
type Code string

const (
	UnknownColumn        Code = "UNKNOWN_COLUMN"
	NotAForeignKey       Code = "NOT_A_FOREIGN_KEY"
	AmbiguousForeignKey  Code = "AMBIGUOUS_FOREIGN_KEY"
	ForbiddenIDThroughFK Code = "FORBIDDEN_ID_THROUGH_FK"
	UnboundVariable      Code = "UNBOUND_VARIABLE"
	OperatorMisuse       Code = "OPERATOR_MISUSE"
	InternalError        Code = "INTERNAL_ERROR"
)

// Error is raised by binding an AST against a schema and parameter map.
// It is a recoverable ("Persistence") error per spec.md §7: no data
// mutation has occurred by the time binding fails.
type Error struct {
	Code    Code
	Message string
}

func (e Error) Error() string {
	return fmt.Sprintf("bind error (%s): %s", e.Code, e.Message)
}

func unknownColumn(table, column string) error {
	return Error{Code: UnknownColumn, Message: fmt.Sprintf("table %q has no column named %q", table, column)}
}

func notAForeignKey(table, column string) error {
	return Error{Code: NotAForeignKey, Message: fmt.Sprintf("column %q on table %q is not a foreign key", column, table)}
}

func ambiguousForeignKey(table, column string) error {
	return Error{Code: AmbiguousForeignKey, Message: fmt.Sprintf("column %q on table %q has more than one foreign key", column, table)}
}

func forbiddenIDThroughFK(table, column string) error {
	return Error{Code: ForbiddenIDThroughFK, Message: fmt.Sprintf("querying id through foreign key %q on table %q is not supported; use the foreign key column itself", column, table)}
}

func unboundVariable(name string) error {
	return Error{Code: UnboundVariable, Message: fmt.Sprintf("variable %q was not supplied", name)}
}

func operatorMisuse(op, reason string) error {
	return Error{Code: OperatorMisuse, Message: fmt.Sprintf("operator %q misused: %s", op, reason)}
}

func internalError(format string, args ...any) error {
	return Error{Code: InternalError, Message: fmt.Sprintf(format, args...)}
}
