// Package daoerr defines the error taxonomy shared by the mapping, translation
// and data-access layers.
//
// Every failure is an *Error carrying a Code. Callers branch on the code with
// the IsXxx helpers, which use errors.As and therefore see through wrapping.
package daoerr

import (
	"errors"
	"fmt"
)

// Code categorizes data-access errors.
type Code string

const (
	// CodeUnknownProperty indicates a field name has no PropertyMap entry.
	CodeUnknownProperty Code = "UNKNOWN_PROPERTY"

	// CodeUnsupportedOperator indicates a raw operator token without the
	// reserved sigil, or an operator with no dialect table entry.
	CodeUnsupportedOperator Code = "UNSUPPORTED_OPERATOR"

	// CodeMalformedIdentifier indicates a value bound to a generated
	// identifier could not be coerced to the native identifier type.
	CodeMalformedIdentifier Code = "MALFORMED_IDENTIFIER"

	// CodeUnresolvedEntityType indicates entity metadata could not be
	// determined when a DAO or registry was built.
	CodeUnresolvedEntityType Code = "UNRESOLVED_ENTITY_TYPE"

	// CodeInvalidValue indicates a value that cannot be serialized for its
	// field kind (e.g. a numeric ordinal bound to an enum field).
	CodeInvalidValue Code = "INVALID_VALUE"
)

// Error is a coded data-access error.
type Error struct {
	// Code identifies the error category.
	Code Code

	// Message is a human-readable description.
	Message string

	// Entity names the entity whose mapping was involved, if known.
	Entity string

	// Field names the logical field involved, if any.
	Field string

	// Err is the underlying cause (optional).
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	switch {
	case e.Entity != "" && e.Field != "":
		msg = fmt.Sprintf("%s (entity=%s, field=%s)", msg, e.Entity, e.Field)
	case e.Entity != "":
		msg = fmt.Sprintf("%s (entity=%s)", msg, e.Entity)
	case e.Field != "":
		msg = fmt.Sprintf("%s (field=%s)", msg, e.Field)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// UnknownProperty creates an error for a field missing from a property map.
func UnknownProperty(entity, field string) *Error {
	return &Error{
		Code:    CodeUnknownProperty,
		Message: fmt.Sprintf("no property named %q", field),
		Entity:  entity,
		Field:   field,
	}
}

// UnsupportedOperator creates an error for an operator the dialect cannot render.
func UnsupportedOperator(field, op string) *Error {
	return &Error{
		Code:    CodeUnsupportedOperator,
		Message: fmt.Sprintf("unsupported operator %q", op),
		Field:   field,
	}
}

// MalformedIdentifier creates an error for a value that is not a valid
// external identifier.
func MalformedIdentifier(entity, field string, value any, cause error) *Error {
	return &Error{
		Code:    CodeMalformedIdentifier,
		Message: fmt.Sprintf("cannot coerce %T(%v) to identifier", value, value),
		Entity:  entity,
		Field:   field,
		Err:     cause,
	}
}

// UnresolvedEntityType creates an error for missing or invalid entity metadata.
func UnresolvedEntityType(entity, reason string) *Error {
	return &Error{
		Code:    CodeUnresolvedEntityType,
		Message: reason,
		Entity:  entity,
	}
}

// InvalidValue creates an error for a value that does not fit its field kind.
func InvalidValue(entity, field, reason string) *Error {
	return &Error{
		Code:    CodeInvalidValue,
		Message: reason,
		Entity:  entity,
		Field:   field,
	}
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// IsUnknownProperty reports whether err is an UNKNOWN_PROPERTY error.
func IsUnknownProperty(err error) bool {
	return CodeOf(err) == CodeUnknownProperty
}

// IsUnsupportedOperator reports whether err is an UNSUPPORTED_OPERATOR error.
func IsUnsupportedOperator(err error) bool {
	return CodeOf(err) == CodeUnsupportedOperator
}

// IsMalformedIdentifier reports whether err is a MALFORMED_IDENTIFIER error.
func IsMalformedIdentifier(err error) bool {
	return CodeOf(err) == CodeMalformedIdentifier
}

// IsUnresolvedEntityType reports whether err is an UNRESOLVED_ENTITY_TYPE error.
func IsUnresolvedEntityType(err error) bool {
	return CodeOf(err) == CodeUnresolvedEntityType
}

// IsInvalidValue reports whether err is an INVALID_VALUE error.
func IsInvalidValue(err error) bool {
	return CodeOf(err) == CodeInvalidValue
}
