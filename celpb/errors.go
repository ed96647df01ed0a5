package celpb

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSuchField indicates that a field name is not declared by a message type.
	ErrNoSuchField = errors.New("no such field")
	// ErrUnknownType indicates that a type name could not be resolved.
	ErrUnknownType = errors.New("unknown type")
	// ErrAnyWithEmptyType indicates that a google.protobuf.Any message had an
	// empty type URL, or one that names google.protobuf.Any itself.
	ErrAnyWithEmptyType = errors.New("conversion error: got Any with empty type-url")
	// ErrUnsupportedConversion indicates that no adaptation rule matched a Go value.
	ErrUnsupportedConversion = errors.New("unsupported type conversion")
	// ErrTypeConversion indicates that a value could not be converted to the
	// requested shape.
	ErrTypeConversion = errors.New("type conversion error")
	// ErrTypeConflict indicates that a name is already registered with a
	// different definition.
	ErrTypeConflict = errors.New("type registration conflict")
)

// NoSuchFieldError returns an error for a field that typeName does not declare.
func NoSuchFieldError(typeName, fieldName string) error {
	return fmt.Errorf("%w: %q in %s", ErrNoSuchField, fieldName, typeName)
}

// UnknownTypeError returns an error for an unresolvable type name.
func UnknownTypeError(typeName string) error {
	return fmt.Errorf("%w: %q", ErrUnknownType, typeName)
}

// TypeConversionError returns an error for a value of the shape named from
// that could not be represented as the shape named to.
func TypeConversionError(from, to any) error {
	return fmt.Errorf("%w from '%v' to '%v'", ErrTypeConversion, from, to)
}

// UnsupportedConversionError returns an error for a Go value that no
// adaptation rule accepts.
func UnsupportedConversionError(value any) error {
	return fmt.Errorf("%w from Go type %T", ErrUnsupportedConversion, value)
}
