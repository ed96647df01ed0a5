package celpb

import (
	"google.golang.org/protobuf/reflect/protoreflect"
)

// EnumValueDescription maps a fully-qualified enum value name to its number.
type EnumValueDescription struct {
	name  string
	value int32
}

// NewEnumValueDescription describes the given enum value. The name is
// qualified by the enum's own name (e.g. "pkg.Outer.Color.RED"), which is how
// CEL refers to enum values, rather than by the enum's parent scope.
func NewEnumValueDescription(desc protoreflect.EnumValueDescriptor) *EnumValueDescription {
	enum := desc.Parent().(protoreflect.EnumDescriptor)
	return &EnumValueDescription{
		name:  string(enum.FullName()) + "." + string(desc.Name()),
		value: int32(desc.Number()),
	}
}

// Name returns the fully-qualified name of the enum value.
func (ed *EnumValueDescription) Name() string {
	return ed.name
}

// Value returns the number of the enum value.
func (ed *EnumValueDescription) Value() int32 {
	return ed.value
}
