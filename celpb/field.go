package celpb

import (
	"fmt"
	"reflect"

	"github.com/google/cel-go/common/types"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/known/structpb"
)

// FieldClass says how a field holds its value.
type FieldClass int

// The field classes. MapField and ListField are mutually exclusive, and both
// belong to repeated fields.
const (
	ScalarField FieldClass = iota
	EnumField
	MessageField
	MapField
	ListField
)

func (c FieldClass) String() string {
	switch c {
	case ScalarField:
		return "scalar"
	case EnumField:
		return "enum"
	case MessageField:
		return "message"
	case MapField:
		return "map"
	case ListField:
		return "list"
	default:
		return fmt.Sprintf("unknown field class (%d)", int(c))
	}
}

// Map is the value of a map field, as returned by FieldDescription.GetValue.
// It carries the descriptions of the key and value so that the entries can be
// adapted to CEL values.
type Map struct {
	protoreflect.Map
	KeyType   *FieldDescription
	ValueType *FieldDescription
}

// FieldDescription holds the facts about a message field that CEL needs: how
// it is classified, its CEL type, and how to get, test and set it on
// instances of its message.
type FieldDescription struct {
	// KeyType and ValueType describe the key and value of a map field. They
	// are nil for other classes of fields.
	KeyType   *FieldDescription
	ValueType *FieldDescription
	// ElemType describes the elements of a list field. It is nil for other
	// classes of fields.
	ElemType *FieldDescription

	desc      protoreflect.FieldDescriptor
	class     FieldClass
	wellKnown WellKnown
	checked   *types.Type
}

// NewFieldDescription describes the given field.
func NewFieldDescription(desc protoreflect.FieldDescriptor) *FieldDescription {
	return newFieldDescription(desc, desc.IsList())
}

func newFieldDescription(desc protoreflect.FieldDescriptor, asList bool) *FieldDescription {
	field := &FieldDescription{desc: desc}
	switch {
	case desc.IsMap():
		field.class = MapField
		field.KeyType = newFieldDescription(desc.MapKey(), false)
		field.ValueType = newFieldDescription(desc.MapValue(), false)
		field.checked = types.NewMapType(field.KeyType.checked, field.ValueType.checked)
		return field
	case asList:
		field.class = ListField
		// The element is a singular view of the same field.
		field.ElemType = newFieldDescription(desc, false)
		field.checked = types.NewListType(field.ElemType.checked)
		return field
	}

	switch desc.Kind() {
	case protoreflect.EnumKind:
		field.class = EnumField
		field.wellKnown = WellKnownByName(desc.Enum().FullName())
		if field.wellKnown == NullValue {
			field.checked = types.NullType
		} else {
			field.checked = types.IntType
		}
	case protoreflect.MessageKind, protoreflect.GroupKind:
		field.class = MessageField
		field.wellKnown = WellKnownByName(desc.Message().FullName())
		if field.wellKnown != Ordinary {
			field.checked = field.wellKnown.CheckedType()
		} else {
			field.checked = types.NewObjectType(string(desc.Message().FullName()))
		}
	default:
		field.class = ScalarField
		field.checked = scalarKinds[desc.Kind()].celType
	}
	return field
}

// Name returns the field's name.
func (fd *FieldDescription) Name() string {
	return string(fd.desc.Name())
}

// Descriptor returns the underlying field descriptor.
func (fd *FieldDescription) Descriptor() protoreflect.FieldDescriptor {
	return fd.desc
}

// ContainingTypeName returns the fully-qualified name of the message that
// declares the field.
func (fd *FieldDescription) ContainingTypeName() string {
	return string(fd.desc.ContainingMessage().FullName())
}

// Class returns the field's classification.
func (fd *FieldDescription) Class() FieldClass {
	return fd.class
}

// WellKnown returns the well-known kind of the field's message or enum type.
// It is Ordinary for scalars, maps, lists and ordinary messages and enums.
func (fd *FieldDescription) WellKnown() WellKnown {
	return fd.wellKnown
}

// IsMap reports whether the field is a map.
func (fd *FieldDescription) IsMap() bool {
	return fd.class == MapField
}

// IsList reports whether the field is a repeated field that is not a map.
func (fd *FieldDescription) IsList() bool {
	return fd.class == ListField
}

// IsMessage reports whether the field is a singular message field.
func (fd *FieldDescription) IsMessage() bool {
	return fd.class == MessageField
}

// IsEnum reports whether the field is a singular enum field.
func (fd *FieldDescription) IsEnum() bool {
	return fd.class == EnumField
}

// CheckedType returns the CEL type of the field's values.
func (fd *FieldDescription) CheckedType() *types.Type {
	return fd.checked
}

// ReflectType returns the Go type that a CEL value must be converted to
// before it can be set on this field. It is nil for ordinary message fields,
// maps and lists, which need a structural conversion instead.
func (fd *FieldDescription) ReflectType() reflect.Type {
	switch fd.class {
	case ScalarField:
		return scalarKinds[fd.desc.Kind()].goType
	case EnumField:
		return reflect.TypeOf(int32(0))
	case MessageField:
		return fd.wellKnown.goType()
	default:
		return nil
	}
}

// IsSet reports whether the field is set on target, which must be a
// proto.Message or protoreflect.Message. It has the shape of a cel-go
// ref.FieldTester.
func (fd *FieldDescription) IsSet(target any) bool {
	msg, ok := asReflectMessage(target)
	if !ok {
		return false
	}
	return fd.HasValue(msg)
}

// HasValue reports whether the field is set on msg. Map and list fields are
// set when non-empty. Fields that track presence are set when they were
// assigned, whatever the value. Other scalar fields are set when their value
// is not the default for their kind.
func (fd *FieldDescription) HasValue(msg protoreflect.Message) bool {
	field, err := fd.resolve(msg)
	if err != nil {
		return false
	}
	switch {
	case field.IsMap():
		return msg.Get(field).Map().Len() > 0
	case field.IsList():
		return msg.Get(field).List().Len() > 0
	case field.HasPresence():
		return msg.Has(field)
	default:
		return !isZeroScalar(field.Kind(), msg.Get(field))
	}
}

// GetFrom returns the value of the field on target, which must be a
// proto.Message or protoreflect.Message. It has the shape of a cel-go
// ref.FieldGetter.
func (fd *FieldDescription) GetFrom(target any) (any, error) {
	msg, ok := asReflectMessage(target)
	if !ok {
		return nil, fmt.Errorf("%w: cannot select field %q from (%T)%v", ErrUnsupportedConversion, fd.Name(), target, target)
	}
	return fd.GetValue(msg)
}

// GetValue returns the value of the field on msg, as a Go value the CEL
// value adapter accepts:
//   - scalars as their Go types (int32, uint64, []byte, ...)
//   - enums as int64, except google.protobuf.NullValue as structpb.NullValue
//   - lists as protoreflect.List
//   - maps as *Map
//   - unset wrapper and Any fields as structpb.NullValue_NULL_VALUE
//   - other messages as proto.Message
func (fd *FieldDescription) GetValue(msg protoreflect.Message) (any, error) {
	field, err := fd.resolve(msg)
	if err != nil {
		return nil, err
	}
	if fd.class == MessageField && (fd.wellKnown.IsWrapper() || fd.wellKnown == Any) && !msg.Has(field) {
		return structpb.NullValue_NULL_VALUE, nil
	}
	return fd.ValueOf(msg.Get(field)), nil
}

// ValueOf converts a value of this field, such as a map value or list
// element read through the described field, into the Go value that GetValue
// returns for it.
func (fd *FieldDescription) ValueOf(val protoreflect.Value) any {
	switch fd.class {
	case MapField:
		return &Map{Map: val.Map(), KeyType: fd.KeyType, ValueType: fd.ValueType}
	case ListField:
		return val.List()
	case EnumField:
		if fd.wellKnown == NullValue {
			return structpb.NullValue_NULL_VALUE
		}
		return int64(val.Enum())
	case MessageField:
		return val.Message().Interface()
	default:
		return val.Interface()
	}
}

// SetOn sets the field on msg to the given Go value. Scalars must be Go
// numbers, strings, booleans or byte slices that fit the field's kind. Enums
// take an integer number. Messages take a proto.Message or
// protoreflect.Message of the field's type; nil leaves the field unset. Map
// fields take a map[any]any whose entries are merged into the field, and list
// fields take a []any whose elements are appended.
func (fd *FieldDescription) SetOn(msg protoreflect.Message, val any) error {
	field, err := fd.resolve(msg)
	if err != nil {
		return err
	}
	switch fd.class {
	case MapField:
		entries, ok := val.(map[any]any)
		if !ok {
			return TypeConversionError(fmt.Sprintf("%T", val), fd.checked)
		}
		dst := msg.Mutable(field).Map()
		for k, v := range entries {
			key, err := fd.KeyType.reflectValue(k, nil)
			if err != nil {
				return fmt.Errorf("map key of field %s: %w", fd.Name(), err)
			}
			value, err := fd.ValueType.reflectValue(v, dst.NewValue)
			if err != nil {
				return fmt.Errorf("map value of field %s: %w", fd.Name(), err)
			}
			dst.Set(key.MapKey(), value)
		}
		return nil
	case ListField:
		elems, ok := val.([]any)
		if !ok {
			return TypeConversionError(fmt.Sprintf("%T", val), fd.checked)
		}
		dst := msg.Mutable(field).List()
		for i, e := range elems {
			elem, err := fd.ElemType.reflectValue(e, dst.NewElement)
			if err != nil {
				return fmt.Errorf("element %d of field %s: %w", i, fd.Name(), err)
			}
			dst.Append(elem)
		}
		return nil
	case MessageField:
		if val == nil {
			return nil
		}
	}
	value, err := fd.reflectValue(val, func() protoreflect.Value { return msg.NewField(field) })
	if err != nil {
		return fmt.Errorf("field %s: %w", fd.Name(), err)
	}
	msg.Set(field, value)
	return nil
}

// reflectValue converts a singular Go value into a protobuf value for this
// field. For message fields, newValue allocates a value of the field's exact
// message type, used when val is of a different Go type or descriptor.
func (fd *FieldDescription) reflectValue(val any, newValue func() protoreflect.Value) (protoreflect.Value, error) {
	switch fd.desc.Kind() {
	case protoreflect.EnumKind:
		return fd.enumValue(val)
	case protoreflect.MessageKind, protoreflect.GroupKind:
		return fd.messageValue(val, newValue)
	default:
		return scalarValue(fd.desc.Kind(), val)
	}
}

func (fd *FieldDescription) enumValue(val any) (protoreflect.Value, error) {
	var num int64
	switch v := val.(type) {
	case protoreflect.Enum:
		num = int64(v.Number())
	case protoreflect.EnumNumber:
		num = int64(v)
	default:
		var ok bool
		if num, ok = toInt64(val); !ok {
			return protoreflect.Value{}, TypeConversionError(fmt.Sprintf("%T", val), fd.desc.Enum().FullName())
		}
	}
	if int64(int32(num)) != num {
		return protoreflect.Value{}, overflowError(val, protoreflect.EnumKind)
	}
	enumNum := protoreflect.EnumNumber(num)
	enum := fd.desc.Enum()
	if enum.IsClosed() && enum.Values().ByNumber(enumNum) == nil {
		return protoreflect.Value{}, fmt.Errorf("%w: %d is not a value of closed enum %s", ErrTypeConversion, num, enum.FullName())
	}
	return protoreflect.ValueOfEnum(enumNum), nil
}

func (fd *FieldDescription) messageValue(val any, newValue func() protoreflect.Value) (protoreflect.Value, error) {
	var src protoreflect.Message
	switch v := val.(type) {
	case proto.Message:
		src = v.ProtoReflect()
	case protoreflect.Message:
		src = v
	default:
		return protoreflect.Value{}, TypeConversionError(fmt.Sprintf("%T", val), fd.desc.Message().FullName())
	}
	dst := newValue()
	dstMsg := dst.Message()
	if src.Descriptor() == dstMsg.Descriptor() &&
		reflect.TypeOf(src.Interface()) == reflect.TypeOf(dstMsg.Interface()) {
		return protoreflect.ValueOfMessage(src), nil
	}
	if src.Descriptor().FullName() != dstMsg.Descriptor().FullName() {
		return protoreflect.Value{}, TypeConversionError(src.Descriptor().FullName(), dstMsg.Descriptor().FullName())
	}
	if err := copyMessage(src.Interface(), dstMsg.Interface()); err != nil {
		return protoreflect.Value{}, err
	}
	return dst, nil
}

// resolve returns the descriptor to use with msg. If msg is not an instance of
// the exact message that declares this field (e.g. a dynamic message built
// from another copy of the same schema), the field is looked up by name.
func (fd *FieldDescription) resolve(msg protoreflect.Message) (protoreflect.FieldDescriptor, error) {
	md := msg.Descriptor()
	if md == fd.desc.ContainingMessage() {
		return fd.desc, nil
	}
	field := md.Fields().ByName(fd.desc.Name())
	if field == nil {
		return nil, NoSuchFieldError(string(md.FullName()), fd.Name())
	}
	if !sameShape(fd.desc, field) {
		return nil, fmt.Errorf("%w: field %s of %s is declared as %s", TypeConversionError(fieldShape(field), fd.checked), fd.Name(), md.FullName(), fieldShape(field))
	}
	return field, nil
}

// sameShape reports whether values of field b can be read and written the
// way values of field a are.
func sameShape(a, b protoreflect.FieldDescriptor) bool {
	if a.Kind() != b.Kind() || a.IsList() != b.IsList() || a.IsMap() != b.IsMap() {
		return false
	}
	if a.IsMap() {
		return sameShape(a.MapKey(), b.MapKey()) && sameShape(a.MapValue(), b.MapValue())
	}
	switch a.Kind() {
	case protoreflect.EnumKind:
		return a.Enum().FullName() == b.Enum().FullName()
	case protoreflect.MessageKind, protoreflect.GroupKind:
		return a.Message().FullName() == b.Message().FullName()
	default:
		return true
	}
}

func fieldShape(field protoreflect.FieldDescriptor) string {
	switch {
	case field.IsMap():
		return fmt.Sprintf("map<%s, %s>", fieldShape(field.MapKey()), fieldShape(field.MapValue()))
	case field.IsList():
		return "repeated " + elementShape(field)
	default:
		return elementShape(field)
	}
}

func elementShape(field protoreflect.FieldDescriptor) string {
	switch field.Kind() {
	case protoreflect.EnumKind:
		return string(field.Enum().FullName())
	case protoreflect.MessageKind, protoreflect.GroupKind:
		return string(field.Message().FullName())
	default:
		return field.Kind().String()
	}
}

func (fd *FieldDescription) String() string {
	return fmt.Sprintf("%s.%s (%v)", fd.ContainingTypeName(), fd.Name(), fd.checked)
}

func asReflectMessage(target any) (protoreflect.Message, bool) {
	switch t := target.(type) {
	case proto.Message:
		return t.ProtoReflect(), true
	case protoreflect.Message:
		return t, true
	default:
		return nil, false
	}
}

// copyMessage copies src into dst, which has the same full name but possibly
// a different descriptor instance or Go type, by serializing and re-parsing.
func copyMessage(src, dst proto.Message) error {
	data, err := proto.MarshalOptions{AllowPartial: true}.Marshal(src)
	if err != nil {
		return err
	}
	return proto.UnmarshalOptions{AllowPartial: true, Merge: true}.Unmarshal(data, dst)
}
