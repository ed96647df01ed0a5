package celpb

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/cel-go/common/types"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/dynamicpb"
	"google.golang.org/protobuf/types/known/structpb"
)

// TypeDescription describes a message type: its fields, in declaration
// order, how to allocate instances of it, and how instances of the
// well-known types unwrap into plain Go values.
type TypeDescription struct {
	name       string
	desc       protoreflect.MessageDescriptor
	wellKnown  WellKnown
	fields     map[string]*FieldDescription
	fieldNames []string
	msgType    atomic.Pointer[messageType]
}

// messageType boxes a protoreflect.MessageType so that generated and dynamic
// implementations can be swapped through the same atomic pointer.
type messageType struct {
	protoreflect.MessageType
}

// NewTypeDescription describes the given message. If the Go type generated
// for exactly this descriptor is linked into the program, instances are
// created with it. Otherwise they are dynamic messages.
func NewTypeDescription(desc protoreflect.MessageDescriptor) *TypeDescription {
	fieldDescs := desc.Fields()
	td := &TypeDescription{
		name:       string(desc.FullName()),
		desc:       desc,
		wellKnown:  WellKnownByName(desc.FullName()),
		fields:     make(map[string]*FieldDescription, fieldDescs.Len()),
		fieldNames: make([]string, 0, fieldDescs.Len()),
	}
	for i, length := 0, fieldDescs.Len(); i < length; i++ {
		field := NewFieldDescription(fieldDescs.Get(i))
		td.fields[field.Name()] = field
		td.fieldNames = append(td.fieldNames, field.Name())
	}
	td.msgType.Store(&messageType{initialMessageType(desc)})
	return td
}

func initialMessageType(desc protoreflect.MessageDescriptor) protoreflect.MessageType {
	mt, err := protoregistry.GlobalTypes.FindMessageByName(desc.FullName())
	if err == nil && mt.Descriptor() == desc {
		return mt
	}
	return dynamicpb.NewMessageType(desc)
}

// Name returns the fully-qualified name of the message.
func (td *TypeDescription) Name() string {
	return td.name
}

// Descriptor returns the underlying message descriptor.
func (td *TypeDescription) Descriptor() protoreflect.MessageDescriptor {
	return td.desc
}

// WellKnown returns the well-known kind of the message, or Ordinary.
func (td *TypeDescription) WellKnown() WellKnown {
	return td.wellKnown
}

// FieldByName returns the description of the named field.
func (td *TypeDescription) FieldByName(name string) (*FieldDescription, bool) {
	fd, ok := td.fields[name]
	return fd, ok
}

// FieldMap returns the fields of the message, keyed by name. The caller must
// not modify the returned map.
func (td *TypeDescription) FieldMap() map[string]*FieldDescription {
	return td.fields
}

// FieldNames returns the names of the message's fields in declaration order.
func (td *TypeDescription) FieldNames() []string {
	return append([]string(nil), td.fieldNames...)
}

// MessageType returns the type used to allocate instances of the message.
func (td *TypeDescription) MessageType() protoreflect.MessageType {
	return td.msgType.Load().MessageType
}

// New returns a new, mutable, empty instance of the message.
func (td *TypeDescription) New() protoreflect.Message {
	return td.MessageType().New()
}

// Zero returns the read-only empty instance of the message.
func (td *TypeDescription) Zero() proto.Message {
	return td.MessageType().Zero().Interface()
}

// UpdateZero makes the type of msg the one used to allocate instances of the
// message. Messages of a different type name are ignored.
func (td *TypeDescription) UpdateZero(msg proto.Message) {
	m := msg.ProtoReflect()
	if string(m.Descriptor().FullName()) != td.name {
		return
	}
	td.msgType.Store(&messageType{m.Type()})
}

// MaybeUnwrap converts an instance of a well-known type into the plain Go
// value CEL represents it with. The boolean result is false if msg is an
// ordinary message, in which case msg itself is returned.
//
// The returned values are:
//   - for Any, the unwrapped contents (which may be an ordinary message)
//   - for the wrappers, structpb.NullValue_NULL_VALUE if msg is the default
//     instance, else the wrapped value widened to bool, []byte, float64,
//     int64, string or uint64. The default instance is a nil (invalid)
//     message or the one returned by Zero; an allocated wrapper holding the
//     zero value unwraps to that zero value.
//   - for Duration and Timestamp, time.Duration and time.Time. Durations
//     that do not fit a time.Duration are an ErrTypeConversion error.
//   - for Struct and ListValue, *structpb.Struct and *structpb.ListValue
//   - for Value, the populated arm unwrapped the same way, with
//     structpb.NullValue_NULL_VALUE when nothing is set
func (td *TypeDescription) MaybeUnwrap(db *Db, msg proto.Message) (any, bool, error) {
	m := msg.ProtoReflect()
	switch td.wellKnown {
	case Any:
		return td.unwrapAny(db, m)
	case BoolWrapper, BytesWrapper, DoubleWrapper, FloatWrapper, Int32Wrapper,
		Int64Wrapper, StringWrapper, UInt32Wrapper, UInt64Wrapper:
		return td.unwrapWrapper(m), true, nil
	case Duration:
		d, err := durationValue(secondsAndNanos(m))
		return d, err == nil, err
	case Timestamp:
		secs, nanos := secondsAndNanos(m)
		return time.Unix(secs, nanos).UTC(), true, nil
	case Struct:
		s, err := asStruct(m)
		return s, err == nil, err
	case ListValue:
		l, err := asListValue(m)
		return l, err == nil, err
	case NullValue:
		return structpb.NullValue_NULL_VALUE, true, nil
	case Value:
		v, err := unwrapValue(m)
		return v, err == nil, err
	case Ordinary:
		return msg, false, nil
	default:
		panic(fmt.Sprintf("unhandled well-known kind %v for %s", td.wellKnown, td.name))
	}
}

func (td *TypeDescription) unwrapAny(db *Db, m protoreflect.Message) (any, bool, error) {
	fields := m.Descriptor().Fields()
	typeURL := m.Get(fields.ByNumber(1)).String()
	payload := m.Get(fields.ByNumber(2)).Bytes()
	typeName := TypeNameFromURL(typeURL)
	if typeName == "" || typeName == td.name {
		return nil, false, ErrAnyWithEmptyType
	}
	inner, ok := db.DescribeType(typeName)
	if !ok {
		return nil, false, UnknownTypeError(typeName)
	}
	msg := inner.New()
	if err := (proto.UnmarshalOptions{Resolver: db}).Unmarshal(payload, msg.Interface()); err != nil {
		return nil, false, fmt.Errorf("failed to parse contents of Any as %s: %w", typeName, err)
	}
	val, unwrapped, err := inner.MaybeUnwrap(db, msg.Interface())
	if err != nil {
		return nil, false, err
	}
	if !unwrapped {
		return msg.Interface(), true, nil
	}
	return val, true, nil
}

func (td *TypeDescription) unwrapWrapper(m protoreflect.Message) any {
	if !m.IsValid() || m.Interface() == td.Zero() {
		return structpb.NullValue_NULL_VALUE
	}
	val := m.Get(m.Descriptor().Fields().ByNumber(1))
	switch td.wellKnown {
	case BoolWrapper:
		return val.Bool()
	case BytesWrapper:
		return val.Bytes()
	case DoubleWrapper, FloatWrapper:
		return val.Float()
	case Int32Wrapper, Int64Wrapper:
		return val.Int()
	case StringWrapper:
		return val.String()
	default:
		return val.Uint()
	}
}

func secondsAndNanos(m protoreflect.Message) (int64, int64) {
	fields := m.Descriptor().Fields()
	return m.Get(fields.ByNumber(1)).Int(), m.Get(fields.ByNumber(2)).Int()
}

// durationValue returns the given seconds and nanoseconds as a
// time.Duration, failing rather than wrapping around when they do not fit.
func durationValue(secs, nanos int64) (time.Duration, error) {
	d := time.Duration(secs) * time.Second
	sum := d + time.Duration(nanos)
	if d/time.Second != time.Duration(secs) || (nanos > 0 && sum < d) || (nanos < 0 && sum > d) {
		return 0, fmt.Errorf("%w: %ds %dns is out of range", TypeConversionError("google.protobuf.Duration", types.DurationType), secs, nanos)
	}
	return sum, nil
}

func unwrapValue(m protoreflect.Message) (any, error) {
	if !m.IsValid() {
		return structpb.NullValue_NULL_VALUE, nil
	}
	kind := m.Descriptor().Oneofs().ByName("kind")
	if kind == nil {
		return nil, fmt.Errorf("%w: %s has no kind oneof", ErrTypeConversion, m.Descriptor().FullName())
	}
	field := m.WhichOneof(kind)
	if field == nil {
		return structpb.NullValue_NULL_VALUE, nil
	}
	val := m.Get(field)
	switch field.Name() {
	case "null_value":
		return structpb.NullValue_NULL_VALUE, nil
	case "number_value":
		return val.Float(), nil
	case "string_value":
		return val.String(), nil
	case "bool_value":
		return val.Bool(), nil
	case "struct_value":
		return asStruct(val.Message())
	case "list_value":
		return asListValue(val.Message())
	default:
		return nil, fmt.Errorf("%w: unrecognized field %s in %s", ErrTypeConversion, field.Name(), m.Descriptor().FullName())
	}
}

func asStruct(m protoreflect.Message) (*structpb.Struct, error) {
	if s, ok := m.Interface().(*structpb.Struct); ok {
		if s == nil {
			return &structpb.Struct{}, nil
		}
		return s, nil
	}
	s := &structpb.Struct{}
	if m.IsValid() {
		if err := copyMessage(m.Interface(), s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func asListValue(m protoreflect.Message) (*structpb.ListValue, error) {
	if l, ok := m.Interface().(*structpb.ListValue); ok {
		if l == nil {
			return &structpb.ListValue{}, nil
		}
		return l, nil
	}
	l := &structpb.ListValue{}
	if m.IsValid() {
		if err := copyMessage(m.Interface(), l); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// TypeNameFromURL extracts the fully-qualified type name from the given URL.
// The URL is one that could be used with a google.protobuf.Any message. The
// last path component is the fully-qualified name.
func TypeNameFromURL(url string) string {
	pos := strings.LastIndexByte(url, '/')
	return url[pos+1:]
}
