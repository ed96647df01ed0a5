package celpb

import (
	"fmt"
	"reflect"

	"github.com/google/cel-go/common/types"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/known/anypb"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// WellKnown identifies the well-known protobuf types that have special
// meaning in CEL. Every other type is Ordinary.
type WellKnown int

// The recognized well-known kinds.
const (
	Ordinary WellKnown = iota
	Any
	BoolWrapper
	BytesWrapper
	DoubleWrapper
	FloatWrapper
	Int32Wrapper
	Int64Wrapper
	StringWrapper
	UInt32Wrapper
	UInt64Wrapper
	Duration
	Timestamp
	Struct
	ListValue
	NullValue
	Value
)

var wellKnownNames = map[protoreflect.FullName]WellKnown{
	"google.protobuf.Any":         Any,
	"google.protobuf.BoolValue":   BoolWrapper,
	"google.protobuf.BytesValue":  BytesWrapper,
	"google.protobuf.DoubleValue": DoubleWrapper,
	"google.protobuf.FloatValue":  FloatWrapper,
	"google.protobuf.Int32Value":  Int32Wrapper,
	"google.protobuf.Int64Value":  Int64Wrapper,
	"google.protobuf.StringValue": StringWrapper,
	"google.protobuf.UInt32Value": UInt32Wrapper,
	"google.protobuf.UInt64Value": UInt64Wrapper,
	"google.protobuf.Duration":    Duration,
	"google.protobuf.Timestamp":   Timestamp,
	"google.protobuf.Struct":      Struct,
	"google.protobuf.ListValue":   ListValue,
	"google.protobuf.NullValue":   NullValue,
	"google.protobuf.Value":       Value,
}

// WellKnownByName returns the kind of the message or enum with the given
// fully-qualified name.
func WellKnownByName(name protoreflect.FullName) WellKnown {
	return wellKnownNames[name]
}

// IsWrapper reports whether k is one of the nine scalar wrapper messages.
func (k WellKnown) IsWrapper() bool {
	return k >= BoolWrapper && k <= UInt64Wrapper
}

// CheckedType returns the CEL type that values of this kind have. It returns
// nil for Ordinary.
func (k WellKnown) CheckedType() *types.Type {
	switch k {
	case Any:
		return types.AnyType
	case BoolWrapper:
		return types.NewNullableType(types.BoolType)
	case BytesWrapper:
		return types.NewNullableType(types.BytesType)
	case DoubleWrapper, FloatWrapper:
		return types.NewNullableType(types.DoubleType)
	case Int32Wrapper, Int64Wrapper:
		return types.NewNullableType(types.IntType)
	case StringWrapper:
		return types.NewNullableType(types.StringType)
	case UInt32Wrapper, UInt64Wrapper:
		return types.NewNullableType(types.UintType)
	case Duration:
		return types.DurationType
	case Timestamp:
		return types.TimestampType
	case Struct:
		return types.NewMapType(types.StringType, types.DynType)
	case ListValue:
		return types.NewListType(types.DynType)
	case NullValue:
		return types.NullType
	case Value:
		return types.DynType
	default:
		return nil
	}
}

// goType returns the generated Go type for messages of this kind. CEL values
// know how to convert themselves to these types.
func (k WellKnown) goType() reflect.Type {
	switch k {
	case Any:
		return reflect.TypeOf(&anypb.Any{})
	case BoolWrapper:
		return reflect.TypeOf(&wrapperspb.BoolValue{})
	case BytesWrapper:
		return reflect.TypeOf(&wrapperspb.BytesValue{})
	case DoubleWrapper:
		return reflect.TypeOf(&wrapperspb.DoubleValue{})
	case FloatWrapper:
		return reflect.TypeOf(&wrapperspb.FloatValue{})
	case Int32Wrapper:
		return reflect.TypeOf(&wrapperspb.Int32Value{})
	case Int64Wrapper:
		return reflect.TypeOf(&wrapperspb.Int64Value{})
	case StringWrapper:
		return reflect.TypeOf(&wrapperspb.StringValue{})
	case UInt32Wrapper:
		return reflect.TypeOf(&wrapperspb.UInt32Value{})
	case UInt64Wrapper:
		return reflect.TypeOf(&wrapperspb.UInt64Value{})
	case Duration:
		return reflect.TypeOf(&durationpb.Duration{})
	case Timestamp:
		return reflect.TypeOf(&timestamppb.Timestamp{})
	case Struct:
		return reflect.TypeOf(&structpb.Struct{})
	case ListValue:
		return reflect.TypeOf(&structpb.ListValue{})
	case NullValue:
		return reflect.TypeOf(structpb.NullValue_NULL_VALUE)
	case Value:
		return reflect.TypeOf(&structpb.Value{})
	default:
		return nil
	}
}

func (k WellKnown) String() string {
	switch k {
	case Ordinary:
		return "ordinary"
	case Any:
		return "any"
	case BoolWrapper:
		return "bool wrapper"
	case BytesWrapper:
		return "bytes wrapper"
	case DoubleWrapper:
		return "double wrapper"
	case FloatWrapper:
		return "float wrapper"
	case Int32Wrapper:
		return "int32 wrapper"
	case Int64Wrapper:
		return "int64 wrapper"
	case StringWrapper:
		return "string wrapper"
	case UInt32Wrapper:
		return "uint32 wrapper"
	case UInt64Wrapper:
		return "uint64 wrapper"
	case Duration:
		return "duration"
	case Timestamp:
		return "timestamp"
	case Struct:
		return "struct"
	case ListValue:
		return "list value"
	case NullValue:
		return "null value"
	case Value:
		return "value"
	default:
		return fmt.Sprintf("unknown well-known kind (%d)", int(k))
	}
}
