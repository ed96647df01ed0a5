package celtypes

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/jhump/protocel/celpb"
)

// ValueAdapter converts Go values into CEL values.
type ValueAdapter func(value any) ref.Val

// NativeToValue implements types.Adapter.
func (a ValueAdapter) NativeToValue(value any) ref.Val {
	return a(value)
}

var _ types.Adapter = ValueAdapter(nil)

// ToValueAdapter returns the registry's NativeToValue as a ValueAdapter.
func (r *Registry) ToValueAdapter() ValueAdapter {
	return r.NativeToValue
}

// NativeToValue converts the given Go value into a CEL value. Messages are
// first unwrapped if they are instances of the well-known types, so that a
// google.protobuf.Int64Value becomes a CEL int (or null) and a
// google.protobuf.Any becomes the value it contains. Other messages become
// CEL objects. Values with no CEL representation become error values.
func (r *Registry) NativeToValue(value any) ref.Val {
	switch v := value.(type) {
	case nil:
		return types.NullValue
	case ref.Val:
		return v
	case structpb.NullValue:
		return types.NullValue
	case *structpb.Struct:
		if v == nil {
			v = &structpb.Struct{}
		}
		return types.NewJSONStruct(r, v)
	case *structpb.ListValue:
		if v == nil {
			v = &structpb.ListValue{}
		}
		return types.NewJSONList(r, v)
	case proto.Message:
		return r.messageToValue(v)
	case protoreflect.Message:
		return r.messageToValue(v.Interface())
	case protoreflect.List:
		return types.NewProtoList(r, v)
	case *celpb.Map:
		return r.mapToValue(v)
	case protoreflect.EnumNumber:
		return types.Int(v)
	case protoreflect.Enum:
		return types.Int(v.Number())
	case bool:
		return types.Bool(v)
	case int:
		return types.Int(v)
	case int32:
		return types.Int(v)
	case int64:
		return types.Int(v)
	case uint:
		return types.Uint(v)
	case uint32:
		return types.Uint(v)
	case uint64:
		return types.Uint(v)
	case float32:
		return types.Double(v)
	case float64:
		return types.Double(v)
	case string:
		return types.String(v)
	case []byte:
		return types.Bytes(v)
	case time.Duration:
		return types.Duration{Duration: v}
	case time.Time:
		return types.Timestamp{Time: v}
	}

	refValue := reflect.ValueOf(value)
	switch refValue.Kind() {
	case reflect.Slice, reflect.Array:
		return types.NewDynamicList(r, value)
	case reflect.Map:
		return types.NewDynamicMap(r, value)
	}
	val := types.DefaultTypeAdapter.NativeToValue(value)
	if types.IsError(val) {
		return types.WrapErr(celpb.UnsupportedConversionError(value))
	}
	return val
}

func (r *Registry) messageToValue(msg proto.Message) ref.Val {
	typeName := string(msg.ProtoReflect().Descriptor().FullName())
	td, found := r.db.DescribeType(typeName)
	if !found {
		return types.WrapErr(celpb.UnknownTypeError(typeName))
	}
	unwrapped, isUnwrapped, err := td.MaybeUnwrap(r.db, msg)
	if err != nil {
		return types.WrapErr(err)
	}
	if isUnwrapped {
		return r.NativeToValue(unwrapped)
	}
	return &protoObj{
		registry:  r,
		value:     msg,
		typeDesc:  td,
		typeValue: r.objectType(td.Name()),
	}
}

func (r *Registry) mapToValue(m *celpb.Map) ref.Val {
	entries := make(map[ref.Val]ref.Val, m.Len())
	var err ref.Val
	m.Range(func(k protoreflect.MapKey, v protoreflect.Value) bool {
		key := r.NativeToValue(k.Interface())
		if types.IsError(key) {
			err = key
			return false
		}
		val := r.NativeToValue(m.ValueType.ValueOf(v))
		if types.IsError(val) {
			err = val
			return false
		}
		entries[key] = val
		return true
	})
	if err != nil {
		return err
	}
	return types.NewRefValMap(r, entries)
}

// ConvertToNative converts the given CEL value into a Go value of the given
// type. Error values are returned as errors.
func (r *Registry) ConvertToNative(val ref.Val, typeDesc reflect.Type) (any, error) {
	if e, ok := val.(*types.Err); ok {
		return nil, e
	}
	native, err := val.ConvertToNative(typeDesc)
	if err != nil && !errors.Is(err, celpb.ErrTypeConversion) {
		return nil, fmt.Errorf("%w: %v", celpb.TypeConversionError(val.Type().TypeName(), typeDesc), err)
	}
	return native, err
}
