package celtypes

import (
	"fmt"

	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/common/types/traits"
	"google.golang.org/protobuf/proto"

	"github.com/jhump/protocel/celpb"
)

// NewValue creates an instance of the named message type with the given
// fields set, and returns it adapted to a CEL value. Instances of the
// well-known types are unwrapped, so creating a google.protobuf.Int32Value
// yields a CEL int. Problems, such as an unknown type or field or a value
// that does not fit a field, are reported as error values.
func (r *Registry) NewValue(structType string, fields map[string]ref.Val) ref.Val {
	td, found := r.db.DescribeType(structType)
	if !found {
		return types.WrapErr(celpb.UnknownTypeError(structType))
	}
	msg := td.New()
	for name, value := range fields {
		field, found := td.FieldByName(name)
		if !found {
			return types.WrapErr(celpb.NoSuchFieldError(td.Name(), name))
		}
		native, err := r.fieldNativeValue(field, value)
		if err != nil {
			return types.WrapErr(fmt.Errorf("field %s: %w", name, err))
		}
		if err := field.SetOn(msg, native); err != nil {
			return types.WrapErr(err)
		}
	}
	return r.NativeToValue(msg.Interface())
}

// fieldNativeValue converts a CEL value into the Go value that
// FieldDescription.SetOn accepts for the given field.
func (r *Registry) fieldNativeValue(fd *celpb.FieldDescription, val ref.Val) (any, error) {
	if e, ok := val.(*types.Err); ok {
		return nil, e
	}
	switch fd.Class() {
	case celpb.MapField:
		mapper, ok := val.(traits.Mapper)
		if !ok {
			return nil, celpb.TypeConversionError(val.Type().TypeName(), fd.CheckedType())
		}
		entries := map[any]any{}
		for it := mapper.Iterator(); it.HasNext() == types.True; {
			key := it.Next()
			nativeKey, err := r.fieldNativeValue(fd.KeyType, key)
			if err != nil {
				return nil, err
			}
			nativeVal, err := r.fieldNativeValue(fd.ValueType, mapper.Get(key))
			if err != nil {
				return nil, err
			}
			entries[nativeKey] = nativeVal
		}
		return entries, nil
	case celpb.ListField:
		lister, ok := val.(traits.Lister)
		if !ok {
			return nil, celpb.TypeConversionError(val.Type().TypeName(), fd.CheckedType())
		}
		var elems []any
		for it := lister.Iterator(); it.HasNext() == types.True; {
			elem, err := r.fieldNativeValue(fd.ElemType, it.Next())
			if err != nil {
				return nil, err
			}
			elems = append(elems, elem)
		}
		if elems == nil {
			elems = []any{}
		}
		return elems, nil
	case celpb.MessageField:
		switch {
		case val == types.NullValue && fd.WellKnown() != celpb.Value:
			return nil, nil
		case fd.WellKnown() != celpb.Ordinary:
			return convertToNative(fd, val)
		}
		if msg, ok := val.Value().(proto.Message); ok {
			return msg, nil
		}
		return nil, celpb.TypeConversionError(val.Type().TypeName(), fd.CheckedType())
	case celpb.EnumField:
		if fd.WellKnown() == celpb.NullValue {
			return int64(0), nil
		}
		return convertToNative(fd, val)
	default:
		return convertToNative(fd, val)
	}
}

func convertToNative(fd *celpb.FieldDescription, val ref.Val) (any, error) {
	native, err := val.ConvertToNative(fd.ReflectType())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", celpb.TypeConversionError(val.Type().TypeName(), fd.CheckedType()), err)
	}
	return native, nil
}
