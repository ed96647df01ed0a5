package celpb

import (
	"fmt"
	"math"
	"reflect"

	"github.com/google/cel-go/common/types"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// scalarKind says how a protobuf scalar kind maps onto CEL and onto Go.
// Every encoding of a signed integer collapses onto CEL int and every
// unsigned one onto CEL uint; the Go type keeps the declared width.
type scalarKind struct {
	celType *types.Type
	goType  reflect.Type
}

var scalarKinds = map[protoreflect.Kind]scalarKind{
	protoreflect.BoolKind:     {types.BoolType, reflect.TypeOf(false)},
	protoreflect.Int32Kind:    {types.IntType, reflect.TypeOf(int32(0))},
	protoreflect.Sint32Kind:   {types.IntType, reflect.TypeOf(int32(0))},
	protoreflect.Sfixed32Kind: {types.IntType, reflect.TypeOf(int32(0))},
	protoreflect.Int64Kind:    {types.IntType, reflect.TypeOf(int64(0))},
	protoreflect.Sint64Kind:   {types.IntType, reflect.TypeOf(int64(0))},
	protoreflect.Sfixed64Kind: {types.IntType, reflect.TypeOf(int64(0))},
	protoreflect.Uint32Kind:   {types.UintType, reflect.TypeOf(uint32(0))},
	protoreflect.Fixed32Kind:  {types.UintType, reflect.TypeOf(uint32(0))},
	protoreflect.Uint64Kind:   {types.UintType, reflect.TypeOf(uint64(0))},
	protoreflect.Fixed64Kind:  {types.UintType, reflect.TypeOf(uint64(0))},
	protoreflect.FloatKind:    {types.DoubleType, reflect.TypeOf(float32(0))},
	protoreflect.DoubleKind:   {types.DoubleType, reflect.TypeOf(float64(0))},
	protoreflect.StringKind:   {types.StringType, reflect.TypeOf("")},
	protoreflect.BytesKind:    {types.BytesType, reflect.TypeOf([]byte(nil))},
}

// scalarValue converts a Go value into a protobuf value of the given kind.
// Integers of any width are accepted as long as they fit.
func scalarValue(kind protoreflect.Kind, val any) (protoreflect.Value, error) {
	switch kind {
	case protoreflect.BoolKind:
		if b, ok := val.(bool); ok {
			return protoreflect.ValueOfBool(b), nil
		}
	case protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Sfixed32Kind:
		if i, ok := toInt64(val); ok {
			if i < math.MinInt32 || i > math.MaxInt32 {
				return protoreflect.Value{}, overflowError(val, kind)
			}
			return protoreflect.ValueOfInt32(int32(i)), nil
		}
	case protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind:
		if i, ok := toInt64(val); ok {
			return protoreflect.ValueOfInt64(i), nil
		}
		if _, ok := toUint64(val); ok {
			return protoreflect.Value{}, overflowError(val, kind)
		}
	case protoreflect.Uint32Kind, protoreflect.Fixed32Kind:
		if u, ok := toUint64(val); ok {
			if u > math.MaxUint32 {
				return protoreflect.Value{}, overflowError(val, kind)
			}
			return protoreflect.ValueOfUint32(uint32(u)), nil
		}
		if _, ok := toInt64(val); ok {
			return protoreflect.Value{}, overflowError(val, kind)
		}
	case protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		if u, ok := toUint64(val); ok {
			return protoreflect.ValueOfUint64(u), nil
		}
		if _, ok := toInt64(val); ok {
			return protoreflect.Value{}, overflowError(val, kind)
		}
	case protoreflect.FloatKind:
		if f, ok := toFloat64(val); ok {
			if !math.IsInf(f, 0) && !math.IsNaN(f) && math.Abs(f) > math.MaxFloat32 {
				return protoreflect.Value{}, overflowError(val, kind)
			}
			return protoreflect.ValueOfFloat32(float32(f)), nil
		}
	case protoreflect.DoubleKind:
		if f, ok := toFloat64(val); ok {
			return protoreflect.ValueOfFloat64(f), nil
		}
	case protoreflect.StringKind:
		if s, ok := val.(string); ok {
			return protoreflect.ValueOfString(s), nil
		}
	case protoreflect.BytesKind:
		if b, ok := val.([]byte); ok {
			return protoreflect.ValueOfBytes(b), nil
		}
	}
	return protoreflect.Value{}, TypeConversionError(fmt.Sprintf("%T", val), kind)
}

func overflowError(val any, kind protoreflect.Kind) error {
	return fmt.Errorf("%w: value %v out of range for %v", ErrTypeConversion, val, kind)
}

// toInt64 converts signed integers, and unsigned ones that fit, to int64.
func toInt64(val any) (int64, bool) {
	switch v := val.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint:
		if uint64(v) <= math.MaxInt64 {
			return int64(v), true
		}
	case uint64:
		if v <= math.MaxInt64 {
			return int64(v), true
		}
	}
	return 0, false
}

// toUint64 converts unsigned integers, and non-negative signed ones, to uint64.
func toUint64(val any) (uint64, bool) {
	switch v := val.(type) {
	case uint:
		return uint64(v), true
	case uint8:
		return uint64(v), true
	case uint16:
		return uint64(v), true
	case uint32:
		return uint64(v), true
	case uint64:
		return v, true
	}
	if i, ok := toInt64(val); ok && i >= 0 {
		return uint64(i), true
	}
	return 0, false
}

func toFloat64(val any) (float64, bool) {
	switch v := val.(type) {
	case float32:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}

// isZeroScalar reports whether val is the default value of the given kind.
// Negative zero is not the default, matching protobuf's presence rules.
func isZeroScalar(kind protoreflect.Kind, val protoreflect.Value) bool {
	switch kind {
	case protoreflect.BoolKind:
		return !val.Bool()
	case protoreflect.EnumKind:
		return val.Enum() == 0
	case protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Sfixed32Kind,
		protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind:
		return val.Int() == 0
	case protoreflect.Uint32Kind, protoreflect.Fixed32Kind,
		protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		return val.Uint() == 0
	case protoreflect.FloatKind, protoreflect.DoubleKind:
		return math.Float64bits(val.Float()) == 0
	case protoreflect.StringKind:
		return val.String() == ""
	case protoreflect.BytesKind:
		return len(val.Bytes()) == 0
	default:
		return !val.IsValid()
	}
}
