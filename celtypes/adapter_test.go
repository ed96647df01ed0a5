package celtypes_test

import (
	"context"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/common/types/traits"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/testing/protocmp"
	"google.golang.org/protobuf/types/dynamicpb"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/known/anypb"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/fieldmaskpb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/jhump/protocel/celpb"
	"github.com/jhump/protocel/celtypes"
)

func TestNativeToValue_Primitives(t *testing.T) {
	reg, err := celtypes.NewRegistry()
	require.NoError(t, err)
	ts := time.Date(2021, 1, 2, 3, 4, 5, 0, time.UTC)

	testCases := []struct {
		name     string
		value    any
		expected ref.Val
	}{
		{"nil", nil, types.NullValue},
		{"null value", structpb.NullValue_NULL_VALUE, types.NullValue},
		{"ref.Val", types.String("x"), types.String("x")},
		{"bool", true, types.True},
		{"int", 3, types.Int(3)},
		{"int32", int32(-3), types.Int(-3)},
		{"int64", int64(1 << 40), types.Int(1 << 40)},
		{"uint", uint(3), types.Uint(3)},
		{"uint32", uint32(3), types.Uint(3)},
		{"uint64", uint64(1 << 63), types.Uint(1 << 63)},
		{"float32", float32(0.25), types.Double(0.25)},
		{"float64", 0.5, types.Double(0.5)},
		{"string", "abc", types.String("abc")},
		{"bytes", []byte("abc"), types.Bytes("abc")},
		{"duration", time.Second, types.Duration{Duration: time.Second}},
		{"time", ts, types.Timestamp{Time: ts}},
		{"enum number", protoreflect.EnumNumber(4), types.Int(4)},
		{"enum", descriptorpb.FieldDescriptorProto_TYPE_INT32, types.Int(5)},
		{"duration message", durationpb.New(time.Minute), types.Duration{Duration: time.Minute}},
		{"timestamp message", timestamppb.New(ts), types.Timestamp{Time: ts}},
		{"value message", structpb.NewNumberValue(2), types.Double(2)},
		{"string slice", []string{"a", "b"}, types.NewStringList(reg, []string{"a", "b"})},
		{"go map", map[string]int{"a": 1}, types.NewStringInterfaceMap(reg, map[string]any{"a": 1})},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			requireEqual(t, tc.expected, reg.NativeToValue(tc.value))
		})
	}

	requireErr(t, reg.NativeToValue(struct{ A int }{A: 1}), celpb.ErrUnsupportedConversion)
	requireErr(t, reg.NativeToValue(make(chan int)), celpb.ErrUnsupportedConversion)
}

func TestNativeToValue_JSON(t *testing.T) {
	reg, err := celtypes.NewRegistry()
	require.NoError(t, err)
	s, err := structpb.NewStruct(map[string]any{"a": "b", "c": []any{1.0, nil}})
	require.NoError(t, err)

	val := reg.NativeToValue(s)
	mapper, ok := val.(traits.Mapper)
	require.True(t, ok)
	requireEqual(t, types.String("b"), mapper.Get(types.String("a")))
	list, ok := mapper.Get(types.String("c")).(traits.Lister)
	require.True(t, ok)
	requireEqual(t, types.Double(1), list.Get(types.Int(0)))
	require.Equal(t, types.NullValue, list.Get(types.Int(1)))

	requireEqual(t, types.Int(0), reg.NativeToValue((*structpb.Struct)(nil)).(traits.Sizer).Size())
	requireEqual(t, types.Int(0), reg.NativeToValue((*structpb.ListValue)(nil)).(traits.Sizer).Size())

	any1, err := anypb.New(s)
	require.NoError(t, err)
	requireEqual(t, val, reg.NativeToValue(any1))
	requireErr(t, reg.NativeToValue(&anypb.Any{}), celpb.ErrAnyWithEmptyType)
}

func TestProtoObj_Conversions(t *testing.T) {
	reg := newTestRegistry(t)
	foo := reg.NewValue("pkg.Foo", map[string]ref.Val{"a": types.Int(5)})
	require.False(t, types.IsError(foo), "unexpected error: %v", foo)
	fooMsg := foo.Value().(proto.Message)

	// Passthrough.
	native, err := foo.ConvertToNative(reflect.TypeOf((*proto.Message)(nil)).Elem())
	require.NoError(t, err)
	require.Same(t, fooMsg, native)
	native, err = reg.ConvertToNative(foo, reflect.TypeOf((*ref.Val)(nil)).Elem())
	require.NoError(t, err)
	require.Equal(t, foo, native)

	// Packing into Any.
	native, err = foo.ConvertToNative(reflect.TypeOf(&anypb.Any{}))
	require.NoError(t, err)
	packed := native.(*anypb.Any)
	require.Equal(t, "type.googleapis.com/pkg.Foo", packed.GetTypeUrl())
	requireEqual(t, foo, reg.NativeToValue(packed))

	// Rendering as JSON.
	native, err = foo.ConvertToNative(reflect.TypeOf(&structpb.Value{}))
	require.NoError(t, err)
	expected, err := structpb.NewValue(map[string]any{"a": 5.0})
	require.NoError(t, err)
	require.Empty(t, cmp.Diff(expected, native, protocmp.Transform()))

	_, err = foo.ConvertToNative(reflect.TypeOf(&wrapperspb.Int32Value{}))
	require.ErrorIs(t, err, celpb.ErrTypeConversion)
	_, err = foo.ConvertToNative(reflect.TypeOf(""))
	require.ErrorIs(t, err, celpb.ErrTypeConversion)
	_, err = reg.ConvertToNative(types.NewErr("boom"), reflect.TypeOf(""))
	require.ErrorContains(t, err, "boom")
	_, err = reg.ConvertToNative(types.String("x"), reflect.TypeOf(0))
	require.ErrorIs(t, err, celpb.ErrTypeConversion)
	require.ErrorContains(t, err, "string")
	_, err = reg.ConvertToNative(types.Int(1<<40), reflect.TypeOf(int32(0)))
	require.ErrorIs(t, err, celpb.ErrTypeConversion)
	_, err = reg.ConvertToNative(foo, reflect.TypeOf(&wrapperspb.Int32Value{}))
	require.ErrorIs(t, err, celpb.ErrTypeConversion)
	native, err = reg.ConvertToNative(types.Int(3), reflect.TypeOf(int32(0)))
	require.NoError(t, err)
	require.Equal(t, int32(3), native)

	// Type conversions.
	typeVal := foo.ConvertToType(types.TypeType)
	require.Equal(t, "pkg.Foo", typeVal.(ref.Type).TypeName())
	require.Same(t, foo, foo.ConvertToType(types.NewObjectType("pkg.Foo")))
	requireErr(t, foo.ConvertToType(types.StringType), celpb.ErrTypeConversion)

	// Equality.
	same := reg.NewValue("pkg.Foo", map[string]ref.Val{"a": types.Int(5)})
	different := reg.NewValue("pkg.Foo", map[string]ref.Val{"a": types.Int(6)})
	require.Equal(t, types.True, foo.Equal(same))
	require.Equal(t, types.False, foo.Equal(different))
	require.Equal(t, types.False, foo.Equal(types.Int(5)))
	require.False(t, foo.(traits.Zeroer).IsZeroValue())
	require.True(t, reg.NewValue("pkg.Foo", nil).(traits.Zeroer).IsZeroValue())
}

func TestProtoObj_RebuildGenerated(t *testing.T) {
	reg, err := celtypes.NewRegistry()
	require.NoError(t, err)
	td, ok := reg.Db().DescribeType("google.protobuf.FieldMask")
	require.True(t, ok)

	// A dynamic instance converts to the generated type for the same message.
	dyn := dynamicpb.NewMessage(td.Descriptor())
	proto.Merge(dyn, &fieldmaskpb.FieldMask{Paths: []string{"a.b", "c"}})
	obj := reg.NativeToValue(dyn)
	require.False(t, types.IsError(obj), "unexpected error: %v", obj)
	require.Equal(t, "google.protobuf.FieldMask", obj.Type().TypeName())
	native, err := obj.ConvertToNative(reflect.TypeOf(&fieldmaskpb.FieldMask{}))
	require.NoError(t, err)
	require.Empty(t, cmp.Diff(&fieldmaskpb.FieldMask{Paths: []string{"a.b", "c"}}, native, protocmp.Transform()))

	_, err = obj.ConvertToNative(reflect.TypeOf(&emptypb.Empty{}))
	require.ErrorIs(t, err, celpb.ErrTypeConversion)
	_, err = obj.ConvertToNative(reflect.TypeOf(struct{}{}))
	require.ErrorIs(t, err, celpb.ErrTypeConversion)
}

func TestRegistry_ConcurrentAdaptation(t *testing.T) {
	reg := newTestRegistry(t)
	group, _ := errgroup.WithContext(context.Background())
	for i := 0; i < 16; i++ {
		group.Go(func() error {
			obj := reg.NewValue("pkg.Foo", map[string]ref.Val{"a": types.Int(int64(i))})
			if types.IsError(obj) {
				return obj.Value().(error)
			}
			if got := obj.(traits.Indexer).Get(types.String("a")); got != types.Int(int64(i)) {
				return fmt.Errorf("expected %d, got %v", i, got)
			}
			if got := reg.NativeToValue(wrapperspb.Int64(int64(i))); got != types.Int(int64(i)) {
				return fmt.Errorf("expected %d, got %v", i, got)
			}
			if _, found := reg.FindStructFieldType("pkg.AllTypes", "map_string_value"); !found {
				return fmt.Errorf("field not found")
			}
			return nil
		})
	}
	require.NoError(t, group.Wait())
}
