package celtypes_test

import (
	"testing"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func TestCEL_EndToEnd(t *testing.T) {
	reg := newTestRegistry(t)
	env, err := cel.NewEnv(
		cel.CustomTypeProvider(reg),
		cel.CustomTypeAdapter(reg),
		cel.Container("pkg"),
		cel.Variable("msg", cel.ObjectType("pkg.AllTypes")),
		cel.Variable("wrapped", cel.NullableType(cel.BoolType)),
	)
	require.NoError(t, err)

	msg := reg.NewValue("pkg.AllTypes", map[string]ref.Val{
		"single_int32":          types.Int(7),
		"single_int32_wrapper":  types.Int(0),
		"single_string_wrapper": types.String("hello"),
		"single_nested_message": reg.NewValue("pkg.AllTypes.NestedMessage", map[string]ref.Val{"bb": types.Int(3)}),
		"map_string_int64":      types.NewStringInterfaceMap(reg, map[string]any{"x": 10}),
		"repeated_string":       types.NewStringList(reg, []string{"a", "b", "c"}),
		"standalone_enum":       types.Int(2),
	})
	require.False(t, types.IsError(msg), "unexpected error: %v", msg)
	vars := map[string]any{
		"msg":     msg.Value().(proto.Message),
		"wrapped": (*wrapperspb.BoolValue)(nil),
	}

	testCases := []struct {
		expr     string
		expected ref.Val
	}{
		{`Foo{a: 5}.a`, types.Int(5)},
		{`pkg.Foo{a: 5}.a == 5`, types.True},
		{`has(Foo{}.a)`, types.False},
		{`GlobalEnum.GLOBAL_TWO`, types.Int(2)},
		{`AllTypes.NestedEnum.BAZ`, types.Int(2)},
		{`msg.single_int32 + 1`, types.Int(8)},
		{`msg.single_int32_wrapper`, types.Int(0)},
		{`has(msg.single_int32_wrapper)`, types.True},
		{`has(msg.single_bool_wrapper)`, types.False},
		{`msg.single_bool_wrapper == null`, types.True},
		{`msg.single_string_wrapper + " world"`, types.String("hello world")},
		{`msg.single_nested_message.bb`, types.Int(3)},
		{`has(msg.single_nested_message)`, types.True},
		{`msg.map_string_int64["x"]`, types.Int(10)},
		{`msg.repeated_string.size()`, types.Int(3)},
		{`msg.repeated_string[1]`, types.String("b")},
		{`msg.standalone_enum == GlobalEnum.GLOBAL_TWO`, types.True},
		{`AllTypes{map_string_int64: {"a": 1, "b": 2}}.map_string_int64.size()`, types.Int(2)},
		{`AllTypes{single_int32_wrapper: 4}.single_int32_wrapper`, types.Int(4)},
		{`AllTypes{single_any: Foo{a: 9}}.single_any.a`, types.Int(9)},
		{`google.protobuf.Int32Value{value: 3} + 1`, types.Int(4)},
		{`wrapped == null`, types.True},
		{`type(Foo{}) == pkg.Foo`, types.True},
	}
	for _, tc := range testCases {
		t.Run(tc.expr, func(t *testing.T) {
			ast, iss := env.Compile(tc.expr)
			require.NoError(t, iss.Err())
			prg, err := env.Program(ast)
			require.NoError(t, err)
			out, _, err := prg.Eval(vars)
			require.NoError(t, err)
			require.Equal(t, types.True, tc.expected.Equal(out), "expected %v, got %v", tc.expected, out)
		})
	}
}

func TestCEL_Errors(t *testing.T) {
	reg := newTestRegistry(t)
	env, err := cel.NewEnv(
		cel.CustomTypeProvider(reg),
		cel.CustomTypeAdapter(reg),
		cel.Container("pkg"),
		cel.Variable("msg", cel.ObjectType("pkg.AllTypes")),
	)
	require.NoError(t, err)

	for _, expr := range []string{
		`Foo{missing: 1}`,
		`Missing{}`,
		`msg.no_such_field`,
		`Foo{a: "abc"}`,
	} {
		_, iss := env.Compile(expr)
		require.Error(t, iss.Err(), expr)
	}

	// Values that do not fit the field fail at evaluation.
	ast, iss := env.Compile(`Foo{a: 1099511627776}`)
	require.NoError(t, iss.Err())
	prg, err := env.Program(ast)
	require.NoError(t, err)
	_, _, err = prg.Eval(cel.NoVars())
	require.ErrorContains(t, err, "type conversion error")
}
