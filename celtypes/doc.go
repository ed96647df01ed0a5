// Package celtypes lets CEL expressions work with protobuf messages.
//
// A Registry is both a types.Provider, which the CEL checker uses to resolve
// type names, field selections and enum values, and a types.Adapter, which the
// interpreter uses to turn Go values into CEL values. Both are backed by a
// celpb.Db that describes the registered schemas.
//
//	reg, err := celtypes.NewRegistry(&mypb.Request{})
//	if err != nil {
//		return err
//	}
//	env, err := cel.NewEnv(
//		cel.CustomTypeProvider(reg),
//		cel.CustomTypeAdapter(reg),
//		cel.Variable("req", cel.ObjectType("mypkg.Request")),
//	)
//
// Messages are adapted the way CEL expects: the scalar wrappers become
// nullable scalars, google.protobuf.Any becomes the value it holds,
// Duration and Timestamp become CEL durations and timestamps, and the JSON
// types (Struct, ListValue and Value) become maps, lists and scalars. All
// other messages become CEL objects whose fields can be selected and tested
// for presence.
//
// Registries are not safe for concurrent registration. Populate a registry
// first, then share it. Use Registry.Copy to fork a registry that can be
// extended independently.
package celtypes
