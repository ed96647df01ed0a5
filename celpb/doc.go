// Package celpb describes protobuf schemas in terms of the CEL type system.
//
// A Db is a registry of FileDescription values, each of which indexes the
// message types (TypeDescription) and enum values (EnumValueDescription)
// declared in one protobuf file. A TypeDescription knows the fields of its
// message (FieldDescription), how to allocate new instances of it, and how to
// unwrap instances of the well-known types (google.protobuf.Any, the scalar
// wrappers, Duration, Timestamp, Struct, ListValue and Value) into plain Go
// values that the CEL value adapter understands.
//
// The contents of a FileDescription never change after construction, so a Db
// can be copied cheaply: copies share the same FileDescription values but have
// their own name indexes. A Db is meant to be populated first and shared
// afterwards. Lookups may happen concurrently, but registrations into a single
// Db must not race with each other or with lookups on that same Db.
//
// No Db is created implicitly. Callers that want the well-known types
// available (nearly everyone) seed a new Db with WellKnownTypes:
//
//	db := celpb.NewDb(celpb.WellKnownTypes())
//	if _, err := db.RegisterDescriptor(myFile); err != nil {
//		return err
//	}
package celpb
