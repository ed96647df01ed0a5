package testing

import (
	"google.golang.org/protobuf/reflect/protoreflect"
)

// TestProtoPath is the path of the proto3 test schema, in package "pkg".
const TestProtoPath = "pkg/test.proto"

// TestProto2Path is the path of the proto2 test schema, in package "pkg2".
const TestProto2Path = "pkg2/test.proto"

// TestSources contains the sources of the test schemas, keyed by path.
var TestSources = map[string]string{
	TestProtoPath: `
syntax = "proto3";

package pkg;

import "google/protobuf/any.proto";
import "google/protobuf/duration.proto";
import "google/protobuf/struct.proto";
import "google/protobuf/timestamp.proto";
import "google/protobuf/wrappers.proto";

message Foo {
  int32 a = 1;
}

enum GlobalEnum {
  GLOBAL_ZERO = 0;
  GLOBAL_ONE = 1;
  GLOBAL_TWO = 2;
}

message AllTypes {
  message NestedMessage {
    int32 bb = 1;
  }
  enum NestedEnum {
    FOO = 0;
    BAR = 1;
    BAZ = 2;
  }

  bool single_bool = 1;
  int32 single_int32 = 2;
  int64 single_int64 = 3;
  sint32 single_sint32 = 4;
  sint64 single_sint64 = 5;
  sfixed32 single_sfixed32 = 6;
  sfixed64 single_sfixed64 = 7;
  uint32 single_uint32 = 8;
  uint64 single_uint64 = 9;
  fixed32 single_fixed32 = 10;
  fixed64 single_fixed64 = 11;
  float single_float = 12;
  double single_double = 13;
  string single_string = 14;
  bytes single_bytes = 15;
  optional int32 optional_int32 = 16;

  google.protobuf.Any single_any = 20;
  google.protobuf.Duration single_duration = 21;
  google.protobuf.Timestamp single_timestamp = 22;
  google.protobuf.Struct single_struct = 23;
  google.protobuf.Value single_value = 24;
  google.protobuf.ListValue list_value = 25;
  google.protobuf.NullValue null_value = 26;
  google.protobuf.BoolValue single_bool_wrapper = 27;
  google.protobuf.Int32Value single_int32_wrapper = 28;
  google.protobuf.UInt64Value single_uint64_wrapper = 29;
  google.protobuf.StringValue single_string_wrapper = 30;
  google.protobuf.DoubleValue single_double_wrapper = 31;

  NestedMessage single_nested_message = 40;
  NestedEnum single_nested_enum = 41;
  GlobalEnum standalone_enum = 42;

  oneof kind {
    string oneof_string = 50;
    int64 oneof_int64 = 51;
  }

  repeated int32 repeated_int32 = 60;
  repeated string repeated_string = 61;
  repeated NestedMessage repeated_nested_message = 62;
  repeated NestedEnum repeated_nested_enum = 63;

  map<string, int64> map_string_int64 = 70;
  map<int32, string> map_int32_string = 71;
  map<string, google.protobuf.Value> map_string_value = 72;
  map<string, NestedMessage> map_string_message = 73;
  map<bool, NestedEnum> map_bool_enum = 74;
}
`,
	TestProto2Path: `
syntax = "proto2";

package pkg2;

enum Closed {
  CLOSED_ONE = 1;
  CLOSED_TWO = 2;
}

message Base {
  optional string name = 1;
  optional Closed closed = 2;
  extensions 100 to 199;
}

extend Base {
  optional string note = 100;
}

message Holder {
  optional Base base = 1;
  optional int32 count = 2 [default = 7];
}
`,
}

// TestFile compiles and returns the proto3 test schema.
func TestFile() (protoreflect.FileDescriptor, error) {
	return CompileSources(TestSources, TestProtoPath)
}

// TestProto2File compiles and returns the proto2 test schema.
func TestProto2File() (protoreflect.FileDescriptor, error) {
	return CompileSources(TestSources, TestProto2Path)
}
