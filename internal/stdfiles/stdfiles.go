// Package stdfiles knows about the standard well-known files that ship with
// protoc, and the legacy paths some older generated code registered them under.
package stdfiles

import (
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/known/anypb"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/fieldmaskpb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// WellKnown returns the file descriptors of the well-known types. The
// descriptors are the ones linked into the binary, so their message types are
// the generated Go types.
func WellKnown() []protoreflect.FileDescriptor {
	return []protoreflect.FileDescriptor{
		anypb.File_google_protobuf_any_proto,
		durationpb.File_google_protobuf_duration_proto,
		emptypb.File_google_protobuf_empty_proto,
		fieldmaskpb.File_google_protobuf_field_mask_proto,
		structpb.File_google_protobuf_struct_proto,
		timestamppb.File_google_protobuf_timestamp_proto,
		wrapperspb.File_google_protobuf_wrappers_proto,
	}
}

// These are standard protos included with protoc, but older versions of their
// respective packages registered them using incorrect paths.
var aliases = map[string]string{
	// Files for the github.com/golang/protobuf/ptypes package at one point were
	// registered using the path where the proto files are mirrored in GOPATH,
	// inside the golang/protobuf repo.
	"github.com/golang/protobuf/ptypes/any/any.proto":             "google/protobuf/any.proto",
	"github.com/golang/protobuf/ptypes/duration/duration.proto":   "google/protobuf/duration.proto",
	"github.com/golang/protobuf/ptypes/empty/empty.proto":         "google/protobuf/empty.proto",
	"github.com/golang/protobuf/ptypes/struct/struct.proto":       "google/protobuf/struct.proto",
	"github.com/golang/protobuf/ptypes/timestamp/timestamp.proto": "google/protobuf/timestamp.proto",
	"github.com/golang/protobuf/ptypes/wrappers/wrappers.proto":   "google/protobuf/wrappers.proto",
	// Files for the google.golang.org/genproto/protobuf package at one point
	// were registered with an anomalous "src/" prefix.
	"src/google/protobuf/field_mask.proto": "google/protobuf/field_mask.proto",
}

// CanonicalPath returns the path under which the given standard file is
// normally registered. Paths that are not legacy aliases are returned as is.
func CanonicalPath(path string) string {
	if canonical, ok := aliases[path]; ok {
		return canonical
	}
	return path
}
