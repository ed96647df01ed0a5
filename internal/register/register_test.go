package register

import (
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/known/durationpb"

	prototesting "github.com/jhump/protocel/internal/testing"
)

func TestExtensionsInFile(t *testing.T) {
	fd, err := prototesting.CompileSource("ext.proto", `
		syntax = "proto2";
		package ext;
		message Target {
			extensions 10 to 20;
		}
		extend Target {
			optional string top = 10;
		}
		message Outer {
			extend Target {
				optional int32 nested = 11;
			}
		}
	`)
	require.NoError(t, err)

	exts := ExtensionsInFile(fd)
	require.Len(t, exts["ext.Target"], 2)

	top := exts.Find("ext.Target", 10)
	require.NotNil(t, top)
	require.Equal(t, protoreflect.FullName("ext.top"), top.TypeDescriptor().FullName())
	nested := exts.FindByName("ext.Outer.nested")
	require.NotNil(t, nested)
	require.Equal(t, protoreflect.FieldNumber(11), nested.TypeDescriptor().Number())

	require.Nil(t, exts.Find("ext.Target", 12))
	require.Nil(t, exts.Find("ext.Outer", 10))
	require.Nil(t, exts.FindByName("ext.missing"))
}

func TestExtensionsInFile_None(t *testing.T) {
	exts := ExtensionsInFile(durationpb.File_google_protobuf_duration_proto)
	require.Nil(t, exts)
	require.Nil(t, exts.Find("google.protobuf.Duration", 1))
}
