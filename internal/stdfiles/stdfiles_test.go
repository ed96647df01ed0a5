package stdfiles

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanonicalPath(t *testing.T) {
	require.Equal(t, "google/protobuf/any.proto", CanonicalPath("github.com/golang/protobuf/ptypes/any/any.proto"))
	require.Equal(t, "google/protobuf/field_mask.proto", CanonicalPath("src/google/protobuf/field_mask.proto"))
	require.Equal(t, "google/protobuf/any.proto", CanonicalPath("google/protobuf/any.proto"))
	require.Equal(t, "foo/bar.proto", CanonicalPath("foo/bar.proto"))
}

func TestWellKnown(t *testing.T) {
	seen := map[string]bool{}
	for _, fd := range WellKnown() {
		require.Equal(t, fd.Path(), CanonicalPath(fd.Path()))
		require.False(t, seen[fd.Path()], "duplicate file %s", fd.Path())
		seen[fd.Path()] = true
	}
	require.Len(t, seen, 7)
}
