// Package testing contains helpers shared by the tests of several packages.
package testing

import (
	"context"
	"fmt"

	"github.com/bufbuild/protocompile"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// CompileSources compiles the given in-memory proto sources, keyed by path,
// and returns the descriptor for the file at the given path. Imports of the
// standard well-known files resolve to the descriptors linked into the binary.
func CompileSources(sources map[string]string, path string) (protoreflect.FileDescriptor, error) {
	compiler := protocompile.Compiler{
		Resolver: protocompile.WithStandardImports(&protocompile.SourceResolver{
			Accessor: protocompile.SourceAccessorFromMap(sources),
		}),
	}
	files, err := compiler.Compile(context.Background(), path)
	if err != nil {
		return nil, err
	}
	if len(files) != 1 {
		return nil, fmt.Errorf("expecting 1 compiled file, got %d", len(files))
	}
	return files[0], nil
}

// CompileSource compiles a single proto source with the given path.
func CompileSource(path, source string) (protoreflect.FileDescriptor, error) {
	return CompileSources(map[string]string{path: source}, path)
}
