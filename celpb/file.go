package celpb

import (
	"sort"

	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/jhump/protocel/internal/register"
)

// FileDescription indexes the message types and enum values declared in a
// single file, including nested declarations. Its contents never change
// after construction.
type FileDescription struct {
	desc  protoreflect.FileDescriptor
	types map[string]*TypeDescription
	enums map[string]*EnumValueDescription
	exts  register.Extensions
}

// NewFileDescription indexes the given file.
func NewFileDescription(desc protoreflect.FileDescriptor) *FileDescription {
	fd := &FileDescription{
		desc:  desc,
		types: map[string]*TypeDescription{},
		enums: map[string]*EnumValueDescription{},
		exts:  register.ExtensionsInFile(desc),
	}
	fd.indexEnums(desc.Enums())
	fd.indexMessages(desc.Messages())
	return fd
}

func (fd *FileDescription) indexMessages(msgs protoreflect.MessageDescriptors) {
	for i, length := 0, msgs.Len(); i < length; i++ {
		msg := msgs.Get(i)
		if msg.IsMapEntry() {
			continue
		}
		fd.types[string(msg.FullName())] = NewTypeDescription(msg)
		fd.indexEnums(msg.Enums())
		fd.indexMessages(msg.Messages())
	}
}

func (fd *FileDescription) indexEnums(enums protoreflect.EnumDescriptors) {
	for i, length := 0, enums.Len(); i < length; i++ {
		vals := enums.Get(i).Values()
		for j, numVals := 0, vals.Len(); j < numVals; j++ {
			ev := NewEnumValueDescription(vals.Get(j))
			fd.enums[ev.Name()] = ev
		}
	}
}

// Path returns the path of the file.
func (fd *FileDescription) Path() string {
	return fd.desc.Path()
}

// Descriptor returns the underlying file descriptor.
func (fd *FileDescription) Descriptor() protoreflect.FileDescriptor {
	return fd.desc
}

// TypeNames returns the fully-qualified names of all message types in the
// file, sorted.
func (fd *FileDescription) TypeNames() []string {
	return sortedKeys(fd.types)
}

// EnumNames returns the fully-qualified names of all enum values in the file,
// sorted.
func (fd *FileDescription) EnumNames() []string {
	return sortedKeys(fd.enums)
}

// GetTypeDescription returns the named message type.
func (fd *FileDescription) GetTypeDescription(name string) (*TypeDescription, bool) {
	td, ok := fd.types[name]
	return td, ok
}

// GetEnumDescription returns the named enum value.
func (fd *FileDescription) GetEnumDescription(name string) (*EnumValueDescription, bool) {
	ed, ok := fd.enums[name]
	return ed, ok
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
