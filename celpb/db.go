package celpb

import (
	"fmt"
	"strings"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"

	"github.com/jhump/protocel/internal/stdfiles"
)

// Seed is the set of files a new Db starts with.
type Seed []protoreflect.FileDescriptor

// WellKnownTypes returns a seed with the well-known type files: any,
// duration, empty, field_mask, struct, timestamp and wrappers.
func WellKnownTypes() Seed {
	return stdfiles.WellKnown()
}

// Db is a registry of described files. Every file is indexed under its key
// (its package and path) and under every message type and enum value name it
// declares.
//
// A Db also acts as a resolver of message and extension types, for parsing
// and formatting the messages it describes.
type Db struct {
	byName map[string]*FileDescription
	files  []*FileDescription
}

var _ protoregistry.MessageTypeResolver = (*Db)(nil)
var _ protoregistry.ExtensionTypeResolver = (*Db)(nil)

// NewDb returns a database that contains the files in the given seed. It
// panics if the seed files conflict with one another.
func NewDb(seed Seed) *Db {
	db := &Db{byName: map[string]*FileDescription{}}
	for _, fd := range seed {
		if _, err := db.RegisterDescriptor(fd); err != nil {
			panic(fmt.Sprintf("invalid seed: %v", err))
		}
	}
	return db
}

// Copy returns a database with the same contents as db. The copy shares the
// file descriptions of db, but registering files into one does not affect the
// other.
func (db *Db) Copy() *Db {
	cp := &Db{
		byName: make(map[string]*FileDescription, len(db.byName)),
		files:  make([]*FileDescription, len(db.files)),
	}
	for k, v := range db.byName {
		cp.byName[k] = v
	}
	copy(cp.files, db.files)
	return cp
}

// RegisterDescriptor adds the given file, and the files it imports, to the
// database. If a file with the same package and path was already registered,
// its existing description is returned. It is an error for the file, or any
// file it imports, to declare a message or enum value whose name belongs to
// another file in the database; in that case the database is left unchanged,
// including imports that were not registered before.
func (db *Db) RegisterDescriptor(fd protoreflect.FileDescriptor) (*FileDescription, error) {
	if existing, ok := db.byName[fileKey(fd)]; ok {
		return existing, nil
	}
	staged := db.Copy()
	file, err := staged.register(fd)
	if err != nil {
		return nil, err
	}
	db.byName, db.files = staged.byName, staged.files
	return file, nil
}

func (db *Db) register(fd protoreflect.FileDescriptor) (*FileDescription, error) {
	key := fileKey(fd)
	if existing, ok := db.byName[key]; ok {
		return existing, nil
	}
	imports := fd.Imports()
	for i, length := 0, imports.Len(); i < length; i++ {
		imp := imports.Get(i)
		if imp.IsPlaceholder() {
			continue
		}
		if _, err := db.register(imp.FileDescriptor); err != nil {
			return nil, err
		}
	}

	file := NewFileDescription(fd)
	names := append(file.TypeNames(), file.EnumNames()...)
	for _, name := range names {
		if existing, ok := db.byName[name]; ok {
			return nil, fmt.Errorf("%w: type %s is defined in both %q and %q", ErrTypeConflict, name, existing.Path(), fd.Path())
		}
	}
	db.byName[key] = file
	for _, name := range names {
		db.byName[name] = file
	}
	db.files = append(db.files, file)
	return file, nil
}

// RegisterMessage registers the file that declares the given message, and
// makes the message's type the one used to create new instances of it.
func (db *Db) RegisterMessage(msg proto.Message) (*FileDescription, error) {
	md := msg.ProtoReflect().Descriptor()
	file, err := db.RegisterDescriptor(md.ParentFile())
	if err != nil {
		return nil, err
	}
	if td, ok := db.DescribeType(string(md.FullName())); ok {
		td.UpdateZero(msg)
	}
	return file, nil
}

// DescribeType returns the description of the named message type. The name
// may have a leading dot.
func (db *Db) DescribeType(name string) (*TypeDescription, bool) {
	name = strings.TrimPrefix(name, ".")
	file, ok := db.byName[name]
	if !ok {
		return nil, false
	}
	return file.GetTypeDescription(name)
}

// DescribeEnum returns the description of the named enum value. The name may
// have a leading dot.
func (db *Db) DescribeEnum(name string) (*EnumValueDescription, bool) {
	name = strings.TrimPrefix(name, ".")
	file, ok := db.byName[name]
	if !ok {
		return nil, false
	}
	return file.GetEnumDescription(name)
}

// FileDescriptions returns the registered files, in the order they were
// registered.
func (db *Db) FileDescriptions() []*FileDescription {
	return append([]*FileDescription(nil), db.files...)
}

// FindMessageByName implements part of protoregistry.MessageTypeResolver.
func (db *Db) FindMessageByName(message protoreflect.FullName) (protoreflect.MessageType, error) {
	td, ok := db.DescribeType(string(message))
	if !ok {
		return nil, protoregistry.NotFound
	}
	return td.MessageType(), nil
}

// FindMessageByURL implements part of protoregistry.MessageTypeResolver.
func (db *Db) FindMessageByURL(url string) (protoreflect.MessageType, error) {
	return db.FindMessageByName(protoreflect.FullName(TypeNameFromURL(url)))
}

// FindExtensionByName implements part of protoregistry.ExtensionTypeResolver.
func (db *Db) FindExtensionByName(field protoreflect.FullName) (protoreflect.ExtensionType, error) {
	for _, file := range db.files {
		if ext := file.exts.FindByName(field); ext != nil {
			return ext, nil
		}
	}
	return nil, protoregistry.NotFound
}

// FindExtensionByNumber implements part of protoregistry.ExtensionTypeResolver.
func (db *Db) FindExtensionByNumber(message protoreflect.FullName, field protoreflect.FieldNumber) (protoreflect.ExtensionType, error) {
	for _, file := range db.files {
		if ext := file.exts.Find(message, field); ext != nil {
			return ext, nil
		}
	}
	return nil, protoregistry.NotFound
}

func fileKey(fd protoreflect.FileDescriptor) string {
	return string(fd.Package()) + ":" + stdfiles.CanonicalPath(fd.Path())
}
