package celtypes

import (
	"fmt"
	"maps"

	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/jhump/protocel/celpb"
)

var primitiveTypes = []ref.Type{
	types.BoolType,
	types.BytesType,
	types.DoubleType,
	types.DurationType,
	types.IntType,
	types.ListType,
	types.MapType,
	types.NullType,
	types.StringType,
	types.TimestampType,
	types.TypeType,
	types.UintType,
}

// Registry resolves CEL type names, field selections and enum values against
// a database of protobuf schemas, constructs messages from CEL object
// literals, and adapts Go values into CEL values.
//
// A Registry follows the same build-then-share discipline as its database:
// registrations must not race with each other or with lookups, but lookups
// and value adaptation may happen concurrently once registration is done. Use
// Copy to give a forked environment its own registrations.
type Registry struct {
	db    *celpb.Db
	types map[string]*types.Type
}

var _ types.Provider = (*Registry)(nil)
var _ types.Adapter = (*Registry)(nil)

// NewRegistry returns a registry that knows the CEL primitive types, the
// well-known protobuf types, and the files that declare the given messages.
func NewRegistry(msgs ...proto.Message) (*Registry, error) {
	return NewRegistryFromDb(celpb.NewDb(celpb.WellKnownTypes()), msgs...)
}

// NewRegistryFromDb is like NewRegistry, but the registry is backed by the
// given database instead of a new one. Every message type already in db is
// declared. The registry takes ownership of db: registrations through the
// registry are made into it.
func NewRegistryFromDb(db *celpb.Db, msgs ...proto.Message) (*Registry, error) {
	r := &Registry{db: db, types: map[string]*types.Type{}}
	if err := r.RegisterType(primitiveTypes...); err != nil {
		return nil, err
	}
	if err := r.declareFiles(); err != nil {
		return nil, err
	}
	for _, msg := range msgs {
		if err := r.RegisterMessage(msg); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// NewEmptyRegistry returns a registry whose database is seeded with the
// well-known types but which declares no CEL types at all. Callers declare
// the types they want with RegisterType, RegisterDescriptor and
// RegisterMessage.
func NewEmptyRegistry() *Registry {
	return &Registry{
		db:    celpb.NewDb(celpb.WellKnownTypes()),
		types: map[string]*types.Type{},
	}
}

// Copy returns a registry with the same contents as r. Registrations into the
// copy are not visible in r and vice versa.
func (r *Registry) Copy() *Registry {
	return &Registry{
		db:    r.db.Copy(),
		types: maps.Clone(r.types),
	}
}

// Db returns the database backing the registry.
func (r *Registry) Db() *celpb.Db {
	return r.db
}

// RegisterDescriptor registers the given file, and the files it imports, and
// declares every message type they contain as a CEL object type.
func (r *Registry) RegisterDescriptor(fd protoreflect.FileDescriptor) error {
	if _, err := r.db.RegisterDescriptor(fd); err != nil {
		return err
	}
	return r.declareFiles()
}

// RegisterMessage registers the file that declares the given message, like
// RegisterDescriptor, and makes the message's Go type the one used when
// creating new instances of it.
func (r *Registry) RegisterMessage(msg proto.Message) error {
	if _, err := r.db.RegisterMessage(msg); err != nil {
		return err
	}
	return r.declareFiles()
}

// declareFiles declares the message types of every file in the database.
// Imports are registered implicitly, so they are covered too.
func (r *Registry) declareFiles() error {
	for _, file := range r.db.FileDescriptions() {
		if err := r.registerAllTypes(file); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) registerAllTypes(file *celpb.FileDescription) error {
	for _, name := range file.TypeNames() {
		// Well-known types are declared as the CEL types they stand for,
		// e.g. google.protobuf.Int32Value is a nullable int.
		if err := r.registerType(name, types.NewObjectType(name)); err != nil {
			return err
		}
	}
	return nil
}

// RegisterType declares the given CEL types. Declaring a type again with an
// identical definition has no effect. Declaring a different type under a
// name that is already declared is an error.
func (r *Registry) RegisterType(ts ...ref.Type) error {
	for _, t := range ts {
		celType, ok := t.(*types.Type)
		if !ok {
			return fmt.Errorf("%w: cannot register type %s of kind %T", celpb.ErrUnsupportedConversion, t.TypeName(), t)
		}
		if err := r.registerType(celType.TypeName(), celType); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) registerType(name string, t *types.Type) error {
	if existing, ok := r.types[name]; ok {
		if existing.IsExactType(t) {
			return nil
		}
		return fmt.Errorf("%w: type %s is already declared as %v, cannot redeclare as %v", celpb.ErrTypeConflict, name, existing, t)
	}
	r.types[name] = t
	return nil
}

// EnumValue returns the number of the named enum value as a CEL int, or an
// error value if there is no such enum value.
func (r *Registry) EnumValue(enumName string) ref.Val {
	ev, found := r.db.DescribeEnum(enumName)
	if !found {
		return types.WrapErr(fmt.Errorf("%w: no enum value named %q", celpb.ErrUnknownType, enumName))
	}
	return types.Int(ev.Value())
}

// FindIdent resolves an identifier to a declared type or, failing that, to
// the number of an enum value.
func (r *Registry) FindIdent(identName string) (ref.Val, bool) {
	if t, found := r.types[identName]; found {
		return t, true
	}
	if ev, found := r.db.DescribeEnum(identName); found {
		return types.Int(ev.Value()), true
	}
	return nil, false
}

// FindIdentifier is another name for FindIdent.
func (r *Registry) FindIdentifier(name string) (ref.Val, bool) {
	return r.FindIdent(name)
}

// FindStructType returns the type of the named message type: a type whose
// parameter is the message's object type.
func (r *Registry) FindStructType(structType string) (*types.Type, bool) {
	td, found := r.db.DescribeType(structType)
	if !found {
		return nil, false
	}
	return types.NewTypeTypeWithParam(r.objectType(td.Name())), true
}

// FindStructFieldNames returns the field names of the named message type, in
// declaration order.
func (r *Registry) FindStructFieldNames(structType string) ([]string, bool) {
	td, found := r.db.DescribeType(structType)
	if !found {
		return nil, false
	}
	return td.FieldNames(), true
}

// FindStructFieldType returns the CEL type of the named field, along with
// functions to test and get the field on instances of the message.
func (r *Registry) FindStructFieldType(structType, fieldName string) (*types.FieldType, bool) {
	td, found := r.db.DescribeType(structType)
	if !found {
		return nil, false
	}
	field, found := td.FieldByName(fieldName)
	if !found {
		return nil, false
	}
	return &types.FieldType{
		Type:    field.CheckedType(),
		IsSet:   field.IsSet,
		GetFrom: field.GetFrom,
	}, true
}

// FindType returns the type of the named declared type or message type.
func (r *Registry) FindType(typeName string) (*types.Type, bool) {
	if t, found := r.types[typeName]; found {
		return types.NewTypeTypeWithParam(t), true
	}
	return r.FindStructType(typeName)
}

// FindFieldType is another name for FindStructFieldType.
func (r *Registry) FindFieldType(typeName, fieldName string) (*types.FieldType, bool) {
	return r.FindStructFieldType(typeName, fieldName)
}

func (r *Registry) objectType(name string) *types.Type {
	if t, found := r.types[name]; found && t.Kind() == types.StructKind {
		return t
	}
	return types.NewObjectType(name)
}
