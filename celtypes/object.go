package celtypes

import (
	"reflect"

	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/common/types/traits"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/anypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/jhump/protocel/celpb"
)

var (
	anyValueType  = reflect.TypeOf(&anypb.Any{})
	jsonValueType = reflect.TypeOf(&structpb.Value{})
)

// protoObj is a CEL object backed by a message that is not one of the
// well-known types.
type protoObj struct {
	registry  *Registry
	value     proto.Message
	typeDesc  *celpb.TypeDescription
	typeValue *types.Type
}

var (
	_ traits.Indexer     = (*protoObj)(nil)
	_ traits.FieldTester = (*protoObj)(nil)
	_ traits.Zeroer      = (*protoObj)(nil)
)

// ConvertToNative implements ref.Val.
func (o *protoObj) ConvertToNative(typeDesc reflect.Type) (any, error) {
	srcPB := o.value
	if reflect.TypeOf(srcPB).AssignableTo(typeDesc) {
		return srcPB, nil
	}
	if reflect.TypeOf(o).AssignableTo(typeDesc) {
		return o, nil
	}
	switch typeDesc {
	case anyValueType:
		return anypb.New(srcPB)
	case jsonValueType:
		data, err := protojson.MarshalOptions{Resolver: o.registry.db}.Marshal(srcPB)
		if err != nil {
			return nil, err
		}
		var jsonVal structpb.Value
		if err := protojson.Unmarshal(data, &jsonVal); err != nil {
			return nil, err
		}
		return &jsonVal, nil
	}
	if typeDesc.Kind() == reflect.Pointer {
		if dstPB, ok := reflect.New(typeDesc.Elem()).Interface().(proto.Message); ok {
			dstName := dstPB.ProtoReflect().Descriptor().FullName()
			if string(dstName) == o.typeDesc.Name() {
				data, err := proto.Marshal(srcPB)
				if err != nil {
					return nil, err
				}
				if err := proto.Unmarshal(data, dstPB); err != nil {
					return nil, err
				}
				return dstPB, nil
			}
		}
	}
	return nil, celpb.TypeConversionError(o.typeDesc.Name(), typeDesc)
}

// ConvertToType implements ref.Val.
func (o *protoObj) ConvertToType(typeVal ref.Type) ref.Val {
	if typeVal == types.TypeType {
		return o.typeValue
	}
	if o.typeDesc.Name() == typeVal.TypeName() {
		return o
	}
	return types.WrapErr(celpb.TypeConversionError(o.typeDesc.Name(), typeVal.TypeName()))
}

// Equal implements ref.Val.
func (o *protoObj) Equal(other ref.Val) ref.Val {
	otherPB, ok := other.Value().(proto.Message)
	return types.Bool(ok && proto.Equal(o.value, otherPB))
}

// IsZeroValue implements traits.Zeroer.
func (o *protoObj) IsZeroValue() bool {
	return proto.Size(o.value) == 0
}

// IsSet implements traits.FieldTester.
func (o *protoObj) IsSet(field ref.Val) ref.Val {
	fd, err := o.field(field)
	if err != nil {
		return err
	}
	return types.Bool(fd.IsSet(o.value))
}

// Get implements traits.Indexer.
func (o *protoObj) Get(index ref.Val) ref.Val {
	fd, err := o.field(index)
	if err != nil {
		return err
	}
	val, getErr := fd.GetFrom(o.value)
	if getErr != nil {
		return types.WrapErr(getErr)
	}
	return o.registry.NativeToValue(val)
}

func (o *protoObj) field(name ref.Val) (*celpb.FieldDescription, ref.Val) {
	fieldName, ok := name.(types.String)
	if !ok {
		return nil, types.MaybeNoSuchOverloadErr(name)
	}
	fd, found := o.typeDesc.FieldByName(string(fieldName))
	if !found {
		return nil, types.WrapErr(celpb.NoSuchFieldError(o.typeDesc.Name(), string(fieldName)))
	}
	return fd, nil
}

// Type implements ref.Val.
func (o *protoObj) Type() ref.Type {
	return o.typeValue
}

// Value implements ref.Val.
func (o *protoObj) Value() any {
	return o.value
}
