// Package register collects the extension types declared in a file so they
// can be resolved by number when parsing message payloads.
package register

import (
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

// Extensions indexes extension types by the name of the message they extend
// and then by field number.
type Extensions map[protoreflect.FullName]map[protoreflect.FieldNumber]protoreflect.ExtensionType

// ExtensionsInFile returns the extensions declared in file, including those
// nested inside message declarations. It returns nil if there are none.
func ExtensionsInFile(file protoreflect.FileDescriptor) Extensions {
	var exts Extensions
	registerExtensions(file, &exts)
	return exts
}

// Find returns the extension of the given message with the given number.
func (e Extensions) Find(message protoreflect.FullName, field protoreflect.FieldNumber) protoreflect.ExtensionType {
	return e[message][field]
}

// FindByName returns the extension with the given fully-qualified name.
func (e Extensions) FindByName(name protoreflect.FullName) protoreflect.ExtensionType {
	for _, byNumber := range e {
		for _, ext := range byNumber {
			if ext.TypeDescriptor().FullName() == name {
				return ext
			}
		}
	}
	return nil
}

type typeContainer interface {
	Messages() protoreflect.MessageDescriptors
	Extensions() protoreflect.ExtensionDescriptors
}

func registerExtensions(container typeContainer, exts *Extensions) {
	extDescs := container.Extensions()
	for i, length := 0, extDescs.Len(); i < length; i++ {
		ext := extDescs.Get(i)
		if *exts == nil {
			*exts = Extensions{}
		}
		extendee := ext.ContainingMessage().FullName()
		byNumber := (*exts)[extendee]
		if byNumber == nil {
			byNumber = map[protoreflect.FieldNumber]protoreflect.ExtensionType{}
			(*exts)[extendee] = byNumber
		}
		byNumber[ext.Number()] = extensionType(ext)
	}

	msgs := container.Messages()
	for i, length := 0, msgs.Len(); i < length; i++ {
		registerExtensions(msgs.Get(i), exts)
	}
}

// extensionType returns the generated extension type if the descriptor has one,
// otherwise a dynamic type.
func extensionType(ext protoreflect.ExtensionDescriptor) protoreflect.ExtensionType {
	if xtd, ok := ext.(protoreflect.ExtensionTypeDescriptor); ok {
		return xtd.Type()
	}
	return dynamicpb.NewExtensionType(ext)
}
