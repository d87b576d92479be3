package extrt

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

func marshalJSON(v any) ([]byte, error) { return jsonAPI.Marshal(v) }

// buildEnvelope populates msg's fields by JSON name from fields, the same
// way internal/grpcrt.setMessageFieldsByJSON populates a resolver's request
// message from GraphQL argument values — adapted here to the fixed set of
// envelope keys this package's request messages carry (directiveId,
// argumentsJson, selectionSet, tokenBytes, and so on) rather than arbitrary
// GraphQL argument shapes.
func buildEnvelope(desc protoreflect.MessageDescriptor, fields map[string]any) (protoreflect.Message, error) {
	msg := dynamicpb.NewMessage(desc)
	byJSON := make(map[string]protoreflect.FieldDescriptor, desc.Fields().Len())
	fds := desc.Fields()
	for i := 0; i < fds.Len(); i++ {
		fd := fds.Get(i)
		byJSON[string(fd.JSONName())] = fd
	}
	for k, v := range fields {
		if v == nil {
			continue
		}
		fd, ok := byJSON[k]
		if !ok {
			continue
		}
		val, err := scalarValue(fd, v)
		if err != nil {
			return nil, fmt.Errorf("extrt: field %q: %w", k, err)
		}
		msg.Set(fd, val)
	}
	return msg, nil
}

func scalarValue(fd protoreflect.FieldDescriptor, v any) (protoreflect.Value, error) {
	switch fd.Kind() {
	case protoreflect.StringKind:
		switch s := v.(type) {
		case string:
			return protoreflect.ValueOfString(s), nil
		case []byte:
			return protoreflect.ValueOfString(string(s)), nil
		}
	case protoreflect.BytesKind:
		switch b := v.(type) {
		case []byte:
			return protoreflect.ValueOfBytes(b), nil
		case string:
			return protoreflect.ValueOfBytes([]byte(b)), nil
		}
	case protoreflect.BoolKind:
		if b, ok := v.(bool); ok {
			return protoreflect.ValueOfBool(b), nil
		}
	}
	return protoreflect.Value{}, fmt.Errorf("unsupported envelope value %T for %s (%s)", v, fd.JSONName(), fd.Kind())
}

// stringField / bytesField read an optional scalar out of a response
// envelope by JSON name, returning the zero value if the field is absent
// or unknown — a response message need not carry every envelope field.
func stringField(msg protoreflect.Message, name string) string {
	fd := fieldByJSON(msg.Descriptor(), name)
	if fd == nil || !msg.Has(fd) {
		return ""
	}
	return msg.Get(fd).String()
}

func bytesField(msg protoreflect.Message, name string) []byte {
	fd := fieldByJSON(msg.Descriptor(), name)
	if fd == nil || !msg.Has(fd) {
		return nil
	}
	switch fd.Kind() {
	case protoreflect.BytesKind:
		return msg.Get(fd).Bytes()
	case protoreflect.StringKind:
		return []byte(msg.Get(fd).String())
	}
	return nil
}

func fieldByJSON(desc protoreflect.MessageDescriptor, name string) protoreflect.FieldDescriptor {
	fds := desc.Fields()
	for i := 0; i < fds.Len(); i++ {
		if fd := fds.Get(i); string(fd.JSONName()) == name {
			return fd
		}
	}
	return nil
}
