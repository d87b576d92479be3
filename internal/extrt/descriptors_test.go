package extrt

import (
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"
)

func protoString(s string) *string { return &s }
func protoInt32(n int32) *int32    { return &n }

func strField(name string, num int32) *descriptorpb.FieldDescriptorProto {
	return &descriptorpb.FieldDescriptorProto{
		Name: protoString(name), JsonName: protoString(name), Number: protoInt32(num),
		Label: descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
		Type:  descriptorpb.FieldDescriptorProto_TYPE_STRING.Enum(),
	}
}

func bytesFieldProto(name string, num int32) *descriptorpb.FieldDescriptorProto {
	return &descriptorpb.FieldDescriptorProto{
		Name: protoString(name), JsonName: protoString(name), Number: protoInt32(num),
		Label: descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
		Type:  descriptorpb.FieldDescriptorProto_TYPE_BYTES.Enum(),
	}
}

// envelopeMethod builds a single-service proto file with a generic
// request/response envelope message shape and returns the resulting
// MethodDescriptor, grounded on grpcrt's descriptorpb-based test fixtures
// (internal/grpcrt/grpcrt_single_request_test.go).
func envelopeMethod(t *testing.T, fileName string) protoreflect.MethodDescriptor {
	t.Helper()
	file := &descriptorpb.FileDescriptorProto{
		Name:    protoString(fileName),
		Package: protoString("ext"),
		MessageType: []*descriptorpb.DescriptorProto{
			{
				Name: protoString("Req"),
				Field: []*descriptorpb.FieldDescriptorProto{
					strField("directiveId", 1),
					strField("parentType", 2),
					strField("fieldName", 3),
					bytesFieldProto("argumentsJson", 4),
					bytesFieldProto("parentJson", 5),
					strField("subgraphId", 6),
					strField("extensionId", 7),
					strField("selectionSet", 8),
					bytesFieldProto("variablesJson", 9),
					bytesFieldProto("tokenBytes", 10),
				},
			},
			{
				Name: protoString("Resp"),
				Field: []*descriptorpb.FieldDescriptorProto{
					bytesFieldProto("dataJson", 1),
					bytesFieldProto("dataCbor", 2),
					strField("errorCode", 3),
					strField("errorMessage", 4),
					bytesFieldProto("errorExtensionsJson", 5),
				},
			},
		},
		Service: []*descriptorpb.ServiceDescriptorProto{{
			Name:   protoString("Ext"),
			Method: []*descriptorpb.MethodDescriptorProto{{Name: protoString("Invoke"), InputType: protoString(".ext.Req"), OutputType: protoString(".ext.Resp")}},
		}},
		Syntax: protoString("proto3"),
	}
	set := &descriptorpb.FileDescriptorSet{File: []*descriptorpb.FileDescriptorProto{file}}
	files, err := protodesc.NewFiles(set)
	require.NoError(t, err)
	fd, err := files.FindFileByPath(fileName)
	require.NoError(t, err)
	return fd.Services().ByName("Ext").Methods().ByName("Invoke")
}
