package extrt

import (
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/dynamicpb"
)

func TestBuildEnvelope_SetsKnownFieldsAndIgnoresUnknownOnes(t *testing.T) {
	md := envelopeMethod(t, "build_envelope.proto")
	msg, err := buildEnvelope(md.Input(), map[string]any{
		"directiveId": "geo",
		"unknownKey":  "ignored",
	})
	require.NoError(t, err)
	require.Equal(t, "geo", stringField(msg, "directiveId"))
}

func TestBuildEnvelope_SkipsNilValues(t *testing.T) {
	md := envelopeMethod(t, "build_envelope_nil.proto")
	msg, err := buildEnvelope(md.Input(), map[string]any{"directiveId": nil})
	require.NoError(t, err)
	require.Equal(t, "", stringField(msg, "directiveId"))
}

func TestStringFieldAndBytesField_MissingFieldReturnsZeroValue(t *testing.T) {
	md := envelopeMethod(t, "fields_missing.proto")
	msg := dynamicpb.NewMessage(md.Output())
	require.Equal(t, "", stringField(msg, "errorCode"))
	require.Nil(t, bytesField(msg, "dataJson"))
}

func TestBytesField_ReadsStringKindFieldAsBytesToo(t *testing.T) {
	md := envelopeMethod(t, "fields_string_as_bytes.proto")
	msg := dynamicpb.NewMessage(md.Input())
	setString(msg, "selectionSet", "{ me { id } }")
	require.Equal(t, []byte("{ me { id } }"), bytesField(msg, "selectionSet"))
}
