package extrt

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"

	capability "github.com/nexusgraph/federation-gateway/internal/capability"
)

type fakeRegistry struct {
	fieldResolvers      map[string]protoreflect.MethodDescriptor
	selectionResolvers  map[string]protoreflect.MethodDescriptor
	authenticateMethod  protoreflect.MethodDescriptor
}

func (r *fakeRegistry) FieldResolverMethod(directiveID string) protoreflect.MethodDescriptor {
	return r.fieldResolvers[directiveID]
}

func (r *fakeRegistry) SelectionSetResolverMethod(subgraphID, extensionID string) protoreflect.MethodDescriptor {
	return r.selectionResolvers[subgraphID+"/"+extensionID]
}

func (r *fakeRegistry) AuthenticateMethod() protoreflect.MethodDescriptor {
	return r.authenticateMethod
}

var _ Registry = (*fakeRegistry)(nil)

type fakeTransport struct {
	lastMethod  protoreflect.MethodDescriptor
	lastRequest protoreflect.Message
	respond     func(md protoreflect.MethodDescriptor, req protoreflect.Message) (protoreflect.Message, error)
}

func (t *fakeTransport) Call(ctx context.Context, method protoreflect.MethodDescriptor, request protoreflect.Message) (protoreflect.Message, error) {
	t.lastMethod = method
	t.lastRequest = request
	return t.respond(method, request)
}

var _ Transport = (*fakeTransport)(nil)

func setBytes(msg protoreflect.Message, name string, data []byte) {
	fd := fieldByJSON(msg.Descriptor(), name)
	msg.Set(fd, protoreflect.ValueOfBytes(data))
}

func setString(msg protoreflect.Message, name, v string) {
	fd := fieldByJSON(msg.Descriptor(), name)
	msg.Set(fd, protoreflect.ValueOfString(v))
}

func TestRuntime_ResolveField_SendsArgumentsAndParentAsJSONAndDecodesData(t *testing.T) {
	md := envelopeMethod(t, "resolve_field.proto")
	transport := &fakeTransport{respond: func(md protoreflect.MethodDescriptor, req protoreflect.Message) (protoreflect.Message, error) {
		resp := dynamicpb.NewMessage(md.Output())
		setBytes(resp, "dataJson", []byte(`{"value":42}`))
		return resp, nil
	}}
	reg := &fakeRegistry{fieldResolvers: map[string]protoreflect.MethodDescriptor{"geo": md}}
	rt := NewRuntime(reg, transport)

	result, err := rt.ResolveField(context.Background(), capability.FieldResolveCall{
		DirectiveID: "geo",
		ParentType:  "Store",
		FieldName:   "distance",
		Arguments:   map[string]any{"unit": "km"},
		Parent:      map[string]any{"lat": 1.0},
	})
	require.NoError(t, err)
	require.JSONEq(t, `{"value":42}`, string(result.DataJSON))
	require.Nil(t, result.Err)

	req := transport.lastRequest
	require.Equal(t, "geo", stringField(req, "directiveId"))
	require.Equal(t, "Store", stringField(req, "parentType"))
	require.Equal(t, "distance", stringField(req, "fieldName"))
	require.JSONEq(t, `{"unit":"km"}`, string(bytesField(req, "argumentsJson")))
	require.JSONEq(t, `{"lat":1.0}`, string(bytesField(req, "parentJson")))
}

func TestRuntime_ResolveField_UnknownDirectiveErrors(t *testing.T) {
	rt := NewRuntime(&fakeRegistry{}, &fakeTransport{})
	_, err := rt.ResolveField(context.Background(), capability.FieldResolveCall{DirectiveID: "missing"})
	require.Error(t, err)
}

func TestRuntime_ResolveField_StructuredErrorIsReturnedNotWrapped(t *testing.T) {
	md := envelopeMethod(t, "resolve_field_err.proto")
	transport := &fakeTransport{respond: func(md protoreflect.MethodDescriptor, req protoreflect.Message) (protoreflect.Message, error) {
		resp := dynamicpb.NewMessage(md.Output())
		setString(resp, "errorCode", "NOT_FOUND")
		setString(resp, "errorMessage", "store not found")
		return resp, nil
	}}
	reg := &fakeRegistry{fieldResolvers: map[string]protoreflect.MethodDescriptor{"geo": md}}
	rt := NewRuntime(reg, transport)

	result, err := rt.ResolveField(context.Background(), capability.FieldResolveCall{DirectiveID: "geo"})
	require.NoError(t, err)
	require.NotNil(t, result.Err)
	require.Equal(t, "NOT_FOUND", result.Err.Code)
	require.Equal(t, "store not found", result.Err.Message)
	require.Empty(t, result.DataJSON)
}

func TestRuntime_ResolveSelectionSet_SendsSelectionAndVariables(t *testing.T) {
	md := envelopeMethod(t, "resolve_selection_set.proto")
	transport := &fakeTransport{respond: func(md protoreflect.MethodDescriptor, req protoreflect.Message) (protoreflect.Message, error) {
		resp := dynamicpb.NewMessage(md.Output())
		setBytes(resp, "dataJson", []byte(`{"me":{"id":"1"}}`))
		return resp, nil
	}}
	reg := &fakeRegistry{selectionResolvers: map[string]protoreflect.MethodDescriptor{"users/auth": md}}
	rt := NewRuntime(reg, transport)

	result, err := rt.ResolveSelectionSet(context.Background(), capability.SelectionSetResolveCall{
		SubgraphID:   "users",
		ExtensionID:  "auth",
		SelectionSet: []byte("{ me { id } }"),
		Variables:    map[string]any{"id": "1"},
	})
	require.NoError(t, err)
	require.JSONEq(t, `{"me":{"id":"1"}}`, string(result.DataJSON))

	req := transport.lastRequest
	require.Equal(t, "users", stringField(req, "subgraphId"))
	require.Equal(t, "auth", stringField(req, "extensionId"))
	require.Equal(t, "{ me { id } }", stringField(req, "selectionSet"))
	require.JSONEq(t, `{"id":"1"}`, string(bytesField(req, "variablesJson")))
}

func TestRuntime_ResolveSelectionSet_UnknownExtensionErrors(t *testing.T) {
	rt := NewRuntime(&fakeRegistry{}, &fakeTransport{})
	_, err := rt.ResolveSelectionSet(context.Background(), capability.SelectionSetResolveCall{SubgraphID: "x", ExtensionID: "y"})
	require.Error(t, err)
}

func TestRuntime_Authenticate_NoMethodConfiguredPassesTokenThrough(t *testing.T) {
	rt := NewRuntime(&fakeRegistry{}, &fakeTransport{})
	in := newClaimsToken(map[string]any{"sub": "u1"}, []byte("raw-token"))

	out, err := rt.Authenticate(context.Background(), in)
	require.NoError(t, err)
	require.Same(t, in, out)
}

func TestRuntime_Authenticate_DecodesClaimsFromResponse(t *testing.T) {
	md := envelopeMethod(t, "authenticate.proto")
	transport := &fakeTransport{respond: func(md protoreflect.MethodDescriptor, req protoreflect.Message) (protoreflect.Message, error) {
		require.Equal(t, []byte("raw-token"), bytesField(req, "tokenBytes"))
		resp := dynamicpb.NewMessage(md.Output())
		setBytes(resp, "dataJson", []byte(`{"sub":"u1","scope":"read"}`))
		return resp, nil
	}}
	reg := &fakeRegistry{authenticateMethod: md}
	rt := NewRuntime(reg, transport)

	in := newClaimsToken(nil, []byte("raw-token"))
	out, err := rt.Authenticate(context.Background(), in)
	require.NoError(t, err)
	require.False(t, out.IsAnonymous())
	claim, ok := out.GetClaim("sub")
	require.True(t, ok)
	require.Equal(t, "u1", claim)
	rawOut, ok := out.AsBytes()
	require.True(t, ok)
	require.Equal(t, []byte("raw-token"), rawOut)
}

func TestRuntime_Authenticate_StructuredErrorFailsTheCall(t *testing.T) {
	md := envelopeMethod(t, "authenticate_err.proto")
	transport := &fakeTransport{respond: func(md protoreflect.MethodDescriptor, req protoreflect.Message) (protoreflect.Message, error) {
		resp := dynamicpb.NewMessage(md.Output())
		setString(resp, "errorCode", "UNAUTHENTICATED")
		setString(resp, "errorMessage", "token expired")
		return resp, nil
	}}
	reg := &fakeRegistry{authenticateMethod: md}
	rt := NewRuntime(reg, transport)

	_, err := rt.Authenticate(context.Background(), newClaimsToken(nil, []byte("raw")))
	require.Error(t, err)
}
