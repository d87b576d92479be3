package extrt

import (
	"context"
	"fmt"

	capability "github.com/nexusgraph/federation-gateway/internal/capability"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// Runtime implements capability.ExtensionRuntime over a gRPC-hosted
// extension process: every call is a single generic envelope round trip
// through Transport, resolved against Registry by directive/extension id.
type Runtime struct {
	reg       Registry
	transport Transport
}

func NewRuntime(reg Registry, transport Transport) *Runtime {
	return &Runtime{reg: reg, transport: transport}
}

var _ capability.ExtensionRuntime = (*Runtime)(nil)

// ResolveField implements a FieldResolverExtension call (§3.1): arguments
// and the parent value are JSON-encoded into the envelope rather than
// mapped field-by-field onto a typed proto message, since a directive's
// argument shape is arbitrary GraphQL input, not a fixed schema the
// Registry could describe generically.
func (r *Runtime) ResolveField(ctx context.Context, call capability.FieldResolveCall) (capability.ExtensionResult, error) {
	md := r.reg.FieldResolverMethod(call.DirectiveID)
	if md == nil {
		return capability.ExtensionResult{}, fmt.Errorf("extrt: no field resolver registered for directive %q", call.DirectiveID)
	}

	argumentsJSON, err := marshalJSON(call.Arguments)
	if err != nil {
		return capability.ExtensionResult{}, fmt.Errorf("extrt: encoding arguments for directive %q: %w", call.DirectiveID, err)
	}
	parentJSON, err := marshalJSON(call.Parent)
	if err != nil {
		return capability.ExtensionResult{}, fmt.Errorf("extrt: encoding parent for directive %q: %w", call.DirectiveID, err)
	}

	req, err := buildEnvelope(md.Input(), map[string]any{
		"directiveId":   call.DirectiveID,
		"parentType":    call.ParentType,
		"fieldName":     call.FieldName,
		"argumentsJson": argumentsJSON,
		"parentJson":    parentJSON,
	})
	if err != nil {
		return capability.ExtensionResult{}, err
	}

	resp, err := r.transport.Call(ctx, md, req)
	if err != nil {
		return capability.ExtensionResult{}, fmt.Errorf("extrt: field resolver %q: %w", call.DirectiveID, err)
	}
	return extractResult(resp), nil
}

// ResolveSelectionSet implements an Extension / SelectionSetResolverExtension
// call (§3.1, §4.5.3): the already-rendered GraphQL selection text and its
// referenced variables travel through the envelope unchanged, exactly as a
// GraphQL subgraph request would carry them over HTTP.
func (r *Runtime) ResolveSelectionSet(ctx context.Context, call capability.SelectionSetResolveCall) (capability.ExtensionResult, error) {
	md := r.reg.SelectionSetResolverMethod(call.SubgraphID, call.ExtensionID)
	if md == nil {
		return capability.ExtensionResult{}, fmt.Errorf("extrt: no selection-set resolver registered for subgraph %q extension %q", call.SubgraphID, call.ExtensionID)
	}

	variablesJSON, err := marshalJSON(call.Variables)
	if err != nil {
		return capability.ExtensionResult{}, fmt.Errorf("extrt: encoding variables for extension %q: %w", call.ExtensionID, err)
	}

	req, err := buildEnvelope(md.Input(), map[string]any{
		"subgraphId":    call.SubgraphID,
		"extensionId":   call.ExtensionID,
		"selectionSet":  call.SelectionSet,
		"variablesJson": variablesJSON,
	})
	if err != nil {
		return capability.ExtensionResult{}, err
	}

	resp, err := r.transport.Call(ctx, md, req)
	if err != nil {
		return capability.ExtensionResult{}, fmt.Errorf("extrt: selection-set resolver %q: %w", call.ExtensionID, err)
	}
	return extractResult(resp), nil
}

// Authenticate maps an incoming opaque token onto a claims-bearing one via
// the extension host's authenticate method. A deployment that configures no
// authenticate extension passes the token through unchanged — the core
// still only ever sees the capability.AccessToken interface either way.
func (r *Runtime) Authenticate(ctx context.Context, token capability.AccessToken) (capability.AccessToken, error) {
	md := r.reg.AuthenticateMethod()
	if md == nil {
		return token, nil
	}

	var raw []byte
	if token != nil {
		if b, ok := token.AsBytes(); ok {
			raw = b
		}
	}

	req, err := buildEnvelope(md.Input(), map[string]any{"tokenBytes": raw})
	if err != nil {
		return nil, err
	}

	resp, err := r.transport.Call(ctx, md, req)
	if err != nil {
		return nil, fmt.Errorf("extrt: authenticate: %w", err)
	}

	result := extractResult(resp)
	if result.Err != nil {
		return nil, fmt.Errorf("extrt: authenticate: %s", result.Err.Message)
	}

	claims := map[string]any{}
	if len(result.DataJSON) > 0 {
		if err := jsonAPI.Unmarshal(result.DataJSON, &claims); err != nil {
			return nil, fmt.Errorf("extrt: authenticate: decoding claims: %w", err)
		}
	}
	return newClaimsToken(claims, raw), nil
}

// extractResult reads a response envelope's data-or-error fields. Exactly
// one of Data*/Err is meaningful on the returned ExtensionResult, matching
// capability.ExtensionResult's own contract.
func extractResult(msg protoreflect.Message) capability.ExtensionResult {
	code := stringField(msg, "errorCode")
	if code != "" {
		var extensions map[string]any
		if raw := bytesField(msg, "errorExtensionsJson"); len(raw) > 0 {
			_ = jsonAPI.Unmarshal(raw, &extensions)
		}
		return capability.ExtensionResult{Err: &capability.ExtensionError{
			Code:       code,
			Message:    stringField(msg, "errorMessage"),
			Extensions: extensions,
		}}
	}
	return capability.ExtensionResult{
		DataJSON: bytesField(msg, "dataJson"),
		DataCBOR: bytesField(msg, "dataCbor"),
	}
}
