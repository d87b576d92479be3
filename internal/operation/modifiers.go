package operation

import (
	"context"
	"strings"

	capability "github.com/nexusgraph/federation-gateway/internal/capability"
	gqlerr "github.com/nexusgraph/federation-gateway/internal/gqlerr"
	language "github.com/nexusgraph/federation-gateway/internal/language"
	schema "github.com/nexusgraph/federation-gateway/internal/schema"
)

// QueryModifications is the per-request output of §4.2 step 6: which field
// occurrences are skipped for this request's variables, and any
// pre-execution errors raised by directive evaluation (authorization
// failures never reach the executor).
type QueryModifications struct {
	Skipped *BitSet
	Errors  []*gqlerr.Error
}

// EvaluateModifiers walks op's shape tree (built once, independent of
// variables) and decides, for this request's variables and access token,
// which field occurrences are skipped. Directive evaluation runs against
// FieldShape.ASTField rather than re-walking the raw operation AST, so the
// bit indices assigned at shape-build time line up exactly.
func EvaluateModifiers(ctx context.Context, op *PreparedOperation, variables map[string]any, token capability.AccessToken, ext capability.ExtensionRuntime) *QueryModifications {
	mods := &QueryModifications{Skipped: NewBitSet(op.BitCount)}
	visited := map[ShapeID]bool{}
	var walk func(shapeID ShapeID, path []gqlerr.PathElement)
	walk = func(shapeID ShapeID, path []gqlerr.PathElement) {
		if visited[shapeID] {
			return
		}
		visited[shapeID] = true
		shape := op.Shapes[shapeID]
		for _, f := range shape.Fields {
			fieldPath := append(append([]gqlerr.PathElement{}, path...), f.ResponseKey.ResponseName)
			if skipped, err := evaluateSkipInclude(f.ASTField, variables); err != nil {
				mods.Errors = append(mods.Errors, err.AtPath(fieldPath...))
				mods.Skipped.Set(f.BitIndex)
				continue
			} else if skipped {
				mods.Skipped.Set(f.BitIndex)
				continue
			}
			if err := evaluateAuth(ctx, f.SchemaField, token); err != nil {
				mods.Errors = append(mods.Errors, err.AtPath(fieldPath...))
				mods.Skipped.Set(f.BitIndex)
				continue
			}
			for _, next := range f.PossibleShapes {
				walk(next, fieldPath)
			}
		}
	}
	walk(op.RootShape.ID, nil)
	return mods
}

// evaluateSkipInclude implements @skip(if:)/@include(if:) (§4.2 step 6).
// @skip takes precedence when both are present, matching the GraphQL spec.
func evaluateSkipInclude(f *language.Field, variables map[string]any) (bool, *gqlerr.Error) {
	if f == nil {
		return false, nil
	}
	if d := f.Directives.ForName("skip"); d != nil {
		v, err := boolDirectiveArg(d, variables)
		if err != nil {
			return false, err
		}
		if v {
			return true, nil
		}
	}
	if d := f.Directives.ForName("include"); d != nil {
		v, err := boolDirectiveArg(d, variables)
		if err != nil {
			return false, err
		}
		if !v {
			return true, nil
		}
	}
	return false, nil
}

func boolDirectiveArg(d *language.Directive, variables map[string]any) (bool, *gqlerr.Error) {
	arg := d.Arguments.ForName("if")
	if arg == nil {
		return false, gqlerr.New(gqlerr.CodeOperationValidation, "@"+d.Name+" requires an `if` argument")
	}
	switch arg.Value.Kind {
	case language.BooleanValue:
		return arg.Value.Raw == "true", nil
	case language.Variable:
		v, ok := variables[arg.Value.Raw]
		if !ok {
			return false, gqlerr.New(gqlerr.CodeOperationValidation, "missing variable $"+arg.Value.Raw+" for @"+d.Name)
		}
		b, ok := v.(bool)
		if !ok {
			return false, gqlerr.New(gqlerr.CodeOperationValidation, "variable $"+arg.Value.Raw+" must be a Boolean")
		}
		return b, nil
	default:
		return false, gqlerr.New(gqlerr.CodeOperationValidation, "@"+d.Name+"(if:) must be a Boolean or variable")
	}
}

// evaluateAuth implements @authenticated/@requiresScopes (§4.2 step 6,
// §3.1): only these token-only checks run. @authorized is not evaluated,
// here or anywhere else in the request path.
func evaluateAuth(ctx context.Context, f *schema.Field, token capability.AccessToken) *gqlerr.Error {
	if f == nil || f.Auth == nil {
		return nil
	}
	if f.Auth.Authenticated && (token == nil || token.IsAnonymous()) {
		return gqlerr.New(gqlerr.CodeUnauthenticated, "field requires authentication")
	}
	if len(f.Auth.RequiredScopes) > 0 {
		if token == nil {
			return gqlerr.New(gqlerr.CodeUnauthorized, "field requires scopes")
		}
		claim, _ := token.GetClaim("scope")
		held := scopeSet(claim)
		if !anyScopeGroupSatisfied(f.Auth.RequiredScopes, held) {
			return gqlerr.New(gqlerr.CodeUnauthorized, "field requires scopes")
		}
	}
	return nil
}

// scopeSet normalizes a "scope" claim into a membership set. Tokens
// commonly carry scopes either as a space-separated string (OAuth2 §3.3)
// or as a JSON array of strings.
func scopeSet(claim any) map[string]bool {
	out := map[string]bool{}
	switch v := claim.(type) {
	case string:
		for _, s := range strings.Fields(v) {
			out[s] = true
		}
	case []string:
		for _, s := range v {
			out[s] = true
		}
	case []any:
		for _, s := range v {
			if str, ok := s.(string); ok {
				out[str] = true
			}
		}
	}
	return out
}

func anyScopeGroupSatisfied(groups [][]string, held map[string]bool) bool {
	for _, group := range groups {
		satisfied := true
		for _, scope := range group {
			if !held[scope] {
				satisfied = false
				break
			}
		}
		if satisfied {
			return true
		}
	}
	return false
}
