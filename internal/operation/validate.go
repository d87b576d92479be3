package operation

import (
	"fmt"

	gqlerr "github.com/nexusgraph/federation-gateway/internal/gqlerr"
	language "github.com/nexusgraph/federation-gateway/internal/language"
	schema "github.com/nexusgraph/federation-gateway/internal/schema"
)

// IntrospectionPolicy controls whether __schema/__type root fields are
// permitted (§4.2 step 2, "introspection gating").
type IntrospectionPolicy struct {
	Enabled bool
}

// Validate implements a focused subset of §4.2 step 2: field existence
// against the schema, argument name checks, and introspection gating. Full
// GraphQL validation (variable usage, fragment cycles, spread type
// compatibility) is left to the upstream client library layer in front of
// this gateway; the core only needs enough checking to safely plan and
// execute, not to be a spec-complete validator.
func Validate(sch *schema.Schema, op *language.OperationDefinition, doc *language.QueryDocument, policy IntrospectionPolicy) error {
	var rootTypeName string
	switch op.Operation {
	case language.Query:
		rootTypeName = sch.QueryType
	case language.Mutation:
		rootTypeName = sch.MutationType
	case language.Subscription:
		rootTypeName = sch.SubscriptionType
	}
	if rootTypeName == "" {
		return gqlerr.New(gqlerr.CodeOperationValidation, fmt.Sprintf("schema defines no %s root type", op.Operation))
	}
	rootType := sch.TypeByName(rootTypeName)
	return validateSelectionSet(sch, doc, rootType, op.SelectionSet, policy, map[string]bool{})
}

func validateSelectionSet(sch *schema.Schema, doc *language.QueryDocument, t *schema.Type, sel language.SelectionSet, policy IntrospectionPolicy, visitedFragments map[string]bool) error {
	for _, s := range sel {
		switch node := s.(type) {
		case *language.Field:
			if node.Name == "__typename" {
				continue
			}
			if node.Name == "__schema" || node.Name == "__type" {
				if !policy.Enabled {
					return errIntrospectionGated
				}
				continue
			}
			fd := t.FieldByName(node.Name)
			if fd == nil {
				return gqlerr.New(gqlerr.CodeOperationValidation, fmt.Sprintf("unknown field %q on type %q", node.Name, t.Name))
			}
			for _, arg := range node.Arguments {
				if argDefByName(fd.Arguments, arg.Name) == nil {
					return gqlerr.New(gqlerr.CodeOperationValidation, fmt.Sprintf("unknown argument %q on field %q", arg.Name, node.Name))
				}
			}
			if len(node.SelectionSet) > 0 {
				named := schema.GetNamedType(fd.Type)
				childType := sch.TypeByName(named)
				if err := validateSelectionSet(sch, doc, childType, node.SelectionSet, policy, visitedFragments); err != nil {
					return err
				}
			}
		case *language.InlineFragment:
			target := t
			if node.TypeCondition != "" {
				target = sch.TypeByName(node.TypeCondition)
				if target == nil {
					return gqlerr.New(gqlerr.CodeOperationValidation, fmt.Sprintf("unknown type condition %q", node.TypeCondition))
				}
			}
			if err := validateSelectionSet(sch, doc, target, node.SelectionSet, policy, visitedFragments); err != nil {
				return err
			}
		case *language.FragmentSpread:
			if visitedFragments[node.Name] {
				continue
			}
			visitedFragments[node.Name] = true
			frag := doc.Fragments.ForName(node.Name)
			if frag == nil {
				return gqlerr.New(gqlerr.CodeOperationValidation, fmt.Sprintf("unknown fragment %q", node.Name))
			}
			target := sch.TypeByName(frag.TypeCondition)
			if target == nil {
				return gqlerr.New(gqlerr.CodeOperationValidation, fmt.Sprintf("unknown type condition %q", frag.TypeCondition))
			}
			if err := validateSelectionSet(sch, doc, target, frag.SelectionSet, policy, visitedFragments); err != nil {
				return err
			}
		}
	}
	return nil
}

func argDefByName(args []*schema.InputValue, name string) *schema.InputValue {
	for _, a := range args {
		if a.Name == name {
			return a
		}
	}
	return nil
}
