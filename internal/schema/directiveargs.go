package schema

import "github.com/vektah/gqlparser/v2/ast"

// directivesNamed returns every directive in dirs matching name, since
// gqlparser's ast.DirectiveList only exposes a single-match ForName and
// several federation directives (@join__field, @join__type) are repeatable.
func directivesNamed(dirs ast.DirectiveList, name string) []*ast.Directive {
	var out []*ast.Directive
	for _, d := range dirs {
		if d.Name == name {
			out = append(out, d)
		}
	}
	return out
}

func stringArg(d *ast.Directive, name, fallback string) string {
	arg := d.Arguments.ForName(name)
	if arg == nil || arg.Value == nil {
		return fallback
	}
	return arg.Value.Raw
}

func enumArg(d *ast.Directive, name string) string {
	arg := d.Arguments.ForName(name)
	if arg == nil || arg.Value == nil {
		return ""
	}
	return arg.Value.Raw
}

func boolArg(d *ast.Directive, name string, fallback bool) bool {
	arg := d.Arguments.ForName(name)
	if arg == nil || arg.Value == nil {
		return fallback
	}
	return arg.Value.Raw == "true"
}

func secondsArg(d *ast.Directive, name string, fallbackSeconds int) int {
	arg := d.Arguments.ForName(name)
	if arg == nil || arg.Value == nil {
		return fallbackSeconds
	}
	n := 0
	for _, c := range arg.Value.Raw {
		if c < '0' || c > '9' {
			return fallbackSeconds
		}
		n = n*10 + int(c-'0')
	}
	return n
}

// scopesArg reads a [[String!]!]! argument (as used by @requiresScopes)
// into an OR-of-ANDs slice of scope names.
func scopesArg(d *ast.Directive, name string) [][]string {
	arg := d.Arguments.ForName(name)
	if arg == nil || arg.Value == nil || arg.Value.Kind != ast.ListValue {
		return nil
	}
	var out [][]string
	for _, outer := range arg.Value.Children {
		if outer.Value == nil || outer.Value.Kind != ast.ListValue {
			continue
		}
		var group []string
		for _, inner := range outer.Value.Children {
			if inner.Value == nil {
				continue
			}
			group = append(group, inner.Value.Raw)
		}
		out = append(out, group)
	}
	return out
}
