package language

import (
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

func ParseQuery(source string) (*QueryDocument, error) {
	doc, err := parser.ParseQuery(&ast.Source{Input: source})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func ParseSchema(name, source string) (*SchemaDocument, error) {
	doc, err := parser.ParseSchema(&ast.Source{Name: name, Input: source})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// ParseFieldSet parses the selection-set grammar used by @key(fields:),
// @requires(fields:) and @provides(fields:) directive string arguments.
// A FieldSet uses exactly the selection-set grammar of a query document,
// so it is parsed by wrapping it into a throwaway anonymous operation.
func ParseFieldSet(src string) (SelectionSet, error) {
	doc, err := parser.ParseQuery(&ast.Source{Input: "{" + src + "}"})
	if err != nil {
		return nil, err
	}
	if len(doc.Operations) == 0 {
		return nil, nil
	}
	return doc.Operations[0].SelectionSet, nil
}
