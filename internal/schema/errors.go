package schema

import "fmt"

// ValidationError is a single composition/build-time problem found while
// building a Schema from a composed supergraph document (§4.1 "Failure
// modes"). The caller collects all of them before deciding whether the
// schema can be exposed — "no partial schema is ever exposed".
type ValidationError struct {
	Message string
	Line    int
	Column  int
}

func (e *ValidationError) Error() string {
	if e.Line == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (line %d, column %d)", e.Message, e.Line, e.Column)
}

// BuildError aggregates every ValidationError found during Build. A Build
// that returns a non-nil *Schema never also returns a BuildError: the two
// are mutually exclusive, matching "no partial schema is ever exposed".
type BuildError struct {
	Errors []*ValidationError
}

func (e *BuildError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d schema validation errors, first: %s", len(e.Errors), e.Errors[0].Error())
}
