package plan

import "fmt"

// Error is a planning failure (§4.3 step 5: "PlanError::Uncovered").
type Error struct {
	Kind ErrorKind
	Path []PathElement
	Msg  string
}

type ErrorKind string

const (
	// ErrUncovered means the planner could not find a resolver cover for
	// some fields in the selection set.
	ErrUncovered ErrorKind = "UNCOVERED"
)

func (e *Error) Error() string {
	return fmt.Sprintf("plan error (%s) at %s: %s", e.Kind, pathString(e.Path), e.Msg)
}

func pathString(path []PathElement) string {
	s := ""
	for _, p := range path {
		s += "." + p.ResponseName
	}
	if s == "" {
		return "<root>"
	}
	return s
}

// Uncovered builds an ErrUncovered Error for the given path.
func Uncovered(path []PathElement, msg string) *Error {
	return &Error{Kind: ErrUncovered, Path: path, Msg: msg}
}
