package graph

import "fmt"

// GraphErrorKind enumerates the ways a Program can be internally
// inconsistent.
type GraphErrorKind uint8

const (
	MissingNode GraphErrorKind = iota
	DuplicateEdge
	StreamMismatch
)

func (k GraphErrorKind) String() string {
	switch k {
	case MissingNode:
		return "missing_node"
	case DuplicateEdge:
		return "duplicate_edge"
	case StreamMismatch:
		return "stream_mismatch"
	default:
		return "unknown"
	}
}

// GraphError reports a Program-level invariant violation: a dangling
// edge, a duplicate edge between the same two nodes and IO type, or an
// edge whose Stream isn't the kind an operation expected.
type GraphError struct {
	Kind   GraphErrorKind
	Detail string
}

func (e *GraphError) Error() string {
	return fmt.Sprintf("graph error (%s): %s", e.Kind, e.Detail)
}

func newGraphError(kind GraphErrorKind, format string, args ...interface{}) *GraphError {
	return &GraphError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}
