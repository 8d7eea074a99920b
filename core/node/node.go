// Package node defines the closed set of dataflow node kinds a Program
// is built from (CommandNode, ReadNode, WriteNode) behind one narrow
// capability interface, rather than a deep type hierarchy.
package node

import (
	"fmt"

	"github.com/dashmesh/dashctl/core/stream"
)

// Node is the capability set every graph node exposes. Nodes never
// expose more than this: spec.md §9 asks for a tagged variant via a
// small closed interface rather than an open class hierarchy, so
// callers that need kind-specific behavior type-switch on the concrete
// *CommandNode/*ReadNode/*WriteNode instead of the interface growing
// more methods.
type Node interface {
	ID() stream.NodeId
	SetID(id stream.NodeId)
	ProgID() stream.ProgId
	SetProgID(id stream.ProgId)
	Location() stream.Location
	SetLocation(loc stream.Location)

	Stdin() []stream.Stream
	Stdout() []stream.Stream
	Stderr() []stream.Stream

	AddStdin(s stream.Stream) error
	AddStdout(s stream.Stream) error
	AddStderr(s stream.Stream) error

	// ReplaceStream rewrites every occurrence of old with replacement
	// across stdin/stdout/stderr, used by Program.SplitByMachine to
	// turn a cross-machine Pipe into its Tcp equivalent.
	ReplaceStream(old, replacement stream.Stream)

	// DotLabel renders the node's identity for .dot output.
	DotLabel() string
}

// ErrUnsupportedStream is returned when a node rejects a stream kind
// that its contract doesn't allow (e.g. a WriteNode output that isn't
// File/Stdout/Stderr).
type ErrUnsupportedStream struct {
	NodeKind string
	Slot     string
	Got      stream.Kind
}

func (e *ErrUnsupportedStream) Error() string {
	return fmt.Sprintf("%s does not accept a %s stream in its %s slot", e.NodeKind, kindName(e.Got), e.Slot)
}

func kindName(k stream.Kind) string {
	switch k {
	case stream.KindFile:
		return "file"
	case stream.KindPipe:
		return "pipe"
	case stream.KindTcp:
		return "tcp"
	case stream.KindStdout:
		return "stdout"
	case stream.KindStderr:
		return "stderr"
	default:
		return "unknown"
	}
}

func replaceIn(streams []stream.Stream, old, replacement stream.Stream) []stream.Stream {
	out := make([]stream.Stream, len(streams))
	for i, s := range streams {
		if s == old {
			out[i] = replacement
		} else {
			out[i] = s
		}
	}
	return out
}
