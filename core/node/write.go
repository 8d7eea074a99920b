package node

import "github.com/dashmesh/dashctl/core/stream"

// WriteNode copies bytes from one or more inbound streams onto one or
// more output targets (a file, or the client process's own
// stdout/stderr). It has no stdout/stderr vector of its own: it is
// always a graph sink.
type WriteNode struct {
	id       stream.NodeId
	progID   stream.ProgId
	location stream.Location

	stdin  []stream.Stream
	output []stream.Stream // each File, Stdout, or Stderr
}

func NewWriteNode() *WriteNode {
	return &WriteNode{}
}

func (n *WriteNode) ID() stream.NodeId            { return n.id }
func (n *WriteNode) SetID(id stream.NodeId)        { n.id = id }
func (n *WriteNode) ProgID() stream.ProgId         { return n.progID }
func (n *WriteNode) SetProgID(id stream.ProgId)    { n.progID = id }
func (n *WriteNode) Location() stream.Location     { return n.location }
func (n *WriteNode) SetLocation(l stream.Location) { n.location = l }

func (n *WriteNode) Stdin() []stream.Stream  { return n.stdin }
func (n *WriteNode) Stdout() []stream.Stream { return nil }
func (n *WriteNode) Stderr() []stream.Stream { return nil }

// Outputs returns the node's write targets (file/stdout/stderr).
func (n *WriteNode) Outputs() []stream.Stream { return n.output }

func (n *WriteNode) AddStdin(s stream.Stream) error {
	n.stdin = append(n.stdin, s)
	return nil
}

// AddStdout appends a write target. Only File, Stdout, and Stderr
// streams are valid targets; anything else is rejected, matching the
// original write.rs bail on a non-file output.
func (n *WriteNode) AddStdout(s stream.Stream) error {
	switch s.Kind {
	case stream.KindFile, stream.KindStdout, stream.KindStderr:
		n.output = append(n.output, s)
		return nil
	default:
		return &ErrUnsupportedStream{NodeKind: "WriteNode", Slot: "output", Got: s.Kind}
	}
}

func (n *WriteNode) AddStderr(s stream.Stream) error {
	return n.AddStdout(s)
}

func (n *WriteNode) ReplaceStream(old, replacement stream.Stream) {
	n.stdin = replaceIn(n.stdin, old, replacement)
	n.output = replaceIn(n.output, old, replacement)
}

func (n *WriteNode) DotLabel() string {
	if len(n.output) == 0 {
		return "write"
	}
	switch n.output[0].Kind {
	case stream.KindFile:
		return "write:" + n.output[0].File.Path
	case stream.KindStdout:
		return "write:stdout"
	case stream.KindStderr:
		return "write:stderr"
	default:
		return "write"
	}
}
