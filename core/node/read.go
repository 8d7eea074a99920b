package node

import "github.com/dashmesh/dashctl/core/stream"

// ReadNode opens exactly one file and copies its bytes onto exactly one
// outbound stream (a Pipe, later possibly rewritten to a Tcp stream).
// It has no stdin: it is always a graph source.
type ReadNode struct {
	id       stream.NodeId
	progID   stream.ProgId
	location stream.Location

	Input      stream.Stream // must be KindFile
	output     stream.Stream // KindPipe or KindTcp, set via AddStdout
	hasOutput  bool
}

func NewReadNode(input stream.Stream) *ReadNode {
	return &ReadNode{Input: input}
}

func (n *ReadNode) ID() stream.NodeId            { return n.id }
func (n *ReadNode) SetID(id stream.NodeId)        { n.id = id }
func (n *ReadNode) ProgID() stream.ProgId         { return n.progID }
func (n *ReadNode) SetProgID(id stream.ProgId)    { n.progID = id }
func (n *ReadNode) Location() stream.Location     { return n.location }
func (n *ReadNode) SetLocation(l stream.Location) { n.location = l }

func (n *ReadNode) Stdin() []stream.Stream { return nil }

func (n *ReadNode) Stdout() []stream.Stream {
	if !n.hasOutput {
		return nil
	}
	return []stream.Stream{n.output}
}

func (n *ReadNode) Stderr() []stream.Stream { return nil }

// AddStdin replaces the node's single input (normally set at
// construction via NewReadNode) instead of appending like the other
// node kinds.
func (n *ReadNode) AddStdin(s stream.Stream) error {
	n.Input = s
	return nil
}

// AddStdout sets the node's single outbound stream, overwriting any
// previous value (mirrors the original ReadNode.add_stdout semantics:
// a ReadNode only ever has one consumer).
func (n *ReadNode) AddStdout(s stream.Stream) error {
	n.output = s
	n.hasOutput = true
	return nil
}

func (n *ReadNode) AddStderr(s stream.Stream) error {
	return &ErrUnsupportedStream{NodeKind: "ReadNode", Slot: "stderr", Got: s.Kind}
}

func (n *ReadNode) ReplaceStream(old, replacement stream.Stream) {
	if n.hasOutput && n.output == old {
		n.output = replacement
	}
}

func (n *ReadNode) DotLabel() string {
	return "read:" + n.Input.File.Path
}
