package node

import "github.com/dashmesh/dashctl/core/stream"

// CommandNode executes one external program. Its stdin/stdout/stderr
// vectors may each hold more than one stream (fan-in/fan-out is
// permitted): multiple stdin entries are concatenated in order onto the
// child's stdin, and a stdout/stderr entry list is teed to every
// consumer.
type CommandNode struct {
	id       stream.NodeId
	progID   stream.ProgId
	location stream.Location

	Name string
	Args []string

	stdin  []stream.Stream
	stdout []stream.Stream
	stderr []stream.Stream
}

func NewCommandNode(name string, args []string) *CommandNode {
	return &CommandNode{Name: name, Args: args}
}

func (n *CommandNode) ID() stream.NodeId            { return n.id }
func (n *CommandNode) SetID(id stream.NodeId)        { n.id = id }
func (n *CommandNode) ProgID() stream.ProgId         { return n.progID }
func (n *CommandNode) SetProgID(id stream.ProgId)    { n.progID = id }
func (n *CommandNode) Location() stream.Location     { return n.location }
func (n *CommandNode) SetLocation(l stream.Location) { n.location = l }

func (n *CommandNode) Stdin() []stream.Stream  { return n.stdin }
func (n *CommandNode) Stdout() []stream.Stream { return n.stdout }
func (n *CommandNode) Stderr() []stream.Stream { return n.stderr }

func (n *CommandNode) AddStdin(s stream.Stream) error {
	n.stdin = append(n.stdin, s)
	return nil
}

func (n *CommandNode) AddStdout(s stream.Stream) error {
	n.stdout = append(n.stdout, s)
	return nil
}

func (n *CommandNode) AddStderr(s stream.Stream) error {
	n.stderr = append(n.stderr, s)
	return nil
}

func (n *CommandNode) ReplaceStream(old, replacement stream.Stream) {
	n.stdin = replaceIn(n.stdin, old, replacement)
	n.stdout = replaceIn(n.stdout, old, replacement)
	n.stderr = replaceIn(n.stderr, old, replacement)
}

func (n *CommandNode) DotLabel() string {
	label := n.Name
	for _, a := range n.Args {
		label += " " + a
	}
	return label
}
