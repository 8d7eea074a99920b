package graph

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/blake2b"

	"github.com/dashmesh/dashctl/core/node"
	"github.com/dashmesh/dashctl/core/stream"
)

// NodeKind tags which node variant a CanonicalNode holds, since CBOR
// cannot serialize the node.Node interface directly.
type NodeKind uint8

const (
	KindCommand NodeKind = iota
	KindRead
	KindWrite
)

// CanonicalNode is the flat, serializable form of one graph node.
type CanonicalNode struct {
	ID       stream.NodeId   `cbor:"id"`
	ProgID   stream.ProgId   `cbor:"prog_id"`
	Location stream.Location `cbor:"location"`
	Kind     NodeKind        `cbor:"kind"`

	CommandName string   `cbor:"command_name,omitempty"`
	CommandArgs []string `cbor:"command_args,omitempty"`

	ReadInput stream.Stream `cbor:"read_input,omitempty"`

	WriteOutputs []stream.Stream `cbor:"write_outputs,omitempty"`

	Stdin  []stream.Stream `cbor:"stdin,omitempty"`
	Stdout []stream.Stream `cbor:"stdout,omitempty"`
	Stderr []stream.Stream `cbor:"stderr,omitempty"`
}

// CanonicalEdge is the serializable form of an Edge.
type CanonicalEdge struct {
	Left   stream.NodeId  `cbor:"left"`
	Right  stream.NodeId  `cbor:"right"`
	Stream stream.Stream  `cbor:"stream"`
}

// CanonicalProgram is the serializable form of a Program, used both for
// the wire protocol (core/wire) and for Program.Fingerprint.
type CanonicalProgram struct {
	ID    stream.ProgId   `cbor:"id"`
	Nodes []CanonicalNode `cbor:"nodes"`
	Edges []CanonicalEdge `cbor:"edges"`
}

var canonicalEncMode = func() cbor.EncMode {
	mode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("graph: invalid canonical cbor options: %v", err))
	}
	return mode
}()

// Canonical converts p into its flat, deterministically-ordered
// serializable form.
func (p *Program) Canonical() CanonicalProgram {
	cp := CanonicalProgram{ID: p.ID}
	for _, id := range p.NodeIDs() {
		cp.Nodes = append(cp.Nodes, canonicalizeNode(p.nodes[id]))
	}
	for _, e := range p.Edges() {
		cp.Edges = append(cp.Edges, CanonicalEdge{Left: e.Left, Right: e.Right, Stream: e.Stream})
	}
	return cp
}

func canonicalizeNode(n node.Node) CanonicalNode {
	cn := CanonicalNode{
		ID:       n.ID(),
		ProgID:   n.ProgID(),
		Location: n.Location(),
		Stdin:    n.Stdin(),
		Stdout:   n.Stdout(),
		Stderr:   n.Stderr(),
	}
	switch typed := n.(type) {
	case *node.CommandNode:
		cn.Kind = KindCommand
		cn.CommandName = typed.Name
		cn.CommandArgs = typed.Args
	case *node.ReadNode:
		cn.Kind = KindRead
		cn.ReadInput = typed.Input
	case *node.WriteNode:
		cn.Kind = KindWrite
		cn.WriteOutputs = typed.Outputs()
	}
	return cn
}

// FromCanonical reconstructs a Program from its flat serializable form.
func FromCanonical(cp CanonicalProgram) (*Program, error) {
	p := NewProgram(cp.ID)
	var maxID stream.NodeId
	for _, cn := range cp.Nodes {
		n, err := nodeFromCanonical(cn)
		if err != nil {
			return nil, err
		}
		p.nodes[cn.ID] = n
		if cn.ID >= maxID {
			maxID = cn.ID + 1
		}
	}
	p.nextID = maxID
	for _, ce := range cp.Edges {
		p.addRawEdge(Edge{Left: ce.Left, Right: ce.Right, Stream: ce.Stream})
	}
	return p, nil
}

func nodeFromCanonical(cn CanonicalNode) (node.Node, error) {
	var n node.Node
	switch cn.Kind {
	case KindCommand:
		cmd := node.NewCommandNode(cn.CommandName, cn.CommandArgs)
		for _, s := range cn.Stdin {
			if err := cmd.AddStdin(s); err != nil {
				return nil, err
			}
		}
		for _, s := range cn.Stdout {
			if err := cmd.AddStdout(s); err != nil {
				return nil, err
			}
		}
		for _, s := range cn.Stderr {
			if err := cmd.AddStderr(s); err != nil {
				return nil, err
			}
		}
		n = cmd
	case KindRead:
		read := node.NewReadNode(cn.ReadInput)
		for _, s := range cn.Stdout {
			if err := read.AddStdout(s); err != nil {
				return nil, err
			}
		}
		n = read
	case KindWrite:
		write := node.NewWriteNode()
		for _, s := range cn.Stdin {
			if err := write.AddStdin(s); err != nil {
				return nil, err
			}
		}
		for _, s := range cn.WriteOutputs {
			if err := write.AddStdout(s); err != nil {
				return nil, err
			}
		}
		n = write
	default:
		return nil, newGraphError(StreamMismatch, "unknown node kind %d", cn.Kind)
	}
	n.SetID(cn.ID)
	n.SetProgID(cn.ProgID)
	n.SetLocation(cn.Location)
	return n, nil
}

// MarshalCBOR encodes p in the deterministic canonical CBOR form used
// both for Fingerprint and for the wire protocol.
func (p *Program) MarshalCBOR() ([]byte, error) {
	return canonicalEncMode.Marshal(p.Canonical())
}

// UnmarshalProgramCBOR decodes the canonical CBOR form produced by
// MarshalCBOR back into a Program.
func UnmarshalProgramCBOR(data []byte) (*Program, error) {
	var cp CanonicalProgram
	if err := cbor.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("graph: decode program: %w", err)
	}
	return FromCanonical(cp)
}

// Fingerprint returns a content hash of p's canonical CBOR encoding,
// stable across process restarts and used to name .dot output files
// deterministically and to assert round-trip equality in tests.
func (p *Program) Fingerprint() ([32]byte, error) {
	data, err := p.MarshalCBOR()
	if err != nil {
		return [32]byte{}, fmt.Errorf("graph: fingerprint: %w", err)
	}
	return blake2b.Sum256(data), nil
}
