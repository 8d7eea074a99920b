// Package graph holds the Program dataflow graph: the node set a shell
// pipeline lowers into, the edges connecting them, and the machine-split
// operation that rewrites cross-host pipes into TCP streams.
package graph

import (
	"sort"

	"github.com/dashmesh/dashctl/core/invariant"
	"github.com/dashmesh/dashctl/core/node"
	"github.com/dashmesh/dashctl/core/stream"
)

// Edge records one connection between two nodes, carrying the exact
// Stream value both endpoints hold in their own stdin/stdout/stderr
// vectors (so rewriting it in place on both nodes and in the edge list
// keeps every view consistent).
type Edge struct {
	Left   stream.NodeId
	Right  stream.NodeId
	Stream stream.Stream
}

// Program is a directed graph of command/read/write nodes. Node ids are
// assigned sequentially starting at 0 as nodes are added.
type Program struct {
	ID     stream.ProgId
	nodes  map[stream.NodeId]node.Node
	edges  []Edge
	nextID stream.NodeId
}

func NewProgram(id stream.ProgId) *Program {
	return &Program{ID: id, nodes: make(map[stream.NodeId]node.Node)}
}

// AddElem registers n, assigns it the next sequential NodeId and this
// Program's id, and returns the assigned id.
func (p *Program) AddElem(n node.Node) stream.NodeId {
	id := p.nextID
	p.nextID++
	n.SetID(id)
	n.SetProgID(p.ID)
	p.nodes[id] = n
	return id
}

// Node returns the node registered under id, or nil if none exists.
func (p *Program) Node(id stream.NodeId) node.Node {
	return p.nodes[id]
}

// NodeIDs returns every node id currently in the graph, in ascending
// order for deterministic iteration.
func (p *Program) NodeIDs() []stream.NodeId {
	ids := make([]stream.NodeId, 0, len(p.nodes))
	for id := range p.nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (p *Program) NodeCount() int { return len(p.nodes) }

// Edges returns the graph's edges in a stable order (by Left then
// Right then IO type).
func (p *Program) Edges() []Edge {
	out := make([]Edge, len(p.edges))
	copy(out, p.edges)
	sortEdges(out)
	return out
}

func sortEdges(edges []Edge) {
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Left != edges[j].Left {
			return edges[i].Left < edges[j].Left
		}
		if edges[i].Right != edges[j].Right {
			return edges[i].Right < edges[j].Right
		}
		return ioOf(edges[i].Stream) < ioOf(edges[j].Stream)
	})
}

func ioOf(s stream.Stream) stream.IOType {
	if s.IsPipe() {
		return s.Pipe.IO
	}
	if s.IsNet() {
		return s.Net.IO
	}
	return stream.IOStdout
}

// AddUniqueEdge wires a Pipe stream of the given IO type from left's
// output to right's stdin, rejecting a duplicate (left, right, io)
// triple. This is the only way production code should connect two
// nodes; frontend lowering and tests both go through it so the edge
// list never drifts out of sync with the nodes' own stream vectors.
func (p *Program) AddUniqueEdge(left, right stream.NodeId, io stream.IOType) error {
	leftNode, ok := p.nodes[left]
	if !ok {
		return newGraphError(MissingNode, "left node %d not in graph", left)
	}
	rightNode, ok := p.nodes[right]
	if !ok {
		return newGraphError(MissingNode, "right node %d not in graph", right)
	}
	for _, e := range p.edges {
		if e.Left == left && e.Right == right && ioOf(e.Stream) == io {
			return newGraphError(DuplicateEdge, "edge %d->%d (%s) already exists", left, right, io)
		}
	}

	pipe := stream.NewPipeStream(left, right, io)
	var err error
	if io == stream.IOStderr {
		err = leftNode.AddStderr(pipe)
	} else {
		err = leftNode.AddStdout(pipe)
	}
	if err != nil {
		return err
	}
	if err := rightNode.AddStdin(pipe); err != nil {
		return err
	}
	p.edges = append(p.edges, Edge{Left: left, Right: right, Stream: pipe})
	return nil
}

// addRawEdge appends e without touching any node's stream vectors. Used
// only when reconstructing a Program from its canonical form, where the
// nodes already carry their own stdin/stdout/stderr lists verbatim.
func (p *Program) addRawEdge(e Edge) {
	p.edges = append(p.edges, e)
}

// NetStreams returns the distinct NetStream values referenced anywhere
// in the graph, used by the RPC client to know which TCP connections a
// sub-program's setup phase must establish.
func (p *Program) NetStreams() []stream.NetStream {
	seen := map[stream.NetStream]bool{}
	var out []stream.NetStream
	for _, e := range p.edges {
		if e.Stream.IsNet() && !seen[e.Stream.Net] {
			seen[e.Stream.Net] = true
			out = append(out, e.Stream.Net)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Left != out[j].Left {
			return out[i].Left < out[j].Left
		}
		return out[i].Right < out[j].Right
	})
	return out
}

// SplitByMachine partitions the graph by each node's assigned Location,
// rewriting every edge that crosses locations from a Pipe into its Tcp
// equivalent on both endpoint nodes. Same-machine edges are carried
// into their shared partition unchanged.
func (p *Program) SplitByMachine() (map[stream.Location]*Program, error) {
	parts := make(map[stream.Location]*Program)
	partFor := func(loc stream.Location) *Program {
		part, ok := parts[loc]
		if !ok {
			part = &Program{ID: p.ID, nodes: make(map[stream.NodeId]node.Node), nextID: p.nextID}
			parts[loc] = part
		}
		return part
	}

	for _, id := range p.NodeIDs() {
		n := p.nodes[id]
		partFor(n.Location()).nodes[id] = n
	}

	for _, e := range p.Edges() {
		leftNode, ok := p.nodes[e.Left]
		if !ok {
			return nil, newGraphError(MissingNode, "left node %d not in graph", e.Left)
		}
		rightNode, ok := p.nodes[e.Right]
		if !ok {
			return nil, newGraphError(MissingNode, "right node %d not in graph", e.Right)
		}

		if leftNode.Location() == rightNode.Location() {
			partFor(leftNode.Location()).addRawEdge(e)
			continue
		}

		if !e.Stream.IsPipe() {
			return nil, newGraphError(StreamMismatch, "cross-machine edge %d->%d is not a pipe stream", e.Left, e.Right)
		}
		net := e.Stream.AsNetStream(leftNode.Location(), rightNode.Location())
		leftNode.ReplaceStream(e.Stream, net)
		rightNode.ReplaceStream(e.Stream, net)

		rewritten := Edge{Left: e.Left, Right: e.Right, Stream: net}
		partFor(leftNode.Location()).addRawEdge(rewritten)
		partFor(rightNode.Location()).addRawEdge(rewritten)
	}

	invariant.Postcondition(len(parts) > 0, "split_by_machine must produce at least one partition")
	return parts, nil
}

// Merge appends every node and edge of other into p, assigning fresh
// NodeIds to avoid collisions, and returns the mapping from other's old
// ids to their new ids in p. Frontend lowering does not go through
// Merge: a `<( … )` subcommand is lowered directly into the outer
// Program.
func (p *Program) Merge(other *Program) map[stream.NodeId]stream.NodeId {
	remap := make(map[stream.NodeId]stream.NodeId, len(other.nodes))
	for _, oldID := range other.NodeIDs() {
		n := other.nodes[oldID]
		newID := p.nextID
		p.nextID++
		n.SetID(newID)
		n.SetProgID(p.ID)
		p.nodes[newID] = n
		remap[oldID] = newID
	}
	for _, e := range other.edges {
		p.edges = append(p.edges, Edge{
			Left:   remap[e.Left],
			Right:  remap[e.Right],
			Stream: remapEdgeStream(e.Stream, remap),
		})
	}
	for _, newID := range remap {
		n := p.nodes[newID]
		remapNodePipeIDs(n, remap)
	}
	return remap
}

// remapNodePipeIDs rewrites the Left/Right node ids embedded in n's own
// Pipe streams after a Merge reassigns node ids, keeping each node's
// stdin/stdout/stderr vectors consistent with the graph's edge list.
func remapNodePipeIDs(n node.Node, remap map[stream.NodeId]stream.NodeId) {
	all := append(append(append([]stream.Stream{}, n.Stdin()...), n.Stdout()...), n.Stderr()...)
	for _, s := range all {
		if !s.IsPipe() {
			continue
		}
		remapped := remapEdgeStream(s, remap)
		if remapped != s {
			n.ReplaceStream(s, remapped)
		}
	}
}

func remapEdgeStream(s stream.Stream, remap map[stream.NodeId]stream.NodeId) stream.Stream {
	if !s.IsPipe() {
		return s
	}
	s.Pipe.Left = remap[s.Pipe.Left]
	s.Pipe.Right = remap[s.Pipe.Right]
	return s
}

// ResolveArgs rewrites every File stream's relative path to be absolute
// against baseDir. Idempotent: paths already absolute are left alone,
// so calling it twice on the same Program is a no-op the second time.
func (p *Program) ResolveArgs(baseDir string) error {
	for _, id := range p.NodeIDs() {
		n := p.nodes[id]
		switch typed := n.(type) {
		case *node.ReadNode:
			resolved := resolveFileStream(typed.Input, baseDir)
			typed.Input = resolved
		case *node.WriteNode:
			for _, out := range typed.Outputs() {
				if out.IsFile() {
					typed.ReplaceStream(out, resolveFileStream(out, baseDir))
				}
			}
		}
	}
	return nil
}
