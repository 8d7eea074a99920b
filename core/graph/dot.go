package graph

import (
	"fmt"
	"io"
)

// WriteDot renders p as Graphviz .dot source. Each node is labeled with
// DotLabel(); edges are labeled with their IO type and, for Tcp edges,
// the two locations the connection spans.
func (p *Program) WriteDot(w io.Writer) error {
	if _, err := fmt.Fprintln(w, "digraph program {"); err != nil {
		return err
	}
	for _, id := range p.NodeIDs() {
		n := p.nodes[id]
		if _, err := fmt.Fprintf(w, "  n%d [label=%q];\n", id, n.DotLabel()); err != nil {
			return err
		}
	}
	for _, e := range p.Edges() {
		label := ioOf(e.Stream).String()
		if e.Stream.IsNet() {
			label = fmt.Sprintf("%s (%s -> %s)", label, e.Stream.Net.Sending, e.Stream.Net.Receiving)
		}
		if _, err := fmt.Fprintf(w, "  n%d -> n%d [label=%q];\n", e.Left, e.Right, label); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "}")
	return err
}
