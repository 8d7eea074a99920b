package frontend

import (
	"fmt"
	"io"
	"strings"
)

// WriteDot renders g as Graphviz .dot source, one node per pipe segment
// and per nested subcommand, before any machine-placement decision is
// made. This is the pre-lowering counterpart to core/graph.Program.WriteDot.
func (g *ShellGraph) WriteDot(w io.Writer) error {
	if _, err := fmt.Fprintln(w, "digraph shell {"); err != nil {
		return err
	}
	counter := 0
	if _, err := writeSegments(w, g, &counter); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "}")
	return err
}

// writeSegments renders g's segments and returns the final segment's
// node id (its "sink"), used by a caller rendering the outer pipeline
// to draw the process-substitution edge into the consuming command.
func writeSegments(w io.Writer, g *ShellGraph, counter *int) (string, error) {
	var prevID, sink string
	for _, seg := range g.Segments {
		id := fmt.Sprintf("n%d", *counter)
		*counter++
		label := seg.Name.Literal
		var argWords []string
		for _, a := range seg.Args {
			argWords = append(argWords, a.Literal)
		}
		if len(argWords) > 0 {
			label += " " + strings.Join(argWords, " ")
		}
		if _, err := fmt.Fprintf(w, "  %s [label=%q];\n", id, label); err != nil {
			return "", err
		}
		if prevID != "" {
			if _, err := fmt.Fprintf(w, "  %s -> %s;\n", prevID, id); err != nil {
				return "", err
			}
		}
		for _, sub := range seg.Subcommands {
			subSink, err := writeSegments(w, sub, counter)
			if err != nil {
				return "", err
			}
			if subSink != "" {
				if _, err := fmt.Fprintf(w, "  %s -> %s [style=dashed,label=\"<(...)\"];\n", subSink, id); err != nil {
					return "", err
				}
			}
		}
		prevID = id
		sink = id
	}
	return sink, nil
}
