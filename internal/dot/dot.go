// Package dot writes a .dot file for anything that can render its own
// Graphviz source (frontend.ShellGraph, core/graph.Program) and,
// optionally, shells out to a local `dot` binary to turn it into a
// rendered image.
package dot

import (
	"fmt"
	"io"
	"os"
	"os/exec"
)

// Dottable is satisfied by both frontend.ShellGraph and
// core/graph.Program — anything that knows how to write its own
// Graphviz source.
type Dottable interface {
	WriteDot(w io.Writer) error
}

// WriteFile renders g's .dot source to dotPath.
func WriteFile(g Dottable, dotPath string) error {
	f, err := os.Create(dotPath)
	if err != nil {
		return fmt.Errorf("dot: create %s: %w", dotPath, err)
	}
	defer f.Close()
	if err := g.WriteDot(f); err != nil {
		return fmt.Errorf("dot: write %s: %w", dotPath, err)
	}
	return nil
}

// Render writes g's .dot source to dotPath and invokes dotBinary to
// turn it into a rendered image at outputPath (format inferred from
// outputPath's extension, e.g. "-Tpdf" for a ".pdf" path).
func Render(g Dottable, dotBinary, dotPath, outputPath string) error {
	if err := WriteFile(g, dotPath); err != nil {
		return err
	}
	return Invoke(dotBinary, dotPath, outputPath)
}

// Invoke shells out to dotBinary to convert an existing .dot file at
// dotPath into outputPath, e.g. `dot basic.dot -Tpdf -o basic.pdf`.
func Invoke(dotBinary, dotPath, outputPath string) error {
	format := outputFormat(outputPath)
	cmd := exec.Command(dotBinary, dotPath, "-T"+format, "-o", outputPath)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("dot: %s %s: %w: %s", dotBinary, dotPath, err, out)
	}
	return nil
}

func outputFormat(outputPath string) string {
	for i := len(outputPath) - 1; i >= 0; i-- {
		if outputPath[i] == '.' {
			return outputPath[i+1:]
		}
		if outputPath[i] == '/' {
			break
		}
	}
	return "pdf"
}
