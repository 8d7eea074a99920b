package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dashmesh/dashctl/core/stream"
	"github.com/dashmesh/dashctl/frontend"
	"github.com/dashmesh/dashctl/internal/dot"
)

func newPlanCmd() *cobra.Command {
	var outDir string
	var dotBinary string

	cmd := &cobra.Command{
		Use:   "plan <command>",
		Short: "Parse a shell command and render its shell and dataflow graphs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(args[0], outDir, dotBinary)
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "output folder for the rendered .dot files")
	cmd.Flags().StringVar(&dotBinary, "dot-binary", "dot", "Graphviz dot binary to invoke for image rendering (skipped if not found on PATH)")
	return cmd
}

// runPlan lowers line into both of its graph stages and writes
// <fingerprint>_shell_viz.dot / <fingerprint>_dash_viz.dot to outDir,
// matching spec's CLI contract of one shell command string and one
// output folder in, two named .dot files out. When dotBinary resolves
// on PATH, it additionally renders each .dot file to a PDF alongside it.
func runPlan(line, outDir, dotBinary string) error {
	resolver, err := loadResolver()
	if err != nil {
		return &CLIError{Type: "plan", Message: "failed to load mount table", Details: err.Error()}
	}

	elems, err := frontend.Tokenize(line)
	if err != nil {
		return &CLIError{Type: "parse", Message: "failed to tokenize command", Details: err.Error()}
	}
	shellGraph, err := frontend.BuildShellGraph(elems)
	if err != nil {
		return &CLIError{Type: "parse", Message: "failed to build shell graph", Details: err.Error()}
	}
	prog, err := shellGraph.ConvertIntoProgram(stream.ProgId(0), resolver)
	if err != nil {
		return &CLIError{Type: "plan", Message: "failed to lower shell graph into a program", Details: err.Error()}
	}

	fp, err := prog.Fingerprint()
	if err != nil {
		return &CLIError{Type: "plan", Message: "failed to fingerprint program", Details: err.Error()}
	}
	name := fmt.Sprintf("%x", fp)[:12]

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return &CLIError{Type: "plan", Message: "failed to create output folder", Details: err.Error()}
	}

	shellDotPath := filepath.Join(outDir, name+"_shell_viz.dot")
	if err := dot.WriteFile(shellGraph, shellDotPath); err != nil {
		return &CLIError{Type: "plan", Message: "failed to write shell graph", Details: err.Error()}
	}
	dashDotPath := filepath.Join(outDir, name+"_dash_viz.dot")
	if err := dot.WriteFile(prog, dashDotPath); err != nil {
		return &CLIError{Type: "plan", Message: "failed to write dataflow graph", Details: err.Error()}
	}

	fmt.Printf("wrote %s\n", shellDotPath)
	fmt.Printf("wrote %s\n", dashDotPath)

	resolvedBinary, lookErr := exec.LookPath(dotBinary)
	if lookErr != nil {
		return nil
	}
	for _, dotPath := range []string{shellDotPath, dashDotPath} {
		imgPath := strings.TrimSuffix(dotPath, ".dot") + ".pdf"
		if err := dot.Invoke(resolvedBinary, dotPath, imgPath); err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
			continue
		}
		fmt.Printf("rendered %s\n", imgPath)
	}
	return nil
}
