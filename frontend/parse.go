package frontend

import (
	"strings"

	"github.com/dashmesh/dashctl/core/graph"
	"github.com/dashmesh/dashctl/core/stream"
)

// ExportDirective is the `export VAR=value` command form: it never
// builds a Program, it just names an environment assignment the CLI
// driver applies to the client process's own environment.
type ExportDirective struct {
	Var   string
	Value string
}

// ParseResult holds the outcome of ParseCommand: exactly one of
// Program or Export is set.
type ParseResult struct {
	Program *graph.Program
	Export  *ExportDirective
}

// ParseCommand tokenizes, groups, and lowers line into a ParseResult.
// A leading `export VAR=value` is special-cased before the general
// shell-parsing path, matching the original shellparser's
// parse_export_command.
func ParseCommand(line string, progID stream.ProgId, resolver LocationResolver) (*ParseResult, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return nil, newParseError(EmptyCommand, "empty command line")
	}

	if export, ok := tryParseExport(trimmed); ok {
		return &ParseResult{Export: export}, nil
	}

	elems, err := Tokenize(trimmed)
	if err != nil {
		return nil, err
	}
	graphShape, err := BuildShellGraph(elems)
	if err != nil {
		return nil, err
	}
	prog, err := graphShape.ConvertIntoProgram(progID, resolver)
	if err != nil {
		return nil, err
	}
	return &ParseResult{Program: prog}, nil
}

func tryParseExport(line string) (*ExportDirective, bool) {
	const prefix = "export "
	if !strings.HasPrefix(line, prefix) {
		return nil, false
	}
	rest := strings.TrimSpace(line[len(prefix):])
	eq := strings.IndexByte(rest, '=')
	if eq <= 0 {
		return nil, false
	}
	return &ExportDirective{Var: rest[:eq], Value: rest[eq+1:]}, true
}
