package frontend

// Redirect names a file path a command's stdin/stdout/stderr is bound
// to, and whether a stdout redirect should append.
type Redirect struct {
	Path   string
	Append bool
}

// ArgvPart is one positional argument word. `<( … )` subcommands never
// become an ArgvPart: per convention they're wired as the command's
// implicit stdin instead (see SubCommand.Subcommands).
type ArgvPart struct {
	Literal string
}

// SubCommand is one pipe segment: its program name and arguments, its
// optional explicit redirections, and any `<( … )` subcommands its
// arguments reference.
type SubCommand struct {
	Name        ArgvPart
	Args        []ArgvPart
	Stdin       *Redirect
	Stdout      *Redirect
	Stderr      *Redirect
	Subcommands []*ShellGraph
}

// ShellGraph is a pipeline: an ordered list of pipe-connected
// SubCommands, built directly from Tokenize's output before any
// machine-placement decision is made.
type ShellGraph struct {
	Segments []*SubCommand
}

// BuildShellGraph groups Tokenize's flat element list into pipe
// segments, recursively building a nested ShellGraph for every `<( … )`
// subcommand it encounters.
func BuildShellGraph(elems []RawShellElement) (*ShellGraph, error) {
	var segments [][]RawShellElement
	var current []RawShellElement
	for _, e := range elems {
		if e.Kind == ElemPipe {
			segments = append(segments, current)
			current = nil
			continue
		}
		current = append(current, e)
	}
	segments = append(segments, current)

	graph := &ShellGraph{}
	for _, seg := range segments {
		sc, err := buildSubCommand(seg)
		if err != nil {
			return nil, err
		}
		graph.Segments = append(graph.Segments, sc)
	}
	return graph, nil
}

func buildSubCommand(elems []RawShellElement) (*SubCommand, error) {
	sc := &SubCommand{}
	var argv []ArgvPart
	for _, e := range elems {
		switch e.Kind {
		case ElemWord:
			argv = append(argv, ArgvPart{Literal: e.Word})
		case ElemSubcommand:
			nested, err := BuildShellGraph(e.Sub)
			if err != nil {
				return nil, err
			}
			// Per convention every Subcmd is treated as if preceded by
			// Stdin: it's wired into the command's stdin at lowering
			// time, never pushed as an argv token.
			sc.Subcommands = append(sc.Subcommands, nested)
		case ElemStdin:
			if sc.Stdin != nil {
				return nil, newParseError(Structural, "multiple stdin redirections in one command")
			}
			sc.Stdin = &Redirect{Path: e.Word}
		case ElemStdout:
			if sc.Stdout != nil {
				return nil, newParseError(Structural, "multiple stdout redirections in one command")
			}
			sc.Stdout = &Redirect{Path: e.Word}
		case ElemStdoutAppend:
			if sc.Stdout != nil {
				return nil, newParseError(Structural, "multiple stdout redirections in one command")
			}
			sc.Stdout = &Redirect{Path: e.Word, Append: true}
		case ElemStderr:
			if sc.Stderr != nil {
				return nil, newParseError(Structural, "multiple stderr redirections in one command")
			}
			sc.Stderr = &Redirect{Path: e.Word}
		default:
			return nil, newParseError(Structural, "unexpected element kind %d in pipe segment", e.Kind)
		}
	}
	if len(argv) == 0 {
		return nil, newParseError(EmptyCommand, "pipe segment has no command")
	}
	sc.Name = argv[0]
	sc.Args = argv[1:]
	return sc, nil
}
