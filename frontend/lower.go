package frontend

import (
	"fmt"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/dashmesh/dashctl/core/graph"
	"github.com/dashmesh/dashctl/core/node"
	"github.com/dashmesh/dashctl/core/stream"
)

// LocationResolver is the mount-table oracle's view from frontend's
// perspective: given a file path, which machine owns it. Prefixes lists
// every configured mount prefix, used only to build a fuzzy suggestion
// when a path matches none.
type LocationResolver interface {
	LocationOf(path string) (stream.Location, error)
	Prefixes() []string
}

// ConvertIntoProgram lowers g into a core/graph.Program under progID,
// resolving every file redirection's Location through resolver and
// inserting the implicit stdout/stderr terminators the original shell
// semantics require at the end of a pipeline.
func (g *ShellGraph) ConvertIntoProgram(progID stream.ProgId, resolver LocationResolver) (*graph.Program, error) {
	p := graph.NewProgram(progID)
	_, err := lowerInto(p, g, resolver, false)
	return p, err
}

// lowerInto lowers g's segments into p (which may already contain nodes
// from an outer pipeline, when g is a `<( … )` subcommand being merged
// in) and returns the CommandNode id of the pipeline's final sink, used
// by the caller to wire a process-substitution edge. When asSubcommand
// is true, the final segment's implicit stdout terminator is suppressed:
// its sink connects to the consuming command's stdin instead of to the
// client's own stdout.
func lowerInto(p *graph.Program, g *ShellGraph, resolver LocationResolver, asSubcommand bool) (stream.NodeId, error) {
	var prev stream.NodeId
	var havePrev bool

	for segIdx, seg := range g.Segments {
		argv := renderArgv(seg.Args)
		cmd := node.NewCommandNode(seg.Name.Literal, argv)
		cmdID := p.AddElem(cmd)

		for _, sub := range seg.Subcommands {
			sinkID, err := lowerInto(p, sub, resolver, true)
			if err != nil {
				return 0, err
			}
			if err := p.AddUniqueEdge(sinkID, cmdID, stream.IOStdout); err != nil {
				return 0, err
			}
		}

		switch {
		case seg.Stdin != nil:
			loc, err := resolveLocation(resolver, seg.Stdin.Path)
			if err != nil {
				return 0, err
			}
			read := node.NewReadNode(stream.NewFileStream(seg.Stdin.Path, stream.FileRead, loc))
			read.SetLocation(loc)
			readID := p.AddElem(read)
			if err := p.AddUniqueEdge(readID, cmdID, stream.IOStdout); err != nil {
				return 0, err
			}
		case havePrev:
			if err := p.AddUniqueEdge(prev, cmdID, stream.IOStdout); err != nil {
				return 0, err
			}
		}

		isLast := segIdx == len(g.Segments)-1 && !asSubcommand
		if err := attachStdout(p, cmdID, seg, isLast, resolver); err != nil {
			return 0, err
		}
		if err := attachStderr(p, cmdID, seg, resolver); err != nil {
			return 0, err
		}

		prev = cmdID
		havePrev = true
	}

	return prev, nil
}

func attachStdout(p *graph.Program, cmdID stream.NodeId, seg *SubCommand, isLast bool, resolver LocationResolver) error {
	if seg.Stdout == nil && !isLast {
		return nil
	}
	write := node.NewWriteNode()
	if seg.Stdout != nil {
		loc, err := resolveLocation(resolver, seg.Stdout.Path)
		if err != nil {
			return err
		}
		mode := stream.FileWrite
		if seg.Stdout.Append {
			mode = stream.FileAppend
		}
		if err := write.AddStdout(stream.NewFileStream(seg.Stdout.Path, mode, loc)); err != nil {
			return err
		}
		write.SetLocation(loc)
	} else {
		if err := write.AddStdout(stream.StdoutStream()); err != nil {
			return err
		}
	}
	writeID := p.AddElem(write)
	return p.AddUniqueEdge(cmdID, writeID, stream.IOStdout)
}

func attachStderr(p *graph.Program, cmdID stream.NodeId, seg *SubCommand, resolver LocationResolver) error {
	write := node.NewWriteNode()
	if seg.Stderr != nil {
		loc, err := resolveLocation(resolver, seg.Stderr.Path)
		if err != nil {
			return err
		}
		if err := write.AddStdout(stream.NewFileStream(seg.Stderr.Path, stream.FileWrite, loc)); err != nil {
			return err
		}
		write.SetLocation(loc)
	} else {
		if err := write.AddStdout(stream.StderrStream()); err != nil {
			return err
		}
	}
	writeID := p.AddElem(write)
	return p.AddUniqueEdge(cmdID, writeID, stream.IOStderr)
}

func renderArgv(args []ArgvPart) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		out = append(out, a.Literal)
	}
	return out
}

func resolveLocation(resolver LocationResolver, path string) (stream.Location, error) {
	loc, err := resolver.LocationOf(path)
	if err == nil {
		return loc, nil
	}
	suggestion := suggestMount(resolver.Prefixes(), path)
	detail := fmt.Sprintf("path %q does not match any configured mount", path)
	if suggestion != "" {
		detail = fmt.Sprintf("%s (did you mean a path under %q?)", detail, suggestion)
	}
	return stream.Location{}, &ParseError{Kind: UnknownMount, Detail: detail, Cause: err}
}

func suggestMount(prefixes []string, path string) string {
	best := ""
	bestRank := -1
	for _, prefix := range prefixes {
		rank := fuzzy.RankMatchFold(prefix, path)
		if rank < 0 {
			continue
		}
		if bestRank == -1 || rank < bestRank {
			bestRank = rank
			best = prefix
		}
	}
	if best == "" && len(prefixes) > 0 {
		return strings.TrimSpace(prefixes[0])
	}
	return best
}
