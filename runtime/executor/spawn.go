package executor

import (
	"io"
	"os"
	"os/exec"

	"github.com/dashmesh/dashctl/core/graph"
	"github.com/dashmesh/dashctl/core/node"
	"github.com/dashmesh/dashctl/core/stream"
)

// spawnCommand builds cmd's *exec.Cmd (left unstarted — see package
// doc) and creates the real os.Pipe for every Pipe-typed edge cmd
// touches, since a CommandNode is the only node kind that actually
// forks a process and therefore the only one that can own a pipe's
// far-end handoff. It keeps the end wired to its own process and
// inserts the opposite end into the shared pipe map under the other
// endpoint's own node id, per the protocol documented on
// core/stream.SharedPipeMap.
func (r *Runner) spawnCommand(p *graph.Program, cmd *node.CommandNode) error {
	b := r.build(cmd.ID())
	b.cmd = exec.Command(cmd.Name, cmd.Args...)

	for _, s := range cmd.Stdout() {
		if s.IsPipe() {
			if err := r.spawnPipeOut(cmd.ProgID(), s, b, false); err != nil {
				return err
			}
		}
	}
	for _, s := range cmd.Stderr() {
		if s.IsPipe() {
			if err := r.spawnPipeOut(cmd.ProgID(), s, b, true); err != nil {
				return err
			}
		}
	}

	// stdinReaders is pre-sized and filled by index rather than
	// appended, so a stdin edge resolved here (ReadNode producer) and
	// one resolved later in Redirect (CommandNode producer) still end
	// up in the same order the edges were added — fan-in concatenation
	// order must not depend on which phase happened to resolve which
	// source.
	b.stdinReaders = make([]io.Reader, len(cmd.Stdin()))
	for i, s := range cmd.Stdin() {
		if !s.IsPipe() {
			continue
		}
		producer := p.Node(s.Pipe.Left)
		if _, isCommand := producer.(*node.CommandNode); isCommand {
			// The producing CommandNode already created this pipe
			// during its own Spawn and inserted the read end keyed
			// by this command's own id; retrieved in Redirect.
			continue
		}
		// The producer is a ReadNode (the only other stdin source):
		// it has no Spawn-time resources of its own, so this command
		// creates the pipe, keeps the read end for its own stdin, and
		// inserts the write end keyed by the ReadNode's own id.
		pr, pw, err := os.Pipe()
		if err != nil {
			return &IoError{NodeKind: "CommandNode", Operation: IoFileOpen, Detail: "stdin pipe", Cause: err}
		}
		b.stdinReaders[i] = pr
		b.ownedFiles = append(b.ownedFiles, pr)
		r.Pipes.Insert(stream.NewHandleIdentifier(cmd.ProgID(), s.Pipe.Left, s.Pipe.IO), pw)
	}

	return nil
}

// spawnPipeOut allocates an os.Pipe for one of cmd's own stdout/stderr
// edges, keeps the write end attached to the node's own cmdBuild, and
// inserts the read end under the consumer's own node id.
func (r *Runner) spawnPipeOut(progID stream.ProgId, s stream.Stream, b *cmdBuild, isErr bool) error {
	pr, pw, err := os.Pipe()
	if err != nil {
		return &IoError{NodeKind: "CommandNode", Operation: IoFileOpen, Detail: "stdout/stderr pipe", Cause: err}
	}
	b.ownedFiles = append(b.ownedFiles, pw)
	if isErr {
		b.stderrWriters = append(b.stderrWriters, pw)
	} else {
		b.stdoutWriters = append(b.stdoutWriters, pw)
	}
	r.Pipes.Insert(stream.NewHandleIdentifier(progID, s.Pipe.Right, s.Pipe.IO), pr)
	return nil
}
