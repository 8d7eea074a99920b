package executor

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"

	"github.com/dashmesh/dashctl/core/graph"
	"github.com/dashmesh/dashctl/core/node"
	"github.com/dashmesh/dashctl/core/stream"
)

// redirectNode runs one node's blocking copy loop. It reports a
// CommandNode's process exit status (0 for Read/Write nodes, which
// never fork anything).
func (r *Runner) redirectNode(p *graph.Program, n node.Node) (int, error) {
	switch typed := n.(type) {
	case *node.CommandNode:
		return r.redirectCommand(p, typed)
	case *node.ReadNode:
		return 0, r.redirectRead(typed)
	case *node.WriteNode:
		return 0, r.redirectWrite(typed)
	default:
		return 0, fmt.Errorf("executor: unknown node kind for id %d", n.ID())
	}
}

func (r *Runner) redirectCommand(p *graph.Program, cmd *node.CommandNode) (int, error) {
	b := r.build(cmd.ID())
	defer r.closeOwned(b)

	// TCP connections removed below are owned by this node; closing the
	// sending side after the child exits is what signals EOF to the peer.
	var conns []net.Conn
	defer func() {
		for _, c := range conns {
			c.Close()
		}
	}()

	for i, s := range cmd.Stdin() {
		switch {
		case s.IsNet():
			conn, err := r.Nets.Remove(s.Net)
			if err != nil {
				return 0, &IoError{NodeKind: "CommandNode", Operation: IoRead, Detail: "stdin net stream", Cause: err}
			}
			conns = append(conns, conn)
			b.stdinReaders[i] = conn
		case s.IsPipe():
			if _, isCommand := p.Node(s.Pipe.Left).(*node.CommandNode); !isCommand {
				// Already filled in b.stdinReaders during Spawn: the
				// producer is a ReadNode, which has no Spawn-time
				// resources of its own, so this command created the
				// pipe itself.
				continue
			}
			f, err := r.Pipes.Remove(stream.NewHandleIdentifier(cmd.ProgID(), cmd.ID(), s.Pipe.IO))
			if err != nil {
				return 0, &IoError{NodeKind: "CommandNode", Operation: IoRead, Detail: "stdin pipe", Cause: err}
			}
			b.stdinReaders[i] = f
			b.ownedFiles = append(b.ownedFiles, f)
		}
	}
	for _, s := range cmd.Stdout() {
		if s.IsNet() {
			conn, err := r.Nets.Remove(s.Net)
			if err != nil {
				return 0, &IoError{NodeKind: "CommandNode", Operation: IoWrite, Detail: "stdout net stream", Cause: err}
			}
			conns = append(conns, conn)
			b.stdoutWriters = append(b.stdoutWriters, conn)
		}
	}
	for _, s := range cmd.Stderr() {
		if s.IsNet() {
			conn, err := r.Nets.Remove(s.Net)
			if err != nil {
				return 0, &IoError{NodeKind: "CommandNode", Operation: IoWrite, Detail: "stderr net stream", Cause: err}
			}
			conns = append(conns, conn)
			b.stderrWriters = append(b.stderrWriters, conn)
		}
	}

	switch len(b.stdinReaders) {
	case 0:
		b.cmd.Stdin = nil
	case 1:
		b.cmd.Stdin = b.stdinReaders[0]
	default:
		b.cmd.Stdin = io.MultiReader(b.stdinReaders...)
	}

	stdoutCapture := &writeErrorCapture{w: fanOut(b.stdoutWriters, os.Stdout)}
	stderrCapture := &writeErrorCapture{w: fanOut(b.stderrWriters, os.Stderr)}
	b.cmd.Stdout = stdoutCapture
	b.cmd.Stderr = stderrCapture

	if err := b.cmd.Start(); err != nil {
		return 0, &IoError{NodeKind: "CommandNode", Operation: IoFileOpen, Detail: fmt.Sprintf("start %q", cmd.Name), Cause: err}
	}

	waitErr := b.cmd.Wait()
	code := 0
	var runErr error
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			code = exitErr.ExitCode()
		} else {
			runErr = &IoError{NodeKind: "CommandNode", Operation: IoRead, Detail: fmt.Sprintf("wait %q", cmd.Name), Cause: waitErr}
		}
	}
	if runErr == nil {
		if writeErr := stdoutCapture.Err(); writeErr != nil {
			runErr = &IoError{NodeKind: "CommandNode", Operation: IoWrite, Detail: "stdout", Cause: writeErr}
		}
	}
	if runErr == nil {
		if writeErr := stderrCapture.Err(); writeErr != nil {
			runErr = &IoError{NodeKind: "CommandNode", Operation: IoWrite, Detail: "stderr", Cause: writeErr}
		}
	}
	return code, runErr
}

func (r *Runner) redirectRead(n *node.ReadNode) error {
	f, err := os.Open(n.Input.File.Path)
	if err != nil {
		// Release the output end so the consumer sees EOF instead of
		// blocking on a writer that will never write.
		for _, s := range n.Stdout() {
			if s.IsPipe() {
				if h, rmErr := r.Pipes.Remove(stream.NewHandleIdentifier(n.ProgID(), n.ID(), s.Pipe.IO)); rmErr == nil {
					h.Close()
				}
			} else if s.IsNet() {
				if c, rmErr := r.Nets.Remove(s.Net); rmErr == nil {
					c.Close()
				}
			}
		}
		return &IoError{NodeKind: "ReadNode", Operation: IoFileOpen, Detail: n.Input.File.Path, Cause: err}
	}
	defer f.Close()

	out := n.Stdout()
	if len(out) == 0 {
		return nil
	}
	s := out[0]
	switch {
	case s.IsNet():
		conn, err := r.Nets.Remove(s.Net)
		if err != nil {
			return &IoError{NodeKind: "ReadNode", Operation: IoWrite, Detail: "net stream", Cause: err}
		}
		defer conn.Close()
		if err := copyStream(conn, f); err != nil {
			return &IoError{NodeKind: "ReadNode", Operation: IoWrite, Detail: "net copy", Cause: err}
		}
	case s.IsPipe():
		handle, err := r.Pipes.Remove(stream.NewHandleIdentifier(n.ProgID(), n.ID(), s.Pipe.IO))
		if err != nil {
			return &IoError{NodeKind: "ReadNode", Operation: IoWrite, Detail: "pipe handle", Cause: err}
		}
		defer handle.Close()
		if err := copyStream(handle, f); err != nil {
			return &IoError{NodeKind: "ReadNode", Operation: IoWrite, Detail: "pipe copy", Cause: err}
		}
	default:
		return &IoError{NodeKind: "ReadNode", Operation: IoWrite, Detail: "unsupported output stream kind"}
	}
	return nil
}

func (r *Runner) redirectWrite(n *node.WriteNode) error {
	for _, out := range n.Outputs() {
		for _, in := range n.Stdin() {
			reader, closeIn, err := r.resolveWriteInput(n, in)
			if err != nil {
				return err
			}
			if closeIn != nil {
				defer closeIn.Close()
			}

			writer, closeOut, err := openWriteTarget(out)
			if err != nil {
				return err
			}

			if err := copyStream(writer, reader); err != nil {
				if closeOut != nil {
					closeOut.Close()
				}
				return &IoError{NodeKind: "WriteNode", Operation: IoWrite, Detail: "copy", Cause: err}
			}
			if closeOut != nil {
				if err := closeOut.Close(); err != nil {
					return &IoError{NodeKind: "WriteNode", Operation: IoWrite, Detail: "close", Cause: err}
				}
			}
		}
	}
	return nil
}

func (r *Runner) resolveWriteInput(n *node.WriteNode, in stream.Stream) (io.Reader, io.Closer, error) {
	switch {
	case in.IsNet():
		conn, err := r.Nets.Remove(in.Net)
		if err != nil {
			return nil, nil, &IoError{NodeKind: "WriteNode", Operation: IoRead, Detail: "net stream", Cause: err}
		}
		return conn, nil, nil
	case in.IsPipe():
		f, err := r.Pipes.Remove(stream.NewHandleIdentifier(n.ProgID(), n.ID(), in.Pipe.IO))
		if err != nil {
			return nil, nil, &IoError{NodeKind: "WriteNode", Operation: IoRead, Detail: "pipe handle", Cause: err}
		}
		return f, f, nil
	default:
		return nil, nil, &IoError{NodeKind: "WriteNode", Operation: IoRead, Detail: "unsupported input stream kind"}
	}
}

func openWriteTarget(out stream.Stream) (io.Writer, io.Closer, error) {
	switch out.Kind {
	case stream.KindFile:
		flags := os.O_WRONLY | os.O_CREATE
		if out.File.Mode == stream.FileAppend {
			flags |= os.O_APPEND
		}
		f, err := os.OpenFile(out.File.Path, flags, 0o644)
		if err != nil {
			return nil, nil, &IoError{NodeKind: "WriteNode", Operation: IoFileOpen, Detail: out.File.Path, Cause: err}
		}
		return f, f, nil
	case stream.KindStdout:
		return os.Stdout, nil, nil
	case stream.KindStderr:
		return os.Stderr, nil, nil
	default:
		return nil, nil, &IoError{NodeKind: "WriteNode", Operation: IoWrite, Detail: "unsupported output stream kind"}
	}
}

func fanOut(writers []io.Writer, fallback io.Writer) io.Writer {
	switch len(writers) {
	case 0:
		return fallback
	case 1:
		return writers[0]
	default:
		return io.MultiWriter(writers...)
	}
}

// closeOwned closes every local pipe end a CommandNode's Spawn created
// for itself: the write end of each outbound edge (signals EOF to the
// consumer once the child exits) and the read end of any inbound edge
// whose producer was a ReadNode.
func (r *Runner) closeOwned(b *cmdBuild) {
	for _, f := range b.ownedFiles {
		f.Close()
	}
}
