// Package executor runs one machine-local Program partition: it forks
// every CommandNode, wires file/pipe/TCP streams across the two
// barriers the graph model requires (spawn, then redirect), and joins
// every node's goroutine before reporting success or the first failure.
package executor

import (
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/dashmesh/dashctl/core/graph"
	"github.com/dashmesh/dashctl/core/invariant"
	"github.com/dashmesh/dashctl/core/node"
	"github.com/dashmesh/dashctl/core/stream"
)

// cmdBuild accumulates one CommandNode's wiring across Spawn and
// Redirect before exec.Cmd.Start is called: fan-in stdin readers are
// concatenated with io.MultiReader, fan-out stdout/stderr writers with
// io.MultiWriter, matching the node's own stream-list cardinality.
type cmdBuild struct {
	cmd          *exec.Cmd
	stdinReaders []io.Reader
	stdoutWriters []io.Writer
	stderrWriters []io.Writer
	ownedFiles   []*os.File
}

// Runner executes a Program (or one machine partition of one) that has
// already had SplitByMachine applied, so every remaining edge is either
// a same-host Pipe or an already-connected Tcp stream.
type Runner struct {
	Pipes  *stream.SharedPipeMap
	Nets   *stream.SharedStreamMap
	TmpDir string

	mu     sync.Mutex
	builds map[stream.NodeId]*cmdBuild
}

func NewRunner(pipes *stream.SharedPipeMap, nets *stream.SharedStreamMap, tmpDir string) *Runner {
	return &Runner{
		Pipes:  pipes,
		Nets:   nets,
		TmpDir: tmpDir,
		builds: make(map[stream.NodeId]*cmdBuild),
	}
}

func (r *Runner) build(id stream.NodeId) *cmdBuild {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.builds[id]
	if !ok {
		b = &cmdBuild{}
		r.builds[id] = b
	}
	return b
}

// Execute runs every node in p to completion: spawn runs for every node
// first (a hard barrier — CommandNode pipe allocation must finish
// before any Redirect goroutine looks one up), then one goroutine per
// node runs Redirect, then Execute joins all of them. ExitCodes reports
// each CommandNode's process exit status for a caller that wants
// $?/PIPESTATUS-style detail; the returned error is non-nil only for a
// plumbing failure (a missing handle, a failed open, a dial error),
// matching ClientReturnCodeMessage's coarse Success/Failure contract —
// a command that merely exits non-zero is not itself a dispatch error.
func (r *Runner) Execute(p *graph.Program) (exitCodes map[stream.NodeId]int, err error) {
	invariant.NotNil(p, "program")

	if err := p.ResolveArgs(r.TmpDir); err != nil {
		return nil, err
	}

	ids := p.NodeIDs()
	for _, id := range ids {
		cmdNode, ok := p.Node(id).(*node.CommandNode)
		if !ok {
			continue
		}
		if err := r.spawnCommand(p, cmdNode); err != nil {
			return nil, err
		}
	}

	errs := make([]error, len(ids))
	codes := make([]int, len(ids))
	var wg sync.WaitGroup
	wg.Add(len(ids))
	for i, id := range ids {
		i, id := i, id
		go func() {
			defer wg.Done()
			code, err := r.redirectNode(p, p.Node(id))
			codes[i] = code
			errs[i] = err
		}()
	}
	wg.Wait()

	exitCodes = make(map[stream.NodeId]int)
	for i, id := range ids {
		if _, ok := p.Node(id).(*node.CommandNode); ok {
			exitCodes[id] = codes[i]
		}
	}
	for _, e := range errs {
		if e != nil {
			return exitCodes, e
		}
	}
	return exitCodes, nil
}
