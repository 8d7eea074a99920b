package executor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dashmesh/dashctl/core/graph"
	"github.com/dashmesh/dashctl/core/node"
	"github.com/dashmesh/dashctl/core/stream"
)

func newRunner(t *testing.T) *Runner {
	t.Helper()
	return NewRunner(stream.NewSharedPipeMap(), stream.NewSharedStreamMap(), t.TempDir())
}

func writeOutput(n *node.WriteNode, path string) {
	_ = n.AddStdout(stream.NewFileStream(path, stream.FileWrite, stream.Client()))
}

// TestExecuteReadCommandWrite runs Read(in) -> cat -> Write(out) and
// checks the bytes made it through the pipe unchanged.
func TestExecuteReadCommandWrite(t *testing.T) {
	dir := t.TempDir()
	inPath := filepath.Join(dir, "in.txt")
	outPath := filepath.Join(dir, "out.txt")
	require.NoError(t, os.WriteFile(inPath, []byte("hello dashctl\n"), 0o644))

	p := graph.NewProgram(1)
	read := p.AddElem(node.NewReadNode(stream.NewFileStream(inPath, stream.FileRead, stream.Client())))
	cat := p.AddElem(node.NewCommandNode("cat", nil))
	write := p.AddElem(node.NewWriteNode())
	writeOutput(p.Node(write).(*node.WriteNode), outPath)

	require.NoError(t, p.AddUniqueEdge(read, cat, stream.IOStdout))
	require.NoError(t, p.AddUniqueEdge(cat, write, stream.IOStdout))

	r := newRunner(t)
	codes, err := r.Execute(p)
	require.NoError(t, err)
	assert.Equal(t, 0, codes[cat])

	got, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, "hello dashctl\n", string(got))
}

// TestExecuteFanOutStdoutTeesToBothConsumers runs cat's single stdout
// into two WriteNode sinks and checks both files receive the full
// output, exercising a CommandNode's fan-out path.
func TestExecuteFanOutStdoutTeesToBothConsumers(t *testing.T) {
	dir := t.TempDir()
	inPath := filepath.Join(dir, "in.txt")
	outA := filepath.Join(dir, "a.txt")
	outB := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(inPath, []byte("fan out\n"), 0o644))

	p := graph.NewProgram(1)
	read := p.AddElem(node.NewReadNode(stream.NewFileStream(inPath, stream.FileRead, stream.Client())))
	cat := p.AddElem(node.NewCommandNode("cat", nil))
	writeA := p.AddElem(node.NewWriteNode())
	writeB := p.AddElem(node.NewWriteNode())
	writeOutput(p.Node(writeA).(*node.WriteNode), outA)
	writeOutput(p.Node(writeB).(*node.WriteNode), outB)

	require.NoError(t, p.AddUniqueEdge(read, cat, stream.IOStdout))
	require.NoError(t, p.AddUniqueEdge(cat, writeA, stream.IOStdout))
	require.NoError(t, p.AddUniqueEdge(cat, writeB, stream.IOStdout))

	r := newRunner(t)
	_, err := r.Execute(p)
	require.NoError(t, err)

	gotA, err := os.ReadFile(outA)
	require.NoError(t, err)
	gotB, err := os.ReadFile(outB)
	require.NoError(t, err)
	assert.Equal(t, "fan out\n", string(gotA))
	assert.Equal(t, "fan out\n", string(gotB))
}

// TestExecuteFanInStdinConcatenatesInOrder feeds two ReadNodes into one
// command's stdin and checks the bytes arrive concatenated in edge
// order, exercising the io.MultiReader fan-in path.
func TestExecuteFanInStdinConcatenatesInOrder(t *testing.T) {
	dir := t.TempDir()
	pathA := filepath.Join(dir, "a.txt")
	pathB := filepath.Join(dir, "b.txt")
	outPath := filepath.Join(dir, "out.txt")
	require.NoError(t, os.WriteFile(pathA, []byte("first\n"), 0o644))
	require.NoError(t, os.WriteFile(pathB, []byte("second\n"), 0o644))

	p := graph.NewProgram(1)
	readA := p.AddElem(node.NewReadNode(stream.NewFileStream(pathA, stream.FileRead, stream.Client())))
	readB := p.AddElem(node.NewReadNode(stream.NewFileStream(pathB, stream.FileRead, stream.Client())))
	cat := p.AddElem(node.NewCommandNode("cat", nil))
	write := p.AddElem(node.NewWriteNode())
	writeOutput(p.Node(write).(*node.WriteNode), outPath)

	require.NoError(t, p.AddUniqueEdge(readA, cat, stream.IOStdout))
	require.NoError(t, p.AddUniqueEdge(readB, cat, stream.IOStdout))
	require.NoError(t, p.AddUniqueEdge(cat, write, stream.IOStdout))

	r := newRunner(t)
	_, err := r.Execute(p)
	require.NoError(t, err)

	got, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\n", string(got))
}

// TestExecuteNonZeroExitIsNotAPlumbingFailure checks that a command
// exiting non-zero (grep with no match) is reported via its exit code,
// not as an Execute error — the plumbing itself didn't fail.
func TestExecuteNonZeroExitIsNotAPlumbingFailure(t *testing.T) {
	dir := t.TempDir()
	inPath := filepath.Join(dir, "in.txt")
	outPath := filepath.Join(dir, "out.txt")
	require.NoError(t, os.WriteFile(inPath, []byte("nothing matches\n"), 0o644))

	p := graph.NewProgram(1)
	read := p.AddElem(node.NewReadNode(stream.NewFileStream(inPath, stream.FileRead, stream.Client())))
	grep := p.AddElem(node.NewCommandNode("grep", []string{"needle"}))
	write := p.AddElem(node.NewWriteNode())
	writeOutput(p.Node(write).(*node.WriteNode), outPath)

	require.NoError(t, p.AddUniqueEdge(read, grep, stream.IOStdout))
	require.NoError(t, p.AddUniqueEdge(grep, write, stream.IOStdout))

	r := newRunner(t)
	codes, err := r.Execute(p)
	require.NoError(t, err)
	assert.Equal(t, 1, codes[grep])
}

// TestExecuteMissingFileIsAPlumbingFailure checks that a ReadNode whose
// file does not exist surfaces as an Execute error.
func TestExecuteMissingFileIsAPlumbingFailure(t *testing.T) {
	dir := t.TempDir()
	p := graph.NewProgram(1)
	read := p.AddElem(node.NewReadNode(stream.NewFileStream(filepath.Join(dir, "missing.txt"), stream.FileRead, stream.Client())))
	cat := p.AddElem(node.NewCommandNode("cat", nil))
	write := p.AddElem(node.NewWriteNode())
	writeOutput(p.Node(write).(*node.WriteNode), filepath.Join(dir, "out.txt"))

	require.NoError(t, p.AddUniqueEdge(read, cat, stream.IOStdout))
	require.NoError(t, p.AddUniqueEdge(cat, write, stream.IOStdout))

	r := newRunner(t)
	_, err := r.Execute(p)
	require.Error(t, err)
	var ioErr *IoError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, IoFileOpen, ioErr.Operation)
}
