package dot

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dashmesh/dashctl/core/graph"
	"github.com/dashmesh/dashctl/core/node"
	"github.com/dashmesh/dashctl/core/stream"
)

func samplePipeline(t *testing.T) *graph.Program {
	t.Helper()
	p := graph.NewProgram(1)
	read := p.AddElem(node.NewReadNode(stream.NewFileStream("/tmp/in.txt", stream.FileRead, stream.Client())))
	cat := p.AddElem(node.NewCommandNode("cat", nil))
	write := p.AddElem(node.NewWriteNode())
	require.NoError(t, p.Node(write).(*node.WriteNode).AddStdout(stream.NewFileStream("/tmp/out.txt", stream.FileWrite, stream.Client())))
	require.NoError(t, p.AddUniqueEdge(read, cat, stream.IOStdout))
	require.NoError(t, p.AddUniqueEdge(cat, write, stream.IOStdout))
	return p
}

func TestWriteFileRendersDotSource(t *testing.T) {
	dir := t.TempDir()
	dotPath := filepath.Join(dir, "sample.dot")

	require.NoError(t, WriteFile(samplePipeline(t), dotPath))

	got, err := os.ReadFile(dotPath)
	require.NoError(t, err)
	assert.Contains(t, string(got), "digraph program {")
	assert.Contains(t, string(got), `label="cat"`)
}

func TestOutputFormatInfersExtension(t *testing.T) {
	assert.Equal(t, "pdf", outputFormat("/tmp/out.pdf"))
	assert.Equal(t, "svg", outputFormat("/tmp/out.svg"))
	assert.Equal(t, "pdf", outputFormat("/tmp/noext"))
}

// TestRenderInvokesDotBinary skips unless a real `dot` binary is on
// PATH — the plumbing that matters (writing the .dot file, building the
// right argv) is exercised regardless via TestWriteFileRendersDotSource
// and TestOutputFormatInfersExtension.
func TestRenderInvokesDotBinary(t *testing.T) {
	dotBinary, err := exec.LookPath("dot")
	if err != nil {
		t.Skip("no dot binary on PATH")
	}

	dir := t.TempDir()
	dotPath := filepath.Join(dir, "sample.dot")
	outPath := filepath.Join(dir, "sample.pdf")

	require.NoError(t, Render(samplePipeline(t), dotBinary, dotPath, outPath))

	info, err := os.Stat(outPath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}
