package node

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dashmesh/dashctl/core/stream"
)

func TestImplementsNode(t *testing.T) {
	var _ Node = NewCommandNode("cat", nil)
	var _ Node = NewReadNode(stream.NewFileStream("a.txt", stream.FileRead, stream.Client()))
	var _ Node = NewWriteNode()
}

func TestCommandNodeFanOut(t *testing.T) {
	c := NewCommandNode("tee", nil)
	p1 := stream.NewPipeStream(1, 2, stream.IOStdout)
	p2 := stream.NewPipeStream(1, 3, stream.IOStdout)
	require.NoError(t, c.AddStdout(p1))
	require.NoError(t, c.AddStdout(p2))
	assert.Len(t, c.Stdout(), 2)
}

func TestReadNodeSingleOutput(t *testing.T) {
	r := NewReadNode(stream.NewFileStream("in.txt", stream.FileRead, stream.Client()))
	assert.Empty(t, r.Stdout())
	require.NoError(t, r.AddStdout(stream.NewPipeStream(1, 2, stream.IOStdout)))
	assert.Len(t, r.Stdout(), 1)

	err := r.AddStderr(stream.StdoutStream())
	require.Error(t, err)
}

func TestWriteNodeRejectsNonFileOutput(t *testing.T) {
	w := NewWriteNode()
	err := w.AddStdout(stream.NewPipeStream(1, 2, stream.IOStdout))
	require.Error(t, err)
	var unsupported *ErrUnsupportedStream
	require.ErrorAs(t, err, &unsupported)

	require.NoError(t, w.AddStdout(stream.StdoutStream()))
	assert.Len(t, w.Outputs(), 1)
}

func TestReplaceStreamRewritesPipeToNet(t *testing.T) {
	c := NewCommandNode("wc", nil)
	pipe := stream.NewPipeStream(1, 2, stream.IOStdout)
	require.NoError(t, c.AddStdout(pipe))

	net := pipe.AsNetStream(stream.Client(), stream.Server("10.0.0.1"))
	c.ReplaceStream(pipe, net)

	require.Len(t, c.Stdout(), 1)
	assert.True(t, c.Stdout()[0].IsNet())
}
