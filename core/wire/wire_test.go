package wire

import (
	"bytes"
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dashmesh/dashctl/core/graph"
	"github.com/dashmesh/dashctl/core/node"
	"github.com/dashmesh/dashctl/core/stream"
)

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, MsgSizeRequest, []byte("hello")))

	msgType, payload, err := ReadFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, MsgSizeRequest, msgType)
	assert.Equal(t, []byte("hello"), payload)
}

func TestReadFrameShortErrors(t *testing.T) {
	_, _, err := ReadFrame(bytes.NewReader([]byte{1, 2, 3}))
	require.Error(t, err)
	var rerr *RPCError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, ShortFrame, rerr.Kind)
}

func TestEncodeDecodeProgram(t *testing.T) {
	p := graph.NewProgram(1)
	read := p.AddElem(node.NewReadNode(stream.NewFileStream("a.txt", stream.FileRead, stream.Client())))
	cmd := p.AddElem(node.NewCommandNode("cat", nil))
	require.NoError(t, p.AddUniqueEdge(read, cmd, stream.IOStdout))

	encoded, err := EncodeProgram(p)
	require.NoError(t, err)

	decoded, err := DecodeProgram(encoded)
	require.NoError(t, err)
	assert.Equal(t, p.Canonical(), decoded.Canonical())
}

func TestSizeRequestRoundTrip(t *testing.T) {
	req := SizeRequestMessage{Paths: []string{"a.txt", "b.txt"}}
	data, err := EncodeSizeRequest(req)
	require.NoError(t, err)

	decoded, err := DecodeSizeRequest(data)
	require.NoError(t, err)
	assert.Equal(t, req, decoded)
}

func TestHandshakeCompatibleVersions(t *testing.T) {
	// Both sides write their version frame before reading the peer's, so
	// the test needs a buffered transport (TCP loopback), not net.Pipe.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	errCh := make(chan error, 1)
	go func() {
		serverConn, err := ln.Accept()
		if err != nil {
			errCh <- err
			return
		}
		defer serverConn.Close()
		errCh <- Handshake(serverConn)
	}()

	clientConn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer clientConn.Close()

	err = Handshake(clientConn)
	require.NoError(t, err)
	require.NoError(t, <-errCh)
}

func TestHandshakeRejectsUnknownTag(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, MsgSizeReport, []byte("v1.0.0")))
	rw := struct {
		io.Reader
		io.Writer
	}{Reader: &buf, Writer: io.Discard}

	err := Handshake(rw)
	require.Error(t, err)
}
