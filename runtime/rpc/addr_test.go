package rpc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dashmesh/dashctl/core/stream"
)

func TestDialAddrAppendsDefaultPortToBareIP(t *testing.T) {
	addr, err := dialAddr(stream.Server("10.0.0.5"))
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.5:"+DefaultPort, addr)
}

func TestDialAddrKeepsExplicitPort(t *testing.T) {
	addr, err := dialAddr(stream.Server("10.0.0.5:9999"))
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.5:9999", addr)
}

func TestDialAddrRejectsClientLocation(t *testing.T) {
	_, err := dialAddr(stream.Client())
	require.Error(t, err)
	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, Protocol, transportErr.Kind)
}
