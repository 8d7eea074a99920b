package main

import (
	"net"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunServeRejectsUnbindableAddress(t *testing.T) {
	withTestGlobals(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	err = runServe(ln.Addr().String())
	require.Error(t, err)
	var cliErr *CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, "serve", cliErr.Type)
}

// TestRunServeStopsOnSIGTERM checks that runServe's cancellable context
// unblocks Serve's Accept loop on a termination signal rather than
// hanging forever.
func TestRunServeStopsOnSIGTERM(t *testing.T) {
	withTestGlobals(t)

	errCh := make(chan error, 1)
	go func() { errCh <- runServe("127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGTERM))

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("runServe did not stop after SIGTERM")
	}
}
