package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dashmesh/dashctl/internal/dashlog"
	"github.com/dashmesh/dashctl/runtime/rpc"
)

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the long-lived listener a run invocation's remote partitions dispatch to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":"+rpc.DefaultPort, "address to listen on")
	return cmd
}

// runServe binds addr and serves until SIGINT/SIGTERM, matching spec's
// "Server orchestration": a long-lived listener that only ever accepts.
func runServe(addr string) error {
	log := dashlog.Default("dashctl.serve")

	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return &CLIError{Type: "serve", Message: "failed to create tmp folder", Details: err.Error()}
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return &CLIError{Type: "serve", Message: "failed to listen", Details: err.Error()}
	}

	ctx, cancel := newCancellableContext()
	defer cancel()
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	srv := rpc.NewServer(listener, tmpDir)
	log.Info("listening", "addr", listener.Addr().String(), "tmp_dir", tmpDir)

	if err := srv.Serve(); err != nil {
		return &CLIError{Type: "serve", Message: "server stopped with an error", Details: err.Error()}
	}
	return nil
}

// newCancellableContext cancels on SIGINT/SIGTERM so a closed listener
// unblocks Serve's Accept loop instead of the process hanging on Ctrl+C.
func newCancellableContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()
	return ctx, cancel
}
