package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dashmesh/dashctl/core/stream"
	"github.com/dashmesh/dashctl/frontend"
	"github.com/dashmesh/dashctl/runtime/rpc"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <command>",
		Short: "Plan and execute a shell command across the configured cluster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(args[0])
		},
	}
	return cmd
}

// runRun parses line and either applies its ExportDirective to this
// process's own environment (the `export VAR=value` form never reaches
// the network) or plans and dispatches its Program via rpc.Client.
func runRun(line string) error {
	resolver, err := loadResolver()
	if err != nil {
		return &CLIError{Type: "run", Message: "failed to load mount table", Details: err.Error()}
	}

	result, err := frontend.ParseCommand(line, stream.ProgId(0), resolver)
	if err != nil {
		return &CLIError{Type: "parse", Message: "failed to parse command", Details: err.Error()}
	}

	if result.Export != nil {
		if err := os.Setenv(result.Export.Var, result.Export.Value); err != nil {
			return &CLIError{Type: "run", Message: "failed to set environment variable", Details: err.Error()}
		}
		return nil
	}

	pwd, err := os.Getwd()
	if err != nil {
		return &CLIError{Type: "run", Message: "failed to resolve working directory", Details: err.Error()}
	}
	if err := result.Program.ResolveArgs(pwd); err != nil {
		return &CLIError{Type: "run", Message: "failed to resolve relative paths", Details: err.Error()}
	}

	client := rpc.NewClient(tmpDir)
	codes, err := client.RunCommand(result.Program)
	if err != nil {
		return &CLIError{Type: "execution", Message: "command execution failed", Details: err.Error()}
	}

	exitCode := 0
	for _, code := range codes {
		if code != 0 {
			exitCode = code
		}
	}
	if exitCode != 0 {
		return fmt.Errorf("command failed with exit code %d", exitCode)
	}
	return nil
}
