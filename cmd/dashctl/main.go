// Command dashctl parses, plans, executes, and serves distributed shell
// pipelines. `plan` renders a parsed command's shell and dataflow graphs
// to .dot (and, if a local `dot` binary is found, a rendered image);
// `run` plans and executes a command across the configured mount
// table's machines; `serve` runs the long-lived listener a `run`
// invocation's remote partitions dispatch to.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/dashmesh/dashctl/core/stream"
	"github.com/dashmesh/dashctl/frontend"
	"github.com/dashmesh/dashctl/mount"
)

var (
	mountTablePath string
	tmpDir         string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		FormatError(os.Stderr, err, shouldUseColor())
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "dashctl",
		Short:         "Plan and run distributed shell pipelines",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVar(&mountTablePath, "mount-table", "",
		"path to the mount-table JSON config (default: every path resolves to the client)")
	root.PersistentFlags().StringVar(&tmpDir, "tmp-dir", os.TempDir(),
		"directory relative paths and this process's temp files are resolved under")

	root.AddCommand(newPlanCmd())
	root.AddCommand(newRunCmd())
	root.AddCommand(newServeCmd())
	return root
}

// loadResolver builds the frontend.LocationResolver plan/run lower file
// paths against: the configured mount table, or a resolver that treats
// every path as client-local when none is configured.
func loadResolver() (frontend.LocationResolver, error) {
	if mountTablePath == "" {
		return localResolver{}, nil
	}
	return mount.NewTable(mountTablePath)
}

// localResolver is the zero-configuration default: every path lives on
// the client, matching spec's "Default implementation: client-local."
type localResolver struct{}

func (localResolver) LocationOf(path string) (stream.Location, error) { return stream.Client(), nil }
func (localResolver) Prefixes() []string                              { return nil }
