package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunPlanWritesBothGraphFiles(t *testing.T) {
	outDir := t.TempDir()

	require.NoError(t, runPlan("cat a.txt | grep foo", outDir, "dashctl-test-no-such-dot-binary"))

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}

	var sawShell, sawDash bool
	for _, name := range names {
		if filepath.Ext(name) != ".dot" {
			continue
		}
		switch {
		case len(name) > len("_shell_viz.dot") && name[len(name)-len("_shell_viz.dot"):] == "_shell_viz.dot":
			sawShell = true
		case len(name) > len("_dash_viz.dot") && name[len(name)-len("_dash_viz.dot"):] == "_dash_viz.dot":
			sawDash = true
		}
	}
	assert.True(t, sawShell, "expected a *_shell_viz.dot file, got %v", names)
	assert.True(t, sawDash, "expected a *_dash_viz.dot file, got %v", names)
}

func TestRunPlanRejectsUnparseableCommand(t *testing.T) {
	err := runPlan("cat <( echo unterminated", t.TempDir(), "dashctl-test-no-such-dot-binary")
	require.Error(t, err)
	var cliErr *CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, "parse", cliErr.Type)
}
