package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withTestGlobals(t *testing.T) {
	t.Helper()
	oldMount, oldTmp := mountTablePath, tmpDir
	mountTablePath = ""
	tmpDir = t.TempDir()
	t.Cleanup(func() {
		mountTablePath = oldMount
		tmpDir = oldTmp
	})
}

func TestRunRunAppliesExportDirective(t *testing.T) {
	withTestGlobals(t)

	require.NoError(t, os.Unsetenv("DASHCTL_TEST_VAR"))
	t.Cleanup(func() { os.Unsetenv("DASHCTL_TEST_VAR") })

	require.NoError(t, runRun("export DASHCTL_TEST_VAR=hello"))
	assert.Equal(t, "hello", os.Getenv("DASHCTL_TEST_VAR"))
}

func TestRunRunExecutesLocalCommand(t *testing.T) {
	withTestGlobals(t)

	dir := t.TempDir()
	inPath := filepath.Join(dir, "in.txt")
	outPath := filepath.Join(dir, "out.txt")
	require.NoError(t, os.WriteFile(inPath, []byte("hello from run\n"), 0o644))

	require.NoError(t, runRun("cat < "+inPath+" > "+outPath))

	got, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, "hello from run\n", string(got))
}

func TestRunRunSurfacesParseErrors(t *testing.T) {
	withTestGlobals(t)

	err := runRun("cat <( echo unterminated")
	require.Error(t, err)
	var cliErr *CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, "parse", cliErr.Type)
}
