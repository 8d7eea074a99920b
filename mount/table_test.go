package mount

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dashmesh/dashctl/core/stream"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "mounts.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const validConfig = `{
  "mounts": [
    {"prefix": "/srv/data", "location": {"kind": "server", "ip": "10.0.0.5"}},
    {"prefix": "/", "location": {"kind": "client"}}
  ]
}`

func TestTableLocationOfLongestPrefixWins(t *testing.T) {
	path := writeConfig(t, t.TempDir(), validConfig)
	table, err := NewTable(path)
	require.NoError(t, err)

	loc, err := table.LocationOf("/srv/data/input.csv")
	require.NoError(t, err)
	assert.Equal(t, stream.Server("10.0.0.5"), loc)

	loc, err = table.LocationOf("/home/user/a.txt")
	require.NoError(t, err)
	assert.Equal(t, stream.Client(), loc)
}

func TestTableRejectsSchemaViolation(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `{"mounts": [{"prefix": "/x"}]}`)
	_, err := NewTable(path)
	require.Error(t, err)
}

func TestTableReloadSwapsAtomically(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, validConfig)
	table, err := NewTable(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`{
  "mounts": [{"prefix": "/", "location": {"kind": "server", "ip": "10.0.0.9"}}]
}`), 0o644))
	require.NoError(t, table.Reload(path))

	loc, err := table.LocationOf("/anything")
	require.NoError(t, err)
	assert.Equal(t, stream.Server("10.0.0.9"), loc)
}

func TestTableLocationOfUnknownPath(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `{"mounts": [{"prefix": "/srv", "location": {"kind": "client"}}]}`)
	table, err := NewTable(path)
	require.NoError(t, err)

	_, err = table.LocationOf("/other/path")
	require.Error(t, err)
}
