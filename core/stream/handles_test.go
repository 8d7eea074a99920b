package stream

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSharedPipeMapInsertRemove(t *testing.T) {
	m := NewSharedPipeMap()
	id := NewHandleIdentifier(1, 2, IOStdout)
	pr, pw, err := os.Pipe()
	require.NoError(t, err)
	defer pw.Close()

	m.Insert(id, pr)
	got, err := m.Remove(id)
	require.NoError(t, err)
	assert.Same(t, pr, got)
}

func TestSharedPipeMapRemoveTwiceFails(t *testing.T) {
	m := NewSharedPipeMap()
	id := NewHandleIdentifier(1, 2, IOStdout)
	pr, pw, err := os.Pipe()
	require.NoError(t, err)
	defer pr.Close()
	defer pw.Close()

	m.Insert(id, pr)
	_, err = m.Remove(id)
	require.NoError(t, err)

	_, err = m.Remove(id)
	require.Error(t, err)
	var missing *HandleMissingError
	assert.ErrorAs(t, err, &missing)
}

func TestSharedPipeMapMissing(t *testing.T) {
	m := NewSharedPipeMap()
	_, err := m.Remove(NewHandleIdentifier(9, 9, IOStderr))
	require.Error(t, err)
}

func TestLocationEquality(t *testing.T) {
	assert.Equal(t, Client(), Client())
	assert.Equal(t, Server("10.0.0.1"), Server("10.0.0.1"))
	assert.NotEqual(t, Server("10.0.0.1"), Server("10.0.0.2"))
	assert.NotEqual(t, Client(), Server("10.0.0.1"))
}

func TestNetStreamAsMapKey(t *testing.T) {
	m := NewSharedStreamMap()
	ns := NetStream{Left: 1, Right: 2, IO: IOStdout, Sending: Client(), Receiving: Server("10.0.0.5")}
	m.Insert(ns, nil)
	assert.Equal(t, 1, m.Len())
	_, err := m.Remove(ns)
	require.NoError(t, err)
	assert.Equal(t, 0, m.Len())
}
