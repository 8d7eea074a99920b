package stream

import (
	"fmt"
	"net"
	"os"
	"sync"
)

// HandleIdentifier keys an OS pipe end within a SharedPipeMap. It is
// always looked up with the retrieving (consuming) node's own id, which
// is what makes the map race-free: the producer inserts under the
// consumer's identity and never touches the entry again.
type HandleIdentifier struct {
	ProgId ProgId
	NodeId NodeId
	IO     IOType
}

func NewHandleIdentifier(prog ProgId, node NodeId, io IOType) HandleIdentifier {
	return HandleIdentifier{ProgId: prog, NodeId: node, IO: io}
}

// HandleMissingError is returned when a consumer looks up a handle that
// was never inserted, or was already consumed.
type HandleMissingError struct {
	Identifier HandleIdentifier
}

func (e *HandleMissingError) Error() string {
	return fmt.Sprintf("handle missing for prog=%d node=%d io=%s", e.Identifier.ProgId, e.Identifier.NodeId, e.Identifier.IO)
}

// SharedPipeMap holds one *os.File end per HandleIdentifier. Only a
// CommandNode ever creates the underlying os.Pipe (Read/Write nodes
// have no process to fork one around), and whichever CommandNode
// creates it keeps the end wired to its own process, inserting the far
// end under the *other* edge endpoint's own node id. That other node —
// a ReadNode, a WriteNode, or the opposite CommandNode — removes it
// exactly once, by its own id, during Redirect.
type SharedPipeMap struct {
	mu      sync.Mutex
	handles map[HandleIdentifier]*os.File
}

func NewSharedPipeMap() *SharedPipeMap {
	return &SharedPipeMap{handles: make(map[HandleIdentifier]*os.File)}
}

// Insert registers f under id. Called by the stream's producer during
// Spawn, once per edge.
func (m *SharedPipeMap) Insert(id HandleIdentifier, f *os.File) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handles[id] = f
}

// Remove takes ownership of the handle registered under id, deleting it
// from the map. Called by the stream's single consumer during Redirect.
func (m *SharedPipeMap) Remove(id HandleIdentifier) (*os.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.handles[id]
	if !ok {
		return nil, &HandleMissingError{Identifier: id}
	}
	delete(m.handles, id)
	return f, nil
}

// SharedStreamMap holds one net.Conn per NetStream edge, inserted during
// the client/server setup phase and removed exactly once by the edge's
// consuming node during Redirect.
type SharedStreamMap struct {
	mu    sync.Mutex
	conns map[NetStream]net.Conn
}

func NewSharedStreamMap() *SharedStreamMap {
	return &SharedStreamMap{conns: make(map[NetStream]net.Conn)}
}

func (m *SharedStreamMap) Insert(ns NetStream, conn net.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conns[ns] = conn
}

func (m *SharedStreamMap) Remove(ns NetStream) (net.Conn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	conn, ok := m.conns[ns]
	if !ok {
		return nil, fmt.Errorf("net stream missing: %+v", ns)
	}
	delete(m.conns, ns)
	return conn, nil
}

// Len reports the number of live (unconsumed) entries. Used by tests
// to confirm a stream was registered or consumed.
func (m *SharedStreamMap) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.conns)
}
