// Package rpc drives a parsed, planned Program across the network: the
// Client dials every server a split touches, wires up the cross-machine
// NetStreams the setup phase needs before any byte moves, then
// dispatches each machine partition (locally via runtime/executor, or
// remotely via a length-prefixed core/wire frame) and collects the
// coarse success/failure verdict spec'd for ClientReturnCodeMessage.
package rpc

import (
	"io"
	"net"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/dashmesh/dashctl/core/graph"
	"github.com/dashmesh/dashctl/core/invariant"
	"github.com/dashmesh/dashctl/core/stream"
	"github.com/dashmesh/dashctl/core/wire"
	"github.com/dashmesh/dashctl/internal/dashlog"
	"github.com/dashmesh/dashctl/planner"
	"github.com/dashmesh/dashctl/runtime/executor"
)

// Client orchestrates one dashctl invocation end to end: split, setup,
// dispatch. It never listens — every connection in this package is
// outbound from the client's process, including the pair of
// connections a server-to-server NetStream needs, which the client
// dials itself and relays between for the connection's lifetime. This
// keeps every Server a pure listener and means only the client ever
// needs outbound reachability to the rest of the fleet.
type Client struct {
	Nets   *stream.SharedStreamMap
	TmpDir string
	Dial   func(network, address string) (net.Conn, error)

	log *dashlog.Logger

	relayWG   sync.WaitGroup
	relayMu   sync.Mutex
	relayErrs []error
}

// NewClient builds a Client with real net.Dial as its transport and a
// fresh, empty stream map.
func NewClient(tmpDir string) *Client {
	invariant.Precondition(tmpDir != "", "tmpDir must not be empty")
	return &Client{
		Nets:   stream.NewSharedStreamMap(),
		TmpDir: tmpDir,
		Dial:   net.Dial,
		log:    dashlog.Default("rpc.client"),
	}
}

// RunCommand splits prog by machine, performs the setup phase for every
// cross-machine stream the split introduced, dispatches every
// partition, and reports each CommandNode's exit code for the
// partition that ran locally. A remote partition's individual exit
// codes are not recoverable over the wire — ClientReturnCodeMessage is
// a coarse success/failure signal — so only the client-local partition
// contributes to the returned map, matching the wire contract.
func (c *Client) RunCommand(prog *graph.Program) (map[stream.NodeId]int, error) {
	invariant.NotNil(prog, "prog")
	parts, err := planner.Split(prog)
	if err != nil {
		return nil, err
	}

	nets := collectNetStreams(parts)
	if err := c.runSetup(nets); err != nil {
		return nil, err
	}

	codes, dispatchErr := c.dispatch(parts)

	c.relayWG.Wait()
	if dispatchErr == nil {
		dispatchErr = c.firstRelayErr()
	}
	return codes, dispatchErr
}

func collectNetStreams(parts map[stream.Location]*graph.Program) []stream.NetStream {
	seen := make(map[stream.NetStream]bool)
	var out []stream.NetStream
	for _, p := range parts {
		for _, ns := range p.NetStreams() {
			if !seen[ns] {
				seen[ns] = true
				out = append(out, ns)
			}
		}
	}
	return out
}

// runSetup opens every NetStream's physical connection(s) before any
// partition dispatches, matching spec's setup-then-dispatch barrier: a
// consumer's SharedStreamMap lookup during Redirect must never race the
// socket that satisfies it. A stream touching the client directly gets
// one connection, registered in the client's own map for its local
// partition to use. A stream between two servers gets two connections
// (one per server, each registering the same NetStream key on its own
// side) with the client relaying bytes between them for as long as
// either side keeps the connection open.
func (c *Client) runSetup(nets []stream.NetStream) error {
	g := &errgroup.Group{}
	for _, ns := range nets {
		ns := ns
		switch {
		case ns.Sending.IsClient() || ns.Receiving.IsClient():
			serverLoc := ns.Sending
			if serverLoc.IsClient() {
				serverLoc = ns.Receiving
			}
			g.Go(func() error {
				conn, err := c.registerStream(serverLoc, ns)
				if err != nil {
					return err
				}
				c.Nets.Insert(ns, conn)
				return nil
			})
		default:
			g.Go(func() error { return c.setupRelay(ns) })
		}
	}
	return g.Wait()
}

// registerStream dials loc, announces ns over a MsgSetupStreams frame,
// and awaits the receiver's ClientReturnCodeMessage. The connection is
// left open and returned: per spec's "register this socket as the
// sending end of the following NetStream," the handshake connection IS
// the data connection going forward.
func (c *Client) registerStream(loc stream.Location, ns stream.NetStream) (net.Conn, error) {
	addr, err := dialAddr(loc)
	if err != nil {
		return nil, err
	}
	conn, err := c.Dial("tcp", addr)
	if err != nil {
		return nil, &TransportError{Kind: DialFailed, Detail: addr, Cause: err}
	}
	if err := wire.Handshake(conn); err != nil {
		conn.Close()
		return nil, &TransportError{Kind: Handshake, Detail: addr, Cause: err}
	}
	payload, err := wire.EncodeSetupStreams(wire.SetupStreamsMessage{Streams: []stream.NetStream{ns}})
	if err != nil {
		conn.Close()
		return nil, &TransportError{Kind: Protocol, Detail: "encode setup_streams", Cause: err}
	}
	if err := wire.WriteFrame(conn, wire.MsgSetupStreams, payload); err != nil {
		conn.Close()
		return nil, &TransportError{Kind: Protocol, Detail: "write setup_streams", Cause: err}
	}
	if err := awaitSuccess(conn); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// setupRelay dials both ends of a server-to-server NetStream and pumps
// bytes between them in both directions for the connections' lifetime,
// tracked on the Client's relayWG so RunCommand waits for the last byte
// to drain before reporting a result.
func (c *Client) setupRelay(ns stream.NetStream) error {
	connA, err := c.registerStream(ns.Sending, ns)
	if err != nil {
		return err
	}
	connB, err := c.registerStream(ns.Receiving, ns)
	if err != nil {
		connA.Close()
		return err
	}

	c.relayWG.Add(2)
	go c.pump(connA, connB)
	go c.pump(connB, connA)
	return nil
}

func (c *Client) pump(dst io.WriteCloser, src io.ReadCloser) {
	defer c.relayWG.Done()
	_, err := io.Copy(dst, src)
	src.Close()
	dst.Close()
	if err != nil {
		c.relayMu.Lock()
		c.relayErrs = append(c.relayErrs, err)
		c.relayMu.Unlock()
	}
}

func (c *Client) firstRelayErr() error {
	c.relayMu.Lock()
	defer c.relayMu.Unlock()
	if len(c.relayErrs) == 0 {
		return nil
	}
	return &TransportError{Kind: Protocol, Detail: "server-to-server relay", Cause: c.relayErrs[0]}
}

func awaitSuccess(conn net.Conn) error {
	msgType, payload, err := wire.ReadFrame(conn)
	if err != nil {
		return &TransportError{Kind: Protocol, Detail: "read reply", Cause: err}
	}
	if msgType != wire.MsgClientReturnCode {
		return &TransportError{Kind: Protocol, Detail: "unexpected reply message type"}
	}
	msg, err := wire.DecodeClientReturnCode(payload)
	if err != nil {
		return &TransportError{Kind: Protocol, Detail: "decode reply", Cause: err}
	}
	if msg.Code != 0 {
		return &TransportError{Kind: RemoteFailure, Detail: "peer reported failure"}
	}
	return nil
}

// dispatch runs every partition: the client-local one directly through
// runtime/executor, every server one by shipping it over the wire.
func (c *Client) dispatch(parts map[stream.Location]*graph.Program) (map[stream.NodeId]int, error) {
	var mu sync.Mutex
	exitCodes := make(map[stream.NodeId]int)

	g := &errgroup.Group{}
	for loc, part := range parts {
		loc, part := loc, part
		g.Go(func() error {
			if loc.IsClient() {
				runner := executor.NewRunner(stream.NewSharedPipeMap(), c.Nets, c.TmpDir)
				codes, err := runner.Execute(part)
				mu.Lock()
				for id, code := range codes {
					exitCodes[id] = code
				}
				mu.Unlock()
				return err
			}
			return c.dispatchRemote(loc, part)
		})
	}
	err := g.Wait()
	return exitCodes, err
}

func (c *Client) dispatchRemote(loc stream.Location, part *graph.Program) error {
	addr, err := dialAddr(loc)
	if err != nil {
		return err
	}
	conn, err := c.Dial("tcp", addr)
	if err != nil {
		return &TransportError{Kind: DialFailed, Detail: addr, Cause: err}
	}
	defer conn.Close()

	if err := wire.Handshake(conn); err != nil {
		return &TransportError{Kind: Handshake, Detail: addr, Cause: err}
	}
	payload, err := wire.EncodeProgram(part)
	if err != nil {
		return &TransportError{Kind: Protocol, Detail: "encode program", Cause: err}
	}
	if err := wire.WriteFrame(conn, wire.MsgProgramExecution, payload); err != nil {
		return &TransportError{Kind: Protocol, Detail: "write program_execution", Cause: err}
	}
	c.log.Debug("dispatched subprogram", "location", loc.String())
	return awaitSuccess(conn)
}

// StatFiles asks each server Location to stat its batch of paths,
// supporting a frontend that needs remote file sizes (e.g. `wc -c` on a
// server-resident path) before a Program can even be planned.
func (c *Client) StatFiles(requests map[stream.Location][]string) (map[stream.Location]wire.SizeReportMessage, error) {
	var mu sync.Mutex
	results := make(map[stream.Location]wire.SizeReportMessage)

	g := &errgroup.Group{}
	for loc, paths := range requests {
		loc, paths := loc, paths
		g.Go(func() error {
			report, err := c.statOne(loc, paths)
			if err != nil {
				return err
			}
			mu.Lock()
			results[loc] = report
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (c *Client) statOne(loc stream.Location, paths []string) (wire.SizeReportMessage, error) {
	addr, err := dialAddr(loc)
	if err != nil {
		return wire.SizeReportMessage{}, err
	}
	conn, err := c.Dial("tcp", addr)
	if err != nil {
		return wire.SizeReportMessage{}, &TransportError{Kind: DialFailed, Detail: addr, Cause: err}
	}
	defer conn.Close()

	if err := wire.Handshake(conn); err != nil {
		return wire.SizeReportMessage{}, &TransportError{Kind: Handshake, Detail: addr, Cause: err}
	}
	payload, err := wire.EncodeSizeRequest(wire.SizeRequestMessage{Paths: paths})
	if err != nil {
		return wire.SizeReportMessage{}, &TransportError{Kind: Protocol, Detail: "encode size_request", Cause: err}
	}
	if err := wire.WriteFrame(conn, wire.MsgSizeRequest, payload); err != nil {
		return wire.SizeReportMessage{}, &TransportError{Kind: Protocol, Detail: "write size_request", Cause: err}
	}
	msgType, respPayload, err := wire.ReadFrame(conn)
	if err != nil {
		return wire.SizeReportMessage{}, &TransportError{Kind: Protocol, Detail: "read size_report", Cause: err}
	}
	if msgType != wire.MsgSizeReport {
		return wire.SizeReportMessage{}, &TransportError{Kind: Protocol, Detail: "unexpected reply message type"}
	}
	return wire.DecodeSizeReport(respPayload)
}
