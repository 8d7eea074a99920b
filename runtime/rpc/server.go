package rpc

import (
	"errors"
	"net"
	"os"

	"github.com/dashmesh/dashctl/core/invariant"
	"github.com/dashmesh/dashctl/core/stream"
	"github.com/dashmesh/dashctl/core/wire"
	"github.com/dashmesh/dashctl/internal/dashlog"
	"github.com/dashmesh/dashctl/runtime/executor"
)

// Server is the long-lived listener spec's "Server orchestration"
// describes: it never dials out, it only accepts. A MsgSetupStreams
// connection is registered into the server's own SharedStreamMap and
// kept open — it becomes the data connection a later ProgramExecution
// will read from or write to. A MsgProgramExecution connection is
// request/response: decode, execute, reply, close. MsgSizeRequest is
// handled synchronously on the same connection.
type Server struct {
	Listener net.Listener
	Nets     *stream.SharedStreamMap
	TmpDir   string

	log *dashlog.Logger
}

// NewServer wraps an already-bound listener. Binding is left to the
// caller (cmd/dashctl's `serve` subcommand) so tests can pass a
// loopback listener on an ephemeral port.
func NewServer(listener net.Listener, tmpDir string) *Server {
	invariant.NotNil(listener, "listener")
	invariant.Precondition(tmpDir != "", "tmpDir must not be empty")
	return &Server{
		Listener: listener,
		Nets:     stream.NewSharedStreamMap(),
		TmpDir:   tmpDir,
		log:      dashlog.Default("rpc.server"),
	}
}

// Serve accepts connections until the listener is closed, handling each
// on its own goroutine. It returns the listener's terminal error (nil
// on a deliberate Close).
func (s *Server) Serve() error {
	for {
		conn, err := s.Listener.Accept()
		if err != nil {
			if isClosedErr(err) {
				return nil
			}
			return &TransportError{Kind: Protocol, Detail: "accept", Cause: err}
		}
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	if err := wire.Handshake(conn); err != nil {
		s.log.Warn("handshake failed", "remote", conn.RemoteAddr().String(), "err", err)
		conn.Close()
		return
	}

	msgType, payload, err := wire.ReadFrame(conn)
	if err != nil {
		s.log.Warn("read frame failed", "err", err)
		conn.Close()
		return
	}

	switch msgType {
	case wire.MsgSetupStreams:
		s.handleSetupStreams(conn, payload)
	case wire.MsgProgramExecution:
		s.handleProgramExecution(conn, payload)
	case wire.MsgSizeRequest:
		s.handleSizeRequest(conn, payload)
	default:
		s.log.Error("unexpected message type", "type", msgType.String())
		conn.Close()
	}
}

// handleSetupStreams registers conn under the single NetStream it
// announces and replies Success, leaving the connection open for later
// use. It never closes conn on the success path — ownership passes to
// whichever Runner later removes it from s.Nets during Redirect.
func (s *Server) handleSetupStreams(conn net.Conn, payload []byte) {
	msg, err := wire.DecodeSetupStreams(payload)
	if err != nil || len(msg.Streams) != 1 {
		s.log.Error("malformed setup_streams", "err", err)
		replyCode(conn, 1)
		conn.Close()
		return
	}
	s.Nets.Insert(msg.Streams[0], conn)
	if err := replyCode(conn, 0); err != nil {
		s.log.Warn("failed to ack setup_streams", "err", err)
	}
}

func (s *Server) handleProgramExecution(conn net.Conn, payload []byte) {
	defer conn.Close()

	prog, err := wire.DecodeProgram(payload)
	if err != nil {
		s.log.Error("malformed program", "err", err)
		replyCode(conn, 1)
		return
	}
	if err := prog.ResolveArgs(s.TmpDir); err != nil {
		s.log.Error("resolve args failed", "err", err)
		replyCode(conn, 1)
		return
	}

	runner := executor.NewRunner(stream.NewSharedPipeMap(), s.Nets, s.TmpDir)
	_, err = runner.Execute(prog)
	if err != nil {
		s.log.Error("subprogram execution failed", "err", err)
		replyCode(conn, 1)
		return
	}
	replyCode(conn, 0)
}

func (s *Server) handleSizeRequest(conn net.Conn, payload []byte) {
	defer conn.Close()

	req, err := wire.DecodeSizeRequest(payload)
	if err != nil {
		s.log.Error("malformed size_request", "err", err)
		return
	}

	report := wire.SizeReportMessage{
		Sizes:  make(map[string]int64),
		Errors: make(map[string]string),
	}
	for _, path := range req.Paths {
		info, err := os.Stat(path)
		if err != nil {
			report.Errors[path] = err.Error()
			continue
		}
		report.Sizes[path] = info.Size()
	}

	respPayload, err := wire.EncodeSizeReport(report)
	if err != nil {
		s.log.Error("encode size_report failed", "err", err)
		return
	}
	if err := wire.WriteFrame(conn, wire.MsgSizeReport, respPayload); err != nil {
		s.log.Warn("write size_report failed", "err", err)
	}
}

func replyCode(conn net.Conn, code int32) error {
	payload, err := wire.EncodeClientReturnCode(wire.ClientReturnCodeMessage{Code: code})
	if err != nil {
		return err
	}
	return wire.WriteFrame(conn, wire.MsgClientReturnCode, payload)
}

func isClosedErr(err error) bool {
	return errors.Is(err, net.ErrClosed)
}
