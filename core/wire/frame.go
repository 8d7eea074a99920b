// Package wire implements the length-prefixed client/server protocol:
// a one-byte message type tag, an eight-byte little-endian length, and
// that many bytes of CBOR-encoded payload. core/graph's canonical CBOR
// encoding is reused here for the ProgramExecution payload so a
// Program's wire form and its Fingerprint are computed from the exact
// same bytes.
package wire

import (
	"encoding/binary"
	"fmt"
	"io"
)

// MessageType tags the payload carried by one frame.
type MessageType uint8

const (
	MsgVersion MessageType = iota
	MsgProgramExecution
	MsgSetupStreams
	MsgSizeRequest
	MsgSizeReport
	MsgClientReturnCode
)

func (t MessageType) String() string {
	switch t {
	case MsgVersion:
		return "version"
	case MsgProgramExecution:
		return "program_execution"
	case MsgSetupStreams:
		return "setup_streams"
	case MsgSizeRequest:
		return "size_request"
	case MsgSizeReport:
		return "size_report"
	case MsgClientReturnCode:
		return "client_return_code"
	default:
		return "unknown"
	}
}

// maxFrameLength guards against a corrupt or hostile length prefix
// causing an unbounded allocation.
const maxFrameLength = 256 << 20 // 256 MiB

// RPCError reports a wire-protocol failure: a truncated frame, an
// unrecognized message tag, a payload that failed to deserialize, or a
// remote-reported failure relayed back to the caller.
type RPCError struct {
	Kind  RPCErrorKind
	Cause error
}

type RPCErrorKind uint8

const (
	ShortFrame RPCErrorKind = iota
	UnknownTag
	Deserialize
	RemoteFailure
)

func (k RPCErrorKind) String() string {
	switch k {
	case ShortFrame:
		return "short_frame"
	case UnknownTag:
		return "unknown_tag"
	case Deserialize:
		return "deserialize"
	case RemoteFailure:
		return "remote_failure"
	default:
		return "unknown"
	}
}

func (e *RPCError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("wire: %s: %v", e.Kind, e.Cause)
	}
	return fmt.Sprintf("wire: %s", e.Kind)
}

func (e *RPCError) Unwrap() error { return e.Cause }

func newRPCError(kind RPCErrorKind, cause error) *RPCError {
	return &RPCError{Kind: kind, Cause: cause}
}

// WriteFrame writes one {type, length, payload} frame to w.
func WriteFrame(w io.Writer, msgType MessageType, payload []byte) error {
	header := make([]byte, 9)
	header[0] = byte(msgType)
	binary.LittleEndian.PutUint64(header[1:], uint64(len(payload)))
	if _, err := w.Write(header); err != nil {
		return newRPCError(ShortFrame, err)
	}
	if len(payload) == 0 {
		return nil
	}
	if _, err := w.Write(payload); err != nil {
		return newRPCError(ShortFrame, err)
	}
	return nil
}

// ReadFrame reads one {type, length, payload} frame from r.
func ReadFrame(r io.Reader) (MessageType, []byte, error) {
	header := make([]byte, 9)
	if _, err := io.ReadFull(r, header); err != nil {
		return 0, nil, newRPCError(ShortFrame, err)
	}
	msgType := MessageType(header[0])
	length := binary.LittleEndian.Uint64(header[1:])
	if length > maxFrameLength {
		return 0, nil, newRPCError(ShortFrame, fmt.Errorf("frame length %d exceeds max %d", length, maxFrameLength))
	}
	if length == 0 {
		return msgType, nil, nil
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return 0, nil, newRPCError(ShortFrame, err)
	}
	return msgType, payload, nil
}
