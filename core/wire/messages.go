package wire

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/dashmesh/dashctl/core/graph"
	"github.com/dashmesh/dashctl/core/stream"
)

// SetupStreamsMessage announces the NetStream edges a sub-Program
// needs connected before dispatch begins.
type SetupStreamsMessage struct {
	Streams []stream.NetStream `cbor:"streams"`
}

// SizeRequestMessage asks the remote side to stat a batch of paths,
// supporting the `stat_files` client helper.
type SizeRequestMessage struct {
	Paths []string `cbor:"paths"`
}

// SizeReportMessage answers a SizeRequestMessage: a byte size per path
// that stat succeeded on, and an error string per path that failed.
type SizeReportMessage struct {
	Sizes  map[string]int64  `cbor:"sizes"`
	Errors map[string]string `cbor:"errors,omitempty"`
}

// ClientReturnCodeMessage carries a subprogram's final exit status back
// to the client that dispatched it.
type ClientReturnCodeMessage struct {
	Code int32 `cbor:"code"`
}

var canonicalEncMode = func() cbor.EncMode {
	mode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("wire: invalid canonical cbor options: %v", err))
	}
	return mode
}()

// EncodeProgram returns the canonical CBOR encoding of p, the payload
// carried by a MsgProgramExecution frame.
func EncodeProgram(p *graph.Program) ([]byte, error) {
	return p.MarshalCBOR()
}

// DecodeProgram decodes a MsgProgramExecution payload back into a Program.
func DecodeProgram(data []byte) (*graph.Program, error) {
	p, err := graph.UnmarshalProgramCBOR(data)
	if err != nil {
		return nil, newRPCError(Deserialize, err)
	}
	return p, nil
}

func encode(v interface{}) ([]byte, error) {
	data, err := canonicalEncMode.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("wire: encode %T: %w", v, err)
	}
	return data, nil
}

func decode(data []byte, v interface{}) error {
	if err := cbor.Unmarshal(data, v); err != nil {
		return newRPCError(Deserialize, err)
	}
	return nil
}

func EncodeSetupStreams(m SetupStreamsMessage) ([]byte, error) { return encode(m) }
func DecodeSetupStreams(data []byte) (SetupStreamsMessage, error) {
	var m SetupStreamsMessage
	err := decode(data, &m)
	return m, err
}

func EncodeSizeRequest(m SizeRequestMessage) ([]byte, error) { return encode(m) }
func DecodeSizeRequest(data []byte) (SizeRequestMessage, error) {
	var m SizeRequestMessage
	err := decode(data, &m)
	return m, err
}

func EncodeSizeReport(m SizeReportMessage) ([]byte, error) { return encode(m) }
func DecodeSizeReport(data []byte) (SizeReportMessage, error) {
	var m SizeReportMessage
	err := decode(data, &m)
	return m, err
}

func EncodeClientReturnCode(m ClientReturnCodeMessage) ([]byte, error) { return encode(m) }
func DecodeClientReturnCode(data []byte) (ClientReturnCodeMessage, error) {
	var m ClientReturnCodeMessage
	err := decode(data, &m)
	return m, err
}
