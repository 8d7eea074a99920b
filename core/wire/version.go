package wire

import (
	"fmt"
	"io"

	"golang.org/x/mod/semver"
)

// ProtocolVersion is this build's wire protocol version. Bump the minor
// version for backward-compatible additions (a new optional message
// field); bump the major version for anything that changes frame or
// message shape.
const ProtocolVersion = "v1.0.0"

// Handshake exchanges a MsgVersion frame in both directions over conn
// and rejects a peer whose major version differs from ours. Minor/patch
// skew is tolerated, matching the usual semver compatibility contract.
func Handshake(rw io.ReadWriter) error {
	if err := WriteFrame(rw, MsgVersion, []byte(ProtocolVersion)); err != nil {
		return err
	}
	msgType, payload, err := ReadFrame(rw)
	if err != nil {
		return err
	}
	if msgType != MsgVersion {
		return newRPCError(UnknownTag, fmt.Errorf("expected version frame, got %s", msgType))
	}
	peerVersion := string(payload)
	if !semver.IsValid(peerVersion) {
		return newRPCError(Deserialize, fmt.Errorf("peer sent invalid version %q", peerVersion))
	}
	if semver.Major(peerVersion) != semver.Major(ProtocolVersion) {
		return newRPCError(RemoteFailure, fmt.Errorf("protocol version skew: local %s, peer %s", ProtocolVersion, peerVersion))
	}
	return nil
}
