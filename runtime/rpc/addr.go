package rpc

import (
	"net"
	"strings"

	"github.com/dashmesh/dashctl/core/stream"
)

// DefaultPort is the TCP port a Server listens on when the mount
// table's server entries name a bare IP with no port of their own.
const DefaultPort = "7676"

// dialAddr turns a server Location into a host:port string suitable for
// net.Dial. A Location.IP that already carries a port (contains ":")
// is used verbatim, so a mount table can override the default per
// server without any extra configuration surface.
func dialAddr(loc stream.Location) (string, error) {
	if !loc.IsServer() {
		return "", &TransportError{Kind: Protocol, Detail: "client location has no dialable address"}
	}
	if strings.Contains(loc.IP, ":") {
		return loc.IP, nil
	}
	return net.JoinHostPort(loc.IP, DefaultPort), nil
}
