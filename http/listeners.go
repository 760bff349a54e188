package http

import (
	"net"

	"github.com/kavu/go_reuseport"
)

// CreateListener optionally enables SO_REUSEPORT so several instances
// can share the metrics port on the same machine.
func CreateListener(proto string, laddr string, reusePort bool) (net.Listener, error) {
	if reusePort {
		return reuseport.Listen(proto, laddr)
	}
	return net.Listen(proto, laddr)
}
