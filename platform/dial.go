package platform

import (
	"crypto/tls"
	"net"
)

// NewDialer returns a DialFunc that terminates TLS for port-443 addresses
// and opens a plain TCP connection otherwise. The name server defaults to
// https, and the HTTP client above this seam always writes cleartext, so
// the session wrap has to happen here.
func NewDialer() DialFunc {
	return func(network, address string) (net.Conn, error) {
		if wantsTLS(address) {
			return tls.Dial(network, address, &tls.Config{})
		}
		return net.Dial(network, address)
	}
}

func wantsTLS(address string) bool {
	_, port, err := net.SplitHostPort(address)
	return err == nil && port == "443"
}
