package connection

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"strings"
	"time"
)

// TransportConfig configures the transport built by NewTransport.
type TransportConfig struct {
	// Server is the configured server address. unix:///path/to.sock dials
	// the socket instead of TCP.
	Server string
	// TLS is used for https servers. Nil means system defaults.
	TLS *tls.Config
	// Timeout is the whole-request timeout of the returned client.
	Timeout time.Duration
}

// NewTransport builds the *http.Client for server. Dashboards reachable only
// on a local socket are served through a unix transport.
func NewTransport(cfg TransportConfig) *http.Client {
	dialer := &net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         dialer.DialContext,
		TLSClientConfig:     cfg.TLS,
		MaxIdleConnsPerHost: 8,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	if path, ok := SocketPath(cfg.Server); ok {
		transport.Proxy = nil
		transport.DialContext = func(ctx context.Context, _, _ string) (net.Conn, error) {
			return dialer.DialContext(ctx, "unix", path)
		}
	}

	return &http.Client{Transport: transport, Timeout: cfg.Timeout}
}

// SocketPath returns the socket path of a unix:// server address, with any
// path prefix after the ".sock" component removed.
func SocketPath(server string) (string, bool) {
	rest, ok := strings.CutPrefix(server, "unix://")
	if !ok {
		return "", false
	}
	if i := strings.Index(rest, ".sock"); i >= 0 {
		return rest[:i+len(".sock")], true
	}
	return rest, true
}
