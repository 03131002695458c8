// Package fingerprint builds HTTP transports whose TLS ClientHello mimics a
// real browser, so image fetches look like they come from the same browser
// that ran the search.
package fingerprint

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"

	utls "github.com/refraction-networking/utls"
)

// Profile names a TLS ClientHello shape.
type Profile string

const (
	ProfileChrome  Profile = "chrome"
	ProfileFirefox Profile = "firefox"
	// ProfileGo uses the standard library TLS stack unchanged.
	ProfileGo Profile = "go"
)

// Transport returns a round tripper whose TLS handshake matches the given
// profile. proxyFunc, when non-nil, is installed as the transport's Proxy.
func Transport(p Profile, proxyFunc func(*http.Request) (*url.URL, error)) (http.RoundTripper, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if proxyFunc != nil {
		transport.Proxy = proxyFunc
	}

	if p == ProfileGo || p == "" {
		return transport, nil
	}

	var hello utls.ClientHelloID
	switch p {
	case ProfileChrome:
		hello = utls.HelloChrome_Auto
	case ProfileFirefox:
		hello = utls.HelloFirefox_Auto
	default:
		return nil, fmt.Errorf("fingerprint: unknown profile %q", p)
	}

	// Replace only the TLS dial; plain-TCP dialing and connection pooling
	// stay with the cloned default transport.
	transport.DialTLSContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
		tcpConn, err := transport.DialContext(ctx, network, addr)
		if err != nil {
			return nil, err
		}

		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			host = addr
		}

		uConn := utls.UClient(tcpConn, &utls.Config{ServerName: host}, hello)
		if err := uConn.HandshakeContext(ctx); err != nil {
			_ = tcpConn.Close()
			return nil, fmt.Errorf("fingerprint: %s handshake to %s: %w", p, addr, err)
		}
		return uConn, nil
	}

	return transport, nil
}

// Parse validates a user-supplied profile name.
func Parse(s string) (Profile, error) {
	switch Profile(s) {
	case ProfileChrome, ProfileFirefox, ProfileGo:
		return Profile(s), nil
	case "":
		return ProfileChrome, nil
	}
	return "", fmt.Errorf("fingerprint: unknown profile %q (want chrome, firefox or go)", s)
}
