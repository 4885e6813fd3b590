package network

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
)

const (
	// DefaultPort is where the relay listens
	DefaultPort = 59001

	// AuthUser is the fixed basic-auth user name
	AuthUser = "me"

	// TorProxyPort is the SOCKS port of a local Tor daemon
	TorProxyPort = 9050
)

// DefaultTorProxy is used for .onion hosts when no proxy is configured
var DefaultTorProxy = net.JoinHostPort("127.0.0.1", strconv.Itoa(TorProxyPort))

var (
	ErrMissingHost     = errors.New("missing relay host")
	ErrMissingPassword = errors.New("missing relay password")
)

// Credentials locate and authenticate against one relay
type Credentials struct {
	Host     string
	Port     int    // DefaultPort when zero
	Proxy    string // SOCKS5 host:port, optional
	Password string

	// TorIsolation requests a separate Tor circuit per connection
	TorIsolation bool
}

// Validate checks the credentials are usable
func (c *Credentials) Validate() error {
	if c.Host == "" {
		return ErrMissingHost
	}
	if c.Password == "" {
		return ErrMissingPassword
	}
	return nil
}

// Endpoint returns host:port of the relay
func (c *Credentials) Endpoint() string {
	port := c.Port
	if port == 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(port))
}

// BaseURL returns the relay root URL
func (c *Credentials) BaseURL() string {
	return fmt.Sprintf("http://%s/", c.Endpoint())
}

// IsOnion reports whether the host is an onion service
func (c *Credentials) IsOnion() bool {
	return strings.HasSuffix(strings.ToLower(c.Host), ".onion")
}

// ProxyAddr returns the SOCKS proxy to dial through, or "" for direct
// connections. Onion hosts always need one and fall back to local Tor.
func (c *Credentials) ProxyAddr() string {
	if c.Proxy != "" {
		return c.Proxy
	}
	if c.IsOnion() {
		return DefaultTorProxy
	}
	return ""
}
