package network

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/btcsuite/go-socks/socks"
	"github.com/pkg/errors"

	"github.com/ZentaChain/zentalk-cups/pkg/protocol"
)

// DefaultTimeout bounds a whole request; Tor circuits are slow to build
const DefaultTimeout = 60 * time.Second

// Client talks to one relay over HTTP
type Client struct {
	creds      *Credentials
	httpClient *http.Client
	revision   protocol.Revision
	retry      RetryPolicy
}

// Option configures a Client
type Option func(*Client)

// WithRevision selects the message framing of the relay
func WithRevision(rev protocol.Revision) Option {
	return func(c *Client) {
		c.revision = rev
	}
}

// WithRetryPolicy enables retries of transport failures
func WithRetryPolicy(policy RetryPolicy) Option {
	return func(c *Client) {
		c.retry = policy
	}
}

// WithTimeout sets the per-request timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the HTTP client; the proxy setting of the
// credentials is then ignored
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a client for the relay described by creds
func NewClient(creds *Credentials, opts ...Option) (*Client, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		creds: creds,
		httpClient: &http.Client{
			Transport: newTransport(creds),
			Timeout:   DefaultTimeout,
		},
		revision: protocol.DefaultRevision,
		retry:    NoRetry,
	}

	for _, opt := range opts {
		opt(c)
	}

	if !c.revision.Valid() {
		return nil, errors.Wrapf(protocol.ErrUnknownRevision, "revision %d", uint8(c.revision))
	}

	return c, nil
}

// newTransport dials directly or through the SOCKS proxy of creds. Host
// names are passed to the proxy unresolved so onion hosts work.
func newTransport(creds *Credentials) *http.Transport {
	transport := &http.Transport{
		MaxIdleConns:        4,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	proxyAddr := creds.ProxyAddr()
	if proxyAddr == "" {
		transport.DialContext = (&net.Dialer{Timeout: 30 * time.Second}).DialContext
		return transport
	}

	proxy := &socks.Proxy{
		Addr:         proxyAddr,
		TorIsolation: creds.TorIsolation,
	}
	transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
		if deadline, ok := ctx.Deadline(); ok {
			return proxy.DialTimeout(network, addr, time.Until(deadline))
		}
		return proxy.Dial(network, addr)
	}
	return transport
}

// Credentials returns the credentials the client was built with
func (c *Client) Credentials() *Credentials {
	return c.creds
}

// Revision returns the configured message framing
func (c *Client) Revision() protocol.Revision {
	return c.revision
}

// Get issues GET /?<query> and returns the response body
func (c *Client) Get(ctx context.Context, query url.Values) ([]byte, error) {
	target := c.creds.BaseURL()
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body []byte
	err := c.retry.retry(ctx, func() error {
		var err error
		body, err = c.do(ctx, http.MethodGet, target, nil)
		return err
	})
	return body, err
}

// Post issues POST / with body
func (c *Client) Post(ctx context.Context, body []byte) error {
	target := c.creds.BaseURL()

	return c.retry.retry(ctx, func() error {
		_, err := c.do(ctx, http.MethodPost, target, body)
		return err
	})
}

func (c *Client) do(ctx context.Context, method, target string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, errors.Wrapf(err, "build %s request", method)
	}
	req.SetBasicAuth(AuthUser, c.creds.Password)
	if body != nil {
		req.Header.Set("Content-Type", "application/octet-stream")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: method, URL: target, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, newRemoteRejected(resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: method, URL: target, Err: errors.Wrap(err, "read body")}
	}

	return data, nil
}
