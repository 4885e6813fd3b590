// Package config loads cups settings.
//
// Settings are layered: Default, then an optional YAML file, then CUPS_*
// environment variables, then command-line flags. Each layer only touches
// the fields it sets. The password is never read from the file.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ZentaChain/zentalk-cups/pkg/network"
	"github.com/ZentaChain/zentalk-cups/pkg/protocol"
)

// Environment variables understood by ApplyEnv
const (
	EnvHost     = "CUPS_HOST"
	EnvProxy    = "CUPS_PROXY"
	EnvPassword = "CUPS_PASSWORD"
	EnvConfig   = "CUPS_CONFIG"
)

var (
	ErrInvalidPort     = errors.New("port out of range")
	ErrInvalidInterval = errors.New("interval must be positive")
	ErrInvalidRetries  = errors.New("retry attempts must not be negative")
)

// Config is the complete client configuration
type Config struct {
	// Relay locates the service.
	Relay RelayConfig `yaml:"relay"`

	// Protocol selects the wire layout.
	Protocol ProtocolConfig `yaml:"protocol"`

	// Refresh configures the background refresh of the TUI.
	Refresh RefreshConfig `yaml:"refresh"`

	// Network configures timeouts and retries.
	Network NetworkConfig `yaml:"network"`

	// Log configures the log file written while the TUI owns the terminal.
	Log LogConfig `yaml:"log"`

	// Cache configures the encrypted local snapshot.
	Cache CacheConfig `yaml:"cache"`
}

// RelayConfig locates and authenticates against the relay.
type RelayConfig struct {
	// Host is a DNS name, IP address or onion address.
	Host string `yaml:"host"`

	// Port defaults to 59001.
	Port int `yaml:"port"`

	// Proxy is a SOCKS5 host:port. Onion hosts fall back to local Tor.
	Proxy string `yaml:"proxy"`

	// TorIsolation asks Tor for a separate circuit per connection.
	TorIsolation bool `yaml:"tor_isolation"`

	// Password is taken from the environment, a flag or a prompt.
	Password string `yaml:"-"`
}

// ProtocolConfig selects the wire layout.
type ProtocolConfig struct {
	// Revision is "reserved" (deployed relays) or "compact".
	Revision string `yaml:"revision"`

	// NewestFirst is true when the relay lists messages newest first.
	// Displays reverse such lists so the oldest message is on top.
	NewestFirst bool `yaml:"newest_first"`
}

// RefreshConfig configures the background refresh.
type RefreshConfig struct {
	// TickInterval is how often the scheduler polls when idle.
	TickInterval time.Duration `yaml:"tick_interval"`

	// MessageLimit bounds fetched conversations, 0 for no limit.
	MessageLimit int `yaml:"message_limit"`
}

// NetworkConfig configures requests.
type NetworkConfig struct {
	// Timeout bounds each request.
	Timeout time.Duration `yaml:"timeout"`

	// RetryAttempts is the number of attempts per request, 0 or 1 for none.
	RetryAttempts int `yaml:"retry_attempts"`

	// RetryBackoff is the first delay between attempts.
	RetryBackoff time.Duration `yaml:"retry_backoff"`
}

// LogConfig configures the log file.
type LogConfig struct {
	File      string `yaml:"file"`
	MaxSizeKB int64  `yaml:"max_size_kb"`
	MaxRolls  int    `yaml:"max_rolls"`
}

// CacheConfig configures the local snapshot.
type CacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	root := filepath.Join(homeDir, ".cups")

	return &Config{
		Relay: RelayConfig{
			Port: network.DefaultPort,
		},
		Protocol: ProtocolConfig{
			Revision:    protocol.DefaultRevision.String(),
			NewestFirst: true,
		},
		Refresh: RefreshConfig{
			TickInterval: 100 * time.Millisecond,
		},
		Network: NetworkConfig{
			Timeout:       network.DefaultTimeout,
			RetryAttempts: 0,
			RetryBackoff:  time.Second,
		},
		Log: LogConfig{
			File:      filepath.Join(root, "logs", "cups.log"),
			MaxSizeKB: 10 * 1024,
			MaxRolls:  3,
		},
		Cache: CacheConfig{
			Enabled: false,
			Path:    filepath.Join(root, "cache.db"),
		},
	}
}

// Load reads the YAML file at path over the defaults. An empty path
// returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv applies CUPS_HOST, CUPS_PROXY and CUPS_PASSWORD. CUPS_PROXY
// names the host of a SOCKS proxy on the Tor port.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvHost); ok && v != "" {
		c.Relay.Host = v
	}
	if v, ok := lookup(EnvProxy); ok && v != "" {
		c.Relay.Proxy = net.JoinHostPort(v, strconv.Itoa(network.TorProxyPort))
	}
	if v, ok := lookup(EnvPassword); ok && v != "" {
		c.Relay.Password = v
	}
}

// Validate checks everything except host and password, which are checked
// when a client is built
func (c *Config) Validate() error {
	if c.Relay.Port < 0 || c.Relay.Port > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPort, c.Relay.Port)
	}
	if _, err := protocol.ParseRevision(c.Protocol.Revision); err != nil {
		return err
	}
	if c.Refresh.TickInterval <= 0 {
		return fmt.Errorf("%w: tick_interval", ErrInvalidInterval)
	}
	if c.Network.Timeout <= 0 {
		return fmt.Errorf("%w: timeout", ErrInvalidInterval)
	}
	if c.Network.RetryAttempts < 0 {
		return ErrInvalidRetries
	}
	return nil
}

// Credentials returns the relay credentials
func (c *Config) Credentials() *network.Credentials {
	return &network.Credentials{
		Host:         c.Relay.Host,
		Port:         c.Relay.Port,
		Proxy:        c.Relay.Proxy,
		Password:     c.Relay.Password,
		TorIsolation: c.Relay.TorIsolation,
	}
}

// Revision returns the configured wire revision
func (c *Config) Revision() (protocol.Revision, error) {
	return protocol.ParseRevision(c.Protocol.Revision)
}

// RetryPolicy returns the retry policy of the client
func (c *Config) RetryPolicy() network.RetryPolicy {
	if c.Network.RetryAttempts <= 1 {
		return network.NoRetry
	}
	return network.RetryPolicy{
		MaxAttempts:    c.Network.RetryAttempts,
		InitialBackoff: c.Network.RetryBackoff,
		MaxBackoff:     network.DefaultRetryPolicy.MaxBackoff,
	}
}

// ClientOptions returns the options for network.NewClient
func (c *Config) ClientOptions() ([]network.Option, error) {
	rev, err := c.Revision()
	if err != nil {
		return nil, err
	}
	return []network.Option{
		network.WithRevision(rev),
		network.WithTimeout(c.Network.Timeout),
		network.WithRetryPolicy(c.RetryPolicy()),
	}, nil
}

// NewClient builds a relay client from the configuration
func (c *Config) NewClient() (*network.Client, error) {
	opts, err := c.ClientOptions()
	if err != nil {
		return nil, err
	}
	return network.NewClient(c.Credentials(), opts...)
}
