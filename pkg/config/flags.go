package config

import (
	"github.com/spf13/pflag"
)

// Flags holds the global command-line options
type Flags struct {
	ConfigPath string
	Host       string
	Port       int
	Password   string
	Proxy      string
	Revision   string
	Cache      bool

	fs *pflag.FlagSet
}

// BindFlags registers the global options on fs
func BindFlags(fs *pflag.FlagSet) *Flags {
	f := &Flags{fs: fs}
	fs.StringVar(&f.ConfigPath, "config", "", "path to a YAML config file (or "+EnvConfig+")")
	fs.StringVarP(&f.Host, "host", "H", "", "relay host (or "+EnvHost+")")
	fs.IntVar(&f.Port, "port", 0, "relay port (default 59001)")
	fs.StringVarP(&f.Password, "password", "p", "", "relay password (or "+EnvPassword+", prompted when unset)")
	fs.StringVar(&f.Proxy, "proxy", "", "SOCKS5 proxy host:port")
	fs.StringVar(&f.Revision, "revision", "", "wire revision: reserved or compact")
	fs.BoolVar(&f.Cache, "cache", false, "keep an encrypted local snapshot for the TUI")
	return f
}

// Apply overrides cfg with the flags given on the command line
func (f *Flags) Apply(cfg *Config) {
	if f.fs.Changed("host") {
		cfg.Relay.Host = f.Host
	}
	if f.fs.Changed("port") {
		cfg.Relay.Port = f.Port
	}
	if f.fs.Changed("password") {
		cfg.Relay.Password = f.Password
	}
	if f.fs.Changed("proxy") {
		cfg.Relay.Proxy = f.Proxy
	}
	if f.fs.Changed("revision") {
		cfg.Protocol.Revision = f.Revision
	}
	if f.fs.Changed("cache") {
		cfg.Cache.Enabled = f.Cache
	}
}

// Resolve loads the file named by --config or CUPS_CONFIG, then applies
// the environment and the flags
func (f *Flags) Resolve(lookup func(string) (string, bool)) (*Config, error) {
	path := f.ConfigPath
	if path == "" {
		path, _ = lookup(EnvConfig)
	}

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(lookup)
	f.Apply(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
