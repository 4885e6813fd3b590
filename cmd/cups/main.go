package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/ZentaChain/zentalk-cups/pkg/config"
	"github.com/ZentaChain/zentalk-cups/pkg/network"
)

var errPasswordRequired = errors.New("requires password")

// app carries the process environment so commands can run in tests
type app struct {
	stdout       io.Writer
	stderr       io.Writer
	lookupEnv    func(string) (string, bool)
	readPassword func(prompt string) (string, error)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	a := &app{
		stdout:       os.Stdout,
		stderr:       os.Stderr,
		lookupEnv:    os.LookupEnv,
		readPassword: promptPassword,
	}
	err := a.run(ctx, os.Args[1:])
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func (a *app) run(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("cups", pflag.ContinueOnError)
	fs.SetInterspersed(false)
	fs.SetOutput(a.stderr)
	fs.Usage = func() { a.printUsage(fs) }

	flags := config.BindFlags(fs)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := flags.Resolve(a.lookupEnv)
	if err != nil {
		return err
	}
	if cfg.Relay.Host == "" {
		a.printUsage(fs)
		return network.ErrMissingHost
	}

	if cfg.Relay.Password == "" {
		password, err := a.readPassword("PASSWORD: ")
		if err != nil {
			return fmt.Errorf("%w: %v", errPasswordRequired, err)
		}
		cfg.Relay.Password = password
	}
	if cfg.Relay.Password == "" {
		return errPasswordRequired
	}

	client, err := cfg.NewClient()
	if err != nil {
		return err
	}

	rest := fs.Args()
	if len(rest) == 0 {
		return a.runTUI(ctx, cfg, client)
	}

	switch rest[0] {
	case "contacts":
		return a.contacts(ctx, client, rest[1:])
	case "messages":
		return a.messages(ctx, cfg, client, rest[1:])
	default:
		a.printUsage(fs)
		return fmt.Errorf("unknown command %q", rest[0])
	}
}

func (a *app) printUsage(fs *pflag.FlagSet) {
	fmt.Fprintln(a.stderr, "Interact with Cups")
	fmt.Fprintln(a.stderr)
	fmt.Fprintln(a.stderr, "Usage:")
	fmt.Fprintln(a.stderr, "  cups [flags]                                 open the interactive client")
	fmt.Fprintln(a.stderr, "  cups [flags] contacts show|list|ls           display contact book")
	fmt.Fprintln(a.stderr, "  cups [flags] contacts add ADDRESS NAME       add a user to your contact book")
	fmt.Fprintln(a.stderr, "  cups [flags] messages show|list|ls ADDRESS   display messages with a user")
	fmt.Fprintln(a.stderr, "                        [-l, --limit N]")
	fmt.Fprintln(a.stderr, "  cups [flags] messages send ADDRESS MESSAGE   send a message")
	fmt.Fprintln(a.stderr)
	fmt.Fprintln(a.stderr, "Flags:")
	fmt.Fprint(a.stderr, fs.FlagUsages())
}
