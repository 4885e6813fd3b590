package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/pflag"

	"github.com/ZentaChain/zentalk-cups/pkg/config"
	"github.com/ZentaChain/zentalk-cups/pkg/crypto"
	"github.com/ZentaChain/zentalk-cups/pkg/network"
	"github.com/ZentaChain/zentalk-cups/pkg/protocol"
)

const messageTimeLayout = "2006-01-02 15:04:05 -07:00"

func (a *app) contacts(ctx context.Context, client *network.Client, args []string) error {
	if len(args) == 0 {
		a.printContactsUsage()
		return nil
	}

	switch args[0] {
	case "show", "list", "ls":
		users, err := client.FetchUsers(ctx)
		if err != nil {
			return err
		}
		a.printUsers(users)
		return nil

	case "add":
		if len(args) != 3 {
			a.printContactsUsage()
			return fmt.Errorf("contacts add takes ADDRESS and NAME")
		}
		return client.AddContact(ctx, args[1], args[2])

	default:
		a.printContactsUsage()
		return nil
	}
}

func (a *app) messages(ctx context.Context, cfg *config.Config, client *network.Client, args []string) error {
	if len(args) == 0 {
		a.printMessagesUsage()
		return nil
	}

	switch args[0] {
	case "show", "list", "ls":
		fs := pflag.NewFlagSet("messages show", pflag.ContinueOnError)
		fs.SetOutput(a.stderr)
		limit := fs.IntP("limit", "l", 0, "maximum number of messages to show")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if fs.NArg() != 1 {
			a.printMessagesUsage()
			return fmt.Errorf("messages show takes ADDRESS")
		}

		peer, err := crypto.DecodeAddress(fs.Arg(0))
		if err != nil {
			return err
		}
		msgs, err := client.FetchMessages(ctx, peer, *limit)
		if err != nil {
			return err
		}
		if cfg.Protocol.NewestFirst {
			msgs = protocol.ReverseMessages(msgs)
		}
		a.printMessages(msgs)
		return nil

	case "send":
		if len(args) != 3 {
			a.printMessagesUsage()
			return fmt.Errorf("messages send takes ADDRESS and MESSAGE")
		}
		peer, err := crypto.DecodeAddress(args[1])
		if err != nil {
			return err
		}
		return client.SendMessage(ctx, peer, args[2])

	default:
		a.printMessagesUsage()
		return nil
	}
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...)
}

func (a *app) printUsers(users []protocol.UserRecord) {
	t := newTable("ADDRESS", "NAME", "UNREADS")
	for _, user := range users {
		t.Row(user.ID.Address(), user.DisplayName(), strconv.FormatUint(user.Unread, 10))
	}
	fmt.Fprintln(a.stdout, t.Render())
}

func (a *app) printMessages(msgs []protocol.MessageRecord) {
	t := newTable("TYPE", "TIME", "MESSAGE")
	for _, msg := range msgs {
		t.Row(msg.Direction(), msg.Time().Local().Format(messageTimeLayout), msg.Content)
	}
	fmt.Fprintln(a.stdout, t.Render())
}

func (a *app) printContactsUsage() {
	fmt.Fprintln(a.stderr, "Contact Book")
	fmt.Fprintln(a.stderr)
	fmt.Fprintln(a.stderr, "  cups contacts show|list|ls        display contact book")
	fmt.Fprintln(a.stderr, "  cups contacts add ADDRESS NAME    add a new user to your contact book")
}

func (a *app) printMessagesUsage() {
	fmt.Fprintln(a.stderr, "Messages")
	fmt.Fprintln(a.stderr)
	fmt.Fprintln(a.stderr, "  cups messages show|list|ls ADDRESS [-l N]   display messages with a user")
	fmt.Fprintln(a.stderr, "  cups messages send ADDRESS MESSAGE          send a message")
}
