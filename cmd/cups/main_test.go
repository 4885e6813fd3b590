package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZentaChain/zentalk-cups/pkg/config"
	"github.com/ZentaChain/zentalk-cups/pkg/crypto"
	"github.com/ZentaChain/zentalk-cups/pkg/network"
	"github.com/ZentaChain/zentalk-cups/pkg/network/relaytest"
	"github.com/ZentaChain/zentalk-cups/pkg/protocol"
	"github.com/ZentaChain/zentalk-cups/pkg/storage"
)

type harness struct {
	relay  *relaytest.Relay
	app    *app
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	env    map[string]string
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	relay := relaytest.New("secret", protocol.RevisionReserved)
	t.Cleanup(relay.Close)

	h := &harness{
		relay:  relay,
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
		env: map[string]string{
			config.EnvHost:     relay.Credentials().Host,
			config.EnvPassword: "secret",
		},
	}
	h.app = &app{
		stdout: h.stdout,
		stderr: h.stderr,
		lookupEnv: func(key string) (string, bool) {
			v, ok := h.env[key]
			return v, ok
		},
		readPassword: func(string) (string, error) {
			return "", errors.New("no terminal")
		},
	}
	return h
}

func (h *harness) run(args ...string) error {
	port := strconv.Itoa(h.relay.Credentials().Port)
	return h.app.run(context.Background(), append([]string{"--port", port}, args...))
}

func TestContactsShow(t *testing.T) {
	h := newHarness(t)

	alice := crypto.PublicKey{0xA1}
	h.relay.SetUsers([]protocol.UserRecord{
		{ID: alice, Name: protocol.StringPtr("alice"), Unread: 4},
		{ID: crypto.PublicKey{0xB0}},
	})

	for _, alias := range []string{"show", "list", "ls"} {
		h.stdout.Reset()
		require.NoError(t, h.run("contacts", alias))

		out := h.stdout.String()
		assert.Contains(t, out, "ADDRESS")
		assert.Contains(t, out, "UNREADS")
		assert.Contains(t, out, alice.Address())
		assert.Contains(t, out, "alice")
		assert.Contains(t, out, "4")
	}
}

func TestContactsAdd(t *testing.T) {
	h := newHarness(t)
	key := crypto.PublicKey{0x42}

	require.NoError(t, h.run("contacts", "add", key.Address(), "dave"))

	users := h.relay.Users()
	require.Len(t, users, 1)
	assert.Equal(t, key, users[0].ID)
	assert.Equal(t, "dave", users[0].DisplayName())

	err := h.run("contacts", "add", "not-an-address.onion", "x")
	assert.ErrorIs(t, err, crypto.ErrDecode)

	assert.Error(t, h.run("contacts", "add", key.Address()))
}

func TestMessagesShowOldestFirst(t *testing.T) {
	h := newHarness(t)
	peer := crypto.PublicKey{0xA1}

	h.relay.SetMessages(peer, []protocol.MessageRecord{
		{Inbound: false, Timestamp: 1700000200, Content: "reply"},
		{Inbound: true, Timestamp: 1700000100, Content: "hello"},
	})

	require.NoError(t, h.run("messages", "show", peer.Address()))

	out := h.stdout.String()
	assert.Contains(t, out, "TYPE")
	assert.Contains(t, out, "INBOUND")
	assert.Contains(t, out, "OUTBOUND")
	assert.Less(t, strings.Index(out, "hello"), strings.Index(out, "reply"))
}

func TestMessagesShowLimit(t *testing.T) {
	h := newHarness(t)
	peer := crypto.PublicKey{0xA1}

	h.relay.SetMessages(peer, []protocol.MessageRecord{
		{Timestamp: 3, Content: "third"},
		{Timestamp: 2, Content: "second"},
		{Timestamp: 1, Content: "first"},
	})

	require.NoError(t, h.run("messages", "ls", peer.Address(), "-l", "2"))

	out := h.stdout.String()
	assert.Contains(t, out, "third")
	assert.Contains(t, out, "second")
	assert.NotContains(t, out, "first")
}

func TestMessagesSend(t *testing.T) {
	h := newHarness(t)
	peer := crypto.PublicKey{0xA1}

	require.NoError(t, h.run("messages", "send", peer.Address(), "hi there"))

	msgs := h.relay.Messages(peer)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hi there", msgs[0].Content)
	assert.False(t, msgs[0].Inbound)
}

func TestWrongPassword(t *testing.T) {
	h := newHarness(t)

	err := h.run("-p", "wrong", "contacts", "show")
	assert.ErrorIs(t, err, network.ErrRemoteRejected)
}

func TestMissingHost(t *testing.T) {
	h := newHarness(t)
	delete(h.env, config.EnvHost)

	err := h.run("contacts", "show")
	assert.ErrorIs(t, err, network.ErrMissingHost)
	assert.Contains(t, h.stderr.String(), "Usage:")
}

func TestPasswordPrompt(t *testing.T) {
	h := newHarness(t)
	delete(h.env, config.EnvPassword)

	err := h.run("contacts", "show")
	assert.ErrorIs(t, err, errPasswordRequired)

	var prompted string
	h.app.readPassword = func(prompt string) (string, error) {
		prompted = prompt
		return "secret", nil
	}
	require.NoError(t, h.run("contacts", "show"))
	assert.Equal(t, "PASSWORD: ", prompted)
}

func TestUnknownCommand(t *testing.T) {
	h := newHarness(t)

	assert.Error(t, h.run("bogus"))
	assert.NoError(t, h.run("contacts"))
	assert.Contains(t, h.stderr.String(), "Contact Book")
}

func TestLoadSnapshot(t *testing.T) {
	cache, err := storage.Open(filepath.Join(t.TempDir(), "cache.db"), "secret")
	require.NoError(t, err)
	defer cache.Close()

	assert.Nil(t, loadSnapshot(cache))

	alice := crypto.PublicKey{0xA1}
	require.NoError(t, cache.SaveUsers([]protocol.UserRecord{{ID: alice}}))
	require.NoError(t, cache.SaveMessages(alice, []protocol.MessageRecord{{Content: "cached"}}))

	snap := loadSnapshot(cache)
	require.NotNil(t, snap)
	assert.Len(t, snap.Users, 1)
	assert.Empty(t, snap.Messages, "no conversation was open")

	require.NoError(t, cache.SetLastPeer(alice))
	snap = loadSnapshot(cache)
	require.NotNil(t, snap)
	assert.Equal(t, alice, snap.Peer)
	require.Len(t, snap.Messages, 1)
	assert.Equal(t, "cached", snap.Messages[0].Content)

	require.NoError(t, cache.SetLastPeer(crypto.PublicKey{0xFF}))
	snap = loadSnapshot(cache)
	assert.Empty(t, snap.Messages, "contact no longer listed")
}
