package network_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZentaChain/zentalk-cups/pkg/crypto"
	"github.com/ZentaChain/zentalk-cups/pkg/network"
	"github.com/ZentaChain/zentalk-cups/pkg/network/relaytest"
	"github.com/ZentaChain/zentalk-cups/pkg/protocol"
)

func newTestClient(t *testing.T, rev protocol.Revision, opts ...network.Option) (*relaytest.Relay, *network.Client) {
	t.Helper()

	relay := relaytest.New("secret", rev)
	t.Cleanup(relay.Close)

	client, err := network.NewClient(relay.Credentials(), append([]network.Option{network.WithRevision(rev)}, opts...)...)
	require.NoError(t, err)

	return relay, client
}

func TestFetchUsers(t *testing.T) {
	relay, client := newTestClient(t, protocol.RevisionReserved)

	bob := crypto.PublicKey{0xB0}
	relay.SetUsers([]protocol.UserRecord{
		{ID: bob, Name: protocol.StringPtr("bob"), Unread: 5},
		{ID: crypto.PublicKey{0xC0}, Unread: 0},
	})

	users, err := client.FetchUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)

	assert.Equal(t, bob, users[0].ID)
	assert.Equal(t, "bob", users[0].DisplayName())
	assert.Equal(t, uint64(5), users[0].Unread)
	assert.Nil(t, users[1].Name)
	assert.Equal(t, 1, relay.Requests("users"))
}

func TestFetchMessages(t *testing.T) {
	for _, rev := range []protocol.Revision{protocol.RevisionCompact, protocol.RevisionReserved} {
		t.Run(rev.String(), func(t *testing.T) {
			relay, client := newTestClient(t, rev)

			peer := crypto.PublicKey{0x01}
			relay.SetMessages(peer, []protocol.MessageRecord{
				{Inbound: true, Timestamp: 30, Content: "third"},
				{Inbound: false, Timestamp: 20, Content: "second"},
				{Inbound: true, Timestamp: -100, Content: "first"},
			})

			msgs, err := client.FetchMessages(context.Background(), peer, 0)
			require.NoError(t, err)
			require.Len(t, msgs, 3)
			assert.Equal(t, "third", msgs[0].Content)
			assert.Equal(t, int64(-100), msgs[2].Timestamp)

			limited, err := client.FetchMessages(context.Background(), peer, 2)
			require.NoError(t, err)
			assert.Len(t, limited, 2)
		})
	}
}

func TestFetchMessagesRevisionSkew(t *testing.T) {
	relay := relaytest.New("secret", protocol.RevisionCompact)
	defer relay.Close()

	peer := crypto.PublicKey{0x01}
	relay.SetMessages(peer, []protocol.MessageRecord{{Inbound: true, Timestamp: 1, Content: "hello"}})

	client, err := network.NewClient(relay.Credentials(), network.WithRevision(protocol.RevisionReserved))
	require.NoError(t, err)

	_, err = client.FetchMessages(context.Background(), peer, 0)
	assert.ErrorIs(t, err, protocol.ErrTruncatedRecord)
}

func TestAddContact(t *testing.T) {
	relay, client := newTestClient(t, protocol.RevisionReserved)

	key := crypto.PublicKey{0xDD}
	err := client.AddContact(context.Background(), key.Address(), "dora")
	require.NoError(t, err)

	users := relay.Users()
	require.Len(t, users, 1)
	assert.Equal(t, key, users[0].ID)
	assert.Equal(t, "dora", users[0].DisplayName())
}

func TestAddContactInvalidAddress(t *testing.T) {
	relay, client := newTestClient(t, protocol.RevisionReserved)

	err := client.AddContact(context.Background(), "not-an-address.onion", "x")
	assert.ErrorIs(t, err, crypto.ErrDecode)
	assert.Equal(t, 0, relay.Requests("add"))
}

func TestSendMessage(t *testing.T) {
	for _, rev := range []protocol.Revision{protocol.RevisionCompact, protocol.RevisionReserved} {
		t.Run(rev.String(), func(t *testing.T) {
			relay, client := newTestClient(t, rev)

			peer := crypto.PublicKey{0x42}
			require.NoError(t, client.SendMessage(context.Background(), peer, "hi there"))

			msgs := relay.Messages(peer)
			require.Len(t, msgs, 1)
			assert.False(t, msgs[0].Inbound)
			assert.Equal(t, "hi there", msgs[0].Content)
		})
	}
}

func TestWrongPasswordRejected(t *testing.T) {
	relay := relaytest.New("secret", protocol.RevisionReserved)
	defer relay.Close()

	creds := relay.Credentials()
	creds.Password = "wrong"

	client, err := network.NewClient(creds)
	require.NoError(t, err)

	_, err = client.FetchUsers(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, network.ErrRemoteRejected)

	var rejected *network.RemoteRejectedError
	require.True(t, errors.As(err, &rejected))
	assert.Equal(t, http.StatusUnauthorized, rejected.StatusCode)
	assert.Equal(t, "Unauthorized", rejected.Reason)
}

func TestRemoteRejectedNotRetried(t *testing.T) {
	relay, client := newTestClient(t, protocol.RevisionReserved, network.WithRetryPolicy(network.RetryPolicy{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
	}))

	relay.FailNext(http.StatusInternalServerError)

	_, err := client.FetchUsers(context.Background())
	assert.ErrorIs(t, err, network.ErrRemoteRejected)

	// The failure was consumed by the single attempt; the next call succeeds
	_, err = client.FetchUsers(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 1, relay.Requests("users"))
}

func TestTransportErrorRetried(t *testing.T) {
	creds := &network.Credentials{Host: "127.0.0.1", Port: 1, Password: "x"}

	client, err := network.NewClient(creds, network.WithRetryPolicy(network.RetryPolicy{
		MaxAttempts:    2,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     time.Millisecond,
	}))
	require.NoError(t, err)

	_, err = client.FetchUsers(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, network.ErrTransport)

	var transportErr *network.TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.Equal(t, http.MethodGet, transportErr.Op)
}

func TestContextCancelled(t *testing.T) {
	relay, client := newTestClient(t, protocol.RevisionReserved)
	relay.Hold()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.FetchUsers(ctx)
	assert.ErrorIs(t, err, network.ErrTransport)
}

func TestNewClientValidation(t *testing.T) {
	_, err := network.NewClient(&network.Credentials{Password: "x"})
	assert.ErrorIs(t, err, network.ErrMissingHost)

	_, err = network.NewClient(&network.Credentials{Host: "h"})
	assert.ErrorIs(t, err, network.ErrMissingPassword)

	_, err = network.NewClient(&network.Credentials{Host: "h", Password: "x"}, network.WithRevision(0))
	assert.ErrorIs(t, err, protocol.ErrUnknownRevision)
}
