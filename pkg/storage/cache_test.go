package storage

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZentaChain/zentalk-cups/pkg/crypto"
	"github.com/ZentaChain/zentalk-cups/pkg/protocol"
)

func openTestCache(t *testing.T, path, password string) *Cache {
	t.Helper()

	c, err := Open(path, password)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestUsersRoundTrip(t *testing.T) {
	c := openTestCache(t, filepath.Join(t.TempDir(), "cache.db"), "secret")

	users := []protocol.UserRecord{
		{ID: crypto.PublicKey{0xA1}, Name: protocol.StringPtr("alice"), Unread: 3},
		{ID: crypto.PublicKey{0xB0}, Unread: 0},
		{ID: crypto.PublicKey{0xC0}, Name: protocol.StringPtr(""), Unread: ^uint64(0)},
	}
	require.NoError(t, c.SaveUsers(users))

	loaded, err := c.LoadUsers()
	require.NoError(t, err)
	assert.Equal(t, users, loaded)
}

func TestSaveUsersReplaces(t *testing.T) {
	c := openTestCache(t, filepath.Join(t.TempDir(), "cache.db"), "secret")

	require.NoError(t, c.SaveUsers([]protocol.UserRecord{
		{ID: crypto.PublicKey{1}}, {ID: crypto.PublicKey{2}}, {ID: crypto.PublicKey{3}},
	}))
	require.NoError(t, c.SaveUsers([]protocol.UserRecord{{ID: crypto.PublicKey{4}}}))

	loaded, err := c.LoadUsers()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, crypto.PublicKey{4}, loaded[0].ID)
}

func TestMessagesPerPeer(t *testing.T) {
	c := openTestCache(t, filepath.Join(t.TempDir(), "cache.db"), "secret")

	alice := crypto.PublicKey{0xA1}
	bob := crypto.PublicKey{0xB0}

	aliceMsgs := []protocol.MessageRecord{
		{Inbound: true, Timestamp: 20, Content: "second"},
		{Inbound: false, Timestamp: -5, Content: "héllo"},
	}
	require.NoError(t, c.SaveMessages(alice, aliceMsgs))
	require.NoError(t, c.SaveMessages(bob, []protocol.MessageRecord{{Content: "bob"}}))

	loaded, err := c.LoadMessages(alice)
	require.NoError(t, err)
	assert.Equal(t, aliceMsgs, loaded)

	require.NoError(t, c.SaveMessages(alice, nil))
	loaded, err = c.LoadMessages(alice)
	require.NoError(t, err)
	assert.Empty(t, loaded)

	loaded, err = c.LoadMessages(bob)
	require.NoError(t, err)
	assert.Len(t, loaded, 1)

	require.NoError(t, c.DeleteMessages(bob))
	loaded, err = c.LoadMessages(bob)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestReopenWithPassword(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")

	c, err := Open(path, "secret")
	require.NoError(t, err)
	require.NoError(t, c.SaveUsers([]protocol.UserRecord{
		{ID: crypto.PublicKey{1}, Name: protocol.StringPtr("kept")},
	}))
	require.NoError(t, c.Close())

	_, err = Open(path, "wrong")
	assert.True(t, errors.Is(err, ErrInvalidPassword))

	c = openTestCache(t, path, "secret")
	users, err := c.LoadUsers()
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "kept", *users[0].Name)
}

func TestLastPeer(t *testing.T) {
	c := openTestCache(t, filepath.Join(t.TempDir(), "cache.db"), "secret")

	_, err := c.LastPeer()
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, c.SetLastPeer(crypto.PublicKey{7}))
	require.NoError(t, c.SetLastPeer(crypto.PublicKey{8}))

	peer, err := c.LastPeer()
	require.NoError(t, err)
	assert.Equal(t, crypto.PublicKey{8}, peer)
}
