package network

import (
	"context"
	"net/url"
	"strconv"

	"github.com/pkg/errors"

	"github.com/ZentaChain/zentalk-cups/pkg/crypto"
	"github.com/ZentaChain/zentalk-cups/pkg/protocol"
)

// Query values understood by the relay
const (
	QueryType    = "type"
	QueryPubkey  = "pubkey"
	QueryLimit   = "limit"
	TypeUsers    = "users"
	TypeMessages = "messages"
)

// UsersQuery builds the query of a user-list request
func UsersQuery() url.Values {
	return url.Values{QueryType: {TypeUsers}}
}

// MessagesQuery builds the query of a message-list request; limit <= 0
// means no limit
func MessagesQuery(peer crypto.PublicKey, limit int) url.Values {
	query := url.Values{
		QueryType:   {TypeMessages},
		QueryPubkey: {peer.Label()},
	}
	if limit > 0 {
		query.Set(QueryLimit, strconv.Itoa(limit))
	}
	return query
}

// FetchUsers retrieves the contact list
func (c *Client) FetchUsers(ctx context.Context) ([]protocol.UserRecord, error) {
	body, err := c.Get(ctx, UsersQuery())
	if err != nil {
		return nil, err
	}

	users, err := protocol.DecodeUsers(body)
	if err != nil {
		return nil, errors.Wrap(err, "decode user list")
	}
	return users, nil
}

// FetchMessages retrieves the conversation with peer in wire order
func (c *Client) FetchMessages(ctx context.Context, peer crypto.PublicKey, limit int) ([]protocol.MessageRecord, error) {
	body, err := c.Get(ctx, MessagesQuery(peer, limit))
	if err != nil {
		return nil, err
	}

	msgs, err := c.revision.DecodeMessages(body)
	if err != nil {
		return nil, errors.Wrap(err, "decode message list")
	}
	return msgs, nil
}

// AddContact stores the service address under name in the contact book
func (c *Client) AddContact(ctx context.Context, address, name string) error {
	key, err := crypto.DecodeAddress(address)
	if err != nil {
		return err
	}
	return c.Post(ctx, protocol.EncodeAddContact(key, name))
}

// SendMessage delivers content to peer through the relay
func (c *Client) SendMessage(ctx context.Context, peer crypto.PublicKey, content string) error {
	return c.Post(ctx, c.revision.EncodeSendMessage(peer, content))
}
