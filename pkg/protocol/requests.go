package protocol

import (
	"errors"
	"fmt"

	"github.com/ZentaChain/zentalk-cups/pkg/crypto"
)

var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrUnknownOpcode  = fmt.Errorf("%w: unknown opcode", ErrInvalidRequest)
)

// AddContactRequest asks the relay to store a contact under a name
type AddContactRequest struct {
	Key  crypto.PublicKey
	Name string
}

// SendMessageRequest asks the relay to deliver content to a peer
type SendMessageRequest struct {
	To      crypto.PublicKey
	Content string
}

// EncodeAddContact encodes an add-contact request body
func EncodeAddContact(key crypto.PublicKey, name string) []byte {
	buf := make([]byte, 1+crypto.PublicKeySize+len(name))
	offset := 0

	buf[offset] = OpAddContact
	offset++

	copy(buf[offset:], key[:])
	offset += crypto.PublicKeySize

	copy(buf[offset:], name)

	return buf
}

// EncodeSendMessage encodes a send-message request body laid out for r
func (r Revision) EncodeSendMessage(to crypto.PublicKey, content string) []byte {
	reserved := r.SendReservedSize()
	buf := make([]byte, 1+reserved+crypto.PublicKeySize+len(content))
	offset := 0

	buf[offset] = OpSendMessage
	offset++

	offset += reserved

	copy(buf[offset:], to[:])
	offset += crypto.PublicKeySize

	copy(buf[offset:], content)

	return buf
}

// DecodeRequest parses a POST body into *AddContactRequest or
// *SendMessageRequest. Relay fakes use it to check what clients sent.
func (r Revision) DecodeRequest(buf []byte) (interface{}, error) {
	if len(buf) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrInvalidRequest)
	}

	switch buf[0] {
	case OpAddContact:
		if len(buf) < 1+crypto.PublicKeySize {
			return nil, ErrTruncatedRecord
		}
		req := &AddContactRequest{Name: string(buf[1+crypto.PublicKeySize:])}
		copy(req.Key[:], buf[1:])
		return req, nil

	case OpSendMessage:
		start := 1 + r.SendReservedSize()
		if len(buf) < start+crypto.PublicKeySize {
			return nil, ErrTruncatedRecord
		}
		req := &SendMessageRequest{Content: string(buf[start+crypto.PublicKeySize:])}
		copy(req.To[:], buf[start:])
		return req, nil

	default:
		return nil, fmt.Errorf("%w: 0x%02x", ErrUnknownOpcode, buf[0])
	}
}
