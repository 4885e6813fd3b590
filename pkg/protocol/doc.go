// Package protocol implements the wire format spoken by the cups relay.
//
// The relay exchanges flat, big-endian byte streams over HTTP. Responses
// carry no record count: records repeat until the end of the body, and a
// short read anywhere inside a record means the body is malformed.
//
// # Responses
//
// User list (GET /?type=users), repeated:
//   - ID (32 bytes): public key of the contact
//   - Unread (8 bytes): unread message count
//   - NameLen (1 byte): length of the name, 0 when the contact has none
//   - Name (NameLen bytes): UTF-8
//
// Message list (GET /?type=messages&pubkey=...), repeated:
//   - Inbound (1 byte): non-zero for messages received from the peer
//   - Reserved (24 bytes): RevisionReserved only
//   - Timestamp (8 bytes): signed Unix seconds
//   - ContentLen (8 bytes)
//   - Content (ContentLen bytes): UTF-8
//
// # Requests
//
// Both requests are POSTed to / and run to the end of the body:
//   - Add contact: 0x01, public key (32 bytes), name
//   - Send message: 0x00, reserved (16 bytes, RevisionReserved only),
//     recipient public key (32 bytes), content
//
// # Revisions
//
// Two relay revisions disagree on the reserved fields of the message
// framing. The codec never guesses: callers pick a Revision from
// configuration and every message encode/decode goes through it.
package protocol
