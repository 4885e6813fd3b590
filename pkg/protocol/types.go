package protocol

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ZentaChain/zentalk-cups/pkg/crypto"
)

// Request opcodes
const (
	OpSendMessage byte = 0x00
	OpAddContact  byte = 0x01
)

// Field sizes
const (
	UnreadSize     = 8
	NameLenSize    = 1
	FlagSize       = 1
	TimestampSize  = 8
	ContentLenSize = 8

	// MaxNameLen is the longest name a user record can carry
	MaxNameLen = 0xFF

	// UserHeaderSize is the fixed part of a user record
	UserHeaderSize = crypto.PublicKeySize + UnreadSize + NameLenSize
)

var (
	ErrProtocol        = errors.New("protocol error")
	ErrTruncatedRecord = fmt.Errorf("%w: truncated record", ErrProtocol)
	ErrInvalidUTF8     = fmt.Errorf("%w: invalid utf-8", ErrProtocol)
	ErrUnknownRevision = errors.New("unknown protocol revision")
)

// Revision selects one of the byte layouts the relay has shipped for
// message records and send-message requests.
type Revision uint8

const (
	// RevisionCompact has no reserved fields
	RevisionCompact Revision = iota + 1

	// RevisionReserved pads message records after the inbound flag and
	// send requests after the opcode
	RevisionReserved
)

// DefaultRevision is the layout of the deployed relay
const DefaultRevision = RevisionReserved

var revisionNames = map[Revision]string{
	RevisionCompact:  "compact",
	RevisionReserved: "reserved",
}

// ParseRevision parses a revision name as used in configuration
func ParseRevision(name string) (Revision, error) {
	for rev, n := range revisionNames {
		if strings.EqualFold(name, n) {
			return rev, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownRevision, name)
}

// String implements fmt.Stringer
func (r Revision) String() string {
	if name, ok := revisionNames[r]; ok {
		return name
	}
	return fmt.Sprintf("revision(%d)", uint8(r))
}

// Valid reports whether r names a known layout
func (r Revision) Valid() bool {
	_, ok := revisionNames[r]
	return ok
}

// MessageReservedSize is the reserved field after the inbound flag
func (r Revision) MessageReservedSize() int {
	if r == RevisionReserved {
		return 24
	}
	return 0
}

// SendReservedSize is the reserved field after the send opcode
func (r Revision) SendReservedSize() int {
	if r == RevisionReserved {
		return 16
	}
	return 0
}

// MessageHeaderSize is the fixed part of a message record
func (r Revision) MessageHeaderSize() int {
	return FlagSize + r.MessageReservedSize() + TimestampSize + ContentLenSize
}

// UserRecord is one entry of the contact list
type UserRecord struct {
	ID     crypto.PublicKey
	Name   *string // nil when the relay has no name for the contact
	Unread uint64
}

// DisplayName returns the name, or "" when absent
func (u UserRecord) DisplayName() string {
	if u.Name == nil {
		return ""
	}
	return *u.Name
}

// MessageRecord is one message exchanged with a peer
type MessageRecord struct {
	Inbound   bool
	Timestamp int64 // Unix seconds, negative before the epoch
	Content   string
}

// Time converts the timestamp to a time.Time
func (m MessageRecord) Time() time.Time {
	return time.Unix(m.Timestamp, 0)
}

// Direction returns "INBOUND" or "OUTBOUND"
func (m MessageRecord) Direction() string {
	if m.Inbound {
		return "INBOUND"
	}
	return "OUTBOUND"
}

// ReverseMessages returns a reversed copy of msgs
func ReverseMessages(msgs []MessageRecord) []MessageRecord {
	out := make([]MessageRecord, len(msgs))
	for i, msg := range msgs {
		out[len(msgs)-1-i] = msg
	}
	return out
}

// StringPtr is a helper for building records with names
func StringPtr(s string) *string {
	return &s
}
