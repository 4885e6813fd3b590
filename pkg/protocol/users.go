package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/ZentaChain/zentalk-cups/pkg/crypto"
)

var ErrNameTooLong = errors.New("name longer than 255 bytes")

// DecodeUsers decodes a user-list response body. Either every record
// decodes or an error is returned; partial lists are never returned.
func DecodeUsers(buf []byte) ([]UserRecord, error) {
	var users []UserRecord
	offset := 0

	for offset < len(buf) {
		index := len(users)

		if len(buf)-offset < UserHeaderSize {
			return nil, fmt.Errorf("user %d: %w", index, ErrTruncatedRecord)
		}

		var user UserRecord
		copy(user.ID[:], buf[offset:offset+crypto.PublicKeySize])
		offset += crypto.PublicKeySize

		user.Unread = binary.BigEndian.Uint64(buf[offset:])
		offset += UnreadSize

		nameLen := int(buf[offset])
		offset += NameLenSize

		if nameLen > 0 {
			if len(buf)-offset < nameLen {
				return nil, fmt.Errorf("user %d: %w", index, ErrTruncatedRecord)
			}

			name := buf[offset : offset+nameLen]
			offset += nameLen

			if !utf8.Valid(name) {
				return nil, fmt.Errorf("user %d: %w", index, ErrInvalidUTF8)
			}
			user.Name = StringPtr(string(name))
		}

		users = append(users, user)
	}

	return users, nil
}

// EncodeUsers encodes a user-list response body. A present but empty name
// is indistinguishable from an absent one on the wire.
func EncodeUsers(users []UserRecord) ([]byte, error) {
	size := 0
	for _, user := range users {
		if len(user.DisplayName()) > MaxNameLen {
			return nil, ErrNameTooLong
		}
		size += UserHeaderSize + len(user.DisplayName())
	}

	buf := make([]byte, size)
	offset := 0

	for _, user := range users {
		name := user.DisplayName()

		copy(buf[offset:], user.ID[:])
		offset += crypto.PublicKeySize

		binary.BigEndian.PutUint64(buf[offset:], user.Unread)
		offset += UnreadSize

		buf[offset] = byte(len(name))
		offset += NameLenSize

		copy(buf[offset:], name)
		offset += len(name)
	}

	return buf, nil
}
