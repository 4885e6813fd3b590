package protocol

import (
	"encoding/binary"
	"fmt"
	"unicode/utf8"
)

// DecodeMessages decodes a message-list response body laid out for r.
// Wire order is preserved.
func (r Revision) DecodeMessages(buf []byte) ([]MessageRecord, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownRevision, uint8(r))
	}

	var msgs []MessageRecord
	headerSize := r.MessageHeaderSize()
	offset := 0

	for offset < len(buf) {
		index := len(msgs)

		if len(buf)-offset < headerSize {
			return nil, fmt.Errorf("message %d: %w", index, ErrTruncatedRecord)
		}

		var msg MessageRecord
		msg.Inbound = buf[offset] != 0
		offset += FlagSize

		offset += r.MessageReservedSize()

		msg.Timestamp = int64(binary.BigEndian.Uint64(buf[offset:]))
		offset += TimestampSize

		contentLen := binary.BigEndian.Uint64(buf[offset:])
		offset += ContentLenSize

		if contentLen > uint64(len(buf)-offset) {
			return nil, fmt.Errorf("message %d: %w", index, ErrTruncatedRecord)
		}

		content := buf[offset : offset+int(contentLen)]
		offset += int(contentLen)

		if !utf8.Valid(content) {
			return nil, fmt.Errorf("message %d: %w", index, ErrInvalidUTF8)
		}
		msg.Content = string(content)

		msgs = append(msgs, msg)
	}

	return msgs, nil
}

// EncodeMessages encodes a message-list response body laid out for r.
// Reserved fields are zero.
func (r Revision) EncodeMessages(msgs []MessageRecord) []byte {
	headerSize := r.MessageHeaderSize()

	size := 0
	for _, msg := range msgs {
		size += headerSize + len(msg.Content)
	}

	buf := make([]byte, size)
	offset := 0

	for _, msg := range msgs {
		if msg.Inbound {
			buf[offset] = 1
		}
		offset += FlagSize

		offset += r.MessageReservedSize()

		binary.BigEndian.PutUint64(buf[offset:], uint64(msg.Timestamp))
		offset += TimestampSize

		binary.BigEndian.PutUint64(buf[offset:], uint64(len(msg.Content)))
		offset += ContentLenSize

		copy(buf[offset:], msg.Content)
		offset += len(msg.Content)
	}

	return buf
}
