package storage

import (
	"database/sql"
	"fmt"

	"github.com/ZentaChain/zentalk-cups/pkg/crypto"
	"github.com/ZentaChain/zentalk-cups/pkg/protocol"
)

// ===== CONVERSATIONS =====

// SaveMessages replaces the cached conversation with peer
func (c *Cache) SaveMessages(peer crypto.PublicKey, msgs []protocol.MessageRecord) error {
	return c.withTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM messages WHERE peer = ?`, peer[:]); err != nil {
			return fmt.Errorf("failed to clear messages: %w", err)
		}

		stmt, err := tx.Prepare(`
			INSERT INTO messages (peer, position, inbound, timestamp, content)
			VALUES (?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, msg := range msgs {
			content, err := c.seal([]byte(msg.Content))
			if err != nil {
				return err
			}

			if _, err := stmt.Exec(peer[:], i, boolToInt(msg.Inbound), msg.Timestamp, content); err != nil {
				return fmt.Errorf("failed to save message %d: %w", i, err)
			}
		}
		return nil
	})
}

// LoadMessages returns the cached conversation with peer in the order it
// was saved
func (c *Cache) LoadMessages(peer crypto.PublicKey) ([]protocol.MessageRecord, error) {
	rows, err := c.db.Query(`
		SELECT inbound, timestamp, content
		FROM messages WHERE peer = ?
		ORDER BY position
	`, peer[:])
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var msgs []protocol.MessageRecord
	for rows.Next() {
		var (
			inbound int
			msg     protocol.MessageRecord
			content []byte
		)
		if err := rows.Scan(&inbound, &msg.Timestamp, &content); err != nil {
			return nil, err
		}

		plain, err := c.open(content)
		if err != nil {
			return nil, err
		}
		msg.Inbound = intToBool(inbound)
		msg.Content = string(plain)
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}

// DeleteMessages drops the cached conversation with peer
func (c *Cache) DeleteMessages(peer crypto.PublicKey) error {
	_, err := c.db.Exec(`DELETE FROM messages WHERE peer = ?`, peer[:])
	return err
}
