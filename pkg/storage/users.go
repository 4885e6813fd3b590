package storage

import (
	"database/sql"
	"fmt"

	"github.com/ZentaChain/zentalk-cups/pkg/crypto"
	"github.com/ZentaChain/zentalk-cups/pkg/protocol"
)

// ===== CONTACT LIST =====

// SaveUsers replaces the cached contact list
func (c *Cache) SaveUsers(users []protocol.UserRecord) error {
	return c.withTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM users`); err != nil {
			return fmt.Errorf("failed to clear users: %w", err)
		}

		stmt, err := tx.Prepare(`INSERT INTO users (position, pubkey, name, unread) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, user := range users {
			// nil binds as NULL for unnamed contacts
			var name interface{}
			if user.Name != nil {
				sealed, err := c.seal([]byte(*user.Name))
				if err != nil {
					return err
				}
				name = sealed
			}

			// unread is stored as its bit pattern; sqlite integers are signed
			if _, err := stmt.Exec(i, user.ID[:], name, int64(user.Unread)); err != nil {
				return fmt.Errorf("failed to save user %d: %w", i, err)
			}
		}
		return nil
	})
}

// LoadUsers returns the cached contact list, empty if nothing was saved
func (c *Cache) LoadUsers() ([]protocol.UserRecord, error) {
	rows, err := c.db.Query(`SELECT pubkey, name, unread FROM users ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []protocol.UserRecord
	for rows.Next() {
		var (
			pubkey []byte
			name   []byte
			unread int64
		)
		if err := rows.Scan(&pubkey, &name, &unread); err != nil {
			return nil, err
		}

		id, err := crypto.ParsePublicKey(pubkey)
		if err != nil {
			return nil, err
		}

		user := protocol.UserRecord{ID: id, Unread: uint64(unread)}
		if name != nil {
			plain, err := c.open(name)
			if err != nil {
				return nil, err
			}
			user.Name = protocol.StringPtr(string(plain))
		}
		users = append(users, user)
	}
	return users, rows.Err()
}
