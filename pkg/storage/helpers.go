package storage

import (
	"database/sql"
	"fmt"

	"github.com/ZentaChain/zentalk-cups/pkg/crypto"
)

// ===== HELPER FUNCTIONS =====

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func intToBool(i int) bool {
	return i != 0
}

// withTx runs fn in a transaction, committing only if it succeeds
func (c *Cache) withTx(fn func(tx *sql.Tx) error) error {
	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

func (c *Cache) seal(plain []byte) ([]byte, error) {
	sealed, err := crypto.AESEncrypt(plain, c.encryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt: %w", err)
	}
	return sealed, nil
}

func (c *Cache) open(sealed []byte) ([]byte, error) {
	plain, err := crypto.AESDecrypt(sealed, c.encryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}
	return plain, nil
}
