package storage

import (
	"bytes"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ZentaChain/zentalk-cups/pkg/crypto"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidPassword = errors.New("invalid password")
)

// passwordCheck is encrypted into the meta table on first open and
// decrypted on every later open
var passwordCheck = []byte("cups cache")

const (
	metaPasswordCheck = "password_check"
	metaLastPeer      = "last_peer"
)

// Cache is an encrypted local copy of the last delivered contact list and
// conversations. Collections are always replaced whole.
type Cache struct {
	db            *sql.DB
	encryptionKey []byte // Derived from user password
}

// Open opens or creates the cache at path. A cache created with another
// password fails with ErrInvalidPassword.
func Open(path string, password string) (*Cache, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	c := &Cache{
		db:            db,
		encryptionKey: crypto.DeriveKey(password),
	}

	if err := c.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	if err := c.checkPassword(); err != nil {
		db.Close()
		return nil, err
	}

	return c, nil
}

// initSchema creates database tables
func (c *Cache) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL
	);

	-- Contact list in wire order
	CREATE TABLE IF NOT EXISTS users (
		position INTEGER PRIMARY KEY,
		pubkey BLOB NOT NULL,
		name BLOB,
		unread INTEGER NOT NULL
	);

	-- One feed per peer in wire order
	CREATE TABLE IF NOT EXISTS messages (
		peer BLOB NOT NULL,
		position INTEGER NOT NULL,
		inbound INTEGER NOT NULL,
		timestamp INTEGER NOT NULL,
		content BLOB NOT NULL,
		PRIMARY KEY (peer, position)
	);
	`

	if _, err := c.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (c *Cache) checkPassword() error {
	var stored []byte
	err := c.db.QueryRow(`SELECT value FROM meta WHERE key = ?`, metaPasswordCheck).Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		sealed, err := crypto.AESEncrypt(passwordCheck, c.encryptionKey)
		if err != nil {
			return fmt.Errorf("failed to seal password check: %w", err)
		}
		_, err = c.db.Exec(`INSERT INTO meta (key, value) VALUES (?, ?)`, metaPasswordCheck, sealed)
		return err
	}
	if err != nil {
		return fmt.Errorf("failed to read password check: %w", err)
	}

	plain, err := crypto.AESDecrypt(stored, c.encryptionKey)
	if err != nil || !bytes.Equal(plain, passwordCheck) {
		return ErrInvalidPassword
	}
	return nil
}

// SetLastPeer remembers the contact whose conversation was last shown
func (c *Cache) SetLastPeer(peer crypto.PublicKey) error {
	_, err := c.db.Exec(`
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, metaLastPeer, peer[:])
	if err != nil {
		return fmt.Errorf("failed to save last peer: %w", err)
	}
	return nil
}

// LastPeer returns the contact stored by SetLastPeer
func (c *Cache) LastPeer() (crypto.PublicKey, error) {
	var raw []byte
	err := c.db.QueryRow(`SELECT value FROM meta WHERE key = ?`, metaLastPeer).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return crypto.PublicKey{}, ErrNotFound
	}
	if err != nil {
		return crypto.PublicKey{}, fmt.Errorf("failed to load last peer: %w", err)
	}
	return crypto.ParsePublicKey(raw)
}

// Close closes the database connection
func (c *Cache) Close() error {
	return c.db.Close()
}
