package store

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/clipsync/internal/cryptox"
	"github.com/dmitrijs2005/clipsync/internal/dbx"
	"github.com/dmitrijs2005/clipsync/internal/logging"
	"github.com/dmitrijs2005/clipsync/internal/telemetry"
)

// storeKeySalt is fixed: the store key only needs to differ between
// installs via the configured secret, not via a per-install salt.
var storeKeySalt = []byte("clipsync.store.v1")

// SQLite persists key/value pairs in a single kv table. Every value is
// sealed with AES-GCM under a key stretched from the configured store
// secret, so the database file never contains plaintext collections.
type SQLite struct {
	db   *sql.DB
	aead cipher.AEAD
	log  logging.Logger
	tel  telemetry.Sink
}

// NewSQLite wraps an open database handle. The caller owns the handle and
// is responsible for running migrations first (see InitDatabase).
func NewSQLite(db *sql.DB, storeSecret []byte, log logging.Logger, tel telemetry.Sink) (*SQLite, error) {
	key := cryptox.StretchStoreKey(storeSecret, storeKeySalt)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("store cipher init: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("store cipher init: %w", err)
	}

	return &SQLite{db: db, aead: aead, log: log.With("component", "store"), tel: tel}, nil
}

func (s *SQLite) Set(key string, value []byte) {
	ctx := context.Background()

	sealed, err := s.seal(value)
	if err != nil {
		s.fail(ctx, err, "StoreSetError", key)
		return
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, sealed)
	if err != nil {
		s.fail(ctx, err, "StoreSetError", key)
	}
}

func (s *SQLite) Get(key string) []byte {
	ctx := context.Background()

	var sealed []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&sealed)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		s.fail(ctx, err, "StoreGetError", key)
		return nil
	}

	value, err := s.open(sealed)
	if err != nil {
		// corrupt or foreign-key value: degrade to absent
		s.fail(ctx, err, "StoreDecodeError", key)
		return nil
	}
	return value
}

func (s *SQLite) Remove(key string) {
	ctx := context.Background()
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		s.fail(ctx, err, "StoreRemoveError", key)
	}
}

func (s *SQLite) Contains(key string) bool {
	ctx := context.Background()

	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM kv WHERE key = ?`, key).Scan(&one)
	if err == sql.ErrNoRows {
		return false
	}
	if err != nil {
		s.fail(ctx, err, "StoreContainsError", key)
		return false
	}
	return true
}

func (s *SQLite) RemoveAll(keys ...string) {
	ctx := context.Background()

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, key := range keys {
			if _, err := tx.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.fail(ctx, err, "StoreRemoveAllError", "")
	}
}

// seal encrypts value and prefixes the random nonce.
func (s *SQLite) seal(value []byte) ([]byte, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return s.aead.Seal(nonce, nonce, value, nil), nil
}

func (s *SQLite) open(sealed []byte) ([]byte, error) {
	if len(sealed) < s.aead.NonceSize() {
		return nil, fmt.Errorf("sealed value too short: %d bytes", len(sealed))
	}
	nonce, ct := sealed[:s.aead.NonceSize()], sealed[s.aead.NonceSize():]
	return s.aead.Open(nil, nonce, ct, nil)
}

func (s *SQLite) fail(ctx context.Context, err error, tag, key string) {
	s.log.Error(ctx, "store operation failed", "key", key, "error", err)
	s.tel.RecordError(ctx, err, tag)
}
