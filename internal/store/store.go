// Package store provides Badger-backed persistence for the invite reward
// ledger: balances, pending credits, credited records, and the inviter map.
//
// All multi-key mutations (promotion, reversal) run inside a single Badger
// transaction so a crash can never split a credit from the bookkeeping that
// accompanies it. Ledger read-modify-writes are additionally serialized per
// community to prevent lost updates between the event handlers and the sweep.
package store

import (
	"encoding/json/v2"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

// Key prefixes. Composite keys follow `<prefix><communityID>:<userID>`.
const (
	balancePrefix  = "balance:"
	pendingPrefix  = "pending:"
	creditedPrefix = "credited:"
	inviterPrefix  = "inviter:"
)

// Store wraps a Badger database instance.
type Store struct {
	db     *badger.DB
	logger *slog.Logger

	// Per-community locks serializing ledger read-modify-writes.
	locks sync.Map // communityID -> *sync.Mutex
}

// New creates a new Store instance with the given database path.
func New(path string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Ensure writes are synced to disk to prevent corruption on crashes
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	store := &Store{
		db:     db,
		logger: logger,
	}

	if logger != nil {
		logger.Info("Ledger database opened", "path", path)
	}

	return store, nil
}

// Close gracefully closes the database connection.
func (s *Store) Close() error {
	if s.logger != nil {
		s.logger.Info("Closing ledger database")
	}
	return s.db.Close()
}

// lockCommunity acquires the ledger lock for a community.
// The returned function releases it.
func (s *Store) lockCommunity(communityID string) func() {
	v, _ := s.locks.LoadOrStore(communityID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Helper methods for database operations.

// get retrieves a value by key.
func (s *Store) get(key []byte, dest any) error {
	return s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, dest)
		})
	})
}

// set stores a value by key.
func (s *Store) set(key []byte, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
}

// delete removes a key from the database.
func (s *Store) delete(key []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

// txnGet reads and unmarshals a key inside an open transaction.
func txnGet(txn *badger.Txn, key []byte, dest any) error {
	item, err := txn.Get(key)
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, dest)
	})
}

// txnSet marshals and writes a value inside an open transaction.
func txnSet(txn *badger.Txn, key []byte, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return txn.Set(key, data)
}

// scanPrefix iterates all values under a prefix, unmarshaling each into a
// fresh T and passing it to fn. Corrupt entries are skipped with a warning
// rather than aborting the scan.
func scanPrefix[T any](s *Store, prefix string, fn func(*T)) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var v T
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &v)
			})
			if err != nil {
				if s.logger != nil {
					s.logger.Warn("Skipping unreadable record",
						"key", string(it.Item().Key()), "error", err)
				}
				continue
			}
			fn(&v)
		}
		return nil
	})
}

// compositeKey builds `<prefix><communityID>:<userID>`.
func compositeKey(prefix, communityID, userID string) []byte {
	buf := make([]byte, 0, len(prefix)+len(communityID)+1+len(userID))
	buf = append(buf, prefix...)
	buf = append(buf, communityID...)
	buf = append(buf, ':')
	buf = append(buf, userID...)
	return buf
}

// isNotFound reports whether err is Badger's key-not-found.
func isNotFound(err error) bool {
	return errors.Is(err, badger.ErrKeyNotFound)
}
