package filter

import (
	"encoding/binary"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// Store persists cache entries in a local BadgerDB so evaluator scores
// survive across runs. Scores are deterministic at a fixed search depth,
// which is what makes reusing them across processes sound.
type Store struct {
	db *badger.DB
}

// OpenStore opens (or creates) a store at path. An empty path opens an
// in-memory database, which is useful in tests.
func OpenStore(path string) (*Store, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open cache store: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Get(key string) (int, bool, error) {
	var score int
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			v, n := binary.Varint(val)
			if n <= 0 {
				return fmt.Errorf("corrupt score for %q", key)
			}
			score = int(v)
			return nil
		})
	})
	if err == badger.ErrKeyNotFound {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("cache store get: %w", err)
	}
	return score, true, nil
}

func (s *Store) Put(key string, score int) error {
	buf := make([]byte, binary.MaxVarintLen64)
	n := binary.PutVarint(buf, int64(score))
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), buf[:n])
	})
	if err != nil {
		return fmt.Errorf("cache store put: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
