package utils

import (
	"encoding/json"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// FactStore is the on-disk cache for per-country facts (demographics, GDP,
// headlines). Entries carry a TTL so a stale process restart does not serve
// week-old intelligence forever.
type FactStore struct {
	db *badger.DB
}

func OpenFactStore(path string) (*FactStore, error) {
	opts := badger.DefaultOptions(path)
	// Decrease logging verbosity
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &FactStore{db: db}, nil
}

func (s *FactStore) Close() error {
	return s.db.Close()
}

// PutJSON stores v under key. A zero ttl stores the entry without expiry.
func (s *FactStore) PutJSON(key string, v interface{}, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), data)
		if ttl > 0 {
			e = e.WithTTL(ttl)
		}
		return txn.SetEntry(e)
	})
}

// GetJSON loads the entry under key into v. The bool reports whether the key
// was present and unexpired.
func (s *FactStore) GetJSON(key string, v interface{}) (bool, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err == badger.ErrKeyNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(data, v)
}
