package storage

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
)

// KVStore layers typed rlp encoding and list semantics over a raw Database,
// providing the storage surface the round ledger consumes.
type KVStore struct {
	db Database
}

// NewKVStore wraps the supplied database.
func NewKVStore(db Database) *KVStore {
	return &KVStore{db: db}
}

// KVPut rlp-encodes the value under the key.
func (s *KVStore) KVPut(key []byte, value interface{}) error {
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return fmt.Errorf("storage: encode %q: %w", key, err)
	}
	return s.db.Put(key, encoded)
}

// KVGet decodes the stored value into out, reporting whether the key existed.
func (s *KVStore) KVGet(key []byte, out interface{}) (bool, error) {
	encoded, ok, err := s.db.Get(key)
	if err != nil || !ok {
		return false, err
	}
	if out == nil {
		return true, nil
	}
	if err := rlp.DecodeBytes(encoded, out); err != nil {
		return false, fmt.Errorf("storage: decode %q: %w", key, err)
	}
	return true, nil
}

// KVAppend appends a raw entry to the list stored under the key.
func (s *KVStore) KVAppend(key []byte, value []byte) error {
	var list [][]byte
	if err := s.KVGetList(key, &list); err != nil {
		return err
	}
	list = append(list, value)
	return s.KVPut(key, list)
}

// KVGetList decodes the list stored under the key into out. A missing key
// yields an empty list.
func (s *KVStore) KVGetList(key []byte, out interface{}) error {
	encoded, ok, err := s.db.Get(key)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if err := rlp.DecodeBytes(encoded, out); err != nil {
		return fmt.Errorf("storage: decode list %q: %w", key, err)
	}
	return nil
}
