package table

import (
	"encoding/binary"
	"errors"

	"github.com/dgraph-io/badger/v4"
)

// BadgerBackend is a disk-backed CsBackend, for deployments that want
// Content Store payloads (in particular statically-seeded ones) to survive
// a node restart. Grounded on the forwarder's
// std/object/storage/store_badger.go BadgerStore.
type BadgerBackend struct {
	db *badger.DB
}

// NewBadgerBackend opens (creating if absent) a badger database at path.
func NewBadgerBackend(path string) (*BadgerBackend, error) {
	db, err := badger.Open(badger.DefaultOptions(path).WithLogger(nil))
	if err != nil {
		return nil, err
	}
	return &BadgerBackend{db: db}, nil
}

func keyBytes(key uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, key)
	return b
}

func (b *BadgerBackend) Get(key uint64) (payload []byte, ok bool) {
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(keyBytes(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		payload, err = item.ValueCopy(nil)
		return err
	})
	return payload, err == nil && payload != nil
}

func (b *BadgerBackend) Put(key uint64, payload []byte) {
	_ = b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(keyBytes(key), payload)
	})
}

func (b *BadgerBackend) Delete(key uint64) {
	_ = b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(keyBytes(key))
	})
}

func (b *BadgerBackend) Close() error {
	return b.db.Close()
}
