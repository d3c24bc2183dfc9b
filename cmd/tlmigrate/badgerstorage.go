package main

// The badger storage backend predates the GORM registry. It only survives
// here so that old instances can be migrated.

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/vmihailenco/msgpack/v5"
)

// NewBadgerStorage opens the legacy badger database at the passed storage
// location.
func NewBadgerStorage(path string) (*BadgerStorage, error) {
	storage := &BadgerStorage{Path: path}
	err := storage.Load()
	return storage, err
}

// BadgerStorage is the legacy badger database.
type BadgerStorage struct {
	*badger.DB
	Path   string
	loaded bool
}

// Load loads the database
func (store *BadgerStorage) Load() error {
	if store.loaded {
		return nil
	}
	db, err := badger.Open(badger.DefaultOptions(store.Path).WithReadOnly(true))
	if err != nil {
		return err
	}
	store.DB = db
	store.loaded = true
	return nil
}

// Read reads the value for a given key into target
func (store *BadgerStorage) Read(key string, target any) (bool, error) {
	var notFound bool
	err := store.View(
		func(txn *badger.Txn) error {
			item, err := txn.Get([]byte(key))
			if errors.Is(err, badger.ErrKeyNotFound) {
				notFound = true
				return fmt.Errorf("'%s' not found", key)
			}

			return item.Value(
				func(val []byte) error {
					return msgpack.Unmarshal(val, target)
				},
			)
		},
	)
	return !notFound, err
}

// BadgerSubStorage is a keyspace within the legacy database
type BadgerSubStorage struct {
	db     *BadgerStorage
	subKey string
}

// CertificateStorage gives a BadgerSubStorage over the legacy certificate
// keyspace
func (store *BadgerStorage) CertificateStorage() *BadgerSubStorage {
	return &BadgerSubStorage{
		db:     store,
		subKey: "certificates",
	}
}

func (store *BadgerSubStorage) key(key string) string {
	return store.subKey + ":" + key
}

// Read reads the value for a given key into target
func (store *BadgerSubStorage) Read(key string, target any) (bool, error) {
	return store.db.Read(store.key(key), target)
}

// ReadIterator uses the passed iterator function do iterate over all the key-value-pairs in this sub storage
func (store *BadgerSubStorage) ReadIterator(do func(k, v []byte) error, prefix ...string) error {
	var prfx string
	if len(prefix) > 0 {
		prfx = prefix[0]
	}
	return store.db.View(
		func(txn *badger.Txn) error {
			it := txn.NewIterator(badger.DefaultIteratorOptions)
			defer it.Close()
			scanPrefix := []byte(store.subKey + ":" + prfx)
			for it.Seek(scanPrefix); it.ValidForPrefix(scanPrefix); it.Next() {
				item := it.Item()
				k := item.Key()
				err := item.Value(
					func(v []byte) error {
						return do(k, v)
					},
				)
				if err != nil {
					return err
				}
			}
			return nil
		},
	)
}
