package storage

import (
	"os"
	"path/filepath"
	"time"

	"github.com/boypt/folderwatch/tree"
	"github.com/c2h5oh/datasize"
	bolt "go.etcd.io/bbolt"
)

const boltFile = "snapshots.db"

var bucket = []byte("snapshots")

// BoltStore keeps all snapshots in a single bbolt database.
type BoltStore struct {
	db      *bolt.DB
	maxSize datasize.ByteSize
}

func OpenBolt(dir string, maxSize datasize.ByteSize) (*BoltStore, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(filepath.Join(dir, boltFile), 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}
	return &BoltStore{db: db, maxSize: maxSize}, nil
}

func (s *BoltStore) Load(key string) (*tree.Node, error) {
	var b []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucket).Get([]byte(key))
		if v == nil {
			return ErrNotFound
		}
		//v is only valid inside the transaction
		b = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return decode(key, b, s.maxSize)
}

func (s *BoltStore) Save(key string, n *tree.Node) error {
	b, err := encode(n)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Put([]byte(key), b)
	})
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
