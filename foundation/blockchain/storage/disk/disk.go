// Package disk implements the ability to persist the ledger on disk using
// a bolt database file.
package disk

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/velcoin/ledger/foundation/blockchain/accounts"
	"github.com/velcoin/ledger/foundation/blockchain/database"
	"github.com/velcoin/ledger/foundation/blockchain/mempool"
	"github.com/velcoin/ledger/foundation/blockchain/storage"
	"go.etcd.io/bbolt"
)

// Set of buckets held in the database file.
var (
	blocksBucket   = []byte("blocks")
	accountsBucket = []byte("accounts")
	mempoolBucket  = []byte("mempool")
)

// Disk represents the implementation for storing the ledger in a bolt
// database file. Each block is stored under its big endian number, each
// account under its id and each mempool entry under its big endian id,
// so iteration returns them in order. This implements the storage.Storage
// interface.
type Disk struct {
	db *bbolt.DB
}

// New opens or creates the database file at the specified path.
func New(dbPath string) (*Disk, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, err
	}

	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dbPath, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{blocksBucket, accountsBucket, mempoolBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("create bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Disk{db: db}, nil
}

// Close releases the database file.
func (d *Disk) Close() error {
	return d.db.Close()
}

// Load reads everything stored in the database file.
func (d *Disk) Load() (storage.Snapshot, error) {
	snapshot := storage.Snapshot{
		Accounts: make(map[database.AccountID]accounts.Info),
	}

	err := d.db.View(func(tx *bbolt.Tx) error {
		err := tx.Bucket(blocksBucket).ForEach(func(k, v []byte) error {
			var blockData database.BlockData
			if err := json.Unmarshal(v, &blockData); err != nil {
				return fmt.Errorf("block %d: %w", binary.BigEndian.Uint64(k), err)
			}
			snapshot.Blocks = append(snapshot.Blocks, blockData)
			return nil
		})
		if err != nil {
			return err
		}

		err = tx.Bucket(accountsBucket).ForEach(func(k, v []byte) error {
			var info accounts.Info
			if err := json.Unmarshal(v, &info); err != nil {
				return fmt.Errorf("account %s: %w", k, err)
			}
			snapshot.Accounts[database.AccountID(k)] = info
			return nil
		})
		if err != nil {
			return err
		}

		return tx.Bucket(mempoolBucket).ForEach(func(k, v []byte) error {
			var entry mempool.Entry
			if err := json.Unmarshal(v, &entry); err != nil {
				return fmt.Errorf("mempool entry %d: %w", binary.BigEndian.Uint64(k), err)
			}
			snapshot.Mempool = append(snapshot.Mempool, entry)
			return nil
		})
	})

	if err != nil {
		return storage.Snapshot{}, err
	}

	return snapshot, nil
}

// Admit writes the mempool entry.
func (d *Disk) Admit(entry mempool.Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	return d.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(mempoolBucket).Put(itob(entry.ID), data)
	})
}

// Commit writes the block, replaces the account table and deletes the
// mempool entries inside a single bolt transaction.
func (d *Disk) Commit(commit storage.Commit) error {
	blockData, err := json.Marshal(commit.Block)
	if err != nil {
		return err
	}

	return d.db.Update(func(tx *bbolt.Tx) error {
		blocks := tx.Bucket(blocksBucket)

		var last uint64
		if k, _ := blocks.Cursor().Last(); k != nil {
			last = binary.BigEndian.Uint64(k)
		}

		number := commit.Block.Header.Number
		if number != last+1 {
			return fmt.Errorf("block %d is out of order, last stored block %d", number, last)
		}

		if err := blocks.Put(itob(number), blockData); err != nil {
			return err
		}

		// The account table is replaced as a whole.
		if err := tx.DeleteBucket(accountsBucket); err != nil {
			return err
		}

		accts, err := tx.CreateBucket(accountsBucket)
		if err != nil {
			return err
		}

		for accountID, info := range commit.Accounts {
			data, err := json.Marshal(info)
			if err != nil {
				return err
			}

			if err := accts.Put([]byte(accountID), data); err != nil {
				return err
			}
		}

		pool := tx.Bucket(mempoolBucket)
		for _, id := range commit.Removed {
			if err := pool.Delete(itob(id)); err != nil {
				return err
			}
		}

		return nil
	})
}

// =============================================================================

// itob returns the big endian representation of the value.
func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}
