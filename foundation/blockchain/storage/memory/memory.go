// Package memory implements the ability to persist the ledger in memory.
package memory

import (
	"errors"
	"maps"
	"slices"
	"sync"

	"github.com/velcoin/ledger/foundation/blockchain/accounts"
	"github.com/velcoin/ledger/foundation/blockchain/database"
	"github.com/velcoin/ledger/foundation/blockchain/mempool"
	"github.com/velcoin/ledger/foundation/blockchain/storage"
)

// Memory represents the implementation for storing the ledger in memory.
// This implements the storage.Storage interface.
type Memory struct {
	mu       sync.RWMutex
	blocks   []database.BlockData
	accounts map[database.AccountID]accounts.Info
	mempool  []mempool.Entry
}

// New constructs an empty Memory value for use.
func New() *Memory {
	return &Memory{
		accounts: make(map[database.AccountID]accounts.Info),
	}
}

// Close in this implementation has nothing to do since everything
// is in memory.
func (m *Memory) Close() error {
	return nil
}

// Load returns a copy of everything stored.
func (m *Memory) Load() (storage.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshot := storage.Snapshot{
		Blocks:   slices.Clone(m.blocks),
		Accounts: maps.Clone(m.accounts),
		Mempool:  slices.Clone(m.mempool),
	}

	return snapshot, nil
}

// Admit stores the mempool entry.
func (m *Memory) Admit(entry mempool.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.mempool = append(m.mempool, entry)

	return nil
}

// Commit stores the block and the accounts and deletes the mempool entries.
func (m *Memory) Commit(commit storage.Commit) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if int(commit.Block.Header.Number) != len(m.blocks)+1 {
		return errors.New("block is out of order")
	}

	m.blocks = append(m.blocks, commit.Block)
	m.accounts = maps.Clone(commit.Accounts)

	remove := make(map[uint64]struct{}, len(commit.Removed))
	for _, id := range commit.Removed {
		remove[id] = struct{}{}
	}

	m.mempool = slices.DeleteFunc(m.mempool, func(entry mempool.Entry) bool {
		_, exists := remove[entry.ID]
		return exists
	})

	return nil
}
