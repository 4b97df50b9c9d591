// Package storage defines the contract for persisting the ledger. The
// chain, the account table and the mempool are written together so a crash
// can never leave a block whose effects are missing from the accounts.
package storage

import (
	"github.com/velcoin/ledger/foundation/blockchain/accounts"
	"github.com/velcoin/ledger/foundation/blockchain/database"
	"github.com/velcoin/ledger/foundation/blockchain/mempool"
)

// Storage is the behavior required to persist the ledger.
type Storage interface {

	// Load returns everything persisted so far. An empty store returns an
	// empty snapshot.
	Load() (Snapshot, error)

	// Admit records a transaction entering the mempool.
	Admit(entry mempool.Entry) error

	// Commit writes a mined block, the account table after the block and
	// the removal of mempool entries as one unit. Either all of it is
	// persisted or none of it is.
	Commit(commit Commit) error

	Close() error
}

// Snapshot represents the persisted ledger.
type Snapshot struct {
	Blocks   []database.BlockData                 // Blocks after genesis in chain order.
	Accounts map[database.AccountID]accounts.Info // Account table after the last block.
	Mempool  []mempool.Entry                      // Pending entries in admission order.
}

// Commit represents the writes required to record a mined block.
type Commit struct {
	Block    database.BlockData
	Accounts map[database.AccountID]accounts.Info
	Removed  []uint64 // Ids of the mempool entries to delete.
}
