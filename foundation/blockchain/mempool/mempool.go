// Package mempool maintains the mempool for the blockchain.
package mempool

import (
	"errors"
	"fmt"
	"sync"

	"github.com/velcoin/ledger/foundation/blockchain/database"
)

// ErrMempoolFull is returned when the mempool holds its configured number
// of transactions.
var ErrMempoolFull = errors.New("mempool is full")

// Entry is a transaction waiting in the mempool. The id is assigned on
// admission and identifies the entry even when two entries carry the same
// transaction.
type Entry struct {
	ID uint64           `json:"id"`
	Tx database.BlockTx `json:"tx"`
}

// Config represents the configuration required to construct a mempool.
type Config struct {
	MaxTxAmount uint64 // Largest amount a transaction can move.
	Capacity    int    // Zero means the mempool is unbounded.
}

// Mempool represents the transactions admitted but not yet committed, kept
// in the order they were admitted. There is no deduplication on nonce, the
// miner decides which of the competing transactions is committed.
type Mempool struct {
	maxTxAmount uint64
	capacity    int

	mu      sync.RWMutex
	entries []Entry
	nextID  uint64
}

// New constructs a new, empty mempool.
func New(cfg Config) *Mempool {
	return &Mempool{
		maxTxAmount: cfg.MaxTxAmount,
		capacity:    cfg.Capacity,
		nextID:      1,
	}
}

// Count returns the current number of transaction in the pool.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.entries)
}

// Admit runs the stateless checks on the transaction and, if they pass,
// appends it to the end of the pool. The balance and nonce of the sender
// are not looked at here, that happens when the transaction is mined.
func (mp *Mempool) Admit(tx database.BlockTx) (Entry, error) {
	if err := tx.Validate(mp.maxTxAmount); err != nil {
		return Entry{}, err
	}

	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.capacity > 0 && len(mp.entries) >= mp.capacity {
		return Entry{}, fmt.Errorf("%w: capacity %d", ErrMempoolFull, mp.capacity)
	}

	entry := Entry{
		ID: mp.nextID,
		Tx: tx,
	}
	mp.nextID++
	mp.entries = append(mp.entries, entry)

	return entry, nil
}

// Candidates returns the pending entries in admission order without
// removing them.
func (mp *Mempool) Candidates() []Entry {
	return mp.Copy()
}

// Remove purges the entries with the specified ids. The remaining entries
// keep their order. The number of removed entries is returned.
func (mp *Mempool) Remove(ids ...uint64) int {
	if len(ids) == 0 {
		return 0
	}

	remove := make(map[uint64]struct{}, len(ids))
	for _, id := range ids {
		remove[id] = struct{}{}
	}

	mp.mu.Lock()
	defer mp.mu.Unlock()

	kept := mp.entries[:0]
	for _, entry := range mp.entries {
		if _, exists := remove[entry.ID]; !exists {
			kept = append(kept, entry)
		}
	}

	removed := len(mp.entries) - len(kept)

	// Clear the tail so the dropped transactions can be collected.
	clear(mp.entries[len(kept):])
	mp.entries = kept

	return removed
}

// Copy returns a copy of the entries in admission order.
func (mp *Mempool) Copy() []Entry {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return append([]Entry(nil), mp.entries...)
}

// Load replaces the pool with previously persisted entries. The entries
// are expected in admission order. New ids continue after the highest
// loaded id.
func (mp *Mempool) Load(entries []Entry) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.entries = append([]Entry(nil), entries...)
	mp.nextID = 1
	for _, entry := range entries {
		if entry.ID >= mp.nextID {
			mp.nextID = entry.ID + 1
		}
	}
}

// Truncate clears all the transactions from the pool.
func (mp *Mempool) Truncate() {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.entries = nil
}
