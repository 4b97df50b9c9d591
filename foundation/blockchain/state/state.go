// Package state is the core API for the blockchain and implements all the
// business rules and processing.
package state

import (
	"errors"
	"fmt"
	"sync"

	"github.com/velcoin/ledger/foundation/blockchain/accounts"
	"github.com/velcoin/ledger/foundation/blockchain/database"
	"github.com/velcoin/ledger/foundation/blockchain/genesis"
	"github.com/velcoin/ledger/foundation/blockchain/mempool"
	"github.com/velcoin/ledger/foundation/blockchain/storage"
)

// =============================================================================

// EventHandler defines a function that is called when events
// occur in the processing of persisting blocks.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing support for mining.
type Worker interface {
	Shutdown()
	SignalStartMining()
	SignalCancelMining() (done func())
}

// =============================================================================

// Config represents the configuration required to start
// the blockchain node.
type Config struct {
	Genesis      genesis.Genesis
	Storage      storage.Storage
	MaxMempool   int    // Zero means the mempool is unbounded.
	MaxAttempts  uint64 // Zero means the proof of work is only bounded by cancellation.
	MineOnSubmit bool   // Signal the worker every time a transaction is admitted.
	EvHandler    EventHandler
}

// State manages the blockchain database. The mu lock covers reading a
// consistent snapshot and committing a block. The mineMu lock allows only
// one mining attempt at a time so two attempts never build on the same
// parent. The proof of work runs without holding mu.
type State struct {
	mineOnSubmit bool
	maxAttempts  uint64
	evHandler    EventHandler

	mu     sync.RWMutex
	mineMu sync.Mutex

	genesis  genesis.Genesis
	storage  storage.Storage
	accounts *accounts.Accounts
	mempool  *mempool.Mempool
	chain    *database.Chain

	Worker Worker
}

// New constructs a new blockchain for data management. Blocks found in
// storage are validated and applied again from genesis. The accounts this
// produces must match the persisted accounts or the node refuses to start.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	if cfg.Storage == nil {
		return nil, errors.New("storage is required")
	}

	if err := cfg.Genesis.Validate(); err != nil {
		return nil, fmt.Errorf("genesis: %w", err)
	}

	snapshot, err := cfg.Storage.Load()
	if err != nil {
		return nil, &PersistenceError{Op: "load", Err: err}
	}

	chain := database.NewChain(database.Genesis(cfg.Genesis), cfg.Genesis.Difficulty)
	act := accounts.New(cfg.Genesis)

	ev("state: New: replay: blocks[%d]", len(snapshot.Blocks))

	for _, blockData := range snapshot.Blocks {
		if err := replayBlock(chain, act, cfg.Genesis.MaxTxAmount, blockData); err != nil {
			return nil, fmt.Errorf("replay blk[%d]: %w", blockData.Header.Number, err)
		}
	}

	if len(snapshot.Blocks) > 0 && !act.Equal(snapshot.Accounts) {
		return nil, errors.New("replay: accounts rebuilt from the chain do not match the stored accounts")
	}

	mp := mempool.New(mempool.Config{
		MaxTxAmount: cfg.Genesis.MaxTxAmount,
		Capacity:    cfg.MaxMempool,
	})
	mp.Load(snapshot.Mempool)

	ev("state: New: height[%d]: mempool[%d]", chain.Height(), mp.Count())

	// Create the State to provide support for managing the blockchain.
	state := State{
		mineOnSubmit: cfg.MineOnSubmit,
		maxAttempts:  cfg.MaxAttempts,
		evHandler:    ev,

		genesis:  cfg.Genesis,
		storage:  cfg.Storage,
		accounts: act,
		mempool:  mp,
		chain:    chain,
	}

	// The Worker is not set here. The call to worker.Run will assign itself
	// and start everything up and running for the node.

	return &state, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {
	s.evHandler("state: shutdown: started")
	defer s.evHandler("state: shutdown: completed")

	// Stop all blockchain writing activity.
	if s.Worker != nil {
		s.Worker.Shutdown()
	}

	// Wait for a mining attempt that was not started by the worker.
	s.mineMu.Lock()
	defer s.mineMu.Unlock()

	return s.storage.Close()
}

// =============================================================================

// replayBlock appends a stored block to the chain and applies its
// transactions to the accounts. Any failure means the stored chain is
// corrupt.
func replayBlock(chain *database.Chain, act *accounts.Accounts, maxTxAmount uint64, blockData database.BlockData) error {
	if err := chain.Append(blockData); err != nil {
		return err
	}

	for _, tx := range blockData.Trans {
		if err := tx.Validate(maxTxAmount); err != nil {
			return fmt.Errorf("tx[%s]: %w", tx, err)
		}

		if err := act.ApplyTransaction(tx.SignedTx); err != nil {
			return fmt.Errorf("tx[%s]: %w", tx, err)
		}
	}

	return nil
}
