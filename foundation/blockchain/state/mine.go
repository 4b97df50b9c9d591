package state

import (
	"context"
	"errors"

	"github.com/velcoin/ledger/foundation/blockchain/accounts"
	"github.com/velcoin/ledger/foundation/blockchain/database"
	"github.com/velcoin/ledger/foundation/blockchain/mempool"
	"github.com/velcoin/ledger/foundation/blockchain/storage"
)

// MineNewBlock attempts to create a new block with a proper hash that can
// become the next block in the chain. The candidates are walked in
// admission order against a private copy of the accounts, so a later
// transaction from the same sender sees the effects of the earlier ones.
// Candidates with a stale nonce can never be mined and are dropped from the
// mempool when the block is committed. Candidates without enough balance
// stay for a later attempt.
func (s *State) MineNewBlock(ctx context.Context) (database.Block, error) {
	s.mineMu.Lock()
	defer s.mineMu.Unlock()

	s.evHandler("state: MineNewBlock: MINING: take snapshot")

	s.mu.RLock()
	tip := s.chain.Tip()
	candidates := s.mempool.Candidates()
	pending := s.accounts.Clone()
	s.mu.RUnlock()

	s.evHandler("state: MineNewBlock: MINING: select transactions: candidates[%d]", len(candidates))

	trans, selected, stale := s.selectTransactions(pending, candidates)
	if len(trans) == 0 {
		return database.Block{}, ErrNoValidTransactions
	}

	s.evHandler("state: MineNewBlock: MINING: perform POW: trans[%d]", len(trans))

	// Attempt to create a new block by solving the POW puzzle. This can be
	// cancelled.
	block, err := database.POW(ctx, database.POWArgs{
		PrevBlock:   tip,
		Trans:       trans,
		Difficulty:  s.genesis.Difficulty,
		MaxAttempts: s.maxAttempts,
		EvHandler:   s.evHandler,
	})
	if err != nil {
		return database.Block{}, err
	}

	// Just check one more time we were not cancelled.
	if ctx.Err() != nil {
		return database.Block{}, ctx.Err()
	}

	s.evHandler("state: MineNewBlock: MINING: commit block")

	if err := s.commitBlock(block, pending, selected, stale); err != nil {
		return database.Block{}, err
	}

	return block, nil
}

// =============================================================================

// selectTransactions applies the candidates to the pending accounts and
// returns the transactions that can be mined with the ids of their entries,
// and the ids of the entries whose nonce is stale.
func (s *State) selectTransactions(pending *accounts.Accounts, candidates []mempool.Entry) ([]database.BlockTx, []uint64, []uint64) {
	var trans []database.BlockTx
	var selected []uint64
	var stale []uint64

	for _, entry := range candidates {
		err := pending.ApplyTransaction(entry.Tx.SignedTx)
		switch {
		case err == nil:
			trans = append(trans, entry.Tx)
			selected = append(selected, entry.ID)

		// The balance is checked first, an entry short on balance can still
		// carry a nonce that will never be valid again.
		case errors.Is(err, database.ErrStaleNonce),
			entry.Tx.Nonce <= pending.Nonce(entry.Tx.FromID):
			s.evHandler("state: MineNewBlock: MINING: drop: id[%d]: %s", entry.ID, err)
			stale = append(stale, entry.ID)

		default:
			s.evHandler("state: MineNewBlock: MINING: skip: id[%d]: %s", entry.ID, err)
		}
	}

	return trans, selected, stale
}

// commitBlock validates the block against the chain, persists it and then
// swaps in the pending accounts, appends the block and removes the mined
// and stale entries from the mempool. Nothing changes in memory if the
// block can't be persisted.
func (s *State) commitBlock(block database.Block, pending *accounts.Accounts, selected []uint64, stale []uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	blockData := database.NewBlockData(block)

	if err := s.chain.Validate(blockData); err != nil {
		return err
	}

	commit := storage.Commit{
		Block:    blockData,
		Accounts: pending.Copy(),
		Removed:  append(append([]uint64(nil), selected...), stale...),
	}

	if err := s.storage.Commit(commit); err != nil {
		return &PersistenceError{Op: "commit", Err: err}
	}

	if err := s.chain.Append(blockData); err != nil {
		return err
	}

	s.accounts.Replace(pending)

	n := s.mempool.Remove(selected...)
	s.evHandler("state: MineNewBlock: MINING: blk[%d]: removed mined[%d]", block.Header.Number, n)

	if len(stale) > 0 {
		n = s.mempool.Remove(stale...)
		s.evHandler("state: MineNewBlock: MINING: blk[%d]: dropped stale[%d]", block.Header.Number, n)
	}

	return nil
}
