package state

import (
	"encoding/hex"

	"github.com/velcoin/ledger/foundation/blockchain/accounts"
	"github.com/velcoin/ledger/foundation/blockchain/database"
)

// TxRecord represents a committed transaction and where it lives in the
// chain.
type TxRecord struct {
	Tx            database.BlockTx
	BlockNumber   uint64
	BlockHash     string
	Confirmations uint64
}

// MerkleProof represents the proof a committed transaction is part of the
// block that holds it.
type MerkleProof struct {
	TxRecord
	Leaf      string
	TransRoot string
	Proof     []string
	Order     []int64
}

// =============================================================================

// QueryAccount returns a copy of the account information. Accounts that
// have never transacted have a zero balance and nonce.
func (s *State) QueryAccount(accountID database.AccountID) accounts.Info {
	info, _ := s.accounts.Query(accountID)
	return info
}

// QueryAccounts returns a copy of every known account.
func (s *State) QueryAccounts() map[database.AccountID]accounts.Info {
	return s.accounts.Copy()
}

// QueryMempoolLength returns the current length of the mempool.
func (s *State) QueryMempoolLength() int {
	return s.mempool.Count()
}

// QueryHeight returns the number of blocks in the chain, genesis included.
func (s *State) QueryHeight() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.chain.Height()
}

// QueryConfirmations returns the number of blocks mined on top of the block
// with the specified number.
func (s *State) QueryConfirmations(number uint64) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.chain.Confirmations(number)
}

// QueryBlock returns the block with the specified number.
func (s *State) QueryBlock(number uint64) (database.Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.chain.Block(number)
}

// QueryBlocksByAccount returns the set of blocks by account. If the account
// is empty, all blocks are returned.
func (s *State) QueryBlocksByAccount(accountID database.AccountID) []database.Block {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.chain.BlocksByAccount(accountID)
}

// QueryTransactionsByAccount returns every committed transaction sent or
// received by the account, oldest first.
func (s *State) QueryTransactionsByAccount(accountID database.AccountID) []TxRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var recs []TxRecord
	for _, block := range s.chain.BlocksByAccount(accountID) {
		for i, tx := range block.Trans {
			if tx.FromID == accountID || tx.ToID == accountID {
				recs = append(recs, s.txRecord(block, i))
			}
		}
	}

	return recs
}

// QueryTransaction locates a committed transaction by its id.
func (s *State) QueryTransaction(id string) (TxRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	block, index, err := s.chain.FindTransaction(id)
	if err != nil {
		return TxRecord{}, err
	}

	return s.txRecord(block, index), nil
}

// QueryMerkleProof returns the proof the committed transaction with the
// specified id is part of its block.
func (s *State) QueryMerkleProof(id string) (MerkleProof, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	block, index, err := s.chain.FindTransaction(id)
	if err != nil {
		return MerkleProof{}, err
	}

	tree, err := block.MerkleTree()
	if err != nil {
		return MerkleProof{}, err
	}

	proof, order, err := tree.Proof(index)
	if err != nil {
		return MerkleProof{}, err
	}

	leaf, err := block.Trans[index].Hash()
	if err != nil {
		return MerkleProof{}, err
	}

	mp := MerkleProof{
		TxRecord:  s.txRecord(block, index),
		Leaf:      hex.EncodeToString(leaf),
		TransRoot: block.Header.TransRoot,
		Order:     order,
	}

	for _, p := range proof {
		mp.Proof = append(mp.Proof, hex.EncodeToString(p))
	}

	return mp, nil
}

// =============================================================================

// txRecord builds the record for the transaction. The caller must hold
// the lock.
func (s *State) txRecord(block database.Block, index int) TxRecord {
	return TxRecord{
		Tx:            block.Trans[index],
		BlockNumber:   block.Header.Number,
		BlockHash:     block.Hash(),
		Confirmations: s.chain.Confirmations(block.Header.Number),
	}
}
