package state

import (
	"github.com/velcoin/ledger/foundation/blockchain/database"
	"github.com/velcoin/ledger/foundation/blockchain/genesis"
	"github.com/velcoin/ledger/foundation/blockchain/mempool"
)

// RetrieveGenesis returns a copy of the genesis information.
func (s *State) RetrieveGenesis() genesis.Genesis {
	return s.genesis
}

// RetrieveLatestBlock returns a copy the current latest block.
func (s *State) RetrieveLatestBlock() database.Block {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.chain.Tip()
}

// RetrieveMempool returns a copy of the mempool in admission order.
func (s *State) RetrieveMempool() []mempool.Entry {
	return s.mempool.Copy()
}
