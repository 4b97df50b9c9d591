package state

import (
	"github.com/velcoin/ledger/foundation/blockchain/database"
	"github.com/velcoin/ledger/foundation/blockchain/mempool"
)

// SubmitTransaction accepts a transaction from a wallet for inclusion. The
// stateless checks run here, the balance and nonce of the sender are only
// checked when the transaction is mined. Nothing is added to the mempool
// if the entry can't be persisted.
func (s *State) SubmitTransaction(signedTx database.SignedTx) (mempool.Entry, error) {
	entry, err := s.admit(database.NewBlockTx(signedTx))
	if err != nil {
		return mempool.Entry{}, err
	}

	s.evHandler("state: SubmitTransaction: admitted: id[%d]: tx[%s]", entry.ID, signedTx)

	if s.mineOnSubmit && s.Worker != nil {
		s.Worker.SignalStartMining()
	}

	return entry, nil
}

// admit adds the transaction to the mempool and storage under the lock so
// the write can't interleave with a block commit.
func (s *State) admit(tx database.BlockTx) (mempool.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.mempool.Admit(tx)
	if err != nil {
		return mempool.Entry{}, err
	}

	if err := s.storage.Admit(entry); err != nil {
		s.mempool.Remove(entry.ID)
		return mempool.Entry{}, &PersistenceError{Op: "admit", Err: err}
	}

	return entry, nil
}
