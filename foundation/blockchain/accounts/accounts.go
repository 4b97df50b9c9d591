// Package accounts maintains account balances and the last committed nonce
// for every account.
package accounts

import (
	"fmt"
	"math"
	"sync"

	"github.com/velcoin/ledger/foundation/blockchain/database"
	"github.com/velcoin/ledger/foundation/blockchain/genesis"
)

// Info represents information stored for an individual account.
type Info struct {
	Balance uint64 `json:"balance"` // Balance in minor units.
	Nonce   uint64 `json:"nonce"`   // Last committed nonce, zero before the first send.
}

// Accounts manages data related to accounts who have transacted on
// the blockchain. An account exists implicitly from its first credit or
// debit.
type Accounts struct {
	genesis genesis.Genesis
	info    map[database.AccountID]Info
	mu      sync.RWMutex
}

// New constructs the accounts with the genesis balances applied.
func New(genesis genesis.Genesis) *Accounts {
	act := Accounts{
		genesis: genesis,
	}
	act.info = genesisInfo(genesis)

	return &act
}

// Reset re-initializes the accounts back to the genesis information.
func (act *Accounts) Reset() {
	act.mu.Lock()
	defer act.mu.Unlock()

	act.info = genesisInfo(act.genesis)
}

// Replace updates the accounts based on the specified accounts.
func (act *Accounts) Replace(accounts *Accounts) {
	info := accounts.Copy()

	act.mu.Lock()
	defer act.mu.Unlock()

	act.info = info
}

// Clone makes a copy of the current accounts that can be changed without
// affecting the original.
func (act *Accounts) Clone() *Accounts {
	return &Accounts{
		genesis: act.genesis,
		info:    act.Copy(),
	}
}

// Copy makes a copy of the current information for all accounts.
func (act *Accounts) Copy() map[database.AccountID]Info {
	act.mu.RLock()
	defer act.mu.RUnlock()

	accounts := make(map[database.AccountID]Info, len(act.info))
	for accountID, info := range act.info {
		accounts[accountID] = info
	}
	return accounts
}

// Query returns the information for the specified account.
func (act *Accounts) Query(accountID database.AccountID) (Info, bool) {
	act.mu.RLock()
	defer act.mu.RUnlock()

	info, exists := act.info[accountID]
	return info, exists
}

// Balance returns the balance of the specified account.
func (act *Accounts) Balance(accountID database.AccountID) uint64 {
	info, _ := act.Query(accountID)
	return info.Balance
}

// Nonce returns the last committed nonce of the specified account.
func (act *Accounts) Nonce(accountID database.AccountID) uint64 {
	info, _ := act.Query(accountID)
	return info.Nonce
}

// Total returns the sum of all balances.
func (act *Accounts) Total() uint64 {
	act.mu.RLock()
	defer act.mu.RUnlock()

	var total uint64
	for _, info := range act.info {
		total += info.Balance
	}
	return total
}

// Equal reports whether the accounts hold the same information as the
// specified set. Accounts holding zero values are ignored on both sides.
func (act *Accounts) Equal(other map[database.AccountID]Info) bool {
	mine := act.Copy()

	for accountID, info := range mine {
		if info != (Info{}) && other[accountID] != info {
			return false
		}
	}

	for accountID, info := range other {
		if info != (Info{}) && mine[accountID] != info {
			return false
		}
	}

	return true
}

// =============================================================================

// ValidateTransaction checks the transaction against the current balance
// and nonce of the sender.
func (act *Accounts) ValidateTransaction(tx database.SignedTx) error {
	act.mu.RLock()
	defer act.mu.RUnlock()

	return act.validate(tx)
}

// ApplyTransaction validates the transaction against the current state and
// moves the amount from the sender to the receiver, recording the nonce.
// Nothing changes when validation fails.
func (act *Accounts) ApplyTransaction(tx database.SignedTx) error {
	act.mu.Lock()
	defer act.mu.Unlock()

	if err := act.validate(tx); err != nil {
		return err
	}

	// A transfer to self never overflows, the amount is debited first.
	if tx.ToID != tx.FromID {
		if to := act.info[tx.ToID]; to.Balance > math.MaxUint64-tx.Amount {
			return fmt.Errorf("%w: balance of %s overflows", database.ErrMalformedTransaction, tx.ToID)
		}
	}

	from := act.info[tx.FromID]
	from.Balance -= tx.Amount
	from.Nonce = tx.Nonce
	act.info[tx.FromID] = from

	to := act.info[tx.ToID]
	to.Balance += tx.Amount
	act.info[tx.ToID] = to

	return nil
}

// validate performs the state checks. The caller must hold the lock.
func (act *Accounts) validate(tx database.SignedTx) error {
	from := act.info[tx.FromID]

	if from.Balance < tx.Amount {
		return fmt.Errorf("%w: %s has %d, needs %d", database.ErrInsufficientBalance, tx.FromID, from.Balance, tx.Amount)
	}

	if tx.Nonce <= from.Nonce {
		return fmt.Errorf("%w: %s last nonce %d, got %d", database.ErrStaleNonce, tx.FromID, from.Nonce, tx.Nonce)
	}

	return nil
}

// =============================================================================

// genesisInfo builds the account information from the genesis balances.
func genesisInfo(genesis genesis.Genesis) map[database.AccountID]Info {
	info := make(map[database.AccountID]Info, len(genesis.Balances))
	for addr, balance := range genesis.Balances {
		info[database.AccountID(addr)] = Info{Balance: balance}
	}
	return info
}

// FromMap constructs accounts from a previously persisted set of account
// information.
func FromMap(genesis genesis.Genesis, info map[database.AccountID]Info) *Accounts {
	act := Accounts{
		genesis: genesis,
		info:    make(map[database.AccountID]Info, len(info)),
	}

	for accountID, i := range info {
		act.info[accountID] = i
	}

	return &act
}
