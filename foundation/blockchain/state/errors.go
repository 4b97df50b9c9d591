package state

import (
	"errors"
	"fmt"

	"github.com/velcoin/ledger/foundation/blockchain/database"
)

// ErrNoValidTransactions is returned when a block is requested to be mined
// and no transaction in the mempool passes validation against the current
// accounts.
var ErrNoValidTransactions = errors.New("no valid transactions in mempool")

// PersistenceError is returned when storage fails to read or write. It is
// a fault of the node, not an outcome of validating the request.
type PersistenceError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (pe *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure: %s: %s", pe.Op, pe.Err)
}

// Unwrap provides access to the storage error.
func (pe *PersistenceError) Unwrap() error {
	return pe.Err
}

// IsPersistenceError checks if an error of type PersistenceError exists.
func IsPersistenceError(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}

// Kind returns the taxonomy name for the error or an empty string if the
// error is not one the ledger produces.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoValidTransactions):
		return "NoValidTransactions"
	case IsPersistenceError(err):
		return "PersistenceFailure"
	}

	return database.Kind(err)
}
