// Package commands contains the functionality for the set of commands
// currently supported by the admin tool.
package commands

import (
	"fmt"
	"sort"

	"github.com/velcoin/ledger/foundation/blockchain/database"
	"github.com/velcoin/ledger/foundation/blockchain/storage"
)

// Balances prints the stored account table. An account can be specified
// to only print that account.
func Balances(args []string, strg storage.Storage) error {
	var onlyAct database.AccountID
	if len(args) == 3 {
		var err error
		if onlyAct, err = database.ToAccountID(args[2]); err != nil {
			return err
		}
	}

	snapshot, err := strg.Load()
	if err != nil {
		return err
	}

	fmt.Printf("Blocks: %d  Mempool: %d\n\n", len(snapshot.Blocks), len(snapshot.Mempool))

	ids := make([]database.AccountID, 0, len(snapshot.Accounts))
	for accountID := range snapshot.Accounts {
		if onlyAct != "" && onlyAct != accountID {
			continue
		}
		ids = append(ids, accountID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, accountID := range ids {
		info := snapshot.Accounts[accountID]
		fmt.Printf("Account: %s  Balance: %s  Nonce: %d\n", accountID, database.FormatAmount(info.Balance), info.Nonce)
	}

	return nil
}
