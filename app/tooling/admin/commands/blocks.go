package commands

import (
	"fmt"
	"strconv"

	"github.com/velcoin/ledger/foundation/blockchain/storage"
)

// Blocks prints the stored blocks, optionally starting at the specified
// block number.
func Blocks(args []string, strg storage.Storage) error {
	var from uint64
	if len(args) == 3 {
		var err error
		if from, err = strconv.ParseUint(args[2], 10, 64); err != nil {
			return fmt.Errorf("invalid block number: %w", err)
		}
	}

	snapshot, err := strg.Load()
	if err != nil {
		return err
	}

	for _, blk := range snapshot.Blocks {
		if blk.Header.Number < from {
			continue
		}

		fmt.Printf("Block: %d  Hash: %s  Prev: %s  Nonce: %d  Trans: %d\n",
			blk.Header.Number, blk.Hash, blk.Header.PrevBlockHash, blk.Header.Nonce, len(blk.Trans))

		for _, tx := range blk.Trans {
			fmt.Printf("  %s  %s -> %s  %d  nonce[%d]\n", tx.ID(), tx.FromID, tx.ToID, tx.Amount, tx.Nonce)
		}
	}

	return nil
}
