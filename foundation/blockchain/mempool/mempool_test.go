package mempool_test

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/velcoin/ledger/foundation/blockchain/database"
	"github.com/velcoin/ledger/foundation/blockchain/mempool"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const (
	alice = database.AccountID("e67cc0d3278942abe26beec591da9a22df129493")
	bob   = database.AccountID("99e6dfd9cb8c18c2d145efa54ebdcc350699af15")
)

func sign(tx database.Tx) (database.BlockTx, error) {
	pk, err := crypto.HexToECDSA("fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959")
	if err != nil {
		return database.BlockTx{}, err
	}

	signedTx, err := tx.Sign(pk)
	if err != nil {
		return database.BlockTx{}, err
	}

	return database.NewBlockTx(signedTx), nil
}

func TestCRUD(t *testing.T) {
	type table struct {
		name string
		txs  []database.Tx
	}

	tt := []table{
		{
			name: "basic",
			txs: []database.Tx{
				{FromID: alice, ToID: bob, Amount: 10, Nonce: 2},
				{FromID: alice, ToID: bob, Amount: 50, Nonce: 3},
				{FromID: alice, ToID: bob, Amount: 100, Nonce: 1},
				{FromID: alice, ToID: bob, Amount: 10, Nonce: 1},
			},
		},
	}

	t.Log("Given the need to validate mempool api.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling a set of transaction.", testID)
			{
				f := func(t *testing.T) {
					mp := mempool.New(mempool.Config{MaxTxAmount: 1_000})

					for _, tx := range tst.txs {
						blockTx, err := sign(tx)
						if err != nil {
							t.Fatalf("\t%s\tTest %d:\tShould be able to sign transaction.", failed, testID)
						}
						t.Logf("\t%s\tTest %d:\tShould be able to sign transaction.", success, testID)

						if _, err := mp.Admit(blockTx); err != nil {
							t.Fatalf("\t%s\tTest %d:\tShould be able to add new transaction: %s", failed, testID, err)
						}
						t.Logf("\t%s\tTest %d:\tShould be able to add new transaction: %s", success, testID, blockTx)
					}

					for i, entry := range mp.Candidates() {
						if entry.Tx.Amount != tst.txs[i].Amount || entry.Tx.Nonce != tst.txs[i].Nonce {
							t.Logf("\t%s\tTest %d:\tgot: %d:%d", failed, testID, entry.Tx.Amount, entry.Tx.Nonce)
							t.Logf("\t%s\tTest %d:\texp: %d:%d", failed, testID, tst.txs[i].Amount, tst.txs[i].Nonce)
							t.Fatalf("\t%s\tTest %d:\tShould get back the transactions in admission order.", failed, testID)
						}
					}
					t.Logf("\t%s\tTest %d:\tShould get back the transactions in admission order.", success, testID)

					if mp.Count() != len(tst.txs) {
						t.Fatalf("\t%s\tTest %d:\tShould keep transactions after reading the candidates.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould keep transactions after reading the candidates.", success, testID)

					entries := mp.Copy()
					if n := mp.Remove(entries[1].ID, 9999); n != 1 {
						t.Fatalf("\t%s\tTest %d:\tShould be able to remove a transaction, removed %d.", failed, testID, n)
					}
					t.Logf("\t%s\tTest %d:\tShould be able to remove a transaction.", success, testID)

					exp := []uint64{entries[0].ID, entries[2].ID, entries[3].ID}
					for i, entry := range mp.Copy() {
						if entry.ID != exp[i] {
							t.Fatalf("\t%s\tTest %d:\tShould keep the order of the remaining transactions.", failed, testID)
						}
					}
					t.Logf("\t%s\tTest %d:\tShould keep the order of the remaining transactions.", success, testID)

					mp.Truncate()
					if mp.Count() != 0 {
						t.Fatalf("\t%s\tTest %d:\tShould be able to truncate mempool.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould be able to truncate mempool.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func TestAdmit(t *testing.T) {
	t.Log("Given the need to only admit well formed transactions.")
	{
		mp := mempool.New(mempool.Config{MaxTxAmount: 1_000, Capacity: 2})

		zero, err := sign(database.Tx{FromID: alice, ToID: bob, Amount: 0, Nonce: 1})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to sign transaction: %s", failed, err)
		}

		if _, err := mp.Admit(zero); !errors.Is(err, database.ErrMalformedTransaction) {
			t.Fatalf("\t%s\tShould reject a zero amount: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject a zero amount.", success)

		if mp.Count() != 0 {
			t.Fatalf("\t%s\tShould not add a rejected transaction.", failed)
		}
		t.Logf("\t%s\tShould not add a rejected transaction.", success)

		tx, err := sign(database.Tx{FromID: alice, ToID: bob, Amount: 5, Nonce: 1})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to sign transaction: %s", failed, err)
		}

		first, err := mp.Admit(tx)
		if err != nil {
			t.Fatalf("\t%s\tShould admit the transaction: %s", failed, err)
		}

		second, err := mp.Admit(tx)
		if err != nil {
			t.Fatalf("\t%s\tShould admit the same nonce twice: %s", failed, err)
		}

		if first.ID == second.ID {
			t.Fatalf("\t%s\tShould give every entry its own id.", failed)
		}
		t.Logf("\t%s\tShould admit the same nonce twice with their own ids.", success)

		if _, err := mp.Admit(tx); !errors.Is(err, mempool.ErrMempoolFull) {
			t.Fatalf("\t%s\tShould reject past capacity: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject past capacity.", success)
	}
}

func TestLoad(t *testing.T) {
	t.Log("Given the need to restore the mempool from storage.")
	{
		tx, err := sign(database.Tx{FromID: alice, ToID: bob, Amount: 5, Nonce: 1})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to sign transaction: %s", failed, err)
		}

		mp := mempool.New(mempool.Config{MaxTxAmount: 1_000})
		mp.Load([]mempool.Entry{{ID: 4, Tx: tx}, {ID: 7, Tx: tx}})

		entry, err := mp.Admit(tx)
		if err != nil {
			t.Fatalf("\t%s\tShould admit the transaction: %s", failed, err)
		}

		if entry.ID != 8 {
			t.Fatalf("\t%s\tShould continue ids after the loaded entries, got %d.", failed, entry.ID)
		}
		t.Logf("\t%s\tShould continue ids after the loaded entries.", success)
	}
}
