package accounts_test

import (
	"errors"
	"math"
	"testing"

	"github.com/velcoin/ledger/foundation/blockchain/accounts"
	"github.com/velcoin/ledger/foundation/blockchain/database"
	"github.com/velcoin/ledger/foundation/blockchain/genesis"
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

func tx(from, to database.AccountID, amount, nonce uint64) database.SignedTx {
	return database.SignedTx{
		Tx: database.Tx{FromID: from, ToID: to, Amount: amount, Nonce: nonce},
	}
}

// =============================================================================

func TestApplyTransaction(t *testing.T) {
	type table struct {
		name    string
		txs     []database.SignedTx
		results []error
		final   map[database.AccountID]accounts.Info
	}

	tt := []table{
		{
			name:    "basic",
			txs:     []database.SignedTx{tx(alice, bob, 10, 1)},
			results: []error{nil},
			final: map[database.AccountID]accounts.Info{
				alice: {Balance: 90, Nonce: 1},
				bob:   {Balance: 10},
			},
		},
		{
			name:    "nonce",
			txs:     []database.SignedTx{tx(alice, bob, 10, 5), tx(alice, bob, 10, 3), tx(alice, bob, 10, 5), tx(alice, bob, 10, 6)},
			results: []error{nil, database.ErrStaleNonce, database.ErrStaleNonce, nil},
			final: map[database.AccountID]accounts.Info{
				alice: {Balance: 80, Nonce: 6},
				bob:   {Balance: 20},
			},
		},
		{
			name:    "balance",
			txs:     []database.SignedTx{tx(alice, bob, 101, 1), tx(bob, alice, 1, 1), tx(alice, bob, 100, 1)},
			results: []error{database.ErrInsufficientBalance, database.ErrInsufficientBalance, nil},
			final: map[database.AccountID]accounts.Info{
				alice: {Balance: 0, Nonce: 1},
				bob:   {Balance: 100},
			},
		},
		{
			name:    "self",
			txs:     []database.SignedTx{tx(alice, alice, 50, 1)},
			results: []error{nil},
			final: map[database.AccountID]accounts.Info{
				alice: {Balance: 100, Nonce: 1},
			},
		},
	}

	t.Log("Given the need to validate the transactions.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling a set of accounts.", testID)
			{
				f := func(t *testing.T) {
					act := accounts.New(genesis.Genesis{Balances: map[string]uint64{string(alice): 100}})

					for i, tx := range tst.txs {
						err := act.ApplyTransaction(tx)
						if !errors.Is(err, tst.results[i]) {
							t.Logf("\t%s\tTest %d:\tgot: %v", failed, testID, err)
							t.Logf("\t%s\tTest %d:\texp: %v", failed, testID, tst.results[i])
							t.Fatalf("\t%s\tTest %d:\tShould get the right result for tx %d.", failed, testID, i)
						}
						t.Logf("\t%s\tTest %d:\tShould get the right result for tx %d.", success, testID, i)

						if act.Total() != 100 {
							t.Fatalf("\t%s\tTest %d:\tShould conserve the total supply, got %d.", failed, testID, act.Total())
						}
					}

					if !act.Equal(tst.final) {
						t.Logf("\t%s\tTest %d:\tgot: %v", failed, testID, act.Copy())
						t.Logf("\t%s\tTest %d:\texp: %v", failed, testID, tst.final)
						t.Fatalf("\t%s\tTest %d:\tShould have correct final accounts.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould have correct final accounts.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func TestOverflow(t *testing.T) {
	t.Log("Given the need to refuse a credit that overflows the receiver.")
	{
		act := accounts.FromMap(genesis.Genesis{}, map[database.AccountID]accounts.Info{
			alice: {Balance: 100, Nonce: 4},
			bob:   {Balance: math.MaxUint64 - 5},
		})

		if err := act.ApplyTransaction(tx(alice, bob, 10, 5)); !errors.Is(err, database.ErrMalformedTransaction) {
			t.Fatalf("\t%s\tShould refuse the overflowing credit: %v", failed, err)
		}
		t.Logf("\t%s\tShould refuse the overflowing credit.", success)

		if info, _ := act.Query(alice); info.Balance != 100 || info.Nonce != 4 {
			t.Fatalf("\t%s\tShould leave the sender untouched: %+v", failed, info)
		}
		if act.Balance(bob) != math.MaxUint64-5 {
			t.Fatalf("\t%s\tShould leave the receiver untouched: %d", failed, act.Balance(bob))
		}
		t.Logf("\t%s\tShould leave both accounts untouched.", success)

		if err := act.ApplyTransaction(tx(alice, alice, 100, 5)); err != nil {
			t.Fatalf("\t%s\tShould allow a transfer to self: %v", failed, err)
		}
		if info, _ := act.Query(alice); info.Balance != 100 || info.Nonce != 5 {
			t.Fatalf("\t%s\tShould only advance the nonce on a transfer to self: %+v", failed, info)
		}
		t.Logf("\t%s\tShould only advance the nonce on a transfer to self.", success)
	}
}

func TestClone(t *testing.T) {
	t.Log("Given the need to change a speculative copy of the accounts.")
	{
		act := accounts.New(genesis.Genesis{Balances: map[string]uint64{string(alice): 100}})

		pending := act.Clone()
		if err := pending.ApplyTransaction(tx(alice, bob, 40, 1)); err != nil {
			t.Fatalf("\t%s\tShould be able to apply a transaction to the clone: %v", failed, err)
		}

		if act.Balance(alice) != 100 || act.Nonce(alice) != 0 || act.Balance(bob) != 0 {
			t.Fatalf("\t%s\tShould not change the original accounts.", failed)
		}
		t.Logf("\t%s\tShould not change the original accounts.", success)

		act.Replace(pending)
		if act.Balance(alice) != 60 || act.Nonce(alice) != 1 || act.Balance(bob) != 40 {
			t.Fatalf("\t%s\tShould take over the clone on replace.", failed)
		}
		t.Logf("\t%s\tShould take over the clone on replace.", success)

		act.Reset()
		if act.Balance(alice) != 100 || act.Nonce(alice) != 0 {
			t.Fatalf("\t%s\tShould go back to genesis on reset.", failed)
		}
		t.Logf("\t%s\tShould go back to genesis on reset.", success)
	}
}
