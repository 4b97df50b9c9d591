package worker_test

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/velcoin/ledger/foundation/blockchain/database"
	"github.com/velcoin/ledger/foundation/blockchain/genesis"
	"github.com/velcoin/ledger/foundation/blockchain/state"
	"github.com/velcoin/ledger/foundation/blockchain/storage/memory"
	"github.com/velcoin/ledger/foundation/blockchain/worker"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const (
	pkHexKey = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"
	alice    = database.AccountID("e67cc0d3278942abe26beec591da9a22df129493")
	bob      = database.AccountID("99e6dfd9cb8c18c2d145efa54ebdcc350699af15")
)

func ifErrFailNow(t *testing.T, err error) {
	t.Helper()

	if err != nil {
		t.Fatalf("\t%s\tShould not get an error: %s", failed, err)
	}
}

func TestMineOnSubmit(t *testing.T) {
	t.Log("Given the need to mine in the background.")
	{
		ev := func(v string, args ...any) { t.Logf(v, args...) }

		st, err := state.New(state.Config{
			Genesis: genesis.Genesis{
				Date:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
				Difficulty:  1,
				MaxTxAmount: 1_000,
				Balances:    map[string]uint64{string(alice): 100},
			},
			Storage:      memory.New(),
			MineOnSubmit: true,
			EvHandler:    ev,
		})
		ifErrFailNow(t, err)

		worker.Run(st, time.Minute, ev)

		pk, err := crypto.HexToECDSA(pkHexKey)
		ifErrFailNow(t, err)

		for nonce := uint64(1); nonce <= 3; nonce++ {
			tx, err := database.Tx{FromID: alice, ToID: bob, Amount: 10, Nonce: nonce}.Sign(pk)
			ifErrFailNow(t, err)

			_, err = st.SubmitTransaction(tx)
			ifErrFailNow(t, err)
		}

		deadline := time.Now().Add(10 * time.Second)
		for st.QueryMempoolLength() > 0 || st.QueryAccount(bob).Balance != 30 {
			if time.Now().After(deadline) {
				t.Fatalf("\t%s\tShould mine the submitted transactions.", failed)
			}
			time.Sleep(10 * time.Millisecond)
		}
		t.Logf("\t%s\tShould mine the submitted transactions.", success)

		if err := st.Shutdown(); err != nil {
			t.Fatalf("\t%s\tShould shutdown cleanly: %s", failed, err)
		}
		t.Logf("\t%s\tShould shutdown cleanly.", success)
	}
}
