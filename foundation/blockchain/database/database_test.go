package database_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/velcoin/ledger/foundation/blockchain/database"
	"github.com/velcoin/ledger/foundation/blockchain/genesis"
	"github.com/velcoin/ledger/foundation/blockchain/signature"
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

const maxAmount = 1_000

func sign(t *testing.T, tx database.Tx) database.SignedTx {
	pk, err := crypto.HexToECDSA(pkHexKey)
	if err != nil {
		t.Fatalf("Should be able to load the private key: %s", err)
	}

	signedTx, err := tx.Sign(pk)
	if err != nil {
		t.Fatalf("Should be able to sign the transaction: %s", err)
	}

	return signedTx
}

func testGenesis() genesis.Genesis {
	return genesis.Genesis{
		Date:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Difficulty:  1,
		MaxTxAmount: maxAmount,
		Balances:    map[string]uint64{string(alice): 100},
	}
}

func mine(t *testing.T, prev database.Block, trans []database.BlockTx, difficulty uint16) database.Block {
	block, err := database.POW(context.Background(), database.POWArgs{
		PrevBlock:  prev,
		Trans:      trans,
		Difficulty: difficulty,
	})
	if err != nil {
		t.Fatalf("Should be able to mine a block: %s", err)
	}

	return block
}

// =============================================================================

func TestValidate(t *testing.T) {
	type table struct {
		name string
		tx   func(t *testing.T) database.SignedTx
		err  error
	}

	tt := []table{
		{
			name: "valid",
			tx:   func(t *testing.T) database.SignedTx { return sign(t, database.Tx{FromID: alice, ToID: bob, Amount: 10, Nonce: 1}) },
		},
		{
			name: "zero-amount",
			tx:   func(t *testing.T) database.SignedTx { return sign(t, database.Tx{FromID: alice, ToID: bob, Amount: 0, Nonce: 1}) },
			err:  database.ErrMalformedTransaction,
		},
		{
			name: "max-amount",
			tx: func(t *testing.T) database.SignedTx {
				return sign(t, database.Tx{FromID: alice, ToID: bob, Amount: maxAmount + 1, Nonce: 1})
			},
			err: database.ErrMalformedTransaction,
		},
		{
			name: "bad-to",
			tx: func(t *testing.T) database.SignedTx {
				tx := sign(t, database.Tx{FromID: alice, ToID: bob, Amount: 10, Nonce: 1})
				tx.ToID = "0xbob"
				return tx
			},
			err: database.ErrMalformedTransaction,
		},
		{
			name: "missing-key",
			tx: func(t *testing.T) database.SignedTx {
				tx := sign(t, database.Tx{FromID: alice, ToID: bob, Amount: 10, Nonce: 1})
				tx.PublicKey = ""
				return tx
			},
			err: database.ErrMalformedTransaction,
		},
		{
			name: "wrong-from",
			tx: func(t *testing.T) database.SignedTx {
				tx := sign(t, database.Tx{FromID: alice, ToID: bob, Amount: 10, Nonce: 1})
				tx.FromID = bob
				return tx
			},
			err: database.ErrAddressMismatch,
		},
		{
			name: "tampered-amount",
			tx: func(t *testing.T) database.SignedTx {
				tx := sign(t, database.Tx{FromID: alice, ToID: bob, Amount: 10, Nonce: 1})
				tx.Amount = 11
				return tx
			},
			err: database.ErrInvalidSignature,
		},
		{
			name: "tampered-nonce",
			tx: func(t *testing.T) database.SignedTx {
				tx := sign(t, database.Tx{FromID: alice, ToID: bob, Amount: 10, Nonce: 1})
				tx.Nonce = 2
				return tx
			},
			err: database.ErrInvalidSignature,
		},
		{
			name: "bad-signature-hex",
			tx: func(t *testing.T) database.SignedTx {
				tx := sign(t, database.Tx{FromID: alice, ToID: bob, Amount: 10, Nonce: 1})
				tx.Signature = "zz"
				return tx
			},
			err: database.ErrInvalidSignature,
		},
	}

	t.Log("Given the need to validate transactions before admission.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				err := tst.tx(t).Validate(maxAmount)

				switch {
				case tst.err == nil && err != nil:
					t.Fatalf("\t%s\tTest %d:\tShould accept the transaction: %v", failed, testID, err)
				case !errors.Is(err, tst.err):
					t.Logf("\t%s\tTest %d:\tgot: %v", failed, testID, err)
					t.Logf("\t%s\tTest %d:\texp: %v", failed, testID, tst.err)
					t.Fatalf("\t%s\tTest %d:\tShould get back the right error.", failed, testID)
				}
				t.Logf("\t%s\tTest %d:\tShould get back the right validation result.", success, testID)
			}

			t.Run(tst.name, f)
		}
	}
}

func TestKind(t *testing.T) {
	tx := database.SignedTx{Tx: database.Tx{FromID: alice, ToID: bob, Amount: 0, Nonce: 1}}

	if kind := database.Kind(tx.Validate(maxAmount)); kind != "MalformedTransaction" {
		t.Fatalf("\t%s\tShould map the error to its kind, got %q.", failed, kind)
	}

	if kind := database.Kind(errors.New("io")); kind != "" {
		t.Fatalf("\t%s\tShould not map unknown errors, got %q.", failed, kind)
	}
	t.Logf("\t%s\tShould map errors to their kinds.", success)
}

func TestGenesis(t *testing.T) {
	t.Log("Given the need to start a chain from genesis.")
	{
		gen := testGenesis()
		g := database.Genesis(gen)

		if g.Header.Number != 0 || len(g.Trans) != 0 || g.Header.PrevBlockHash != signature.ZeroHash {
			t.Fatalf("\t%s\tShould construct an empty block 0 linked to the zero hash: %+v", failed, g.Header)
		}
		t.Logf("\t%s\tShould construct an empty block 0 linked to the zero hash.", success)

		if g.Hash() != database.Genesis(gen).Hash() {
			t.Fatalf("\t%s\tShould construct the same genesis every time.", failed)
		}
		t.Logf("\t%s\tShould construct the same genesis every time.", success)

		chain := database.NewChain(g, gen.Difficulty)
		if chain.Height() != 1 {
			t.Fatalf("\t%s\tShould have a height of 1, got %d.", failed, chain.Height())
		}
		t.Logf("\t%s\tShould have a height of 1.", success)
	}
}

func TestAppend(t *testing.T) {
	gen := testGenesis()
	tx := database.NewBlockTx(sign(t, database.Tx{FromID: alice, ToID: bob, Amount: 10, Nonce: 1}))
	trans := []database.BlockTx{
		tx,
		database.NewBlockTx(sign(t, database.Tx{FromID: alice, ToID: bob, Amount: 10, Nonce: 2})),
		database.NewBlockTx(sign(t, database.Tx{FromID: alice, ToID: bob, Amount: 10, Nonce: 3})),
	}

	type table struct {
		name   string
		modify func(chain *database.Chain, bd database.BlockData) database.BlockData
		err    error
	}

	tt := []table{
		{
			name:   "valid",
			modify: func(chain *database.Chain, bd database.BlockData) database.BlockData { return bd },
		},
		{
			name: "wrong-parent",
			modify: func(chain *database.Chain, bd database.BlockData) database.BlockData {
				bd.Header.PrevBlockHash = signature.ZeroHash
				return bd
			},
			err: database.ErrChainLinkMismatch,
		},
		{
			name: "wrong-number",
			modify: func(chain *database.Chain, bd database.BlockData) database.BlockData {
				bd.Header.Number = 5
				return bd
			},
			err: database.ErrChainLinkMismatch,
		},
		{
			name: "unsolved",
			modify: func(chain *database.Chain, bd database.BlockData) database.BlockData {
				bd.Hash = "f" + bd.Hash[1:]
				return bd
			},
			err: database.ErrInvalidProofOfWork,
		},
		{
			name: "easier",
			modify: func(chain *database.Chain, bd database.BlockData) database.BlockData {
				bd.Header.Difficulty = 0
				return bd
			},
			err: database.ErrInvalidProofOfWork,
		},
		{
			name: "tampered-header",
			modify: func(chain *database.Chain, bd database.BlockData) database.BlockData {
				bd.Header.TimeStamp++
				return bd
			},
			err: database.ErrHashMismatch,
		},
		{
			name: "tampered-transactions",
			modify: func(chain *database.Chain, bd database.BlockData) database.BlockData {
				tampered := tx
				tampered.Amount = 99
				bd.Trans = []database.BlockTx{tampered}
				return bd
			},
			err: database.ErrHashMismatch,
		},
		{
			name: "tampered-duplicate-tail",
			modify: func(chain *database.Chain, bd database.BlockData) database.BlockData {
				dup := append([]database.BlockTx(nil), bd.Trans...)
				bd.Trans = append(dup, dup[len(dup)-1])
				return bd
			},
			err: database.ErrHashMismatch,
		},
	}

	t.Log("Given the need to only append valid blocks to the chain.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				chain := database.NewChain(database.Genesis(gen), gen.Difficulty)

				block := mine(t, chain.Tip(), trans, gen.Difficulty)
				bd := tst.modify(chain, database.NewBlockData(block))

				err := chain.Append(bd)
				switch {
				case tst.err == nil && err != nil:
					t.Fatalf("\t%s\tTest %d:\tShould append the block: %v", failed, testID, err)
				case !errors.Is(err, tst.err):
					t.Logf("\t%s\tTest %d:\tgot: %v", failed, testID, err)
					t.Logf("\t%s\tTest %d:\texp: %v", failed, testID, tst.err)
					t.Fatalf("\t%s\tTest %d:\tShould get back the right error.", failed, testID)
				}

				exp := uint64(1)
				if tst.err == nil {
					exp = 2
				}

				if chain.Height() != exp {
					t.Fatalf("\t%s\tTest %d:\tShould have a height of %d, got %d.", failed, testID, exp, chain.Height())
				}
				t.Logf("\t%s\tTest %d:\tShould only append valid blocks.", success, testID)
			}

			t.Run(tst.name, f)
		}
	}
}

func TestConfirmations(t *testing.T) {
	gen := testGenesis()
	gen.Difficulty = 0

	chain := database.NewChain(database.Genesis(gen), gen.Difficulty)
	for i := 0; i < 3; i++ {
		block := mine(t, chain.Tip(), nil, gen.Difficulty)
		if err := chain.Append(database.NewBlockData(block)); err != nil {
			t.Fatalf("\t%s\tShould be able to append block %d: %v", failed, i+1, err)
		}
	}

	t.Log("Given the need to count confirmations.")
	{
		exp := map[uint64]uint64{0: 3, 1: 2, 2: 1, 3: 0, 4: 0, 100: 0, math.MaxUint64: 0}
		for index, conf := range exp {
			for i := 0; i < 2; i++ {
				if got := chain.Confirmations(index); got != conf {
					t.Fatalf("\t%s\tShould have %d confirmations for block %d, got %d.", failed, conf, index, got)
				}
			}
		}
		t.Logf("\t%s\tShould count confirmations for every block.", success)

		if _, err := chain.Block(4); err == nil {
			t.Fatalf("\t%s\tShould not find a block past the tip.", failed)
		}
		t.Logf("\t%s\tShould not find a block past the tip.", success)
	}
}

func TestPOW(t *testing.T) {
	gen := testGenesis()
	prev := database.Genesis(gen)

	t.Log("Given the need to bound the proof of work search.")
	{
		block := mine(t, prev, nil, 2)
		if block.Hash()[:2] != "00" {
			t.Fatalf("\t%s\tShould solve the puzzle, got %s.", failed, block.Hash())
		}
		t.Logf("\t%s\tShould solve the puzzle.", success)

		_, err := database.POW(context.Background(), database.POWArgs{PrevBlock: prev, Difficulty: 64, MaxAttempts: 10})
		if !errors.Is(err, database.ErrSearchExhausted) {
			t.Fatalf("\t%s\tShould stop after the attempt cap: %v", failed, err)
		}
		t.Logf("\t%s\tShould stop after the attempt cap.", success)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err = database.POW(ctx, database.POWArgs{PrevBlock: prev, Difficulty: 64})
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("\t%s\tShould stop when cancelled: %v", failed, err)
		}
		t.Logf("\t%s\tShould stop when cancelled.", success)
	}
}

func TestAmount(t *testing.T) {
	type table struct {
		in  string
		out uint64
		fmt string
	}

	tt := []table{
		{in: "1", out: 100_000_000, fmt: "1"},
		{in: "12.5", out: 1_250_000_000, fmt: "12.5"},
		{in: "0.00000001", out: 1, fmt: "0.00000001"},
		{in: ".5", out: 50_000_000, fmt: "0.5"},
	}

	for testID, tst := range tt {
		got, err := database.ParseAmount(tst.in)
		if err != nil || got != tst.out {
			t.Fatalf("\t%s\tTest %d:\tShould parse %q to %d, got %d: %v", failed, testID, tst.in, tst.out, got, err)
		}

		if s := database.FormatAmount(got); s != tst.fmt {
			t.Fatalf("\t%s\tTest %d:\tShould format %d as %q, got %q.", failed, testID, got, tst.fmt, s)
		}
	}

	for _, bad := range []string{"", "-1", "1.123456789", "abc"} {
		if _, err := database.ParseAmount(bad); err == nil {
			t.Fatalf("\t%s\tShould reject amount %q.", failed, bad)
		}
	}
	t.Logf("\t%s\tShould convert amounts at the boundary.", success)
}
