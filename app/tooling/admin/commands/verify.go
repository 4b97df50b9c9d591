package commands

import (
	"fmt"

	"github.com/velcoin/ledger/foundation/blockchain/genesis"
	"github.com/velcoin/ledger/foundation/blockchain/state"
	"github.com/velcoin/ledger/foundation/blockchain/storage"
	"go.uber.org/zap"
)

// Verify replays the stored chain from genesis the same way the node does
// at startup and reports the result.
func Verify(genesisPath string, strg storage.Storage, log *zap.SugaredLogger) error {
	gen, err := genesis.Load(genesisPath)
	if err != nil {
		return err
	}

	ev := func(v string, args ...any) {
		log.Infow(fmt.Sprintf(v, args...))
	}

	st, err := state.New(state.Config{
		Genesis:   gen,
		Storage:   strg,
		EvHandler: ev,
	})
	if err != nil {
		return err
	}

	latest := st.RetrieveLatestBlock()
	fmt.Printf("OK  Height: %d  Tip: %s  Mempool: %d\n", st.QueryHeight(), latest.Hash(), st.QueryMempoolLength())

	return nil
}
