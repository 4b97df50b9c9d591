package public

import (
	"github.com/velcoin/ledger/foundation/blockchain/database"
	"github.com/velcoin/ledger/foundation/blockchain/mempool"
	"github.com/velcoin/ledger/foundation/blockchain/state"
	"github.com/velcoin/ledger/foundation/nameservice"
)

// submitTx is the transaction a wallet submits. Amounts are in minor units.
type submitTx struct {
	From      database.AccountID `json:"from" validate:"required,len=40"`
	To        database.AccountID `json:"to" validate:"required,len=40"`
	Amount    uint64             `json:"amount" validate:"required"`
	Nonce     uint64             `json:"nonce"`
	PublicKey string             `json:"public_key" validate:"required"`
	Signature string             `json:"signature" validate:"required"`
}

func (st submitTx) toSignedTx() database.SignedTx {
	return database.SignedTx{
		Tx: database.Tx{
			FromID: st.From,
			ToID:   st.To,
			Amount: st.Amount,
			Nonce:  st.Nonce,
		},
		PublicKey: st.PublicKey,
		Signature: st.Signature,
	}
}

// validationResult tells the submitter if the transaction was admitted.
type validationResult struct {
	Accepted  bool              `json:"accepted"`
	ErrorKind string            `json:"error_kind,omitempty"`
	Error     string            `json:"error,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
	ID        uint64            `json:"mempool_id,omitempty"`
	TxHash    string            `json:"tx_hash,omitempty"`
}

type status struct {
	Network     string `json:"network"`
	Symbol      string `json:"symbol"`
	Height      uint64 `json:"height"`
	LatestBlock string `json:"latest_block"`
	Difficulty  uint16 `json:"difficulty"`
	Uncommitted int    `json:"uncommitted"`
}

type info struct {
	Account database.AccountID `json:"account"`
	Name    string             `json:"name"`
	Balance uint64             `json:"balance"`
	Amount  string             `json:"amount"`
	Symbol  string             `json:"symbol"`
	Nonce   uint64             `json:"nonce"`
}

type actInfo struct {
	LatestBlock string `json:"latest_block"`
	Uncommitted int    `json:"uncommitted"`
	Accounts    []info `json:"accounts"`
}

type tx struct {
	ID          string             `json:"id"`
	MempoolID   uint64             `json:"mempool_id,omitempty"`
	FromAccount database.AccountID `json:"from"`
	FromName    string             `json:"from_name"`
	To          database.AccountID `json:"to"`
	ToName      string             `json:"to_name"`
	Amount      uint64             `json:"amount"`
	Nonce       uint64             `json:"nonce"`
	PublicKey   string             `json:"public_key"`
	Signature   string             `json:"signature"`
	TimeStamp   uint64             `json:"timestamp"`
}

func toTx(ns *nameservice.NameService, blkTx database.BlockTx) tx {
	return tx{
		ID:          blkTx.ID(),
		FromAccount: blkTx.FromID,
		FromName:    ns.Lookup(blkTx.FromID),
		To:          blkTx.ToID,
		ToName:      ns.Lookup(blkTx.ToID),
		Amount:      blkTx.Amount,
		Nonce:       blkTx.Nonce,
		PublicKey:   blkTx.PublicKey,
		Signature:   blkTx.Signature,
		TimeStamp:   blkTx.TimeStamp,
	}
}

func toMempoolTx(ns *nameservice.NameService, entry mempool.Entry) tx {
	t := toTx(ns, entry.Tx)
	t.MempoolID = entry.ID
	return t
}

type block struct {
	Number        uint64 `json:"index"`
	TimeStamp     uint64 `json:"timestamp"`
	PrevBlockHash string `json:"previous_hash"`
	Nonce         uint64 `json:"nonce"`
	Difficulty    uint16 `json:"difficulty"`
	TransRoot     string `json:"trans_root"`
	BlockHash     string `json:"block_hash"`
	Transactions  []tx   `json:"transactions"`
}

func toBlock(ns *nameservice.NameService, blk database.Block) block {
	trans := make([]tx, len(blk.Trans))
	for i, tran := range blk.Trans {
		trans[i] = toTx(ns, tran)
	}

	return block{
		Number:        blk.Header.Number,
		TimeStamp:     blk.Header.TimeStamp,
		PrevBlockHash: blk.Header.PrevBlockHash,
		Nonce:         blk.Header.Nonce,
		Difficulty:    blk.Header.Difficulty,
		TransRoot:     blk.Header.TransRoot,
		BlockHash:     blk.Hash(),
		Transactions:  trans,
	}
}

type confirmations struct {
	Index         uint64 `json:"index"`
	Confirmations uint64 `json:"confirmations"`
}

type txRecord struct {
	Tx            tx     `json:"tx"`
	BlockNumber   uint64 `json:"block_index"`
	BlockHash     string `json:"block_hash"`
	Confirmations uint64 `json:"confirmations"`
}

func toTxRecord(ns *nameservice.NameService, rec state.TxRecord) txRecord {
	return txRecord{
		Tx:            toTx(ns, rec.Tx),
		BlockNumber:   rec.BlockNumber,
		BlockHash:     rec.BlockHash,
		Confirmations: rec.Confirmations,
	}
}

type merkleProof struct {
	txRecord
	Leaf      string   `json:"leaf"`
	TransRoot string   `json:"trans_root"`
	Proof     []string `json:"proof"`
	Order     []int64  `json:"proof_order"`
}

type mined struct {
	Block     block `json:"block"`
	Remaining int   `json:"uncommitted"`
}
