// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/velcoin/ledger/business/sys/validate"
	"github.com/velcoin/ledger/business/web/errs"
	"github.com/velcoin/ledger/foundation/blockchain/database"
	"github.com/velcoin/ledger/foundation/blockchain/mempool"
	"github.com/velcoin/ledger/foundation/blockchain/state"
	"github.com/velcoin/ledger/foundation/events"
	"github.com/velcoin/ledger/foundation/nameservice"
	"github.com/velcoin/ledger/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of ledger endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	NS    *nameservice.NameService
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	// The upgrade takes over the response, record it for the logger.
	v.StatusCode = http.StatusSwitchingProtocols

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	id, ch := h.Evts.Acquire()
	defer h.Evts.Release(id)

	h.Log.Infow("events", "traceid", v.TraceID, "status", "subscribed", "subscriber", id)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return nil
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// Status returns the current state of the node.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	gen := h.State.RetrieveGenesis()
	latest := h.State.RetrieveLatestBlock()

	st := status{
		Network:     gen.Network,
		Symbol:      gen.Symbol,
		Height:      h.State.QueryHeight(),
		LatestBlock: latest.Hash(),
		Difficulty:  gen.Difficulty,
		Uncommitted: h.State.QueryMempoolLength(),
	}

	return web.Respond(ctx, w, st, http.StatusOK)
}

// Genesis returns the genesis information.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	gen := h.State.RetrieveGenesis()
	return web.Respond(ctx, w, gen, http.StatusOK)
}

// Accounts returns the current balances for all users or the one specified.
func (h Handlers) Accounts(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	symbol := h.State.RetrieveGenesis().Symbol

	var acts []info
	switch param := web.Param(r, "account"); param {
	case "":
		for accountID, blkInfo := range h.State.QueryAccounts() {
			acts = append(acts, h.toInfo(symbol, accountID, blkInfo.Balance, blkInfo.Nonce))
		}
		sort.Slice(acts, func(i, j int) bool { return acts[i].Account < acts[j].Account })

	default:
		accountID, err := h.resolveAccount(param)
		if err != nil {
			return err
		}

		blkInfo := h.State.QueryAccount(accountID)
		acts = append(acts, h.toInfo(symbol, accountID, blkInfo.Balance, blkInfo.Nonce))
	}

	ai := actInfo{
		LatestBlock: h.State.RetrieveLatestBlock().Hash(),
		Uncommitted: h.State.QueryMempoolLength(),
		Accounts:    acts,
	}

	return web.Respond(ctx, w, ai, http.StatusOK)
}

// BlocksByAccount returns all the blocks and their details. If an account
// is specified only the blocks holding its transactions are returned.
func (h Handlers) BlocksByAccount(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var accountID database.AccountID
	if param := web.Param(r, "account"); param != "" {
		var err error
		if accountID, err = h.resolveAccount(param); err != nil {
			return err
		}
	}

	dbBlocks := h.State.QueryBlocksByAccount(accountID)
	if len(dbBlocks) == 0 {
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}

	blocks := make([]block, len(dbBlocks))
	for i, blk := range dbBlocks {
		blocks[i] = toBlock(h.NS, blk)
	}

	return web.Respond(ctx, w, blocks, http.StatusOK)
}

// BlockByIndex returns the block at the specified index.
func (h Handlers) BlockByIndex(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	index, err := h.blockIndex(r)
	if err != nil {
		return err
	}

	blk, err := h.State.QueryBlock(index)
	if err != nil {
		return errs.NewTrusted(err, http.StatusNotFound)
	}

	return web.Respond(ctx, w, toBlock(h.NS, blk), http.StatusOK)
}

// Confirmations returns the number of blocks mined on top of the block at
// the specified index. An index past the tip has no confirmations.
func (h Handlers) Confirmations(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	index, err := h.blockIndex(r)
	if err != nil {
		return err
	}

	resp := confirmations{
		Index:         index,
		Confirmations: h.State.QueryConfirmations(index),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Mempool returns the set of uncommitted transactions.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var accountID database.AccountID
	if param := web.Param(r, "account"); param != "" {
		var err error
		if accountID, err = h.resolveAccount(param); err != nil {
			return err
		}
	}

	entries := h.State.RetrieveMempool()

	trans := []tx{}
	for _, entry := range entries {
		if accountID != "" && accountID != entry.Tx.FromID && accountID != entry.Tx.ToID {
			continue
		}
		trans = append(trans, toMempoolTx(h.NS, entry))
	}

	return web.Respond(ctx, w, trans, http.StatusOK)
}

// TransactionsByAccount returns the committed transactions sent or received
// by the account, oldest first.
func (h Handlers) TransactionsByAccount(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	accountID, err := h.resolveAccount(web.Param(r, "account"))
	if err != nil {
		return err
	}

	recs := h.State.QueryTransactionsByAccount(accountID)

	history := make([]txRecord, len(recs))
	for i, rec := range recs {
		history[i] = toTxRecord(h.NS, rec)
	}

	return web.Respond(ctx, w, history, http.StatusOK)
}

// Transaction returns a committed transaction with the block holding it.
func (h Handlers) Transaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	rec, err := h.State.QueryTransaction(web.Param(r, "hash"))
	if err != nil {
		if errors.Is(err, database.ErrTxNotFound) {
			return errs.NewTrusted(err, http.StatusNotFound)
		}
		return err
	}

	return web.Respond(ctx, w, toTxRecord(h.NS, rec), http.StatusOK)
}

// MerkleProof returns the proof a committed transaction is part of the
// block that holds it.
func (h Handlers) MerkleProof(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	mp, err := h.State.QueryMerkleProof(web.Param(r, "hash"))
	if err != nil {
		if errors.Is(err, database.ErrTxNotFound) {
			return errs.NewTrusted(err, http.StatusNotFound)
		}
		return err
	}

	resp := merkleProof{
		txRecord:  toTxRecord(h.NS, mp.TxRecord),
		Leaf:      mp.Leaf,
		TransRoot: mp.TransRoot,
		Proof:     mp.Proof,
		Order:     mp.Order,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// SubmitTransaction adds a new wallet transaction to the mempool. Rejections
// are reported with the kind of ledger error so the wallet can act on it.
func (h Handlers) SubmitTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var stx submitTx
	if err := web.Decode(r, &stx); err != nil {
		return rejected(ctx, w, fmt.Errorf("%w: %s", database.ErrMalformedTransaction, err), nil)
	}

	if err := validate.Check(stx); err != nil {
		var fields map[string]string
		if validate.IsFieldErrors(err) {
			fields = validate.GetFieldErrors(err).Fields()
		}
		return rejected(ctx, w, fmt.Errorf("%w: data validation error", database.ErrMalformedTransaction), fields)
	}

	signedTx := stx.toSignedTx()
	h.Log.Infow("submit tran", "traceid", v.TraceID, "from:nonce", signedTx, "to", signedTx.ToID, "amount", signedTx.Amount)

	entry, err := h.State.SubmitTransaction(signedTx)
	if err != nil {
		switch {
		case state.IsPersistenceError(err):
			return err
		case errors.Is(err, mempool.ErrMempoolFull):
			return errs.NewTrusted(err, http.StatusServiceUnavailable)
		}
		return rejected(ctx, w, err, nil)
	}

	resp := validationResult{
		Accepted: true,
		ID:       entry.ID,
		TxHash:   entry.Tx.ID(),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// MineBlock mines the transactions in the mempool into a new block and
// waits for the result.
func (h Handlers) MineBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	blk, err := h.State.MineNewBlock(ctx)
	if err != nil {
		switch {
		case errors.Is(err, state.ErrNoValidTransactions):
			return errs.NewTrusted(err, http.StatusBadRequest)
		case errors.Is(err, database.ErrSearchExhausted):
			return errs.NewTrusted(err, http.StatusServiceUnavailable)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return errs.NewTrusted(err, http.StatusRequestTimeout)
		}
		return err
	}

	resp := mined{
		Block:     toBlock(h.NS, blk),
		Remaining: h.State.QueryMempoolLength(),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// SignalMining wakes the worker to mine the mempool in the background.
func (h Handlers) SignalMining(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if h.State.Worker == nil {
		return errs.NewTrusted(errors.New("no mining worker is running"), http.StatusServiceUnavailable)
	}

	h.State.Worker.SignalStartMining()

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "mining signalled",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// =============================================================================

// rejected responds with the reason a transaction was not admitted.
func rejected(ctx context.Context, w http.ResponseWriter, err error, fields map[string]string) error {
	resp := validationResult{
		Accepted:  false,
		ErrorKind: state.Kind(err),
		Error:     err.Error(),
		Fields:    fields,
	}

	return web.Respond(ctx, w, resp, http.StatusBadRequest)
}

// resolveAccount accepts an account id or a name known to the name service.
func (h Handlers) resolveAccount(param string) (database.AccountID, error) {
	if accountID, exists := h.NS.Resolve(param); exists {
		return accountID, nil
	}

	accountID, err := database.ToAccountID(param)
	if err != nil {
		return "", errs.NewTrusted(fmt.Errorf("account %q: %w", param, err), http.StatusBadRequest)
	}

	return accountID, nil
}

func (h Handlers) blockIndex(r *http.Request) (uint64, error) {
	index, err := strconv.ParseUint(web.Param(r, "index"), 10, 64)
	if err != nil {
		return 0, errs.NewTrusted(fmt.Errorf("invalid block index: %w", err), http.StatusBadRequest)
	}
	return index, nil
}

func (h Handlers) toInfo(symbol string, accountID database.AccountID, balance uint64, nonce uint64) info {
	return info{
		Account: accountID,
		Name:    h.NS.Lookup(accountID),
		Balance: balance,
		Amount:  database.FormatAmount(balance),
		Symbol:  symbol,
		Nonce:   nonce,
	}
}
