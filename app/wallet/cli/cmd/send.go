package cmd

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
	"github.com/velcoin/ledger/foundation/blockchain/database"
)

var (
	to     string
	amount string
	nonce  uint64
)

type validationResult struct {
	Accepted  bool              `json:"accepted"`
	ErrorKind string            `json:"error_kind"`
	Error     string            `json:"error"`
	Fields    map[string]string `json:"fields"`
	ID        uint64            `json:"mempool_id"`
	TxHash    string            `json:"tx_hash"`
}

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send transaction",
	RunE:  sendRun,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&to, "to", "t", "", "Account to send the amount to.")
	sendCmd.Flags().StringVarP(&amount, "amount", "v", "", "Amount of coins to send, for example 1.5.")
	sendCmd.Flags().Uint64VarP(&nonce, "nonce", "n", 0, "Nonce of the transaction, zero uses the next nonce.")
	sendCmd.MarkFlagRequired("to")
	sendCmd.MarkFlagRequired("amount")
}

func sendRun(cmd *cobra.Command, args []string) error {
	privateKey, err := crypto.LoadECDSA(getPrivateKeyPath())
	if err != nil {
		return err
	}

	n := nonce
	if n == 0 {
		accountID := database.PublicKeyToAccountID(privateKey.PublicKey)

		act, err := queryAccount(accountID)
		if err != nil {
			return err
		}

		pending, err := queryMempool(accountID)
		if err != nil {
			return err
		}

		n = nextNonce(accountID, act.Nonce, pending)
	}

	signedTx, err := buildTx(privateKey, to, amount, n)
	if err != nil {
		return err
	}

	data, err := json.Marshal(signedTx)
	if err != nil {
		return err
	}

	resp, err := http.Post(fmt.Sprintf("%s/v1/tx/submit", url), "application/json", bytes.NewBuffer(data))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var vr validationResult
	if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
		return fmt.Errorf("node responded with %s: %w", resp.Status, err)
	}

	if !vr.Accepted {
		return fmt.Errorf("rejected: %s: %s", vr.ErrorKind, vr.Error)
	}

	fmt.Printf("Accepted: tx[%s] mempool[%d] nonce[%d]\n", vr.TxHash, vr.ID, n)
	return nil
}

// mempoolTx is the part of an uncommitted transaction needed to pick
// the next nonce.
type mempoolTx struct {
	From  database.AccountID `json:"from"`
	Nonce uint64             `json:"nonce"`
}

// queryMempool asks the node for the uncommitted transactions of the
// account.
func queryMempool(accountID database.AccountID) ([]mempoolTx, error) {
	resp, err := http.Get(fmt.Sprintf("%s/v1/tx/uncommitted/list/%s", url, accountID))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("node responded with %s", resp.Status)
	}

	var pending []mempoolTx
	if err := json.NewDecoder(resp.Body).Decode(&pending); err != nil {
		return nil, err
	}

	return pending, nil
}

// nextNonce returns the nonce after the highest one the account has
// committed or still waiting in the mempool.
func nextNonce(accountID database.AccountID, committed uint64, pending []mempoolTx) uint64 {
	highest := committed
	for _, tx := range pending {
		if tx.From == accountID && tx.Nonce > highest {
			highest = tx.Nonce
		}
	}

	return highest + 1
}

// buildTx constructs and signs the transaction. The amount is parsed from
// its coin form into minor units.
func buildTx(privateKey *ecdsa.PrivateKey, to string, amount string, nonce uint64) (database.SignedTx, error) {
	toID, err := database.ToAccountID(to)
	if err != nil {
		return database.SignedTx{}, fmt.Errorf("to: %w", err)
	}

	units, err := database.ParseAmount(amount)
	if err != nil {
		return database.SignedTx{}, err
	}

	tx, err := database.NewTx(database.PublicKeyToAccountID(privateKey.PublicKey), toID, units, nonce)
	if err != nil {
		return database.SignedTx{}, err
	}

	return tx.Sign(privateKey)
}
