package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
	"github.com/velcoin/ledger/foundation/blockchain/database"
)

type info struct {
	Account string `json:"account"`
	Balance uint64 `json:"balance"`
	Amount  string `json:"amount"`
	Symbol  string `json:"symbol"`
	Nonce   uint64 `json:"nonce"`
}

type actInfo struct {
	LatestBlock string `json:"latest_block"`
	Uncommitted int    `json:"uncommitted"`
	Accounts    []info `json:"accounts"`
}

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Print your balance and last committed nonce.",
	RunE:  balanceRun,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
}

func balanceRun(cmd *cobra.Command, args []string) error {
	privateKey, err := crypto.LoadECDSA(getPrivateKeyPath())
	if err != nil {
		return err
	}

	accountID := database.PublicKeyToAccountID(privateKey.PublicKey)
	fmt.Println("For Account:", accountID)

	act, err := queryAccount(accountID)
	if err != nil {
		return err
	}

	fmt.Printf("Balance: %s %s\n", act.Amount, act.Symbol)
	fmt.Printf("Nonce  : %d\n", act.Nonce)
	return nil
}

// queryAccount asks the node for the committed state of the account.
func queryAccount(accountID database.AccountID) (info, error) {
	resp, err := http.Get(fmt.Sprintf("%s/v1/accounts/list/%s", url, accountID))
	if err != nil {
		return info{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return info{}, fmt.Errorf("node responded with %s", resp.Status)
	}

	var ai actInfo
	if err := json.NewDecoder(resp.Body).Decode(&ai); err != nil {
		return info{}, err
	}

	if len(ai.Accounts) == 0 {
		return info{}, fmt.Errorf("account %s not returned", accountID)
	}

	return ai.Accounts[0], nil
}
