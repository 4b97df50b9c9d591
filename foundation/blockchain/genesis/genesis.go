// Package genesis maintains access to the genesis file.
package genesis

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"time"
)

// DefaultMaxTxAmount is used when the genesis file does not provide a
// maximum transaction amount. Amounts are expressed in minor units.
const DefaultMaxTxAmount uint64 = 1_000_000_000 * 100_000_000

// Genesis represents the genesis file.
type Genesis struct {
	Date        time.Time         `json:"date"`
	Network     string            `json:"network"`       // Name of the network this node serves.
	Symbol      string            `json:"symbol"`        // Ticker of the native currency.
	Difficulty  uint16            `json:"difficulty"`    // Number of leading zero hex characters a block hash needs.
	MaxTxAmount uint64            `json:"max_tx_amount"` // Largest amount a single transaction can move.
	Balances    map[string]uint64 `json:"balances"`
}

// =============================================================================

// Load opens and consumes the genesis file.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	var genesis Genesis
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, err
	}

	if genesis.MaxTxAmount == 0 {
		genesis.MaxTxAmount = DefaultMaxTxAmount
	}

	if err := genesis.Validate(); err != nil {
		return Genesis{}, fmt.Errorf("genesis %s: %w", path, err)
	}

	return genesis, nil
}

// Validate checks the genesis values can be used to start a chain.
func (g Genesis) Validate() error {
	if g.Difficulty > 64 {
		return fmt.Errorf("difficulty %d exceeds the hash width", g.Difficulty)
	}

	if g.MaxTxAmount == 0 {
		return errors.New("max tx amount must be greater than zero")
	}

	// The sum of all balances is the total supply and is never allowed to
	// change, so it has to fit.
	var total uint64
	for addr, balance := range g.Balances {
		if !isAddress(addr) {
			return fmt.Errorf("balance address %q is not properly formatted", addr)
		}

		if balance > math.MaxUint64-total {
			return errors.New("total supply overflows")
		}
		total += balance
	}

	return nil
}

// isAddress checks the value is 40 lower case hex characters.
func isAddress(addr string) bool {
	if len(addr) != 40 {
		return false
	}

	for _, c := range []byte(addr) {
		if !('0' <= c && c <= '9') && !('a' <= c && c <= 'f') {
			return false
		}
	}

	return true
}
