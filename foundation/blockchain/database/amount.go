package database

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// UnitsPerCoin is the number of minor units in one coin. Balances and
// amounts are always handled as minor units inside the ledger.
const UnitsPerCoin = 100_000_000

// decimals is the number of fractional digits UnitsPerCoin represents.
const decimals = 8

// ParseAmount converts a decimal coin string like "12.5" into minor units.
func ParseAmount(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		return 0, fmt.Errorf("invalid amount %q", s)
	}

	whole, frac, _ := strings.Cut(s, ".")
	if len(frac) > decimals {
		return 0, fmt.Errorf("amount %q has more than %d decimals", s, decimals)
	}
	frac += strings.Repeat("0", decimals-len(frac))

	if whole == "" {
		whole = "0"
	}

	w, err := strconv.ParseUint(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}

	f, err := strconv.ParseUint(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}

	if w > (math.MaxUint64-f)/UnitsPerCoin {
		return 0, errors.New("amount overflows")
	}

	return w*UnitsPerCoin + f, nil
}

// FormatAmount converts minor units into a decimal coin string.
func FormatAmount(units uint64) string {
	whole := units / UnitsPerCoin
	frac := units % UnitsPerCoin

	if frac == 0 {
		return strconv.FormatUint(whole, 10)
	}

	s := fmt.Sprintf("%d.%08d", whole, frac)
	return strings.TrimRight(s, "0")
}
