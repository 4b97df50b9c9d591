package database

import (
	"crypto/ecdsa"
	"errors"
	"strings"

	"github.com/velcoin/ledger/foundation/blockchain/signature"
)

// AccountID represents an account id that is used to sign transactions and is
// associated with transactions on the blockchain. It is derived from the
// public key of the account and never assigned independently.
type AccountID string

// ToAccountID converts a hex-encoded string to an account and validates the
// hex-encoded string is formatted correctly. Upper case characters are
// folded to lower case.
func ToAccountID(hex string) (AccountID, error) {
	a := AccountID(strings.ToLower(hex))
	if !a.IsAccountID() {
		return "", errors.New("invalid account format")
	}

	return a, nil
}

// PublicKeyToAccountID converts the public key to an account value.
func PublicKeyToAccountID(pk ecdsa.PublicKey) AccountID {
	return AccountID(signature.PublicKeyToAddress(pk))
}

// RawPublicKeyToAccountID converts the raw 64 byte public key to an
// account value.
func RawPublicKeyToAccountID(rawPublicKey []byte) AccountID {
	return AccountID(signature.ToAddress(rawPublicKey))
}

// IsAccountID verifies whether the underlying data represents a valid
// hex-encoded account.
func (a AccountID) IsAccountID() bool {
	if len(a) != signature.AddressLength {
		return false
	}

	for _, c := range []byte(a) {
		if !isHexCharacter(c) {
			return false
		}
	}

	return true
}

// =============================================================================

// isHexCharacter returns bool of c being a valid lower case hexadecimal.
func isHexCharacter(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f')
}
