package database

import "errors"

// Set of errors a transaction can fail validation with.
var (
	ErrMalformedTransaction = errors.New("malformed transaction")
	ErrAddressMismatch      = errors.New("public key does not match from address")
	ErrInvalidSignature     = errors.New("invalid signature")
	ErrInsufficientBalance  = errors.New("insufficient balance")
	ErrStaleNonce           = errors.New("stale nonce")
)

// Set of errors a block can fail chain validation with.
var (
	ErrChainLinkMismatch  = errors.New("block does not link to the chain tip")
	ErrInvalidProofOfWork = errors.New("block hash does not solve the proof of work")
	ErrHashMismatch       = errors.New("block hash does not match block content")
	ErrSearchExhausted    = errors.New("proof of work search exhausted its attempts")
)

// kinds maps the sentinel errors to their names in the error taxonomy.
var kinds = []struct {
	err  error
	kind string
}{
	{ErrMalformedTransaction, "MalformedTransaction"},
	{ErrAddressMismatch, "AddressMismatch"},
	{ErrInvalidSignature, "InvalidSignature"},
	{ErrInsufficientBalance, "InsufficientBalance"},
	{ErrStaleNonce, "StaleNonce"},
	{ErrChainLinkMismatch, "ChainLinkMismatch"},
	{ErrInvalidProofOfWork, "InvalidProofOfWork"},
	{ErrHashMismatch, "HashMismatch"},
}

// Kind returns the taxonomy name for the error or an empty string if the
// error is not one of the ledger errors.
func Kind(err error) string {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}

	return ""
}
