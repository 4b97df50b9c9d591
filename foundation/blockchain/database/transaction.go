package database

import (
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/velcoin/ledger/foundation/blockchain/signature"
)

// =============================================================================

// Tx is the transactional information between two parties.
type Tx struct {
	FromID AccountID `json:"from"`   // Account sending the value, derived from the public key.
	ToID   AccountID `json:"to"`     // Account receiving the value.
	Amount uint64    `json:"amount"` // Value in minor units moved by this transaction.
	Nonce  uint64    `json:"nonce"`  // Must be greater than the last committed nonce of the sender.
}

// NewTx constructs a new transaction.
func NewTx(fromID AccountID, toID AccountID, amount uint64, nonce uint64) (Tx, error) {
	if !fromID.IsAccountID() {
		return Tx{}, fmt.Errorf("from account is not properly formatted")
	}

	if !toID.IsAccountID() {
		return Tx{}, fmt.Errorf("to account is not properly formatted")
	}

	tx := Tx{
		FromID: fromID,
		ToID:   toID,
		Amount: amount,
		Nonce:  nonce,
	}

	return tx, nil
}

// Payload returns the canonical form of the transaction that is signed.
func (tx Tx) Payload() string {
	return fmt.Sprintf("%s->%s:%d:%d", tx.FromID, tx.ToID, tx.Amount, tx.Nonce)
}

// Sign uses the specified private key to sign the transaction.
func (tx Tx) Sign(privateKey *ecdsa.PrivateKey) (SignedTx, error) {

	// The from account has to be the account of the signing key or the
	// node will reject the transaction.
	if PublicKeyToAccountID(privateKey.PublicKey) != tx.FromID {
		return SignedTx{}, ErrAddressMismatch
	}

	sig, err := signature.Sign(tx.Payload(), privateKey)
	if err != nil {
		return SignedTx{}, err
	}

	signedTx := SignedTx{
		Tx:        tx,
		PublicKey: signature.PublicKeyHex(privateKey.PublicKey),
		Signature: sig,
	}

	return signedTx, nil
}

// =============================================================================

// SignedTx is a signed version of the transaction. This is how clients like
// a wallet provide transactions for inclusion into the blockchain.
type SignedTx struct {
	Tx
	PublicKey string `json:"public_key"` // Hex encoded secp256k1 public key of the sender.
	Signature string `json:"signature"`  // Hex encoded R||S signature over the payload.
}

// Validate runs the stateless checks on the transaction: the structure,
// the identity of the sender and the signature. The checks run in that
// order and the first failure is returned.
func (tx SignedTx) Validate(maxAmount uint64) error {
	switch {
	case !tx.FromID.IsAccountID():
		return fmt.Errorf("%w: from account is not properly formatted", ErrMalformedTransaction)
	case !tx.ToID.IsAccountID():
		return fmt.Errorf("%w: to account is not properly formatted", ErrMalformedTransaction)
	case tx.Amount == 0:
		return fmt.Errorf("%w: amount must be greater than zero", ErrMalformedTransaction)
	case tx.Amount > maxAmount:
		return fmt.Errorf("%w: amount %d exceeds the maximum of %d", ErrMalformedTransaction, tx.Amount, maxAmount)
	case tx.PublicKey == "":
		return fmt.Errorf("%w: public key is missing", ErrMalformedTransaction)
	case tx.Signature == "":
		return fmt.Errorf("%w: signature is missing", ErrMalformedTransaction)
	}

	rawPublicKey, err := signature.ParsePublicKey(tx.PublicKey)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrMalformedTransaction, err)
	}

	if id := RawPublicKeyToAccountID(rawPublicKey); id != tx.FromID {
		return fmt.Errorf("%w: key belongs to %s, from is %s", ErrAddressMismatch, id, tx.FromID)
	}

	if err := signature.Verify(tx.Payload(), rawPublicKey, tx.Signature); err != nil {
		if errors.Is(err, signature.ErrInvalidSignature) {
			return fmt.Errorf("%w: %s", ErrInvalidSignature, err)
		}
		return fmt.Errorf("%w: %s", ErrMalformedTransaction, err)
	}

	return nil
}

// Hash returns the unique id of the signed transaction.
func (tx SignedTx) Hash() string {
	return signature.Hash(tx)
}

// String implements the fmt.Stringer interface for logging.
func (tx SignedTx) String() string {
	return fmt.Sprintf("%s:%d", tx.FromID, tx.Nonce)
}

// =============================================================================

// BlockTx represents the transaction as it's recorded inside a block. This
// includes the time the node admitted the transaction.
type BlockTx struct {
	SignedTx
	TimeStamp uint64 `json:"timestamp"` // Time in milliseconds the transaction was received.
}

// NewBlockTx constructs a new block transaction.
func NewBlockTx(signedTx SignedTx) BlockTx {
	return BlockTx{
		SignedTx:  signedTx,
		TimeStamp: uint64(time.Now().UTC().UnixMilli()),
	}
}

// Hash implements the merkle Hashable interface for providing a hash
// of a block transaction.
func (tx BlockTx) Hash() ([]byte, error) {
	return hex.DecodeString(signature.Hash(tx))
}

// ID returns the unique id of the signed transaction inside the block
// transaction.
func (tx BlockTx) ID() string {
	return tx.SignedTx.Hash()
}
