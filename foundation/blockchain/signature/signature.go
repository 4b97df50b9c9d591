// Package signature provides helper functions for handling the blockchain
// hashing, addressing and signature needs.
package signature

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/ethereum/go-ethereum/crypto"
)

// ZeroHash represents a hash code of zeros.
const ZeroHash string = "0000000000000000000000000000000000000000000000000000000000000000"

// AddressLength is the number of hex characters kept from the public key
// digest to form an address.
const AddressLength = 40

// PublicKeyLength is the length of a raw X||Y public key.
const PublicKeyLength = 64

// SignatureLength is the length of an R||S signature.
const SignatureLength = 64

// Set of errors for decoding keys and signatures.
var (
	ErrInvalidPublicKey = errors.New("invalid public key")
	ErrInvalidSignature = errors.New("invalid signature")
)

// =============================================================================

// Hash returns a unique string for the value. The value is marshaled as
// JSON, so struct fields are hashed in declaration order.
func Hash(value any) string {
	data, err := json.Marshal(value)
	if err != nil {
		return ZeroHash
	}

	return HashBytes(data)
}

// HashBytes returns the hex encoded sha256 digest of the data.
func HashBytes(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// =============================================================================

// ParsePublicKey decodes a hex encoded secp256k1 public key and returns the
// raw 64 byte X||Y form. Raw (64 bytes), uncompressed (65 bytes) and
// compressed (33 bytes) encodings are accepted.
func ParsePublicKey(hexKey string) ([]byte, error) {
	data, err := decodeHex(hexKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPublicKey, err)
	}

	if len(data) == PublicKeyLength {
		data = append([]byte{0x04}, data...)
	}

	pk, err := secp256k1.ParsePubKey(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPublicKey, err)
	}

	return pk.SerializeUncompressed()[1:], nil
}

// ToAddress derives the address for the raw 64 byte public key. The address
// is the first AddressLength hex characters of the sha256 digest.
func ToAddress(rawPublicKey []byte) string {
	return HashBytes(rawPublicKey)[:AddressLength]
}

// PublicKeyBytes returns the raw 64 byte X||Y form of the public key.
func PublicKeyBytes(pk ecdsa.PublicKey) []byte {
	return crypto.FromECDSAPub(&pk)[1:]
}

// PublicKeyHex returns the raw public key as a hex string.
func PublicKeyHex(pk ecdsa.PublicKey) string {
	return hex.EncodeToString(PublicKeyBytes(pk))
}

// PublicKeyToAddress derives the address for the public key.
func PublicKeyToAddress(pk ecdsa.PublicKey) string {
	return ToAddress(PublicKeyBytes(pk))
}

// =============================================================================

// Sign signs the sha256 digest of the payload with the private key. The
// signing is deterministic (RFC6979) and the signature is returned as the
// hex encoded 64 byte R||S value.
func Sign(payload string, privateKey *ecdsa.PrivateKey) (string, error) {
	digest := sha256.Sum256([]byte(payload))

	sig, err := crypto.Sign(digest[:], privateKey)
	if err != nil {
		return "", err
	}

	return hex.EncodeToString(sig[:SignatureLength]), nil
}

// Verify checks the hex encoded signature was produced over the payload by
// the private key matching the raw 64 byte public key. A 65 byte signature
// carrying a recovery id is accepted and the recovery id ignored.
func Verify(payload string, rawPublicKey []byte, sigHex string) error {
	sig, err := decodeHex(sigHex)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidSignature, err)
	}

	switch len(sig) {
	case SignatureLength:
	case SignatureLength + 1:
		sig = sig[:SignatureLength]
	default:
		return fmt.Errorf("%w: length %d", ErrInvalidSignature, len(sig))
	}

	if len(rawPublicKey) != PublicKeyLength {
		return ErrInvalidPublicKey
	}

	digest := sha256.Sum256([]byte(payload))
	pub := append([]byte{0x04}, rawPublicKey...)

	if !crypto.VerifySignature(pub, digest[:], sig) {
		return ErrInvalidSignature
	}

	return nil
}

// =============================================================================

// decodeHex decodes a hex string with an optional 0x prefix.
func decodeHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if s == "" {
		return nil, errors.New("empty hex string")
	}

	return hex.DecodeString(s)
}
