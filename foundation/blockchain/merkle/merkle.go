// Package merkle provides an implementation of a merkle tree for validation
// support for the blockchain. Leaves are hashed by the values themselves and
// inner nodes are sha256(left||right). A level with an odd number of nodes
// duplicates its last node.
package merkle

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
)

// Hashable represents the behavior concrete data must exhibit to be used in
// the merkle tree.
type Hashable interface {
	Hash() ([]byte, error)
}

// Set of proof orders describing on which side the proof hash is placed.
const (
	ProofLeft  = 0 // Proof hash comes first: sha256(proof||hash).
	ProofRight = 1 // Proof hash comes second: sha256(hash||proof).
)

// =============================================================================

// Tree represents a merkle tree that uses data of some type T that exhibits
// the behavior defined by the Hashable interface.
type Tree[T Hashable] struct {
	values []T
	levels [][][]byte // levels[0] are the leaf hashes, the last level is the root.
}

// NewTree constructs a new merkle tree for the specified values. An empty set
// of values produces a tree with a root of 32 zero bytes.
func NewTree[T Hashable](values []T) (*Tree[T], error) {
	t := Tree[T]{
		values: append([]T(nil), values...),
	}

	if len(values) == 0 {
		t.levels = [][][]byte{{make([]byte, sha256.Size)}}
		return &t, nil
	}

	leaves := make([][]byte, len(values))
	for i, v := range values {
		h, err := v.Hash()
		if err != nil {
			return nil, fmt.Errorf("hashing leaf %d: %w", i, err)
		}
		leaves[i] = h
	}
	t.levels = append(t.levels, leaves)

	for level := leaves; len(level) > 1; {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}

		next := make([][]byte, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			next[i/2] = hashPair(level[i], level[i+1])
		}

		t.levels = append(t.levels, next)
		level = next
	}

	return &t, nil
}

// Values returns a copy of the values the tree was built from.
func (t *Tree[T]) Values() []T {
	return append([]T(nil), t.values...)
}

// Root returns the merkle root hash.
func (t *Tree[T]) Root() []byte {
	return t.levels[len(t.levels)-1][0]
}

// RootHex returns the merkle root hash as a hex string.
func (t *Tree[T]) RootHex() string {
	return hex.EncodeToString(t.Root())
}

// Proof returns the set of hashes and the order of concatenating those
// hashes for proving the value at the specified index is in the tree.
// Hash the value, then for every proof hash compute sha256(proof||hash)
// when the order is ProofLeft or sha256(hash||proof) when it is ProofRight.
// The final hash must match the root.
func (t *Tree[T]) Proof(index int) ([][]byte, []int64, error) {
	if index < 0 || index >= len(t.values) {
		return nil, nil, errors.New("index is out of range")
	}

	var proof [][]byte
	var order []int64

	for _, level := range t.levels[:len(t.levels)-1] {
		sibling := index ^ 1
		if sibling >= len(level) {
			sibling = index
		}

		proof = append(proof, level[sibling])
		if sibling < index {
			order = append(order, ProofLeft)
		} else {
			order = append(order, ProofRight)
		}

		index /= 2
	}

	return proof, order, nil
}

// VerifyProof processes the leaf hash against the proof and compares the
// result with the root.
func VerifyProof(leaf []byte, proof [][]byte, order []int64, root []byte) bool {
	if len(proof) != len(order) {
		return false
	}

	hash := leaf
	for i, p := range proof {
		switch order[i] {
		case ProofLeft:
			hash = hashPair(p, hash)
		case ProofRight:
			hash = hashPair(hash, p)
		default:
			return false
		}
	}

	return bytes.Equal(hash, root)
}

// =============================================================================

// hashPair returns the sha256 of the concatenated hashes.
func hashPair(left []byte, right []byte) []byte {
	h := sha256.New()
	h.Write(left)
	h.Write(right)
	return h.Sum(nil)
}
