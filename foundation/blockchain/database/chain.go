package database

import (
	"errors"
	"fmt"
)

// Chain is the append-only, hash-linked sequence of blocks starting with the
// genesis block. Chain is not safe for concurrent use, the caller provides
// the synchronization.
type Chain struct {
	difficulty uint16
	blocks     []Block
}

// NewChain constructs a chain holding only the specified genesis block.
// Every block appended after genesis must solve at least the specified
// difficulty.
func NewChain(genesis Block, difficulty uint16) *Chain {
	return &Chain{
		difficulty: difficulty,
		blocks:     []Block{genesis},
	}
}

// Difficulty returns the minimum difficulty blocks must solve.
func (c *Chain) Difficulty() uint16 {
	return c.difficulty
}

// Height returns the number of blocks in the chain, genesis included.
func (c *Chain) Height() uint64 {
	return uint64(len(c.blocks))
}

// Tip returns the latest block in the chain.
func (c *Chain) Tip() Block {
	return c.blocks[len(c.blocks)-1]
}

// Block returns the block at the specified index.
func (c *Chain) Block(index uint64) (Block, error) {
	if index >= c.Height() {
		return Block{}, fmt.Errorf("block %d does not exist, height %d", index, c.Height())
	}

	return c.blocks[index], nil
}

// Blocks returns a copy of the blocks in the chain.
func (c *Chain) Blocks() []Block {
	return append([]Block(nil), c.blocks...)
}

// Confirmations returns the number of blocks mined on top of the block at
// the specified index. Indexes beyond the tip have zero confirmations.
func (c *Chain) Confirmations(index uint64) uint64 {
	height := c.Height()
	if index >= height-1 {
		return 0
	}

	return height - 1 - index
}

// Validate checks the block can become the next block of the chain without
// appending it. The link to the tip is checked first, then the proof of work
// of the recorded hash, then the recorded hash against the block content.
func (c *Chain) Validate(blockData BlockData) error {
	tip := c.Tip()
	header := blockData.Header

	if header.PrevBlockHash != tip.Hash() {
		return fmt.Errorf("%w: previous hash got %s, exp %s", ErrChainLinkMismatch, header.PrevBlockHash, tip.Hash())
	}

	if header.Number != tip.Header.Number+1 {
		return fmt.Errorf("%w: block number got %d, exp %d", ErrChainLinkMismatch, header.Number, tip.Header.Number+1)
	}

	if header.Difficulty < c.difficulty {
		return fmt.Errorf("%w: difficulty %d is less than the required %d", ErrInvalidProofOfWork, header.Difficulty, c.difficulty)
	}

	if !isHashSolved(header.Difficulty, blockData.Hash) {
		return fmt.Errorf("%w: %s needs %d leading zeros", ErrInvalidProofOfWork, blockData.Hash, header.Difficulty)
	}

	return ToBlock(blockData).validateContent(blockData.Hash)
}

// Append validates the block and adds it to the end of the chain. A block
// that fails validation is never added.
func (c *Chain) Append(blockData BlockData) error {
	if err := c.Validate(blockData); err != nil {
		return err
	}

	c.blocks = append(c.blocks, ToBlock(blockData))

	return nil
}

// validateContent recomputes the header hash and the merkle root and
// compares them with the recorded values. A transaction can only appear
// once in a block. The merkle tree pads an odd level with its last node,
// so a repeated tail would otherwise produce the same root.
func (b Block) validateContent(blockHash string) error {
	if hash := b.Hash(); hash != blockHash {
		return fmt.Errorf("%w: blk[%d]: got %s, exp %s", ErrHashMismatch, b.Header.Number, hash, blockHash)
	}

	ids := make(map[string]struct{}, len(b.Trans))
	for _, tx := range b.Trans {
		id := tx.ID()
		if _, exists := ids[id]; exists {
			return fmt.Errorf("%w: blk[%d]: transaction %s appears more than once", ErrHashMismatch, b.Header.Number, id)
		}
		ids[id] = struct{}{}
	}

	tree, err := b.MerkleTree()
	if err != nil {
		return err
	}

	if root := tree.RootHex(); root != b.Header.TransRoot {
		return fmt.Errorf("%w: blk[%d]: merkle root got %s, exp %s", ErrHashMismatch, b.Header.Number, root, b.Header.TransRoot)
	}

	return nil
}

// =============================================================================

// ErrTxNotFound is returned when a transaction is not part of any block.
var ErrTxNotFound = errors.New("transaction not found")

// FindTransaction locates the committed transaction with the specified id
// and returns the block holding it with its position in the block.
func (c *Chain) FindTransaction(id string) (Block, int, error) {
	for i := len(c.blocks) - 1; i >= 0; i-- {
		for j, tx := range c.blocks[i].Trans {
			if tx.ID() == id {
				return c.blocks[i], j, nil
			}
		}
	}

	return Block{}, 0, ErrTxNotFound
}

// BlocksByAccount returns the blocks holding a transaction sent or
// received by the account. An empty account returns every block.
func (c *Chain) BlocksByAccount(accountID AccountID) []Block {
	var out []Block

	for _, block := range c.blocks {
		if accountID == "" {
			out = append(out, block)
			continue
		}

		for _, tx := range block.Trans {
			if tx.FromID == accountID || tx.ToID == accountID {
				out = append(out, block)
				break
			}
		}
	}

	return out
}
