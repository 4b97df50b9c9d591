package database

import (
	"context"
	"time"

	"github.com/velcoin/ledger/foundation/blockchain/genesis"
	"github.com/velcoin/ledger/foundation/blockchain/merkle"
	"github.com/velcoin/ledger/foundation/blockchain/signature"
)

// =============================================================================

// BlockHeader represents common information required for each block. The
// block hash is computed over the JSON form of the header, and the header
// commits to the transactions through the merkle root.
type BlockHeader struct {
	Number        uint64 `json:"index"`         // Block number in the chain.
	TimeStamp     uint64 `json:"timestamp"`     // Time in milliseconds the block was mined.
	PrevBlockHash string `json:"previous_hash"` // Hash of the previous block in the chain.
	Nonce         uint64 `json:"nonce"`         // Value identified to solve the hash solution.
	Difficulty    uint16 `json:"difficulty"`    // Number of 0's needed to solve the hash solution.
	TransRoot     string `json:"trans_root"`    // Merkle root hash of the transactions in this block.
}

// Hash returns the unique hash for the header.
func (bh BlockHeader) Hash() string {
	return signature.Hash(bh)
}

// Block represents a group of transactions batched together.
type Block struct {
	Header BlockHeader
	Trans  []BlockTx
}

// Genesis constructs the block at index 0 for the genesis values. The block
// carries no transactions and is not required to solve the proof of work.
func Genesis(gen genesis.Genesis) Block {
	tree, _ := merkle.NewTree[BlockTx](nil)

	return Block{
		Header: BlockHeader{
			Number:        0,
			TimeStamp:     uint64(gen.Date.UTC().UnixMilli()),
			PrevBlockHash: signature.ZeroHash,
			Nonce:         0,
			Difficulty:    0,
			TransRoot:     tree.RootHex(),
		},
	}
}

// Hash returns the unique hash for the Block.
func (b Block) Hash() string {
	return b.Header.Hash()
}

// MerkleTree constructs the merkle tree for the block transactions.
func (b Block) MerkleTree() (*merkle.Tree[BlockTx], error) {
	return merkle.NewTree(b.Trans)
}

// =============================================================================

// POWArgs represents the set of arguments required to run POW.
type POWArgs struct {
	PrevBlock   Block
	Trans       []BlockTx
	Difficulty  uint16
	MaxAttempts uint64 // Zero means the search is only bounded by the context.
	EvHandler   func(v string, args ...any)
}

// POW constructs a new Block and performs the work to find a nonce that
// solves the cryptographic POW puzzle.
func POW(ctx context.Context, args POWArgs) (Block, error) {
	ev := args.EvHandler
	if ev == nil {
		ev = func(v string, args ...any) {}
	}

	// Construct a merkle tree from the transaction for this block. The root
	// of this tree will be part of the block to be mined.
	tree, err := merkle.NewTree(args.Trans)
	if err != nil {
		return Block{}, err
	}

	// Construct the block to be mined.
	nb := Block{
		Header: BlockHeader{
			Number:        args.PrevBlock.Header.Number + 1,
			TimeStamp:     uint64(time.Now().UTC().UnixMilli()),
			PrevBlockHash: args.PrevBlock.Hash(),
			Nonce:         0, // Will be identified by the POW algorithm.
			Difficulty:    args.Difficulty,
			TransRoot:     tree.RootHex(),
		},
		Trans: tree.Values(),
	}

	// Perform the proof of work mining operation.
	if err := nb.performPOW(ctx, args.MaxAttempts, ev); err != nil {
		return Block{}, err
	}

	return nb, nil
}

// performPOW does the work of mining to find a valid hash for a specified
// block. Pointer semantics are being used since a nonce is being discovered.
func (b *Block) performPOW(ctx context.Context, maxAttempts uint64, ev func(v string, args ...any)) error {
	ev("database: PerformPOW: MINING: started: blk[%d]", b.Header.Number)
	defer ev("database: PerformPOW: MINING: completed: blk[%d]", b.Header.Number)

	// Log the transactions that are a part of this potential block.
	for _, tx := range b.Trans {
		ev("database: PerformPOW: MINING: tx[%s]", tx)
	}

	var attempts uint64
	for {
		attempts++
		if attempts%1_000_000 == 0 {
			ev("database: PerformPOW: MINING: attempts[%d]", attempts)
		}

		// Did we timeout trying to solve the problem.
		if ctx.Err() != nil {
			ev("database: PerformPOW: MINING: CANCELLED")
			return ctx.Err()
		}

		// Hash the block and check if we have solved the puzzle.
		hash := b.Hash()
		if isHashSolved(b.Header.Difficulty, hash) {
			ev("database: PerformPOW: MINING: SOLVED: prevBlk[%s]: newBlk[%s]: attempts[%d]", b.Header.PrevBlockHash, hash, attempts)
			return nil
		}

		if maxAttempts > 0 && attempts >= maxAttempts {
			ev("database: PerformPOW: MINING: EXHAUSTED: attempts[%d]", attempts)
			return ErrSearchExhausted
		}

		b.Header.Nonce++
	}
}

// isHashSolved checks the hash to make sure it complies with
// the POW rules. We need to match a difficulty number of 0's.
func isHashSolved(difficulty uint16, hash string) bool {
	if len(hash) != 64 || int(difficulty) > len(hash) {
		return false
	}

	for _, c := range hash[:difficulty] {
		if c != '0' {
			return false
		}
	}

	return true
}

// =============================================================================

// BlockData represents what is written to storage and sent over the wire.
type BlockData struct {
	Hash   string      `json:"block_hash"`
	Header BlockHeader `json:"header"`
	Trans  []BlockTx   `json:"transactions"`
}

// NewBlockData constructs the value to serialize.
func NewBlockData(block Block) BlockData {
	return BlockData{
		Hash:   block.Hash(),
		Header: block.Header,
		Trans:  block.Trans,
	}
}

// ToBlock converts a BlockData into a Block. The recorded hash is not
// checked here, Chain.Append does that.
func ToBlock(blockData BlockData) Block {
	return Block{
		Header: blockData.Header,
		Trans:  blockData.Trans,
	}
}
