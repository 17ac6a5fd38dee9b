// Package chain implements the append-only, persistently-shared block
// chain: an immutable singly-linked list where many node-local chains can
// share the same tail. In a language with ownership typing the tail would
// be an atomically reference-counted pointer; here a plain *Chain suffices
// because the garbage collector frees a tail once the last chain holding
// it is unreachable.
package chain

import (
	"fmt"

	"empower1.com/empower1blockchain/internal/core"
	"empower1.com/empower1blockchain/internal/crypto"
)

// Chain is one link of the list: a block plus a reference to the
// predecessor chain it was built on. Chains are never mutated after
// construction; growth always produces a new Chain.
type Chain struct {
	head core.Block
	tail *Chain
}

// Head returns the chain's most recent block.
func (c *Chain) Head() core.Block {
	return c.head
}

// Tail returns the predecessor chain, or nil at the genesis.
func (c *Chain) Tail() *Chain {
	return c.tail
}

// Height returns the head block's height.
func (c *Chain) Height() uint32 {
	return c.head.Header.Core.Height
}

// HeadHash returns the head block's cached header hash.
func (c *Chain) HeadHash() crypto.Hash {
	return c.head.Header.Hash
}

// Genesis mines and wraps the first block of a chain: an empty-body block
// (coinbase only, paying BaseReward to coinbaseAddress) at height 0 whose
// previous-block-hash is the zero hash.
func Genesis(difficulty core.Difficulty, coinbaseAddress core.Address) *Chain {
	body := core.Body{
		Coinbase: core.CoinbaseTx{Output: core.TxOut{Amount: core.BaseReward, ToAddress: coinbaseAddress}},
	}
	head := mineHeader(difficulty, crypto.ZeroHash, 0, body)
	return &Chain{head: head}
}

// mineHeader brute-forces a nonce producing a header hash that satisfies
// difficulty. It is the same retry-on-HashIsTooHigh loop the mining engine
// runs continuously (§4.6); Genesis only ever needs to run it once.
func mineHeader(difficulty core.Difficulty, previousBlockHash crypto.Hash, height uint32, body core.Body) core.Block {
	var nonce core.Nonce
	for {
		block := core.NewBlock(nonce, difficulty, previousBlockHash, height, body)
		if block.Header.Validate() == nil {
			return block
		}
		nonce.Increment()
	}
}

// Expand checks block's own header (recomputed hash and difficulty
// satisfaction) and its linkage against predecessor's head (height,
// difficulty, and previous-hash), and on success returns a new Chain
// whose tail is predecessor. The mining engine relies on a HashIsTooHigh
// failure here to mean "keep trying the next nonce"; it does not validate
// the body against a UTXO store — callers that need that should follow
// with Verify.
func Expand(predecessor *Chain, block core.Block) (*Chain, error) {
	if err := block.Header.Validate(); err != nil {
		return nil, err
	}

	predHeader := predecessor.head.Header

	if block.Header.Core.Height != predHeader.Core.Height+1 {
		return nil, fmt.Errorf("%w: head %d, tail %d", ErrInvalidHeight, block.Header.Core.Height, predHeader.Core.Height)
	}
	if !block.Header.Core.Difficulty.Equal(predHeader.Core.Difficulty) {
		return nil, ErrInvalidDifficulty
	}
	if !block.Header.Core.PreviousBlockHash.Equal(predHeader.Hash) {
		return nil, ErrHeadAndTailHashMismatch
	}

	return &Chain{head: block, tail: predecessor}, nil
}

// Verify walks the chain from head to genesis, validating every block
// against store and every pairwise head-tail link, then checks that the
// chain's genesis matches expectedGenesisHash. It is an iterative walk
// rather than a recursive descent so it stays correct for chains
// thousands of blocks long.
func (c *Chain) Verify(expectedGenesisHash crypto.Hash, store core.UTXOStore) error {
	for cur := c; cur != nil; cur = cur.tail {
		if err := cur.head.Validate(store); err != nil {
			return fmt.Errorf("height %d: %w", cur.head.Header.Core.Height, err)
		}

		if cur.tail != nil {
			tailHeader := cur.tail.head.Header
			if cur.head.Header.Core.Height != tailHeader.Core.Height+1 {
				return fmt.Errorf("%w: height %d, tail %d", ErrInvalidHeight, cur.head.Header.Core.Height, tailHeader.Core.Height)
			}
			if !cur.head.Header.Core.Difficulty.Equal(tailHeader.Core.Difficulty) {
				return ErrInvalidDifficulty
			}
			if !cur.head.Header.Core.PreviousBlockHash.Equal(tailHeader.Hash) {
				return ErrHeadAndTailHashMismatch
			}
			continue
		}

		if !cur.head.Header.Hash.Equal(expectedGenesisHash) {
			return fmt.Errorf("%w: got %s, want %s", ErrInvalidGenesis, cur.head.Header.Hash, expectedGenesisHash)
		}
	}

	return nil
}
