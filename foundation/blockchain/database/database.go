// Package database maintains the blockchain data model, the in memory chain
// store, and the consensus rules that are applied to it: balance derivation,
// block validation and proof of work.
package database

import (
	"errors"
	"fmt"
	"math"
)

// Set of errors that describe why a block can't be linked into the chain.
var (
	ErrInvalidChain      = errors.New("invalid chain")
	ErrSelfTransfer      = errors.New("source and destination are the same")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrAmountRange       = errors.New("amount out of range")
	ErrProofOfWork       = errors.New("proof of work not satisfied")
	ErrBlockNotFound     = errors.New("block not found")
)

// blockReward is credited to the miner of every block.
const blockReward = 1

// =============================================================================

// Chain is the set of known blocks keyed by their hash. A Chain value has no
// synchronization of its own and must be owned by a single aggregate that
// serializes access to it.
type Chain map[Hash]Block

// NewChain constructs an empty chain.
func NewChain() Chain {
	return make(Chain)
}

// Lookup returns the block stored under the specified hash. The root hash
// is never a stored block.
func (c Chain) Lookup(hash Hash) (Block, error) {
	if hash.IsRoot() {
		return Block{}, ErrBlockNotFound
	}

	block, exists := c[hash]
	if !exists {
		return Block{}, ErrBlockNotFound
	}

	return block, nil
}

// Contains reports whether a block with the specified hash is stored.
func (c Chain) Contains(hash Hash) bool {
	_, exists := c[hash]
	return exists
}

// Walk calls fn for every block from the specified hash back to the root.
// Walking stops early when fn returns false. ErrInvalidChain is returned
// when a link points to a block that isn't stored.
func (c Chain) Walk(from Hash, fn func(hash Hash, block Block) bool) error {
	hash := from

	// A chain can't be longer than the number of stored blocks, so this
	// bounds the walk even if the links were to form a cycle.
	for steps := 0; !hash.IsRoot(); steps++ {
		if steps > len(c) {
			return fmt.Errorf("walk exceeded %d blocks: %w", len(c), ErrInvalidChain)
		}

		block, exists := c[hash]
		if !exists {
			return fmt.Errorf("missing block %s: %w", hash, ErrInvalidChain)
		}

		if !fn(hash, block) {
			return nil
		}

		hash = block.PreviousHash
	}

	return nil
}

// Length returns the number of blocks between the specified hash and the root.
func (c Chain) Length(from Hash) (int, error) {
	var n int
	err := c.Walk(from, func(Hash, Block) bool {
		n++
		return true
	})

	return n, err
}

// =============================================================================

// Balance derives the balance of the identity by walking the chain from the
// tip back to the root. The balance may go negative part way through the
// walk; only the final value is meaningful.
func Balance(chain Chain, tip Hash, id Identity) (int64, error) {
	var value int64
	var selfTransfer *Hash

	err := chain.Walk(tip, func(hash Hash, block Block) bool {
		details := block.Transaction.Details

		if details.IsSelfTransfer() {
			selfTransfer = &hash
			return false
		}

		if id == details.Source {
			value -= int64(details.Amount)
		}

		if id == details.Destination {
			value += int64(details.Amount)
		}

		if id == block.Miner {
			value += blockReward
		}

		return true
	})

	switch {
	case err != nil:
		return 0, err
	case selfTransfer != nil:
		return 0, fmt.Errorf("self transfer in block %s: %w", *selfTransfer, ErrInvalidChain)
	}

	return value, nil
}

// =============================================================================

// ValidateBlock checks the block can be linked into the chain: the transfer
// isn't a self transfer, the amount is representable, and the source holds
// at least the amount at the point just before the block.
func ValidateBlock(block Block, chain Chain) error {
	details := block.Transaction.Details

	if details.IsSelfTransfer() {
		return ErrSelfTransfer
	}

	if details.Amount > math.MaxInt64 {
		return fmt.Errorf("amount %d: %w", details.Amount, ErrAmountRange)
	}

	balance, err := Balance(chain, block.PreviousHash, details.Source)
	if err != nil {
		return err
	}

	if balance < int64(details.Amount) {
		return fmt.Errorf("balance %d, needed %d: %w", balance, details.Amount, ErrInsufficientFunds)
	}

	return nil
}

// ValidBlock reports whether ValidateBlock accepts the block.
func ValidBlock(block Block, chain Chain) bool {
	return ValidateBlock(block, chain) == nil
}
