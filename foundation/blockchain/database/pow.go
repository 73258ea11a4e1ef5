package database

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Difficulty is the exponent of the proof of work bound. A block hash,
// read as a little endian unsigned integer, must be below 2^Difficulty.
// A larger value makes the puzzle easier.
type Difficulty uint

// DefaultDifficulty is the bound used by a node unless configured otherwise.
const DefaultDifficulty Difficulty = 240

// maxDifficulty accepts every hash.
const maxDifficulty Difficulty = HashLength * 8

// Bound returns 2^d, the exclusive upper bound for a solved hash.
func (d Difficulty) Bound() *big.Int {
	return new(big.Int).Lsh(big.NewInt(1), uint(d))
}

// IsSolved checks the hash complies with the proof of work bound.
func (d Difficulty) IsSolved(hash Hash) bool {
	if d >= maxDifficulty {
		return true
	}

	return leToInt(hash[:]).Cmp(d.Bound()) < 0
}

// =============================================================================

// POWArgs represents the set of arguments required to make one proof of
// work attempt.
type POWArgs struct {
	Miner      Identity
	PrevHash   Hash
	Difficulty Difficulty
	Now        time.Time
}

// POWResult is the outcome of one proof of work attempt. When Solved is
// true Block is ready for ingestion, otherwise Retry carries the same
// transaction with the nonce incremented by one.
type POWResult struct {
	Solved bool
	Block  Block
	Retry  ProtoBlock
}

// POW makes exactly one attempt at admitting the proto block. The block is
// built with the current time, the miner identity and the previous hash
// provided, then its hash is checked against the difficulty bound.
func POW(pb ProtoBlock, args POWArgs) POWResult {
	block := Block{
		Time:         uint64(args.Now.UTC().Unix()),
		Miner:        args.Miner,
		PreviousHash: args.PrevHash,
		Nonce:        pb.Nonce,
		Transaction:  pb.Transaction,
	}

	if args.Difficulty.IsSolved(block.Hash()) {
		return POWResult{
			Solved: true,
			Block:  block,
		}
	}

	retry := ProtoBlock{
		Nonce:       pb.Nonce.Increment(),
		Transaction: pb.Transaction,
	}

	return POWResult{
		Retry: retry,
	}
}

// ValidatePOW checks a block received from the network satisfies the
// proof of work bound.
func ValidatePOW(block Block, difficulty Difficulty) error {
	hash := block.Hash()
	if !difficulty.IsSolved(hash) {
		return fmt.Errorf("%s: %w", hash, ErrProofOfWork)
	}

	return nil
}

// =============================================================================

// Increment returns the nonce plus one. The value wraps to zero after the
// largest 256 bit value.
func (n Nonce) Increment() Nonce {
	var next Nonce
	carry := true
	for i := 0; i < NonceLength; i++ {
		next[i] = n[i]
		if carry {
			next[i]++
			carry = next[i] == 0
		}
	}

	return next
}

// Int returns the nonce as an unsigned integer.
func (n Nonce) Int() *big.Int {
	return leToInt(n[:])
}

// String returns the 0x prefixed hex encoding of the nonce bytes.
func (n Nonce) String() string {
	return hexutil.Encode(n[:])
}

// MarshalText implements the encoding.TextMarshaler interface.
func (n Nonce) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

// UnmarshalText implements the encoding.TextUnmarshaler interface.
func (n *Nonce) UnmarshalText(data []byte) error {
	b, err := hexutil.Decode(string(data))
	if err != nil {
		return fmt.Errorf("invalid nonce format: %w", err)
	}

	if len(b) != NonceLength {
		return fmt.Errorf("invalid nonce length, got %d, exp %d", len(b), NonceLength)
	}
	copy(n[:], b)

	return nil
}

// leToInt reads the bytes as a little endian unsigned integer.
func leToInt(le []byte) *big.Int {
	be := make([]byte, len(le))
	for i := range le {
		be[len(le)-1-i] = le[i]
	}

	return new(big.Int).SetBytes(be)
}
