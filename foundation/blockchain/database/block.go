package database

import (
	"crypto/sha256"
	"encoding/binary"
	"time"
)

// Nonce is the value a miner changes until the block hash satisfies the
// proof of work bound. It is treated as a little endian unsigned integer.
type Nonce [NonceLength]byte

// =============================================================================

// Block carries exactly one transaction. The miner identity is credited
// with a reward of one unit on top of the transfer.
type Block struct {
	Time         uint64      `json:"time"`          // Seconds since the epoch when the block was mined.
	Miner        Identity    `json:"miner"`         // Identity receiving the block reward.
	PreviousHash Hash        `json:"previous_hash"` // Hash of the block this block extends.
	Nonce        Nonce       `json:"nonce"`         // Value identified to solve the hash puzzle.
	Transaction  Transaction `json:"transaction"`   // The money transfer recorded by this block.
}

// Hash returns the sha256 digest of the block fields in this order: time,
// miner, previous hash, nonce, source signature, source, destination and
// amount. Integers are encoded little endian.
func (b Block) Hash() Hash {
	h := sha256.New()

	var num [8]byte
	binary.LittleEndian.PutUint64(num[:], b.Time)
	h.Write(num[:])

	h.Write(b.Miner[:])
	h.Write(b.PreviousHash[:])
	h.Write(b.Nonce[:])
	h.Write(b.Transaction.Signature[:])
	h.Write(b.Transaction.Details.Source[:])
	h.Write(b.Transaction.Details.Destination[:])

	binary.LittleEndian.PutUint64(num[:], b.Transaction.Details.Amount)
	h.Write(num[:])

	return toHash(h.Sum(nil))
}

// Timestamp returns the block time as a time value.
func (b Block) Timestamp() time.Time {
	return time.Unix(int64(b.Time), 0).UTC()
}

// =============================================================================

// ProtoBlock is a transaction waiting to be admitted into the chain by
// solving the proof of work puzzle. It only becomes linked to a previous
// block and timestamped when an attempt is made.
type ProtoBlock struct {
	Nonce       Nonce       `json:"nonce"`
	Transaction Transaction `json:"transaction"`
}

// NewProtoBlock constructs a proto block with a zero nonce.
func NewProtoBlock(tx Transaction) ProtoBlock {
	return ProtoBlock{
		Transaction: tx,
	}
}
