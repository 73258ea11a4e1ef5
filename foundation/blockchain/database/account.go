package database

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/btcsuite/btcutil/base58"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"golang.org/x/crypto/ripemd160"
)

// Sizes of the fixed width values that make up blocks and transactions.
const (
	IdentityLength  = 128
	SignatureLength = 128
	HashLength      = 32
	NonceLength     = 32
)

// =============================================================================

// Identity represents the public key of an account on the blockchain. It is
// used as the source and destination of transfers and as the miner of a block.
type Identity [IdentityLength]byte

// ToIdentity converts a hex-encoded string into an identity. The string must
// decode to exactly IdentityLength bytes.
func ToIdentity(hex string) (Identity, error) {
	b, err := hexutil.Decode(hex)
	if err != nil {
		return Identity{}, fmt.Errorf("invalid identity format: %w", err)
	}

	if len(b) != IdentityLength {
		return Identity{}, fmt.Errorf("invalid identity length, got %d, exp %d", len(b), IdentityLength)
	}

	var id Identity
	copy(id[:], b)

	return id, nil
}

// Hex returns the 0x prefixed hex encoding of the identity.
func (id Identity) Hex() string {
	return hexutil.Encode(id[:])
}

// Address returns a short base58 rendering of the identity, computed as
// ripemd160(sha256(identity)). It is only used for display purposes.
func (id Identity) Address() string {
	sum := sha256.Sum256(id[:])

	h := ripemd160.New()
	h.Write(sum[:])

	return base58.Encode(h.Sum(nil))
}

// String implements the fmt.Stringer interface.
func (id Identity) String() string {
	return id.Address()
}

// IsZero reports whether the identity is all zeros.
func (id Identity) IsZero() bool {
	return id == Identity{}
}

// MarshalText implements the encoding.TextMarshaler interface.
func (id Identity) MarshalText() ([]byte, error) {
	return []byte(id.Hex()), nil
}

// UnmarshalText implements the encoding.TextUnmarshaler interface.
func (id *Identity) UnmarshalText(data []byte) error {
	v, err := ToIdentity(string(data))
	if err != nil {
		return err
	}
	*id = v

	return nil
}

// =============================================================================

// Signature represents the signature produced by the source identity over
// the details of a transaction.
type Signature [SignatureLength]byte

// Hex returns the 0x prefixed hex encoding of the signature.
func (s Signature) Hex() string {
	return hexutil.Encode(s[:])
}

// MarshalText implements the encoding.TextMarshaler interface.
func (s Signature) MarshalText() ([]byte, error) {
	return []byte(s.Hex()), nil
}

// UnmarshalText implements the encoding.TextUnmarshaler interface.
func (s *Signature) UnmarshalText(data []byte) error {
	b, err := hexutil.Decode(string(data))
	if err != nil {
		return fmt.Errorf("invalid signature format: %w", err)
	}

	if len(b) != SignatureLength {
		return fmt.Errorf("invalid signature length, got %d, exp %d", len(b), SignatureLength)
	}
	copy(s[:], b)

	return nil
}

// =============================================================================

// Hash represents the 32 byte digest that identifies a block. The zero
// value is the root of the chain and never refers to a stored block.
type Hash [HashLength]byte

// ZeroHash represents the root of every chain.
var ZeroHash Hash

// ToHash converts a hex-encoded string into a hash.
func ToHash(hex string) (Hash, error) {
	b, err := hexutil.Decode(hex)
	if err != nil {
		return Hash{}, fmt.Errorf("invalid hash format: %w", err)
	}

	if len(b) != HashLength {
		return Hash{}, errors.New("invalid hash length")
	}

	return toHash(b), nil
}

// toHash places a digest into a Hash. All 32 digest bytes are copied
// verbatim. Shorter input is right aligned and longer input keeps its
// trailing 32 bytes.
func toHash(b []byte) Hash {
	var h Hash
	if len(b) >= HashLength {
		copy(h[:], b[len(b)-HashLength:])
		return h
	}

	copy(h[HashLength-len(b):], b)
	return h
}

// IsRoot reports whether the hash is the all zero root.
func (h Hash) IsRoot() bool {
	return h == ZeroHash
}

// String returns the 0x prefixed hex encoding of the hash.
func (h Hash) String() string {
	return hexutil.Encode(h[:])
}

// MarshalText implements the encoding.TextMarshaler interface.
func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText implements the encoding.TextUnmarshaler interface.
func (h *Hash) UnmarshalText(data []byte) error {
	v, err := ToHash(string(data))
	if err != nil {
		return err
	}
	*h = v

	return nil
}
