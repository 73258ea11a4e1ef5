// Package signature provides the signing and verification capabilities used
// to authorize transactions. Noop mirrors a development network where
// signatures aren't checked and Secp256k1 provides real cryptography.
package signature

import (
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/ardanlabs/fcoin/foundation/blockchain/database"
	"github.com/ethereum/go-ethereum/crypto"
)

// Set of signature schemes a node can be configured with.
const (
	SchemeNoop      = "noop"
	SchemeSecp256k1 = "secp256k1"
)

// publicKeyLength is the size of an uncompressed secp256k1 public key.
const publicKeyLength = 65

// =============================================================================

// Noop signs every transaction with the all zero signature and accepts any
// signature during verification.
type Noop struct {
	ID database.Identity
}

// Identity implements the database.Signer interface.
func (n Noop) Identity() database.Identity {
	return n.ID
}

// Sign implements the database.Signer interface.
func (Noop) Sign(details database.TransactionDetails) (database.Signature, error) {
	return database.Signature{}, nil
}

// Verify implements the database.Verifier interface.
func (Noop) Verify(details database.TransactionDetails, sig database.Signature, source database.Identity) bool {
	return true
}

// =============================================================================

// Secp256k1 signs transaction details with a secp256k1 private key.
type Secp256k1 struct {
	privateKey *ecdsa.PrivateKey
	id         database.Identity
}

// NewSecp256k1 constructs a signer for the specified private key.
func NewSecp256k1(privateKey *ecdsa.PrivateKey) *Secp256k1 {
	return &Secp256k1{
		privateKey: privateKey,
		id:         PublicKeyToIdentity(privateKey.PublicKey),
	}
}

// Identity implements the database.Signer interface.
func (s *Secp256k1) Identity() database.Identity {
	return s.id
}

// Sign implements the database.Signer interface. The 65 byte [R|S|V]
// signature is placed at the start of the 128 byte signature.
func (s *Secp256k1) Sign(details database.TransactionDetails) (database.Signature, error) {
	if details.Source != s.id {
		return database.Signature{}, errors.New("source is not the identity of this key")
	}

	sig, err := crypto.Sign(stamp(details), s.privateKey)
	if err != nil {
		return database.Signature{}, fmt.Errorf("sign: %w", err)
	}

	var out database.Signature
	copy(out[:], sig)

	return out, nil
}

// Verifier checks secp256k1 signatures produced by Secp256k1.
type Verifier struct{}

// Verify implements the database.Verifier interface.
func (Verifier) Verify(details database.TransactionDetails, sig database.Signature, source database.Identity) bool {

	// Anything past the key and signature bytes must be zero.
	if !zeroTail(source[publicKeyLength:]) || !zeroTail(sig[crypto.SignatureLength:]) {
		return false
	}

	// The recovery id isn't needed to verify against a known public key.
	rs := sig[:crypto.RecoveryIDOffset]

	return crypto.VerifySignature(source[:publicKeyLength], stamp(details), rs)
}

// =============================================================================

// New returns the signer and verifier for the configured scheme.
func New(scheme string, privateKey *ecdsa.PrivateKey) (database.Signer, database.Verifier, error) {
	switch scheme {
	case SchemeNoop:
		return Noop{ID: PublicKeyToIdentity(privateKey.PublicKey)}, Noop{}, nil
	case SchemeSecp256k1:
		return NewSecp256k1(privateKey), Verifier{}, nil
	}

	return nil, nil, fmt.Errorf("unknown signature scheme %q", scheme)
}

// PublicKeyToIdentity places the uncompressed public key at the start of
// the identity. The remaining bytes are zero.
func PublicKeyToIdentity(pk ecdsa.PublicKey) database.Identity {
	var id database.Identity
	copy(id[:], crypto.FromECDSAPub(&pk))

	return id
}

// =============================================================================

// stamp returns a hash of 32 bytes that represents the details with the
// fcoin stamp embedded into the final hash.
func stamp(details database.TransactionDetails) []byte {

	// Hash the details into a 32 byte array. This will provide
	// a data length consistency with all data.
	txHash := crypto.Keccak256(details.Bytes())

	// This stamp is used so signatures we produce when signing data
	// are always unique to the fcoin blockchain.
	stamp := []byte("\x19Fcoin Signed Message:\n32")

	return crypto.Keccak256(stamp, txHash)
}

// zeroTail reports whether every byte is zero.
func zeroTail(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}
