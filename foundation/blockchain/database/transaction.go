package database

import (
	"encoding/binary"
	"fmt"
)

// TransactionDetails is the transfer of an amount between two identities.
type TransactionDetails struct {
	Source      Identity `json:"source"`
	Destination Identity `json:"destination"`
	Amount      uint64   `json:"amount"`
}

// NewTransactionDetails constructs the details of a transfer.
func NewTransactionDetails(source Identity, destination Identity, amount uint64) TransactionDetails {
	return TransactionDetails{
		Source:      source,
		Destination: destination,
		Amount:      amount,
	}
}

// Bytes returns the canonical byte representation of the details. This is
// the data a signature is produced over.
func (td TransactionDetails) Bytes() []byte {
	b := make([]byte, 0, IdentityLength*2+8)
	b = append(b, td.Source[:]...)
	b = append(b, td.Destination[:]...)
	b = binary.LittleEndian.AppendUint64(b, td.Amount)

	return b
}

// IsSelfTransfer reports whether the source and destination are the same.
func (td TransactionDetails) IsSelfTransfer() bool {
	return td.Source == td.Destination
}

// String implements the fmt.Stringer interface for logging.
func (td TransactionDetails) String() string {
	return fmt.Sprintf("%s->%s:%d", td.Source, td.Destination, td.Amount)
}

// =============================================================================

// Transaction is a set of details signed by the source identity.
type Transaction struct {
	Details   TransactionDetails `json:"details"`
	Signature Signature          `json:"signature"`
}

// NewTransaction constructs a transaction from the details and signature.
func NewTransaction(details TransactionDetails, sig Signature) Transaction {
	return Transaction{
		Details:   details,
		Signature: sig,
	}
}

// String implements the fmt.Stringer interface for logging.
func (tx Transaction) String() string {
	return tx.Details.String()
}

// =============================================================================

// Signer represents the behavior required to produce a signature over the
// details of a transaction on behalf of the source identity.
type Signer interface {
	Identity() Identity
	Sign(details TransactionDetails) (Signature, error)
}

// Verifier represents the behavior required to check a signature produced
// by a Signer against the source identity.
type Verifier interface {
	Verify(details TransactionDetails, sig Signature, source Identity) bool
}
