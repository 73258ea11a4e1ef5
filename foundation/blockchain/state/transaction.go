package state

import (
	"context"
	"fmt"

	"github.com/ardanlabs/fcoin/foundation/blockchain/database"
)

// SubmitTransaction verifies the signature of a transaction and enqueues it
// for mining. Transactions authored locally and those received from peers
// enter here. The call blocks while the pipeline is full.
func (s *State) SubmitTransaction(ctx context.Context, tx database.Transaction) error {
	s.evHandler("state: SubmitTransaction: started: tx[%s]", tx)
	defer s.evHandler("state: SubmitTransaction: completed")

	if !s.verifier.Verify(tx.Details, tx.Signature, tx.Details.Source) {
		return fmt.Errorf("tx %s: %w", tx, ErrInvalidSignature)
	}

	if err := s.mempool.Push(ctx, database.NewProtoBlock(tx)); err != nil {
		return err
	}

	s.evHandler(`viewer: tx: {"source":%q,"destination":%q,"amount":%d}`, tx.Details.Source.Address(), tx.Details.Destination.Address(), tx.Details.Amount)

	return nil
}

// NextProtoBlock waits for the next proto block to mine.
func (s *State) NextProtoBlock(ctx context.Context) (database.ProtoBlock, error) {
	return s.mempool.Pop(ctx)
}

// RequeueProtoBlock places a proto block that failed a proof of work attempt
// at the tail of the pipeline.
func (s *State) RequeueProtoBlock(pb database.ProtoBlock) error {
	return s.mempool.Requeue(pb)
}
