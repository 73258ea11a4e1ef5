package worker

import (
	"errors"

	"github.com/ardanlabs/fcoin/foundation/blockchain/database"
	"github.com/ardanlabs/fcoin/foundation/blockchain/state"
)

// miningOperations takes proto blocks from the mempool in order and makes
// one proof of work attempt for each.
func (w *Worker) miningOperations() {
	w.evHandler("worker: miningOperations: G started")
	defer w.evHandler("worker: miningOperations: G completed")

	for {
		pb, err := w.state.NextProtoBlock(w.ctx)
		if err != nil {
			w.evHandler("worker: miningOperations: received shut signal: %s", err)
			return
		}

		w.runMiningOperation(pb)
	}
}

// runMiningOperation attempts the proof of work once against the current tip.
// A solved block is ingested and broadcast, otherwise the proto block goes to
// the tail of the mempool with its nonce incremented.
func (w *Worker) runMiningOperation(pb database.ProtoBlock) {
	result := w.state.AttemptPOW(pb)

	if !result.Solved {
		if err := w.state.RequeueProtoBlock(result.Retry); err != nil {
			w.evHandler("worker: runMiningOperation: MINING: requeue: WARNING: %s", err)
		}
		return
	}

	block := result.Block
	w.evHandler("worker: runMiningOperation: MINING: solved: nonce[%s]: tx[%s]", block.Nonce, block.Transaction)

	outcome, err := w.state.IngestBlock(block)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrInsufficientFunds):
			w.evHandler("worker: runMiningOperation: MINING: insufficient funds, dropped: %s", err)
		default:
			w.evHandler("worker: runMiningOperation: MINING: ERROR: %s", err)
		}
		return
	}

	w.evHandler("worker: runMiningOperation: MINING: ingested: %s", outcome)

	if outcome == state.Duplicate {
		return
	}

	// WOW, we mined a block. Propose the new block to the network.
	w.state.Broadcast(block, "")
}
