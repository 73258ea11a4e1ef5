package state

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ardanlabs/fcoin/foundation/blockchain/database"
)

// Outcome describes what ingesting a block did to the chain.
type Outcome int

// Set of outcomes for block ingestion.
const (
	Rejected Outcome = iota
	Duplicate
	Extended
	Orphaned
)

// String implements the fmt.Stringer interface.
func (o Outcome) String() string {
	switch o {
	case Duplicate:
		return "duplicate"
	case Extended:
		return "extended"
	case Orphaned:
		return "orphaned"
	}

	return "rejected"
}

// =============================================================================

// AttemptPOW makes one proof of work attempt for the proto block against the
// current tip. The tip is read under the lock but the hashing is done outside
// of it, so the result may be stale by the time it is ingested.
func (s *State) AttemptPOW(pb database.ProtoBlock) database.POWResult {
	tip := s.RetrieveTip()

	return database.POW(pb, database.POWArgs{
		Miner:      s.identity,
		PrevHash:   tip,
		Difficulty: s.difficulty,
		Now:        time.Now(),
	})
}

// IngestBlock validates the block and links it into the chain. A block that
// is already stored is a no-op. A valid block becomes the new tip only if it
// extends the current tip, otherwise it is stored as an orphan and never
// reconsidered.
func (s *State) IngestBlock(block database.Block) (Outcome, error) {
	hash := block.Hash()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.chain.Contains(hash) {
		return Duplicate, nil
	}

	if err := database.ValidateBlock(block, s.chain); err != nil {
		return Rejected, fmt.Errorf("block %s: %w", hash, err)
	}

	s.chain[hash] = block

	if block.PreviousHash != s.tip {
		s.evHandler("state: IngestBlock: orphaned: blk[%s]: prevBlk[%s]: tip[%s]", hash, block.PreviousHash, s.tip)
		s.blockEvent(hash, block, Orphaned)
		return Orphaned, nil
	}

	s.tip = hash

	s.evHandler("state: IngestBlock: extended: blk[%s]: prevBlk[%s]", hash, block.PreviousHash)
	s.blockEvent(hash, block, Extended)

	return Extended, nil
}

// ProcessPeerBlock takes a block received from a peer, checks the proof of
// work and the signature, and ingests it. A block that wasn't known before is
// relayed to every other connected peer.
func (s *State) ProcessPeerBlock(block database.Block, from string) (Outcome, error) {
	s.evHandler("state: ProcessPeerBlock: started: from[%s]: prevBlk[%s]", from, block.PreviousHash)

	if err := database.ValidatePOW(block, s.difficulty); err != nil {
		return Rejected, err
	}

	tx := block.Transaction
	if !s.verifier.Verify(tx.Details, tx.Signature, tx.Details.Source) {
		return Rejected, fmt.Errorf("block %s: %w", block.Hash(), ErrInvalidSignature)
	}

	outcome, err := s.IngestBlock(block)
	if err != nil {
		return outcome, err
	}

	if outcome != Duplicate {
		s.Broadcast(block, from)
	}

	return outcome, nil
}

// =============================================================================

// blockEvent provides a specific event about a new block in the chain for
// application specific support.
func (s *State) blockEvent(hash database.Hash, block database.Block, outcome Outcome) {
	blockJSON, err := json.Marshal(block)
	if err != nil {
		blockJSON = []byte(fmt.Sprintf("%q", err.Error()))
	}

	s.evHandler(`viewer: block: {"hash":%q,"outcome":%q,"block":%s}`, hash, outcome, string(blockJSON))
}
