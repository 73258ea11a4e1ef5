package state

import (
	"github.com/ardanlabs/fcoin/foundation/blockchain/database"
	"github.com/ardanlabs/fcoin/foundation/blockchain/peer"
)

// RetrieveTip returns the hash of the block at the head of the chain.
func (s *State) RetrieveTip() database.Hash {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.tip
}

// QueryBalance derives the balance of the identity at the current tip and
// returns the tip it was derived at.
func (s *State) QueryBalance(id database.Identity) (database.Hash, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	value, err := database.Balance(s.chain, s.tip, id)
	if err != nil {
		return database.Hash{}, 0, err
	}

	return s.tip, value, nil
}

// QueryBlock returns the stored block for the hash, canonical or orphaned.
func (s *State) QueryBlock(hash database.Hash) (database.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.chain.Lookup(hash)
}

// QueryChain returns the canonical chain from the tip back to the root.
func (s *State) QueryChain() ([]database.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var blocks []database.Block
	err := s.chain.Walk(s.tip, func(_ database.Hash, block database.Block) bool {
		blocks = append(blocks, block)
		return true
	})

	return blocks, err
}

// QueryMempool returns a copy of the proto blocks waiting to be mined.
func (s *State) QueryMempool() []database.ProtoBlock {
	return s.mempool.Copy()
}

// QueryMempoolLength returns the current length of the mempool.
func (s *State) QueryMempoolLength() int {
	return s.mempool.Count()
}

// QueryStatus returns a summary of this node.
func (s *State) QueryStatus() (peer.PeerStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	length, err := s.chain.Length(s.tip)
	if err != nil {
		return peer.PeerStatus{}, err
	}

	status := peer.PeerStatus{
		TipHash:     s.tip,
		ChainLength: length,
		Blocks:      len(s.chain),
		Pending:     s.mempool.Count(),
		KnownPeers:  s.peers.Copy(""),
	}

	return status, nil
}
