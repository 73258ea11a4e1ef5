// Package state is the core API for the blockchain and implements all the
// business rules and processing. The State value is the node aggregate: it
// owns the chain store, the tip, the local identity and the table of
// connected peers, and serializes every access to them through one mutex.
package state

import (
	"errors"
	"sync"

	"github.com/ardanlabs/fcoin/foundation/blockchain/database"
	"github.com/ardanlabs/fcoin/foundation/blockchain/mempool"
	"github.com/ardanlabs/fcoin/foundation/blockchain/peer"
)

// ErrInvalidSignature is returned when a transaction signature doesn't
// verify against the source identity.
var ErrInvalidSignature = errors.New("invalid signature")

// =============================================================================

// EventHandler defines a function that is called when events
// occur in the processing of blocks and transactions.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing support for mining and peer sessions.
type Worker interface {
	Shutdown()
}

// =============================================================================

// Config represents the configuration required to start
// the blockchain node.
type Config struct {
	Identity      database.Identity
	Host          string
	KnownPeers    []peer.Peer
	Verifier      database.Verifier
	Difficulty    database.Difficulty
	QueueCapacity int
	EvHandler     EventHandler
}

// State manages the blockchain database.
type State struct {
	identity   database.Identity
	host       string
	knownPeers []peer.Peer
	verifier   database.Verifier
	difficulty database.Difficulty
	evHandler  EventHandler

	mu    sync.Mutex
	chain database.Chain
	tip   database.Hash
	peers *peer.Table

	mempool *mempool.Mempool
	once    sync.Once

	Worker Worker
}

// New constructs a new blockchain for data management. The chain starts
// empty with the tip at the root.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	if cfg.Verifier == nil {
		return nil, errors.New("a signature verifier is required")
	}

	// Construct the replication pipeline that feeds the mining task.
	mempool, err := mempool.New(cfg.QueueCapacity)
	if err != nil {
		return nil, err
	}

	// Copy the seed list so the caller can't change it underneath us.
	knownPeers := make([]peer.Peer, len(cfg.KnownPeers))
	copy(knownPeers, cfg.KnownPeers)

	state := State{
		identity:   cfg.Identity,
		host:       cfg.Host,
		knownPeers: knownPeers,
		verifier:   cfg.Verifier,
		difficulty: cfg.Difficulty,
		evHandler:  ev,

		chain: database.NewChain(),
		tip:   database.ZeroHash,
		peers: peer.NewTable(),

		mempool: mempool,
	}

	// The Worker is not set here. The call to worker.Run will assign itself
	// and start everything up and running for the node.

	return &state, nil
}

// Shutdown cleanly brings the node down. Calls after the first are no-ops.
func (s *State) Shutdown() error {
	s.once.Do(func() {
		s.evHandler("state: shutdown: started")
		defer s.evHandler("state: shutdown: completed")

		// Stop all blockchain writing activity.
		if s.Worker != nil {
			s.Worker.Shutdown()
		}

		// Release anything still waiting on the pipeline.
		s.mempool.Close()
	})

	return nil
}

// =============================================================================

// RetrieveHost returns the listen address of this node.
func (s *State) RetrieveHost() string {
	return s.host
}

// RetrieveIdentity returns the identity credited when this node mines.
func (s *State) RetrieveIdentity() database.Identity {
	return s.identity
}

// RetrieveDifficulty returns the proof of work difficulty of the network.
func (s *State) RetrieveDifficulty() database.Difficulty {
	return s.difficulty
}

// RetrieveKnownPeers returns the seed list this node was started with,
// excluding this node.
func (s *State) RetrieveKnownPeers() []peer.Peer {
	peers := make([]peer.Peer, 0, len(s.knownPeers))
	for _, p := range s.knownPeers {
		if !p.Match(s.host) {
			peers = append(peers, p)
		}
	}

	return peers
}
