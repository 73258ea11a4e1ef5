package state

import (
	"github.com/ardanlabs/fcoin/foundation/blockchain/database"
	"github.com/ardanlabs/fcoin/foundation/blockchain/peer"
	"github.com/ardanlabs/fcoin/foundation/blockchain/wire"
)

// RegisterPeer adds or replaces the output handle for the peer.
func (s *State) RegisterPeer(p peer.Peer, sender peer.Sender) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.peers.Register(p, sender) {
		s.evHandler("state: RegisterPeer: replaced: peer[%s]", p)
		return
	}

	s.evHandler("state: RegisterPeer: added: peer[%s]", p)
}

// RemovePeer drops the peer if sender is still its registered output handle.
func (s *State) RemovePeer(p peer.Peer, sender peer.Sender) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.peers.Remove(p, sender) {
		s.evHandler("state: RemovePeer: removed: peer[%s]", p)
	}
}

// IsPeerConnected reports whether the peer has a registered output handle.
func (s *State) IsPeerConnected(p peer.Peer) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, cp := range s.peers.Copy("") {
		if cp == p {
			return true
		}
	}

	return false
}

// RetrieveConnectedPeers returns the peers with a registered output handle.
func (s *State) RetrieveConnectedPeers() []peer.Peer {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.peers.Copy("")
}

// Broadcast sends the block to every connected peer except the specified
// host. Output handles never block, a peer that can't keep up loses the frame.
func (s *State) Broadcast(block database.Block, exclude string) {
	s.mu.Lock()
	senders := s.peers.Senders(exclude)
	s.mu.Unlock()

	frame := wire.BlockFrame(block)
	for p, sender := range senders {
		if !sender.Send(frame) {
			s.evHandler("state: Broadcast: WARNING: peer[%s]: outbox full, frame dropped", p)
		}
	}
}
