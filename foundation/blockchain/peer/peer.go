// Package peer maintains the peer related information such as the table
// of connected peers and their output handles.
package peer

import (
	"sort"

	"github.com/ardanlabs/fcoin/foundation/blockchain/database"
	"github.com/ardanlabs/fcoin/foundation/blockchain/wire"
)

// Peer represents information about a Node in the network.
type Peer struct {
	Host string `json:"host"`
}

// New contructs a new info value.
func New(host string) Peer {
	return Peer{
		Host: host,
	}
}

// Match validates if the specified host matches this node.
func (p Peer) Match(host string) bool {
	return p.Host == host
}

// String implements the fmt.Stringer interface.
func (p Peer) String() string {
	return p.Host
}

// =============================================================================

// Sender represents the output handle of a connected peer. Send must not
// block; it reports false when the frame could not be queued.
type Sender interface {
	Send(f wire.Frame) bool
}

// PeerStatus represents information about the status of any given node.
type PeerStatus struct {
	TipHash     database.Hash `json:"tip_hash"`
	ChainLength int           `json:"chain_length"`
	Blocks      int           `json:"blocks"`
	Pending     int           `json:"pending"`
	KnownPeers  []Peer        `json:"known_peers"`
}

// =============================================================================

// Table maps a peer address to its output handle. A Table has no
// synchronization of its own and must be owned by a single aggregate that
// serializes access to it.
type Table struct {
	senders map[Peer]Sender
}

// NewTable constructs an empty peer table.
func NewTable() *Table {
	return &Table{
		senders: make(map[Peer]Sender),
	}
}

// Register adds or replaces the output handle for the peer. It reports
// whether an existing handle was replaced.
func (t *Table) Register(p Peer, s Sender) bool {
	_, exists := t.senders[p]
	t.senders[p] = s

	return exists
}

// Remove drops the peer only if its current output handle is s. A session
// that was replaced by a newer one can't remove its successor.
func (t *Table) Remove(p Peer, s Sender) bool {
	current, exists := t.senders[p]
	if !exists || current != s {
		return false
	}

	delete(t.senders, p)
	return true
}

// Len returns the number of registered peers.
func (t *Table) Len() int {
	return len(t.senders)
}

// Copy returns the registered peers sorted by host, excluding the
// specified host.
func (t *Table) Copy(host string) []Peer {
	peers := make([]Peer, 0, len(t.senders))
	for p := range t.senders {
		if !p.Match(host) {
			peers = append(peers, p)
		}
	}

	sort.Slice(peers, func(i, j int) bool {
		return peers[i].Host < peers[j].Host
	})

	return peers
}

// Senders returns the output handles of every peer except the specified host.
func (t *Table) Senders(host string) map[Peer]Sender {
	senders := make(map[Peer]Sender, len(t.senders))
	for p, s := range t.senders {
		if !p.Match(host) {
			senders[p] = s
		}
	}

	return senders
}
