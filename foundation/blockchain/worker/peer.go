package worker

import (
	"net"

	"github.com/ardanlabs/fcoin/foundation/blockchain/peer"
)

// peerOperations dials the seed peers at startup and then periodically
// redials any seed this node lost its session with.
func (w *Worker) peerOperations() {
	w.evHandler("worker: peerOperations: G started")
	defer w.evHandler("worker: peerOperations: G completed")

	w.runPeersOperation()

	for {
		select {
		case <-w.ticker.C:
			if !w.isShutdown() {
				w.runPeersOperation()
			}
		case <-w.shut:
			w.evHandler("worker: peerOperations: received shut signal")
			return
		}
	}
}

// runPeersOperation opens a session with every seed that isn't connected.
func (w *Worker) runPeersOperation() {
	w.evHandler("worker: runPeersOperation: started")
	defer w.evHandler("worker: runPeersOperation: completed")

	for _, p := range w.state.RetrieveKnownPeers() {
		if w.isShutdown() {
			return
		}

		if w.state.IsPeerConnected(p) {
			continue
		}

		if err := w.dial(p); err != nil {
			w.evHandler("worker: runPeersOperation: dial: %s: ERROR: %s", p.Host, err)
		}
	}
}

// dial connects to the peer and starts a session with it.
func (w *Worker) dial(p peer.Peer) error {
	d := net.Dialer{
		Timeout: dialTimeout,
	}

	conn, err := d.DialContext(w.ctx, "tcp", p.Host)
	if err != nil {
		return err
	}

	w.startSession(p, conn)
	return nil
}
