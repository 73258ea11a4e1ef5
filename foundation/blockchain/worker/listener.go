package worker

import (
	"time"

	"github.com/ardanlabs/fcoin/foundation/blockchain/peer"
)

// Bounds for the delay between failed accept calls.
const (
	minAcceptDelay = 5 * time.Millisecond
	maxAcceptDelay = time.Second
)

// listenerOperations accepts inbound peer connections and starts a session
// for each of them.
func (w *Worker) listenerOperations() {
	w.evHandler("worker: listenerOperations: G started: addr[%s]", w.listener.Addr())
	defer w.evHandler("worker: listenerOperations: G completed")

	var delay time.Duration

	for {
		conn, err := w.listener.Accept()
		if err != nil {
			if w.isShutdown() {
				w.evHandler("worker: listenerOperations: received shut signal")
				return
			}

			// Errors like running out of file descriptors persist, so
			// wait before trying again.
			switch {
			case delay == 0:
				delay = minAcceptDelay
			case delay < maxAcceptDelay:
				delay *= 2
				if delay > maxAcceptDelay {
					delay = maxAcceptDelay
				}
			}

			w.evHandler("worker: listenerOperations: accept: ERROR: %s: retrying in %v", err, delay)

			select {
			case <-time.After(delay):
			case <-w.shut:
				w.evHandler("worker: listenerOperations: received shut signal")
				return
			}

			continue
		}

		delay = 0
		w.startSession(peer.New(conn.RemoteAddr().String()), conn)
	}
}
