package worker

import (
	"errors"
	"io"
	"net"
	"sync"

	"github.com/ardanlabs/fcoin/foundation/blockchain/peer"
	"github.com/ardanlabs/fcoin/foundation/blockchain/wire"
)

// outboxCapacity represents the number of frames that can be waiting to be
// written to a peer before new frames are dropped.
const outboxCapacity = 100

// session is the connection with one peer. Frames read from the peer are fed
// into the state, frames for the peer are queued on the outbox and written
// by a dedicated goroutine.
type session struct {
	peer   peer.Peer
	conn   *wire.Conn
	outbox chan wire.Frame
	done   chan struct{}
	once   sync.Once
}

// Send implements the peer.Sender interface. It never blocks.
func (s *session) Send(f wire.Frame) bool {
	select {
	case <-s.done:
		return false
	default:
	}

	select {
	case s.outbox <- f:
		return true
	default:
		return false
	}
}

// close ends the session. It is safe to call more than once.
func (s *session) close() {
	s.once.Do(func() {
		close(s.done)
		s.conn.Close()
	})
}

// =============================================================================

// startSession registers the connection as a peer and starts the reader and
// writer goroutines. A connection that arrives during shutdown is closed.
func (w *Worker) startSession(p peer.Peer, conn net.Conn) {
	s := session{
		peer:   p,
		conn:   wire.NewConn(conn),
		outbox: make(chan wire.Frame, outboxCapacity),
		done:   make(chan struct{}),
	}

	w.mu.Lock()
	if w.ctx.Err() != nil {
		w.mu.Unlock()
		conn.Close()
		return
	}
	w.sessions[&s] = struct{}{}
	w.wg.Add(2)
	w.mu.Unlock()

	w.state.RegisterPeer(p, &s)

	go func() {
		defer w.wg.Done()
		w.writeOperations(&s)
	}()

	go func() {
		defer w.wg.Done()
		defer w.endSession(&s)
		w.readOperations(&s)
	}()
}

// endSession closes the connection and removes the peer.
func (w *Worker) endSession(s *session) {
	s.close()
	w.state.RemovePeer(s.peer, s)

	w.mu.Lock()
	delete(w.sessions, s)
	w.mu.Unlock()
}

// closeSessions closes every open session.
func (w *Worker) closeSessions() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for s := range w.sessions {
		s.close()
	}
}

// =============================================================================

// readOperations feeds frames from the peer into the state until the peer
// goes away.
func (w *Worker) readOperations(s *session) {
	w.evHandler("worker: readOperations: G started: peer[%s]", s.peer)
	defer w.evHandler("worker: readOperations: G completed: peer[%s]", s.peer)

	for {
		frame, err := s.conn.Read()
		if err != nil {
			if !errors.Is(err, io.EOF) && !w.isShutdown() {
				w.evHandler("worker: readOperations: peer[%s]: read: ERROR: %s", s.peer, err)
			}
			return
		}

		switch frame.Kind {
		case wire.KindBlock:
			outcome, err := w.state.ProcessPeerBlock(frame.Block, s.peer.Host)
			if err != nil {
				w.evHandler("worker: readOperations: peer[%s]: block rejected: %s", s.peer, err)
				continue
			}
			w.evHandler("worker: readOperations: peer[%s]: block: %s", s.peer, outcome)

		case wire.KindTransaction:
			if err := w.state.SubmitTransaction(w.ctx, frame.Transaction); err != nil {
				if w.ctx.Err() != nil {
					return
				}
				w.evHandler("worker: readOperations: peer[%s]: tx rejected: %s", s.peer, err)
			}
		}
	}
}

// writeOperations sends the canonical chain to the peer, oldest block first,
// and then writes queued frames until the session ends.
func (w *Worker) writeOperations(s *session) {
	w.evHandler("worker: writeOperations: G started: peer[%s]", s.peer)
	defer w.evHandler("worker: writeOperations: G completed: peer[%s]", s.peer)

	if err := w.sendChain(s); err != nil {
		w.evHandler("worker: writeOperations: peer[%s]: sync: ERROR: %s", s.peer, err)
		s.close()
		return
	}

	for {
		select {
		case frame := <-s.outbox:
			if err := s.conn.Write(frame); err != nil {
				w.evHandler("worker: writeOperations: peer[%s]: write: ERROR: %s", s.peer, err)
				s.close()
				return
			}

		case <-s.done:
			return
		}
	}
}

// sendChain writes the blocks of the canonical chain so a peer that joined
// late can catch up. Blocks the peer already has are ignored on its side.
func (w *Worker) sendChain(s *session) error {
	chain, err := w.state.QueryChain()
	if err != nil {
		return err
	}

	for i := len(chain) - 1; i >= 0; i-- {
		if err := s.conn.Write(wire.BlockFrame(chain[i])); err != nil {
			return err
		}
	}

	w.evHandler("worker: sendChain: peer[%s]: blocks[%d]", s.peer, len(chain))

	return nil
}

// Compile time check the session can be registered as an output handle.
var _ peer.Sender = (*session)(nil)
