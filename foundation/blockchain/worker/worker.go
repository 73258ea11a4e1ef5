// Package worker implements mining, the peer listener, peer sessions and
// seed dialing for the blockchain.
package worker

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/ardanlabs/fcoin/foundation/blockchain/state"
)

// peerUpdateInterval represents the interval of dialing seed peers
// this node isn't connected to.
const peerUpdateInterval = time.Minute

// dialTimeout bounds the time spent connecting to a seed peer.
const dialTimeout = 5 * time.Second

// =============================================================================

// Worker manages the mining and network workflows for the blockchain.
type Worker struct {
	state     *state.State
	listener  net.Listener
	wg        sync.WaitGroup
	ticker    *time.Ticker
	shut      chan struct{}
	ctx       context.Context
	cancel    context.CancelFunc
	evHandler state.EventHandler

	mu       sync.Mutex
	sessions map[*session]struct{}
}

// Run creates a worker, registers the worker with the state package, and
// starts up all the background processes. The listener may be nil for a
// node that doesn't accept inbound peers.
func Run(st *state.State, listener net.Listener, evHandler state.EventHandler) {
	ctx, cancel := context.WithCancel(context.Background())

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if evHandler != nil {
			evHandler(v, args...)
		}
	}

	w := Worker{
		state:     st,
		listener:  listener,
		ticker:    time.NewTicker(peerUpdateInterval),
		shut:      make(chan struct{}),
		ctx:       ctx,
		cancel:    cancel,
		evHandler: ev,
		sessions:  make(map[*session]struct{}),
	}

	// Register this worker with the state package.
	st.Worker = &w

	// Load the set of operations we need to run.
	operations := []func(){
		w.miningOperations,
		w.peerOperations,
	}
	if listener != nil {
		operations = append(operations, w.listenerOperations)
	}

	// Set waitgroup to match the number of G's we need for the set
	// of operations we have.
	g := len(operations)
	w.wg.Add(g)

	// We don't want to return until we know all the G's are up and running.
	hasStarted := make(chan bool)

	// Start all the operational G's.
	for _, op := range operations {
		go func(op func()) {
			defer w.wg.Done()
			hasStarted <- true
			op()
		}(op)
	}

	// Wait for the G's to report they are running.
	for i := 0; i < g; i++ {
		<-hasStarted
	}
}

// =============================================================================
// These methods implement the state.Worker interface.

// Shutdown terminates the goroutines performing work. Mining is cancelled
// first, then the peer sessions are closed and finally the listener stops
// accepting connections.
func (w *Worker) Shutdown() {
	w.evHandler("worker: shutdown: started")
	defer w.evHandler("worker: shutdown: completed")

	w.evHandler("worker: shutdown: stop ticker")
	w.ticker.Stop()

	w.evHandler("worker: shutdown: cancel mining")
	w.cancel()
	close(w.shut)

	w.evHandler("worker: shutdown: close peer sessions")
	w.closeSessions()

	if w.listener != nil {
		w.evHandler("worker: shutdown: stop listener")
		w.listener.Close()
	}

	w.evHandler("worker: shutdown: terminate goroutines")
	w.wg.Wait()
}

// =============================================================================

// isShutdown is used to test if a shutdown has been signaled.
func (w *Worker) isShutdown() bool {
	select {
	case <-w.shut:
		return true
	default:
		return false
	}
}
