// Package mempool maintains the queue of transactions waiting to be mined.
// Each transaction is held as a proto block whose nonce evolves between
// proof of work attempts.
package mempool

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ardanlabs/fcoin/foundation/blockchain/database"
)

// ErrClosed is returned once the mempool has been closed.
var ErrClosed = errors.New("mempool closed")

// DefaultCapacity is used when a capacity of zero is requested.
const DefaultCapacity = 100

// =============================================================================

// Mempool is a bounded FIFO of proto blocks. Producers block while the pool
// is full. A proto block taken by the miner can always be put back at the
// tail with Requeue, so the pool holds at most capacity+1 items.
type Mempool struct {
	mu       sync.Mutex
	pool     []database.ProtoBlock
	capacity int
	changed  chan struct{}
	closed   bool
}

// New constructs a mempool that holds capacity proto blocks.
func New(capacity int) (*Mempool, error) {
	if capacity < 0 {
		return nil, fmt.Errorf("invalid capacity %d", capacity)
	}

	if capacity == 0 {
		capacity = DefaultCapacity
	}

	mp := Mempool{
		capacity: capacity,
		changed:  make(chan struct{}),
	}

	return &mp, nil
}

// Push adds the proto block at the tail of the pool. If the pool is full
// Push waits until space is available, the context is done or the pool is
// closed.
func (mp *Mempool) Push(ctx context.Context, pb database.ProtoBlock) error {
	for {
		mp.mu.Lock()
		if mp.closed {
			mp.mu.Unlock()
			return ErrClosed
		}

		if len(mp.pool) < mp.capacity {
			mp.pool = append(mp.pool, pb)
			mp.signal()
			mp.mu.Unlock()
			return nil
		}

		changed := mp.changed
		mp.mu.Unlock()

		select {
		case <-changed:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Requeue puts a proto block back at the tail of the pool after a failed
// proof of work attempt. It never blocks.
func (mp *Mempool) Requeue(pb database.ProtoBlock) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.closed {
		return ErrClosed
	}

	mp.pool = append(mp.pool, pb)
	mp.signal()

	return nil
}

// Pop removes the proto block at the head of the pool. If the pool is empty
// Pop waits until an item arrives, the context is done or the pool is closed.
func (mp *Mempool) Pop(ctx context.Context) (database.ProtoBlock, error) {
	for {
		mp.mu.Lock()
		if mp.closed {
			mp.mu.Unlock()
			return database.ProtoBlock{}, ErrClosed
		}

		if len(mp.pool) > 0 {
			pb := mp.pool[0]
			mp.pool[0] = database.ProtoBlock{}
			mp.pool = mp.pool[1:]
			mp.signal()
			mp.mu.Unlock()
			return pb, nil
		}

		changed := mp.changed
		mp.mu.Unlock()

		select {
		case <-changed:
		case <-ctx.Done():
			return database.ProtoBlock{}, ctx.Err()
		}
	}
}

// Count returns the current number of proto blocks in the pool.
func (mp *Mempool) Count() int {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	return len(mp.pool)
}

// Copy returns the proto blocks in the pool in queue order.
func (mp *Mempool) Copy() []database.ProtoBlock {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	cpy := make([]database.ProtoBlock, len(mp.pool))
	copy(cpy, mp.pool)

	return cpy
}

// Close wakes every waiting caller with ErrClosed. Items still in the pool
// are discarded.
func (mp *Mempool) Close() {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.closed {
		return
	}

	mp.closed = true
	mp.pool = nil
	mp.signal()
}

// signal wakes every goroutine waiting on a change. The caller must hold mu.
func (mp *Mempool) signal() {
	close(mp.changed)
	mp.changed = make(chan struct{})
}
