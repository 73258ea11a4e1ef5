package worker_test

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ardanlabs/fcoin/foundation/blockchain/database"
	"github.com/ardanlabs/fcoin/foundation/blockchain/peer"
	"github.com/ardanlabs/fcoin/foundation/blockchain/signature"
	"github.com/ardanlabs/fcoin/foundation/blockchain/state"
	"github.com/ardanlabs/fcoin/foundation/blockchain/wire"
	"github.com/ardanlabs/fcoin/foundation/blockchain/worker"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// anyHash makes every proof of work attempt succeed.
const anyHash database.Difficulty = 256

// =============================================================================

func identity(b byte) database.Identity {
	var id database.Identity
	id[0] = b
	return id
}

func newNode(t *testing.T, miner database.Identity, seeds ...peer.Peer) (*state.State, string) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("\t%s\tShould be able to listen on loopback: %v", failed, err)
	}

	s, err := state.New(state.Config{
		Identity:   miner,
		Host:       l.Addr().String(),
		KnownPeers: seeds,
		Verifier:   signature.Noop{},
		Difficulty: anyHash,
	})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the state: %v", failed, err)
	}

	worker.Run(s, l, nil)

	return s, l.Addr().String()
}

func eventually(cond func() bool) bool {
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}

	return cond()
}

func newTransaction(from, to database.Identity) database.Transaction {
	return database.NewTransaction(database.NewTransactionDetails(from, to, 0), database.Signature{})
}

// =============================================================================

func Test_Replication(t *testing.T) {
	t.Log("Given two connected nodes.")
	{
		a, addrA := newNode(t, identity(1))
		defer a.Shutdown()

		b, _ := newNode(t, identity(2), peer.New(addrA))
		defer b.Shutdown()

		if !eventually(func() bool { return len(a.RetrieveConnectedPeers()) == 1 }) {
			t.Fatalf("\t%s\tShould see the seed session on both sides.", failed)
		}
		t.Logf("\t%s\tShould see the seed session on both sides.", success)

		if err := b.SubmitTransaction(context.Background(), newTransaction(identity(3), identity(4))); err != nil {
			t.Fatalf("\t%s\tShould be able to submit a transaction: %v", failed, err)
		}

		replicated := func() bool {
			tip := b.RetrieveTip()
			return !tip.IsRoot() && a.RetrieveTip() == tip
		}

		if !eventually(replicated) {
			t.Fatalf("\t%s\tShould replicate the mined block to the peer.", failed)
		}
		t.Logf("\t%s\tShould replicate the mined block to the peer.", success)

		if _, bal, _ := a.QueryBalance(identity(2)); bal != 1 {
			t.Fatalf("\t%s\tShould credit the remote miner on the peer, got %d.", failed, bal)
		}
		t.Logf("\t%s\tShould credit the remote miner on the peer.", success)
	}
}

func Test_LateJoin(t *testing.T) {
	t.Log("Given a node that joins after blocks were mined.")
	{
		a, addrA := newNode(t, identity(1))
		defer a.Shutdown()

		for i := byte(0); i < 3; i++ {
			if err := a.SubmitTransaction(context.Background(), newTransaction(identity(10+i), identity(20+i))); err != nil {
				t.Fatalf("\t%s\tShould be able to submit a transaction: %v", failed, err)
			}
		}

		mined := func() bool {
			n, _ := a.QueryChain()
			return len(n) == 3
		}
		if !eventually(mined) {
			t.Fatalf("\t%s\tShould mine three blocks.", failed)
		}
		t.Logf("\t%s\tShould mine three blocks.", success)

		b, _ := newNode(t, identity(2), peer.New(addrA))
		defer b.Shutdown()

		if !eventually(func() bool { return b.RetrieveTip() == a.RetrieveTip() }) {
			t.Fatalf("\t%s\tShould receive the chain when the session starts.", failed)
		}
		t.Logf("\t%s\tShould receive the chain when the session starts.", success)
	}
}

func Test_PeerTransaction(t *testing.T) {
	t.Log("Given a transaction written by a client over the wire.")
	{
		a, addrA := newNode(t, identity(1))
		defer a.Shutdown()

		conn, err := net.Dial("tcp", addrA)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to connect: %v", failed, err)
		}

		wc := wire.NewConn(conn)
		defer wc.Close()

		if err := wc.Write(wire.TransactionFrame(newTransaction(identity(3), identity(4)))); err != nil {
			t.Fatalf("\t%s\tShould be able to write the frame: %v", failed, err)
		}

		if !eventually(func() bool { return !a.RetrieveTip().IsRoot() }) {
			t.Fatalf("\t%s\tShould mine the transaction.", failed)
		}
		t.Logf("\t%s\tShould mine the transaction.", success)

		frame, err := wc.Read()
		if err != nil || frame.Kind != wire.KindBlock {
			t.Fatalf("\t%s\tShould receive the mined block: %v", failed, err)
		}
		t.Logf("\t%s\tShould receive the mined block.", success)
	}
}

func Test_Shutdown(t *testing.T) {
	t.Log("Given a node with an open peer session.")
	{
		a, addrA := newNode(t, identity(1))

		conn, err := net.Dial("tcp", addrA)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to connect: %v", failed, err)
		}
		defer conn.Close()

		if !eventually(func() bool { return len(a.RetrieveConnectedPeers()) == 1 }) {
			t.Fatalf("\t%s\tShould register the session.", failed)
		}

		done := make(chan struct{})
		go func() {
			a.Shutdown()
			close(done)
		}()

		select {
		case <-done:
			t.Logf("\t%s\tShould shut down with a session open.", success)
		case <-time.After(10 * time.Second):
			t.Fatalf("\t%s\tShould shut down with a session open.", failed)
		}

		if _, err := wire.NewConn(conn).Read(); err == nil {
			t.Fatalf("\t%s\tShould close the peer connection.", failed)
		}
		t.Logf("\t%s\tShould close the peer connection.", success)

		if _, err := net.DialTimeout("tcp", addrA, time.Second); err == nil {
			t.Fatalf("\t%s\tShould stop accepting connections.", failed)
		}
		t.Logf("\t%s\tShould stop accepting connections.", success)
	}
}

// failingListener fails every Accept until it is closed.
type failingListener struct {
	calls  atomic.Int64
	closed atomic.Bool
}

func (l *failingListener) Accept() (net.Conn, error) {
	l.calls.Add(1)
	if l.closed.Load() {
		return nil, net.ErrClosed
	}
	return nil, errors.New("accept tcp: too many open files")
}

func (l *failingListener) Close() error {
	l.closed.Store(true)
	return nil
}

func (l *failingListener) Addr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1)}
}

func Test_AcceptBackoff(t *testing.T) {
	t.Log("Given a listener that keeps failing to accept.")
	{
		s, err := state.New(state.Config{
			Identity:   identity(1),
			Verifier:   signature.Noop{},
			Difficulty: anyHash,
		})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct the state: %v", failed, err)
		}

		l := failingListener{}
		worker.Run(s, &l, nil)

		time.Sleep(100 * time.Millisecond)

		calls := l.calls.Load()
		if calls > 20 {
			t.Fatalf("\t%s\tShould back off between failed accepts, got %d calls.", failed, calls)
		}
		t.Logf("\t%s\tShould back off between failed accepts.", success)

		done := make(chan struct{})
		go func() {
			s.Shutdown()
			close(done)
		}()

		select {
		case <-done:
			t.Logf("\t%s\tShould shut down while backing off.", success)
		case <-time.After(5 * time.Second):
			t.Fatalf("\t%s\tShould shut down while backing off.", failed)
		}
	}
}
