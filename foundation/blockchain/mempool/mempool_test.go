package mempool_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ardanlabs/fcoin/foundation/blockchain/database"
	"github.com/ardanlabs/fcoin/foundation/blockchain/mempool"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func protoBlock(amount uint64) database.ProtoBlock {
	var src, dst database.Identity
	src[0], dst[0] = 1, 2

	tx := database.NewTransaction(database.NewTransactionDetails(src, dst, amount), database.Signature{})
	return database.NewProtoBlock(tx)
}

func Test_FIFO(t *testing.T) {
	t.Log("Given the need to queue proto blocks for mining.")
	{
		t.Logf("\tTest 0:\tWhen pushing, popping and requeueing.")
		{
			mp, err := mempool.New(3)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to construct a mempool: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to construct a mempool.", success)

			ctx := context.Background()
			for i := uint64(1); i <= 3; i++ {
				if err := mp.Push(ctx, protoBlock(i)); err != nil {
					t.Fatalf("\t%s\tTest 0:\tShould be able to push proto block %d: %v", failed, i, err)
				}
			}
			t.Logf("\t%s\tTest 0:\tShould be able to push proto blocks.", success)

			pb, err := mp.Pop(ctx)
			if err != nil || pb.Transaction.Details.Amount != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould pop the head of the queue: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould pop the head of the queue.", success)

			pb.Nonce = pb.Nonce.Increment()
			if err := mp.Requeue(pb); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to requeue: %v", failed, err)
			}

			var order []uint64
			for _, pb := range mp.Copy() {
				order = append(order, pb.Transaction.Details.Amount)
			}

			exp := []uint64{2, 3, 1}
			if len(order) != len(exp) || order[0] != exp[0] || order[1] != exp[1] || order[2] != exp[2] {
				t.Logf("\t%s\tTest 0:\tgot: %v", failed, order)
				t.Logf("\t%s\tTest 0:\texp: %v", failed, exp)
				t.Fatalf("\t%s\tTest 0:\tShould requeue at the tail.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould requeue at the tail.", success)

			if got := mp.Copy()[2].Nonce.Int().Int64(); got != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould keep the incremented nonce, got %d.", failed, got)
			}
			t.Logf("\t%s\tTest 0:\tShould keep the incremented nonce.", success)
		}
	}
}

func Test_Blocking(t *testing.T) {
	t.Log("Given the need to bound the mempool.")
	{
		t.Logf("\tTest 0:\tWhen pushing into a full pool.")
		{
			mp, _ := mempool.New(1)
			ctx := context.Background()

			if err := mp.Push(ctx, protoBlock(1)); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to push: %v", failed, err)
			}

			short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
			defer cancel()

			if err := mp.Push(short, protoBlock(2)); !errors.Is(err, context.DeadlineExceeded) {
				t.Fatalf("\t%s\tTest 0:\tShould wait while the pool is full: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould wait while the pool is full.", success)

			pushed := make(chan error, 1)
			go func() {
				pushed <- mp.Push(ctx, protoBlock(3))
			}()

			if _, err := mp.Pop(ctx); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to pop: %v", failed, err)
			}

			select {
			case err := <-pushed:
				if err != nil {
					t.Fatalf("\t%s\tTest 0:\tShould complete the waiting push: %v", failed, err)
				}
			case <-time.After(time.Second):
				t.Fatalf("\t%s\tTest 0:\tShould complete the waiting push.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould complete the waiting push.", success)
		}

		t.Logf("\tTest 1:\tWhen closing a pool with a waiting consumer.")
		{
			mp, _ := mempool.New(0)

			popped := make(chan error, 1)
			go func() {
				_, err := mp.Pop(context.Background())
				popped <- err
			}()

			time.Sleep(10 * time.Millisecond)
			mp.Close()

			select {
			case err := <-popped:
				if !errors.Is(err, mempool.ErrClosed) {
					t.Fatalf("\t%s\tTest 1:\tShould wake the consumer with ErrClosed: %v", failed, err)
				}
			case <-time.After(time.Second):
				t.Fatalf("\t%s\tTest 1:\tShould wake the consumer.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould wake the consumer with ErrClosed.", success)

			if err := mp.Requeue(protoBlock(1)); !errors.Is(err, mempool.ErrClosed) {
				t.Fatalf("\t%s\tTest 1:\tShould refuse work after close: %v", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould refuse work after close.", success)
		}
	}
}
