package database_test

import (
	"errors"
	"math"
	"math/big"
	"testing"
	"time"

	"github.com/ardanlabs/fcoin/foundation/blockchain/database"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// =============================================================================

func Test_Balance(t *testing.T) {
	miner := identity(0xEE)
	a := identity(0xA)
	b := identity(0xB)
	c := identity(0xC)

	type table struct {
		name     string
		build    func() (database.Chain, database.Hash)
		id       database.Identity
		expected int64
		err      error
	}

	tt := []table{
		{
			name: "root",
			build: func() (database.Chain, database.Hash) {
				return database.NewChain(), database.ZeroHash
			},
			id:       a,
			expected: 0,
		},
		{
			name: "destination",
			build: func() (database.Chain, database.Hash) {
				chain := database.NewChain()
				tip := link(chain, database.ZeroHash, miner, c, a, 10)
				return chain, tip
			},
			id:       a,
			expected: 10,
		},
		{
			name: "miner",
			build: func() (database.Chain, database.Hash) {
				chain := database.NewChain()
				tip := link(chain, database.ZeroHash, miner, c, a, 10)
				return chain, tip
			},
			id:       miner,
			expected: 1,
		},
		{
			name: "negative-while-walking",
			build: func() (database.Chain, database.Hash) {
				chain := database.NewChain()
				tip := link(chain, database.ZeroHash, miner, a, b, 5)
				tip = link(chain, tip, miner, c, a, 5)
				return chain, tip
			},
			id:       a,
			expected: 0,
		},
		{
			name: "missing-link",
			build: func() (database.Chain, database.Hash) {
				chain := database.NewChain()
				tip := link(chain, database.Hash{1}, miner, c, a, 10)
				return chain, tip
			},
			id:  a,
			err: database.ErrInvalidChain,
		},
		{
			name: "self-transfer",
			build: func() (database.Chain, database.Hash) {
				chain := database.NewChain()
				tip := link(chain, database.ZeroHash, miner, c, c, 10)
				tip = link(chain, tip, miner, c, a, 10)
				return chain, tip
			},
			id:  a,
			err: database.ErrInvalidChain,
		},
	}

	t.Log("Given the need to derive balances from the chain.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen handling chain %q.", testID, tst.name)
				{
					chain, tip := tst.build()

					balance, err := database.Balance(chain, tip, tst.id)
					if tst.err != nil {
						if !errors.Is(err, tst.err) {
							t.Fatalf("\t%s\tTest %d:\tShould get back error %q: %v", failed, testID, tst.err, err)
						}
						t.Logf("\t%s\tTest %d:\tShould get back error %q.", success, testID, tst.err)
						return
					}

					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to derive the balance: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould be able to derive the balance.", success, testID)

					if balance != tst.expected {
						t.Logf("\t%s\tTest %d:\tgot: %d", failed, testID, balance)
						t.Logf("\t%s\tTest %d:\texp: %d", failed, testID, tst.expected)
						t.Fatalf("\t%s\tTest %d:\tShould get back the right balance.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould get back the right balance.", success, testID)
				}
			}

			t.Run(tst.name, f)
		}
	}
}

func Test_ValidateBlock(t *testing.T) {
	miner := identity(0xEE)
	a := identity(0xA)
	b := identity(0xB)
	c := identity(0xC)

	chain := database.NewChain()
	tip := link(chain, database.ZeroHash, miner, c, a, 10)

	type table struct {
		name  string
		block database.Block
		err   error
	}

	tt := []table{
		{
			name:  "exact-balance",
			block: newBlock(tip, miner, a, b, 10),
		},
		{
			name:  "insufficient-funds",
			block: newBlock(tip, miner, a, b, 11),
			err:   database.ErrInsufficientFunds,
		},
		{
			name:  "self-transfer",
			block: newBlock(tip, miner, a, a, 0),
			err:   database.ErrSelfTransfer,
		},
		{
			name:  "unknown-previous",
			block: newBlock(database.Hash{9}, miner, a, b, 0),
			err:   database.ErrInvalidChain,
		},
		{
			name:  "amount-range",
			block: newBlock(tip, miner, a, b, math.MaxInt64+1),
			err:   database.ErrAmountRange,
		},
		{
			name:  "zero-amount-at-root",
			block: newBlock(database.ZeroHash, miner, a, b, 0),
		},
	}

	t.Log("Given the need to validate blocks against the chain.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen handling block %q.", testID, tst.name)
				{
					err := database.ValidateBlock(tst.block, chain)

					switch tst.err {
					case nil:
						if err != nil {
							t.Fatalf("\t%s\tTest %d:\tShould accept the block: %v", failed, testID, err)
						}
						t.Logf("\t%s\tTest %d:\tShould accept the block.", success, testID)

					default:
						if !errors.Is(err, tst.err) {
							t.Fatalf("\t%s\tTest %d:\tShould reject the block with %q: %v", failed, testID, tst.err, err)
						}
						t.Logf("\t%s\tTest %d:\tShould reject the block with %q.", success, testID, tst.err)
					}

					if got := database.ValidBlock(tst.block, chain); got != (tst.err == nil) {
						t.Fatalf("\t%s\tTest %d:\tShould agree with ValidateBlock, got %v.", failed, testID, got)
					}
					t.Logf("\t%s\tTest %d:\tShould agree with ValidateBlock.", success, testID)
				}
			}

			t.Run(tst.name, f)
		}
	}
}

func Test_Hash(t *testing.T) {
	t.Log("Given the need to hash blocks.")
	{
		t.Logf("\tTest 0:\tWhen hashing the same block twice.")
		{
			block := newBlock(database.ZeroHash, identity(1), identity(2), identity(3), 7)

			if block.Hash() != block.Hash() {
				t.Fatalf("\t%s\tTest 0:\tShould get back the same hash twice.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould get back the same hash twice.", success)

			if block.Hash().IsRoot() {
				t.Fatalf("\t%s\tTest 0:\tShould not produce the root hash.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould not produce the root hash.", success)
		}

		t.Logf("\tTest 1:\tWhen changing any hashed field.")
		{
			block := newBlock(database.ZeroHash, identity(1), identity(2), identity(3), 7)
			hash := block.Hash()

			changes := map[string]func(b *database.Block){
				"time":        func(b *database.Block) { b.Time++ },
				"miner":       func(b *database.Block) { b.Miner[0]++ },
				"previous":    func(b *database.Block) { b.PreviousHash[31]++ },
				"nonce":       func(b *database.Block) { b.Nonce[5]++ },
				"signature":   func(b *database.Block) { b.Transaction.Signature[127]++ },
				"source":      func(b *database.Block) { b.Transaction.Details.Source[64]++ },
				"destination": func(b *database.Block) { b.Transaction.Details.Destination[3]++ },
				"amount":      func(b *database.Block) { b.Transaction.Details.Amount++ },
			}

			for field, change := range changes {
				changed := block
				change(&changed)

				if changed.Hash() == hash {
					t.Fatalf("\t%s\tTest 1:\tShould get a different hash when %s changes.", failed, field)
				}
				t.Logf("\t%s\tTest 1:\tShould get a different hash when %s changes.", success, field)
			}
		}

		t.Logf("\tTest 2:\tWhen converting a hash to and from hex.")
		{
			block := newBlock(database.ZeroHash, identity(1), identity(2), identity(3), 7)
			hash := block.Hash()

			got, err := database.ToHash(hash.String())
			if err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould be able to parse the hash: %v", failed, err)
			}
			t.Logf("\t%s\tTest 2:\tShould be able to parse the hash.", success)

			if got != hash {
				t.Fatalf("\t%s\tTest 2:\tShould get back the same 32 bytes.", failed)
			}
			t.Logf("\t%s\tTest 2:\tShould get back the same 32 bytes.", success)
		}
	}
}

func Test_POW(t *testing.T) {
	tx := database.NewTransaction(database.NewTransactionDetails(identity(1), identity(2), 0), database.Signature{})
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Log("Given the need to admit proto blocks with proof of work.")
	{
		t.Logf("\tTest 0:\tWhen every hash satisfies the bound.")
		{
			pb := database.NewProtoBlock(tx)
			args := database.POWArgs{
				Miner:      identity(9),
				PrevHash:   database.Hash{4},
				Difficulty: 256,
				Now:        now,
			}

			result := database.POW(pb, args)
			if !result.Solved {
				t.Fatalf("\t%s\tTest 0:\tShould solve on the first attempt.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould solve on the first attempt.", success)

			block := result.Block
			if block.Miner != args.Miner || block.PreviousHash != args.PrevHash || block.Time != uint64(now.Unix()) {
				t.Fatalf("\t%s\tTest 0:\tShould build the block from the attempt arguments.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould build the block from the attempt arguments.", success)

			if err := database.ValidatePOW(block, args.Difficulty); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould validate the mined block: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould validate the mined block.", success)
		}

		t.Logf("\tTest 1:\tWhen no hash satisfies the bound.")
		{
			pb := database.NewProtoBlock(tx)
			args := database.POWArgs{
				Miner:      identity(9),
				Difficulty: 0,
				Now:        now,
			}

			for i := 1; i <= 300; i++ {
				result := database.POW(pb, args)
				if result.Solved {
					t.Fatalf("\t%s\tTest 1:\tShould not solve the puzzle.", failed)
				}

				if result.Retry.Transaction != tx {
					t.Fatalf("\t%s\tTest 1:\tShould carry the same transaction.", failed)
				}

				exp := big.NewInt(int64(i))
				if result.Retry.Nonce.Int().Cmp(exp) != 0 {
					t.Logf("\t%s\tTest 1:\tgot: %s", failed, result.Retry.Nonce.Int())
					t.Logf("\t%s\tTest 1:\texp: %s", failed, exp)
					t.Fatalf("\t%s\tTest 1:\tShould increase the nonce by one.", failed)
				}

				pb = result.Retry
			}
			t.Logf("\t%s\tTest 1:\tShould increase the nonce by one on every attempt.", success)

			block := database.Block{Transaction: tx}
			if err := database.ValidatePOW(block, args.Difficulty); !errors.Is(err, database.ErrProofOfWork) {
				t.Fatalf("\t%s\tTest 1:\tShould reject an unsolved block: %v", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould reject an unsolved block.", success)
		}

		t.Logf("\tTest 2:\tWhen incrementing the nonce across byte boundaries.")
		{
			var n database.Nonce
			n[0] = 0xFF
			n[1] = 0xFF

			next := n.Increment()
			if next[0] != 0 || next[1] != 0 || next[2] != 1 {
				t.Fatalf("\t%s\tTest 2:\tShould carry into the next byte: %s", failed, next)
			}
			t.Logf("\t%s\tTest 2:\tShould carry into the next byte.", success)

			var top database.Nonce
			for i := range top {
				top[i] = 0xFF
			}

			if top.Increment() != (database.Nonce{}) {
				t.Fatalf("\t%s\tTest 2:\tShould wrap the largest nonce to zero.", failed)
			}
			t.Logf("\t%s\tTest 2:\tShould wrap the largest nonce to zero.", success)
		}

		t.Logf("\tTest 3:\tWhen checking the bound of a difficulty.")
		{
			var hash database.Hash
			hash[1] = 0x01 // 256 as a little endian integer.

			if !database.Difficulty(9).IsSolved(hash) {
				t.Fatalf("\t%s\tTest 3:\tShould accept 256 below 2^9.", failed)
			}
			t.Logf("\t%s\tTest 3:\tShould accept 256 below 2^9.", success)

			if database.Difficulty(8).IsSolved(hash) {
				t.Fatalf("\t%s\tTest 3:\tShould reject 256 at 2^8.", failed)
			}
			t.Logf("\t%s\tTest 3:\tShould reject 256 at 2^8.", success)
		}
	}
}

func Test_Identity(t *testing.T) {
	t.Log("Given the need to render identities.")
	{
		t.Logf("\tTest 0:\tWhen converting an identity to and from hex.")
		{
			id := identity(0x42)

			got, err := database.ToIdentity(id.Hex())
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to parse the identity: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to parse the identity.", success)

			if got != id {
				t.Fatalf("\t%s\tTest 0:\tShould get back the same identity.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould get back the same identity.", success)

			if _, err := database.ToIdentity("0x1234"); err == nil {
				t.Fatalf("\t%s\tTest 0:\tShould reject a short identity.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould reject a short identity.", success)

			if id.Address() == "" || id.Address() == identity(0x43).Address() {
				t.Fatalf("\t%s\tTest 0:\tShould produce distinct addresses.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould produce distinct addresses.", success)
		}
	}
}

// =============================================================================

func identity(b byte) database.Identity {
	var id database.Identity
	for i := range id {
		id[i] = b
	}
	return id
}

func newBlock(prev database.Hash, miner, from, to database.Identity, amount uint64) database.Block {
	return database.Block{
		Time:         1,
		Miner:        miner,
		PreviousHash: prev,
		Transaction:  database.NewTransaction(database.NewTransactionDetails(from, to, amount), database.Signature{}),
	}
}

// link stores a block in the chain without validation and returns its hash.
func link(chain database.Chain, prev database.Hash, miner, from, to database.Identity, amount uint64) database.Hash {
	block := newBlock(prev, miner, from, to, amount)
	hash := block.Hash()
	chain[hash] = block

	return hash
}
