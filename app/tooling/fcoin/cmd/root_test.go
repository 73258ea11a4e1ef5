package cmd

import (
	"testing"

	"github.com/ardanlabs/fcoin/foundation/blockchain/signature"
	"github.com/ethereum/go-ethereum/crypto"
)

func Test_ResolveIdentity(t *testing.T) {
	accountPath = t.TempDir()

	pk, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("Should be able to generate a key: %s", err)
	}

	if err := crypto.SaveECDSA(keyPath("pavel"), pk); err != nil {
		t.Fatalf("Should be able to save the key: %s", err)
	}

	exp := signature.PublicKeyToIdentity(pk.PublicKey)

	id, err := resolveIdentity("pavel")
	if err != nil || id != exp {
		t.Fatalf("Should resolve a key name to its identity: %v", err)
	}

	id, err = resolveIdentity(exp.Hex())
	if err != nil || id != exp {
		t.Fatalf("Should resolve a hex identity: %v", err)
	}

	if _, err := resolveIdentity("0x1234"); err == nil {
		t.Fatalf("Should reject a short identity.")
	}
}
