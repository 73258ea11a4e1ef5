// Package nameservice reads the zblock/accounts folder and creates a name
// service lookup for the identities of the keys stored there.
package nameservice

import (
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"strings"

	"github.com/ardanlabs/fcoin/foundation/blockchain/database"
	"github.com/ardanlabs/fcoin/foundation/blockchain/signature"
	"github.com/ethereum/go-ethereum/crypto"
)

// NameService maintains a map of identities for name lookup.
type NameService struct {
	identities map[database.Identity]string
}

// New constructs a name service with the identities of every .ecdsa key
// file found under root.
func New(root string) (*NameService, error) {
	ns := NameService{
		identities: make(map[database.Identity]string),
	}

	fn := func(fileName string, info fs.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("walkdir failure: %w", err)
		}

		if path.Ext(fileName) != ".ecdsa" {
			return nil
		}

		privateKey, err := crypto.LoadECDSA(fileName)
		if err != nil {
			return err
		}

		id := signature.PublicKeyToIdentity(privateKey.PublicKey)
		ns.identities[id] = strings.TrimSuffix(path.Base(fileName), ".ecdsa")

		return nil
	}

	if err := filepath.Walk(root, fn); err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	return &ns, nil
}

// Lookup returns the name for the specified identity. An unknown identity
// is named by its address.
func (ns *NameService) Lookup(id database.Identity) string {
	name, exists := ns.identities[id]
	if !exists {
		return id.Address()
	}
	return name
}

// Copy returns a copy of the map of names and identities.
func (ns *NameService) Copy() map[database.Identity]string {
	cpy := make(map[database.Identity]string, len(ns.identities))
	for id, name := range ns.identities {
		cpy[id] = name
	}
	return cpy
}
