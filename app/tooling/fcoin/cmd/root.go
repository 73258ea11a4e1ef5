// Package cmd contains the fcoin commands.
package cmd

import (
	"crypto/ecdsa"
	"os"
	"path/filepath"
	"strings"

	"github.com/ardanlabs/fcoin/foundation/blockchain/database"
	"github.com/ardanlabs/fcoin/foundation/blockchain/signature"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
)

var (
	accountName string
	accountPath string
)

const (
	keyExtension = ".ecdsa"
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&accountName, "account", "a", "private.ecdsa", "Name of the private key file.")
	rootCmd.PersistentFlags().StringVarP(&accountPath, "account-path", "p", "zblock/accounts/", "Path to the directory with private keys.")
}

var rootCmd = &cobra.Command{
	Use:   "fcoin",
	Short: "Manage keys and send fcoin transactions",
}

// Execute runs the command line tool.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func getPrivateKeyPath() string {
	return keyPath(accountName)
}

func keyPath(name string) string {
	if !strings.HasSuffix(name, keyExtension) {
		name += keyExtension
	}

	return filepath.Join(accountPath, name)
}

func loadPrivateKey() (*ecdsa.PrivateKey, error) {
	return crypto.LoadECDSA(getPrivateKeyPath())
}

// resolveIdentity accepts a hex encoded identity or the name of a key file
// in the account path.
func resolveIdentity(v string) (database.Identity, error) {
	if strings.HasPrefix(v, "0x") {
		return database.ToIdentity(v)
	}

	privateKey, err := crypto.LoadECDSA(keyPath(v))
	if err != nil {
		return database.Identity{}, err
	}

	return signature.PublicKeyToIdentity(privateKey.PublicKey), nil
}
