package cmd

import (
	"fmt"
	"log"

	"github.com/ardanlabs/fcoin/foundation/blockchain/signature"
	"github.com/spf13/cobra"
)

var identityCmd = &cobra.Command{
	Use:   "identity",
	Short: "Print the identity for the specific key",
	Run:   identityRun,
}

func init() {
	rootCmd.AddCommand(identityCmd)
}

func identityRun(cmd *cobra.Command, args []string) {
	privateKey, err := loadPrivateKey()
	if err != nil {
		log.Fatal(err)
	}

	id := signature.PublicKeyToIdentity(privateKey.PublicKey)
	fmt.Println("Address: ", id.Address())
	fmt.Println("Identity:", id.Hex())
}
