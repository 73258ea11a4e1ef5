package cmd

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/ardanlabs/fcoin/foundation/blockchain/signature"
	"github.com/spf13/cobra"
)

var url string

type balance struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Tip     string `json:"tip"`
	Balance int64  `json:"balance"`
}

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Print your balance.",
	Run:   balanceRun,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
	balanceCmd.Flags().StringVarP(&url, "url", "u", "http://localhost:8080", "Url of the node.")
}

func balanceRun(cmd *cobra.Command, args []string) {
	privateKey, err := loadPrivateKey()
	if err != nil {
		log.Fatal(err)
	}

	id := signature.PublicKeyToIdentity(privateKey.PublicKey)
	fmt.Println("For Address:", id.Address())

	resp, err := http.Get(fmt.Sprintf("%s/v1/balance/%s", url, id.Hex()))
	if err != nil {
		log.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Fatalf("node responded with status %d", resp.StatusCode)
	}

	var bal balance
	if err := json.NewDecoder(resp.Body).Decode(&bal); err != nil {
		log.Fatal(err)
	}

	fmt.Println("At Tip:", bal.Tip)
	fmt.Println(bal.Balance)
}
