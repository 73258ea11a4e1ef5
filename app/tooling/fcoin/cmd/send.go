package cmd

import (
	"crypto/ecdsa"
	"fmt"
	"io"
	"log"
	"net"
	"time"

	"github.com/ardanlabs/fcoin/foundation/blockchain/database"
	"github.com/ardanlabs/fcoin/foundation/blockchain/signature"
	"github.com/ardanlabs/fcoin/foundation/blockchain/wire"
	"github.com/spf13/cobra"
)

var (
	node    string
	to      string
	amount  uint64
	scheme  string
	timeout time.Duration
)

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send transaction",
	Run: func(cmd *cobra.Command, args []string) {
		privateKey, err := loadPrivateKey()
		if err != nil {
			log.Fatal(err)
		}

		if err := sendWithDetails(privateKey); err != nil {
			log.Fatal(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&node, "node", "n", "localhost:7123", "Peer address of the node.")
	sendCmd.Flags().StringVarP(&to, "to", "t", "", "Identity hex or key name of the destination.")
	sendCmd.Flags().Uint64VarP(&amount, "amount", "v", 0, "Amount to send.")
	sendCmd.Flags().StringVarP(&scheme, "signatures", "s", signature.SchemeSecp256k1, "Signature scheme of the network.")
	sendCmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "Time allowed to deliver the transaction.")
	sendCmd.MarkFlagRequired("to")
}

func sendWithDetails(privateKey *ecdsa.PrivateKey) error {
	destination, err := resolveIdentity(to)
	if err != nil {
		return fmt.Errorf("destination: %w", err)
	}

	signer, _, err := signature.New(scheme, privateKey)
	if err != nil {
		return err
	}

	details := database.NewTransactionDetails(signer.Identity(), destination, amount)

	sig, err := signer.Sign(details)
	if err != nil {
		return err
	}

	tx := database.NewTransaction(details, sig)

	conn, err := net.DialTimeout("tcp", node, timeout)
	if err != nil {
		return err
	}
	conn.SetDeadline(time.Now().Add(timeout))

	wc := wire.NewConn(conn)
	defer wc.Close()

	if err := wc.Write(wire.TransactionFrame(tx)); err != nil {
		return err
	}

	// The node treats this connection as a peer and sends its chain. Signal
	// we are done writing and drain until the node ends the session, so the
	// transaction is read before the connection goes away.
	if tc, ok := conn.(*net.TCPConn); ok {
		tc.CloseWrite()
	}
	io.Copy(io.Discard, conn)

	fmt.Println("Sent:", tx)
	return nil
}
