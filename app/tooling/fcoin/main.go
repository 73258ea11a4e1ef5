// This program provides the fcoin command line tool for managing keys and
// sending transactions to a node.
package main

import "github.com/ardanlabs/fcoin/app/tooling/fcoin/cmd"

func main() {
	cmd.Execute()
}
