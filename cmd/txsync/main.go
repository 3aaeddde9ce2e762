// Command txsync ingests bank exports and reconciles stored transactions
// from the command line.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd(newApp(os.Stdout, os.Stdin)).Execute(); err != nil {
		os.Exit(1)
	}
}
