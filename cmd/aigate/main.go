// Command aigate is a small CLI front end for the gateway: it wires
// the configured cache backend, transport and observability stack,
// issues one call and prints the Result as JSON.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
