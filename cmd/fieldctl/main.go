// Command fieldctl is the operator CLI: it reads aggregated rows, manages invites and
// applies database migrations against the configured backend.
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
