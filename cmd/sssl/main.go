//go:debug x509negativeserial=1

// Command sssl forges a certificate chain from a trusted root CA. Roots with
// a negative serial number are accepted.
package main

import (
	"fmt"
	"os"
)

// Build-time variables (injected by GoReleaser)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
