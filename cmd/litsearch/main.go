// Package main provides the entry point for the litsearch CLI.
package main

import (
	"os"

	"github.com/Aman-CERP/litsearch/cmd/litsearch/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
