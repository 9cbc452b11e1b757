// Package main provides the entry point for the luabundle CLI.
package main

import (
	"os"

	"github.com/Aman-CERP/luabundle/cmd/luabundle/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
