package main

import (
	"os"

	"github.com/grovetools/watch/cmd"
)

func main() {
	if err := cmd.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
