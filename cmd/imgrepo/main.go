package main

import (
	"os"

	"github.com/imgrepo/imgrepo/internal/repo/cli"
)

func main() {
	if err := cli.NewRoot().Execute(); err != nil {
		os.Exit(1)
	}
}
