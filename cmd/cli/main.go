package main

import (
	"os"

	"github.com/skillorbit/skillorbit/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
