package main

import (
	"os"

	"github.com/veilworks/faceveil/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
