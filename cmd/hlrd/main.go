package main

import (
	"os"

	"github.com/AnrPg/noema/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
