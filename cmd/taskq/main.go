package main

import (
	"os"

	"github.com/dmitrymomot/taskq/internal/cli"
)

func main() {
	if err := cli.NewRoot().Execute(); err != nil {
		os.Exit(1)
	}
}
