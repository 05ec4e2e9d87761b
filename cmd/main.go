package main

import (
	"os"

	"github.com/feedwise/feedwise/cmd/feedwise"
)

func main() {
	if err := feedwise.Execute(); err != nil {
		os.Exit(1)
	}
}
