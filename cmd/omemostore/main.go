package main

import (
	"os"

	"omemostore/cmd/omemostore/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
