package main

import (
	"os"

	"github.com/glosslink/glosslink/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
