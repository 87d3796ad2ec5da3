package main

import (
	"os"

	"github.com/parkops/workplan/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
